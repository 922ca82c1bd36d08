package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Tickets   *handlers.TicketsHandler
	Dashboard *handlers.DashboardHandler
	Directory *handlers.DirectoryHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/user/:userId", cfg.Tickets.GetUserTickets)
	tickets.Get("/department/:departmentId", cfg.Tickets.GetDepartmentQueue)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)

	api.Get("/dashboard/stats/:departmentId", cfg.Dashboard.GetDepartmentStats)

	hospitals := api.Group("/hospitals")
	hospitals.Get("/", cfg.Directory.ListHospitals)
	hospitals.Post("/", cfg.Directory.CreateHospital)

	departments := api.Group("/departments")
	departments.Get("/", cfg.Directory.ListDepartments)
	departments.Post("/", cfg.Directory.CreateDepartment)
	departments.Get("/hospital/:hospitalId", cfg.Directory.ListDepartmentsByHospital)
	departments.Get("/:id", cfg.Directory.GetDepartment)
	departments.Get("/:id/doctors", cfg.Directory.ListDoctorsByDepartment)

	users := api.Group("/users")
	users.Post("/", cfg.Directory.CreateUser)
	users.Get("/:id", cfg.Directory.GetUser)
}
