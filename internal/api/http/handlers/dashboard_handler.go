package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
)

// DashboardHandler serves per-department daily statistics.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetDepartmentStats GET /api/dashboard/stats/:departmentId.
func (h *DashboardHandler) GetDepartmentStats(c *fiber.Ctx) error {
	stats, err := h.dashboard.GetTodayStats(c.UserContext(), c.Params("departmentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TodayStatsResponse{
		TotalTickets:       stats.TotalTickets,
		Completed:          stats.Completed,
		Waiting:            stats.Waiting,
		Cancelled:          stats.Cancelled,
		AverageWaitMinutes: stats.AverageWaitMinutes,
		CurrentQueueLength: stats.CurrentQueueLength,
	}})
}
