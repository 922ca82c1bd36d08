package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/dto"
	"github.com/spec-kit/queue-service/internal/service"
	apperrors "github.com/spec-kit/queue-service/pkg/util"
)

// TicketsHandler exposes the queue engine over HTTP.
type TicketsHandler struct {
	queue *service.QueueService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(queue *service.QueueService) *TicketsHandler {
	return &TicketsHandler{queue: queue}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.DepartmentID == "" {
		return apperrors.NewValidationError("user_id and department_id required", nil)
	}
	if req.Priority < 0 {
		return apperrors.NewValidationError("priority must not be negative", nil)
	}

	ticket, position, err := h.queue.CreateTicket(c.UserContext(), service.CreateTicketInput{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
		DoctorID:     req.DoctorID,
		Priority:     req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketView(ticket, position)})
}

// GetUserTickets GET /api/tickets/user/:userId.
func (h *TicketsHandler) GetUserTickets(c *fiber.Ctx) error {
	tickets, err := h.queue.GetUserTickets(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		position := h.queue.QueuePosition(c.UserContext(), &tickets[i])
		items = append(items, dto.TicketView(&tickets[i], position))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetDepartmentQueue GET /api/tickets/department/:departmentId.
func (h *TicketsHandler) GetDepartmentQueue(c *fiber.Ctx) error {
	queue, err := h.queue.GetDepartmentQueue(c.UserContext(), c.Params("departmentId"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(queue))
	for i := range queue {
		items = append(items, dto.TicketView(&queue[i], i+1))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateStatus PUT /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	ticket, err := h.queue.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	position := h.queue.QueuePosition(c.UserContext(), ticket)
	return c.JSON(fiber.Map{"data": dto.TicketView(ticket, position)})
}
