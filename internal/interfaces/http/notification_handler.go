package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

// NotificationHandler recordatorios y conteos.
type NotificationHandler struct {
	svc *notification.Scheduler
	val *validator.Validator
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(svc *notification.Scheduler, val *validator.Validator) *NotificationHandler {
	return &NotificationHandler{svc: svc, val: val}
}

// ScheduleReminder POST /api/notifications/reminders
func (h *NotificationHandler) ScheduleReminder(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ScheduleReminderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.val.Struct(in); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}
	out, err := h.svc.ScheduleFromRequest(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Cancel POST /api/notifications/cancel
func (h *NotificationHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CancelNotificationsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.val.Struct(in); err != nil {
		return writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}
	out, err := h.svc.CancelFromRequest(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CountScheduled GET /api/notifications/scheduled/count
func (h *NotificationHandler) CountScheduled(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.CountScheduled(c.UserContext(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
