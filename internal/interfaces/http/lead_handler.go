package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
)

// LeadHandler comentarios y seguimientos de leads.
type LeadHandler struct {
	svc *lead.Service
}

// NewLeadHandler construye el handler.
func NewLeadHandler(svc *lead.Service) *LeadHandler {
	return &LeadHandler{svc: svc}
}

// CreateComment POST /api/leads/:id/comments. El comentario puede mover el lead de estado.
func (h *LeadHandler) CreateComment(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.RegisterComment(c.UserContext(), actor, c.Params("id"), in)
	if err != nil && out == nil {
		return writeError(c, err)
	}
	// con out != nil el comentario quedó guardado aunque la transición fallara: transitioned=false
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateFollowUp POST /api/leads/:id/followups (solo leads perdidos)
func (h *LeadHandler) CreateFollowUp(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateFollowUpRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.ScheduleLostLeadFollowUp(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
