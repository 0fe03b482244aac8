package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
)

// DraftHandler borradores de presupuesto.
type DraftHandler struct {
	svc *draft.Service
}

// NewDraftHandler construye el handler.
func NewDraftHandler(svc *draft.Service) *DraftHandler {
	return &DraftHandler{svc: svc}
}

// Start POST /api/quote-drafts
func (h *DraftHandler) Start(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.StartDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Start(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get GET /api/quote-drafts/:token
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Get(c.UserContext(), actor, c.Params("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Save PUT /api/quote-drafts/:token
func (h *DraftHandler) Save(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.SaveDraftRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Save(c.UserContext(), actor, c.Params("token"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit POST /api/quote-drafts/:token/submit
func (h *DraftHandler) Submit(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Submit(c.UserContext(), actor, c.Params("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
