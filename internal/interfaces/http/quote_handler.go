package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
)

// QuoteHandler presupuestos.
type QuoteHandler struct {
	svc *quote.Service
}

// NewQuoteHandler construye el handler.
func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// Calculate POST /api/quotes/calculate (vista previa, no persiste)
func (h *QuoteHandler) Calculate(c *fiber.Ctx) error {
	var in dto.CalculateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Calculate(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Create POST /api/quotes
func (h *QuoteHandler) Create(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Create(c.UserContext(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get GET /api/quotes/:id
func (h *QuoteHandler) Get(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update PUT /api/quotes/:id (reemplazo completo de líneas)
func (h *QuoteHandler) Update(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.UpdateQuoteRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.svc.Update(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel DELETE /api/quotes/:id
func (h *QuoteHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := GetActor(c)
	if !ok {
		return unauthorized(c)
	}
	if err := h.svc.Cancel(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
