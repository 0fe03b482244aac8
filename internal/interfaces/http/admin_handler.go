package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/expiration"
)

// AdminHandler operaciones administrativas.
type AdminHandler struct {
	sweeper *expiration.Sweeper
	drafts  expiration.DraftPurger
}

// NewAdminHandler construye el handler. drafts puede ser nil.
func NewAdminHandler(sweeper *expiration.Sweeper, drafts expiration.DraftPurger) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, drafts: drafts}
}

// RunSweeps POST /api/admin/sweeps: ejecuta los barridos en el momento.
func (h *AdminHandler) RunSweeps(c *fiber.Ctx) error {
	out, err := h.sweeper.SweepAll(c.UserContext(), h.drafts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
