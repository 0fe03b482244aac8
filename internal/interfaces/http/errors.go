package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain"
)

// writeError traduce los errores de dominio a status y código HTTP.
// El mensaje describe la categoría, nunca el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := fiber.StatusInternalServerError, "INTERNAL", "error interno"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", "datos de entrada inválidos"
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"
	case errors.Is(err, domain.ErrForbidden):
		status, code, msg = fiber.StatusForbidden, "FORBIDDEN", "permiso denegado"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code, msg = fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		status, code, msg = fiber.StatusConflict, "CONFLICT", "la operación no es válida en el estado actual"
	case errors.Is(err, domain.ErrTransactionFailed):
		code, msg = "TRANSACTION_FAILED", "la operación no pudo completarse; no se aplicaron cambios"
	case errors.Is(err, domain.ErrStateNotConfigured):
		code, msg = "STATE_NOT_CONFIGURED", "catálogo de estados incompleto"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

