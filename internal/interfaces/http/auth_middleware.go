package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/jwt"
)

// Locals keys del actor autenticado en Fiber.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
	LocalActor  = "actor"
)

// AuthMiddleware valida el Bearer Token JWT y deja el actor (usuario, rol, prefijos) en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil || id.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalRole, id.Role)
		c.Locals(LocalActor, entity.Actor{
			UserID:         id.UserID,
			Role:           id.Role,
			PrefixIDs:      id.Prefixes,
			SeeAllAccounts: id.SeeAllAccounts,
		})
		return c.Next()
	}
}

// RequireRole permite continuar solo si el rol del token está entre los indicados.
// Usar después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		if !allowed[role] {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "permiso denegado"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetRole devuelve el rol del contexto.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetActor devuelve el actor autenticado; ok=false si el middleware no corrió.
func GetActor(c *fiber.Ctx) (entity.Actor, bool) {
	a, ok := c.Locals(LocalActor).(entity.Actor)
	return a, ok
}
