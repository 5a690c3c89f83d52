package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// LocalActor clave de c.Locals donde queda el entity.Actor del token.
const LocalActor = "actor"

// AuthMiddleware valida el Bearer Token y deja en c.Locals el Actor (negocio, usuario y rol)
// que los handlers pasan explícitamente a los casos de uso.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return authError(c, "MISSING_TOKEN", "Authorization header requerido")
		}
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return authError(c, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return authError(c, "MISSING_TOKEN", "token vacío")
		}
		claims, err := jwt.Parse(jwtSecret, raw)
		if err != nil {
			return authError(c, "INVALID_TOKEN", "token inválido o expirado")
		}
		id := claims.Identity()
		c.Locals(LocalActor, entity.Actor{BusinessID: id.BusinessID, UserID: id.UserID, Role: id.Role})
		return c.Next()
	}
}

func authError(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// GetActor devuelve el Actor cargado por AuthMiddleware (vacío si no pasó por él).
func GetActor(c *fiber.Ctx) entity.Actor {
	a, _ := c.Locals(LocalActor).(entity.Actor)
	return a
}

// GetRole rol del token.
func GetRole(c *fiber.Ctx) string { return GetActor(c).Role }

// actorFrom exige negocio y usuario; sin ellos no hay a quién atribuir el movimiento.
func actorFrom(c *fiber.Ctx) (entity.Actor, bool) {
	a := GetActor(c)
	return a, a.BusinessID != "" && a.UserID != ""
}
