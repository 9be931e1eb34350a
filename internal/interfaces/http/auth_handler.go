package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Traslados-api/internal/application/auth"
	"github.com/jhoicas/Traslados-api/internal/application/dto"
)

// AuthHandler maneja login.
type AuthHandler struct {
	uc *auth.UseCase
}

// NewAuthHandler construye el handler.
func NewAuthHandler(uc *auth.UseCase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Login verifica credenciales y devuelve el token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Login(c.Context(), in)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}
