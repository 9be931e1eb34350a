package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

// UserHandler expone el directorio de usuarios.
type UserHandler struct {
	users repository.UserRepository
}

// NewUserHandler construye el handler.
func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// ListApprovers devuelve los managers activos: quienes pueden aprobar un
// traslado y a quienes la app contacta desde la pantalla de aprobación.
func (h *UserHandler) ListApprovers(c *fiber.Ctx) error {
	managers, err := h.users.ListByRole(entity.RoleManager)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.UserResponse, 0, len(managers))
	for _, u := range managers {
		out = append(out, dto.UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
	}
	return c.JSON(out)
}
