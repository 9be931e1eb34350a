package repository

import "github.com/jhoicas/Traslados-api/internal/domain/entity"

// UserRepository define el puerto hacia el directorio de usuarios/roles.
type UserRepository interface {
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	ListByRole(role string) ([]*entity.User, error)
}
