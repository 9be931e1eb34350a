package entity

import "time"

// Roles válidos para User. Solo manager puede confirmar traslados.
const (
	RoleManager  = "manager"
	RoleOperario = "operario"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // manager, operario
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsManager indica si el usuario tiene el rol manager.
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}
