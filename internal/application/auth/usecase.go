package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Traslados-api/internal/application/dto"
	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/config"
	"github.com/jhoicas/Traslados-api/pkg/jwt"
	"github.com/jhoicas/Traslados-api/pkg/validator"
)

// UseCase autenticación: login con email/contraseña y emisión de JWT.
type UseCase struct {
	users repository.UserRepository
	cfg   config.JWTConfig
}

// NewUseCase construye el caso de uso de autenticación.
func NewUseCase(users repository.UserRepository, cfg config.JWTConfig) *UseCase {
	return &UseCase{users: users, cfg: cfg}
}

// Login verifica credenciales y devuelve token + proyección del usuario.
// Credenciales incorrectas y usuario inexistente devuelven el mismo error
// para no filtrar qué emails existen.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if errs := validator.ValidateStruct(in); len(errs) > 0 {
		return nil, domain.ErrInvalidInput
	}
	user, err := uc.users.GetByEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Generate(uc.cfg.Secret, user.ID, user.Role, uc.cfg.Issuer, uc.cfg.Expiration)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User: dto.UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	}, nil
}
