package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrInvalidState = errors.New("transición de estado no permitida")
	ErrForbidden    = errors.New("acceso denegado: se requiere rol manager")
	ErrUnauthorized = errors.New("no autorizado")
	ErrDuplicate    = errors.New("recurso duplicado")
)
