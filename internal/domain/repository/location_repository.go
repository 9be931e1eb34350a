package repository

import "github.com/jhoicas/Traslados-api/internal/domain/entity"

// LocationRepository define el puerto hacia el directorio de ubicaciones.
type LocationRepository interface {
	GetByID(id string) (*entity.Location, error)
}
