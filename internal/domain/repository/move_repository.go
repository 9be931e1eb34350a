package repository

import "github.com/jhoicas/Traslados-api/internal/domain/entity"

// MoveRepository define el puerto de persistencia para Move (DIP).
// Las lecturas devuelven (nil, nil) cuando el registro no existe o está
// borrado: el caller decide cómo mapear la ausencia.
type MoveRepository interface {
	Create(move *entity.Move) error
	GetByID(id string) (*entity.Move, error)
	Update(move *entity.Move) error
	SoftDelete(id string) error
	// FindInProgressByDestination lista traslados IN_PROGRESS cuyo destino es
	// la ubicación (para reutilizar conteos de inventario abiertos).
	FindInProgressByDestination(locationID string) ([]*entity.Move, error)
	// FindReceivingByCounterpart localiza la recepción emparejada con un
	// envío (la recepción guarda la back-reference).
	FindReceivingByCounterpart(sendingMoveID string) (*entity.Move, error)
}
