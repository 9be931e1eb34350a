package entity

import "time"

// Location representa una ubicación física de almacenamiento (bodega o
// contratista externo). DisplayName es el nombre que usa la convención de
// títulos de producto.
type Location struct {
	ID          string
	DisplayName string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
