package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// ProductRepository define el puerto hacia el catálogo de productos (DIP).
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	// FindByTitle busca por título exacto (normalizado NFC). (nil, nil) si no hay match.
	FindByTitle(title string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdateAveragePrices(productID string, avg, avgNet decimal.Decimal) error
}
