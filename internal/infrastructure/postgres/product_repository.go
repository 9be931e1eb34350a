package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `
	id, title, price, average_purchase_price, average_purchase_price_net,
	markup_amount, markup_measurement, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// FindByTitle busca por título exacto. Los títulos pueden venir de entrada de
// usuario en distintas formas Unicode, se normalizan a NFC antes de comparar.
func (r *ProductRepo) FindByTitle(title string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE title = $1 LIMIT 1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, norm.NFC.String(title)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product by title: %w", err)
	}
	return p, nil
}

// Update sobrescribe el producto.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET
			title = $2, price = $3,
			average_purchase_price = $4, average_purchase_price_net = $5,
			markup_amount = $6, markup_measurement = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, norm.NFC.String(product.Title), product.Price,
		product.AveragePurchasePrice, product.AveragePurchasePriceNet,
		product.MarkupAmount, product.MarkupMeasurement, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateAveragePrices escribe solo los promedios ponderados (el recálculo
// por producto no toca el resto del registro).
func (r *ProductRepo) UpdateAveragePrices(productID string, avg, avgNet decimal.Decimal) error {
	query := `
		UPDATE products SET
			average_purchase_price = $2, average_purchase_price_net = $3, updated_at = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, productID, avg, avgNet, time.Now())
	if err != nil {
		return fmt.Errorf("update average prices: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.AveragePurchasePrice, &p.AveragePurchasePriceNet,
		&p.MarkupAmount, &p.MarkupMeasurement, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
