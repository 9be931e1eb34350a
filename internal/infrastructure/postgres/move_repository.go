package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.MoveRepository = (*MoveRepo)(nil)

const moveColumns = `
	id, human_id, title, status, subtype,
	origin_location_id, destination_location_id, counterpart_move_id,
	transport_price, items_count, sku_count, total_cost, per_item_cost,
	total_selling_price, total_selling_price_net, total_purchase_price,
	margin_amount, margin_to_purchase_percent, margin_to_selling_percent,
	total_selling_price_fact, total_purchase_price_fact,
	lines, created_at, updated_at, deleted_at`

// MoveRepo implementación del puerto MoveRepository sobre PostgreSQL
// (usable con pool o tx).
type MoveRepo struct {
	q Querier
}

// NewMoveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMoveRepository(q Querier) *MoveRepo {
	return &MoveRepo{q: q}
}

// Create persiste un traslado nuevo.
func (r *MoveRepo) Create(move *entity.Move) error {
	if move.ID == "" {
		move.ID = uuid.New().String()
	}
	query := `
		INSERT INTO moves (
			id, human_id, title, status, subtype,
			origin_location_id, destination_location_id, counterpart_move_id,
			transport_price, items_count, sku_count, total_cost, per_item_cost,
			total_selling_price, total_selling_price_net, total_purchase_price,
			margin_amount, margin_to_purchase_percent, margin_to_selling_percent,
			total_selling_price_fact, total_purchase_price_fact,
			lines, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`
	_, err := r.q.Exec(context.Background(), query,
		move.ID, move.HumanID, move.Title, move.Status, move.Subtype,
		move.OriginLocationID, move.DestinationLocationID, move.CounterpartMoveID,
		move.TransportPrice, move.ItemsCount, move.SKUCount, move.TotalCost, move.PerItemCost,
		move.TotalSellingPrice, move.TotalSellingPriceNet, move.TotalPurchasePrice,
		move.MarginAmount, move.MarginToPurchasePercent, move.MarginToSellingPercent,
		move.TotalSellingPriceFact, move.TotalPurchasePriceFact,
		move.Lines, move.CreatedAt, move.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado no borrado por ID. (nil, nil) si no existe.
func (r *MoveRepo) GetByID(id string) (*entity.Move, error) {
	query := `SELECT ` + moveColumns + ` FROM moves WHERE id = $1 AND deleted_at IS NULL`
	move, err := scanMove(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get move: %w", err)
	}
	return move, nil
}

// Update sobrescribe el traslado completo (campos editables + métricas).
func (r *MoveRepo) Update(move *entity.Move) error {
	query := `
		UPDATE moves SET
			title = $2, status = $3, subtype = $4,
			origin_location_id = $5, destination_location_id = $6, counterpart_move_id = $7,
			transport_price = $8, items_count = $9, sku_count = $10,
			total_cost = $11, per_item_cost = $12,
			total_selling_price = $13, total_selling_price_net = $14, total_purchase_price = $15,
			margin_amount = $16, margin_to_purchase_percent = $17, margin_to_selling_percent = $18,
			total_selling_price_fact = $19, total_purchase_price_fact = $20,
			lines = $21, updated_at = $22
		WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.q.Exec(context.Background(), query,
		move.ID, move.Title, move.Status, move.Subtype,
		move.OriginLocationID, move.DestinationLocationID, move.CounterpartMoveID,
		move.TransportPrice, move.ItemsCount, move.SKUCount,
		move.TotalCost, move.PerItemCost,
		move.TotalSellingPrice, move.TotalSellingPriceNet, move.TotalPurchasePrice,
		move.MarginAmount, move.MarginToPurchasePercent, move.MarginToSellingPercent,
		move.TotalSellingPriceFact, move.TotalPurchasePriceFact,
		move.Lines, move.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update move: %w", err)
	}
	return nil
}

// SoftDelete marca el traslado como borrado.
func (r *MoveRepo) SoftDelete(id string) error {
	query := `UPDATE moves SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.q.Exec(context.Background(), query, id, time.Now())
	if err != nil {
		return fmt.Errorf("soft delete move: %w", err)
	}
	return nil
}

// FindInProgressByDestination lista traslados IN_PROGRESS con ese destino.
func (r *MoveRepo) FindInProgressByDestination(locationID string) ([]*entity.Move, error) {
	query := `SELECT ` + moveColumns + `
		FROM moves
		WHERE destination_location_id = $1 AND status = $2 AND deleted_at IS NULL
		ORDER BY created_at DESC`
	rows, err := r.q.Query(context.Background(), query, locationID, entity.MoveStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list in-progress by destination: %w", err)
	}
	defer rows.Close()
	var list []*entity.Move
	for rows.Next() {
		move, err := scanMove(rows)
		if err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		list = append(list, move)
	}
	return list, rows.Err()
}

// FindReceivingByCounterpart localiza la recepción que back-referencia al
// envío. (nil, nil) si el envío no tiene recepción emparejada.
func (r *MoveRepo) FindReceivingByCounterpart(sendingMoveID string) (*entity.Move, error) {
	query := `SELECT ` + moveColumns + `
		FROM moves
		WHERE counterpart_move_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT 1`
	move, err := scanMove(r.q.QueryRow(context.Background(), query, sendingMoveID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find receiving by counterpart: %w", err)
	}
	return move, nil
}

func scanMove(row pgx.Row) (*entity.Move, error) {
	var m entity.Move
	err := row.Scan(
		&m.ID, &m.HumanID, &m.Title, &m.Status, &m.Subtype,
		&m.OriginLocationID, &m.DestinationLocationID, &m.CounterpartMoveID,
		&m.TransportPrice, &m.ItemsCount, &m.SKUCount, &m.TotalCost, &m.PerItemCost,
		&m.TotalSellingPrice, &m.TotalSellingPriceNet, &m.TotalPurchasePrice,
		&m.MarginAmount, &m.MarginToPurchasePercent, &m.MarginToSellingPercent,
		&m.TotalSellingPriceFact, &m.TotalPurchasePriceFact,
		&m.Lines, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
