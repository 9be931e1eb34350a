package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

const ledgerEntryColumns = `
	id, source_id, target_id, kind, status,
	provisional_quantity, confirmed_quantity,
	purchase_price, purchase_price_net, selling_price,
	created_at, updated_at, deleted_at`

// LedgerEntryRepo implementación del puerto LedgerEntryRepository sobre
// PostgreSQL (usable con pool o tx).
type LedgerEntryRepo struct {
	q Querier
}

// NewLedgerEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

// Create persiste una línea nueva del libro.
func (r *LedgerEntryRepo) Create(entry *entity.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ledger_entries (
			id, source_id, target_id, kind, status,
			provisional_quantity, confirmed_quantity,
			purchase_price, purchase_price_net, selling_price,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.SourceID, entry.TargetID, entry.Kind, entry.Status,
		entry.ProvisionalQuantity, entry.ConfirmedQuantity,
		entry.PurchasePrice, entry.PurchasePriceNet, entry.SellingPrice,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// Update sobrescribe la línea.
func (r *LedgerEntryRepo) Update(entry *entity.LedgerEntry) error {
	query := `
		UPDATE ledger_entries SET
			status = $2, provisional_quantity = $3, confirmed_quantity = $4,
			purchase_price = $5, purchase_price_net = $6, selling_price = $7,
			updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.q.Exec(context.Background(), query,
		entry.ID, entry.Status, entry.ProvisionalQuantity, entry.ConfirmedQuantity,
		entry.PurchasePrice, entry.PurchasePriceNet, entry.SellingPrice,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ledger entry: %w", err)
	}
	return nil
}

// GetByID obtiene una línea no borrada. (nil, nil) si no existe.
func (r *LedgerEntryRepo) GetByID(id string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries WHERE id = $1 AND deleted_at IS NULL`
	entry, err := scanLedgerEntry(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return entry, nil
}

// ListByTarget lista las líneas activas de un traslado.
func (r *LedgerEntryRepo) ListByTarget(moveID string) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE target_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`
	return r.queryList(query, moveID)
}

// FindByTargetSourceKind busca la línea única (target, source, kind).
// (nil, nil) si no existe.
func (r *LedgerEntryRepo) FindByTargetSourceKind(moveID, sourceID string, kind entity.RelationKind) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE target_id = $1 AND source_id = $2 AND kind = $3 AND deleted_at IS NULL
		LIMIT 1`
	entry, err := scanLedgerEntry(r.q.QueryRow(context.Background(), query, moveID, sourceID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find ledger entry: %w", err)
	}
	return entry, nil
}

// ListActiveByKinds lista todas las líneas activas de los tipos dados.
func (r *LedgerEntryRepo) ListActiveByKinds(kinds []entity.RelationKind) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE kind = ANY($1) AND deleted_at IS NULL`
	strs := make([]string, len(kinds))
	for i, k := range kinds {
		strs[i] = string(k)
	}
	return r.queryList(query, strs)
}

// SoftDelete marca una línea como borrada.
func (r *LedgerEntryRepo) SoftDelete(id string) error {
	query := `UPDATE ledger_entries SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	_, err := r.q.Exec(context.Background(), query, id, time.Now())
	if err != nil {
		return fmt.Errorf("soft delete ledger entry: %w", err)
	}
	return nil
}

// SoftDeleteByTarget marca como borradas todas las líneas de un traslado.
func (r *LedgerEntryRepo) SoftDeleteByTarget(moveID string) error {
	query := `UPDATE ledger_entries SET deleted_at = $2 WHERE target_id = $1 AND deleted_at IS NULL`
	_, err := r.q.Exec(context.Background(), query, moveID, time.Now())
	if err != nil {
		return fmt.Errorf("soft delete ledger entries by target: %w", err)
	}
	return nil
}

func (r *LedgerEntryRepo) queryList(query string, args ...any) ([]*entity.LedgerEntry, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	err := row.Scan(
		&e.ID, &e.SourceID, &e.TargetID, &e.Kind, &e.Status,
		&e.ProvisionalQuantity, &e.ConfirmedQuantity,
		&e.PurchasePrice, &e.PurchasePriceNet, &e.SellingPrice,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
