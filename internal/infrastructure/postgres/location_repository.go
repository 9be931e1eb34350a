package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación del puerto LocationRepository sobre PostgreSQL.
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// GetByID obtiene una ubicación por ID. (nil, nil) si no existe.
func (r *LocationRepo) GetByID(id string) (*entity.Location, error) {
	query := `
		SELECT id, display_name, address, created_at, updated_at
		FROM locations WHERE id = $1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&l.ID, &l.DisplayName, &l.Address, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
