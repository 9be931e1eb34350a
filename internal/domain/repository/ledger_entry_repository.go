package repository

import "github.com/jhoicas/Traslados-api/internal/domain/entity"

// LedgerEntryRepository define el puerto de persistencia para las líneas del
// libro mayor genérico. Todas las lecturas excluyen filas con soft-delete.
type LedgerEntryRepository interface {
	Create(entry *entity.LedgerEntry) error
	Update(entry *entity.LedgerEntry) error
	GetByID(id string) (*entity.LedgerEntry, error)
	ListByTarget(moveID string) ([]*entity.LedgerEntry, error)
	// FindByTargetSourceKind busca la línea única (target, source, kind) para
	// el upsert de MOVE_ITEM. (nil, nil) si no existe.
	FindByTargetSourceKind(moveID, sourceID string, kind entity.RelationKind) (*entity.LedgerEntry, error)
	// ListActiveByKinds lista todas las líneas no borradas de los tipos dados
	// (agregación de stock por producto).
	ListActiveByKinds(kinds []entity.RelationKind) ([]*entity.LedgerEntry, error)
	SoftDelete(id string) error
	SoftDeleteByTarget(moveID string) error
}
