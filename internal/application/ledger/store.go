package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// Store es el libro mayor genérico: vincula productos con traslados y es la
// única pieza que escribe cantidades. El signo se aplica aquí, una sola vez,
// según el sub-estado de la línea.
type Store struct {
	entries  repository.LedgerEntryRepository
	products repository.ProductRepository
	log      *logger.Logger
}

// NewStore construye el libro mayor.
func NewStore(entries repository.LedgerEntryRepository, products repository.ProductRepository, log *logger.Logger) *Store {
	return &Store{entries: entries, products: products, log: log}
}

// LinkInput datos para vincular un producto a un traslado. Quantity es una
// magnitud: el signo lo decide Status.
type LinkInput struct {
	ProductID string
	MoveID    string
	Kind      entity.RelationKind
	Status    entity.EntryStatus
	Quantity  decimal.Decimal

	// ConfirmedQuantity solo cuando el caller trae cantidades ya confirmadas
	// (conteos de inventario); el flujo normal confirma vía ConfirmQuantities.
	ConfirmedQuantity *decimal.Decimal

	PurchasePrice    *decimal.Decimal
	PurchasePriceNet *decimal.Decimal
	SellingPrice     *decimal.Decimal
}

// Link crea o actualiza la línea producto↔traslado.
//
// MOVE_ITEM se upserta por (producto, traslado, kind): si ya existe, los
// campos nuevos sobreescriben y los demás se preservan. INVENTORY_ITEM
// siempre inserta una fila nueva: cada evento de conteo es independiente y
// nunca se fusiona.
func (s *Store) Link(ctx context.Context, in LinkInput) (*entity.LedgerEntry, error) {
	if in.ProductID == "" || in.MoveID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !in.Status.Valid() {
		return nil, domain.ErrInvalidInput
	}

	signed := in.Status.ApplySign(in.Quantity)
	now := time.Now()

	if in.Kind == entity.KindMoveItem {
		existing, err := s.entries.FindByTargetSourceKind(in.MoveID, in.ProductID, in.Kind)
		if err != nil {
			return nil, fmt.Errorf("buscar línea existente: %w", err)
		}
		if existing != nil {
			existing.Status = in.Status
			existing.ProvisionalQuantity = &signed
			if in.ConfirmedQuantity != nil {
				confirmed := in.Status.ApplySign(*in.ConfirmedQuantity)
				existing.ConfirmedQuantity = &confirmed
			}
			if in.PurchasePrice != nil {
				existing.PurchasePrice = in.PurchasePrice
			}
			if in.PurchasePriceNet != nil {
				existing.PurchasePriceNet = in.PurchasePriceNet
			}
			if in.SellingPrice != nil {
				existing.SellingPrice = in.SellingPrice
			}
			existing.UpdatedAt = now
			if err := s.entries.Update(existing); err != nil {
				return nil, fmt.Errorf("actualizar línea: %w", err)
			}
			return existing, nil
		}
	}

	entry := &entity.LedgerEntry{
		ID:                  uuid.New().String(),
		SourceID:            in.ProductID,
		TargetID:            in.MoveID,
		Kind:                in.Kind,
		Status:              in.Status,
		ProvisionalQuantity: &signed,
		PurchasePrice:       in.PurchasePrice,
		PurchasePriceNet:    in.PurchasePriceNet,
		SellingPrice:        in.SellingPrice,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if in.ConfirmedQuantity != nil {
		confirmed := in.Status.ApplySign(*in.ConfirmedQuantity)
		entry.ConfirmedQuantity = &confirmed
	}
	if err := s.entries.Create(entry); err != nil {
		return nil, fmt.Errorf("crear línea: %w", err)
	}
	return entry, nil
}

// Unlink marca la línea como borrada (soft-delete).
func (s *Store) Unlink(ctx context.Context, entryID string) error {
	entry, err := s.entries.GetByID(entryID)
	if err != nil {
		return fmt.Errorf("buscar línea: %w", err)
	}
	if entry == nil {
		return domain.ErrNotFound
	}
	return s.entries.SoftDelete(entryID)
}

// UnlinkAll marca como borradas todas las líneas del traslado (cascada de
// soft-delete del traslado dueño).
func (s *Store) UnlinkAll(ctx context.Context, moveID string) error {
	return s.entries.SoftDeleteByTarget(moveID)
}

// UpdateEntry persiste cambios hechos por los recalculadores sobre una línea
// ya cargada (backfill de precios, espejo de cantidades).
func (s *Store) UpdateEntry(entry *entity.LedgerEntry) error {
	return s.entries.Update(entry)
}

// ConfirmQuantities pasa la cantidad provisional a confirmada en todas las
// líneas del traslado y limpia la provisional. El signo ya viene aplicado.
// Una segunda llamada no encuentra provisionales y es un no-op.
func (s *Store) ConfirmQuantities(ctx context.Context, moveID string) error {
	entries, err := s.entries.ListByTarget(moveID)
	if err != nil {
		return fmt.Errorf("listar líneas: %w", err)
	}
	for _, e := range entries {
		if e.ProvisionalQuantity == nil {
			continue
		}
		confirmed := *e.ProvisionalQuantity
		e.ConfirmedQuantity = &confirmed
		e.ProvisionalQuantity = nil
		e.UpdatedAt = time.Now()
		if err := s.entries.Update(e); err != nil {
			return fmt.Errorf("confirmar línea %s: %w", e.ID, err)
		}
	}
	return nil
}

// SnapshotLine una línea del traslado con su producto resuelto.
type SnapshotLine struct {
	Entry   *entity.LedgerEntry
	Product *entity.Product
}

// Snapshot carga todas las líneas no borradas del traslado y resuelve el
// producto de cada una. Es la vista canónica que consumen el recalculador de
// métricas y el sincronizador.
func (s *Store) Snapshot(ctx context.Context, moveID string) ([]SnapshotLine, error) {
	entries, err := s.entries.ListByTarget(moveID)
	if err != nil {
		return nil, fmt.Errorf("listar líneas: %w", err)
	}
	lines := make([]SnapshotLine, 0, len(entries))
	for _, e := range entries {
		product, err := s.resolveProduct(e.SourceID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, SnapshotLine{Entry: e, Product: product})
	}
	return lines, nil
}

// resolveProduct busca primero por el SourceID completo (variante con fila
// propia) y si no existe, por el prefijo de producto.
func (s *Store) resolveProduct(sourceID string) (*entity.Product, error) {
	product, err := s.products.GetByID(sourceID)
	if err != nil {
		return nil, fmt.Errorf("resolver producto %s: %w", sourceID, err)
	}
	if product != nil {
		return product, nil
	}
	owner := entity.ProductIDFromSource(sourceID)
	if owner == sourceID {
		return nil, nil
	}
	product, err = s.products.GetByID(owner)
	if err != nil {
		return nil, fmt.Errorf("resolver producto %s: %w", owner, err)
	}
	return product, nil
}

// Buckets clasifica el stock confirmado de un producto.
type Buckets struct {
	Available      decimal.Decimal
	InTransporting decimal.Decimal
	Unavailable    decimal.Decimal
	Committed      decimal.Decimal
}

// AggregateByProduct recorre todas las líneas activas MOVE_ITEM e
// INVENTORY_ITEM, reduce cada SourceID a su producto dueño y acumula la
// magnitud confirmada en el bucket que dicta el sub-estado. EXPENSE_INV se
// excluye por completo: es salida ya neteada. Al final se descuenta lo
// comprometido de lo disponible.
func (s *Store) AggregateByProduct(ctx context.Context, productIDs []string) (map[string]Buckets, error) {
	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}

	entries, err := s.entries.ListActiveByKinds([]entity.RelationKind{entity.KindMoveItem, entity.KindInventoryItem})
	if err != nil {
		return nil, fmt.Errorf("listar líneas activas: %w", err)
	}

	result := make(map[string]Buckets, len(productIDs))
	for _, id := range productIDs {
		result[id] = Buckets{}
	}
	for _, e := range entries {
		pid := e.ProductID()
		if len(wanted) > 0 && !wanted[pid] {
			continue
		}
		if e.Status == entity.EntryStatusExpenseInv {
			continue
		}
		if e.ConfirmedQuantity == nil {
			continue
		}
		magnitude := e.ConfirmedQuantity.Abs()
		b := result[pid]
		switch e.Status {
		case entity.EntryStatusInTransportingInv:
			b.InTransporting = b.InTransporting.Add(magnitude)
		case entity.EntryStatusUnavailable, entity.EntryStatusDisposalInv:
			b.Unavailable = b.Unavailable.Add(magnitude)
		case entity.EntryStatusCommittedInv:
			b.Committed = b.Committed.Add(magnitude)
		default:
			b.Available = b.Available.Add(magnitude)
		}
		result[pid] = b
	}
	for pid, b := range result {
		b.Available = b.Available.Sub(b.Committed)
		result[pid] = b
	}
	return result, nil
}
