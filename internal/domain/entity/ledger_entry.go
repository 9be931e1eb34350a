package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de vínculo en el libro mayor genérico.
type RelationKind string

const (
	KindMoveItem      RelationKind = "MOVE_ITEM"      // línea de traslado (upsert por producto+traslado)
	KindInventoryItem RelationKind = "INVENTORY_ITEM" // evento de conteo (siempre fila nueva)
)

// Sub-estado de una línea del libro. Cada variante lleva su signo: el signo
// de la cantidad almacenada queda determinado por el estado y se aplica una
// sola vez, al escribir.
type EntryStatus string

const (
	EntryStatusIncomeInv         EntryStatus = "INCOME_INV"
	EntryStatusExpenseInv        EntryStatus = "EXPENSE_INV"
	EntryStatusCommittedInv      EntryStatus = "COMMITTED_INV"
	EntryStatusDisposalInv       EntryStatus = "DISPOSAL_INV"
	EntryStatusInTransportingInv EntryStatus = "IN_TRANSPORTING_INV"
	EntryStatusUnavailable       EntryStatus = "UNAVAILABLE"
	EntryStatusActive            EntryStatus = "ACTIVE"
)

// Negative indica si el estado fuerza magnitud negativa.
func (s EntryStatus) Negative() bool {
	switch s {
	case EntryStatusExpenseInv, EntryStatusUnavailable, EntryStatusCommittedInv,
		EntryStatusDisposalInv, EntryStatusInTransportingInv:
		return true
	}
	return false
}

// ApplySign lleva una magnitud al signo que dicta el estado.
func (s EntryStatus) ApplySign(qty decimal.Decimal) decimal.Decimal {
	magnitude := qty.Abs()
	if s.Negative() {
		return magnitude.Neg()
	}
	return magnitude
}

// Valid indica si el string corresponde a un sub-estado conocido.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusIncomeInv, EntryStatusExpenseInv, EntryStatusCommittedInv,
		EntryStatusDisposalInv, EntryStatusInTransportingInv,
		EntryStatusUnavailable, EntryStatusActive:
		return true
	}
	return false
}

// VariantDelimiter separa el ID de producto del sufijo de variante en un
// SourceID compuesto ("<productID>:<variante>").
const VariantDelimiter = ":"

// ProductIDFromSource reduce un SourceID (posiblemente de variante) al ID del
// producto dueño.
func ProductIDFromSource(sourceID string) string {
	if i := strings.Index(sourceID, VariantDelimiter); i > 0 {
		return sourceID[:i]
	}
	return sourceID
}

// LedgerEntry es una línea del libro mayor genérico: vincula un producto (o
// variante) con un traslado, con cantidad provisional hasta que el traslado
// se finaliza y confirmada después.
type LedgerEntry struct {
	ID       string
	SourceID string // producto o variante
	TargetID string // traslado dueño
	Kind     RelationKind
	Status   EntryStatus

	ProvisionalQuantity *decimal.Decimal
	ConfirmedQuantity   *decimal.Decimal

	PurchasePrice    *decimal.Decimal
	PurchasePriceNet *decimal.Decimal
	SellingPrice     *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// EffectiveQuantity devuelve la confirmada si existe, si no la provisional,
// si no cero.
func (e *LedgerEntry) EffectiveQuantity() decimal.Decimal {
	if e.ConfirmedQuantity != nil {
		return *e.ConfirmedQuantity
	}
	if e.ProvisionalQuantity != nil {
		return *e.ProvisionalQuantity
	}
	return decimal.Zero
}

// ProductID devuelve el ID del producto dueño del SourceID.
func (e *LedgerEntry) ProductID() string {
	return ProductIDFromSource(e.SourceID)
}
