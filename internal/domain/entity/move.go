package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un traslado.
// IN_PROGRESS → ON_APPROVAL → COMPLETED; CANCELLED es alcanzable desde
// cualquier estado no terminal. No hay salida de COMPLETED ni CANCELLED.
type MoveStatus string

const (
	MoveStatusInProgress MoveStatus = "IN_PROGRESS"
	MoveStatusOnApproval MoveStatus = "ON_APPROVAL"
	MoveStatusCompleted  MoveStatus = "COMPLETED"
	MoveStatusCancelled  MoveStatus = "CANCELLED"
)

// Terminal indica si el estado no admite más transiciones.
func (s MoveStatus) Terminal() bool {
	return s == MoveStatusCompleted || s == MoveStatusCancelled
}

// Valid indica si el string corresponde a un estado conocido.
func (s MoveStatus) Valid() bool {
	switch s {
	case MoveStatusInProgress, MoveStatusOnApproval, MoveStatusCompleted, MoveStatusCancelled:
		return true
	}
	return false
}

// Subtipos de traslado. Se infiere de qué lado de ubicación está definido
// cuando no viene explícito: origen ⇒ SENDING, destino ⇒ RECEIVING.
type MoveSubtype string

const (
	MoveSubtypeReceiving MoveSubtype = "RECEIVING"
	MoveSubtypeSending   MoveSubtype = "SENDING"
	MoveSubtypeInventory MoveSubtype = "INVENTORY"
)

// Move representa un traslado de mercancía: recepción, envío o conteo de
// inventario sobre una ubicación. Invariante: exactamente uno de
// {OriginLocationID, DestinationLocationID} definido para RECEIVING/SENDING;
// INVENTORY solo define destino.
type Move struct {
	ID                    string
	HumanID               string // código corto visible (ej. TR-4F8A2C)
	Title                 string
	Status                MoveStatus
	Subtype               MoveSubtype
	OriginLocationID      *string
	DestinationLocationID *string

	// CounterpartMoveID se guarda en la recepción y apunta al envío emparejado.
	CounterpartMoveID *string

	TransportPrice decimal.Decimal

	// Métricas derivadas (las escribe el recalculador, no el caller).
	ItemsCount  decimal.Decimal
	SKUCount    int
	TotalCost   decimal.Decimal
	PerItemCost decimal.Decimal

	TotalSellingPrice       decimal.Decimal
	TotalSellingPriceNet    decimal.Decimal
	TotalPurchasePrice      decimal.Decimal
	MarginAmount            decimal.Decimal
	MarginToPurchasePercent decimal.Decimal
	MarginToSellingPercent  decimal.Decimal

	// Totales "fact": suman los precios registrados en cada línea, no los de
	// catálogo. Corren en paralelo a los totales de margen y nunca se
	// reconcilian entre sí.
	TotalSellingPriceFact  decimal.Decimal
	TotalPurchasePriceFact decimal.Decimal

	// Lines es el snapshot serializado de las líneas al último recálculo.
	Lines json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// InferSubtype deduce el subtipo desde los campos de ubicación.
func (m *Move) InferSubtype() MoveSubtype {
	if m.Subtype != "" {
		return m.Subtype
	}
	if m.OriginLocationID != nil {
		return MoveSubtypeSending
	}
	return MoveSubtypeReceiving
}

// IsSending / IsReceiving / IsInventory azúcar para el motor de estados.
func (m *Move) IsSending() bool   { return m.InferSubtype() == MoveSubtypeSending }
func (m *Move) IsReceiving() bool { return m.InferSubtype() == MoveSubtypeReceiving }
func (m *Move) IsInventory() bool { return m.InferSubtype() == MoveSubtypeInventory }
