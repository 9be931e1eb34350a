package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// CreateMoveRequest body para crear una recepción o un envío.
// LocationID es el destino en recepciones y el origen en envíos.
// CounterpartMoveID solo aplica a recepciones: referencia al envío espejo.
type CreateMoveRequest struct {
	Title             string          `json:"title" validate:"required"`
	LocationID        string          `json:"location_id" validate:"required"`
	TransportPrice    decimal.Decimal `json:"transport_price"`
	CounterpartMoveID string          `json:"counterpart_move_id,omitempty"`
}

// AddLineItemRequest body para agregar una línea a un traslado.
// Quantity es magnitud; el signo lo determina Status al escribir.
type AddLineItemRequest struct {
	ProductID         string           `json:"product_id" validate:"required"`
	Quantity          decimal.Decimal  `json:"quantity" validate:"required"`
	Status            string           `json:"status" validate:"required"`
	ConfirmedQuantity *decimal.Decimal `json:"confirmed_quantity,omitempty"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price,omitempty"`
	PurchasePriceNet  *decimal.Decimal `json:"purchase_price_net,omitempty"`
	SellingPrice      *decimal.Decimal `json:"selling_price,omitempty"`
}

// UpdateMoveRequest body para actualizar campos editables de un traslado.
type UpdateMoveRequest struct {
	Title          *string          `json:"title,omitempty"`
	TransportPrice *decimal.Decimal `json:"transport_price,omitempty"`
}

// UpdateStatusRequest body para el setter genérico de estado.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// MoveResponse proyección HTTP de un traslado con sus métricas derivadas.
type MoveResponse struct {
	ID                      string          `json:"id"`
	HumanID                 string          `json:"human_id"`
	Title                   string          `json:"title"`
	Status                  string          `json:"status"`
	Subtype                 string          `json:"subtype"`
	OriginLocationID        *string         `json:"origin_location_id,omitempty"`
	DestinationLocationID   *string         `json:"destination_location_id,omitempty"`
	CounterpartMoveID       *string         `json:"counterpart_move_id,omitempty"`
	TransportPrice          decimal.Decimal `json:"transport_price"`
	ItemsCount              decimal.Decimal `json:"items_count"`
	SKUCount                int             `json:"sku_count"`
	TotalCost               decimal.Decimal `json:"total_cost"`
	PerItemCost             decimal.Decimal `json:"per_item_cost"`
	TotalSellingPrice       decimal.Decimal `json:"total_selling_price"`
	TotalSellingPriceNet    decimal.Decimal `json:"total_selling_price_net"`
	TotalPurchasePrice      decimal.Decimal `json:"total_purchase_price"`
	MarginAmount            decimal.Decimal `json:"margin_amount"`
	MarginToPurchasePercent decimal.Decimal `json:"margin_to_purchase_percent"`
	MarginToSellingPercent  decimal.Decimal `json:"margin_to_selling_percent"`
	TotalSellingPriceFact   decimal.Decimal `json:"total_selling_price_fact"`
	TotalPurchasePriceFact  decimal.Decimal `json:"total_purchase_price_fact"`
	Lines                   json.RawMessage `json:"lines,omitempty"`
}

// ToMoveResponse mapea la entidad a la proyección HTTP.
func ToMoveResponse(m *entity.Move) *MoveResponse {
	if m == nil {
		return nil
	}
	return &MoveResponse{
		ID:                      m.ID,
		HumanID:                 m.HumanID,
		Title:                   m.Title,
		Status:                  string(m.Status),
		Subtype:                 string(m.InferSubtype()),
		OriginLocationID:        m.OriginLocationID,
		DestinationLocationID:   m.DestinationLocationID,
		CounterpartMoveID:       m.CounterpartMoveID,
		TransportPrice:          m.TransportPrice,
		ItemsCount:              m.ItemsCount,
		SKUCount:                m.SKUCount,
		TotalCost:               m.TotalCost,
		PerItemCost:             m.PerItemCost,
		TotalSellingPrice:       m.TotalSellingPrice,
		TotalSellingPriceNet:    m.TotalSellingPriceNet,
		TotalPurchasePrice:      m.TotalPurchasePrice,
		MarginAmount:            m.MarginAmount,
		MarginToPurchasePercent: m.MarginToPurchasePercent,
		MarginToSellingPercent:  m.MarginToSellingPercent,
		TotalSellingPriceFact:   m.TotalSellingPriceFact,
		TotalPurchasePriceFact:  m.TotalPurchasePriceFact,
		Lines:                   m.Lines,
	}
}
