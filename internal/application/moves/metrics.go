package moves

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// Recalculator recalcula las métricas derivadas de un traslado a partir del
// snapshot del libro: conteos, prorrateo de costo por ítem y márgenes.
type Recalculator struct {
	moves  repository.MoveRepository
	store  *ledger.Store
	wallet WalletTransactions // opcional
	log    *logger.Logger
}

// NewRecalculator construye el recalculador. wallet puede ser nil.
func NewRecalculator(moves repository.MoveRepository, store *ledger.Store, wallet WalletTransactions, log *logger.Logger) *Recalculator {
	return &Recalculator{moves: moves, store: store, wallet: wallet, log: log}
}

// snapshotRecord forma serializada de una línea dentro de Move.Lines.
type snapshotRecord struct {
	EntryID       string             `json:"entry_id"`
	SourceID      string             `json:"source_id"`
	Status        entity.EntryStatus `json:"status"`
	Quantity      decimal.Decimal    `json:"quantity"`
	ProductTitle  string             `json:"product_title,omitempty"`
	PurchasePrice *decimal.Decimal   `json:"purchase_price,omitempty"`
	SellingPrice  *decimal.Decimal   `json:"selling_price,omitempty"`
}

func marshalLines(snapshot []ledger.SnapshotLine) json.RawMessage {
	records := make([]snapshotRecord, 0, len(snapshot))
	for _, line := range snapshot {
		rec := snapshotRecord{
			EntryID:       line.Entry.ID,
			SourceID:      line.Entry.SourceID,
			Status:        line.Entry.Status,
			Quantity:      line.Entry.EffectiveQuantity(),
			PurchasePrice: line.Entry.PurchasePrice,
			SellingPrice:  line.Entry.SellingPrice,
		}
		if line.Product != nil {
			rec.ProductTitle = line.Product.Title
		}
		records = append(records, rec)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return json.RawMessage("[]")
	}
	return b
}

// RecalculateReceiving recalcula conteos y prorrateo de costo de una
// recepción. No-op si el traslado no existe o no es RECEIVING.
//
// El costo de transporte se redondea a entero y se reparte por división
// entera entre el total de ítems (0 si no hay ítems).
func (r *Recalculator) RecalculateReceiving(ctx context.Context, moveID string) error {
	move, err := r.moves.GetByID(moveID)
	if err != nil {
		return fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil || !move.IsReceiving() {
		return nil
	}
	snapshot, err := r.store.Snapshot(ctx, moveID)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	items := decimal.Zero
	skus := make(map[string]bool)
	for _, line := range snapshot {
		items = items.Add(line.Entry.EffectiveQuantity().Abs())
		skus[line.Entry.ProductID()] = true
	}

	total := move.TransportPrice.Round(0)
	perItem := decimal.Zero
	if items.GreaterThan(decimal.Zero) {
		perItem = total.Div(items).Floor()
	}

	move.ItemsCount = items
	move.SKUCount = len(skus)
	move.TotalCost = total
	move.PerItemCost = perItem
	move.Lines = marshalLines(snapshot)
	move.UpdatedAt = time.Now()
	if err := r.moves.Update(move); err != nil {
		return fmt.Errorf("guardar métricas: %w", err)
	}
	return nil
}

// RecalculateSending recalcula totales y márgenes de un envío. No-op si el
// traslado no existe o no es SENDING.
//
// Corren dos familias de totales en paralelo: los derivados de precios de
// catálogo (base del margen) y los "fact" que suman los precios registrados
// en cada línea. No se reconcilian entre sí.
func (r *Recalculator) RecalculateSending(ctx context.Context, moveID string) error {
	move, err := r.moves.GetByID(moveID)
	if err != nil {
		return fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil || !move.IsSending() {
		return nil
	}
	snapshot, err := r.store.Snapshot(ctx, moveID)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if len(snapshot) == 0 {
		// Reset explícito a cero, nunca a null.
		move.ItemsCount = decimal.Zero
		move.SKUCount = 0
		move.TotalSellingPrice = decimal.Zero
		move.TotalSellingPriceNet = decimal.Zero
		move.TotalPurchasePrice = decimal.Zero
		move.MarginAmount = decimal.Zero
		move.MarginToPurchasePercent = decimal.Zero
		move.MarginToSellingPercent = decimal.Zero
		move.TotalSellingPriceFact = decimal.Zero
		move.TotalPurchasePriceFact = decimal.Zero
		move.Lines = json.RawMessage("[]")
		move.UpdatedAt = time.Now()
		if err := r.moves.Update(move); err != nil {
			return fmt.Errorf("guardar métricas: %w", err)
		}
		return nil
	}

	items := decimal.Zero
	skus := make(map[string]bool)
	totalSellingNet := decimal.Zero
	totalPurchase := decimal.Zero
	factSelling := decimal.Zero
	factPurchase := decimal.Zero

	for _, line := range snapshot {
		qty := line.Entry.EffectiveQuantity().Abs()
		items = items.Add(qty)
		skus[line.Entry.ProductID()] = true

		if line.Product != nil {
			selling := catalogSellingPrice(line.Product)
			purchase := catalogPurchasePrice(line.Product)
			totalSellingNet = totalSellingNet.Add(selling.Mul(qty))
			totalPurchase = totalPurchase.Add(purchase.Mul(qty))
			r.backfillLinePrices(line.Entry, selling, purchase)
		}

		if line.Entry.SellingPrice != nil {
			factSelling = factSelling.Add(line.Entry.SellingPrice.Mul(qty))
		}
		if line.Entry.PurchasePrice != nil {
			factPurchase = factPurchase.Add(line.Entry.PurchasePrice.Mul(qty))
		}
	}

	totalSelling := totalSellingNet.Add(move.TransportPrice)
	marginAmount := totalSelling.Sub(totalPurchase)

	move.ItemsCount = items
	move.SKUCount = len(skus)
	move.TotalSellingPriceNet = totalSellingNet
	move.TotalSellingPrice = totalSelling
	move.TotalPurchasePrice = totalPurchase
	move.MarginAmount = marginAmount
	move.MarginToPurchasePercent = percentOf(marginAmount, totalPurchase)
	move.MarginToSellingPercent = percentOf(marginAmount, totalSelling)
	move.TotalSellingPriceFact = factSelling
	move.TotalPurchasePriceFact = factPurchase
	move.Lines = marshalLines(snapshot)
	move.UpdatedAt = time.Now()
	if err := r.moves.Update(move); err != nil {
		return fmt.Errorf("guardar métricas: %w", err)
	}

	// Envío ya completado: regenerar los movimientos de cartera del
	// contratista. Fire-and-forget: un fallo aquí no revierte las métricas.
	if move.Status == entity.MoveStatusCompleted && r.wallet != nil {
		if err := r.wallet.GenerateForMove(ctx, move); err != nil {
			r.log.Warn().Err(err).Str("move_id", move.ID).Msg("generación de cartera falló")
		}
	}
	return nil
}

// backfillLinePrices completa los precios de compra de la línea desde el
// catálogo, solo cuando están vacíos.
func (r *Recalculator) backfillLinePrices(entry *entity.LedgerEntry, gross, net decimal.Decimal) {
	changed := false
	if entry.PurchasePrice == nil && gross.GreaterThan(decimal.Zero) {
		v := gross
		entry.PurchasePrice = &v
		changed = true
	}
	if entry.PurchasePriceNet == nil && net.GreaterThan(decimal.Zero) {
		v := net
		entry.PurchasePriceNet = &v
		changed = true
	}
	if !changed {
		return
	}
	entry.UpdatedAt = time.Now()
	if err := r.store.UpdateEntry(entry); err != nil {
		r.log.Warn().Err(err).Str("entry_id", entry.ID).Msg("backfill de precios falló")
	}
}

// catalogSellingPrice cadena de fallback lado venta:
// averagePurchasePrice → price → averagePurchasePriceNet.
func catalogSellingPrice(p *entity.Product) decimal.Decimal {
	return firstPositive(p.AveragePurchasePrice, p.Price, p.AveragePurchasePriceNet)
}

// catalogPurchasePrice cadena de fallback lado compra:
// averagePurchasePriceNet → averagePurchasePrice → price.
func catalogPurchasePrice(p *entity.Product) decimal.Decimal {
	return firstPositive(p.AveragePurchasePriceNet, p.AveragePurchasePrice, p.Price)
}

func firstPositive(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v.GreaterThan(decimal.Zero) {
			return v
		}
	}
	return decimal.Zero
}

// percentOf devuelve amount/base*100, 0 si la base es cero.
func percentOf(amount, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return amount.Div(base).Mul(decimal.NewFromInt(100))
}
