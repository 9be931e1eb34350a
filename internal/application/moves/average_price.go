package moves

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	domainmoves "github.com/jhoicas/Traslados-api/internal/domain/moves"
	"github.com/jhoicas/Traslados-api/internal/domain/repository"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// AveragePriceRecalculator recalcula el costo promedio ponderado de compra de
// cada producto referenciado por un traslado completado.
type AveragePriceRecalculator struct {
	moves    repository.MoveRepository
	products repository.ProductRepository
	store    *ledger.Store
	log      *logger.Logger
}

// NewAveragePriceRecalculator construye el recalculador de promedios.
func NewAveragePriceRecalculator(
	moves repository.MoveRepository,
	products repository.ProductRepository,
	store *ledger.Store,
	log *logger.Logger,
) *AveragePriceRecalculator {
	return &AveragePriceRecalculator{moves: moves, products: products, store: store, log: log}
}

// intake acumula por producto dueño el volumen entrante del traslado con su
// costo ponderado. own registra lo que las líneas ya confirmadas del propio
// traslado aportan al bucket de disponible: ese aporte no es stock previo.
type intake struct {
	qty       decimal.Decimal
	costGross decimal.Decimal // Σ cantidad·costo
	costNet   decimal.Decimal
	own       decimal.Decimal
}

// RecalculateForMove recalcula el promedio de cada producto distinto
// referenciado por las líneas MOVE_ITEM del traslado. Las variantes de un
// mismo producto suman su volumen en una sola mezcla. Cada producto se
// procesa aislado: un fallo se loguea y no impide los demás.
func (r *AveragePriceRecalculator) RecalculateForMove(ctx context.Context, moveID string) error {
	move, err := r.moves.GetByID(moveID)
	if err != nil {
		return fmt.Errorf("cargar traslado: %w", err)
	}
	if move == nil {
		return nil
	}
	snapshot, err := r.store.Snapshot(ctx, moveID)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	intakes := make(map[string]*intake)
	var order []string
	for _, line := range snapshot {
		if line.Entry.Kind != entity.KindMoveItem {
			continue
		}
		pid := line.Entry.ProductID()
		it, ok := intakes[pid]
		if !ok {
			it = &intake{}
			intakes[pid] = it
			order = append(order, pid)
		}
		qty := line.Entry.EffectiveQuantity().Abs()
		costGross, costNet := lineCosts(move, line.Entry)
		it.qty = it.qty.Add(qty)
		it.costGross = it.costGross.Add(qty.Mul(costGross))
		it.costNet = it.costNet.Add(qty.Mul(costNet))
		it.own = it.own.Add(availableContribution(line.Entry))
	}

	for _, pid := range order {
		it := intakes[pid]
		if it.qty.IsZero() {
			continue
		}
		if err := r.recalculateProduct(ctx, pid, it); err != nil {
			r.log.Error().Err(err).Str("product_id", pid).Str("move_id", moveID).Msg("recalcular promedio falló")
		}
	}
	return nil
}

// lineCosts resuelve el costo gross/net de la línea: precio propio si es
// positivo, si no el costo por ítem del traslado; el net cae al gross.
func lineCosts(move *entity.Move, entry *entity.LedgerEntry) (gross, net decimal.Decimal) {
	gross = move.PerItemCost
	if entry.PurchasePrice != nil && entry.PurchasePrice.GreaterThan(decimal.Zero) {
		gross = *entry.PurchasePrice
	}
	net = gross
	if entry.PurchasePriceNet != nil && entry.PurchasePriceNet.GreaterThan(decimal.Zero) {
		net = *entry.PurchasePriceNet
	}
	return gross, net
}

// availableContribution replica la clasificación del agregador: cuánto suma
// esta línea, ya confirmada, al bucket de disponible de su producto.
func availableContribution(e *entity.LedgerEntry) decimal.Decimal {
	if e.ConfirmedQuantity == nil {
		return decimal.Zero
	}
	switch e.Status {
	case entity.EntryStatusExpenseInv, entity.EntryStatusInTransportingInv,
		entity.EntryStatusUnavailable, entity.EntryStatusDisposalInv:
		return decimal.Zero
	case entity.EntryStatusCommittedInv:
		return e.ConfirmedQuantity.Abs().Neg()
	}
	return e.ConfirmedQuantity.Abs()
}

// recalculateProduct mezcla el promedio vigente con el costo ponderado del
// traslado recién completado. El volumen previo es el disponible confirmado
// menos el aporte de las líneas del propio traslado, que a esta altura ya
// están confirmadas y contadas en el bucket.
func (r *AveragePriceRecalculator) recalculateProduct(ctx context.Context, productID string, it *intake) error {
	product, err := r.products.GetByID(productID)
	if err != nil {
		return fmt.Errorf("cargar producto: %w", err)
	}
	if product == nil {
		return domain.ErrNotFound
	}

	buckets, err := r.store.AggregateByProduct(ctx, []string{productID})
	if err != nil {
		return fmt.Errorf("agregar stock: %w", err)
	}
	onHand := buckets[productID].Available.Sub(it.own)

	costGross := it.costGross.Div(it.qty)
	costNet := it.costNet.Div(it.qty)

	avg := domainmoves.AveragePriceBlend(onHand, product.AveragePurchasePrice, it.qty, costGross)
	avgNet := domainmoves.AveragePriceBlend(onHand, product.AveragePurchasePriceNet, it.qty, costNet)

	if err := r.products.UpdateAveragePrices(productID, avg, avgNet); err != nil {
		return fmt.Errorf("guardar promedios: %w", err)
	}
	return nil
}
