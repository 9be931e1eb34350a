package moves_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

func seedMove(e *env, id string, subtype entity.MoveSubtype, transport string) *entity.Move {
	m := &entity.Move{
		ID:             id,
		HumanID:        "TR-" + id,
		Title:          "Traslado " + id,
		Status:         entity.MoveStatusInProgress,
		Subtype:        subtype,
		TransportPrice: d(transport),
		Lines:          json.RawMessage("[]"),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	switch subtype {
	case entity.MoveSubtypeSending:
		m.OriginLocationID = strPtr("loc-origen")
	default:
		m.DestinationLocationID = strPtr("loc-destino")
	}
	_ = e.moves.Create(m)
	return m
}

func link(t *testing.T, e *env, in ledger.LinkInput) *entity.LedgerEntry {
	t.Helper()
	entry, err := e.store.Link(context.Background(), in)
	require.NoError(t, err)
	return entry
}

// Prorrateo: transporte 1000 entre 3+7 ítems = 100 por ítem.
func TestRecalculateReceiving_ProrrateaElTransporte(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "r1", entity.MoveSubtypeReceiving, "1000")

	link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "r1", Kind: entity.KindMoveItem, Status: entity.EntryStatusIncomeInv, Quantity: d("3")})
	link(t, e, ledger.LinkInput{ProductID: "p2", MoveID: "r1", Kind: entity.KindMoveItem, Status: entity.EntryStatusIncomeInv, Quantity: d("7")})

	require.NoError(t, e.metrics.RecalculateReceiving(ctx, "r1"))

	m, _ := e.moves.GetByID("r1")
	assert.True(t, m.ItemsCount.Equal(d("10")))
	assert.Equal(t, 2, m.SKUCount)
	assert.True(t, m.TotalCost.Equal(d("1000")))
	assert.True(t, m.PerItemCost.Equal(d("100")), "1000/10 = 100, dio %s", m.PerItemCost)
	assert.NotEqual(t, "[]", string(m.Lines), "el snapshot serializado se guarda")
}

// División entera: 1000 entre 3 ítems = 333 (floor), nunca fracciones.
func TestRecalculateReceiving_DivisionEntera(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "r1", entity.MoveSubtypeReceiving, "1000")
	link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "r1", Kind: entity.KindMoveItem, Status: entity.EntryStatusIncomeInv, Quantity: d("3")})

	require.NoError(t, e.metrics.RecalculateReceiving(ctx, "r1"))

	m, _ := e.moves.GetByID("r1")
	assert.True(t, m.PerItemCost.Equal(d("333")), "floor(1000/3), dio %s", m.PerItemCost)
}

func TestRecalculateReceiving_SinItems(t *testing.T) {
	e := newEnv()
	seedMove(e, "r1", entity.MoveSubtypeReceiving, "1000")

	require.NoError(t, e.metrics.RecalculateReceiving(context.Background(), "r1"))

	m, _ := e.moves.GetByID("r1")
	assert.True(t, m.PerItemCost.IsZero(), "sin ítems el costo por ítem es cero")
}

// No-op sobre traslados inexistentes o de otro subtipo.
func TestRecalculateReceiving_NoOp(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.metrics.RecalculateReceiving(context.Background(), "no-existe"))

	seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	require.NoError(t, e.metrics.RecalculateReceiving(context.Background(), "s1"))
	m, _ := e.moves.GetByID("s1")
	assert.True(t, m.ItemsCount.IsZero())
}

// Márgenes: venta 1500 contra compra 1000 → margen 500, 50% y 33.33%.
func TestRecalculateSending_Margenes(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	e.products.products["p1"] = &entity.Product{
		ID:                      "p1",
		Title:                   "Origen#Tornillo",
		AveragePurchasePrice:    d("150"), // lado venta
		AveragePurchasePriceNet: d("100"), // lado compra
	}

	link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "s1", Kind: entity.KindMoveItem, Status: entity.EntryStatusExpenseInv, Quantity: d("10")})

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	m, _ := e.moves.GetByID("s1")
	assert.True(t, m.TotalSellingPriceNet.Equal(d("1500")), "dio %s", m.TotalSellingPriceNet)
	assert.True(t, m.TotalSellingPrice.Equal(d("1500")), "sin transporte, igual al neto")
	assert.True(t, m.TotalPurchasePrice.Equal(d("1000")))
	assert.True(t, m.MarginAmount.Equal(d("500")))
	assert.True(t, m.MarginToPurchasePercent.Equal(d("50")), "dio %s", m.MarginToPurchasePercent)
	assert.True(t, m.MarginToSellingPercent.Round(2).Equal(d("33.33")), "dio %s", m.MarginToSellingPercent)
}

// El transporte entra al total de venta, no al neto.
func TestRecalculateSending_TransporteSoloEnTotal(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "s1", entity.MoveSubtypeSending, "200")
	e.products.products["p1"] = &entity.Product{ID: "p1", Title: "X", Price: d("100")}

	link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "s1", Kind: entity.KindMoveItem, Status: entity.EntryStatusExpenseInv, Quantity: d("1")})

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	m, _ := e.moves.GetByID("s1")
	assert.True(t, m.TotalSellingPriceNet.Equal(d("100")))
	assert.True(t, m.TotalSellingPrice.Equal(d("300")))
}

// Snapshot vacío: todas las métricas derivadas a cero explícito.
func TestRecalculateSending_SnapshotVacioReseteaACero(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	m := seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	m.ItemsCount = d("9")
	m.TotalSellingPrice = d("999")
	m.MarginAmount = d("500")
	m.Lines = json.RawMessage(`[{"stale":true}]`)
	require.NoError(t, e.moves.Update(m))

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	got, _ := e.moves.GetByID("s1")
	assert.True(t, got.ItemsCount.IsZero())
	assert.True(t, got.TotalSellingPrice.IsZero())
	assert.True(t, got.MarginAmount.IsZero())
	assert.Equal(t, "[]", string(got.Lines))
}

// Totales fact: suman precios de línea, en paralelo a los de catálogo.
func TestRecalculateSending_TotalesFact(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	e.products.products["p1"] = &entity.Product{ID: "p1", Title: "X", Price: d("100")}

	link(t, e, ledger.LinkInput{
		ProductID: "p1", MoveID: "s1", Kind: entity.KindMoveItem,
		Status: entity.EntryStatusExpenseInv, Quantity: d("2"),
		PurchasePrice: dp("80"), SellingPrice: dp("120"),
	})

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	m, _ := e.moves.GetByID("s1")
	assert.True(t, m.TotalPurchasePriceFact.Equal(d("160")), "2*80, dio %s", m.TotalPurchasePriceFact)
	assert.True(t, m.TotalSellingPriceFact.Equal(d("240")), "2*120, dio %s", m.TotalSellingPriceFact)
	// Los de catálogo corren aparte y no se reconcilian.
	assert.True(t, m.TotalSellingPriceNet.Equal(d("200")))
}

// Backfill: precios de línea vacíos se completan desde catálogo, una vez.
func TestRecalculateSending_BackfillDePrecios(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	e.products.products["p1"] = &entity.Product{
		ID: "p1", Title: "X",
		AveragePurchasePrice:    d("150"),
		AveragePurchasePriceNet: d("100"),
	}

	entry := link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "s1", Kind: entity.KindMoveItem, Status: entity.EntryStatusExpenseInv, Quantity: d("1")})

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	stored, _ := e.entries.GetByID(entry.ID)
	require.NotNil(t, stored.PurchasePrice)
	assert.True(t, stored.PurchasePrice.Equal(d("150")))
	require.NotNil(t, stored.PurchasePriceNet)
	assert.True(t, stored.PurchasePriceNet.Equal(d("100")))
}

// Envío ya COMPLETED: el recálculo regenera los movimientos de cartera.
func TestRecalculateSending_DisparaCartera(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	m := seedMove(e, "s1", entity.MoveSubtypeSending, "0")
	m.Status = entity.MoveStatusCompleted
	require.NoError(t, e.moves.Update(m))
	e.products.products["p1"] = &entity.Product{ID: "p1", Title: "X", Price: d("10")}
	link(t, e, ledger.LinkInput{ProductID: "p1", MoveID: "s1", Kind: entity.KindMoveItem, Status: entity.EntryStatusExpenseInv, Quantity: d("1")})

	require.NoError(t, e.metrics.RecalculateSending(ctx, "s1"))

	require.Len(t, e.wallet.moveIDs, 1)
	assert.Equal(t, "s1", e.wallet.moveIDs[0])
}
