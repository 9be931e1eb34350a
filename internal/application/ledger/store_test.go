package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeEntryRepo struct {
	entries []*entity.LedgerEntry
}

func (f *fakeEntryRepo) Create(e *entity.LedgerEntry) error {
	c := *e
	f.entries = append(f.entries, &c)
	return nil
}

func (f *fakeEntryRepo) Update(e *entity.LedgerEntry) error {
	for i, stored := range f.entries {
		if stored.ID == e.ID {
			c := *e
			f.entries[i] = &c
			return nil
		}
	}
	return nil
}

func (f *fakeEntryRepo) GetByID(id string) (*entity.LedgerEntry, error) {
	for _, e := range f.entries {
		if e.ID == id && e.DeletedAt == nil {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeEntryRepo) ListByTarget(moveID string) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, e := range f.entries {
		if e.TargetID == moveID && e.DeletedAt == nil {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) FindByTargetSourceKind(moveID, sourceID string, kind entity.RelationKind) (*entity.LedgerEntry, error) {
	for _, e := range f.entries {
		if e.TargetID == moveID && e.SourceID == sourceID && e.Kind == kind && e.DeletedAt == nil {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeEntryRepo) ListActiveByKinds(kinds []entity.RelationKind) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, e := range f.entries {
		if e.DeletedAt != nil {
			continue
		}
		for _, k := range kinds {
			if e.Kind == k {
				c := *e
				out = append(out, &c)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) SoftDelete(id string) error {
	now := time.Now()
	for _, e := range f.entries {
		if e.ID == id && e.DeletedAt == nil {
			e.DeletedAt = &now
		}
	}
	return nil
}

func (f *fakeEntryRepo) SoftDeleteByTarget(moveID string) error {
	now := time.Now()
	for _, e := range f.entries {
		if e.TargetID == moveID && e.DeletedAt == nil {
			e.DeletedAt = &now
		}
	}
	return nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (f *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	if p, ok := f.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (f *fakeProductRepo) FindByTitle(title string) (*entity.Product, error) {
	for _, p := range f.products {
		if p.Title == title {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) Update(p *entity.Product) error {
	c := *p
	f.products[p.ID] = &c
	return nil
}

func (f *fakeProductRepo) UpdateAveragePrices(id string, avg, avgNet decimal.Decimal) error {
	if p, ok := f.products[id]; ok {
		p.AveragePurchasePrice = avg
		p.AveragePurchasePriceNet = avgNet
	}
	return nil
}

func newStore() (*ledger.Store, *fakeEntryRepo, *fakeProductRepo) {
	entries := &fakeEntryRepo{}
	products := &fakeProductRepo{products: map[string]*entity.Product{}}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	return ledger.NewStore(entries, products, log), entries, products
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

// ──────────────────────────────────────────────────────────────────────────────
// Link
// ──────────────────────────────────────────────────────────────────────────────

func TestLink_MoveItemUpsert(t *testing.T) {
	store, repo, _ := newStore()
	ctx := context.Background()

	first, err := store.Link(ctx, ledger.LinkInput{
		ProductID:     "p1",
		MoveID:        "m1",
		Kind:          entity.KindMoveItem,
		Status:        entity.EntryStatusIncomeInv,
		Quantity:      d("3"),
		PurchasePrice: dp("120"),
	})
	require.NoError(t, err)

	second, err := store.Link(ctx, ledger.LinkInput{
		ProductID: "p1",
		MoveID:    "m1",
		Kind:      entity.KindMoveItem,
		Status:    entity.EntryStatusIncomeInv,
		Quantity:  d("8"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "MOVE_ITEM repetido debe actualizar la misma línea")
	assert.Len(t, repo.entries, 1)
	assert.True(t, second.ProvisionalQuantity.Equal(d("8")), "la cantidad nueva sobreescribe")
	require.NotNil(t, second.PurchasePrice)
	assert.True(t, second.PurchasePrice.Equal(d("120")), "los campos no enviados se preservan")
}

func TestLink_InventoryItemSiempreInserta(t *testing.T) {
	store, repo, _ := newStore()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Link(ctx, ledger.LinkInput{
			ProductID: "p1",
			MoveID:    "m1",
			Kind:      entity.KindInventoryItem,
			Status:    entity.EntryStatusActive,
			Quantity:  d("5"),
		})
		require.NoError(t, err)
	}
	assert.Len(t, repo.entries, 2, "cada evento de conteo es una fila nueva")
}

func TestLink_AplicaSignoAlEscribir(t *testing.T) {
	store, _, _ := newStore()
	ctx := context.Background()

	entry, err := store.Link(ctx, ledger.LinkInput{
		ProductID: "p1",
		MoveID:    "m1",
		Kind:      entity.KindMoveItem,
		Status:    entity.EntryStatusExpenseInv,
		Quantity:  d("5"),
	})
	require.NoError(t, err)
	assert.True(t, entry.ProvisionalQuantity.Equal(d("-5")),
		"EXPENSE_INV fuerza negativo, dio %s", entry.ProvisionalQuantity)
}

func TestLink_EntradaInvalida(t *testing.T) {
	store, _, _ := newStore()
	ctx := context.Background()

	_, err := store.Link(ctx, ledger.LinkInput{ProductID: "", MoveID: "m1", Kind: entity.KindMoveItem, Status: entity.EntryStatusActive})
	assert.Error(t, err)

	_, err = store.Link(ctx, ledger.LinkInput{ProductID: "p1", MoveID: "m1", Kind: entity.KindMoveItem, Status: "NOPE"})
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmQuantities
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmQuantities_EsIdempotente(t *testing.T) {
	store, repo, _ := newStore()
	ctx := context.Background()

	_, err := store.Link(ctx, ledger.LinkInput{
		ProductID: "p1", MoveID: "m1", Kind: entity.KindMoveItem,
		Status: entity.EntryStatusExpenseInv, Quantity: d("4"),
	})
	require.NoError(t, err)

	require.NoError(t, store.ConfirmQuantities(ctx, "m1"))
	e := repo.entries[0]
	require.NotNil(t, e.ConfirmedQuantity)
	assert.True(t, e.ConfirmedQuantity.Equal(d("-4")), "la confirmada hereda el signo ya aplicado")
	assert.Nil(t, e.ProvisionalQuantity, "la provisional se limpia")

	// Segunda pasada: no hay provisionales, nada cambia.
	require.NoError(t, store.ConfirmQuantities(ctx, "m1"))
	e = repo.entries[0]
	assert.True(t, e.ConfirmedQuantity.Equal(d("-4")))
	assert.Nil(t, e.ProvisionalQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot
// ──────────────────────────────────────────────────────────────────────────────

func TestSnapshot_ResuelveVariantePorPrefijo(t *testing.T) {
	store, _, products := newStore()
	ctx := context.Background()
	products.products["p1"] = &entity.Product{ID: "p1", Title: "Tornillo M4"}

	_, err := store.Link(ctx, ledger.LinkInput{
		ProductID: "p1:rojo", MoveID: "m1", Kind: entity.KindMoveItem,
		Status: entity.EntryStatusIncomeInv, Quantity: d("2"),
	})
	require.NoError(t, err)

	lines, err := store.Snapshot(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].Product, "la variante sin fila propia resuelve al producto dueño")
	assert.Equal(t, "p1", lines[0].Product.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// AggregateByProduct
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregateByProduct_Buckets(t *testing.T) {
	store, repo, _ := newStore()
	ctx := context.Background()

	add := func(source string, status entity.EntryStatus, confirmed string) {
		e := &entity.LedgerEntry{
			ID: "e-" + source + string(status), SourceID: source, TargetID: "m1",
			Kind: entity.KindInventoryItem, Status: status,
		}
		if confirmed != "" {
			e.ConfirmedQuantity = dp(confirmed)
		}
		require.NoError(t, repo.Create(e))
	}

	add("p1", entity.EntryStatusActive, "10")
	add("p1:rojo", entity.EntryStatusActive, "2")            // variante suma al dueño
	add("p1", entity.EntryStatusCommittedInv, "-3")          // compromete 3
	add("p1", entity.EntryStatusInTransportingInv, "-4")     // en tránsito
	add("p1", entity.EntryStatusUnavailable, "-1")           // no disponible
	add("p1", entity.EntryStatusDisposalInv, "-2")           // merma
	add("p1", entity.EntryStatusExpenseInv, "-99")           // excluida por completo
	add("p1", entity.EntryStatusActive, "")                  // sin confirmada: se ignora
	add("p2", entity.EntryStatusActive, "7")                 // otro producto

	buckets, err := store.AggregateByProduct(ctx, []string{"p1"})
	require.NoError(t, err)

	b := buckets["p1"]
	assert.True(t, b.Available.Equal(d("9")), "disponible = 10+2-3 comprometidas, dio %s", b.Available)
	assert.True(t, b.Committed.Equal(d("3")))
	assert.True(t, b.InTransporting.Equal(d("4")))
	assert.True(t, b.Unavailable.Equal(d("3")), "no disponible + merma")
	_, ok := buckets["p2"]
	assert.False(t, ok, "productos no pedidos no aparecen")
}
