package moves_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Traslados-api/internal/application/ledger"
	appmoves "github.com/jhoicas/Traslados-api/internal/application/moves"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
	"github.com/jhoicas/Traslados-api/pkg/logger"
)

// Fakes en memoria de los puertos de persistencia. Devuelven copias para que
// los cambios solo persistan vía Update, como en la DB real.

type fakeMoveRepo struct {
	moves map[string]*entity.Move
}

func newFakeMoveRepo() *fakeMoveRepo {
	return &fakeMoveRepo{moves: map[string]*entity.Move{}}
}

func (f *fakeMoveRepo) Create(m *entity.Move) error {
	c := *m
	f.moves[m.ID] = &c
	return nil
}

func (f *fakeMoveRepo) GetByID(id string) (*entity.Move, error) {
	m, ok := f.moves[id]
	if !ok || m.DeletedAt != nil {
		return nil, nil
	}
	c := *m
	return &c, nil
}

func (f *fakeMoveRepo) Update(m *entity.Move) error {
	if stored, ok := f.moves[m.ID]; ok && stored.DeletedAt == nil {
		c := *m
		f.moves[m.ID] = &c
	}
	return nil
}

func (f *fakeMoveRepo) SoftDelete(id string) error {
	if m, ok := f.moves[id]; ok && m.DeletedAt == nil {
		now := time.Now()
		m.DeletedAt = &now
	}
	return nil
}

func (f *fakeMoveRepo) FindInProgressByDestination(locationID string) ([]*entity.Move, error) {
	var out []*entity.Move
	for _, m := range f.moves {
		if m.DeletedAt != nil || m.Status != entity.MoveStatusInProgress {
			continue
		}
		if m.DestinationLocationID != nil && *m.DestinationLocationID == locationID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeMoveRepo) FindReceivingByCounterpart(sendingMoveID string) (*entity.Move, error) {
	for _, m := range f.moves {
		if m.DeletedAt != nil {
			continue
		}
		if m.CounterpartMoveID != nil && *m.CounterpartMoveID == sendingMoveID {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

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

func (f *fakeEntryRepo) activeByTarget(moveID string) []*entity.LedgerEntry {
	var out []*entity.LedgerEntry
	for _, e := range f.entries {
		if e.TargetID == moveID && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	return out
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: map[string]*entity.Product{}}
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

type fakeLocationRepo struct {
	locations map[string]*entity.Location
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{locations: map[string]*entity.Location{}}
}

func (f *fakeLocationRepo) GetByID(id string) (*entity.Location, error) {
	if l, ok := f.locations[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (f *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	if u, ok := f.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListByRole(role string) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range f.users {
		if u.Role == role {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	calls []string
}

func (f *fakeNotifier) NotifyManagers(_ context.Context, title, body, deepLink string) error {
	f.calls = append(f.calls, deepLink)
	return nil
}

type fakeWallet struct {
	moveIDs []string
}

func (f *fakeWallet) GenerateForMove(_ context.Context, m *entity.Move) error {
	f.moveIDs = append(f.moveIDs, m.ID)
	return nil
}

// env agrupa el grafo completo de componentes sobre fakes.
type env struct {
	moves     *fakeMoveRepo
	entries   *fakeEntryRepo
	products  *fakeProductRepo
	locations *fakeLocationRepo
	users     *fakeUserRepo
	notifier  *fakeNotifier
	wallet    *fakeWallet

	store    *ledger.Store
	metrics  *appmoves.Recalculator
	syncer   *appmoves.Synchronizer
	avgPrice *appmoves.AveragePriceRecalculator
	uc       *appmoves.UseCase
}

func newEnv() *env {
	e := &env{
		moves:     newFakeMoveRepo(),
		entries:   &fakeEntryRepo{},
		products:  newFakeProductRepo(),
		locations: newFakeLocationRepo(),
		users:     newFakeUserRepo(),
		notifier:  &fakeNotifier{},
		wallet:    &fakeWallet{},
	}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	e.store = ledger.NewStore(e.entries, e.products, log)
	e.metrics = appmoves.NewRecalculator(e.moves, e.store, e.wallet, log)
	e.syncer = appmoves.NewSynchronizer(e.moves, e.products, e.locations, e.store, e.metrics, log)
	e.avgPrice = appmoves.NewAveragePriceRecalculator(e.moves, e.products, e.store, log)
	e.uc = appmoves.NewUseCase(e.moves, e.users, e.store, e.metrics, e.syncer, e.avgPrice, e.notifier, log)
	return e
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func strPtr(s string) *string { return &s }
