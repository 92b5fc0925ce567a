package service

import (
	"testing"
	"time"

	"playpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func decimalFromInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// testEnv bundles the fakes and the services built on top of them.
// The clock is frozen so elapsed-minute arithmetic is deterministic.
type testEnv struct {
	products  *fakeProductRepo
	combos    *fakeComboRepo
	tiers     *fakeTimeTierRepo
	sales     *fakeSaleRepo
	entries   *fakeTimeEntryRepo
	cash      *fakeCashRepo
	stockMovs *fakeStockMovementRepo

	catalog    CatalogService
	saleSvc    *saleService
	returnSvc  ReturnService
	timeSvc    *timeEntryService
	cashSvc    *cashService

	now time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		products:  newFakeProductRepo(),
		combos:    newFakeComboRepo(),
		tiers:     newFakeTimeTierRepo(),
		sales:     newFakeSaleRepo(),
		entries:   newFakeTimeEntryRepo(),
		cash:      newFakeCashRepo(),
		stockMovs: newFakeStockMovementRepo(),
		now:       time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local),
	}

	env.catalog = NewCatalogService(env.products, env.combos, env.tiers, env.stockMovs, nil)

	env.saleSvc = NewSaleService(
		env.sales, env.products, env.combos, env.entries, env.stockMovs,
		env.catalog, nil, decimalFromInt(500),
	).(*saleService)
	env.saleSvc.now = func() time.Time { return env.now }

	env.returnSvc = NewReturnService(env.sales, env.products, env.combos, env.stockMovs)

	env.timeSvc = NewTimeEntryService(env.entries, env.sales, env.catalog, nil).(*timeEntryService)
	env.timeSvc.now = func() time.Time { return env.now }

	env.cashSvc = NewCashService(env.cash, env.sales, nil, "").(*cashService)
	env.cashSvc.now = func() time.Time { return env.now }

	return env
}

// advance moves the frozen clock forward.
func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

// seedTiers installs the standard three-tier table:
// 60 min → 50, 90 min → 70, 120 min → 85.
func (e *testEnv) seedTiers() []*model.TimeTier {
	rows := []struct {
		minutes int
		price   int64
	}{{60, 50}, {90, 70}, {120, 85}}

	out := make([]*model.TimeTier, 0, len(rows))
	for i, s := range rows {
		t := &model.TimeTier{
			ID:       uuid.New(),
			Name:     "tier",
			Minutes:  s.minutes,
			Price:    decimalFromInt(s.price),
			Position: i + 1,
			Active:   true,
		}
		e.tiers.tiers[t.ID] = t
		out = append(out, t)
	}
	return out
}

// seedCombo creates a combo holding qty of product plus an optional tier.
func (e *testEnv) seedCombo(name string, price int64, product *model.Product, qty int, tier *model.TimeTier) *model.Combo {
	c := &model.Combo{
		ID:     uuid.New(),
		Name:   name,
		Price:  decimalFromInt(price),
		Active: true,
	}
	if product != nil {
		c.Lines = []model.ComboLine{{
			ComboID:   c.ID,
			ProductID: product.ID,
			Quantity:  qty,
			Product:   product,
		}}
	}
	if tier != nil {
		c.TimeTierID = &tier.ID
		c.TimeTier = tier
	}
	e.combos.combos[c.ID] = c
	return c
}

func strPtr(s string) *string { return &s }

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}
