package service

// In-memory repository fakes. The services run their transactions through
// runTx, which passes fn(nil) when DB() returns nil, so everything here works
// without a live store.

import (
	"context"
	"strings"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── Products ─────────────────────────────────────────────────────────────────

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) add(name string, price int64, stock int) *model.Product {
	p := &model.Product{
		ID:        uuid.New(),
		Name:      name,
		UnitPrice: decimalFromInt(price),
		Stock:     stock,
		Active:    true,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeProductRepo) DB() *gorm.DB { return nil }

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) List(_ context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range f.products {
		if filter.Active == "true" && !p.Active {
			continue
		}
		if filter.Active == "false" && p.Active {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if p, ok := f.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (f *fakeProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.Stock < qty {
		return repository.ErrStockConflict
	}
	p.Stock -= qty
	return nil
}

func (f *fakeProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += qty
	return nil
}

// ── Combos ───────────────────────────────────────────────────────────────────

type fakeComboRepo struct {
	combos map[uuid.UUID]*model.Combo
}

var _ repository.ComboRepository = (*fakeComboRepo)(nil)

func newFakeComboRepo() *fakeComboRepo {
	return &fakeComboRepo{combos: make(map[uuid.UUID]*model.Combo)}
}

func (f *fakeComboRepo) Create(_ context.Context, c *model.Combo) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.combos[c.ID] = c
	return nil
}

func (f *fakeComboRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Combo, error) {
	c, ok := f.combos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeComboRepo) ListActive(_ context.Context) ([]model.Combo, error) {
	var out []model.Combo
	for _, c := range f.combos {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComboRepo) Update(_ context.Context, c *model.Combo) error {
	f.combos[c.ID] = c
	return nil
}

func (f *fakeComboRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if c, ok := f.combos[id]; ok {
		c.Active = false
	}
	return nil
}

// ── Time tiers ───────────────────────────────────────────────────────────────

type fakeTimeTierRepo struct {
	tiers map[uuid.UUID]*model.TimeTier
}

var _ repository.TimeTierRepository = (*fakeTimeTierRepo)(nil)

func newFakeTimeTierRepo() *fakeTimeTierRepo {
	return &fakeTimeTierRepo{tiers: make(map[uuid.UUID]*model.TimeTier)}
}

func (f *fakeTimeTierRepo) Create(_ context.Context, t *model.TimeTier) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.tiers[t.ID] = t
	return nil
}

func (f *fakeTimeTierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TimeTier, error) {
	t, ok := f.tiers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeTimeTierRepo) ListActive(_ context.Context) ([]model.TimeTier, error) {
	var out []model.TimeTier
	for pos := 1; pos <= len(f.tiers)+1; pos++ {
		for _, t := range f.tiers {
			if t.Active && t.Position == pos {
				out = append(out, *t)
			}
		}
	}
	return out, nil
}

func (f *fakeTimeTierRepo) Update(_ context.Context, t *model.TimeTier) error {
	f.tiers[t.ID] = t
	return nil
}

func (f *fakeTimeTierRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if t, ok := f.tiers[id]; ok {
		t.Active = false
	}
	return nil
}

// ── Sales ────────────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	sales map[uuid.UUID]*model.Sale

	// createErr is returned once by CreateTx, simulating a losing insert on
	// the pending-card index.
	createErr error
}

var _ repository.SaleRepository = (*fakeSaleRepo)(nil)

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (f *fakeSaleRepo) DB() *gorm.DB { return nil }

func (f *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeSaleRepo) FindPendingByCard(_ context.Context, cardID string) (*model.Sale, error) {
	for _, s := range f.sales {
		if s.State == model.SalePending && s.CardID != nil && *s.CardID == cardID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSaleRepo) ListFinalizedBetween(_ context.Context, from, to time.Time) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range f.sales {
		if s.State == model.SaleFinalized && !s.CreatedAt.Before(from) && !s.CreatedAt.After(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range f.sales {
		if filter.State != "" && filter.State != "all" && s.State != filter.State {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	for i := range s.Lines {
		if s.Lines[i].ID == uuid.Nil {
			s.Lines[i].ID = uuid.New()
		}
		s.Lines[i].SaleID = s.ID
	}
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	f.sales[s.ID] = s
	return nil
}

func (f *fakeSaleRepo) AppendLineTx(_ *gorm.DB, line *model.SaleLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return nil
}

func (f *fakeSaleRepo) UpdateLineTx(_ *gorm.DB, line *model.SaleLine) error {
	s, ok := f.sales[line.SaleID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range s.Lines {
		if s.Lines[i].ID == line.ID {
			s.Lines[i].Quantity = line.Quantity
			s.Lines[i].Subtotal = line.Subtotal
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSaleRepo) DeleteLineTx(_ *gorm.DB, lineID uuid.UUID) error {
	for _, s := range f.sales {
		for i := range s.Lines {
			if s.Lines[i].ID == lineID {
				s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeSaleRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(f.sales, id)
	return nil
}

// ── Time entries ─────────────────────────────────────────────────────────────

type fakeTimeEntryRepo struct {
	entries map[uuid.UUID]*model.TimeEntry

	// createErr is returned once by Create, simulating a losing insert on
	// the active-card index.
	createErr error
}

var _ repository.TimeEntryRepository = (*fakeTimeEntryRepo)(nil)

func newFakeTimeEntryRepo() *fakeTimeEntryRepo {
	return &fakeTimeEntryRepo{entries: make(map[uuid.UUID]*model.TimeEntry)}
}

func (f *fakeTimeEntryRepo) Create(_ context.Context, e *model.TimeEntry) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.entries[e.ID] = e
	return nil
}

func (f *fakeTimeEntryRepo) FindActiveByCard(_ context.Context, cardID string) (*model.TimeEntry, error) {
	for _, e := range f.entries {
		if e.State == model.TimeEntryActive && e.CardID == cardID {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeTimeEntryRepo) ListByDate(_ context.Context, _ string) ([]model.TimeEntry, error) {
	var out []model.TimeEntry
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeTimeEntryRepo) UpdateTx(_ *gorm.DB, e *model.TimeEntry) error {
	f.entries[e.ID] = e
	return nil
}

// ── Cash ─────────────────────────────────────────────────────────────────────

type fakeCashRepo struct {
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement

	// createErr is returned once by CreateSession, simulating a losing
	// insert on the single-open index.
	createErr error
}

var _ repository.CashRepository = (*fakeCashRepo)(nil)

func newFakeCashRepo() *fakeCashRepo {
	return &fakeCashRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (f *fakeCashRepo) DB() *gorm.DB { return nil }

func (f *fakeCashRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeCashRepo) FindOpenSession(_ context.Context) (*model.CashSession, error) {
	for _, s := range f.sessions {
		if !s.Closed {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeCashRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (f *fakeCashRepo) ListSessions(_ context.Context, from, to *time.Time) ([]model.CashSession, error) {
	var out []model.CashSession
	for _, s := range f.sessions {
		if from != nil && s.OpenedAt.Before(*from) {
			continue
		}
		if to != nil && s.OpenedAt.After(*to) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeCashRepo) CreateMovement(_ context.Context, m *model.CashMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeCashRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range f.movements {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCashRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	f.sessions[s.ID] = s
	return nil
}

// ── Stock movements ──────────────────────────────────────────────────────────

type fakeStockMovementRepo struct {
	movements []model.StockMovement
}

var _ repository.StockMovementRepository = (*fakeStockMovementRepo)(nil)

func newFakeStockMovementRepo() *fakeStockMovementRepo { return &fakeStockMovementRepo{} }

func (f *fakeStockMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeStockMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}
