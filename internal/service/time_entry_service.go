package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/pricing"
	"playpos/internal/repository"
	"playpos/internal/worker"

	"gorm.io/gorm"
)

// TimeEntryService handles standalone timed admissions: card in, card out,
// bill by elapsed minutes through the tier table. Finalizing an entry creates
// a finalized sale alongside it so cash reconciliation sees the charge.
type TimeEntryService interface {
	Start(ctx context.Context, req dto.StartTimeEntryRequest) (*dto.TimeEntryResponse, error)
	Finalize(ctx context.Context, req dto.FinalizeTimeEntryRequest) (*dto.FinalizeTimeEntryResponse, error)
	ListByDate(ctx context.Context, date string) ([]dto.TimeEntryResponse, error)
}

type timeEntryService struct {
	repo       repository.TimeEntryRepository
	saleRepo   repository.SaleRepository
	catalog    CatalogService
	dispatcher *worker.Dispatcher
	now        func() time.Time
}

func NewTimeEntryService(
	repo repository.TimeEntryRepository,
	saleRepo repository.SaleRepository,
	catalog CatalogService,
	dispatcher *worker.Dispatcher,
) TimeEntryService {
	return &timeEntryService{
		repo:       repo,
		saleRepo:   saleRepo,
		catalog:    catalog,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (s *timeEntryService) Start(ctx context.Context, req dto.StartTimeEntryRequest) (*dto.TimeEntryResponse, error) {
	active, err := s.repo.FindActiveByCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, &poserr.CardInUseError{CardID: req.CardID, Reason: "an active time entry exists for this card"}
	}
	pending, err := s.saleRepo.FindPendingByCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, &poserr.CardInUseError{CardID: req.CardID, Reason: "a pending sale is open on this card"}
	}

	now := s.now()
	entry := &model.TimeEntry{
		CardID:  req.CardID,
		Date:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		EntryAt: now,
		State:   model.TimeEntryActive,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		// Losing insert on the active-card index: another request slipped in
		// between the pre-check and the write.
		if errors.Is(err, repository.ErrActiveEntryCardTaken) {
			return nil, &poserr.CardInUseError{CardID: req.CardID, Reason: "an active time entry exists for this card"}
		}
		return nil, err
	}
	return s.toResponse(entry), nil
}

// Finalize closes the entry, prices the elapsed minutes against the active
// tier table and writes a finalized sale with one time_charge line. Entry
// update and sale insert share a transaction.
func (s *timeEntryService) Finalize(ctx context.Context, req dto.FinalizeTimeEntryRequest) (*dto.FinalizeTimeEntryResponse, error) {
	entry, err := s.repo.FindActiveByCard(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &poserr.NotFoundError{Entity: "active time entry", Ref: req.CardID}
	}

	tiers, err := s.catalog.GetActiveTimeTiers(ctx)
	if err != nil {
		return nil, err
	}

	exit := s.now()
	charge, err := pricing.ComputeCharge(entry.EntryAt, exit, tiers, req.DiscountPercent)
	if err != nil {
		return nil, err
	}
	minutes := pricing.ElapsedMinutes(entry.EntryAt, exit)

	entry.ExitAt = &exit
	entry.Total = charge
	entry.State = model.TimeEntryFinalized

	cardID := entry.CardID
	sale := &model.Sale{
		Total:         charge,
		State:         model.SaleFinalized,
		PaymentMethod: req.PaymentMethod,
		CardID:        &cardID,
		EntryAt:       &entry.EntryAt,
		Lines: []model.SaleLine{{
			Kind:      model.LineTimeCharge,
			Name:      fmt.Sprintf("Timed admission (%d min)", minutes),
			Quantity:  1,
			UnitPrice: charge,
			Subtotal:  charge,
		}},
	}
	if err := checkTotal(sale); err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(tx, entry); err != nil {
			return err
		}
		return s.saleRepo.CreateTx(tx, sale)
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.dispatcher != nil && req.CustomerEmail != nil && *req.CustomerEmail != "" {
		_ = s.dispatcher.EnqueueReceipt(ctx, map[string]interface{}{
			"sale_id":        sale.ID.String(),
			"customer_email": *req.CustomerEmail,
		})
	}

	return &dto.FinalizeTimeEntryResponse{
		Entry: *s.toResponse(entry),
		Sale:  *saleToResponse(sale),
	}, nil
}

func (s *timeEntryService) ListByDate(ctx context.Context, date string) ([]dto.TimeEntryResponse, error) {
	entries, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TimeEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *s.toResponse(&entries[i]))
	}
	return out, nil
}

func (s *timeEntryService) toResponse(e *model.TimeEntry) *dto.TimeEntryResponse {
	resp := &dto.TimeEntryResponse{
		ID:      e.ID.String(),
		CardID:  e.CardID,
		EntryAt: e.EntryAt.Format(timeFmt),
		Total:   e.Total,
		State:   e.State,
	}
	if e.ExitAt != nil {
		t := e.ExitAt.Format(timeFmt)
		resp.ExitAt = &t
		resp.Minutes = pricing.ElapsedMinutes(e.EntryAt, *e.ExitAt)
	} else {
		resp.Minutes = pricing.ElapsedMinutes(e.EntryAt, s.now())
	}
	return resp
}
