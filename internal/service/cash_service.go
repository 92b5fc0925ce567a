package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"playpos/internal/dto"
	"playpos/internal/model"
	"playpos/internal/poserr"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"playpos/internal/worker"
)

// CashService manages cash-drawer sessions. Totals are never accumulated
// incrementally: the summary is recomputed from finalized sales and movement
// rows every time, and close snapshots that recomputation onto the session.
type CashService interface {
	OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	RecordMovement(ctx context.Context, req dto.MovementRequest) (*dto.MovementResponse, error)
	ComputeSummary(ctx context.Context) (*dto.SessionSummaryResponse, error)
	CloseSession(ctx context.Context, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	GetHistory(ctx context.Context, filter dto.HistoryFilter) ([]dto.SessionResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
}

type cashService struct {
	repo       repository.CashRepository
	saleRepo   repository.SaleRepository
	dispatcher *worker.Dispatcher
	reportTo   string
	now        func() time.Time
}

func NewCashService(repo repository.CashRepository, saleRepo repository.SaleRepository, dispatcher *worker.Dispatcher, reportTo string) CashService {
	return &cashService{
		repo:       repo,
		saleRepo:   saleRepo,
		dispatcher: dispatcher,
		reportTo:   reportTo,
		now:        time.Now,
	}
}

func (s *cashService) OpenSession(ctx context.Context, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	open, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, &poserr.SessionAlreadyOpenError{SessionID: open.ID.String()}
	}

	session := &model.CashSession{
		OpenedAt:     s.now(),
		OpeningCash:  req.OpeningCash,
		ExpectedCash: req.OpeningCash,
	}
	if req.Notes != nil {
		session.Notes = req.Notes
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		// Losing insert on the single-open index: a concurrent open won
		// between the pre-check and the write.
		if errors.Is(err, repository.ErrSessionOpenConflict) {
			winner := &poserr.SessionAlreadyOpenError{}
			if open, ferr := s.repo.FindOpenSession(ctx); ferr == nil && open != nil {
				winner.SessionID = open.ID.String()
			}
			return nil, winner
		}
		return nil, err
	}
	return sessionToResponse(session), nil
}

func (s *cashService) RecordMovement(ctx context.Context, req dto.MovementRequest) (*dto.MovementResponse, error) {
	session, err := s.openSession(ctx)
	if err != nil {
		return nil, err
	}

	mov := &model.CashMovement{
		SessionID: session.ID,
		Kind:      req.Kind,
		Amount:    req.Amount,
		Memo:      req.Memo,
		Notes:     req.Notes,
		User:      req.User,
	}
	if err := s.repo.CreateMovement(ctx, mov); err != nil {
		return nil, err
	}
	return movementToResponse(mov), nil
}

// ComputeSummary rebuilds the session totals from the underlying rows.
// The sale window runs from midnight of the opening day (local clock, same
// as the drawer) up to now, partitioned by payment method.
func (s *cashService) ComputeSummary(ctx context.Context) (*dto.SessionSummaryResponse, error) {
	session, err := s.openSession(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, session)
}

func (s *cashService) summarize(ctx context.Context, session *model.CashSession) (*dto.SessionSummaryResponse, error) {
	opened := session.OpenedAt
	from := time.Date(opened.Year(), opened.Month(), opened.Day(), 0, 0, 0, 0, opened.Location())
	to := s.now()

	sales, err := s.saleRepo.ListFinalizedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	cashTotal, cardTotal := decimal.Zero, decimal.Zero
	cashCount, cardCount := 0, 0
	for i := range sales {
		switch sales[i].PaymentMethod {
		case model.PaymentCash:
			cashTotal = cashTotal.Add(sales[i].Total)
			cashCount++
		case model.PaymentCard:
			cardTotal = cardTotal.Add(sales[i].Total)
			cardCount++
		}
	}

	movements, err := s.repo.ListMovements(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	deposits, withdrawals := decimal.Zero, decimal.Zero
	movResponses := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		switch movements[i].Kind {
		case model.MovementDeposit:
			deposits = deposits.Add(movements[i].Amount)
		case model.MovementWithdrawal:
			withdrawals = withdrawals.Add(movements[i].Amount)
		}
		movResponses = append(movResponses, *movementToResponse(&movements[i]))
	}

	expected := session.OpeningCash.Add(cashTotal).Add(deposits).Sub(withdrawals)

	return &dto.SessionSummaryResponse{
		SessionID:        session.ID.String(),
		OpenedAt:         session.OpenedAt.Format(timeFmt),
		OpeningCash:      session.OpeningCash,
		CashSalesTotal:   cashTotal,
		CashSalesCount:   cashCount,
		CardSalesTotal:   cardTotal,
		CardSalesCount:   cardCount,
		DepositsTotal:    deposits,
		WithdrawalsTotal: withdrawals,
		ExpectedCash:     expected,
		Movements:        movResponses,
	}, nil
}

// CloseSession snapshots the recomputed summary onto the session and seals
// it. Closed sessions accept no further movements.
func (s *cashService) CloseSession(ctx context.Context, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	session, err := s.openSession(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.summarize(ctx, session)
	if err != nil {
		return nil, err
	}

	now := s.now()
	variance := req.CountedCash.Sub(summary.ExpectedCash)

	session.ClosedAt = &now
	session.CountedCash = &req.CountedCash
	session.CashSalesTotal = summary.CashSalesTotal
	session.CashSalesCount = summary.CashSalesCount
	session.CardSalesTotal = summary.CardSalesTotal
	session.CardSalesCount = summary.CardSalesCount
	session.DepositsTotal = summary.DepositsTotal
	session.WithdrawalsTotal = summary.WithdrawalsTotal
	session.ExpectedCash = summary.ExpectedCash
	session.Variance = variance
	session.Closed = true
	session.ClosedBy = &req.User
	if req.Notes != nil && *req.Notes != "" {
		joined := *req.Notes
		if session.Notes != nil && *session.Notes != "" {
			joined = *session.Notes + "\n" + *req.Notes
		}
		session.Notes = &joined
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.UpdateSessionTx(tx, session)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.enqueueCloseReport(ctx, session)
	return sessionToResponse(session), nil
}

func (s *cashService) GetHistory(ctx context.Context, filter dto.HistoryFilter) ([]dto.SessionResponse, error) {
	var from, to *time.Time
	if filter.From != "" {
		t, err := time.ParseInLocation("2006-01-02", filter.From, time.Local)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		from = &t
	}
	if filter.To != "" {
		t, err := time.ParseInLocation("2006-01-02", filter.To, time.Local)
		if err != nil {
			return nil, fmt.Errorf("to: %w", err)
		}
		end := t.Add(24 * time.Hour)
		to = &end
	}
	sessions, err := s.repo.ListSessions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *sessionToResponse(&sessions[i]))
	}
	return out, nil
}

func (s *cashService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, &poserr.NotFoundError{Entity: "cash session", Ref: id.String()}
	}
	return sessionToResponse(session), nil
}

func (s *cashService) openSession(ctx context.Context) (*model.CashSession, error) {
	session, err := s.repo.FindOpenSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &poserr.NoOpenSessionError{}
	}
	return session, nil
}

// enqueueCloseReport mails the close snapshot to the configured report
// address. Best-effort, the close itself already committed.
func (s *cashService) enqueueCloseReport(ctx context.Context, session *model.CashSession) {
	if s.dispatcher == nil || s.reportTo == "" {
		return
	}
	_ = s.dispatcher.EnqueueEmail(ctx, map[string]interface{}{
		"kind":       "session_close_report",
		"session_id": session.ID.String(),
		"to":         s.reportTo,
	})
}

func movementToResponse(m *model.CashMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:        m.ID.String(),
		Kind:      m.Kind,
		Amount:    m.Amount,
		Memo:      m.Memo,
		Notes:     m.Notes,
		User:      m.User,
		CreatedAt: m.CreatedAt.Format(timeFmt),
	}
}

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:               s.ID.String(),
		OpenedAt:         s.OpenedAt.Format(timeFmt),
		OpeningCash:      s.OpeningCash,
		CashSalesTotal:   s.CashSalesTotal,
		CashSalesCount:   s.CashSalesCount,
		CardSalesTotal:   s.CardSalesTotal,
		CardSalesCount:   s.CardSalesCount,
		DepositsTotal:    s.DepositsTotal,
		WithdrawalsTotal: s.WithdrawalsTotal,
		ExpectedCash:     s.ExpectedCash,
		Closed:           s.Closed,
		Notes:            s.Notes,
		ClosedBy:         s.ClosedBy,
		CountedCash:      s.CountedCash,
		Variance:         s.Variance,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(timeFmt)
		resp.ClosedAt = &t
	}
	movs := make([]dto.MovementResponse, 0, len(s.Movements))
	for i := range s.Movements {
		movs = append(movs, *movementToResponse(&s.Movements[i]))
	}
	resp.Movements = movs
	return resp
}
