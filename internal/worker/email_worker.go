package worker

// email_worker.go
// Processes email jobs from QueueEmail: customer receipts with a PDF
// attachment, and cash session close reports. All SMTP traffic goes through
// the circuit breaker so a downed relay fails fast instead of stalling the
// pool; breaker-rejected jobs land in the DLQ for later redrain.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"playpos/internal/infra"
	"playpos/internal/model"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail. Kind selects the
// shape: empty kind is a prebuilt message (receipt mail), "session_close_report"
// builds the body from the closed session row.
type EmailJobPayload struct {
	Kind      string `json:"kind,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	To        string `json:"to,omitempty"`

	ToEmail string `json:"to_email,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
	PDFPath string `json:"pdf_path,omitempty"`
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer   *infra.Mailer
	cashRepo repository.CashRepository
	cb       *infra.CircuitBreaker
	rdb      *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cashRepo repository.CashRepository, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cashRepo: cashRepo, cb: cb, rdb: rdb}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}

	var sendErr error
	switch payload.Kind {
	case "session_close_report":
		sendErr = w.sendCloseReport(ctx, payload)
	default:
		sendErr = w.sendReceipt(payload)
	}

	if sendErr != nil {
		log.Error().Err(sendErr).Msg("email_worker: send failed")
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", raw, sendErr.Error(), 1)
	}
}

func (w *EmailWorker) sendReceipt(payload EmailJobPayload) error {
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return nil
	}
	return w.cb.Execute(func() error {
		return w.mailer.SendReceipt(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
}

func (w *EmailWorker) sendCloseReport(ctx context.Context, payload EmailJobPayload) error {
	if payload.To == "" {
		log.Warn().Msg("email_worker: close report without recipient — skipping")
		return nil
	}
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		log.Error().Str("session_id", payload.SessionID).Msg("email_worker: invalid session_id")
		return nil
	}
	session, err := w.cashRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("email_worker: session not found: %w", err)
	}

	subject := fmt.Sprintf("Cash session close report — %s", session.OpenedAt.Format("02/01/2006"))
	err = w.cb.Execute(func() error {
		return w.mailer.SendReport(payload.To, subject, closeReportBody(session))
	})
	if err != nil {
		return err
	}
	log.Info().Str("to", payload.To).Str("session_id", payload.SessionID).Msg("email_worker: close report sent")
	return nil
}

func closeReportBody(s *model.CashSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", s.ID)
	fmt.Fprintf(&b, "Opened:  %s\n", s.OpenedAt.Format("02/01/2006 15:04"))
	if s.ClosedAt != nil {
		fmt.Fprintf(&b, "Closed:  %s\n", s.ClosedAt.Format("02/01/2006 15:04"))
	}
	if s.ClosedBy != nil {
		fmt.Fprintf(&b, "Closed by: %s\n", *s.ClosedBy)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Opening cash:    $%s\n", s.OpeningCash.StringFixed(2))
	fmt.Fprintf(&b, "Cash sales:      $%s (%d)\n", s.CashSalesTotal.StringFixed(2), s.CashSalesCount)
	fmt.Fprintf(&b, "Card sales:      $%s (%d)\n", s.CardSalesTotal.StringFixed(2), s.CardSalesCount)
	fmt.Fprintf(&b, "Deposits:        $%s\n", s.DepositsTotal.StringFixed(2))
	fmt.Fprintf(&b, "Withdrawals:     $%s\n", s.WithdrawalsTotal.StringFixed(2))
	fmt.Fprintf(&b, "Expected cash:   $%s\n", s.ExpectedCash.StringFixed(2))
	if s.CountedCash != nil {
		fmt.Fprintf(&b, "Counted cash:    $%s\n", s.CountedCash.StringFixed(2))
	}
	fmt.Fprintf(&b, "Variance:        $%s\n", s.Variance.StringFixed(2))
	if s.Notes != nil && *s.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", *s.Notes)
	}
	return b.String()
}
