package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the sale as a PDF and,
// when a customer email was captured, chains an email job carrying the PDF.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"playpos/internal/infra"
	"playpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	SaleID        string  `json:"sale_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

const maxReceiptAttempts = 3

// ReceiptWorker renders PDF receipts for finalized sales.
type ReceiptWorker struct {
	saleRepo     repository.SaleRepository
	dispatcher   *Dispatcher
	rdb          *redis.Client
	storagePath  string
	businessName string
}

func NewReceiptWorker(
	saleRepo repository.SaleRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storagePath string,
	businessName string,
) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:     saleRepo,
		dispatcher:   dispatcher,
		rdb:          rdb,
		storagePath:  storagePath,
		businessName: businessName,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the Sale with lines from DB
//  3. Render the PDF (with retry, then DLQ)
//  4. Optionally enqueue an email job with the PDF attached
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	var pdfPath string
	renderErr := withRetry(ctx, maxReceiptAttempts, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(sale, w.businessName, w.storagePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("sale_id", payload.SaleID).
				Msg("receipt_worker: PDF render failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if renderErr != nil {
		log.Error().Err(renderErr).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF render failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueReceipt, "receipt", raw, renderErr.Error(), maxReceiptAttempts)
		return
	}
	log.Info().Str("pdf", pdfPath).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generated")

	if payload.CustomerEmail != nil && *payload.CustomerEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.CustomerEmail,
			Subject: fmt.Sprintf("%s — your receipt", w.businessName),
			Body:    fmt.Sprintf("Thank you for your visit.\nTotal: $%s", sale.Total.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.CustomerEmail).Msg("receipt_worker: failed to enqueue email")
		}
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
