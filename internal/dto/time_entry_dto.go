package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StartTimeEntryRequest struct {
	CardID string `json:"card_id" validate:"required,min=1"`
}

type FinalizeTimeEntryRequest struct {
	CardID          string          `json:"card_id"          validate:"required,min=1"`
	PaymentMethod   string          `json:"payment_method"   validate:"required,oneof=cash card"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"min=0,max=100"`
	CustomerEmail   *string         `json:"customer_email"   validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TimeEntryResponse struct {
	ID      string          `json:"id"`
	CardID  string          `json:"card_id"`
	EntryAt string          `json:"entry_at"`
	ExitAt  *string         `json:"exit_at"`
	Minutes int             `json:"minutes"`
	Total   decimal.Decimal `json:"total"`
	State   string          `json:"state"`
}

// FinalizeTimeEntryResponse pairs the closed entry with the finalized sale it
// produced (the sale is what cash reconciliation counts).
type FinalizeTimeEntryResponse struct {
	Entry TimeEntryResponse `json:"entry"`
	Sale  SaleResponse      `json:"sale"`
}
