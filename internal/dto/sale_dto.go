package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date  string `form:"date"`                    // YYYY-MM-DD; empty = today
	State string `form:"state,default=finalized"` // pending | finalized | all
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CartLineRequest is one item of a checkout cart. Kind decides which
// reference is read: product_id for product lines, combo_id for combo lines.
// Lost-card fee lines take the configured fee unless fee_amount overrides it.
type CartLineRequest struct {
	Kind      string           `json:"kind"       validate:"required,oneof=product combo lost_card_fee"`
	ProductID *string          `json:"product_id" validate:"omitempty,uuid"`
	ComboID   *string          `json:"combo_id"   validate:"omitempty,uuid"`
	Quantity  int              `json:"quantity"   validate:"required,min=1"`
	FeeAmount *decimal.Decimal `json:"fee_amount" validate:"omitempty"`
}

type CreatePendingSaleRequest struct {
	CardID        string            `json:"card_id"        validate:"required,min=1"`
	CustomerName  *string           `json:"customer_name"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card"`
	Lines         []CartLineRequest `json:"lines"          validate:"required,min=1,dive"`
	// CustomerEmail: optional — when present, the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type CreateFinalizedSaleRequest struct {
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card"`
	Lines         []CartLineRequest `json:"lines"          validate:"required,min=1,dive"`
	CustomerEmail *string           `json:"customer_email" validate:"omitempty,email"`
}

type FinalizeSaleRequest struct {
	CardID        string  `json:"card_id"        validate:"required,min=1"`
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

type CancelSaleRequest struct {
	CardID string `json:"card_id" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID              string             `json:"id"`
	State           string             `json:"state"`
	PaymentMethod   string             `json:"payment_method"`
	CardID          *string            `json:"card_id"`
	CustomerName    *string            `json:"customer_name"`
	EntryAt         *string            `json:"entry_at"`
	IncludedMinutes *int               `json:"included_minutes"`
	Lines           []SaleLineResponse `json:"lines"`
	Total           decimal.Decimal    `json:"total"`
	CreatedAt       string             `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
