package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReturnLineRequest struct {
	LineID   string `json:"line_id"  validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type ReturnPartialRequest struct {
	SaleID string              `json:"sale_id" validate:"required,uuid"`
	Lines  []ReturnLineRequest `json:"lines"   validate:"required,min=1,dive"`
}

type ReturnFullRequest struct {
	SaleID string `json:"sale_id" validate:"required,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ReturnResponse reports the refund and what remains of the sale.
// Sale is nil when the return emptied the sale and it was deleted.
type ReturnResponse struct {
	SaleID      string          `json:"sale_id"`
	Refund      decimal.Decimal `json:"refund"`
	SaleDeleted bool            `json:"sale_deleted"`
	Sale        *SaleResponse   `json:"sale"`
}
