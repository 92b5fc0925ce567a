package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	OpeningCash decimal.Decimal `json:"opening_cash" validate:"min=0"`
	Notes       *string         `json:"notes"`
}

type MovementRequest struct {
	Kind   string          `json:"kind"   validate:"required,oneof=deposit withdrawal"`
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Memo   string          `json:"memo"   validate:"required,min=3"`
	Notes  *string         `json:"notes"`
	User   *string         `json:"user"`
}

type CloseSessionRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash" validate:"min=0"`
	User        string          `json:"user"         validate:"required,min=1"`
	Notes       *string         `json:"notes"`
}

// HistoryFilter is bound from the query string of GET /v1/cash/history.
type HistoryFilter struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   validate:"omitempty,datetime=2006-01-02"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovementResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo"`
	Notes     *string         `json:"notes"`
	User      *string         `json:"user"`
	CreatedAt string          `json:"created_at"`
}

// SessionSummaryResponse is the read-only reconciliation view of the open
// session: sale totals partitioned by payment method, movement sums, and the
// expected cash the drawer should hold right now.
type SessionSummaryResponse struct {
	SessionID        string             `json:"session_id"`
	OpenedAt         string             `json:"opened_at"`
	OpeningCash      decimal.Decimal    `json:"opening_cash"`
	CashSalesTotal   decimal.Decimal    `json:"cash_sales_total"`
	CardSalesTotal   decimal.Decimal    `json:"card_sales_total"`
	CashSalesCount   int                `json:"cash_sales_count"`
	CardSalesCount   int                `json:"card_sales_count"`
	DepositsTotal    decimal.Decimal    `json:"deposits_total"`
	WithdrawalsTotal decimal.Decimal    `json:"withdrawals_total"`
	ExpectedCash     decimal.Decimal    `json:"expected_cash"`
	Movements        []MovementResponse `json:"movements"`
}

type SessionResponse struct {
	ID               string           `json:"id"`
	OpenedAt         string           `json:"opened_at"`
	ClosedAt         *string          `json:"closed_at"`
	OpeningCash      decimal.Decimal  `json:"opening_cash"`
	CountedCash      *decimal.Decimal `json:"counted_cash"`
	CashSalesTotal   decimal.Decimal  `json:"cash_sales_total"`
	CardSalesTotal   decimal.Decimal  `json:"card_sales_total"`
	CashSalesCount   int              `json:"cash_sales_count"`
	CardSalesCount   int              `json:"card_sales_count"`
	DepositsTotal    decimal.Decimal  `json:"deposits_total"`
	WithdrawalsTotal decimal.Decimal  `json:"withdrawals_total"`
	ExpectedCash     decimal.Decimal  `json:"expected_cash"`
	Variance         decimal.Decimal  `json:"variance"`
	Closed           bool             `json:"closed"`
	Notes            *string          `json:"notes"`
	ClosedBy         *string          `json:"closed_by"`

	Movements []MovementResponse `json:"movements,omitempty"`
}
