package dto

import "github.com/shopspring/decimal"

// ─── Filters ─────────────────────────────────────────────────────────────────

// ProductFilter is bound from the query string of GET /v1/catalog/products.
type ProductFilter struct {
	Name   string `form:"name"`
	Active string `form:"active,default=true"` // true | false | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ProductRequest struct {
	Name      string          `json:"name"       validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required,gt=0"`
	Stock     int             `json:"stock"      validate:"min=0"`
}

type ComboLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type ComboRequest struct {
	Name       string             `json:"name"         validate:"required,min=1"`
	Price      decimal.Decimal    `json:"price"        validate:"required,gt=0"`
	TimeTierID *string            `json:"time_tier_id" validate:"omitempty,uuid"`
	Lines      []ComboLineRequest `json:"lines"        validate:"dive"`
}

// AdjustStockRequest is a manual stock correction. Delta may be negative;
// the adjustment is journaled like any other stock movement.
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Reason string `json:"reason" validate:"required,min=3"`
}

type TimeTierRequest struct {
	Name     string          `json:"name"     validate:"required,min=1"`
	Minutes  int             `json:"minutes"  validate:"required,gt=0"`
	Price    decimal.Decimal `json:"price"    validate:"required,gt=0"`
	Position int             `json:"position" validate:"required,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
	Active    bool            `json:"active"`
}

type ComboLineResponse struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type ComboResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	TimeTierID      *string         `json:"time_tier_id"`
	IncludedMinutes int             `json:"included_minutes"`
	// AvailableStock is min(floor(product stock / line qty)); -1 for a
	// time-only combo, which is not stock-limited.
	AvailableStock int                 `json:"available_stock"`
	Lines          []ComboLineResponse `json:"lines"`
	Active         bool                `json:"active"`
}

// PriceCheckResponse is the payload of the public price check endpoint.
type PriceCheckResponse struct {
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	StockAvailable int             `json:"stock_available"`
}

// TimePriceResponse is the payload of the public time-price preview endpoint.
type TimePriceResponse struct {
	Minutes int             `json:"minutes"`
	Charge  decimal.Decimal `json:"charge"`
}

type TimeTierResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Minutes  int             `json:"minutes"`
	Price    decimal.Decimal `json:"price"`
	Position int             `json:"position"`
	Active   bool            `json:"active"`
}
