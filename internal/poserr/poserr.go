// Package poserr defines the typed domain errors returned by the core
// services. Every lifecycle operation rolls back its transaction and returns
// one of these; the handler layer translates them into HTTP status codes and
// the apierror envelope — the core never writes a response itself.
package poserr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NotFoundError — the referenced entity does not exist in the expected state.
type NotFoundError struct {
	Entity string // "sale", "product", "combo", "time entry", ...
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

// StockDeficit names one product that cannot cover the requested quantity.
type StockDeficit struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
	Required  int    `json:"required"`
}

// InsufficientStockError enumerates every deficient product in the cart so
// the caller can render a complete message, not just the first failure.
type InsufficientStockError struct {
	Deficits []StockDeficit
}

func (e *InsufficientStockError) Error() string {
	if len(e.Deficits) == 0 {
		return "insufficient stock"
	}
	parts := make([]string, 0, len(e.Deficits))
	for _, d := range e.Deficits {
		parts = append(parts, fmt.Sprintf("%s (have %d, need %d)", d.Name, d.Available, d.Required))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// CardInUseError — the card already has a conflicting pending sale or active
// time entry.
type CardInUseError struct {
	CardID string
	Reason string
}

func (e *CardInUseError) Error() string {
	return fmt.Sprintf("card %q already in use: %s", e.CardID, e.Reason)
}

// InvalidStateError — operation attempted against an entity in the wrong
// lifecycle state.
type InvalidStateError struct {
	Entity string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %q", e.Op, e.Entity, e.State)
}

// TotalMismatchError — the line sum disagrees with the declared total beyond
// the 0.01 tolerance.
type TotalMismatchError struct {
	Declared decimal.Decimal
	Computed decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("sale total %s does not match line sum %s",
		e.Declared.StringFixed(2), e.Computed.StringFixed(2))
}

// ConfigurationError — pricing invoked without a usable tier table.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// InvalidQuantityError — a return or movement quantity is non-positive or
// exceeds what is available.
type InvalidQuantityError struct {
	Ref       string
	Requested int
	Available int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for %s (available %d)", e.Requested, e.Ref, e.Available)
}

// SessionAlreadyOpenError — OpenSession called while a session is open.
type SessionAlreadyOpenError struct {
	SessionID string
}

func (e *SessionAlreadyOpenError) Error() string {
	return fmt.Sprintf("cash session %s is already open", e.SessionID)
}

// NoOpenSessionError — the operation needs an open cash session.
type NoOpenSessionError struct{}

func (e *NoOpenSessionError) Error() string { return "no open cash session" }
