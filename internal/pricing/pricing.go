// Package pricing is the single source of truth for time billing. Every call
// site that needs to turn elapsed minutes into money goes through this
// package — the tier walk is implemented exactly once.
//
// The tier table is piecewise linear: the first tier defines a flat
// per-minute rate, and each subsequent tier defines a marginal rate over the
// previous one, so the charge is continuous at tier boundaries. Time beyond
// the last tier extrapolates at the last marginal rate.
package pricing

import (
	"math"
	"time"

	"playpos/internal/model"
	"playpos/internal/poserr"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ElapsedMinutes returns the billable minutes between entry and exit.
// Partial minutes always round UP — a started minute costs a full minute.
func ElapsedMinutes(entry, exit time.Time) int {
	d := exit.Sub(entry)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Minutes()))
}

// ValidateTiers checks that the table (already sorted by position) is usable:
// non-empty, positive minutes and prices, strictly increasing in both.
func ValidateTiers(tiers []model.TimeTier) error {
	if len(tiers) == 0 {
		return &poserr.ConfigurationError{Msg: "no active time tiers"}
	}
	for i, t := range tiers {
		if t.Minutes <= 0 || !t.Price.IsPositive() {
			return &poserr.ConfigurationError{Msg: "tier " + t.Name + " has non-positive minutes or price"}
		}
		if i > 0 && (t.Minutes <= tiers[i-1].Minutes || !t.Price.GreaterThan(tiers[i-1].Price)) {
			return &poserr.ConfigurationError{Msg: "tier table is not strictly increasing at " + t.Name}
		}
	}
	return nil
}

// ComputeCharge bills the span between entry and exit against the tier table
// and applies a percentage discount. The result is rounded to 2 decimals,
// half away from zero, and is never negative.
func ComputeCharge(entry, exit time.Time, tiers []model.TimeTier, discountPercent decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateTiers(tiers); err != nil {
		return decimal.Zero, err
	}
	charge := chargeForMinutes(ElapsedMinutes(entry, exit), tiers)
	if discountPercent.IsPositive() {
		charge = charge.Sub(charge.Mul(discountPercent).Div(hundred))
	}
	charge = charge.Round(2)
	if charge.IsNegative() {
		return decimal.Zero, nil
	}
	return charge, nil
}

// ChargeForMinutes prices a raw minute count with no discount and no
// rounding beyond 2 decimals. Backs the kiosk time-price preview.
func ChargeForMinutes(minutes int, tiers []model.TimeTier) (decimal.Decimal, error) {
	if err := ValidateTiers(tiers); err != nil {
		return decimal.Zero, err
	}
	return chargeForMinutes(minutes, tiers).Round(2), nil
}

// ExcessCharge bills minutes beyond what a combo already includes. The
// included minutes are treated as paid, and the excess is billed at the
// LAST tier's marginal rate — not a fresh tier walk from zero. This matches
// how open tabs have always been settled (included minutes are assumed to
// land within the last tier's range); see DESIGN.md.
func ExcessCharge(elapsedMinutes, includedMinutes int, tiers []model.TimeTier) (decimal.Decimal, error) {
	if err := ValidateTiers(tiers); err != nil {
		return decimal.Zero, err
	}
	excess := elapsedMinutes - includedMinutes
	if excess <= 0 {
		return decimal.Zero, nil
	}
	rate := lastMarginalRate(tiers)
	return rate.Mul(decimal.NewFromInt(int64(excess))).Round(2), nil
}

// chargeForMinutes walks the table. Callers have already validated tiers.
func chargeForMinutes(minutes int, tiers []model.TimeTier) decimal.Decimal {
	if minutes <= 0 {
		return decimal.Zero
	}
	remaining := minutes
	charge := decimal.Zero

	first := tiers[0]
	firstRate := first.Price.Div(decimal.NewFromInt(int64(first.Minutes)))
	if remaining <= first.Minutes {
		return firstRate.Mul(decimal.NewFromInt(int64(remaining)))
	}
	charge = first.Price
	remaining -= first.Minutes

	for i := 1; i < len(tiers); i++ {
		stepMinutes := tiers[i].Minutes - tiers[i-1].Minutes
		stepRate := tiers[i].Price.Sub(tiers[i-1].Price).
			Div(decimal.NewFromInt(int64(stepMinutes)))
		if remaining <= stepMinutes {
			return charge.Add(stepRate.Mul(decimal.NewFromInt(int64(remaining))))
		}
		charge = charge.Add(tiers[i].Price.Sub(tiers[i-1].Price))
		remaining -= stepMinutes
	}

	// Past the last tier: extrapolate at the last marginal rate.
	return charge.Add(lastMarginalRate(tiers).Mul(decimal.NewFromInt(int64(remaining))))
}

// lastMarginalRate is the per-minute rate between the last two tiers, or the
// first tier's flat rate when only one tier exists.
func lastMarginalRate(tiers []model.TimeTier) decimal.Decimal {
	n := len(tiers)
	if n == 1 {
		return tiers[0].Price.Div(decimal.NewFromInt(int64(tiers[0].Minutes)))
	}
	stepMinutes := tiers[n-1].Minutes - tiers[n-2].Minutes
	return tiers[n-1].Price.Sub(tiers[n-2].Price).
		Div(decimal.NewFromInt(int64(stepMinutes)))
}
