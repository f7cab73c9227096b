package royalty

import (
	"fmt"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AppliedTier records one tier's contribution to a period's royalty. Bounds
// are cumulative unit positions; for flat rates a single synthetic band
// covering the period's units is recorded.
type AppliedTier struct {
	FromUnits int64           `json:"from_units"`
	ToUnits   int64           `json:"to_units"`
	Units     int64           `json:"units"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
}

// RoyaltyResult is the outcome of resolving a rate spec against a period's
// unit count. Amount is the sum of per-tier amounts, each already rounded to
// currency precision.
type RoyaltyResult struct {
	Amount       decimal.Decimal `json:"amount"`
	AppliedTiers []AppliedTier   `json:"applied_tiers"`
}

// ComputeRoyalty resolves the applicable rate(s) for unitsSold at unitPrice
// under spec and returns the royalty owed for the period.
//
// For RateBasisLifetimeTiered, lifetimeUnitsBefore shifts the starting
// offset into the tier table so the period's units continue the title's
// cumulative sales; for the other bases it is ignored. Splitting a unit
// count across two consecutive calls (threading the offset) yields the same
// total as a single call with the combined count.
func ComputeRoyalty(spec RateSpec, unitsSold int64, unitPrice valueobject.Money, lifetimeUnitsBefore int64) (RoyaltyResult, error) {
	if err := spec.Validate(); err != nil {
		return RoyaltyResult{}, err
	}
	if unitsSold < 0 {
		return RoyaltyResult{}, shared.NewValidationError("NEGATIVE_UNITS", fmt.Sprintf("Units sold cannot be negative, got %d", unitsSold))
	}
	if lifetimeUnitsBefore < 0 {
		return RoyaltyResult{}, shared.NewValidationError("NEGATIVE_LIFETIME_UNITS", fmt.Sprintf("Lifetime units cannot be negative, got %d", lifetimeUnitsBefore))
	}
	if unitPrice.IsNegative() {
		return RoyaltyResult{}, shared.NewValidationError("NEGATIVE_UNIT_PRICE", "Unit price cannot be negative")
	}

	// Zero units sold is a valid statement line, not an error.
	if unitsSold == 0 {
		return RoyaltyResult{Amount: decimal.Zero, AppliedTiers: []AppliedTier{}}, nil
	}

	if spec.Basis == RateBasisFlat {
		amount := tierAmount(unitsSold, unitPrice, spec.Rate)
		return RoyaltyResult{
			Amount: amount,
			AppliedTiers: []AppliedTier{{
				FromUnits: 0,
				ToUnits:   unitsSold,
				Units:     unitsSold,
				Rate:      spec.Rate,
				Amount:    amount,
			}},
		}, nil
	}

	offset := int64(0)
	if spec.Basis == RateBasisLifetimeTiered {
		offset = lifetimeUnitsBefore
	}

	return walkTiers(spec.Tiers, unitsSold, unitPrice, offset), nil
}

// walkTiers assigns units to ascending tiers starting at the cumulative
// offset. The caller has validated the tier table, so the final tier is
// guaranteed to absorb any remainder.
func walkTiers(tiers []RateTier, units int64, unitPrice valueobject.Money, offset int64) RoyaltyResult {
	position := offset
	remaining := units
	total := decimal.Zero
	applied := make([]AppliedTier, 0, len(tiers))

	for _, tier := range tiers {
		if remaining == 0 {
			break
		}

		consume := remaining
		if !tier.IsOpenEnded() {
			capacity := *tier.UpToUnits - position
			if capacity <= 0 {
				// Prior sales already exhausted this band.
				continue
			}
			if consume > capacity {
				consume = capacity
			}
		}

		amount := tierAmount(consume, unitPrice, tier.Rate)
		applied = append(applied, AppliedTier{
			FromUnits: position,
			ToUnits:   position + consume,
			Units:     consume,
			Rate:      tier.Rate,
			Amount:    amount,
		})
		total = total.Add(amount)
		position += consume
		remaining -= consume
	}

	return RoyaltyResult{Amount: total, AppliedTiers: applied}
}

// tierAmount computes units x unitPrice x rate%, rounded to currency
// precision. Rounding happens per tier, before summation.
func tierAmount(units int64, unitPrice valueobject.Money, rate decimal.Decimal) decimal.Decimal {
	return unitPrice.Amount().
		Mul(decimal.NewFromInt(units)).
		Mul(rate).
		Div(hundred).
		Round(valueobject.CurrencyPrecision)
}
