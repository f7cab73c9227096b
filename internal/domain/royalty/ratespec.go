package royalty

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RateBasis represents the kind of royalty rate table a contract carries
type RateBasis string

const (
	// RateBasisFlat applies a single rate to every unit sold in the period
	RateBasisFlat RateBasis = "FLAT"
	// RateBasisTiered assigns the period's units to quantity tiers starting
	// from zero each period
	RateBasisTiered RateBasis = "TIERED"
	// RateBasisLifetimeTiered assigns the period's units to quantity tiers as
	// a continuation of all prior cumulative sales
	RateBasisLifetimeTiered RateBasis = "LIFETIME_TIERED"
)

// IsValid checks if the basis is a known RateBasis
func (b RateBasis) IsValid() bool {
	switch b {
	case RateBasisFlat, RateBasisTiered, RateBasisLifetimeTiered:
		return true
	}
	return false
}

// String returns the string representation of the rate basis
func (b RateBasis) String() string {
	return string(b)
}

// UsesTiers returns true if the basis resolves rates through a tier table
func (b RateBasis) UsesTiers() bool {
	return b == RateBasisTiered || b == RateBasisLifetimeTiered
}

// RateTier is one quantity band of a tiered rate table. UpToUnits is the
// exclusive cumulative upper bound of the band; nil marks the open-ended
// final tier. Rate is a percentage of net revenue (10 means 10%).
type RateTier struct {
	UpToUnits *int64          `json:"up_to_units,omitempty"`
	Rate      decimal.Decimal `json:"rate"`
}

// IsOpenEnded returns true if the tier has no upper bound
func (t RateTier) IsOpenEnded() bool {
	return t.UpToUnits == nil
}

// RateSpec is a contract's royalty rate specification: a flat percentage or
// an ascending tier table walked per period or over lifetime sales.
type RateSpec struct {
	Basis RateBasis       `json:"basis"`
	Rate  decimal.Decimal `json:"rate,omitzero"`
	Tiers []RateTier      `json:"tiers,omitempty"`
}

// NewFlatRateSpec creates a flat rate specification
func NewFlatRateSpec(rate decimal.Decimal) (RateSpec, error) {
	spec := RateSpec{Basis: RateBasisFlat, Rate: rate}
	if err := spec.Validate(); err != nil {
		return RateSpec{}, err
	}
	return spec, nil
}

// NewTieredRateSpec creates a period-tiered rate specification
func NewTieredRateSpec(tiers []RateTier) (RateSpec, error) {
	spec := RateSpec{Basis: RateBasisTiered, Tiers: tiers}
	if err := spec.Validate(); err != nil {
		return RateSpec{}, err
	}
	return spec, nil
}

// NewLifetimeTieredRateSpec creates a lifetime-cumulative-tiered rate
// specification
func NewLifetimeTieredRateSpec(tiers []RateTier) (RateSpec, error) {
	spec := RateSpec{Basis: RateBasisLifetimeTiered, Tiers: tiers}
	if err := spec.Validate(); err != nil {
		return RateSpec{}, err
	}
	return spec, nil
}

var hundred = decimal.NewFromInt(100)

// Validate checks the structural invariants of the rate specification:
// rates within [0, 100], tier bounds strictly increasing, and exactly one
// open-ended final tier.
func (s RateSpec) Validate() error {
	if !s.Basis.IsValid() {
		return shared.NewValidationError("INVALID_RATE_BASIS", fmt.Sprintf("Unknown rate basis %q", string(s.Basis)))
	}

	if s.Basis == RateBasisFlat {
		if len(s.Tiers) > 0 {
			return shared.NewValidationError("UNEXPECTED_TIERS", "Flat rate spec cannot carry a tier table")
		}
		if !validRate(s.Rate) {
			return shared.NewValidationError("INVALID_RATE", fmt.Sprintf("Rate %s outside [0, 100]", s.Rate))
		}
		return nil
	}

	if len(s.Tiers) == 0 {
		return shared.NewValidationError("MISSING_TIERS", "Tiered rate spec requires at least one tier")
	}

	var prevBound *int64
	for i, tier := range s.Tiers {
		if !validRate(tier.Rate) {
			return shared.NewValidationError("INVALID_RATE", fmt.Sprintf("Tier %d rate %s outside [0, 100]", i, tier.Rate))
		}

		last := i == len(s.Tiers)-1
		if last {
			if !tier.IsOpenEnded() {
				return shared.NewValidationError("BOUNDED_FINAL_TIER", "Final tier must be open-ended")
			}
			continue
		}
		if tier.IsOpenEnded() {
			return shared.NewValidationError("OPEN_INNER_TIER", fmt.Sprintf("Tier %d has no upper bound but is not the final tier", i))
		}
		if *tier.UpToUnits <= 0 {
			return shared.NewValidationError("INVALID_TIER_BOUND", fmt.Sprintf("Tier %d upper bound must be positive", i))
		}
		if prevBound != nil && *tier.UpToUnits <= *prevBound {
			return shared.NewValidationError("NON_MONOTONIC_TIERS", fmt.Sprintf("Tier %d upper bound %d does not exceed previous bound %d", i, *tier.UpToUnits, *prevBound))
		}
		prevBound = tier.UpToUnits
	}

	return nil
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// Value implements driver.Valuer so the spec can be stored as a JSONB column
func (s RateSpec) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading the spec back from JSONB
func (s *RateSpec) Scan(value interface{}) error {
	if value == nil {
		*s = RateSpec{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan RateSpec: unsupported type")
	}

	if len(bytes) == 0 {
		*s = RateSpec{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}
