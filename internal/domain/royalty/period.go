package royalty

import (
	"fmt"
	"time"

	"github.com/inkwell/backend/internal/domain/shared"
)

// PeriodRuleKind selects how a tenant's royalty periods are anchored
type PeriodRuleKind string

const (
	PeriodRuleCalendarYear PeriodRuleKind = "CALENDAR_YEAR"
	PeriodRuleFiscalYear   PeriodRuleKind = "FISCAL_YEAR"
	PeriodRuleCustomAnchor PeriodRuleKind = "CUSTOM_ANCHOR"
)

// IsValid checks if the kind is a known PeriodRuleKind
func (k PeriodRuleKind) IsValid() bool {
	switch k {
	case PeriodRuleCalendarYear, PeriodRuleFiscalYear, PeriodRuleCustomAnchor:
		return true
	}
	return false
}

// Period is a half-open date interval [Start, End) bounding which sales and
// returns are included in one statement cycle. Consecutive periods derived
// from the same rule are contiguous by construction.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Equal reports whether two periods cover the same interval
func (p Period) Equal(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}

// Label returns a compact human-readable label, e.g. "2026-01-01..2026-07-01"
func (p Period) Label() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// PeriodRule derives statement periods from tenant settings. LengthMonths is
// the statement cycle length (6 for semiannual, 12 for annual).
type PeriodRule struct {
	Kind             PeriodRuleKind `json:"kind"`
	FiscalStartMonth time.Month     `json:"fiscal_start_month,omitempty"`
	AnchorDate       time.Time      `json:"anchor_date,omitzero"`
	LengthMonths     int            `json:"length_months"`
}

// NewCalendarYearRule creates an annual rule anchored at January 1
func NewCalendarYearRule() PeriodRule {
	return PeriodRule{Kind: PeriodRuleCalendarYear, LengthMonths: 12}
}

// NewFiscalYearRule creates an annual rule anchored at the first day of the
// given month
func NewFiscalYearRule(startMonth time.Month) (PeriodRule, error) {
	if startMonth < time.January || startMonth > time.December {
		return PeriodRule{}, shared.NewValidationError("INVALID_FISCAL_MONTH", fmt.Sprintf("Fiscal start month %d out of range", startMonth))
	}
	return PeriodRule{Kind: PeriodRuleFiscalYear, FiscalStartMonth: startMonth, LengthMonths: 12}, nil
}

// NewCustomAnchorRule creates a rule anchored at an arbitrary date with the
// given cycle length in months
func NewCustomAnchorRule(anchor time.Time, lengthMonths int) (PeriodRule, error) {
	if anchor.IsZero() {
		return PeriodRule{}, shared.NewValidationError("MISSING_ANCHOR", "Custom anchor rule requires an anchor date")
	}
	if lengthMonths <= 0 || lengthMonths > 12 {
		return PeriodRule{}, shared.NewValidationError("INVALID_PERIOD_LENGTH", fmt.Sprintf("Period length %d months out of range (1-12)", lengthMonths))
	}
	return PeriodRule{Kind: PeriodRuleCustomAnchor, AnchorDate: anchor, LengthMonths: lengthMonths}, nil
}

// Validate checks the rule's structural invariants
func (r PeriodRule) Validate() error {
	if !r.Kind.IsValid() {
		return shared.NewValidationError("INVALID_PERIOD_RULE", fmt.Sprintf("Unknown period rule kind %q", string(r.Kind)))
	}
	if r.LengthMonths <= 0 || r.LengthMonths > 12 {
		return shared.NewValidationError("INVALID_PERIOD_LENGTH", fmt.Sprintf("Period length %d months out of range (1-12)", r.LengthMonths))
	}
	if r.Kind == PeriodRuleFiscalYear && (r.FiscalStartMonth < time.January || r.FiscalStartMonth > time.December) {
		return shared.NewValidationError("INVALID_FISCAL_MONTH", fmt.Sprintf("Fiscal start month %d out of range", r.FiscalStartMonth))
	}
	if r.Kind == PeriodRuleCustomAnchor && r.AnchorDate.IsZero() {
		return shared.NewValidationError("MISSING_ANCHOR", "Custom anchor rule requires an anchor date")
	}
	return nil
}

// anchor returns the rule's reference start date in UTC
func (r PeriodRule) anchor(reference time.Time) time.Time {
	switch r.Kind {
	case PeriodRuleFiscalYear:
		return time.Date(reference.Year(), r.FiscalStartMonth, 1, 0, 0, 0, 0, time.UTC)
	case PeriodRuleCustomAnchor:
		a := r.AnchorDate.UTC()
		return time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(reference.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// PeriodContaining derives the period that contains t. Period boundaries are
// the anchor shifted by whole multiples of LengthMonths, so consecutive
// periods never overlap and leave no gap.
func (r PeriodRule) PeriodContaining(t time.Time) (Period, error) {
	if err := r.Validate(); err != nil {
		return Period{}, err
	}

	t = t.UTC()
	anchor := r.anchor(t)

	// First approximation by whole-month distance, then correct by stepping.
	months := (t.Year()-anchor.Year())*12 + int(t.Month()-anchor.Month())
	k := months / r.LengthMonths
	if months < 0 {
		k = -((-months + r.LengthMonths - 1) / r.LengthMonths)
	}

	period := r.periodAt(anchor, k)
	for !period.Contains(t) {
		if t.Before(period.Start) {
			k--
		} else {
			k++
		}
		period = r.periodAt(anchor, k)
	}
	return period, nil
}

// Next returns the period immediately following p under this rule
func (r PeriodRule) Next(p Period) Period {
	return Period{Start: p.End, End: p.End.AddDate(0, r.LengthMonths, 0)}
}

// Previous returns the period immediately preceding p under this rule
func (r PeriodRule) Previous(p Period) Period {
	return Period{Start: p.Start.AddDate(0, -r.LengthMonths, 0), End: p.Start}
}

func (r PeriodRule) periodAt(anchor time.Time, k int) Period {
	return Period{
		Start: anchor.AddDate(0, k*r.LengthMonths, 0),
		End:   anchor.AddDate(0, (k+1)*r.LengthMonths, 0),
	}
}
