package royalty

import (
	"fmt"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RecoupmentRecord is the advance recoupment waterfall for one statement
// period. All inputs are explicit and immutable; the caller persists
// RemainingAdvance as the next period's previously-recouped fact rather than
// mutating any running balance in place.
type RecoupmentRecord struct {
	OriginalAdvance      decimal.Decimal `json:"original_advance"`
	PreviouslyRecouped   decimal.Decimal `json:"previously_recouped"`
	ThisPeriodRecoupment decimal.Decimal `json:"this_period_recoupment"`
	RemainingAdvance     decimal.Decimal `json:"remaining_advance"`
	NetPayable           decimal.Decimal `json:"net_payable"`
}

// FullyRecouped returns true once no advance balance remains
func (r RecoupmentRecord) FullyRecouped() bool {
	return r.RemainingAdvance.IsZero()
}

// ApplyRecoupment withholds the recoupable portion of the period's gross
// royalty against the outstanding advance balance.
//
// Recoupment is capped at min(grossRoyalty, remaining advance); whatever is
// not withheld flows to NetPayable. A previously-recouped figure exceeding
// the original advance is a broken ledger, reported as a data integrity
// error rather than clamped.
func ApplyRecoupment(grossRoyalty, previouslyRecouped, originalAdvance decimal.Decimal) (RecoupmentRecord, error) {
	if grossRoyalty.IsNegative() {
		return RecoupmentRecord{}, shared.NewValidationError("NEGATIVE_GROSS_ROYALTY", "Gross royalty cannot be negative")
	}
	if originalAdvance.IsNegative() {
		return RecoupmentRecord{}, shared.NewValidationError("NEGATIVE_ADVANCE", "Original advance cannot be negative")
	}
	if previouslyRecouped.IsNegative() {
		return RecoupmentRecord{}, shared.NewValidationError("NEGATIVE_RECOUPED", "Previously recouped amount cannot be negative")
	}
	if previouslyRecouped.GreaterThan(originalAdvance) {
		return RecoupmentRecord{}, shared.NewDataIntegrityError(
			"RECOUPMENT_EXCEEDS_ADVANCE",
			fmt.Sprintf("Previously recouped %s exceeds original advance %s", previouslyRecouped, originalAdvance),
		)
	}

	remainingBefore := originalAdvance.Sub(previouslyRecouped)

	recoupment := grossRoyalty
	if remainingBefore.LessThan(recoupment) {
		recoupment = remainingBefore
	}

	return RecoupmentRecord{
		OriginalAdvance:      originalAdvance.Round(valueobject.CurrencyPrecision),
		PreviouslyRecouped:   previouslyRecouped.Round(valueobject.CurrencyPrecision),
		ThisPeriodRecoupment: recoupment.Round(valueobject.CurrencyPrecision),
		RemainingAdvance:     remainingBefore.Sub(recoupment).Round(valueobject.CurrencyPrecision),
		NetPayable:           grossRoyalty.Sub(recoupment).Round(valueobject.CurrencyPrecision),
	}, nil
}
