package royalty

import (
	"fmt"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SplitCalculation marks a statement as a co-author split and records the
// apportionment context: the title's total computed royalty before
// splitting, this author's contractual ownership percentage, and the
// resulting share.
type SplitCalculation struct {
	IsSplitCalculation  bool            `json:"is_split_calculation"`
	TitleTotalRoyalty   decimal.Decimal `json:"title_total_royalty"`
	OwnershipPercentage decimal.Decimal `json:"ownership_percentage"`
	AuthorShare         decimal.Decimal `json:"author_share"`
}

// SplitByOwnership apportions a title's total royalty to one co-author by
// ownership percentage, rounded to currency precision. Single-author titles
// never call this; their statements simply omit the split context.
func SplitByOwnership(titleTotal decimal.Decimal, ownershipPercentage decimal.Decimal) (SplitCalculation, error) {
	if err := validateOwnership(ownershipPercentage); err != nil {
		return SplitCalculation{}, err
	}

	share := titleTotal.Mul(ownershipPercentage).Div(hundred).Round(valueobject.CurrencyPrecision)

	return SplitCalculation{
		IsSplitCalculation:  true,
		TitleTotalRoyalty:   titleTotal.Round(valueobject.CurrencyPrecision),
		OwnershipPercentage: ownershipPercentage,
		AuthorShare:         share,
	}, nil
}

// AllocateTitleRoyalty splits a title's total royalty across all co-authors
// at once. Shares are rounded to currency precision and the rounding
// remainder is assigned to the first-listed (primary) author, so the shares
// reconcile exactly to the total. Percentages must sum to 100.
func AllocateTitleRoyalty(titleTotal valueobject.Money, ownershipPercentages []decimal.Decimal) ([]SplitCalculation, error) {
	for _, pct := range ownershipPercentages {
		if err := validateOwnership(pct); err != nil {
			return nil, err
		}
	}

	shares, err := titleTotal.AllocateByPercentages(ownershipPercentages)
	if err != nil {
		return nil, shared.NewValidationError("INVALID_OWNERSHIP_SPLIT", err.Error())
	}

	total := titleTotal.RoundCurrency().Amount()
	result := make([]SplitCalculation, len(shares))
	for i, share := range shares {
		result[i] = SplitCalculation{
			IsSplitCalculation:  true,
			TitleTotalRoyalty:   total,
			OwnershipPercentage: ownershipPercentages[i],
			AuthorShare:         share.Amount(),
		}
	}

	return result, nil
}

func validateOwnership(pct decimal.Decimal) error {
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return shared.NewValidationError("INVALID_OWNERSHIP_PERCENTAGE", fmt.Sprintf("Ownership percentage must be in (0, 100], got %s", pct))
	}
	return nil
}
