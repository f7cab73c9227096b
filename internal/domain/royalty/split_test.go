package royalty

import (
	"testing"

	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/inkwell/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByOwnership(t *testing.T) {
	split, err := SplitByOwnership(decimal.NewFromInt(3500), rate(60))
	require.NoError(t, err)

	assert.True(t, split.IsSplitCalculation)
	assert.True(t, split.TitleTotalRoyalty.Equal(decimal.NewFromInt(3500)))
	assert.True(t, split.AuthorShare.Equal(decimal.NewFromInt(2100)), "got %s", split.AuthorShare)
}

func TestSplitByOwnership_RoundsToCents(t *testing.T) {
	// 100.01 x 33.33% = 33.333333 -> 33.33
	split, err := SplitByOwnership(decimal.RequireFromString("100.01"), rate(33.33))
	require.NoError(t, err)
	assert.Equal(t, "33.33", split.AuthorShare.StringFixed(2))
}

func TestSplitByOwnership_InvalidPercentage(t *testing.T) {
	for _, pct := range []float64{0, -10, 100.01} {
		_, err := SplitByOwnership(decimal.NewFromInt(1000), decimal.NewFromFloat(pct))
		assert.True(t, shared.IsValidationError(err), "pct %v", pct)
	}
}

func TestAllocateTitleRoyalty_SharesReconcile(t *testing.T) {
	tests := []struct {
		name        string
		total       string
		percentages []float64
		wantShares  []string
	}{
		{
			name:        "even split no remainder",
			total:       "3500",
			percentages: []float64{60, 40},
			wantShares:  []string{"2100", "1400"},
		},
		{
			name:        "thirds leave a cent for the primary author",
			total:       "100",
			percentages: []float64{33.34, 33.33, 33.33},
			wantShares:  []string{"33.34", "33.33", "33.33"},
		},
		{
			name:        "negative remainder absorbed by the first share",
			total:       "0.05",
			percentages: []float64{50, 50},
			wantShares:  []string{"0.02", "0.03"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			pcts := make([]decimal.Decimal, len(tt.percentages))
			for i, p := range tt.percentages {
				pcts[i] = decimal.NewFromFloat(p)
			}

			splits, err := AllocateTitleRoyalty(valueobject.NewMoneyUSD(total), pcts)
			require.NoError(t, err)
			require.Len(t, splits, len(tt.wantShares))

			sum := decimal.Zero
			for i, split := range splits {
				assert.True(t, split.IsSplitCalculation)
				assert.True(t, split.TitleTotalRoyalty.Equal(total))
				assert.Equal(t, tt.wantShares[i], split.AuthorShare.StringFixed(2), "share %d", i)
				sum = sum.Add(split.AuthorShare)
			}
			assert.True(t, sum.Equal(total), "shares sum %s != total %s", sum, total)
		})
	}
}

func TestAllocateTitleRoyalty_PercentagesMustSumTo100(t *testing.T) {
	_, err := AllocateTitleRoyalty(valueobject.NewMoneyUSD(decimal.NewFromInt(1000)),
		[]decimal.Decimal{rate(60), rate(30)})
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))

	_, err = AllocateTitleRoyalty(valueobject.NewMoneyUSD(decimal.NewFromInt(1000)),
		[]decimal.Decimal{rate(60), rate(50)})
	assert.True(t, shared.IsValidationError(err))
}

func TestAllocateTitleRoyalty_RejectsNonPositiveOwnership(t *testing.T) {
	_, err := AllocateTitleRoyalty(valueobject.NewMoneyUSD(decimal.NewFromInt(1000)),
		[]decimal.Decimal{rate(100), rate(0)})
	assert.True(t, shared.IsValidationError(err))
}
