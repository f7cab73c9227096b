package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRateSpecs(t *testing.T) FormatRateSpecs {
	t.Helper()
	tiered, err := royalty.NewTieredRateSpec([]royalty.RateTier{
		{UpToUnits: int64ptr(1000), Rate: pct(10)},
		{Rate: pct(15)},
	})
	require.NoError(t, err)
	flat, err := royalty.NewFlatRateSpec(pct(25))
	require.NoError(t, err)

	return FormatRateSpecs{
		royalty.FormatPhysical: tiered,
		royalty.FormatEbook:    flat,
	}
}

func int64ptr(v int64) *int64 { return &v }

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	contract, err := NewContract(
		uuid.New(), "CTR-2026-0001", uuid.New(), uuid.New(),
		testRateSpecs(t), decimal.NewFromInt(5000),
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return contract
}

func TestNewContract(t *testing.T) {
	contract := newTestContract(t)

	assert.Equal(t, ContractStatusActive, contract.Status)
	assert.True(t, contract.RemainingAdvance().Equal(decimal.NewFromInt(5000)))

	events := contract.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeContractCreated, events[0].EventType())
}

func TestNewContract_Rejections(t *testing.T) {
	specs := testRateSpecs(t)
	effective := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewContract(uuid.New(), "", uuid.New(), uuid.New(), specs, decimal.Zero, effective)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewContract(uuid.New(), "CTR-1", uuid.Nil, uuid.New(), specs, decimal.Zero, effective)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewContract(uuid.New(), "CTR-1", uuid.New(), uuid.New(), FormatRateSpecs{}, decimal.Zero, effective)
	assert.True(t, shared.IsValidationError(err))

	_, err = NewContract(uuid.New(), "CTR-1", uuid.New(), uuid.New(), specs, decimal.NewFromInt(-1), effective)
	assert.True(t, shared.IsValidationError(err))

	// Tier monotonicity is enforced through the embedded rate spec.
	broken := FormatRateSpecs{
		royalty.FormatPhysical: {Basis: royalty.RateBasisTiered, Tiers: []royalty.RateTier{
			{UpToUnits: int64ptr(1000), Rate: pct(10)},
			{UpToUnits: int64ptr(500), Rate: pct(15)},
			{Rate: pct(20)},
		}},
	}
	_, err = NewContract(uuid.New(), "CTR-1", uuid.New(), uuid.New(), broken, decimal.Zero, effective)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NON_MONOTONIC_TIERS", de.Code)
}

func TestContract_RateSpecFor(t *testing.T) {
	contract := newTestContract(t)

	spec, err := contract.RateSpecFor(royalty.FormatPhysical)
	require.NoError(t, err)
	assert.Equal(t, royalty.RateBasisTiered, spec.Basis)

	_, err = contract.RateSpecFor(royalty.FormatAudiobook)
	require.Error(t, err)
	assert.True(t, shared.IsCalculationError(err))
}

func TestContract_RecordRecoupment(t *testing.T) {
	contract := newTestContract(t)

	require.NoError(t, contract.RecordRecoupment(decimal.NewFromInt(4000)))
	assert.True(t, contract.RemainingAdvance().Equal(decimal.NewFromInt(1000)))

	require.NoError(t, contract.RecordRecoupment(decimal.NewFromInt(1000)))
	assert.True(t, contract.RemainingAdvance().IsZero())

	// The running balance never exceeds the advance.
	err := contract.RecordRecoupment(decimal.NewFromInt(1))
	require.Error(t, err)
	assert.True(t, shared.IsDataIntegrityError(err))

	err = contract.RecordRecoupment(decimal.NewFromInt(-1))
	assert.True(t, shared.IsValidationError(err))
}

func TestContract_UpdateRateSpecs(t *testing.T) {
	contract := newTestContract(t)
	contract.ClearDomainEvents()

	flat, err := royalty.NewFlatRateSpec(pct(30))
	require.NoError(t, err)
	require.NoError(t, contract.UpdateRateSpecs(FormatRateSpecs{royalty.FormatPhysical: flat}))

	events := contract.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeContractAmended, events[0].EventType())

	assert.Error(t, contract.UpdateRateSpecs(FormatRateSpecs{}))
}

func TestContract_Terminate(t *testing.T) {
	contract := newTestContract(t)

	require.NoError(t, contract.Terminate())
	assert.Equal(t, ContractStatusTerminated, contract.Status)
	assert.NotNil(t, contract.TerminatedAt)

	assert.Error(t, contract.Terminate())
	assert.Error(t, contract.RecordRecoupment(decimal.NewFromInt(10)))
	flat, err := royalty.NewFlatRateSpec(pct(30))
	require.NoError(t, err)
	assert.Error(t, contract.UpdateRateSpecs(FormatRateSpecs{royalty.FormatPhysical: flat}))
}

func TestFormatRateSpecs_ScanValue_RoundTrip(t *testing.T) {
	specs := testRateSpecs(t)

	value, err := specs.Value()
	require.NoError(t, err)

	var decoded FormatRateSpecs
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 2)
	assert.Equal(t, royalty.RateBasisFlat, decoded[royalty.FormatEbook].Basis)
	require.NoError(t, decoded.Validate())
}
