package sales

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

var testDate = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func TestNewSale(t *testing.T) {
	sale, err := NewSale(uuid.New(), uuid.New(), royalty.FormatPhysical, 25, decimal.NewFromFloat(499.75), "retail", testDate)
	require.NoError(t, err)

	assert.Equal(t, TransactionTypeSale, sale.Type)
	assert.Equal(t, int64(25), sale.Units)
	assert.Empty(t, sale.ReturnStatus)

	events := sale.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeTransactionRecorded, events[0].EventType())
}

func TestNewTransaction_Rejections(t *testing.T) {
	tenantID, titleID := uuid.New(), uuid.New()

	tests := []struct {
		name string
		run  func() error
	}{
		{"nil title", func() error {
			_, err := NewSale(tenantID, uuid.Nil, royalty.FormatPhysical, 1, decimal.NewFromInt(10), "", testDate)
			return err
		}},
		{"unknown format", func() error {
			_, err := NewSale(tenantID, titleID, royalty.Format("VINYL"), 1, decimal.NewFromInt(10), "", testDate)
			return err
		}},
		{"zero units", func() error {
			_, err := NewSale(tenantID, titleID, royalty.FormatPhysical, 0, decimal.NewFromInt(10), "", testDate)
			return err
		}},
		{"negative revenue", func() error {
			_, err := NewReturn(tenantID, titleID, royalty.FormatPhysical, 1, decimal.NewFromInt(-10), "", testDate)
			return err
		}},
		{"zero date", func() error {
			_, err := NewSale(tenantID, titleID, royalty.FormatPhysical, 1, decimal.NewFromInt(10), "", time.Time{})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, shared.IsValidationError(tt.run()))
		})
	}
}

func TestReturn_ApprovalFlow(t *testing.T) {
	ret, err := NewReturn(uuid.New(), uuid.New(), royalty.FormatEbook, 5, decimal.NewFromFloat(49.95), "direct", testDate)
	require.NoError(t, err)
	ret.ClearDomainEvents()

	assert.Equal(t, ReturnStatusPending, ret.ReturnStatus)

	require.NoError(t, ret.ApproveReturn())
	assert.Equal(t, ReturnStatusApproved, ret.ReturnStatus)
	assert.NotNil(t, ret.ReviewedAt)

	events := ret.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeReturnApproved, events[0].EventType())

	// Review decisions are final.
	assert.Error(t, ret.ApproveReturn())
	assert.Error(t, ret.RejectReturn())
}

func TestReturn_Reject(t *testing.T) {
	ret, err := NewReturn(uuid.New(), uuid.New(), royalty.FormatEbook, 5, decimal.NewFromFloat(49.95), "direct", testDate)
	require.NoError(t, err)

	require.NoError(t, ret.RejectReturn())
	assert.Equal(t, ReturnStatusRejected, ret.ReturnStatus)
	assert.Error(t, ret.ApproveReturn())
}

func TestSale_CannotBeReviewed(t *testing.T) {
	sale, err := NewSale(uuid.New(), uuid.New(), royalty.FormatPhysical, 1, decimal.NewFromInt(20), "", testDate)
	require.NoError(t, err)

	assert.Error(t, sale.ApproveReturn())
	assert.Error(t, sale.RejectReturn())
}
