package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder("asc"))
	assert.Equal(t, "ASC", ValidateSortOrder(" ASC "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("sideways"))
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted fields", func(t *testing.T) {
		assert.Equal(t, "statement_number", ValidateSortField("statement_number", StatementSortFields, "created_at"))
		assert.Equal(t, "period_start", ValidateSortField("period_start", StatementSortFields, "created_at"))
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		assert.Equal(t, "created_at", ValidateSortField("calculations", StatementSortFields, "created_at"))
		assert.Equal(t, "created_at", ValidateSortField("; DROP TABLE royalty_statements", StatementSortFields, "created_at"))
	})

	t.Run("empty falls back to default", func(t *testing.T) {
		assert.Equal(t, "occurred_at", ValidateSortField("", TransactionSortFields, "occurred_at"))
	})
}
