package telemetry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTracingTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestRegisterDBTracing(t *testing.T) {
	db, mock := newTracingTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	// The timing callbacks are installed alongside the otelgorm plugin
	assert.NotNil(t, db.Callback().Query().Get("db_tracing:after_query"))
	assert.NotNil(t, db.Callback().Raw().Get("db_tracing:before_raw"))

	// A traced statement still executes normally
	mock.ExpectExec("UPDATE titles").WillReturnResult(sqlmock.NewResult(0, 1))
	err := db.WithContext(context.Background()).Exec("UPDATE titles SET status = ?", "ACTIVE").Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db, _ := newTracingTestDB(t)

	require.NoError(t, RegisterDBTracing(db, DefaultDBTracingConfig(), zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("db_tracing:after_query"))
}
