package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestNewGormLogger(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLoggerWithOptions(t *testing.T) {
	gormLog, _ := newObservedGormLogger(
		gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)
	changed := gormLog.LogMode(gormlogger.Warn)

	// Original should be unchanged
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)

	changedGormLog, ok := changed.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, changedGormLog.logLevel)
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM statements", 0
	}, errors.New("connection refused"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	assert.Equal(t, "SQL Error", logs[0].Message)
}

func TestGormLogger_Trace_IgnoresRecordNotFound(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM statements WHERE id = ?", 0
	}, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))

	begin := time.Now().Add(-time.Second)
	gormLog.Trace(context.Background(), begin, func() (string, int64) {
		return "SELECT * FROM sales_transactions", 1500
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Contains(t, logs[0].Message, "SLOW SQL")
}

func TestGormLogger_Trace_IncludesRequestID(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)

	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-42")
	gormLog.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Silent)

	gormLog.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))

	assert.Empty(t, recorded.All())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
