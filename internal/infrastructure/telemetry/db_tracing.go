package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls the GORM tracing plugin.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL includes query variables in span attributes. Keep off in
	// production: statements carry tenant data.
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
}

// DefaultDBTracingConfig returns the tracing defaults: disabled, variables
// redacted, 200ms slow-query threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
	}
}

// RegisterDBTracing attaches the otelgorm plugin so every repository query
// becomes a child span of the request trace, plus callbacks that record row
// counts, mark errors, and flag queries over the slow threshold.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	t := &dbTracing{threshold: cfg.SlowQueryThreshold}
	if err := t.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

type dbTracing struct {
	threshold time.Duration
}

type queryStartKey struct{}

func (t *dbTracing) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (t *dbTracing) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	// ErrRecordNotFound is an expected lookup outcome, not a span error
	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > t.threshold {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", t.threshold.Milliseconds()),
			))
		}
	}
}

func (t *dbTracing) register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("db_tracing:before_create", t.before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("db_tracing:before_query", t.before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("db_tracing:before_update", t.before); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("db_tracing:before_delete", t.before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("db_tracing:before_row", t.before); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("db_tracing:before_raw", t.before); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("db_tracing:after_create", t.after); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("db_tracing:after_query", t.after); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("db_tracing:after_update", t.after); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("db_tracing:after_delete", t.after); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("db_tracing:after_row", t.after); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("db_tracing:after_raw", t.after)
}
