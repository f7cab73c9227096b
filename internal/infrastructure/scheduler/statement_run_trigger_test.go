package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTenantProvider struct {
	ids []uuid.UUID
}

func (p *staticTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	return p.ids, nil
}

func TestParseDailyCron(t *testing.T) {
	t.Run("parses daily spec", func(t *testing.T) {
		cfg, err := ParseDailyCron("0 3 * * *")
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Hour)
		assert.Equal(t, 0, cfg.Minute)
	})

	t.Run("parses non-zero minute", func(t *testing.T) {
		cfg, err := ParseDailyCron("30 23 * * *")
		require.NoError(t, err)
		assert.Equal(t, 23, cfg.Hour)
		assert.Equal(t, 30, cfg.Minute)
	})

	t.Run("rejects non-daily specs", func(t *testing.T) {
		for _, spec := range []string{
			"0 3 * * 1",
			"0 3 1 * *",
			"*/5 * * * *",
			"61 3 * * *",
			"0 24 * * *",
			"not a cron",
		} {
			_, err := ParseDailyCron(spec)
			assert.ErrorIs(t, err, ErrInvalidCronSpec, spec)
		}
	})
}

func TestPeriodRuleFromConfig(t *testing.T) {
	t.Run("calendar year default", func(t *testing.T) {
		rule, err := PeriodRuleFromConfig(config.RoyaltyConfig{PeriodRule: "calendar_year"})
		require.NoError(t, err)
		assert.Equal(t, royalty.PeriodRuleCalendarYear, rule.Kind)
	})

	t.Run("fiscal year", func(t *testing.T) {
		rule, err := PeriodRuleFromConfig(config.RoyaltyConfig{PeriodRule: "fiscal_year", FiscalStartMonth: 4})
		require.NoError(t, err)
		assert.Equal(t, royalty.PeriodRuleFiscalYear, rule.Kind)
		assert.Equal(t, time.April, rule.FiscalStartMonth)
	})

	t.Run("custom anchor", func(t *testing.T) {
		rule, err := PeriodRuleFromConfig(config.RoyaltyConfig{
			PeriodRule:   "custom",
			CustomAnchor: "2024-03-15",
			CustomMonths: 6,
		})
		require.NoError(t, err)
		assert.Equal(t, royalty.PeriodRuleCustomAnchor, rule.Kind)
		assert.Equal(t, 6, rule.LengthMonths)
	})

	t.Run("bad anchor date", func(t *testing.T) {
		_, err := PeriodRuleFromConfig(config.RoyaltyConfig{
			PeriodRule:   "custom",
			CustomAnchor: "soon",
			CustomMonths: 6,
		})
		assert.Error(t, err)
	})
}

func TestStatementRunTrigger_ShouldRun(t *testing.T) {
	trigger := NewStatementRunTrigger(
		StatementRunTriggerConfig{Hour: 3, Minute: 0, CheckInterval: time.Minute},
		royalty.NewCalendarYearRule(),
		nil,
		&staticTenantProvider{},
		zap.NewNop(),
	)

	before := time.Date(2026, 8, 25, 2, 59, 0, 0, time.UTC)
	after := time.Date(2026, 8, 25, 3, 1, 0, 0, time.UTC)

	assert.False(t, trigger.shouldRun(before))
	assert.True(t, trigger.shouldRun(after))

	// Once fired, the same day never fires again
	trigger.lastRunDate = after.Format("2006-01-02")
	assert.False(t, trigger.shouldRun(after))

	nextDay := after.AddDate(0, 0, 1)
	assert.True(t, trigger.shouldRun(nextDay))
}

func TestStatementRunTrigger_Fire_SchedulesPreviousPeriod(t *testing.T) {
	executor := newRecordingExecutor(2)
	sched := NewScheduler(DefaultConfig(), executor, zap.NewNop())
	require.NoError(t, sched.Start(context.Background()))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sched.Stop(ctx)
	}()

	tenants := &staticTenantProvider{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	trigger := NewStatementRunTrigger(
		StatementRunTriggerConfig{Hour: 3, Minute: 0, CheckInterval: time.Minute},
		royalty.NewCalendarYearRule(),
		sched,
		tenants,
		zap.NewNop(),
	)

	now := time.Date(2026, 8, 25, 3, 5, 0, 0, time.UTC)
	trigger.fire(context.Background(), now)

	waitFor(t, executor.done)
	waitFor(t, executor.done)

	require.Equal(t, 2, executor.count())
	// August 2026 sits in calendar year 2026; the completed period is 2025
	expectedStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, executor.executed[0].Period.Start.Equal(expectedStart))
	assert.Equal(t, now.Format("2006-01-02"), trigger.lastRunDate)
}
