package scheduler

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/domain/royalty"
	"github.com/inkwell/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TenantProvider provides the tenants to schedule statement runs for
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StatementRunTriggerConfig holds configuration for the daily trigger
type StatementRunTriggerConfig struct {
	// Hour and Minute are the daily fire time, parsed from the cron spec
	Hour   int
	Minute int

	// CheckInterval is how often to check whether the fire time has passed
	CheckInterval time.Duration
}

// ParseDailyCron parses a "minute hour * * *" cron spec into a trigger
// config. That is the only shape statement runs need; anything else is
// rejected rather than silently misread.
func ParseDailyCron(spec string) (StatementRunTriggerConfig, error) {
	fields := strings.Fields(spec)
	if len(fields) != 5 || fields[2] != "*" || fields[3] != "*" || fields[4] != "*" {
		return StatementRunTriggerConfig{}, ErrInvalidCronSpec
	}

	minute, err := strconv.Atoi(fields[0])
	if err != nil || minute < 0 || minute > 59 {
		return StatementRunTriggerConfig{}, ErrInvalidCronSpec
	}
	hour, err := strconv.Atoi(fields[1])
	if err != nil || hour < 0 || hour > 23 {
		return StatementRunTriggerConfig{}, ErrInvalidCronSpec
	}

	return StatementRunTriggerConfig{
		Hour:          hour,
		Minute:        minute,
		CheckInterval: time.Minute,
	}, nil
}

// PeriodRuleFromConfig builds the statement period rule from configuration
func PeriodRuleFromConfig(cfg config.RoyaltyConfig) (royalty.PeriodRule, error) {
	switch cfg.PeriodRule {
	case "fiscal_year":
		return royalty.NewFiscalYearRule(time.Month(cfg.FiscalStartMonth))
	case "custom":
		anchor, err := time.Parse("2006-01-02", cfg.CustomAnchor)
		if err != nil {
			return royalty.PeriodRule{}, err
		}
		return royalty.NewCustomAnchorRule(anchor, cfg.CustomMonths)
	default:
		return royalty.NewCalendarYearRule(), nil
	}
}

// StatementRunTrigger fires statement runs once a day at the configured
// time. Each run targets the most recently completed period, so the rerun
// after a missed day generates the same statements the missed run would
// have; the run service skips author-periods that already exist.
type StatementRunTrigger struct {
	config         StatementRunTriggerConfig
	rule           royalty.PeriodRule
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewStatementRunTrigger creates a new statement run trigger
func NewStatementRunTrigger(
	config StatementRunTriggerConfig,
	rule royalty.PeriodRule,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *StatementRunTrigger {
	if config.CheckInterval == 0 {
		config.CheckInterval = time.Minute
	}
	return &StatementRunTrigger{
		config:         config,
		rule:           rule,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start starts the trigger loop
func (t *StatementRunTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Statement run trigger started",
		zap.Int("hour", t.config.Hour),
		zap.Int("minute", t.config.Minute),
		zap.Duration("check_interval", t.config.CheckInterval),
	)

	return nil
}

// Stop stops the trigger loop
func (t *StatementRunTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Statement run trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *StatementRunTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if t.shouldRun(now) {
				t.fire(ctx, now)
			}
		}
	}
}

// shouldRun reports whether the daily fire time has passed and today's run
// has not happened yet
func (t *StatementRunTrigger) shouldRun(now time.Time) bool {
	today := now.Format("2006-01-02")

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastRunDate == today {
		return false
	}

	fireAt := time.Date(now.Year(), now.Month(), now.Day(), t.config.Hour, t.config.Minute, 0, 0, now.Location())
	return !now.Before(fireAt)
}

// fire schedules a run of the previous (completed) period for every tenant
func (t *StatementRunTrigger) fire(ctx context.Context, now time.Time) {
	current, err := t.rule.PeriodContaining(now)
	if err != nil {
		t.logger.Error("Failed to resolve statement period", zap.Error(err))
		return
	}
	period := t.rule.Previous(current)

	tenantIDs, err := t.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to list tenants for statement run", zap.Error(err))
		return
	}

	scheduled := 0
	for _, tenantID := range tenantIDs {
		if err := t.scheduler.ScheduleRun(tenantID, period); err != nil {
			t.logger.Error("Failed to schedule statement run",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		scheduled++
	}

	t.mu.Lock()
	t.lastRunDate = now.Format("2006-01-02")
	t.mu.Unlock()

	t.logger.Info("Statement runs scheduled",
		zap.Int("tenants", scheduled),
		zap.String("period", period.Label()),
	)
}
