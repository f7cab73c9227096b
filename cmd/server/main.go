package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/inkwell/backend/internal/application/catalog"
	eventapp "github.com/inkwell/backend/internal/application/event"
	royaltyapp "github.com/inkwell/backend/internal/application/royalty"
	salesapp "github.com/inkwell/backend/internal/application/sales"
	webhookapp "github.com/inkwell/backend/internal/application/webhook"
	"github.com/inkwell/backend/internal/infrastructure/cache"
	"github.com/inkwell/backend/internal/infrastructure/config"
	"github.com/inkwell/backend/internal/infrastructure/event"
	"github.com/inkwell/backend/internal/infrastructure/logger"
	"github.com/inkwell/backend/internal/infrastructure/persistence"
	"github.com/inkwell/backend/internal/infrastructure/scheduler"
	"github.com/inkwell/backend/internal/infrastructure/storage"
	"github.com/inkwell/backend/internal/infrastructure/telemetry"
	"github.com/inkwell/backend/internal/interfaces/http/handler"
	"github.com/inkwell/backend/internal/interfaces/http/middleware"
	"github.com/inkwell/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is stamped at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Inkwell backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Tracing. A disabled config yields a no-op provider, so the rest of the
	// wiring never has to check.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled
	if err := telemetry.RegisterDBTracing(db.DB, dbTracingCfg, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	titleRepo := persistence.NewGormTitleRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	blockRepo := persistence.NewGormISBNBlockRepository(db.DB)
	txnRepo := persistence.NewGormTransactionRepository(db.DB)
	statementRepo := persistence.NewGormStatementRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	deliveryRepo := persistence.NewGormDeliveryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Domain events ride the same transaction as the aggregate write and
	// reach the bus through the outbox processor.
	eventSerializer := event.NewRegisteredSerializer()
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	titleRepo.SetOutboxEventSaver(outboxPublisher)
	contractRepo.SetOutboxEventSaver(outboxPublisher)
	blockRepo.SetOutboxEventSaver(outboxPublisher)
	statementRepo.SetOutboxEventSaver(outboxPublisher)

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Statement artifact storage
	var docStorage royaltyapp.DocumentStorage
	if cfg.Storage.Driver == "s3" {
		s3Store, err := storage.NewS3DocumentStorage(cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		docStorage = s3Store
	} else {
		log.Warn("Using in-memory document storage; archived statements do not survive restarts")
		docStorage = storage.NewStubDocumentStorage()
	}

	// Application services
	poolService := catalogapp.NewISBNPoolService(blockRepo, log)
	catalogService := catalogapp.NewCatalogService(titleRepo, contractRepo, poolService, log)
	salesService := salesapp.NewSalesService(txnRepo, titleRepo, log)
	runService := royaltyapp.NewStatementRunService(
		statementRepo, contractRepo, titleRepo, txnRepo, txnRepo, idempotencyStore, log,
	)
	archiveService := royaltyapp.NewStatementArchiveService(statementRepo, docStorage, cfg.Storage.KeyPrefix, log)
	taxService := royaltyapp.NewTaxReportService(statementRepo, log)
	subscriptionService := webhookapp.NewSubscriptionService(subscriptionRepo, log)
	dispatcher := webhookapp.NewDispatcher(subscriptionRepo, deliveryRepo, idempotencyStore, cfg.Webhook.ServerSecret, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Event bus. The webhook bridge subscribes to every event type and fans
	// matching ones out to subscriptions; the idempotent wrapper keeps
	// redelivered outbox entries from creating duplicate webhook deliveries.
	eventBus := event.NewInMemoryEventBus(log)
	bridge := webhookapp.NewEventBridge(dispatcher, log)
	eventBus.Subscribe(event.NewIdempotentHandler(bridge, idempotencyStore, log))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		processorConfig.BatchSize = cfg.Event.BatchSize
		processorConfig.PollInterval = cfg.Event.PollInterval
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		processorConfig.CleanupRetention = cfg.Event.CleanupRetention

		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
	}

	// Statement run scheduler: a daily trigger enqueues one job per active
	// tenant, the worker pool runs them with timeout and retry.
	if cfg.Scheduler.Enabled {
		triggerConfig, err := scheduler.ParseDailyCron(cfg.Scheduler.StatementRunCron)
		if err != nil {
			log.Fatal("Invalid statement run cron", zap.String("cron", cfg.Scheduler.StatementRunCron), zap.Error(err))
		}
		periodRule, err := scheduler.PeriodRuleFromConfig(cfg.Royalty)
		if err != nil {
			log.Fatal("Invalid royalty period configuration", zap.Error(err))
		}

		schedulerConfig := scheduler.DefaultConfig()
		schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout

		executor := scheduler.NewStatementRunExecutor(runService, log)
		runScheduler := scheduler.NewScheduler(schedulerConfig, executor, log)
		if err := runScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := runScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		tenantProvider := persistence.NewGormTenantProvider(db.DB)
		trigger := scheduler.NewStatementRunTrigger(triggerConfig, periodRule, runScheduler, tenantProvider, log)
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start statement run trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping statement run trigger", zap.Error(err))
			}
		}()
		log.Info("Statement run scheduler started",
			zap.String("cron", cfg.Scheduler.StatementRunCron),
			zap.Int("max_concurrent_jobs", schedulerConfig.MaxConcurrentJobs),
		)
	}

	// Background sweepers: resume interrupted ISBN generation, drain due
	// webhook deliveries.
	resumeSweeper := scheduler.NewISBNResumeSweeper(poolService, cfg.ISBN, log)
	if err := resumeSweeper.Start(ctx); err != nil {
		log.Fatal("Failed to start ISBN resume sweeper", zap.Error(err))
	}
	defer func() {
		if err := resumeSweeper.Stop(context.Background()); err != nil {
			log.Error("Error stopping ISBN resume sweeper", zap.Error(err))
		}
	}()

	dispatchWorker := scheduler.NewWebhookDispatchWorker(dispatcher, cfg.Webhook, log)
	if err := dispatchWorker.Start(ctx); err != nil {
		log.Fatal("Failed to start webhook dispatch worker", zap.Error(err))
	}
	defer func() {
		if err := dispatchWorker.Stop(context.Background()); err != nil {
			log.Error("Error stopping webhook dispatch worker", zap.Error(err))
		}
	}()

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
	}
	engine.Use(middleware.RequireTenant())

	healthHandler := handler.NewHealthHandler(db.DB, version)
	healthHandler.RegisterRoutes(engine)

	router.New(engine).Register(
		handler.NewTitleHandler(catalogService, titleRepo),
		handler.NewContractHandler(catalogService, contractRepo),
		handler.NewISBNHandler(poolService, blockRepo),
		handler.NewSalesHandler(salesService, txnRepo),
		handler.NewStatementHandler(runService, archiveService, taxService, statementRepo),
		handler.NewWebhookHandler(subscriptionService, dispatcher, subscriptionRepo, deliveryRepo),
		handler.NewOutboxHandler(outboxService),
	).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
