package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/Rmontilla83/saldobirras-pro/internal/application/catalog"
	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/identity"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/auth"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/cache"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/config"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/event"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/logger"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/handler"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/middleware"
	"github.com/Rmontilla83/saldobirras-pro/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			SaldoBirras Ledger API
//	@version		1.0
//	@description	Prepaid balance ledger and order fulfillment for bars and venues

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	ctx := context.Background()

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	logCfg.ExtraCores = []zapcore.Core{
		telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, logsProvider, logger.ParseLevel(cfg.Log.Level)),
	}
	log, err := logger.New(logCfg)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ledger server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationTag,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracer.EnableSpanProfiles()
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	meter := meters.Meter("saldobirras")
	var dbMeter metric.Meter
	if meters.IsEnabled() {
		dbMeter = meter
	}
	dbPlugin, err := telemetry.NewDBPlugin(telemetry.DBConfig{
		TraceEnabled:       cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:         cfg.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		Meter:              dbMeter,
	}, log)
	if err != nil {
		log.Fatal("Failed to create database telemetry", zap.Error(err))
	}
	if err := db.DB.Use(dbPlugin); err != nil {
		log.Fatal("Failed to register database telemetry", zap.Error(err))
	}
	log.Info("Database connected")

	// Post-commit notifications
	bus := event.NewInMemoryEventBus(log, event.WithAsync(cfg.Event.Async))
	logNotifier := event.NewLogNotifier(log)
	bus.Subscribe(logNotifier, logNotifier.EventTypes()...)
	if cfg.Redis.Enabled && cfg.Event.RedisNotifications {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis notifications disabled", zap.Error(err))
		} else {
			defer client.Close()
			notifier := event.NewRedisNotifier(client, cfg.Event.NotificationChannel)
			bus.Subscribe(notifier, notifier.EventTypes()...)
		}
	}

	var guard *appledger.IdempotencyGuard
	if cfg.Idempotency.Enabled {
		idem, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer idem.Close()
		guard = appledger.NewIdempotencyGuard(idem, cfg.Idempotency.TTL).WithLogger(log)
	}

	// Repositories and services
	scope := persistence.NewGormTransactionScope(db.DB)
	customers := persistence.NewGormCustomerRepository(db.DB)
	transactions := persistence.NewGormTransactionRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	zones := persistence.NewGormZoneRepository(db.DB)

	store := appledger.NewStore()
	holds := appledger.NewHoldManager(log)
	processor := appledger.NewProcessor(scope, store, bus, guard, log)
	customerSvc := appledger.NewCustomerService(scope, customers, transactions, store, bus, log)
	fulfillment := apporder.NewFulfillmentService(scope, orders, processor, holds, bus, guard, log)
	catalogSvc := appcatalog.NewService(scope, products, zones)
	reports := report.NewService(customers, transactions, orders, report.Config{
		LowBalanceMoney: decimal.RequireFromString(cfg.Ledger.LowBalanceMoney),
		LowBalanceUnits: decimal.RequireFromString(cfg.Ledger.LowBalanceUnits),
		ExportMaxRows:   cfg.Ledger.ExportMaxRows,
	}, log)

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	if meters.IsEnabled() {
		ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
			Meter:        meter,
			Logger:       log,
			HoldProvider: persistence.NewGormHoldMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create ledger metrics", zap.Error(err))
		}
		processor.SetLedgerMetrics(ledgerMetrics)
		holds.SetLedgerMetrics(ledgerMetrics)
		fulfillment.SetLedgerMetrics(ledgerMetrics)
		ledgerMetrics.StartPeriodicCollection(metricsCtx, 0)
		defer ledgerMetrics.Stop()
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	engine, err := router.New(router.Deps{
		HTTP:          cfg.HTTP,
		Telemetry:     cfg.Telemetry,
		ProfileRoutes: profiler.IsEnabled(),
		Logger:        log,
		Tokens:        auth.NewJWTService(cfg.JWT),
		Policy:        identity.NewPolicy(),
		Meter:         meters,
		PortalLimiter: limiter,
	}, router.Handlers{
		Transactions: handler.NewTransactionHandler(processor, customerSvc),
		Customers:    handler.NewCustomerHandler(customerSvc, reports),
		Orders:       handler.NewOrderHandler(fulfillment),
		Catalog:      handler.NewCatalogHandler(catalogSvc),
		Reports:      handler.NewReportHandler(reports),
		Portal:       handler.NewPortalHandler(customerSvc, catalogSvc, fulfillment),
		Health:       handler.NewHealthHandler(db),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := meters.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Log provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
