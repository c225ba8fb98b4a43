package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures database spans, query metrics and slow query logging
type DBConfig struct {
	TraceEnabled       bool
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	// Meter enables query duration and pool metrics when non-nil.
	Meter metric.Meter
}

const startedAtKey = "sb:telemetry:started_at"

// DBPlugin is a gorm plugin timing every statement. It also registers
// otelgorm when tracing is on.
type DBPlugin struct {
	cfg    DBConfig
	logger *zap.Logger

	duration *Histogram
	errors   *Counter
}

// NewDBPlugin creates the plugin. Register it with db.Use.
func NewDBPlugin(cfg DBConfig, logger *zap.Logger) (*DBPlugin, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	p := &DBPlugin{cfg: cfg, logger: logger}
	if cfg.Meter == nil {
		return p, nil
	}

	var err error
	if p.duration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sb_db_query_duration_seconds",
		Description: "Database statement duration",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if p.errors, err = NewCounter(cfg.Meter,
		"sb_db_query_errors_total", "Database statements that returned an error", "{errors}"); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBPlugin) Name() string {
	return "sb:telemetry"
}

// Initialize implements gorm.Plugin
func (p *DBPlugin) Initialize(db *gorm.DB) error {
	if p.cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
		if !p.cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("register otelgorm: %w", err)
		}
	}

	if err := p.register(db); err != nil {
		return err
	}
	if p.cfg.Meter != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := RegisterPoolStats(p.cfg.Meter, sqlDB); err != nil {
			return err
		}
	}
	p.logger.Info("Database telemetry enabled",
		zap.Bool("tracing", p.cfg.TraceEnabled),
		zap.Bool("metrics", p.cfg.Meter != nil),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThreshold),
	)
	return nil
}

func (p *DBPlugin) register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("sb:before_create", p.before),
		cb.Create().After("gorm:create").Register("sb:after_create", p.after("create")),
		cb.Query().Before("gorm:query").Register("sb:before_query", p.before),
		cb.Query().After("gorm:query").Register("sb:after_query", p.after("select")),
		cb.Update().Before("gorm:update").Register("sb:before_update", p.before),
		cb.Update().After("gorm:update").Register("sb:after_update", p.after("update")),
		cb.Delete().Before("gorm:delete").Register("sb:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("sb:after_delete", p.after("delete")),
		cb.Row().Before("gorm:row").Register("sb:before_row", p.before),
		cb.Row().After("gorm:row").Register("sb:after_row", p.after("row")),
		cb.Raw().Before("gorm:raw").Register("sb:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("sb:after_raw", p.after("raw")),
	)
}

func (p *DBPlugin) before(db *gorm.DB) {
	db.InstanceSet(startedAtKey, time.Now())
}

func (p *DBPlugin) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startedAtKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(started)
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := []attribute.KeyValue{
			AttrDBOperation.String(operation),
			AttrDBTable.String(db.Statement.Table),
		}

		if p.duration != nil {
			p.duration.RecordDuration(ctx, elapsed, attrs...)
		}
		failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
		if failed && p.errors != nil {
			p.errors.Inc(ctx, attrs...)
		}

		if elapsed >= p.cfg.SlowQueryThreshold {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("db.slow_query", true))
			fields := []zap.Field{
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.Duration("duration", elapsed),
			}
			if p.cfg.LogFullSQL {
				fields = append(fields, zap.String("sql", db.Statement.SQL.String()))
			}
			p.logger.Warn("Slow query", fields...)
		}
	}
}

// RegisterPoolStats exposes connection pool gauges read from sqlDB on each
// collection.
func RegisterPoolStats(meter metric.Meter, sqlDB *sql.DB) error {
	conns, err := meter.Int64ObservableGauge("sb_db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connections}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("sb_db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{waits}"))
	if err != nil {
		return fmt.Errorf("failed to create pool wait counter: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(s.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, conns, waits)
	return err
}
