package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumInt(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", agg)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{ServiceName: "saldobirras"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := telemetry.NewMeterProviderWithReader(reader).Meter("test")
	ctx := context.Background()

	c, err := telemetry.NewCounter(meter, "c_total", "c", "{x}")
	require.NoError(t, err)
	c.Inc(ctx)
	c.Add(ctx, 4)

	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{Name: "h", Unit: "s", Boundaries: telemetry.HTTPDurationBuckets})
	require.NoError(t, err)
	h.RecordDuration(ctx, 30*time.Millisecond)
	h.Record(ctx, 2)

	g, err := telemetry.NewGauge(meter, "g", "g", "{x}")
	require.NoError(t, err)
	g.Record(ctx, 7)

	fg, err := telemetry.NewFloatGauge(meter, "fg", "fg", "{x}")
	require.NoError(t, err)
	fg.Record(ctx, 1.5)

	got := collect(t, reader)
	assert.Equal(t, int64(5), sumInt(t, got["c_total"]))

	hist, ok := got["h"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, telemetry.HTTPDurationBuckets, hist.DataPoints[0].Bounds)

	gauge, ok := got["g"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)

	fgauge, ok := got["fg"].(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 1.5, fgauge.DataPoints[0].Value)
}

type fakeHolds struct {
	held map[uuid.UUID]decimal.Decimal
	err  error
}

func (f fakeHolds) OutstandingHoldsByTenant(context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	return f.held, f.err
}

func TestLedgerMetrics(t *testing.T) {
	_, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)

	var nilMetrics *telemetry.LedgerMetrics
	nilMetrics.RecordEntry(context.Background(), uuid.New(), "recharge", "staff", decimal.NewFromInt(1))
	nilMetrics.Stop()

	reader := sdkmetric.NewManualReader()
	tenant := uuid.New()
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:        telemetry.NewMeterProviderWithReader(reader).Meter("ledger"),
		HoldProvider: fakeHolds{held: map[uuid.UUID]decimal.Decimal{tenant: decimal.RequireFromString("17.25")}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lm.RecordEntry(ctx, tenant, "recharge", "staff", decimal.RequireFromString("12.50"))
	lm.RecordEntry(ctx, tenant, "consume", "order", decimal.RequireFromString("2.25"))
	lm.RecordHold(ctx, tenant, telemetry.HoldPlaced)
	lm.RecordTransition(ctx, tenant, "pending", "preparing")
	lm.RecordRejection(ctx, tenant, "consume", "INSUFFICIENT_BALANCE")
	lm.RecordDuration(ctx, "consume", false, 5*time.Millisecond)
	lm.StartPeriodicCollection(ctx, time.Hour)

	require.Eventually(t, func() bool {
		_, ok := collect(t, reader)["sb_holds_outstanding"]
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	lm.Stop()
	lm.Stop()

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumInt(t, got["sb_ledger_entries_total"]))
	assert.Equal(t, int64(1475), sumInt(t, got["sb_ledger_amount_total"]))
	assert.Equal(t, int64(1), sumInt(t, got["sb_holds_total"]))
	assert.Equal(t, int64(1), sumInt(t, got["sb_order_transitions_total"]))
	assert.Equal(t, int64(1), sumInt(t, got["sb_ledger_rejections_total"]))

	held, ok := got["sb_holds_outstanding"].(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 17.25, held.DataPoints[0].Value)
}

func TestLedgerMetrics_HoldProviderFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:        telemetry.NewMeterProviderWithReader(sdkmetric.NewManualReader()).Meter("ledger"),
		Logger:       zap.New(core),
		HoldProvider: fakeHolds{err: errors.New("db down")},
	})
	require.NoError(t, err)

	lm.StartPeriodicCollection(context.Background(), time.Hour)
	defer lm.Stop()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Failed to collect outstanding holds").Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDBPlugin(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	core, logs := observer.New(zapcore.WarnLevel)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	plugin, err := telemetry.NewDBPlugin(telemetry.DBConfig{
		SlowQueryThreshold: time.Nanosecond,
		Meter:              telemetry.NewMeterProviderWithReader(reader).Meter("db"),
	}, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, db.Use(plugin))
	assert.Equal(t, "sb:telemetry", plugin.Name())

	type zone struct {
		ID   int
		Name string
	}
	require.NoError(t, db.AutoMigrate(&zone{}))
	require.NoError(t, db.Create(&zone{Name: "terraza"}).Error)
	var zones []zone
	require.NoError(t, db.Find(&zones).Error)
	assert.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	got := collect(t, reader)
	hist, ok := got["sb_db_query_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.GreaterOrEqual(t, count, uint64(3))
	assert.GreaterOrEqual(t, sumInt(t, got["sb_db_query_errors_total"]), int64(1))

	pool, ok := got["sb_db_pool_connections"].(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, pool.DataPoints, 3)

	assert.Positive(t, logs.FilterMessage("Slow query").Len())
}
