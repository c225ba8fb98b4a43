// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics records balance ledger and order fulfillment activity.
// All methods are safe to call on a nil receiver, so services can run
// without metrics wired.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	entriesTotal     *Counter
	entryAmountCents *Counter
	holdsTotal       *Counter
	transitionsTotal *Counter
	rejectionsTotal  *Counter
	opDuration       *Histogram

	outstandingHolds *FloatGauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	holdProvider HoldMetricsProvider
}

// HoldMetricsProvider reports the amount currently held against open orders
type HoldMetricsProvider interface {
	OutstandingHoldsByTenant(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter        metric.Meter
	Logger       *zap.Logger
	HoldProvider HoldMetricsProvider
}

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		holdProvider: cfg.HoldProvider,
	}

	var err error
	if lm.entriesTotal, err = NewCounter(cfg.Meter,
		"sb_ledger_entries_total", "Committed ledger entries", "{entries}"); err != nil {
		return nil, err
	}
	if lm.entryAmountCents, err = NewCounter(cfg.Meter,
		"sb_ledger_amount_total", "Committed ledger amount in hundredths of the balance unit", "{cents}"); err != nil {
		return nil, err
	}
	if lm.holdsTotal, err = NewCounter(cfg.Meter,
		"sb_holds_total", "Hold operations by outcome", "{holds}"); err != nil {
		return nil, err
	}
	if lm.transitionsTotal, err = NewCounter(cfg.Meter,
		"sb_order_transitions_total", "Order status transitions", "{transitions}"); err != nil {
		return nil, err
	}
	if lm.rejectionsTotal, err = NewCounter(cfg.Meter,
		"sb_ledger_rejections_total", "Rejected ledger and order operations by error code", "{rejections}"); err != nil {
		return nil, err
	}
	if lm.opDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sb_ledger_operation_duration_seconds",
		Description: "Duration of ledger and order operations including the store transaction",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if lm.outstandingHolds, err = NewFloatGauge(cfg.Meter,
		"sb_holds_outstanding", "Amount currently held against open orders", "{units}"); err != nil {
		return nil, err
	}

	return lm, nil
}

// RecordEntry records a committed ledger entry
func (lm *LedgerMetrics) RecordEntry(ctx context.Context, tenantID uuid.UUID, entryType, source string, amount decimal.Decimal) {
	if lm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrTenantID.String(tenantID.String()),
		AttrEntryType.String(entryType),
		AttrEntrySource.String(source),
	}
	lm.entriesTotal.Inc(ctx, attrs...)
	lm.entryAmountCents.Add(ctx, amount.Mul(decimal.NewFromInt(100)).IntPart(), attrs...)
}

// HoldOutcome labels hold operations
type HoldOutcome string

const (
	HoldPlaced   HoldOutcome = "placed"
	HoldReleased HoldOutcome = "released"
	HoldNoop     HoldOutcome = "noop"
	HoldClamped  HoldOutcome = "clamped"
)

// RecordHold records a hold operation
func (lm *LedgerMetrics) RecordHold(ctx context.Context, tenantID uuid.UUID, outcome HoldOutcome) {
	if lm == nil {
		return
	}
	lm.holdsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrHoldOutcome.String(string(outcome)),
	)
}

// RecordTransition records an order status change
func (lm *LedgerMetrics) RecordTransition(ctx context.Context, tenantID uuid.UUID, from, to string) {
	if lm == nil {
		return
	}
	lm.transitionsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOrderStatusFrom.String(from),
		AttrOrderStatusTo.String(to),
	)
}

// RecordRejection records an operation refused with a domain error code
func (lm *LedgerMetrics) RecordRejection(ctx context.Context, tenantID uuid.UUID, operation, code string) {
	if lm == nil {
		return
	}
	lm.rejectionsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
		AttrErrorCode.String(code),
	)
}

// RecordDuration records how long an operation took
func (lm *LedgerMetrics) RecordDuration(ctx context.Context, operation string, success bool, d time.Duration) {
	if lm == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	lm.opDuration.RecordDuration(ctx, d,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// StartPeriodicCollection samples outstanding holds every interval
// (default 5 minutes) until Stop or ctx cancellation.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if lm == nil {
		return
	}
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lm.collectHoldMetrics(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collectHoldMetrics(ctx)
		}
	}
}

func (lm *LedgerMetrics) collectHoldMetrics(ctx context.Context) {
	if lm.holdProvider == nil {
		lm.logger.Debug("No hold provider configured, skipping hold metrics collection")
		return
	}

	held, err := lm.holdProvider.OutstandingHoldsByTenant(ctx)
	if err != nil {
		lm.logger.Warn("Failed to collect outstanding holds", zap.Error(err))
		return
	}
	for tenantID, amount := range held {
		lm.outstandingHolds.Record(ctx, amount.InexactFloat64(), AttrTenantID.String(tenantID.String()))
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	if lm == nil {
		return
	}
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
