package ledger

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HoldManager reserves and releases funds against open orders. Holds are a
// per-customer counter; release is keyed on the owning order's
// hold_released flag so a second release is a no-op.
type HoldManager struct {
	logger  *zap.Logger
	metrics *telemetry.LedgerMetrics
}

// NewHoldManager creates a hold manager
func NewHoldManager(logger *zap.Logger) *HoldManager {
	return &HoldManager{logger: logger}
}

// SetLedgerMetrics sets the metrics recorder
func (h *HoldManager) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	h.metrics = m
}

// PlaceHold admits amount against c's available balance, or fails with
// InsufficientFunds leaving balance_held untouched. c must be locked through repos.
func (h *HoldManager) PlaceHold(ctx context.Context, repos TransactionalRepositories, c *ledger.Customer, amount decimal.Decimal) error {
	if err := c.Hold(amount); err != nil {
		return err
	}
	if err := repos.Customers().SaveWithLock(ctx, c); err != nil {
		return err
	}
	h.metrics.RecordHold(ctx, c.TenantID, telemetry.HoldPlaced)
	return nil
}

// ReleaseHold releases orderID's hold of amount from c. It returns false
// without touching the counter when the order's hold was already released.
func (h *HoldManager) ReleaseHold(ctx context.Context, repos TransactionalRepositories, c *ledger.Customer, orderID uuid.UUID, amount decimal.Decimal) (bool, error) {
	claimed, err := repos.Orders().MarkHoldReleased(ctx, c.TenantID, orderID)
	if err != nil {
		return false, err
	}
	if !claimed {
		h.metrics.RecordHold(ctx, c.TenantID, telemetry.HoldNoop)
		return false, nil
	}

	if clamped := c.Release(amount); clamped {
		LoggerFor(ctx, h.logger).Warn("Held balance drifted below an order hold, clamped to zero",
			zap.String("customer_id", c.ID.String()),
			zap.String("order_id", orderID.String()),
			zap.String("amount", amount.String()),
		)
		h.metrics.RecordHold(ctx, c.TenantID, telemetry.HoldClamped)
	}
	if err := repos.Customers().SaveWithLock(ctx, c); err != nil {
		return false, err
	}
	h.metrics.RecordHold(ctx, c.TenantID, telemetry.HoldReleased)
	return true, nil
}
