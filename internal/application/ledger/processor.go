package ledger

import (
	"context"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Processor is the transaction processor, the only path that changes a
// customer's balance. Each operation is validate, mutate, log inside one
// store transaction with the customer row locked.
type Processor struct {
	scope     TransactionScope
	store     *Store
	publisher shared.EventPublisher
	guard     *IdempotencyGuard
	logger    *zap.Logger
	metrics   *telemetry.LedgerMetrics
}

// NewProcessor creates a transaction processor
func NewProcessor(scope TransactionScope, store *Store, publisher shared.EventPublisher, guard *IdempotencyGuard, logger *zap.Logger) *Processor {
	return &Processor{
		scope:     scope,
		store:     store,
		publisher: publisher,
		guard:     guard,
		logger:    logger,
	}
}

// SetLedgerMetrics sets the metrics recorder
func (p *Processor) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	p.metrics = m
}

// Recharge credits the customer. It succeeds whenever the customer exists.
func (p *Processor) Recharge(ctx context.Context, cmd RechargeCommand) (result *EntryResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "recharge",
		telemetry.WithAttribute("customer_id", cmd.CustomerID.String()))
	defer span.End()
	started := time.Now()
	defer func() {
		ObserveOutcome(ctx, LoggerFor(ctx, p.logger), p.metrics, cmd.TenantID, "recharge", started, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if err := ledger.ValidateAmount(cmd.Amount); err != nil {
		return nil, err
	}
	if cmd.Payment != nil && cmd.Payment.Method != "" && !cmd.Payment.Method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment method")
	}

	var (
		customer *ledger.Customer
		tx       *ledger.Transaction
	)
	err = p.guard.Run(ctx, cmd.TenantID, "recharge", cmd.IdempotencyKey, func() error {
		return p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			c, err := repos.Customers().FindForUpdate(ctx, cmd.TenantID, cmd.CustomerID)
			if err != nil {
				return err
			}
			if err := c.EnsureActive(); err != nil {
				return err
			}
			t, err := p.store.ApplyEntry(ctx, repos, c, ledger.EntryTypeRecharge, cmd.Amount, ledger.EntryMeta{
				StaffID: cmd.StaffID,
				Note:    shared.SanitizeText(cmd.Note),
				Payment: sanitizePayment(cmd.Payment),
				Source:  ledger.SourceManual,
			})
			if err != nil {
				return err
			}
			customer, tx = c, t
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapStoreError("ledger.recharge", err)
	}

	p.committed(ctx, customer, tx)
	return newEntryResult(customer, tx), nil
}

// Consume debits the customer. Amount must fit the available balance
// unless the customer allows a negative balance; otherwise InsufficientFunds.
func (p *Processor) Consume(ctx context.Context, cmd ConsumeCommand) (result *EntryResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "consume",
		telemetry.WithAttribute("customer_id", cmd.CustomerID.String()))
	defer span.End()
	started := time.Now()
	defer func() {
		ObserveOutcome(ctx, LoggerFor(ctx, p.logger), p.metrics, cmd.TenantID, "consume", started, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if err := ledger.ValidateAmount(cmd.Amount); err != nil {
		return nil, err
	}

	var (
		customer *ledger.Customer
		tx       *ledger.Transaction
	)
	err = p.guard.Run(ctx, cmd.TenantID, "consume", cmd.IdempotencyKey, func() error {
		return p.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			c, err := repos.Customers().FindForUpdate(ctx, cmd.TenantID, cmd.CustomerID)
			if err != nil {
				return err
			}
			if err := c.EnsureActive(); err != nil {
				return err
			}
			t, err := p.ConsumeLocked(ctx, repos, c, cmd.Amount, decimal.Zero, ledger.EntryMeta{
				StaffID: cmd.StaffID,
				Note:    shared.SanitizeText(cmd.Note),
				Items:   cmd.Items,
				Source:  ledger.SourceManual,
			})
			if err != nil {
				return err
			}
			customer, tx = c, t
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapStoreError("ledger.consume", err)
	}

	p.committed(ctx, customer, tx)
	return newEntryResult(customer, tx), nil
}

// ConsumeLocked is Consume for callers already inside a transaction holding
// c's lock. reserved is an amount held on the caller's behalf that the
// consume may draw on, such as an order's own hold at delivery.
func (p *Processor) ConsumeLocked(ctx context.Context, repos TransactionalRepositories, c *ledger.Customer, amount, reserved decimal.Decimal, meta ledger.EntryMeta) (*ledger.Transaction, error) {
	if !c.CanCover(amount, reserved) {
		return nil, shared.NewDomainError(shared.CodeInsufficientFunds,
			"Insufficient available balance: "+c.Available().StringFixed(2)+" available, "+amount.StringFixed(2)+" requested")
	}
	return p.store.ApplyEntry(ctx, repos, c, ledger.EntryTypeConsume, amount, meta)
}

// Committed publishes the balance change for a committed entry and records
// metrics. Callers that used ConsumeLocked call it after their commit.
func (p *Processor) Committed(ctx context.Context, c *ledger.Customer, tx *ledger.Transaction) {
	p.committed(ctx, c, tx)
}

func (p *Processor) committed(ctx context.Context, c *ledger.Customer, tx *ledger.Transaction) {
	p.metrics.RecordEntry(ctx, c.TenantID, string(tx.Type), string(tx.Source), tx.Amount)
	LoggerFor(ctx, p.logger).Info("Ledger entry committed",
		zap.String("customer_id", c.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.String()),
		zap.String("balance_after", tx.BalanceAfter.String()),
	)
	Publish(ctx, p.publisher, LoggerFor(ctx, p.logger), ledger.NewBalanceChangedEvent(c, tx))
}

// Publish hands events to the publisher after commit. Failures are logged
// and never reach the caller; the ledger mutation is already durable.
func Publish(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(context.WithoutCancel(ctx), events...); err != nil {
		log.Warn("Failed to publish events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func sanitizePayment(p *ledger.Payment) *ledger.Payment {
	if p == nil {
		return nil
	}
	return &ledger.Payment{
		Method:    p.Method,
		Bank:      shared.SanitizeText(p.Bank),
		Reference: shared.SanitizeText(p.Reference),
	}
}
