package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NotificationEventTypes are the events pushed to staff screens and customers
var NotificationEventTypes = []string{
	ledger.EventTypeBalanceRecharged,
	ledger.EventTypeBalanceConsumed,
	order.EventTypeOrderCreated,
	order.EventTypeOrderStatusChanged,
}

// LogNotifier writes one structured line per notification event
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// EventTypes implements shared.EventHandler
func (n *LogNotifier) EventTypes() []string { return NotificationEventTypes }

// Handle implements shared.EventHandler
func (n *LogNotifier) Handle(_ context.Context, e shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("tenant_id", e.TenantID().String()),
		zap.String("aggregate_id", e.AggregateID().String()),
	}
	switch ev := e.(type) {
	case *ledger.BalanceChangedEvent:
		fields = append(fields,
			zap.String("amount", ev.Amount.String()),
			zap.String("new_balance", ev.NewBalance.String()),
			zap.String("available", ev.Available.String()),
		)
	case *order.OrderStatusChangedEvent:
		fields = append(fields, zap.String("from", string(ev.From)), zap.String("to", string(ev.To)))
	}
	n.logger.Info("Notification", fields...)
	return nil
}

// RedisNotifier publishes notification events as JSON on
// "<prefix>:<tenant id>" so every instance's websocket or mail worker can
// pick them up.
type RedisNotifier struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisNotifier creates a RedisNotifier. An empty prefix defaults to "sb:notifications".
func NewRedisNotifier(client redis.UniversalClient, prefix string) *RedisNotifier {
	if prefix == "" {
		prefix = "sb:notifications"
	}
	return &RedisNotifier{client: client, prefix: prefix}
}

// Channel returns the pub/sub channel of a tenant
func (n *RedisNotifier) Channel(tenantID string) string {
	return n.prefix + ":" + tenantID
}

// EventTypes implements shared.EventHandler
func (n *RedisNotifier) EventTypes() []string { return NotificationEventTypes }

// Handle implements shared.EventHandler
func (n *RedisNotifier) Handle(ctx context.Context, e shared.DomainEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.EventType(), err)
	}
	if err := n.client.Publish(ctx, n.Channel(e.TenantID().String()), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.EventType(), err)
	}
	return nil
}
