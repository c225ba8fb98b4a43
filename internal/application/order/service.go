package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultListLimit caps order listings when no page size is given
const DefaultListLimit = 100

// FulfillmentService is the order state machine. It couples order
// creation to a hold and each terminal transition to exactly one consume
// or release, all inside the same store transaction as the status change.
type FulfillmentService struct {
	scope     appledger.TransactionScope
	orders    order.Repository
	processor *appledger.Processor
	holds     *appledger.HoldManager
	publisher shared.EventPublisher
	guard     *appledger.IdempotencyGuard
	logger    *zap.Logger
	metrics   *telemetry.LedgerMetrics
}

// NewFulfillmentService creates a new FulfillmentService
func NewFulfillmentService(
	scope appledger.TransactionScope,
	orders order.Repository,
	processor *appledger.Processor,
	holds *appledger.HoldManager,
	publisher shared.EventPublisher,
	guard *appledger.IdempotencyGuard,
	logger *zap.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		scope:     scope,
		orders:    orders,
		processor: processor,
		holds:     holds,
		publisher: publisher,
		guard:     guard,
		logger:    logger,
	}
}

// SetLedgerMetrics sets the metrics recorder
func (s *FulfillmentService) SetLedgerMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// CreateOrder prices the requested items from the catalog, freezes the
// total and places a hold for it. If the hold is refused nothing is persisted.
func (s *FulfillmentService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (result *CreateOrderResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()
	started := time.Now()
	defer func() {
		appledger.ObserveOutcome(ctx, appledger.LoggerFor(ctx, s.logger), s.metrics, cmd.TenantID, "order_create", started, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if err := validateItems(cmd.Items); err != nil {
		return nil, err
	}

	var (
		placed   *order.Order
		customer *ledger.Customer
	)
	err = s.guard.Run(ctx, cmd.TenantID, "order_create", cmd.IdempotencyKey, func() error {
		return s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			customerID, err := resolveCustomer(ctx, repos.Customers(), cmd)
			if err != nil {
				return err
			}
			c, err := repos.Customers().FindForUpdate(ctx, cmd.TenantID, customerID)
			if err != nil {
				return err
			}
			if err := c.EnsureActive(); err != nil {
				return err
			}
			if cmd.ZoneID != nil {
				if err := checkZone(ctx, repos.Zones(), cmd.TenantID, *cmd.ZoneID); err != nil {
					return err
				}
			}
			items, err := priceItems(ctx, repos.Products(), cmd.TenantID, cmd.Items)
			if err != nil {
				return err
			}
			o, err := order.NewOrder(cmd.TenantID, c.ID, items, cmd.ZoneID, shared.SanitizeText(cmd.Note))
			if err != nil {
				return err
			}
			if err := s.holds.PlaceHold(ctx, repos, c, o.Total); err != nil {
				return err
			}
			if err := repos.Orders().Create(ctx, o); err != nil {
				return err
			}
			placed, customer = o, c
			return nil
		})
	})
	if err != nil {
		return nil, shared.WrapStoreError("order.create", err)
	}

	log := appledger.LoggerFor(ctx, s.logger)
	log.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("total", placed.Total.String()),
		zap.String("balance_held", customer.BalanceHeld.String()),
	)
	appledger.Publish(ctx, s.publisher, log, placed.GetDomainEvents()...)
	placed.ClearDomainEvents()

	return &CreateOrderResult{
		Order:       ToOrderResponse(placed),
		BalanceHeld: customer.BalanceHeld,
		Available:   customer.Available(),
	}, nil
}

// AdvanceStatus moves an order along the state machine. Delivery consumes
// the order total, attaches the items to the consume entry, releases the
// hold and records the staff member; cancellation only releases the hold.
// Either the whole transition commits or the order stays where it was.
func (s *FulfillmentService) AdvanceStatus(ctx context.Context, cmd AdvanceCommand) (result *AdvanceResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "advance",
		telemetry.WithAttribute("order_id", cmd.OrderID.String()),
		telemetry.WithAttribute("target_status", string(cmd.Target)))
	defer span.End()
	started := time.Now()
	defer func() {
		appledger.ObserveOutcome(ctx, appledger.LoggerFor(ctx, s.logger), s.metrics, cmd.TenantID, "order_advance", started, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if _, err := order.ParseTargetStatus(string(cmd.Target)); err != nil {
		return nil, err
	}

	var (
		o        *order.Order
		from     order.Status
		customer *ledger.Customer
		consumed *ledger.Transaction
	)
	err = s.scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
		locked, err := repos.Orders().FindForUpdate(ctx, cmd.TenantID, cmd.OrderID)
		if err != nil {
			return err
		}
		from = locked.Status
		if err := locked.TransitionTo(cmd.Target); err != nil {
			return err
		}
		if err := repos.Orders().CompareAndSetStatus(ctx, locked, from); err != nil {
			return err
		}
		o = locked

		if !o.Status.IsTerminal() {
			return nil
		}
		c, err := repos.Customers().FindForUpdate(ctx, cmd.TenantID, o.CustomerID)
		if err != nil {
			return err
		}
		customer = c

		if o.Status == order.StatusDelivered {
			tx, err := s.deliver(ctx, repos, o, c, cmd.StaffID)
			if err != nil {
				return err
			}
			consumed = tx
			return nil
		}
		return s.release(ctx, repos, o, c)
	})
	if err != nil {
		return nil, shared.WrapStoreError("order.advance", err)
	}

	s.metrics.RecordTransition(ctx, cmd.TenantID, string(from), string(o.Status))
	log := appledger.LoggerFor(ctx, s.logger)
	log.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	appledger.Publish(ctx, s.publisher, log, o.GetDomainEvents()...)
	o.ClearDomainEvents()

	result = &AdvanceResult{Order: ToOrderResponse(o)}
	if consumed != nil {
		s.processor.Committed(ctx, customer, consumed)
		balance := consumed.BalanceAfter
		result.NewBalance = &balance
	}
	return result, nil
}

func (s *FulfillmentService) deliver(ctx context.Context, repos appledger.TransactionalRepositories, o *order.Order, c *ledger.Customer, staffID *uuid.UUID) (*ledger.Transaction, error) {
	reserved := decimal.Zero
	if !o.HoldReleased {
		reserved = o.Total
	}
	orderID := o.ID
	tx, err := s.processor.ConsumeLocked(ctx, repos, c, o.Total, reserved, ledger.EntryMeta{
		StaffID: staffID,
		Note:    shared.SanitizeText(o.ItemsSummary()),
		Source:  ledger.SourceOrder,
		OrderID: &orderID,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.AttachItems(o.Items); err != nil {
		return nil, err
	}
	if err := repos.Transactions().UpdateItems(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.release(ctx, repos, o, c); err != nil {
		return nil, err
	}
	o.MarkDelivered(staffID, tx.ID)
	if err := repos.Orders().SetDelivery(ctx, o); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *FulfillmentService) release(ctx context.Context, repos appledger.TransactionalRepositories, o *order.Order, c *ledger.Customer) error {
	released, err := s.holds.ReleaseHold(ctx, repos, c, o.ID, o.Total)
	if err != nil {
		return err
	}
	if released {
		o.HoldReleased = true
	}
	return nil
}

// Get returns an order of the tenant
func (s *FulfillmentService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, shared.WrapStoreError("order.get", err)
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List lists orders newest first, filtered by status and customer
func (s *FulfillmentService) List(ctx context.Context, tenantID uuid.UUID, filter order.Filter) (shared.Paginated[OrderResponse], error) {
	if filter.PageSize == 0 {
		filter.PageSize = DefaultListLimit
	}
	orders, total, err := s.orders.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, shared.WrapStoreError("order.list", err)
	}
	return shared.NewPaginated(ToOrderResponses(orders), total, filter.Page), nil
}

// resolveCustomer picks the ordering customer: staff orders name it by ID,
// portal orders by lookup token.
func resolveCustomer(ctx context.Context, customers ledger.CustomerRepository, cmd CreateOrderCommand) (uuid.UUID, error) {
	if cmd.CustomerID != nil {
		return *cmd.CustomerID, nil
	}
	token := strings.TrimSpace(cmd.LookupToken)
	if token == "" {
		return uuid.Nil, shared.NewDomainError(shared.CodeInvalidInput, "Customer ID or lookup token is required")
	}
	found, err := customers.FindByLookupToken(ctx, cmd.TenantID, token)
	if err != nil {
		return uuid.Nil, err
	}
	return found.ID, nil
}

func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Order must contain at least one item")
	}
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return shared.NewDomainError(shared.CodeInvalidInput, "Product ID is required")
		}
		if it.Quantity <= 0 {
			return shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be positive")
		}
	}
	return nil
}

func checkZone(ctx context.Context, zones catalog.ZoneRepository, tenantID, zoneID uuid.UUID) error {
	z, err := zones.FindByID(ctx, tenantID, zoneID)
	if err != nil {
		return err
	}
	if !z.IsActive {
		return shared.NewDomainError(shared.CodeInvalidInput, "Zone is not active")
	}
	return nil
}

// priceItems copies current catalog prices into order lines
func priceItems(ctx context.Context, products catalog.ProductRepository, tenantID uuid.UUID, reqs []ItemRequest) ([]ledger.LineItem, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ProductID)
	}
	found, err := products.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	items := make([]ledger.LineItem, 0, len(reqs))
	for _, r := range reqs {
		p, ok := byID[r.ProductID]
		if !ok {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Product %s not found", r.ProductID))
		}
		if !p.IsAvailable {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("%s is not available", p.Name))
		}
		item, err := ledger.NewLineItem(p.ID, p.Name, r.Quantity, p.Price)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
