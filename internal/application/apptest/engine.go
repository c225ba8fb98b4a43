// Package apptest wires the ledger services over a migrated in-memory
// sqlite database for application and HTTP tests.
package apptest

import (
	"context"
	"sync"
	"testing"
	"time"

	appcatalog "github.com/Rmontilla83/saldobirras-pro/internal/application/catalog"
	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/cache"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/sqlitetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder is an EventPublisher that keeps every published event
type Recorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Publish implements shared.EventPublisher
func (r *Recorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns the published events in order
func (r *Recorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.DomainEvent(nil), r.events...)
}

// Types returns the published event types in order
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}

// Reset drops recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Engine is a fully wired ledger over sqlite
type Engine struct {
	DB           *gorm.DB
	Scope        *persistence.GormTransactionScope
	Customers    *persistence.GormCustomerRepository
	Transactions *persistence.GormTransactionRepository
	Orders       *persistence.GormOrderRepository
	Products     *persistence.GormProductRepository
	Zones        *persistence.GormZoneRepository
	Events       *Recorder

	Store       *appledger.Store
	Processor   *appledger.Processor
	Holds       *appledger.HoldManager
	CustomerSvc *appledger.CustomerService
	Fulfillment *apporder.FulfillmentService
	Catalog     *appcatalog.Service
	Reports     *report.Service
}

// New builds an Engine on a fresh database
func New(t *testing.T) *Engine {
	t.Helper()

	db := sqlitetest.New(t)
	logger := zap.NewNop()
	idem := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idem.Close() })

	e := &Engine{
		DB:           db,
		Scope:        persistence.NewGormTransactionScope(db),
		Customers:    persistence.NewGormCustomerRepository(db),
		Transactions: persistence.NewGormTransactionRepository(db),
		Orders:       persistence.NewGormOrderRepository(db),
		Products:     persistence.NewGormProductRepository(db),
		Zones:        persistence.NewGormZoneRepository(db),
		Events:       &Recorder{},
		Store:        appledger.NewStore(),
		Holds:        appledger.NewHoldManager(logger),
	}
	guard := appledger.NewIdempotencyGuard(idem, time.Hour).WithLogger(logger)
	e.Processor = appledger.NewProcessor(e.Scope, e.Store, e.Events, guard, logger)
	e.CustomerSvc = appledger.NewCustomerService(e.Scope, e.Customers, e.Transactions, e.Store, e.Events, logger)
	e.Fulfillment = apporder.NewFulfillmentService(e.Scope, e.Orders, e.Processor, e.Holds, e.Events, guard, logger)
	e.Catalog = appcatalog.NewService(e.Scope, e.Products, e.Zones)
	e.Reports = report.NewService(e.Customers, e.Transactions, e.Orders, report.Config{
		LowBalanceMoney: decimal.NewFromInt(10),
		LowBalanceUnits: decimal.NewFromInt(2),
	}, logger)
	return e
}

// Customer registers a money customer with the given opening balance
func (e *Engine) Customer(t *testing.T, tenantID uuid.UUID, name, initial string) *appledger.CustomerResponse {
	t.Helper()
	return e.CustomerWith(t, tenantID, appledger.RegisterCustomerRequest{
		Name:           name,
		InitialBalance: decimal.RequireFromString(initial),
	})
}

// CustomerWith registers a customer from a full request
func (e *Engine) CustomerWith(t *testing.T, tenantID uuid.UUID, req appledger.RegisterCustomerRequest) *appledger.CustomerResponse {
	t.Helper()
	c, err := e.CustomerSvc.Register(context.Background(), tenantID, nil, req)
	require.NoError(t, err)
	return c
}

// Product adds an available product
func (e *Engine) Product(t *testing.T, tenantID uuid.UUID, name, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(tenantID, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, e.Products.Create(context.Background(), p))
	return p
}

// Reload reads the customer's current stored state
func (e *Engine) Reload(t *testing.T, tenantID, customerID uuid.UUID) *ledger.Customer {
	t.Helper()
	c, err := e.Customers.FindByID(context.Background(), tenantID, customerID)
	require.NoError(t, err)
	return c
}

// Entries returns the customer's ledger in creation order
func (e *Engine) Entries(t *testing.T, tenantID, customerID uuid.UUID) []*ledger.Transaction {
	t.Helper()
	txs, err := e.Transactions.ListByCustomerChronological(context.Background(), tenantID, customerID)
	require.NoError(t, err)
	return txs
}
