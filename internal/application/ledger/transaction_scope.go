package ledger

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/audit"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
)

// TransactionScope runs a unit of work inside one store transaction.
// Every balance, hold and order mutation goes through Execute, so a balance
// change is never visible without its ledger row and vice versa.
type TransactionScope interface {
	// Execute runs fn in a transaction. An error from fn rolls back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to the
// current transaction.
//
// Lock order inside a transaction is order row first, then customer row.
// Keeping one order everywhere prevents lock cycles between a delivery and
// a concurrent order placement for the same customer.
type TransactionalRepositories interface {
	Customers() ledger.CustomerRepository
	Transactions() ledger.TransactionRepository
	Orders() order.Repository
	Products() catalog.ProductRepository
	Zones() catalog.ZoneRepository
	Audit() audit.Repository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Tests use it with in-memory repositories.
type NoOpTransactionScope struct {
	customers    ledger.CustomerRepository
	transactions ledger.TransactionRepository
	orders       order.Repository
	products     catalog.ProductRepository
	zones        catalog.ZoneRepository
	audit        audit.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	customers ledger.CustomerRepository,
	transactions ledger.TransactionRepository,
	orders order.Repository,
	products catalog.ProductRepository,
	zones catalog.ZoneRepository,
	auditRepo audit.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		customers:    customers,
		transactions: transactions,
		orders:       orders,
		products:     products,
		zones:        zones,
		audit:        auditRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Customers() ledger.CustomerRepository       { return s.customers }
func (s *NoOpTransactionScope) Transactions() ledger.TransactionRepository { return s.transactions }
func (s *NoOpTransactionScope) Orders() order.Repository                   { return s.orders }
func (s *NoOpTransactionScope) Products() catalog.ProductRepository        { return s.products }
func (s *NoOpTransactionScope) Zones() catalog.ZoneRepository              { return s.zones }
func (s *NoOpTransactionScope) Audit() audit.Repository                    { return s.audit }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
