package ledger

import (
	"context"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/audit"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTokenAttempts = 5

// CustomerService handles customer registration and maintenance. Balance
// fields are only ever set here at registration; afterwards they move
// through the Processor and HoldManager.
type CustomerService struct {
	scope        TransactionScope
	customers    ledger.CustomerRepository
	transactions ledger.TransactionRepository
	store        *Store
	publisher    shared.EventPublisher
	logger       *zap.Logger
	newToken     func() (string, error)
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	scope TransactionScope,
	customers ledger.CustomerRepository,
	transactions ledger.TransactionRepository,
	store *Store,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		scope:        scope,
		customers:    customers,
		transactions: transactions,
		store:        store,
		publisher:    publisher,
		logger:       logger,
		newToken:     ledger.NewLookupToken,
	}
}

// Register creates a customer and, for a positive initial balance, its
// opening ledger entry, in one transaction together with an audit row.
func (s *CustomerService) Register(ctx context.Context, tenantID uuid.UUID, staffID *uuid.UUID, req RegisterCustomerRequest) (*CustomerResponse, error) {
	if req.BalanceType == "" {
		req.BalanceType = ledger.BalanceTypeMoney
	}
	qr, err := s.uniqueToken(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c, err := ledger.NewCustomer(tenantID, staffID, shared.SanitizeText(req.Name), req.BalanceType, req.InitialBalance, qr)
	if err != nil {
		return nil, err
	}
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = strings.TrimSpace(req.Phone)
	c.AllowNegative = req.AllowNegative
	if err := c.SetPIN(req.PIN); err != nil {
		return nil, err
	}
	if c.PIN != nil {
		taken, err := s.customers.ExistsByPIN(ctx, tenantID, *c.PIN, nil)
		if err != nil {
			return nil, shared.WrapStoreError("customer.exists_pin", err)
		}
		if taken {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "PIN is already in use")
		}
	}

	var opening *ledger.Transaction
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Customers().Create(ctx, c); err != nil {
			return err
		}
		tx, err := s.store.ApplyOpening(ctx, repos, c, staffID)
		if err != nil {
			return err
		}
		opening = tx
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, staffID, audit.ActionCreateCustomer, audit.EntityCustomer, c.ID, map[string]any{
			"name":            c.Name,
			"balance_type":    string(c.BalanceType),
			"initial_balance": c.InitialBalance.String(),
		}))
	})
	if err != nil {
		return nil, shared.WrapStoreError("customer.register", err)
	}

	log := LoggerFor(ctx, s.logger)
	log.Info("Customer registered",
		zap.String("customer_id", c.ID.String()),
		zap.String("initial_balance", c.InitialBalance.String()),
	)
	events := c.GetDomainEvents()
	if opening != nil {
		events = append(events, ledger.NewBalanceChangedEvent(c, opening))
	}
	Publish(ctx, s.publisher, log, events...)
	c.ClearDomainEvents()

	resp := ToCustomerResponse(c)
	return &resp, nil
}

func (s *CustomerService) uniqueToken(ctx context.Context, tenantID uuid.UUID) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		tok, err := s.newToken()
		if err != nil {
			return "", shared.WrapStoreError("customer.token", err)
		}
		taken, err := s.customers.ExistsByQRCode(ctx, tenantID, tok)
		if err != nil {
			return "", shared.WrapStoreError("customer.exists_qr", err)
		}
		if !taken {
			return tok, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeAlreadyExists, "Could not allocate a unique lookup token")
}

// Update applies a profile update under the customer's row lock and records an audit row
func (s *CustomerService) Update(ctx context.Context, tenantID, customerID uuid.UUID, staffID *uuid.UUID, u ledger.ProfileUpdate) (*CustomerResponse, error) {
	if u.Name != nil {
		name := shared.SanitizeText(*u.Name)
		u.Name = &name
	}
	if u.PIN != nil && *u.PIN != "" {
		taken, err := s.customers.ExistsByPIN(ctx, tenantID, *u.PIN, &customerID)
		if err != nil {
			return nil, shared.WrapStoreError("customer.exists_pin", err)
		}
		if taken {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "PIN is already in use")
		}
	}

	c, err := s.mutate(ctx, tenantID, customerID, staffID, audit.ActionUpdateCustomer, func(c *ledger.Customer) (map[string]any, error) {
		if err := c.UpdateProfile(u); err != nil {
			return nil, err
		}
		return profileDetails(u), nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// Deactivate hides the customer from lookups. Balances and history are kept.
func (s *CustomerService) Deactivate(ctx context.Context, tenantID, customerID uuid.UUID, staffID *uuid.UUID) error {
	_, err := s.mutate(ctx, tenantID, customerID, staffID, audit.ActionDeactivateCustomer, func(c *ledger.Customer) (map[string]any, error) {
		if err := c.Deactivate(); err != nil {
			return nil, err
		}
		return map[string]any{"is_active": false}, nil
	})
	return err
}

func (s *CustomerService) mutate(ctx context.Context, tenantID, customerID uuid.UUID, staffID *uuid.UUID, action string, fn func(c *ledger.Customer) (map[string]any, error)) (*ledger.Customer, error) {
	var customer *ledger.Customer
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Customers().FindForUpdate(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		details, err := fn(c)
		if err != nil {
			return err
		}
		if err := repos.Customers().SaveWithLock(ctx, c); err != nil {
			return err
		}
		customer = c
		return repos.Audit().Create(ctx, audit.NewEntry(tenantID, staffID, action, audit.EntityCustomer, c.ID, details))
	})
	if err != nil {
		return nil, shared.WrapStoreError("customer."+action, err)
	}
	Publish(ctx, s.publisher, LoggerFor(ctx, s.logger), customer.GetDomainEvents()...)
	customer.ClearDomainEvents()
	return customer, nil
}

func profileDetails(u ledger.ProfileUpdate) map[string]any {
	details := map[string]any{}
	if u.Name != nil {
		details["name"] = *u.Name
	}
	if u.Email != nil {
		details["email"] = *u.Email
	}
	if u.Phone != nil {
		details["phone"] = *u.Phone
	}
	if u.PIN != nil {
		details["pin_changed"] = true
	}
	if u.AllowNegative != nil {
		details["allow_negative"] = *u.AllowNegative
	}
	return details
}

// Get returns a customer of the tenant
func (s *CustomerService) Get(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerResponse, error) {
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, shared.WrapStoreError("customer.get", err)
	}
	resp := ToCustomerResponse(c)
	return &resp, nil
}

// Lookup resolves an active customer by QR code or PIN
func (s *CustomerService) Lookup(ctx context.Context, tenantID uuid.UUID, token string) (*ledger.Customer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Lookup token is required")
	}
	c, err := s.customers.FindByLookupToken(ctx, tenantID, token)
	if err != nil {
		return nil, shared.WrapStoreError("customer.lookup", err)
	}
	return c, nil
}

// List lists customers of the tenant
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter ledger.CustomerFilter) (shared.Paginated[CustomerResponse], error) {
	filter.Search = shared.SanitizeText(filter.Search)
	customers, total, err := s.customers.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[CustomerResponse]{}, shared.WrapStoreError("customer.list", err)
	}
	return shared.NewPaginated(ToCustomerResponses(customers), total, filter.Page), nil
}

// ListTransactions lists ledger entries newest first
func (s *CustomerService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) (shared.Paginated[TransactionResponse], error) {
	txs, total, err := s.transactions.List(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[TransactionResponse]{}, shared.WrapStoreError("transaction.list", err)
	}
	return shared.NewPaginated(ToTransactionResponses(txs), total, filter.Page), nil
}
