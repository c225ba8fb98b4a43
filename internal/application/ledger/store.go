package ledger

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the ledger store: it applies a balance delta and appends the
// matching ledger row in the caller's transaction. It checks no business
// rules beyond amount > 0; funds checks belong to the Processor.
type Store struct{}

// NewStore creates a ledger store
func NewStore() *Store {
	return &Store{}
}

// ApplyEntry credits or debits c (already loaded FOR UPDATE through repos)
// and appends one ledger row whose balance_after is the new balance.
func (s *Store) ApplyEntry(ctx context.Context, repos TransactionalRepositories, c *ledger.Customer, entryType ledger.EntryType, amount decimal.Decimal, meta ledger.EntryMeta) (*ledger.Transaction, error) {
	var err error
	switch entryType {
	case ledger.EntryTypeRecharge:
		err = c.Credit(amount)
	case ledger.EntryTypeConsume:
		err = c.Debit(amount)
	default:
		err = shared.NewDomainError(shared.CodeInvalidInput, "Transaction type must be 'recharge' or 'consume'")
	}
	if err != nil {
		return nil, err
	}

	tx, err := ledger.NewTransaction(c, entryType, amount, meta)
	if err != nil {
		return nil, err
	}
	if err := repos.Customers().SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	if err := repos.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// ApplyOpening writes the opening entry for a freshly created customer.
// The balance already equals the initial balance, so no delta is applied.
func (s *Store) ApplyOpening(ctx context.Context, repos TransactionalRepositories, c *ledger.Customer, staffID *uuid.UUID) (*ledger.Transaction, error) {
	if !c.InitialBalance.IsPositive() {
		return nil, nil
	}
	tx, err := ledger.NewTransaction(c, ledger.EntryTypeRecharge, c.InitialBalance, ledger.EntryMeta{
		StaffID: staffID,
		Source:  ledger.SourceOpening,
	})
	if err != nil {
		return nil, err
	}
	if err := repos.Transactions().Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Apply is ApplyEntry in its own transaction: lock the customer, apply, commit.
// It returns NotFound when the customer is not in the tenant.
func (s *Store) Apply(ctx context.Context, scope TransactionScope, tenantID, customerID uuid.UUID, entryType ledger.EntryType, amount decimal.Decimal, meta ledger.EntryMeta) (*EntryResult, error) {
	var result *EntryResult
	err := scope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Customers().FindForUpdate(ctx, tenantID, customerID)
		if err != nil {
			return err
		}
		tx, err := s.ApplyEntry(ctx, repos, c, entryType, amount, meta)
		if err != nil {
			return err
		}
		result = newEntryResult(c, tx)
		return nil
	})
	if err != nil {
		return nil, shared.WrapStoreError("ledger.apply", err)
	}
	return result, nil
}
