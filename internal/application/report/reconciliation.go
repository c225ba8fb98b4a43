package report

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reconciliation compares a customer's stored balances with what the
// ledger and open orders say they should be.
type Reconciliation struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	Balance         decimal.Decimal `json:"balance"`
	BalanceHeld     decimal.Decimal `json:"balance_held"`
	InitialBalance  decimal.Decimal `json:"initial_balance"`
	Recharged       decimal.Decimal `json:"recharged"`
	Consumed        decimal.Decimal `json:"consumed"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ExpectedHeld    decimal.Decimal `json:"expected_held"`
	Entries         int             `json:"entries"`
	OpenOrders      int             `json:"open_orders"`

	// ChainBreaks lists entries whose balance_after does not follow from
	// the previous entry.
	ChainBreaks []uuid.UUID `json:"chain_breaks,omitempty"`
	Balanced    bool        `json:"balanced"`
}

// Reconcile replays the customer's ledger in creation order. Opening
// entries are already counted in the initial balance and only seed the chain.
func (s *Service) Reconcile(ctx context.Context, tenantID, customerID uuid.UUID) (*Reconciliation, error) {
	c, err := s.customers.FindByID(ctx, tenantID, customerID)
	if err != nil {
		return nil, shared.WrapStoreError("report.reconcile", err)
	}
	txs, err := s.transactions.ListByCustomerChronological(ctx, tenantID, customerID)
	if err != nil {
		return nil, shared.WrapStoreError("report.reconcile", err)
	}
	open, err := s.orders.ListOutstandingByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, shared.WrapStoreError("report.reconcile", err)
	}

	r := Reconcile(c, txs)
	r.OpenOrders = len(open)
	for _, o := range open {
		r.ExpectedHeld = r.ExpectedHeld.Add(o.Total)
	}
	r.Balanced = r.Balanced && r.ExpectedHeld.Equal(c.BalanceHeld)
	return r, nil
}

// Reconcile checks the ledger identity and balance_after chain for one
// customer. ExpectedHeld is left at zero for the caller to fill in.
func Reconcile(c *ledger.Customer, txs []*ledger.Transaction) *Reconciliation {
	r := &Reconciliation{
		CustomerID:     c.ID,
		Balance:        c.Balance,
		BalanceHeld:    c.BalanceHeld,
		InitialBalance: c.InitialBalance,
		Recharged:      decimal.Zero,
		Consumed:       decimal.Zero,
		ExpectedHeld:   decimal.Zero,
		Entries:        len(txs),
	}

	running := decimal.Zero
	for _, tx := range txs {
		if tx.Source == ledger.SourceOpening {
			running = tx.Amount
		} else {
			switch tx.Type {
			case ledger.EntryTypeRecharge:
				r.Recharged = r.Recharged.Add(tx.Amount)
			case ledger.EntryTypeConsume:
				r.Consumed = r.Consumed.Add(tx.Amount)
			}
			running = running.Add(tx.SignedAmount())
		}
		if !running.Equal(tx.BalanceAfter) {
			r.ChainBreaks = append(r.ChainBreaks, tx.ID)
			running = tx.BalanceAfter
		}
	}

	r.ExpectedBalance = c.InitialBalance.Add(r.Recharged).Sub(r.Consumed)
	r.Balanced = r.ExpectedBalance.Equal(c.Balance) && len(r.ChainBreaks) == 0
	return r
}
