package report

import (
	"context"
	"sort"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowBalanceCustomer is a customer at or below the low-balance threshold
type LowBalanceCustomer struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	BalanceType string          `json:"balance_type"`
	Available   decimal.Decimal `json:"available"`
}

// Dashboard is the staff dashboard summary
type Dashboard struct {
	Customers         int                  `json:"customers"`
	TotalMoney        decimal.Decimal      `json:"total_money"`
	TotalUnits        decimal.Decimal      `json:"total_units"`
	TotalHeld         decimal.Decimal      `json:"total_held"`
	TransactionsToday int64                `json:"transactions_today"`
	LowBalance        []LowBalanceCustomer `json:"low_balance"`
}

// Dashboard summarizes active customers and today's ledger activity.
// now is the reference time for "today" in UTC.
func (s *Service) Dashboard(ctx context.Context, tenantID uuid.UUID, now time.Time) (*Dashboard, error) {
	customers, err := s.customers.ListAll(ctx, tenantID)
	if err != nil {
		return nil, shared.WrapStoreError("report.dashboard", err)
	}
	startOfDay := now.UTC().Truncate(24 * time.Hour)
	count, err := s.transactions.CountSince(ctx, tenantID, startOfDay)
	if err != nil {
		return nil, shared.WrapStoreError("report.dashboard", err)
	}

	d := &Dashboard{
		TotalMoney:        decimal.Zero,
		TotalUnits:        decimal.Zero,
		TotalHeld:         decimal.Zero,
		TransactionsToday: count,
		LowBalance:        []LowBalanceCustomer{},
	}
	for _, c := range customers {
		if !c.IsActive {
			continue
		}
		d.Customers++
		if c.BalanceType == ledger.BalanceTypeUnits {
			d.TotalUnits = d.TotalUnits.Add(c.Balance)
		} else {
			d.TotalMoney = d.TotalMoney.Add(c.Balance)
		}
		d.TotalHeld = d.TotalHeld.Add(c.BalanceHeld)
		if c.IsLowBalance(s.lowBalanceThreshold(c.BalanceType)) {
			d.LowBalance = append(d.LowBalance, LowBalanceCustomer{
				ID:          c.ID,
				Name:        c.Name,
				BalanceType: string(c.BalanceType),
				Available:   c.Available(),
			})
		}
	}
	sort.Slice(d.LowBalance, func(i, j int) bool {
		return d.LowBalance[i].Available.LessThan(d.LowBalance[j].Available)
	})
	return d, nil
}
