// Package report holds the read-only reporting collaborators: per-customer
// reconciliation, dashboard stats and the XLSX ledger export. Nothing here
// mutates the ledger.
package report

import (
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds report thresholds
type Config struct {
	LowBalanceMoney decimal.Decimal
	LowBalanceUnits decimal.Decimal
	ExportMaxRows   int
}

// Service builds reports from the ledger, customer and order tables
type Service struct {
	customers    ledger.CustomerRepository
	transactions ledger.TransactionRepository
	orders       order.Repository
	cfg          Config
	logger       *zap.Logger
}

// NewService creates a report service
func NewService(customers ledger.CustomerRepository, transactions ledger.TransactionRepository, orders order.Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = 50000
	}
	return &Service{
		customers:    customers,
		transactions: transactions,
		orders:       orders,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *Service) lowBalanceThreshold(t ledger.BalanceType) decimal.Decimal {
	if t == ledger.BalanceTypeUnits {
		return s.cfg.LowBalanceUnits
	}
	return s.cfg.LowBalanceMoney
}
