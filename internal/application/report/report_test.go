package report_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/application/apptest"
	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	apporder "github.com/Rmontilla83/saldobirras-pro/internal/application/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/application/report"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestService_Reconcile(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "20")
	p := e.Product(t, tenantID, "IPA", "4")

	_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("10")})
	require.NoError(t, err)
	_, err = e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("7.5")})
	require.NoError(t, err)
	_, err = e.Fulfillment.CreateOrder(ctx, apporder.CreateOrderCommand{
		TenantID:    tenantID,
		LookupToken: c.QRCode,
		Items:       []apporder.ItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	r, err := e.Reports.Reconcile(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.True(t, r.Balanced)
	assert.Equal(t, 3, r.Entries)
	assert.True(t, dec("10").Equal(r.Recharged), "opening entry is not a recharge")
	assert.True(t, dec("7.5").Equal(r.Consumed))
	assert.True(t, dec("22.5").Equal(r.ExpectedBalance))
	assert.True(t, dec("8").Equal(r.ExpectedHeld))
	assert.Equal(t, 1, r.OpenOrders)
	assert.Empty(t, r.ChainBreaks)

	_, err = e.Reports.Reconcile(ctx, uuid.New(), c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_Reconcile_AmountsAtLedgerScale(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "0.0001")

	for _, amount := range []string{"1.0001", "0.0009", "2.5"} {
		_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec(amount)})
		require.NoError(t, err)
	}
	for _, amount := range []string{"0.0001", "1.2345"} {
		_, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec(amount)})
		require.NoError(t, err)
	}
	_, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("0.00005")})
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	r, err := e.Reports.Reconcile(ctx, tenantID, c.ID)
	require.NoError(t, err)
	assert.True(t, r.Balanced)
	assert.Empty(t, r.ChainBreaks)
	assert.True(t, dec("2.2665").Equal(r.Balance))
	assert.True(t, r.ExpectedBalance.Equal(r.Balance))
}

func TestReconcile_DetectsDrift(t *testing.T) {
	c, err := ledger.NewCustomer(uuid.New(), nil, "Ana", ledger.BalanceTypeMoney, dec("10"), "SB-DRIFT")
	require.NoError(t, err)
	opening, err := ledger.NewTransaction(c, ledger.EntryTypeRecharge, dec("10"), ledger.EntryMeta{Source: ledger.SourceOpening})
	require.NoError(t, err)
	require.NoError(t, c.Credit(dec("5")))
	recharge, err := ledger.NewTransaction(c, ledger.EntryTypeRecharge, dec("5"), ledger.EntryMeta{Source: ledger.SourceManual})
	require.NoError(t, err)

	r := report.Reconcile(c, []*ledger.Transaction{opening, recharge})
	assert.True(t, r.Balanced)

	recharge.BalanceAfter = dec("16")
	r = report.Reconcile(c, []*ledger.Transaction{opening, recharge})
	assert.False(t, r.Balanced)
	assert.Equal(t, []uuid.UUID{recharge.ID}, r.ChainBreaks)

	recharge.BalanceAfter = dec("15")
	c.Balance = dec("14")
	r = report.Reconcile(c, []*ledger.Transaction{opening, recharge})
	assert.False(t, r.Balanced, "stored balance disagrees with the ledger")
	assert.True(t, dec("15").Equal(r.ExpectedBalance))
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()
	rich := e.Customer(t, tenantID, "Rich", "100")
	e.Customer(t, tenantID, "Poor", "3")
	e.CustomerWith(t, tenantID, appledger.RegisterCustomerRequest{Name: "Pints", BalanceType: ledger.BalanceTypeUnits, InitialBalance: dec("1")})
	gone := e.Customer(t, tenantID, "Gone", "50")
	require.NoError(t, e.CustomerSvc.Deactivate(ctx, tenantID, gone.ID, nil))
	e.Customer(t, uuid.New(), "Elsewhere", "1")

	_, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: rich.ID, Amount: dec("1")})
	require.NoError(t, err)

	d, err := e.Reports.Dashboard(ctx, tenantID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Customers)
	assert.True(t, dec("102").Equal(d.TotalMoney))
	assert.True(t, dec("1").Equal(d.TotalUnits))
	assert.True(t, d.TotalHeld.IsZero())
	assert.Equal(t, int64(5), d.TransactionsToday, "four openings and one consume")

	require.Len(t, d.LowBalance, 2)
	assert.Equal(t, "Pints", d.LowBalance[0].Name)
	assert.Equal(t, "Poor", d.LowBalance[1].Name)

	d, err = e.Reports.Dashboard(ctx, tenantID, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, d.TransactionsToday)
}

func TestService_ExportTransactions(t *testing.T) {
	ctx := context.Background()
	e := apptest.New(t)
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "20")
	_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{
		TenantID: tenantID, CustomerID: c.ID, Amount: dec("10"),
		Payment: &ledger.Payment{Method: ledger.PaymentTransfer, Reference: "TRX-9"},
	})
	require.NoError(t, err)
	_, err = e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("4"), Note: "2 pints"})
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	file, err := e.Reports.ExportTransactions(ctx, tenantID, report.ExportRequest{From: today, To: today})
	require.NoError(t, err)
	assert.Equal(t, 3, file.Rows)
	assert.Equal(t, "movements_"+today+"_"+today+".xlsx", file.Filename)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Movements")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Ana", rows[2][1])
	assert.Equal(t, "recharge", rows[2][2])
	assert.Equal(t, "transfer", rows[2][5])
	assert.Equal(t, "TRX-9", rows[2][6])
	assert.Equal(t, "consume", rows[3][2])

	summary, err := wb.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 6)
	assert.Equal(t, "2", summary[1][1])
	assert.Equal(t, "26", summary[5][1])

	consumes, err := e.Reports.ExportTransactions(ctx, tenantID, report.ExportRequest{From: today, To: today, Type: "consume"})
	require.NoError(t, err)
	assert.Equal(t, 1, consumes.Rows)
}

func TestService_ExportTransactions_Validation(t *testing.T) {
	e := apptest.New(t)
	for name, req := range map[string]report.ExportRequest{
		"missing dates": {},
		"bad from":      {From: "01/02/2026", To: "2026-02-01"},
		"reversed":      {From: "2026-02-02", To: "2026-02-01"},
		"bad type":      {From: "2026-02-01", To: "2026-02-01", Type: "refund"},
	} {
		_, err := e.Reports.ExportTransactions(context.Background(), uuid.New(), req)
		assert.ErrorIs(t, err, shared.ErrInvalidInput, name)
	}
}
