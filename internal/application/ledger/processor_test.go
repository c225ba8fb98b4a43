package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Rmontilla83/saldobirras-pro/internal/application/apptest"
	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProcessor_RechargeThenConsume(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	staff := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "0")
	e.Events.Reset()

	rech, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{
		TenantID:   tenantID,
		CustomerID: c.ID,
		Amount:     dec("50"),
		Note:       "  cash <b>top up</b> ",
		Payment:    &ledger.Payment{Method: ledger.PaymentCash},
		StaffID:    &staff,
	})
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(rech.NewBalance))
	assert.Equal(t, "recharge", rech.Type)

	cons, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{
		TenantID:   tenantID,
		CustomerID: c.ID,
		Amount:     dec("12.50"),
		StaffID:    &staff,
	})
	require.NoError(t, err)
	assert.True(t, dec("37.50").Equal(cons.NewBalance))
	assert.True(t, dec("37.50").Equal(cons.Available))

	stored := e.Reload(t, tenantID, c.ID)
	assert.True(t, dec("37.50").Equal(stored.Balance))

	entries := e.Entries(t, tenantID, c.ID)
	require.Len(t, entries, 2)
	assert.True(t, dec("50").Equal(entries[0].BalanceAfter))
	assert.Equal(t, ledger.SourceManual, entries[0].Source)
	assert.NotContains(t, entries[0].Note, "<b>")
	require.NotNil(t, entries[0].Payment)
	assert.Equal(t, ledger.PaymentCash, entries[0].Payment.Method)
	assert.True(t, dec("37.50").Equal(entries[1].BalanceAfter))

	assert.Equal(t, []string{ledger.EventTypeBalanceRecharged, ledger.EventTypeBalanceConsumed}, e.Events.Types())
}

func TestProcessor_Validation(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "10")

	_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("0")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("-1")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.Processor.Recharge(ctx, appledger.RechargeCommand{
		TenantID: tenantID, CustomerID: c.ID, Amount: dec("5"),
		Payment: &ledger.Payment{Method: "barter"},
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: uuid.New(), Amount: dec("5")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: uuid.New(), CustomerID: c.ID, Amount: dec("5")})
	assert.ErrorIs(t, err, shared.ErrNotFound, "customer of another tenant")

	assert.Len(t, e.Entries(t, tenantID, c.ID), 1)
}

func TestProcessor_RejectsAmountsBeyondLedgerScale(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "10")

	_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("1.00005")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Equal(t, shared.CodeInvalidInput, appledger.ErrorCode(err))

	_, err = e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("0.00001")})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	stored := e.Reload(t, tenantID, c.ID)
	assert.True(t, dec("10").Equal(stored.Balance))
	assert.Len(t, e.Entries(t, tenantID, c.ID), 1)

	res, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("1.00050")})
	require.NoError(t, err, "trailing zeros fit the scale")
	assert.True(t, dec("11.0005").Equal(res.NewBalance))
}

func TestProcessor_RejectsInactiveCustomer(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "10")
	require.NoError(t, e.CustomerSvc.Deactivate(ctx, tenantID, c.ID, nil))

	_, err := e.Processor.Recharge(ctx, appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("5")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("5")})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	stored := e.Reload(t, tenantID, c.ID)
	assert.True(t, dec("10").Equal(stored.Balance))
	assert.Len(t, e.Entries(t, tenantID, c.ID), 1)
}

func TestProcessor_InsufficientFunds(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "10")

	_, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("10.01")})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	assert.Equal(t, shared.CodeInsufficientFunds, appledger.ErrorCode(err))

	stored := e.Reload(t, tenantID, c.ID)
	assert.True(t, dec("10").Equal(stored.Balance))
	assert.Len(t, e.Entries(t, tenantID, c.ID), 1, "rejected consume appends nothing")

	res, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("10")})
	require.NoError(t, err)
	assert.True(t, res.NewBalance.IsZero(), "exact balance may be consumed")
}

func TestProcessor_AllowNegative(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.CustomerWith(t, tenantID, appledger.RegisterCustomerRequest{Name: "Tab", AllowNegative: true})

	res, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("8")})
	require.NoError(t, err)
	assert.True(t, dec("-8").Equal(res.NewBalance))
	assert.True(t, dec("-8").Equal(res.Available))
}

func TestProcessor_IdempotencyKey(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "0")
	cmd := appledger.RechargeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("5"), IdempotencyKey: "pos-1"}

	_, err := e.Processor.Recharge(ctx, cmd)
	require.NoError(t, err)
	_, err = e.Processor.Recharge(ctx, cmd)
	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

	other := cmd
	other.TenantID = uuid.New()
	_, err = e.Processor.Recharge(ctx, other)
	assert.ErrorIs(t, err, shared.ErrNotFound, "keys are scoped per tenant")

	failing := appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("99"), IdempotencyKey: "pos-2"}
	_, err = e.Processor.Consume(ctx, failing)
	assert.ErrorIs(t, err, shared.ErrInsufficientFunds)
	failing.Amount = dec("1")
	_, err = e.Processor.Consume(ctx, failing)
	assert.NoError(t, err, "a failed operation gives its key back")

	assert.True(t, dec("4").Equal(e.Reload(t, tenantID, c.ID).Balance))
}

func TestProcessor_ConcurrentConsumesNeverOverdraw(t *testing.T) {
	e := apptest.New(t)
	ctx := context.Background()
	tenantID := uuid.New()
	c := e.Customer(t, tenantID, "Ana", "10")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Processor.Consume(ctx, appledger.ConsumeCommand{TenantID: tenantID, CustomerID: c.ID, Amount: dec("3")})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, shared.ErrInsufficientFunds) || errors.Is(err, shared.ErrConcurrencyConflict), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	stored := e.Reload(t, tenantID, c.ID)
	assert.False(t, stored.Balance.IsNegative())
	assert.True(t, dec("10").Sub(dec("3").Mul(decimal.NewFromInt(int64(accepted)))).Equal(stored.Balance))
	assert.Len(t, e.Entries(t, tenantID, c.ID), 1+accepted)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func TestPublish(t *testing.T) {
	tenantID := uuid.New()
	c, err := ledger.NewCustomer(tenantID, nil, "Ana", ledger.BalanceTypeMoney, decimal.Zero, "SB-TEST")
	require.NoError(t, err)
	events := c.GetDomainEvents()

	t.Run("failure is swallowed", func(t *testing.T) {
		pub := new(mockPublisher)
		pub.On("Publish", mock.Anything, events).Return(errors.New("bus down")).Once()

		appledger.Publish(context.Background(), pub, zap.NewNop(), events...)
		pub.AssertExpectations(t)
	})

	t.Run("nothing to publish", func(t *testing.T) {
		pub := new(mockPublisher)
		appledger.Publish(context.Background(), pub, zap.NewNop())
		appledger.Publish(context.Background(), nil, zap.NewNop(), events...)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}
