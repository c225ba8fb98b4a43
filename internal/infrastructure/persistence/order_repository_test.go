package persistence

import (
	"context"
	"errors"
	"testing"

	appledger "github.com/Rmontilla83/saldobirras-pro/internal/application/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/catalog"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/order"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/persistence/sqlitetest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, tenantID, customerID uuid.UUID) *order.Order {
	t.Helper()
	item, err := ledger.NewLineItem(uuid.New(), "Stout", 2, decimal.RequireFromString("4.50"))
	require.NoError(t, err)
	o, err := order.NewOrder(tenantID, customerID, []ledger.LineItem{item}, nil, "")
	require.NoError(t, err)
	return o
}

func TestGormOrderRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("round trips items and total", func(t *testing.T) {
		repo := NewGormOrderRepository(sqlitetest.New(t))
		o := newOrder(t, tenantID, uuid.New())
		require.NoError(t, repo.Create(ctx, o))

		found, err := repo.FindForUpdate(ctx, tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, found.Status)
		require.Len(t, found.Items, 1)
		assert.Equal(t, 2, found.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(9).Equal(found.Total))
		assert.False(t, found.HoldReleased)
	})

	t.Run("compare and set status loses against a concurrent change", func(t *testing.T) {
		repo := NewGormOrderRepository(sqlitetest.New(t))
		o := newOrder(t, tenantID, uuid.New())
		require.NoError(t, repo.Create(ctx, o))

		first, err := repo.FindByID(ctx, tenantID, o.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, tenantID, o.ID)
		require.NoError(t, err)

		require.NoError(t, first.TransitionTo(order.StatusDelivered))
		require.NoError(t, repo.CompareAndSetStatus(ctx, first, order.StatusPending))

		require.NoError(t, second.TransitionTo(order.StatusCancelled))
		err = repo.CompareAndSetStatus(ctx, second, order.StatusPending)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		stored, err := repo.FindByID(ctx, tenantID, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, stored.Status)
	})

	t.Run("hold release flag flips once", func(t *testing.T) {
		repo := NewGormOrderRepository(sqlitetest.New(t))
		customerID := uuid.New()
		o := newOrder(t, tenantID, customerID)
		require.NoError(t, repo.Create(ctx, o))

		outstanding, err := repo.ListOutstandingByCustomer(ctx, tenantID, customerID)
		require.NoError(t, err)
		assert.Len(t, outstanding, 1)

		claimed, err := repo.MarkHoldReleased(ctx, tenantID, o.ID)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = repo.MarkHoldReleased(ctx, tenantID, o.ID)
		require.NoError(t, err)
		assert.False(t, claimed)

		outstanding, err = repo.ListOutstandingByCustomer(ctx, tenantID, customerID)
		require.NoError(t, err)
		assert.Empty(t, outstanding)
	})

	t.Run("list filters by status", func(t *testing.T) {
		repo := NewGormOrderRepository(sqlitetest.New(t))
		a := newOrder(t, tenantID, uuid.New())
		b := newOrder(t, tenantID, uuid.New())
		require.NoError(t, repo.Create(ctx, a))
		require.NoError(t, repo.Create(ctx, b))
		require.NoError(t, b.TransitionTo(order.StatusPreparing))
		require.NoError(t, repo.CompareAndSetStatus(ctx, b, order.StatusPending))

		preparing := order.StatusPreparing
		list, total, err := repo.List(ctx, tenantID, order.Filter{Status: &preparing})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, b.ID, list[0].ID)

		_, err = repo.FindByID(ctx, uuid.New(), a.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormCatalogRepositories(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	db := sqlitetest.New(t)
	products := NewGormProductRepository(db)
	zones := NewGormZoneRepository(db)

	ipa, err := catalog.NewProduct(tenantID, "IPA", decimal.NewFromInt(6))
	require.NoError(t, err)
	stout, err := catalog.NewProduct(tenantID, "Stout", decimal.NewFromInt(7))
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, ipa))
	require.NoError(t, products.Create(ctx, stout))

	off := false
	require.NoError(t, stout.Apply(catalog.ProductInput{IsAvailable: &off}))
	require.NoError(t, products.Save(ctx, stout))

	available, err := products.List(ctx, tenantID, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "IPA", available[0].Name)

	found, err := products.FindByIDs(ctx, tenantID, []uuid.UUID{ipa.ID, stout.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	terrace, err := catalog.NewZone(tenantID, "Terrace")
	require.NoError(t, err)
	require.NoError(t, zones.Create(ctx, terrace))
	require.NoError(t, terrace.Apply(catalog.ZoneInput{IsActive: &off}))
	require.NoError(t, zones.Save(ctx, terrace))

	active, err := zones.List(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	stored, err := zones.FindByID(ctx, tenantID, terrace.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, catalog.DefaultZoneColor, stored.Color)
}

func TestGormTransactionScope(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("rolls back every write when fn fails", func(t *testing.T) {
		db := sqlitetest.New(t)
		scope := NewGormTransactionScope(db)
		c := newCustomer(t, tenantID, "Rollback", "10")

		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			if err := repos.Customers().Create(ctx, c); err != nil {
				return err
			}
			tx, err := ledger.NewTransaction(c, ledger.EntryTypeRecharge, c.InitialBalance, ledger.EntryMeta{Source: ledger.SourceOpening})
			if err != nil {
				return err
			}
			if err := repos.Transactions().Create(ctx, tx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormCustomerRepository(db).FindByID(ctx, tenantID, c.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		n, err := NewGormTransactionRepository(db).CountSince(ctx, tenantID, c.CreatedAt.Add(-1))
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db := sqlitetest.New(t)
		scope := NewGormTransactionScope(db)
		c := newCustomer(t, tenantID, "Commit", "0")

		require.NoError(t, scope.Execute(ctx, func(repos appledger.TransactionalRepositories) error {
			return repos.Customers().Create(ctx, c)
		}))

		_, err := NewGormCustomerRepository(db).FindByID(ctx, tenantID, c.ID)
		assert.NoError(t, err)
	})
}

func TestGormHoldMetricsProvider(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	customers := NewGormCustomerRepository(db)
	tenantA, tenantB := uuid.New(), uuid.New()

	for _, tenant := range []uuid.UUID{tenantA, tenantA, tenantB} {
		c := newCustomer(t, tenant, "Holder", "20")
		require.NoError(t, customers.Create(ctx, c))
		require.NoError(t, c.Hold(decimal.NewFromInt(5)))
		require.NoError(t, customers.SaveWithLock(ctx, c))
	}
	require.NoError(t, customers.Create(ctx, newCustomer(t, uuid.New(), "Idle", "20")))

	held, err := NewGormHoldMetricsProvider(db).OutstandingHoldsByTenant(ctx)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.True(t, decimal.NewFromInt(10).Equal(held[tenantA]))
	assert.True(t, decimal.NewFromInt(5).Equal(held[tenantB]))
}
