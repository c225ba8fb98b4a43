package ledger

import (
	"testing"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryType(t *testing.T) {
	assert.True(t, EntryTypeRecharge.IsValid())
	assert.True(t, EntryTypeConsume.IsValid())
	assert.False(t, EntryType("refund").IsValid())
	assert.True(t, EntryTypeConsume.Sign().Equal(decimal.NewFromInt(-1)))
}

func TestNewTransaction(t *testing.T) {
	t.Run("records balance after and default note", func(t *testing.T) {
		c := newTestCustomer(t, "0")
		require.NoError(t, c.Credit(dec("50")))

		tx, err := NewTransaction(c, EntryTypeRecharge, dec("50"), EntryMeta{
			Payment: &Payment{Method: PaymentTransfer, Bank: "Banco", Reference: "REF-1"},
		})
		require.NoError(t, err)

		assert.Equal(t, c.ID, tx.CustomerID)
		assert.Equal(t, c.TenantID, tx.TenantID)
		assert.True(t, tx.BalanceAfter.Equal(dec("50")))
		assert.Equal(t, NoteRecharge, tx.Note)
		assert.Equal(t, SourceManual, tx.Source)
		require.NotNil(t, tx.Payment)
		assert.Equal(t, "REF-1", tx.Payment.Reference)
		assert.True(t, tx.SignedAmount().Equal(dec("50")))
	})

	t.Run("opening entry note", func(t *testing.T) {
		c := newTestCustomer(t, "20")
		tx, err := NewTransaction(c, EntryTypeRecharge, dec("20"), EntryMeta{Source: SourceOpening})
		require.NoError(t, err)
		assert.Equal(t, NoteOpening, tx.Note)
	})

	t.Run("empty payment is dropped", func(t *testing.T) {
		c := newTestCustomer(t, "20")
		tx, err := NewTransaction(c, EntryTypeRecharge, dec("1"), EntryMeta{Payment: &Payment{}})
		require.NoError(t, err)
		assert.Nil(t, tx.Payment)
	})

	t.Run("rejects payment on consume", func(t *testing.T) {
		c := newTestCustomer(t, "20")
		_, err := NewTransaction(c, EntryTypeConsume, dec("1"), EntryMeta{Payment: &Payment{Method: PaymentCash}})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects bad type and amount", func(t *testing.T) {
		c := newTestCustomer(t, "20")
		_, err := NewTransaction(c, EntryType("x"), dec("1"), EntryMeta{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = NewTransaction(c, EntryTypeConsume, decimal.Zero, EntryMeta{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestTransaction_AttachItems(t *testing.T) {
	c := newTestCustomer(t, "20")
	item, err := NewLineItem(uuid.New(), "IPA", 2, dec("7.50"))
	require.NoError(t, err)
	assert.True(t, item.Subtotal.Equal(dec("15")))

	tx, err := NewTransaction(c, EntryTypeConsume, dec("15"), EntryMeta{})
	require.NoError(t, err)
	require.NoError(t, tx.AttachItems([]LineItem{item}))
	assert.Len(t, tx.Items, 1)
	assert.ErrorIs(t, tx.AttachItems([]LineItem{item}), shared.ErrInvalidTransition)

	recharge, err := NewTransaction(c, EntryTypeRecharge, dec("1"), EntryMeta{})
	require.NoError(t, err)
	assert.ErrorIs(t, recharge.AttachItems([]LineItem{item}), shared.ErrInvalidInput)
}

func TestNewLineItem(t *testing.T) {
	_, err := NewLineItem(uuid.New(), "IPA", 0, dec("1"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewLineItem(uuid.New(), "IPA", 1, dec("-1"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewLineItem(uuid.New(), "IPA", 3, dec("0.33333"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	a, _ := NewLineItem(uuid.New(), "IPA", 2, dec("3"))
	b, _ := NewLineItem(uuid.New(), "Stout", 1, dec("4.25"))
	assert.Equal(t, "10.25", SumItems([]LineItem{a, b}).StringFixed(2))
}
