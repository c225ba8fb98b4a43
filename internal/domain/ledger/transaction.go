package ledger

import (
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry
type EntryType string

const (
	EntryTypeRecharge EntryType = "recharge"
	EntryTypeConsume  EntryType = "consume"
)

// IsValid returns true if the entry type is known
func (t EntryType) IsValid() bool {
	return t == EntryTypeRecharge || t == EntryTypeConsume
}

// Sign returns +1 for recharges and -1 for consumes
func (t EntryType) Sign() decimal.Decimal {
	if t == EntryTypeConsume {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// EntrySource records what produced a ledger entry
type EntrySource string

const (
	// SourceOpening is the entry written at registration for the initial balance.
	// It is already reflected in Customer.InitialBalance.
	SourceOpening EntrySource = "opening"
	SourceManual  EntrySource = "manual"
	SourceOrder   EntrySource = "order"
)

// Default notes when the caller supplies none
const (
	NoteOpening  = "Initial balance"
	NoteRecharge = "Recharge"
	NoteConsume  = "Consume"
)

// PaymentMethod for recharges
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCard     PaymentMethod = "card"
	PaymentMobile   PaymentMethod = "mobile"
	PaymentOther    PaymentMethod = "other"
)

// IsValid returns true if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCard, PaymentMobile, PaymentOther:
		return true
	}
	return false
}

// Payment is optional recharge metadata
type Payment struct {
	Method    PaymentMethod
	Bank      string
	Reference string
}

// IsZero reports whether no payment metadata was supplied
func (p *Payment) IsZero() bool {
	return p == nil || (p.Method == "" && p.Bank == "" && p.Reference == "")
}

// LineItem is one priced line of an order or consume
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewLineItem prices a line, freezing the subtotal
func NewLineItem(productID uuid.UUID, name string, quantity int, unitPrice decimal.Decimal) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return LineItem{}, shared.NewDomainError(shared.CodeInvalidInput, "Unit price cannot be negative")
	}
	price, err := valueobject.NewMoney(unitPrice)
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: price.Amount(),
		Subtotal:  price.MultiplyByInt(int64(quantity)).Amount(),
	}, nil
}

// SumItems totals line subtotals
func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// Transaction is an immutable ledger entry. The only permitted change after
// creation is backfilling Items once an order is fulfilled.
type Transaction struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	CustomerID   uuid.UUID
	StaffID      *uuid.UUID
	Type         EntryType
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Note         string
	Payment      *Payment
	Items        []LineItem
	Source       EntrySource
	OrderID      *uuid.UUID
	CreatedAt    time.Time
}

// EntryMeta carries the optional fields of a ledger entry
type EntryMeta struct {
	StaffID *uuid.UUID
	Note    string
	Payment *Payment
	Items   []LineItem
	Source  EntrySource
	OrderID *uuid.UUID
}

// NewTransaction builds a ledger entry for a balance that has already been applied
func NewTransaction(c *Customer, entryType EntryType, amount decimal.Decimal, meta EntryMeta) (*Transaction, error) {
	if !entryType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Transaction type must be 'recharge' or 'consume'")
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if entryType == EntryTypeConsume && !meta.Payment.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment metadata only applies to recharges")
	}
	source := meta.Source
	if source == "" {
		source = SourceManual
	}
	note := meta.Note
	if note == "" {
		note = defaultNote(entryType, source)
	}
	var payment *Payment
	if !meta.Payment.IsZero() {
		p := *meta.Payment
		payment = &p
	}
	var items []LineItem
	if len(meta.Items) > 0 {
		items = append([]LineItem(nil), meta.Items...)
	}
	return &Transaction{
		ID:           uuid.New(),
		TenantID:     c.TenantID,
		CustomerID:   c.ID,
		StaffID:      meta.StaffID,
		Type:         entryType,
		Amount:       amount,
		BalanceAfter: c.Balance,
		Note:         note,
		Payment:      payment,
		Items:        items,
		Source:       source,
		OrderID:      meta.OrderID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func defaultNote(t EntryType, s EntrySource) string {
	switch {
	case s == SourceOpening:
		return NoteOpening
	case t == EntryTypeRecharge:
		return NoteRecharge
	default:
		return NoteConsume
	}
}

// SignedAmount returns the amount with the entry's sign applied
func (t *Transaction) SignedAmount() decimal.Decimal {
	return t.Amount.Mul(t.Type.Sign())
}

// AttachItems backfills order line items onto a consume entry
func (t *Transaction) AttachItems(items []LineItem) error {
	if t.Type != EntryTypeConsume {
		return shared.NewDomainError(shared.CodeInvalidInput, "Items can only be attached to consume entries")
	}
	if len(t.Items) > 0 {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Transaction already has items")
	}
	t.Items = append([]LineItem(nil), items...)
	return nil
}
