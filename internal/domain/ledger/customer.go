package ledger

import (
	"regexp"
	"strings"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceType is the unit a customer's balance is denominated in
type BalanceType string

const (
	BalanceTypeMoney BalanceType = "money"
	BalanceTypeUnits BalanceType = "units"
)

// IsValid returns true if the balance type is known
func (t BalanceType) IsValid() bool {
	return t == BalanceTypeMoney || t == BalanceTypeUnits
}

const (
	QRCodePrefix  = "SB-"
	maxNameLength = 200
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Customer holds a prepaid (or postpaid, with AllowNegative) balance at one venue.
// It is the aggregate root for every balance and hold mutation.
//
// Balance changes only through Credit/Debit, which the ledger store pairs
// with an appended Transaction. BalanceHeld changes only through Hold/Release.
type Customer struct {
	shared.TenantAggregateRoot
	Name           string
	Email          string
	Phone          string
	BalanceType    BalanceType
	Balance        decimal.Decimal
	BalanceHeld    decimal.Decimal
	InitialBalance decimal.Decimal
	AllowNegative  bool
	QRCode         string
	PIN            *string
	IsActive       bool
}

// NewCustomer registers a customer with an opening balance. The balance is
// set to initialBalance here; the caller records the matching opening entry.
func NewCustomer(tenantID uuid.UUID, createdBy *uuid.UUID, name string, balanceType BalanceType, initialBalance decimal.Decimal, qrCode string) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !balanceType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Balance type must be 'money' or 'units'")
	}
	if initialBalance.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Initial balance cannot be negative")
	}
	if _, err := valueobject.NewMoney(initialBalance); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(qrCode, QRCodePrefix) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Lookup token must start with "+QRCodePrefix)
	}

	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, createdBy),
		Name:                name,
		BalanceType:         balanceType,
		Balance:             initialBalance,
		BalanceHeld:         decimal.Zero,
		InitialBalance:      initialBalance,
		QRCode:              qrCode,
		IsActive:            true,
	}
	c.AddDomainEvent(NewCustomerRegisteredEvent(c))
	return c, nil
}

// Available is balance minus outstanding holds, the only figure compared
// against new holds and direct consumes.
func (c *Customer) Available() decimal.Decimal {
	return c.Balance.Sub(c.BalanceHeld)
}

// CanCover reports whether amount fits in the available balance plus
// reserved, an amount already held on the caller's behalf.
func (c *Customer) CanCover(amount, reserved decimal.Decimal) bool {
	if c.AllowNegative {
		return true
	}
	return amount.LessThanOrEqual(c.Available().Add(reserved))
}

// Credit increases the balance. Only the ledger store calls this.
func (c *Customer) Credit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	c.Balance = c.Balance.Add(amount)
	c.Touch()
	return nil
}

// Debit decreases the balance without re-checking funds; the transaction
// processor has already done so under the same row lock.
func (c *Customer) Debit(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	c.Balance = c.Balance.Sub(amount)
	c.Touch()
	return nil
}

// Hold reserves amount against the available balance
func (c *Customer) Hold(amount decimal.Decimal) error {
	if err := validateAmount(amount); err != nil {
		return err
	}
	if !c.CanCover(amount, decimal.Zero) {
		return shared.NewDomainError(shared.CodeInsufficientFunds,
			"Insufficient available balance: "+c.Available().StringFixed(2)+" available, "+amount.StringFixed(2)+" requested")
	}
	c.BalanceHeld = c.BalanceHeld.Add(amount)
	c.Touch()
	return nil
}

// Release decrements the held counter, clamped at zero. It reports whether
// clamping happened, which means the counter had drifted.
func (c *Customer) Release(amount decimal.Decimal) (clamped bool) {
	next := c.BalanceHeld.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
		clamped = true
	}
	c.BalanceHeld = next
	c.Touch()
	return clamped
}

// ProfileUpdate carries optional profile changes; nil fields are left alone
type ProfileUpdate struct {
	Name          *string
	Email         *string
	Phone         *string
	PIN           *string // empty string clears the PIN
	AllowNegative *bool
}

// IsEmpty reports whether the update carries no change
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.PIN == nil && u.AllowNegative == nil
}

// UpdateProfile applies profile changes. Balance fields are never touched.
func (c *Customer) UpdateProfile(u ProfileUpdate) error {
	if u.IsEmpty() {
		return shared.NewDomainError(shared.CodeInvalidInput, "No changes to apply")
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validateName(name); err != nil {
			return err
		}
		c.Name = name
	}
	if u.Email != nil {
		c.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		c.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.PIN != nil {
		if err := c.SetPIN(*u.PIN); err != nil {
			return err
		}
	}
	if u.AllowNegative != nil {
		c.AllowNegative = *u.AllowNegative
	}
	c.Touch()
	c.AddDomainEvent(NewCustomerUpdatedEvent(c, EventTypeCustomerUpdated))
	return nil
}

// SetPIN sets or clears (empty string) the 4-digit portal PIN
func (c *Customer) SetPIN(pin string) error {
	if pin == "" {
		c.PIN = nil
		return nil
	}
	if !pinPattern.MatchString(pin) {
		return shared.NewDomainError(shared.CodeInvalidInput, "PIN must be exactly 4 digits")
	}
	c.PIN = &pin
	return nil
}

// Deactivate hides the customer from lookups. Customers are never deleted.
func (c *Customer) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Customer is already inactive")
	}
	c.IsActive = false
	c.Touch()
	c.AddDomainEvent(NewCustomerUpdatedEvent(c, EventTypeCustomerDeactivated))
	return nil
}

// EnsureActive rejects new balance activity for a deactivated customer.
// Orders placed before deactivation can still be delivered or cancelled.
func (c *Customer) EnsureActive() error {
	if !c.IsActive {
		return shared.NewDomainError(shared.CodeNotFound, "Customer not found")
	}
	return nil
}

// IsLowBalance reports whether the available balance is at or below threshold
func (c *Customer) IsLowBalance(threshold decimal.Decimal) bool {
	return c.Available().LessThanOrEqual(threshold)
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot be empty")
	}
	if len([]rune(name)) > maxNameLength {
		return shared.NewDomainError(shared.CodeInvalidInput, "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateAmount(amount decimal.Decimal) error {
	_, err := valueobject.NewPositiveMoney(amount)
	return err
}

// ValidateAmount checks that amount is positive and storable at ledger scale
func ValidateAmount(amount decimal.Decimal) error {
	return validateAmount(amount)
}
