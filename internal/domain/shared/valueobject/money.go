package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places a ledger amount can carry. Every
// balance, hold, price and amount column is DECIMAL(18,4).
const Scale int32 = 4

// Money is an amount at ledger scale. It is immutable; all operations
// return new values, and sums, differences and integer multiples of
// in-scale amounts stay in scale.
type Money struct {
	amount decimal.Decimal
}

// FitsScale reports whether d can be stored without rounding
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}

// NewMoney creates Money, rejecting amounts finer than Scale
func NewMoney(amount decimal.Decimal) (Money, error) {
	if !FitsScale(amount) {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Amount cannot have more than %d decimal places", Scale))
	}
	return Money{amount: amount}, nil
}

// NewPositiveMoney creates Money that must be greater than zero
func NewPositiveMoney(amount decimal.Decimal) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Amount must be greater than zero")
	}
	return NewMoney(amount)
}

// NewNonNegativeMoney creates Money that must not be below zero
func NewNonNegativeMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Amount cannot be negative")
	}
	return NewMoney(amount)
}

// ParseMoney creates Money from its string form
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Invalid amount: "+s)
	}
	return NewMoney(d)
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Subtract returns the difference
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MultiplyByInt returns the amount multiplied by an integer, as for a line
// subtotal
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Round returns the amount rounded half away from zero to places, capped at Scale
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(min(places, Scale))}
}

// RoundBank returns the amount with banker's rounding to places, capped at Scale
func (m Money) RoundBank(places int32) Money {
	return Money{amount: m.amount.RoundBank(min(places, Scale))}
}

// Equals returns true if both amounts are equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThanOrEqual returns true if this amount is at most the other
func (m Money) LessThanOrEqual(other Money) bool {
	return m.amount.LessThanOrEqual(other.amount)
}

// GreaterThan returns true if this amount exceeds the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String returns the amount without trailing zeros
func (m Money) String() string {
	return m.amount.String()
}

// StringFixed returns the amount with fixed decimal places
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

// MarshalJSON encodes the amount as a JSON string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.String())
}

// UnmarshalJSON accepts a JSON string or number and enforces Scale
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	m.amount = d
	return nil
}

// Sum adds amounts
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
