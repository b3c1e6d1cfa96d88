package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Amount is an exact, currency-tagged monetary value. Arithmetic across
// currencies is rejected rather than silently coerced.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency enums.Currency  `json:"currency"`
}

// New builds an Amount from a decimal value.
func New(value decimal.Decimal, currency enums.Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency enums.Currency) Amount {
	return Amount{Value: decimal.Zero, Currency: currency}
}

// FromString parses a decimal string into an Amount.
func FromString(value string, currency enums.Currency) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return Amount{Value: d, Currency: currency}, nil
}

// Add returns a + b, rejecting mismatched currencies.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency}, nil
}

// Sub returns a - b, rejecting mismatched currencies.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameCurrency(b); err != nil {
		return Amount{}, err
	}
	return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency}, nil
}

// MulInt scales the amount by an integer quantity.
func (a Amount) MulInt(qty int) Amount {
	return Amount{Value: a.Value.Mul(decimal.NewFromInt(int64(qty))), Currency: a.Currency}
}

// MulRate applies a fractional rate (e.g. a tax rate) and rounds to cents.
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return Amount{Value: a.Value.Mul(rate).Round(2), Currency: a.Currency}
}

// Cmp compares two amounts: -1 if a < b, 0 if equal, 1 if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameCurrency(b); err != nil {
		return 0, err
	}
	return a.Value.Cmp(b.Value), nil
}

// Equal reports value and currency equality.
func (a Amount) Equal(b Amount) bool {
	return a.Currency == b.Currency && a.Value.Equal(b.Value)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Value.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (a Amount) IsNegative() bool {
	return a.Value.IsNegative()
}

// String renders the amount with its currency code.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Value.StringFixed(2), a.Currency)
}

func (a Amount) sameCurrency(b Amount) error {
	if a.Currency != b.Currency {
		return fmt.Errorf("currency mismatch: %s vs %s", a.Currency, b.Currency)
	}
	return nil
}

// Total computes subtotal + tax - discount, enforcing a single currency.
func Total(subtotal, tax, discount Amount) (Amount, error) {
	sum, err := subtotal.Add(tax)
	if err != nil {
		return Amount{}, err
	}
	return sum.Sub(discount)
}
