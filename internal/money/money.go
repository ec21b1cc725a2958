// Package money implements a currency-bound exact decimal value.
//
// Every result is rounded once to the currency's fractional digits using
// round-half-to-even. Operands of different currencies never combine.
package money

import (
	"errors"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when operands carry different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidAmount is returned for unparsable or otherwise unusable amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// DefaultFraction is used for codes unknown to the currency table.
const DefaultFraction = 2

// Parse limits. Rounding a decimal rescales it by its exponent, so inputs
// such as "1e999999999" are refused before they get there.
const (
	maxAmountLen = 64
	maxExponent  = 64
)

// Money is an immutable amount of a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// Code normalizes a currency code.
func Code(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// Fraction returns the number of fractional digits of a currency.
func Fraction(currency string) int {
	if c := gomoney.GetCurrency(Code(currency)); c != nil {
		return c.Fraction
	}
	return DefaultFraction
}

// Register adds or replaces a commodity's precision in the currency table.
// It must be called before Money values of that code are used concurrently.
func Register(code string, fraction int) {
	code = Code(code)
	gomoney.AddCurrency(code, code, "1 $", ".", ",", fraction)
}

// New returns amount in currency rounded to the currency's precision.
func New(amount decimal.Decimal, currency string) Money {
	currency = Code(currency)
	return Money{
		amount:   amount.RoundBank(int32(Fraction(currency))),
		currency: currency,
	}
}

// Zero returns a zero amount of currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: Code(currency)}
}

// Parse reads a decimal string such as "-14.995" as an amount of currency.
func Parse(s, currency string) (Money, error) {
	if Code(currency) == "" {
		return Money{}, fmt.Errorf("%w: empty currency for %q", ErrInvalidAmount, s)
	}
	s = strings.TrimSpace(s)
	if len(s) > maxAmountLen {
		return Money{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, maxAmountLen)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return Money{}, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return New(d, currency), nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s, currency string) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Equal reports whether m and n have the same currency and amount.
func (m Money) Equal(n Money) bool {
	return m.currency == n.currency && m.amount.Equal(n.amount)
}

func (m Money) Neg() Money { return Money{amount: m.amount.Neg(), currency: m.currency} }
func (m Money) Abs() Money { return Money{amount: m.amount.Abs(), currency: m.currency} }

// Add returns m+n.
func (m Money) Add(n Money) (Money, error) {
	if err := m.same(n); err != nil {
		return Money{}, err
	}
	return New(m.amount.Add(n.amount), m.currency), nil
}

// Sub returns m-n.
func (m Money) Sub(n Money) (Money, error) {
	if err := m.same(n); err != nil {
		return Money{}, err
	}
	return New(m.amount.Sub(n.amount), m.currency), nil
}

// Cmp returns -1, 0 or +1 as m is less than, equal to or greater than n.
func (m Money) Cmp(n Money) (int, error) {
	if err := m.same(n); err != nil {
		return 0, err
	}
	return m.amount.Cmp(n.amount), nil
}

func (m Money) same(n Money) error {
	if m.currency != n.currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, n.currency)
	}
	return nil
}

// String returns the plain decimal form with the currency's digits, e.g. "-9.99".
func (m Money) String() string {
	return m.amount.StringFixed(int32(Fraction(m.currency)))
}

// Format renders m for display using the currency's symbol template,
// e.g. "$9.99". Codes missing from the table render as "9.99 XYZ".
func (m Money) Format() string {
	c := gomoney.GetCurrency(m.currency)
	if c == nil {
		return m.String() + " " + m.currency
	}
	minor := m.amount.Shift(int32(c.Fraction)).IntPart()
	return gomoney.New(minor, m.currency).Display()
}

// Sum adds values of currency. An empty list sums to Zero(currency).
func Sum(currency string, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		var err error
		if total, err = total.Add(v); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
