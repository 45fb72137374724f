package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed amount of money, counted in minor currency units.
//
// Money is never represented as a floating point number. Arithmetic is only
// defined between amounts of the same currency.
type Money struct {
	Cents    int64  `json:"cents"`
	Currency string `json:"currency" example:"EUR"`
}

var ErrCurrencyMismatch = errors.New("amounts have different currencies")

// NewMoney returns an amount of cents in the given currency.
func NewMoney(cents int64, currency string) Money {
	return Money{Cents: cents, Currency: currency}
}

// ZeroMoney returns the zero amount for a currency.
func ZeroMoney(currency string) Money {
	return Money{Currency: currency}
}

// Add returns m + n.
func (m Money) Add(n Money) (Money, error) {
	if err := m.check(n); err != nil {
		return Money{}, err
	}

	return Money{Cents: m.Cents + n.Cents, Currency: pick(m.Currency, n.Currency)}, nil
}

// Sub returns m - n.
func (m Money) Sub(n Money) (Money, error) {
	if err := m.check(n); err != nil {
		return Money{}, err
	}

	return Money{Cents: m.Cents - n.Cents, Currency: pick(m.Currency, n.Currency)}, nil
}

// Neg returns the amount with its sign inverted.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents, Currency: m.Currency}
}

// Cmp compares two amounts of the same currency. It returns -1 when m < n,
// 0 when both are equal and 1 when m > n.
func (m Money) Cmp(n Money) (int, error) {
	if err := m.check(n); err != nil {
		return 0, err
	}

	switch {
	case m.Cents < n.Cents:
		return -1, nil
	case m.Cents > n.Cents:
		return 1, nil
	}

	return 0, nil
}

func (m Money) IsPositive() bool {
	return m.Cents > 0
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Equal reports whether both amounts have the same currency and value.
func (m Money) Equal(n Money) bool {
	return m.Currency == n.Currency && m.Cents == n.Cents
}

// Decimal returns the amount in major units for display and ratio
// calculations. Minor units are always hundredths here.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String returns the amount formatted as "EUR 12.34".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Decimal().StringFixed(2))
}

// check verifies that arithmetic between both amounts is defined.
//
// The zero Money value has no currency and acts as a neutral element so
// that sums can start from it.
func (m Money) check(n Money) error {
	if m.Currency != "" && n.Currency != "" && m.Currency != n.Currency {
		return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, n.Currency)
	}

	return nil
}

func pick(a, b string) string {
	if a != "" {
		return a
	}

	return b
}
