package entities

import (
	"fmt"

	"github.com/febry-setyawan/loyalty/internal/application/errs"
	"github.com/shopspring/decimal"
)

// Points is an immutable non-negative point quantity.
// The zero value is valid and equals zero points.
type Points struct {
	value decimal.Decimal
}

// NewPoints fails when the value is negative.
func NewPoints(value decimal.Decimal) (Points, error) {
	if value.IsNegative() {
		return Points{}, fmt.Errorf("%w: points value cannot be negative: %s",
			errs.ErrInvalidQuantity, value)
	}
	return Points{value: value}, nil
}

// NewPointsFromInt wraps a non-negative integer point count.
func NewPointsFromInt(value int64) (Points, error) {
	return NewPoints(decimal.NewFromInt(value))
}

// ZeroPoints returns zero points.
func ZeroPoints() Points {
	return Points{value: decimal.Zero}
}

func (p Points) Decimal() decimal.Decimal { return p.value }

// Int64 truncates towards zero; used for response payloads.
func (p Points) Int64() int64 { return p.value.IntPart() }

func (p Points) String() string { return p.value.String() }

func (p Points) Add(other Points) Points {
	// Two non-negative values; the sum cannot violate the constraint.
	return Points{value: p.value.Add(other.value)}
}

// Sub fails when the result would be negative.
func (p Points) Sub(other Points) (Points, error) {
	result := p.value.Sub(other.value)
	if result.IsNegative() {
		return Points{}, fmt.Errorf("%w: cannot subtract %s points from %s",
			errs.ErrInvalidQuantity, other.value, p.value)
	}
	return Points{value: result}, nil
}

// Mul fails for negative multipliers.
func (p Points) Mul(multiplier decimal.Decimal) (Points, error) {
	if multiplier.IsNegative() {
		return Points{}, fmt.Errorf("%w: multiplier cannot be negative: %s",
			errs.ErrInvalidQuantity, multiplier)
	}
	return Points{value: p.value.Mul(multiplier)}, nil
}

func (p Points) Equal(other Points) bool       { return p.value.Equal(other.value) }
func (p Points) GreaterThan(other Points) bool { return p.value.GreaterThan(other.value) }
func (p Points) GreaterThanOrEqual(other Points) bool {
	return p.value.GreaterThanOrEqual(other.value)
}
func (p Points) IsZero() bool { return p.value.IsZero() }

// Money is an immutable non-negative monetary amount.
type Money struct {
	amount decimal.Decimal
}

// NewMoney fails when the amount is negative.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: money amount cannot be negative: %s",
			errs.ErrInvalidQuantity, amount)
	}
	return Money{amount: amount}, nil
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) String() string { return m.amount.String() }

func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub fails when the result would be negative.
func (m Money) Sub(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s",
			errs.ErrInvalidQuantity, other.amount, m.amount)
	}
	return Money{amount: result}, nil
}

func (m Money) GreaterThan(other Money) bool { return m.amount.GreaterThan(other.amount) }
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
