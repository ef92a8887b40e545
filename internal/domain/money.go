package domain

import "github.com/shopspring/decimal"

// ParseAmount parses a caller-supplied money amount. The amount must be a
// well-formed decimal and strictly positive; anything else is a
// ValidationError, never a silent coercion to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a number"}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	return d, nil
}
