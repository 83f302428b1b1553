package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountPlaces is the number of decimal places an amount may carry.
	AmountPlaces = 2

	// MaxAmountDigits bounds the integer part of an amount.
	MaxAmountDigits = 15

	// minAmountExponent rejects inputs like "1e-900000" before any rounding.
	minAmountExponent = -30
)

// ParseAmount parses a positive decimal amount. A comma is accepted as the
// decimal separator ("150,50").
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount rejects amounts that are not positive, have more than
// MaxAmountDigits integer digits or more than AmountPlaces decimal places.
func ValidateAmount(d decimal.Decimal) error {
	if err := checkAmountRange(d); err != nil {
		return err
	}
	if d.Exponent() < -AmountPlaces && !d.Equal(d.Round(AmountPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), AmountPlaces)
	}
	return nil
}

// parseStoredAmount reads an amount from a stored document. Documents written
// by the web dashboard may carry binary float noise ("33.333333333333336"),
// so the value is rounded to AmountPlaces instead of rejected.
func parseStoredAmount(s string) (decimal.Decimal, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := checkAmountRange(d); err != nil {
		return decimal.Zero, err
	}
	if d.Exponent() < -AmountPlaces {
		d = d.Round(AmountPlaces)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q rounds to zero", ErrInvalidAmount, s)
	}
	return d, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// checkAmountRange looks only at the sign, digits and exponent, which stay
// cheap for values like "1e50000000" that are costly to rescale.
func checkAmountRange(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	exp := int(d.Exponent())
	if exp < minAmountExponent {
		return fmt.Errorf("%w: too many decimal places", ErrInvalidAmount)
	}
	if d.NumDigits()+exp > MaxAmountDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrInvalidAmount, MaxAmountDigits)
	}
	return nil
}
