// Package money is the single entry point for monetary values. Anything
// arriving from the outside (user input, driver rows, upstream services) is
// normalized here into a scale-2 decimal before the rest of the system
// touches it.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const scale = 2

var (
	// ErrUnparsableAmount is the AmountNormalizationError of the taxonomy.
	// Unparsable input is rejected rather than silently stored as 0.00.
	ErrUnparsableAmount = errors.New("amount normalization failed")

	// ErrNegativeAmount rejects amounts below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// Normalize converts an arbitrary incoming representation into a canonical
// decimal with two fractional digits.
func Normalize(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return canonical(t)
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, fmt.Errorf("%w: nil decimal", ErrUnparsableAmount)
		}
		return canonical(*t)
	case string:
		return Parse(t)
	case []byte:
		return Parse(string(t))
	case int:
		return canonical(decimal.NewFromInt(int64(t)))
	case int64:
		return canonical(decimal.NewFromInt(t))
	case float32:
		return canonical(decimal.NewFromFloat32(t))
	case float64:
		return canonical(decimal.NewFromFloat(t))
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrUnparsableAmount, err)
		}
		return Normalize(inner)
	case fmt.Stringer:
		return Parse(t.String())
	case nil:
		return decimal.Zero, fmt.Errorf("%w: nil value", ErrUnparsableAmount)
	default:
		return Parse(fmt.Sprintf("%v", v))
	}
}

// Parse normalizes a numeric string. Surrounding whitespace and stray quotes
// are stripped before parsing, matching how quoted amounts arrive from
// loosely typed stores.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.Trim(cleaned, `"'`)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty string", ErrUnparsableAmount)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsableAmount, s)
	}
	return canonical(d)
}

// Format renders a canonical amount for display and events.
func Format(d decimal.Decimal) string {
	return d.StringFixed(scale)
}

// Equal compares two amounts at canonical scale.
func Equal(a, b decimal.Decimal) bool {
	return a.Round(scale).Equal(b.Round(scale))
}

func canonical(d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(scale)
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	return d, nil
}
