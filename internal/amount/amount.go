// Package amount converts between raw u64 token amounts and their decimal
// display form.
package amount

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var maxRaw = decimal.NewFromUint64(math.MaxUint64)

// Parse converts s into a raw amount scaled by 10^decimals. It fails on
// negative values, values with more fractional digits than decimals, and
// values that do not fit in a u64.
func Parse(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	raw := d.Shift(decimals)
	if !raw.Equal(raw.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, decimals)
	}
	if raw.GreaterThan(maxRaw) {
		return 0, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, s)
	}
	return raw.BigInt().Uint64(), nil
}

// Format renders a raw amount with decimals fractional digits
func Format(raw uint64, decimals int32) string {
	return decimal.NewFromUint64(raw).Shift(-decimals).StringFixed(decimals)
}
