/*

This file contains the fixed-point Amount type used for every on-chain token
quantity and ray-precision rate in the system. An Amount is an arbitrary
precision integer interpreted as value / 10^decimals. Nothing here rounds
except at formatted-output boundaries, and formatting only ever truncates
toward zero so a displayed balance can always be safely re-submitted.

*/

package fixedpoint

import (
	"errors"
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidAmount    = errors.New("amount is not a valid non-negative decimal")
	ErrInvalidPrecision = errors.New("precision is invalid")
	ErrDecimalMismatch  = errors.New("amounts have different decimal precision")
)

const (
	// RayDecimals is the fixed-point scale used by protocol rate and ratio
	// parameters (27 decimal digits).
	RayDecimals = 27

	// EntryDecimals is the fractional precision accepted from user-entered
	// decimal strings. Input beyond this precision is truncated before
	// scaling to the asset's native precision.
	EntryDecimals = 6

	// maxDecimals bounds the decimal scales this package will work with.
	// uint256 token amounts never exceed 78 digits.
	maxDecimals = 77
)

// Amount is a fixed-point quantity: Value is interpreted as
// Value / 10^Decimals. Parse never produces a negative Amount, but
// arithmetic may (a negative collateral headroom is meaningful).
type Amount struct {
	Value    sdkmath.Int `json:"value"`
	Decimals int         `json:"decimals"`
}

// New constructs an Amount from a raw integer and its decimal scale.
func New(value sdkmath.Int, decimals int) Amount {
	return Amount{Value: value, Decimals: decimals}
}

// Zero returns the zero Amount at the given decimal scale.
func Zero(decimals int) Amount {
	return Amount{Value: sdkmath.ZeroInt(), Decimals: decimals}
}

// Ray returns 10^27 as an integer, the scale divisor for ray parameters.
func Ray() sdkmath.Int {
	return PowTen(RayDecimals)
}

// PowTen returns 10^n for n >= 0.
func PowTen(n int) sdkmath.Int {
	if n < 0 {
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewIntWithDecimal(1, n)
}

// Parse converts a human-entered decimal string into an Amount at the given
// decimal scale. Fractional input is truncated at EntryDecimals digits
// before scaling, matching the entry precision the protocol front ends
// accept. Returns ErrInvalidAmount for anything that is not a plain
// non-negative decimal and ErrInvalidPrecision when decimals cannot hold
// the entry precision.
func Parse(input string, decimals int) (Amount, error) {
	if decimals < EntryDecimals || decimals > maxDecimals {
		return Amount{}, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidPrecision, decimals, EntryDecimals, maxDecimals)
	}

	s := strings.TrimSpace(input)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}

	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" && (!hasPoint || frac == "") {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	// Truncate, never round, at the entry precision boundary.
	if len(frac) > EntryDecimals {
		frac = frac[:EntryDecimals]
	}
	for len(frac) < EntryDecimals {
		frac += "0"
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		return Zero(decimals), nil
	}

	value, ok := sdkmath.NewIntFromString(combined)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	// Scale from entry precision up to the asset's native precision.
	value = value.Mul(PowTen(decimals - EntryDecimals))
	return Amount{Value: value, Decimals: decimals}, nil
}

// digitsOnly reports whether s consists solely of ASCII digits.
// The empty string counts as valid (an absent whole or fractional part).
func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format renders the Amount as a decimal string truncated to
// displayPrecision fractional digits. Truncation is floor truncation
// toward zero: the printed value never overstates the true balance, so a
// user submitting a displayed "max" value can never exceed it. Trailing
// zeros in the fraction are trimmed.
func (a Amount) Format(displayPrecision int) string {
	if a.Value.IsNil() {
		return "0"
	}
	if displayPrecision < 0 {
		displayPrecision = 0
	}
	if displayPrecision > a.Decimals {
		displayPrecision = a.Decimals
	}

	value := a.Value
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Neg()
	}

	divisor := PowTen(a.Decimals)
	whole := value.Quo(divisor)
	frac := value.Mod(divisor).String()
	for len(frac) < a.Decimals {
		frac = "0" + frac
	}

	if len(frac) > displayPrecision {
		frac = frac[:displayPrecision]
	}
	frac = strings.TrimRight(frac, "0")

	if frac == "" {
		return sign + whole.String()
	}
	return sign + whole.String() + "." + frac
}

// Rescale converts the Amount to a different decimal scale. Scaling down
// floors, consistent with every other division in the valuation pipeline.
func (a Amount) Rescale(decimals int) Amount {
	if a.Value.IsNil() || decimals == a.Decimals {
		return Amount{Value: a.Value, Decimals: decimals}
	}
	if decimals > a.Decimals {
		return Amount{Value: a.Value.Mul(PowTen(decimals - a.Decimals)), Decimals: decimals}
	}
	return Amount{Value: quoFloor(a.Value, PowTen(a.Decimals-decimals)), Decimals: decimals}
}

// Add returns a + b. Both operands must share a decimal scale.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Decimals != b.Decimals {
		return Amount{}, fmt.Errorf("%w: %d vs %d", ErrDecimalMismatch, a.Decimals, b.Decimals)
	}
	return Amount{Value: a.Value.Add(b.Value), Decimals: a.Decimals}, nil
}

// Sub returns a - b. Both operands must share a decimal scale. The result
// may be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Decimals != b.Decimals {
		return Amount{}, fmt.Errorf("%w: %d vs %d", ErrDecimalMismatch, a.Decimals, b.Decimals)
	}
	return Amount{Value: a.Value.Sub(b.Value), Decimals: a.Decimals}, nil
}

// IsZero reports whether the Amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.Value.IsNil() || a.Value.IsZero()
}

// IsNegative reports whether the Amount is below zero.
func (a Amount) IsNegative() bool {
	return !a.Value.IsNil() && a.Value.IsNegative()
}

// Cmp compares two Amounts by their logical value, tolerating different
// decimal scales by cross-multiplying rather than rescaling (so no
// precision is lost during the comparison).
func Cmp(a, b Amount) int {
	av := a.Value.Mul(PowTen(b.Decimals))
	bv := b.Value.Mul(PowTen(a.Decimals))
	return av.BigInt().Cmp(bv.BigInt())
}

// quoFloor divides a by b flooring toward negative infinity, which keeps
// "max" figures conservative even when the dividend is negative.
// sdkmath.Int.Quo truncates toward zero, which would overstate a negative
// headroom.
func quoFloor(a, b sdkmath.Int) sdkmath.Int {
	q := a.Quo(b)
	if a.IsNegative() && !q.Mul(b).Equal(a) {
		q = q.Sub(sdkmath.OneInt())
	}
	return q
}
