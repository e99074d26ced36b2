package fixedpoint

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScalesEntryPrecision(t *testing.T) {
	a, err := Parse("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", a.Value.String())
	assert.Equal(t, 18, a.Decimals)

	b, err := Parse("0.000001", 18)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000", b.Value.String())
}

func TestParseTruncatesBeyondEntryPrecision(t *testing.T) {
	// The seventh fractional digit is dropped, never rounded up.
	a, err := Parse("1.9999999", 18)
	require.NoError(t, err)

	b, err := Parse("1.999999", 18)
	require.NoError(t, err)
	assert.True(t, a.Value.Equal(b.Value), "digits beyond entry precision must be truncated")
}

func TestParseAcceptsBareFractionAndWhole(t *testing.T) {
	for _, input := range []string{".5", "5.", "0.5", "5", " 5 "} {
		_, err := Parse(input, 18)
		assert.NoError(t, err, "input %q", input)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{"", ".", "-1", "1e5", "1.2.3", "abc", "1,5", "+1"} {
		_, err := Parse(input, 18)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParseRejectsBadPrecision(t *testing.T) {
	_, err := Parse("1", 3)
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = Parse("1", 100)
	assert.ErrorIs(t, err, ErrInvalidPrecision)
}

func TestFormatTruncatesTowardZero(t *testing.T) {
	// 1.9999999 at 18 decimals, shown at 6 digits: never rounds up to 2.
	a := New(sdkmath.NewIntFromUint64(1999999900000000000), 18)
	assert.Equal(t, "1.999999", a.Format(6))
	assert.Equal(t, "1.9", a.Format(1))
	assert.Equal(t, "1", a.Format(0))
}

func TestFormatTrimsTrailingZeros(t *testing.T) {
	a, err := Parse("12.340000", 18)
	require.NoError(t, err)
	assert.Equal(t, "12.34", a.Format(6))

	b, err := Parse("7", 18)
	require.NoError(t, err)
	assert.Equal(t, "7", b.Format(6))
}

func TestFormatNegative(t *testing.T) {
	a := New(sdkmath.NewInt(-1500000), 6)
	assert.Equal(t, "-1.5", a.Format(6))
}

func TestFormatZeroValueAmount(t *testing.T) {
	var a Amount
	assert.Equal(t, "0", a.Format(6))
}

func TestRoundTripNeverInflates(t *testing.T) {
	// A displayed balance re-entered as input must parse back to a value
	// no greater than the original. Note the guarantee is on the value,
	// not the string: Format trims trailing zeros, so "1.50" comes back
	// as "1.5" while still parsing to the same value.
	inputs := []string{"0.000001", "1.333333", "50000", "13333.333333", "0.4"}
	for _, s := range inputs {
		a, err := Parse(s, 18)
		require.NoError(t, err)
		b, err := Parse(a.Format(6), 18)
		require.NoError(t, err)
		assert.True(t, b.Value.LTE(a.Value), "round trip of %q inflated the value", s)
	}

	// Trailing-zero inputs keep the value exact across the round trip.
	a, err := Parse("1.50", 18)
	require.NoError(t, err)
	b, err := Parse(a.Format(6), 18)
	require.NoError(t, err)
	assert.True(t, b.Value.Equal(a.Value))
}

func TestRescaleDownFloors(t *testing.T) {
	a := New(sdkmath.NewInt(1999), 3)
	down := a.Rescale(0)
	assert.Equal(t, "1", down.Value.String())

	// Negative values floor toward negative infinity, keeping conservative
	// headroom figures conservative after rescaling.
	n := New(sdkmath.NewInt(-1001), 3)
	downNeg := n.Rescale(0)
	assert.Equal(t, "-2", downNeg.Value.String())
}

func TestRescaleUpIsExact(t *testing.T) {
	a := New(sdkmath.NewInt(15), 1)
	up := a.Rescale(18)
	assert.Equal(t, "1500000000000000000", up.Value.String())
	back := up.Rescale(1)
	assert.True(t, back.Value.Equal(a.Value))
}

func TestAddSubRequireMatchingDecimals(t *testing.T) {
	a := New(sdkmath.NewInt(5), 6)
	b := New(sdkmath.NewInt(3), 18)

	_, err := a.Add(b)
	assert.ErrorIs(t, err, ErrDecimalMismatch)
	_, err = a.Sub(b)
	assert.ErrorIs(t, err, ErrDecimalMismatch)

	c := New(sdkmath.NewInt(3), 6)
	sum, err := a.Add(c)
	require.NoError(t, err)
	assert.Equal(t, "8", sum.Value.String())

	diff, err := c.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, "-2", diff.Value.String(), "subtraction may go negative")
}

func TestCmpAcrossDecimalScales(t *testing.T) {
	// 1.5 at 6 decimals vs 1.5 at 18 decimals.
	a := New(sdkmath.NewInt(1500000), 6)
	b := New(sdkmath.NewIntFromUint64(1500000000000000000), 18)
	assert.Equal(t, 0, Cmp(a, b))

	// 26000 at 18 decimals vs 20000 at ray precision.
	liq := New(sdkmath.NewIntFromUint64(26000).Mul(PowTen(18)), 18)
	price := New(sdkmath.NewIntFromUint64(20000).Mul(Ray()), RayDecimals)
	assert.Equal(t, -1, Cmp(price, liq))
	assert.Equal(t, 1, Cmp(liq, price))
}

func TestIsZeroAndIsNegative(t *testing.T) {
	assert.True(t, Zero(18).IsZero())
	assert.True(t, (Amount{}).IsZero())
	assert.False(t, (Amount{}).IsNegative())
	assert.True(t, New(sdkmath.NewInt(-1), 6).IsNegative())
}

func TestErrorsAreSentinels(t *testing.T) {
	_, err := Parse("bogus", 18)
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}
