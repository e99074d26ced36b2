package rates

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

func TestAnnualizeDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Annualize(sdkmath.Int{}), "nil rate")
	assert.Equal(t, 0.0, Annualize(sdkmath.ZeroInt()), "zero rate")
	assert.Equal(t, 0.0, Annualize(sdkmath.NewInt(-1)), "negative rate")
}

func TestAnnualizeKnownRate(t *testing.T) {
	// A per-second rate of 1e-9 compounds to roughly e^0.0315 - 1 over a
	// year, about 3.21%.
	rate := fixedpoint.PowTen(fixedpoint.RayDecimals - 9)
	apr := Annualize(rate)
	assert.InDelta(t, 3.2, apr, 0.1)
}

func TestAnnualizeMonotonic(t *testing.T) {
	low := Annualize(fixedpoint.PowTen(17))  // 1e-10 per second
	mid := Annualize(fixedpoint.PowTen(18))  // 1e-9 per second
	high := Annualize(fixedpoint.PowTen(19)) // 1e-8 per second
	assert.Less(t, low, mid)
	assert.Less(t, mid, high)
	assert.Greater(t, low, 0.0)
}

func TestAnnualizeClampsRunawayRates(t *testing.T) {
	// At or above one ray per second the rate is clamped before
	// exponentiation: the result is enormous but finite.
	atRay := Annualize(fixedpoint.Ray())
	aboveRay := Annualize(fixedpoint.Ray().MulRaw(1000))
	assert.False(t, math.IsInf(atRay, 1))
	assert.False(t, math.IsNaN(atRay))
	assert.Equal(t, atRay, aboveRay, "rates above one ray clamp to the same ceiling")
}
