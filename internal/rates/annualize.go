package rates

import (
	"math"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// SecondsPerYear is the compounding horizon used to annualize the
// protocol's per-second rates.
const SecondsPerYear = 365 * 24 * 60 * 60

// Annualize converts a per-second compounding rate in ray precision into an
// annual percentage: ((1 + rate/1e27)^SecondsPerYear - 1) * 100.
//
// The exponentiation happens in floating point. That is acceptable only
// because the result feeds human display; it must never flow back into the
// fixed-point debt or collateral arithmetic. Degenerate inputs are mapped
// to safe values rather than errors: a nil, zero or negative rate
// annualizes to 0, and a rate at or above one ray (>=100% per second, a
// misconfigured parameter) is clamped to 1.0 before exponentiation so the
// result stays finite.
func Annualize(perSecondRateRay sdkmath.Int) float64 {
	if perSecondRateRay.IsNil() || !perSecondRateRay.IsPositive() {
		return 0
	}

	var ratePerSecond float64
	if perSecondRateRay.GTE(fixedpoint.Ray()) {
		ratePerSecond = 1.0
	} else {
		rate := new(big.Rat).SetFrac(perSecondRateRay.BigInt(), fixedpoint.Ray().BigInt())
		ratePerSecond, _ = rate.Float64()
	}

	if ratePerSecond <= 0 || math.IsNaN(ratePerSecond) || math.IsInf(ratePerSecond, 0) {
		return 0
	}

	annual := (math.Pow(1+ratePerSecond, SecondsPerYear) - 1) * 100
	if math.IsInf(annual, 1) {
		return math.MaxFloat64
	}
	return annual
}
