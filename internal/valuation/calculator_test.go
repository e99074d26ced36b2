package valuation

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/types"
)

const (
	stableDecimals     = 18
	collateralDecimals = 18
)

// rayRatio builds a ray-precision ratio from a percentage, e.g. 150 -> 1.5 ray.
func rayRatio(percent int64) sdkmath.Int {
	return sdkmath.NewInt(percent).Mul(fixedpoint.PowTen(fixedpoint.RayDecimals - 2))
}

// rayPrice builds a ray-precision price from a whole stable-asset figure.
func rayPrice(stablePerCollateral int64) fixedpoint.Amount {
	return fixedpoint.New(sdkmath.NewInt(stablePerCollateral).Mul(fixedpoint.Ray()), fixedpoint.RayDecimals)
}

// stable builds a stable-asset amount from a whole figure.
func stable(v int64) fixedpoint.Amount {
	return fixedpoint.New(sdkmath.NewInt(v).Mul(fixedpoint.PowTen(stableDecimals)), stableDecimals)
}

func baseInputs() Inputs {
	return Inputs{
		Vault: types.Vault{
			Collateral: fixedpoint.New(fixedpoint.PowTen(collateralDecimals), collateralDecimals), // 1.0
		},
		FullDebt:    stable(20000),
		OraclePrice: rayPrice(50000),
		Params: types.RiskParameters{
			CollateralizationRatio: rayRatio(150),
			LiquidationRatio:       rayRatio(130),
		},
		CollateralDecimals: collateralDecimals,
		StableDecimals:     stableDecimals,
	}
}

func TestSnapshotHealthyVault(t *testing.T) {
	// One unit of collateral priced at 50000, 20000 debt, 150%
	// collateralization ratio, 130% liquidation ratio.
	snap, err := Snapshot(baseInputs())
	require.NoError(t, err)

	assert.Equal(t, "50000", snap.CollateralValue.Format(6))
	assert.Equal(t, "13333.333333", snap.MaxBorrowable.Format(6))
	assert.Equal(t, "0.4", snap.MaxWithdrawable.Format(6))
	assert.Equal(t, "26000", snap.LiquidationPrice.Format(6))

	assert.False(t, Liquidatable(rayPrice(50000), snap))
}

func TestLiquidatableBelowLiquidationPrice(t *testing.T) {
	snap, err := Snapshot(baseInputs())
	require.NoError(t, err)

	assert.False(t, Liquidatable(rayPrice(26000), snap), "at the threshold exactly is not below it")
	assert.True(t, Liquidatable(rayPrice(25999), snap))
	assert.True(t, Liquidatable(rayPrice(20000), snap))
}

func TestSnapshotZeroDebt(t *testing.T) {
	in := baseInputs()
	in.FullDebt = fixedpoint.Zero(stableDecimals)

	snap, err := Snapshot(in)
	require.NoError(t, err)

	// With nothing owed the entire collateral is withdrawable and the
	// vault has no price at which it liquidates.
	assert.Equal(t, "1", snap.MaxWithdrawable.Format(6))
	assert.True(t, snap.LiquidationPrice.IsZero())
	assert.Equal(t, "33333.333333", snap.MaxBorrowable.Format(6))
	assert.False(t, Liquidatable(rayPrice(1), snap))
}

func TestSnapshotZeroCollateral(t *testing.T) {
	in := baseInputs()
	in.Vault.Collateral = fixedpoint.Zero(collateralDecimals)

	snap, err := Snapshot(in)
	require.NoError(t, err)

	assert.True(t, snap.CollateralValue.IsZero())
	assert.True(t, snap.MaxBorrowable.IsZero(), "no collateral secures no borrowing")
	assert.True(t, snap.MaxWithdrawable.IsNegative(), "debt with no collateral reports negative headroom")
	assert.Equal(t, "26000", snap.LiquidationPrice.Format(6), "liquidation price depends on debt alone")
	assert.True(t, Liquidatable(rayPrice(25000), snap))
}

func TestSnapshotUnderwaterVaultClampsBorrowableOnly(t *testing.T) {
	in := baseInputs()
	in.OraclePrice = rayPrice(25000)

	snap, err := Snapshot(in)
	require.NoError(t, err)

	// 25000 collateral value secures 16666 of debt at 150%, less than the
	// 20000 owed: borrowable clamps to zero, withdrawable goes negative.
	assert.True(t, snap.MaxBorrowable.IsZero())
	assert.True(t, snap.MaxWithdrawable.IsNegative())
	assert.True(t, Liquidatable(in.OraclePrice, snap))
}

func TestSnapshotMixedDecimalScales(t *testing.T) {
	// 8-decimal collateral against an 18-decimal stable asset.
	in := baseInputs()
	in.CollateralDecimals = 8
	in.Vault.Collateral = fixedpoint.New(fixedpoint.PowTen(8), 8) // 1.0

	snap, err := Snapshot(in)
	require.NoError(t, err)

	assert.Equal(t, stableDecimals, snap.CollateralValue.Decimals)
	assert.Equal(t, "50000", snap.CollateralValue.Format(6))
	assert.Equal(t, 8, snap.MaxBorrowable.Decimals, "borrowable is rescaled to collateral precision")
	assert.Equal(t, "13333.333333", snap.MaxBorrowable.Format(6))
}

func TestSnapshotValidation(t *testing.T) {
	t.Run("zero oracle price", func(t *testing.T) {
		in := baseInputs()
		in.OraclePrice = fixedpoint.Zero(fixedpoint.RayDecimals)
		_, err := Snapshot(in)
		assert.ErrorIs(t, err, ErrZeroOraclePrice)
	})

	t.Run("oracle price not in ray precision", func(t *testing.T) {
		in := baseInputs()
		in.OraclePrice = stable(50000)
		_, err := Snapshot(in)
		assert.ErrorIs(t, err, ErrInvalidRiskParams)
	})

	t.Run("zero collateralization ratio", func(t *testing.T) {
		in := baseInputs()
		in.Params.CollateralizationRatio = sdkmath.ZeroInt()
		_, err := Snapshot(in)
		assert.ErrorIs(t, err, ErrInvalidRiskParams)
	})

	t.Run("debt precision mismatch", func(t *testing.T) {
		in := baseInputs()
		in.FullDebt = fixedpoint.New(sdkmath.NewInt(1), 6)
		_, err := Snapshot(in)
		assert.ErrorIs(t, err, ErrInvalidDebtPrecision)
	})

	t.Run("collateral precision mismatch", func(t *testing.T) {
		in := baseInputs()
		in.Vault.Collateral = fixedpoint.New(sdkmath.NewInt(1), 6)
		_, err := Snapshot(in)
		assert.ErrorIs(t, err, ErrInvalidColPrecision)
	})
}
