/*

This file contains the vault risk calculator: the fixed-point arithmetic
that converts raw on-chain balances into borrowing capacity, withdrawal
headroom and liquidation price. Every division is an integer floor
division. Full debt is an authoritative chain read (the borrowing
contract's getFullDebt); the calculator never re-derives interest
compounding locally, so client-side and contract-side accrual cannot
drift apart.

*/

package valuation

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/types"
)

var (
	ErrZeroOraclePrice      = errors.New("oracle price is zero or negative")
	ErrInvalidRiskParams    = errors.New("risk parameters are invalid")
	ErrInvalidDebtPrecision = errors.New("full debt precision does not match the stable asset")
	ErrInvalidColPrecision  = errors.New("collateral precision does not match the collateral asset")
)

// Inputs bundles everything a health snapshot is derived from. Price and
// parameters must have been read in the same logical pass; combining a
// fresh price with stale parameters is a caller error this package cannot
// detect.
type Inputs struct {
	Vault types.Vault

	// FullDebt is the vault's debt including accrued interest, in
	// stable-asset decimals, as reported by the chain.
	FullDebt fixedpoint.Amount

	// OraclePrice is the stable-asset value of one collateral unit, ray
	// precision.
	OraclePrice fixedpoint.Amount

	Params types.RiskParameters

	CollateralDecimals int
	StableDecimals     int
}

// Snapshot derives a VaultHealthSnapshot from one contemporaneous set of
// chain reads.
//
// Formulas (all integer floor arithmetic, RAY = 10^27):
//
//	collateralValue  = collateral * price / RAY            (stable decimals)
//	maxBorrowable    = max(0, collateralValue*RAY/colRatio - fullDebt)
//	                                                        (collateral decimals)
//	maxWithdrawable  = collateral - fullDebt*colRatio/price (stable decimals, signed)
//	liquidationPrice = fullDebt * liqRatio / RAY            (stable decimals)
//
// maxBorrowable clamps at zero inside the calculator (a vault at or over
// its ratio can borrow nothing further). maxWithdrawable does not clamp:
// a negative value means the vault is already under-collateralized, and
// only display layers should hide that.
func Snapshot(in Inputs) (types.VaultHealthSnapshot, error) {
	if err := validate(in); err != nil {
		return types.VaultHealthSnapshot{}, err
	}

	ray := fixedpoint.Ray()
	shift := fixedpoint.PowTen(in.StableDecimals - in.CollateralDecimals)

	// Collateral valued in the stable asset: col(colDec) * price(ray) / RAY,
	// shifted from collateral decimals to stable decimals.
	collateralValue := in.Vault.Collateral.Value.
		Mul(in.OraclePrice.Value).
		Quo(ray).
		Mul(shift)

	// Borrow headroom: the stable amount the collateral can still secure at
	// the required ratio, less what is already owed.
	headroom := collateralValue.
		Mul(ray).
		Quo(in.Params.CollateralizationRatio).
		Sub(in.FullDebt.Value)
	if headroom.IsNegative() {
		headroom = sdkmath.ZeroInt()
	}

	// Collateral that must stay locked to keep the vault at its ratio, in
	// stable decimals: fullDebt * colRatio / price.
	retained := in.FullDebt.Value.
		Mul(in.Params.CollateralizationRatio).
		Quo(in.OraclePrice.Value)
	withdrawable := in.Vault.Collateral.Value.Mul(shift).Sub(retained)

	// The price at which the debt, grossed up by the liquidation ratio,
	// consumes the posted collateral value. Defined purely in terms of
	// debt: a zero-collateral vault still has a liquidation price.
	liquidationPrice := in.FullDebt.Value.
		Mul(in.Params.LiquidationRatio).
		Quo(ray)

	return types.VaultHealthSnapshot{
		FullDebt:        in.FullDebt,
		CollateralValue: fixedpoint.New(collateralValue, in.StableDecimals),
		MaxBorrowable: fixedpoint.New(headroom, in.StableDecimals).
			Rescale(in.CollateralDecimals),
		MaxWithdrawable:  fixedpoint.New(withdrawable, in.StableDecimals),
		LiquidationPrice: fixedpoint.New(liquidationPrice, in.StableDecimals),
	}, nil
}

// Liquidatable reports whether the current oracle price has crossed below
// the vault's derived liquidation price. The comparison is decimal-aware:
// the oracle price carries ray precision while the liquidation price is a
// stable-asset amount.
func Liquidatable(oraclePrice fixedpoint.Amount, snapshot types.VaultHealthSnapshot) bool {
	return fixedpoint.Cmp(oraclePrice, snapshot.LiquidationPrice) < 0
}

func validate(in Inputs) error {
	if in.OraclePrice.Value.IsNil() || !in.OraclePrice.Value.IsPositive() {
		return ErrZeroOraclePrice
	}
	if in.OraclePrice.Decimals != fixedpoint.RayDecimals {
		return fmt.Errorf("%w: oracle price must carry ray precision, got %d", ErrInvalidRiskParams, in.OraclePrice.Decimals)
	}
	if in.Params.CollateralizationRatio.IsNil() || !in.Params.CollateralizationRatio.IsPositive() {
		return fmt.Errorf("%w: collateralization ratio must be positive", ErrInvalidRiskParams)
	}
	if in.Params.LiquidationRatio.IsNil() || !in.Params.LiquidationRatio.IsPositive() {
		return fmt.Errorf("%w: liquidation ratio must be positive", ErrInvalidRiskParams)
	}
	if in.StableDecimals < in.CollateralDecimals {
		return fmt.Errorf("%w: stable decimals %d below collateral decimals %d", ErrInvalidRiskParams, in.StableDecimals, in.CollateralDecimals)
	}
	if in.FullDebt.Decimals != in.StableDecimals {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidDebtPrecision, in.FullDebt.Decimals, in.StableDecimals)
	}
	if in.Vault.Collateral.Decimals != in.CollateralDecimals {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidColPrecision, in.Vault.Collateral.Decimals, in.CollateralDecimals)
	}
	if in.FullDebt.Value.IsNil() || in.FullDebt.Value.IsNegative() {
		return fmt.Errorf("%w: full debt must be non-negative", ErrInvalidRiskParams)
	}
	if in.Vault.Collateral.Value.IsNil() || in.Vault.Collateral.Value.IsNegative() {
		return fmt.Errorf("%w: collateral must be non-negative", ErrInvalidRiskParams)
	}
	return nil
}
