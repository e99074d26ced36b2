/*

This file contains the DefiParameters reader: the registry contract every
other address and risk parameter is resolved through. Keys follow the
protocol's convention: token addresses live under their asset key
("FerUSD", "FerBTC"), module addresses under "<stc>_borrowing" and
"<stc>_saving", the oracle under "<col>_<stc>_oracle", and ray-precision
uint parameters under "<col>_<stc>_collateralizationRatio",
"<col>_<stc>_liquidationRatio", "<col>_<stc>_interestRate" and
"<stc>_savingRate".

*/

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/types"
)

var (
	ErrZeroAddress      = errors.New("registry resolved a zero address")
	ErrInvalidRayValue  = errors.New("registry returned an invalid ray parameter")
	ErrPairKeysRequired = errors.New("pair keys cannot be empty")
)

var paramsLogger = logger.GetForComponent("params_reader")

// ParamsReader resolves addresses and protocol parameters from the
// DefiParameters registry contract.
type ParamsReader struct {
	caller   ContractCaller
	contract common.Address
}

// NewParamsReader creates a reader bound to the registry address.
func NewParamsReader(caller ContractCaller, contract common.Address) (*ParamsReader, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	if contract == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	return &ParamsReader{caller: caller, contract: contract}, nil
}

// Address resolves a registry key to a contract address.
func (pr *ParamsReader) Address(ctx context.Context, key string) (common.Address, error) {
	outputs, err := call(ctx, pr.caller, pr.contract, DefiParametersABI, "getAddress", key)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: getAddress(%s)", ErrDecodingFailed, key)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: key %q", ErrZeroAddress, key)
	}
	return addr, nil
}

// UintParameter resolves a registry key to a uint256 parameter.
func (pr *ParamsReader) UintParameter(ctx context.Context, key string) (sdkmath.Int, error) {
	outputs, err := call(ctx, pr.caller, pr.contract, DefiParametersABI, "getUintParameter", key)
	if err != nil {
		return sdkmath.Int{}, err
	}
	value, ok := outputs[0].(*big.Int)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: getUintParameter(%s)", ErrDecodingFailed, key)
	}
	return sdkmath.NewIntFromBigInt(value), nil
}

// LoadPair resolves one (collateral, stable asset) market: every contract
// address and both token decimal scales, in a single logical pass.
func (pr *ParamsReader) LoadPair(ctx context.Context, tokens *TokenReader, stcKey, colKey string) (types.BorrowingPair, error) {
	if stcKey == "" || colKey == "" {
		return types.BorrowingPair{}, ErrPairKeysRequired
	}

	pair := types.BorrowingPair{StableKey: stcKey, CollateralKey: colKey}

	var err error
	if pair.StableToken, err = pr.Address(ctx, stcKey); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.CollateralToken, err = pr.Address(ctx, colKey); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.Borrowing, err = pr.Address(ctx, stcKey+"_borrowing"); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.Saving, err = pr.Address(ctx, stcKey+"_saving"); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.Oracle, err = pr.Address(ctx, colKey+"_"+stcKey+"_oracle"); err != nil {
		return types.BorrowingPair{}, err
	}

	if pair.StableDecimals, err = tokens.Decimals(ctx, pair.StableToken); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.CollateralDecimals, err = tokens.Decimals(ctx, pair.CollateralToken); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.StableSymbol, err = tokens.Symbol(ctx, pair.StableToken); err != nil {
		return types.BorrowingPair{}, err
	}
	if pair.CollateralSymbol, err = tokens.Symbol(ctx, pair.CollateralToken); err != nil {
		return types.BorrowingPair{}, err
	}

	paramsLogger.Info().
		Str("pair", colKey+"_"+stcKey).
		Str("borrowing", pair.Borrowing.Hex()).
		Str("oracle", pair.Oracle.Hex()).
		Int("stableDecimals", pair.StableDecimals).
		Int("collateralDecimals", pair.CollateralDecimals).
		Msg("Borrowing pair resolved from registry")

	return pair, nil
}

// RiskParameters reads the pair's ray-precision risk parameters. These
// must be fetched together with the oracle price they will be combined
// with; the valuation formulas assume both are contemporaneous.
func (pr *ParamsReader) RiskParameters(ctx context.Context, pair types.BorrowingPair) (types.RiskParameters, error) {
	prefix := pair.CollateralKey + "_" + pair.StableKey

	colRatio, err := pr.UintParameter(ctx, prefix+"_collateralizationRatio")
	if err != nil {
		return types.RiskParameters{}, err
	}
	liqRatio, err := pr.UintParameter(ctx, prefix+"_liquidationRatio")
	if err != nil {
		return types.RiskParameters{}, err
	}
	interestRate, err := pr.UintParameter(ctx, prefix+"_interestRate")
	if err != nil {
		return types.RiskParameters{}, err
	}

	if !colRatio.IsPositive() || !liqRatio.IsPositive() {
		return types.RiskParameters{}, fmt.Errorf("%w: ratios must be positive (col=%s, liq=%s)", ErrInvalidRayValue, colRatio, liqRatio)
	}

	return types.RiskParameters{
		CollateralizationRatio: colRatio,
		LiquidationRatio:       liqRatio,
		InterestRatePerSecond:  interestRate,
	}, nil
}

// SavingRate reads the stable asset's per-second saving rate, ray
// precision.
func (pr *ParamsReader) SavingRate(ctx context.Context, stcKey string) (sdkmath.Int, error) {
	return pr.UintParameter(ctx, stcKey+"_savingRate")
}
