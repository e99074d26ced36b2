package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

var ErrOraclePriceInvalid = errors.New("oracle returned a non-positive price")

// OracleReader reads the pair's price feed. Prices are the stable-asset
// value of one collateral unit in ray precision.
type OracleReader struct {
	caller   ContractCaller
	contract common.Address
}

// NewOracleReader creates a reader for the given price feed contract.
func NewOracleReader(caller ContractCaller, contract common.Address) (*OracleReader, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	if contract == (common.Address{}) {
		return nil, fmt.Errorf("%w: oracle contract", ErrZeroAddress)
	}
	return &OracleReader{caller: caller, contract: contract}, nil
}

// LatestPrice reads the current oracle price. A zero or negative reading
// is refused here: the valuation formulas divide by the price, and a
// broken feed must surface as an error rather than a zero division
// downstream.
func (or *OracleReader) LatestPrice(ctx context.Context) (fixedpoint.Amount, error) {
	outputs, err := call(ctx, or.caller, or.contract, PriceFeedABI, "getLatestPrice")
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	price, ok := outputs[0].(*big.Int)
	if !ok {
		return fixedpoint.Amount{}, fmt.Errorf("%w: getLatestPrice", ErrDecodingFailed)
	}
	if price.Sign() <= 0 {
		return fixedpoint.Amount{}, ErrOraclePriceInvalid
	}
	return fixedpoint.New(sdkmath.NewIntFromBigInt(price), fixedpoint.RayDecimals), nil
}
