package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/types"
)

// SavingReader reads depositor state from the stable-asset savings pool.
type SavingReader struct {
	caller         ContractCaller
	contract       common.Address
	stableDecimals int
}

// NewSavingReader creates a reader for the saving contract.
func NewSavingReader(caller ContractCaller, contract common.Address, stableDecimals int) (*SavingReader, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	if contract == (common.Address{}) {
		return nil, fmt.Errorf("%w: saving contract", ErrZeroAddress)
	}
	return &SavingReader{caller: caller, contract: contract, stableDecimals: stableDecimals}, nil
}

// BalanceDetails reads the owner's savings position: withdrawable balance
// including yield, the pre-yield normalized balance, and the compounding
// factor with its last update time.
func (sr *SavingReader) BalanceDetails(ctx context.Context, owner common.Address) (types.SavingBalance, error) {
	outputs, err := call(ctx, sr.caller, sr.contract, SavingABI, "getBalanceDetails", owner)
	if err != nil {
		return types.SavingBalance{}, err
	}
	if len(outputs) != 4 {
		return types.SavingBalance{}, fmt.Errorf("%w: getBalanceDetails expected 4 fields, got %d", ErrDecodingFailed, len(outputs))
	}

	current, ok1 := outputs[0].(*big.Int)
	normalized, ok2 := outputs[1].(*big.Int)
	compoundRate, ok3 := outputs[2].(*big.Int)
	lastUpdate, ok4 := outputs[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return types.SavingBalance{}, fmt.Errorf("%w: getBalanceDetails", ErrDecodingFailed)
	}

	return types.SavingBalance{
		Current:               fixedpoint.New(sdkmath.NewIntFromBigInt(current), sr.stableDecimals),
		Normalized:            fixedpoint.New(sdkmath.NewIntFromBigInt(normalized), sr.stableDecimals),
		CompoundRate:          sdkmath.NewIntFromBigInt(compoundRate),
		CompoundRateUpdatedAt: time.Unix(lastUpdate.Int64(), 0).UTC(),
	}, nil
}
