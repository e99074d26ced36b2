package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/types"
)

var ErrVaultDecoding = errors.New("vault struct decoding failed")

// BorrowingReader reads vault state from the borrowing contract. It
// satisfies scanner.VaultReader.
type BorrowingReader struct {
	caller ContractCaller
	pair   types.BorrowingPair
}

// NewBorrowingReader creates a reader for the pair's borrowing contract.
func NewBorrowingReader(caller ContractCaller, pair types.BorrowingPair) (*BorrowingReader, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	if pair.Borrowing == (common.Address{}) {
		return nil, fmt.Errorf("%w: borrowing contract", ErrZeroAddress)
	}
	return &BorrowingReader{caller: caller, pair: pair}, nil
}

// VaultCount returns how many vaults the owner has ever opened, liquidated
// ones included (vaults are never deleted).
func (br *BorrowingReader) VaultCount(ctx context.Context, owner common.Address) (uint64, error) {
	outputs, err := call(ctx, br.caller, br.pair.Borrowing, BorrowingABI, "userVaultsCount", owner)
	if err != nil {
		return 0, err
	}
	count, ok := outputs[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%w: userVaultsCount", ErrDecodingFailed)
	}
	return count.Uint64(), nil
}

// Vault reads one vault struct.
func (br *BorrowingReader) Vault(ctx context.Context, owner common.Address, id uint64) (types.Vault, error) {
	outputs, err := call(ctx, br.caller, br.pair.Borrowing, BorrowingABI, "userVaults", owner, new(big.Int).SetUint64(id))
	if err != nil {
		return types.Vault{}, err
	}
	if len(outputs) != 6 {
		return types.Vault{}, fmt.Errorf("%w: expected 6 fields, got %d", ErrVaultDecoding, len(outputs))
	}

	colKey, ok1 := outputs[0].(string)
	colAsset, ok2 := outputs[1].(*big.Int)
	normalizedDebt, ok3 := outputs[2].(*big.Int)
	mintedAmount, ok4 := outputs[3].(*big.Int)
	liquidationFullDebt, ok5 := outputs[4].(*big.Int)
	isLiquidated, ok6 := outputs[5].(bool)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return types.Vault{}, ErrVaultDecoding
	}

	return types.Vault{
		Owner:               owner,
		ID:                  id,
		CollateralKey:       colKey,
		Collateral:          fixedpoint.New(sdkmath.NewIntFromBigInt(colAsset), br.pair.CollateralDecimals),
		NormalizedDebt:      fixedpoint.New(sdkmath.NewIntFromBigInt(normalizedDebt), br.pair.StableDecimals),
		MintedAmount:        fixedpoint.New(sdkmath.NewIntFromBigInt(mintedAmount), br.pair.StableDecimals),
		LiquidationFullDebt: fixedpoint.New(sdkmath.NewIntFromBigInt(liquidationFullDebt), br.pair.StableDecimals),
		IsLiquidated:        isLiquidated,
	}, nil
}

// FullDebt reads the vault's debt including interest accrued up to the
// current block. This is the authoritative compounding source; nothing
// client-side re-derives it.
func (br *BorrowingReader) FullDebt(ctx context.Context, owner common.Address, id uint64) (fixedpoint.Amount, error) {
	outputs, err := call(ctx, br.caller, br.pair.Borrowing, BorrowingABI, "getFullDebt", owner, new(big.Int).SetUint64(id))
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	debt, ok := outputs[0].(*big.Int)
	if !ok {
		return fixedpoint.Amount{}, fmt.Errorf("%w: getFullDebt", ErrDecodingFailed)
	}
	return fixedpoint.New(sdkmath.NewIntFromBigInt(debt), br.pair.StableDecimals), nil
}

// CompoundRateUpdatedAt reads when the pair's compounding factor was last
// poked.
func (br *BorrowingReader) CompoundRateUpdatedAt(ctx context.Context) (time.Time, error) {
	outputs, err := call(ctx, br.caller, br.pair.Borrowing, BorrowingABI, "getCompoundRateUpdateTimestamp", br.pair.CollateralKey)
	if err != nil {
		return time.Time{}, err
	}
	ts, ok := outputs[0].(*big.Int)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: getCompoundRateUpdateTimestamp", ErrDecodingFailed)
	}
	return time.Unix(ts.Int64(), 0).UTC(), nil
}
