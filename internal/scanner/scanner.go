/*

This file contains the liquidation scanner: a pure read-and-compute pass
over an owner's vaults that recomputes each vault's liquidation price and
flags the ones the current oracle price has crossed. The scan submits
nothing; the caller decides whether a flagged vault becomes a liquidation
transaction.

*/

package scanner

import (
	"context"
	"errors"
	"iter"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/types"
	"github.com/fer-protocol/keeper/internal/valuation"
)

var ErrVaultCount = errors.New("vault count retrieval failed")

var scanLogger = logger.GetForComponent("liquidation_scanner")

// VaultReader is the chain collaborator the scanner consumes. Implemented
// by chain.BorrowingReader; tests supply fakes.
type VaultReader interface {
	VaultCount(ctx context.Context, owner common.Address) (uint64, error)
	Vault(ctx context.Context, owner common.Address, id uint64) (types.Vault, error)
	FullDebt(ctx context.Context, owner common.Address, id uint64) (fixedpoint.Amount, error)
}

// Pass bundles the contemporaneous reads a scan evaluates against. Price
// and parameters must come from the same fetch pass.
type Pass struct {
	Owner       common.Address
	Pair        types.BorrowingPair
	OraclePrice fixedpoint.Amount
	Params      types.RiskParameters
}

// Scan returns a lazy, restartable sequence over the owner's vault ids
// 0..count-1. Each iteration of the returned sequence re-reads the vault
// count, so ranging over it twice is two independent scans.
//
// Already-liquidated vaults are yielded with Liquidatable=false and no
// valuation work: re-scanning a liquidated vault is a deliberate no-op
// signal. A non-nil error in the second position means that vault could
// not be evaluated; iteration continues with the next vault unless the
// consumer stops.
func Scan(ctx context.Context, pass Pass, reader VaultReader) iter.Seq2[types.ScanResult, error] {
	return func(yield func(types.ScanResult, error) bool) {
		count, err := reader.VaultCount(ctx, pass.Owner)
		if err != nil {
			yield(types.ScanResult{}, errors.Join(ErrVaultCount, err))
			return
		}
		if count == 0 {
			scanLogger.Debug().
				Str("owner", pass.Owner.Hex()).
				Msg("Owner has no vaults, nothing to scan")
			return
		}

		for id := uint64(0); id < count; id++ {
			if ctx.Err() != nil {
				yield(types.ScanResult{VaultID: id}, ctx.Err())
				return
			}

			result, err := evaluate(ctx, pass, reader, id)
			if !yield(result, err) {
				return
			}
		}
	}
}

func evaluate(ctx context.Context, pass Pass, reader VaultReader, id uint64) (types.ScanResult, error) {
	vault, err := reader.Vault(ctx, pass.Owner, id)
	if err != nil {
		return types.ScanResult{VaultID: id}, err
	}

	if vault.IsLiquidated {
		return types.ScanResult{
			VaultID:           id,
			Liquidatable:      false,
			AlreadyLiquidated: true,
		}, nil
	}

	fullDebt, err := reader.FullDebt(ctx, pass.Owner, id)
	if err != nil {
		return types.ScanResult{VaultID: id}, err
	}

	snapshot, err := valuation.Snapshot(valuation.Inputs{
		Vault:              vault,
		FullDebt:           fullDebt,
		OraclePrice:        pass.OraclePrice,
		Params:             pass.Params,
		CollateralDecimals: pass.Pair.CollateralDecimals,
		StableDecimals:     pass.Pair.StableDecimals,
	})
	if err != nil {
		return types.ScanResult{VaultID: id}, err
	}

	liquidatable := valuation.Liquidatable(pass.OraclePrice, snapshot)
	if liquidatable {
		scanLogger.Info().
			Str("owner", pass.Owner.Hex()).
			Uint64("vaultID", id).
			Str("fullDebt", snapshot.FullDebt.Format(fixedpoint.EntryDecimals)).
			Str("liquidationPrice", snapshot.LiquidationPrice.Format(fixedpoint.EntryDecimals)).
			Str("oraclePrice", pass.OraclePrice.Format(fixedpoint.EntryDecimals)).
			Msg("Vault is below its liquidation price")
	}

	return types.ScanResult{
		VaultID:      id,
		Liquidatable: liquidatable,
		Snapshot:     snapshot,
	}, nil
}
