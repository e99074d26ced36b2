/*

This file contains the vault types: the on-chain position as read from the
borrowing contract and the derived health snapshot the valuation engine
produces from it. Snapshots are recomputed on every request and never
persisted as authoritative state, so they cannot go stale silently.

*/

package types

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// Vault is a single collateral/debt position. Vaults are created by the
// protocol's open-vault call, mutated by deposit/borrow/repay/withdraw, and
// irreversibly marked liquidated by the liquidation process. They are never
// deleted and never un-liquidated.
type Vault struct {
	Owner common.Address `json:"owner"`
	ID    uint64         `json:"id"`

	// CollateralKey is the protocol's registry key for the collateral asset
	// backing this vault (e.g. "FerBTC").
	CollateralKey string `json:"collateral_key"`

	// Collateral is the posted collateral, in the collateral asset's
	// decimals.
	Collateral fixedpoint.Amount `json:"collateral"`

	// NormalizedDebt is the debt before interest accrual, in the stable
	// asset's decimals. Full debt is read from the chain, not re-derived
	// locally.
	NormalizedDebt fixedpoint.Amount `json:"normalized_debt"`

	// MintedAmount is the stable-asset amount minted against this vault.
	MintedAmount fixedpoint.Amount `json:"minted_amount"`

	// LiquidationFullDebt records the debt frozen at liquidation time.
	// Zero while the vault is healthy.
	LiquidationFullDebt fixedpoint.Amount `json:"liquidation_full_debt"`

	// IsLiquidated is monotonic: once true it never reverts.
	IsLiquidated bool `json:"is_liquidated"`
}

// VaultHealthSnapshot is derived, not stored. All figures are integer
// floor arithmetic over the vault, the risk parameters and the oracle
// price that were read together in one pass.
type VaultHealthSnapshot struct {
	// FullDebt is the debt including accrued interest, read authoritatively
	// from the chain, in stable-asset decimals.
	FullDebt fixedpoint.Amount `json:"full_debt"`

	// CollateralValue is the posted collateral valued in the stable asset,
	// in stable-asset decimals.
	CollateralValue fixedpoint.Amount `json:"collateral_value"`

	// MaxBorrowable is the additional stable-asset amount the vault can
	// still borrow, clamped at zero, scaled to collateral decimals.
	MaxBorrowable fixedpoint.Amount `json:"max_borrowable"`

	// MaxWithdrawable is the collateral that can be removed while staying
	// within the collateralization ratio, in stable-asset decimals. It is
	// deliberately NOT clamped: a negative value signals an
	// under-collateralized vault and callers that only display it are
	// expected to clamp themselves.
	MaxWithdrawable fixedpoint.Amount `json:"max_withdrawable"`

	// LiquidationPrice is the oracle price below which the vault becomes
	// eligible for liquidation, in stable-asset decimals.
	LiquidationPrice fixedpoint.Amount `json:"liquidation_price"`
}

// ScanResult is one entry of a liquidation scan pass over an owner's
// vaults.
type ScanResult struct {
	VaultID uint64 `json:"vault_id"`

	// Liquidatable is true when the current oracle price has crossed below
	// the vault's liquidation price. Always false for already-liquidated
	// vaults, whatever the price.
	Liquidatable bool `json:"liquidatable"`

	// AlreadyLiquidated marks vaults the scan skipped without valuation.
	AlreadyLiquidated bool `json:"already_liquidated"`

	// Snapshot is populated for live vaults only.
	Snapshot VaultHealthSnapshot `json:"snapshot,omitempty"`
}
