package types

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// RiskParameters are the protocol's per-pair risk settings, all in ray
// precision (27 decimals). They are immutable for the block they were read
// at; callers must re-read them together with the oracle price they are
// combined with, because the valuation formulas are only correct when both
// are contemporaneous.
type RiskParameters struct {
	// CollateralizationRatio is the minimum collateral-value to debt ratio
	// required to borrow further.
	CollateralizationRatio sdkmath.Int `json:"collateralization_ratio"`

	// LiquidationRatio is the ratio below which a vault becomes
	// liquidatable.
	LiquidationRatio sdkmath.Int `json:"liquidation_ratio"`

	// InterestRatePerSecond is the per-second compounding borrow rate.
	InterestRatePerSecond sdkmath.Int `json:"interest_rate_per_second"`
}

// BorrowingPair describes one (collateral, stable asset) market: the
// registry keys the DefiParameters contract indexes everything by, the
// resolved contract addresses, and the token decimal scales every
// valuation formula depends on.
type BorrowingPair struct {
	StableKey     string `json:"stable_key"`     // e.g. "FerUSD"
	CollateralKey string `json:"collateral_key"` // e.g. "FerBTC"

	StableToken     common.Address `json:"stable_token"`
	CollateralToken common.Address `json:"collateral_token"`
	Borrowing       common.Address `json:"borrowing"`
	Saving          common.Address `json:"saving"`
	Oracle          common.Address `json:"oracle"`

	StableSymbol     string `json:"stable_symbol"`
	CollateralSymbol string `json:"collateral_symbol"`

	StableDecimals     int `json:"stable_decimals"`
	CollateralDecimals int `json:"collateral_decimals"`
}
