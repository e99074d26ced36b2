package types

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// SavingBalance is a depositor's position in the stable-asset savings
// pool as reported by the saving contract's getBalanceDetails call.
type SavingBalance struct {
	// Current is the withdrawable balance including accrued yield, in
	// stable-asset decimals.
	Current fixedpoint.Amount `json:"current"`

	// Normalized is the balance before yield accrual, in stable-asset
	// decimals.
	Normalized fixedpoint.Amount `json:"normalized"`

	// CompoundRate is the cumulative compounding factor, ray precision.
	CompoundRate sdkmath.Int `json:"compound_rate"`

	// CompoundRateUpdatedAt is when the compounding factor was last poked.
	CompoundRateUpdatedAt time.Time `json:"compound_rate_updated_at"`
}
