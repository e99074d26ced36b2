package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// ScanSnapshot is the persisted record of one keeper scan cycle: the
// oracle price and risk parameters that were read together, and every
// per-vault result derived from them.
type ScanSnapshot struct {
	CycleNumber int64     `json:"cycle_number"`
	Timestamp   time.Time `json:"timestamp"`

	Owner common.Address `json:"owner"`
	Pair  BorrowingPair  `json:"pair"`

	OraclePrice fixedpoint.Amount `json:"oracle_price"`
	Parameters  RiskParameters    `json:"parameters"`

	VaultsScanned int          `json:"vaults_scanned"`
	Liquidatable  []uint64     `json:"liquidatable"`
	Results       []ScanResult `json:"results"`
}

// LiquidationAttempt records one liquidation transaction the keeper
// submitted, successful or not.
type LiquidationAttempt struct {
	AttemptID   int64          `json:"attempt_id"`
	CycleNumber int64          `json:"cycle_number"`
	Timestamp   time.Time      `json:"timestamp"`
	Owner       common.Address `json:"owner"`
	VaultID     uint64         `json:"vault_id"`
	TxHash      common.Hash    `json:"tx_hash"`
	Status      TxStatus       `json:"status"`
	GasUsed     uint64         `json:"gas_used"`
	Error       string         `json:"error,omitempty"`
}
