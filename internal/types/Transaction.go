package types

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// TxStatus is the lifecycle state of a single in-flight submission.
type TxStatus string

const (
	TxIdle      TxStatus = "idle"
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// TransactionRecord is the ephemeral state of one submission. It is
// created when a call is initiated and replaced when the next call begins.
// The zero Hash means the transaction has not been accepted for broadcast
// yet (pending can mean "awaiting signature" as well as "awaiting
// confirmation on-chain").
type TransactionRecord struct {
	Status TxStatus `json:"status"`

	// Method is the contract method being called, for observers.
	Method string `json:"method,omitempty"`

	Hash common.Hash `json:"hash,omitempty"`

	// Receipt is set on confirmation, and on failure when the transaction
	// reverted on-chain (so revert details stay inspectable).
	Receipt *gethtypes.Receipt `json:"-"`

	// Error is the human-readable failure reason, empty unless failed.
	Error string `json:"error,omitempty"`
}

// HasHash reports whether the network has accepted the broadcast.
func (r TransactionRecord) HasHash() bool {
	return r.Hash != (common.Hash{})
}
