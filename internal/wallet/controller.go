/*

This file contains the transaction lifecycle controller: the state machine
that takes one contract call from build through signature, broadcast and
receipt, and exposes that lifecycle to observers. Expected failures
(signer refusal, on-chain revert) are reported through the record and the
returned error, never by panicking across the public boundary, because a
failed wallet interaction must not crash the calling process.

*/

package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrConcurrentSubmission = errors.New("another submission is already pending on this controller")
	ErrTransactionRejected  = errors.New("transaction was rejected before broadcast")
	ErrTransactionReverted  = errors.New("transaction reverted on-chain")
	ErrBroadcastFailed      = errors.New("transaction broadcast failed")
	ErrReceiptWaitFailed    = errors.New("waiting for transaction receipt failed")
	ErrNilSubmitter         = errors.New("submitter cannot be nil")
)

// Submitter is the external signer/broadcaster collaborator. The real
// implementation is SigningClient; tests supply fakes.
type Submitter interface {
	// Populate builds and signs the call. It suspends on nonce and gas
	// reads, so the controller is already Pending while it runs.
	Populate(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*gethtypes.Transaction, error)

	// Send broadcasts the signed transaction and returns its hash.
	Send(ctx context.Context, tx *gethtypes.Transaction) (common.Hash, error)

	// Wait blocks until the transaction has a receipt.
	Wait(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error)
}

// Observer receives a copy of the transaction record on every state
// transition.
type Observer func(types.TransactionRecord)

// Controller serializes state-changing calls through a single lifecycle:
// Idle -> Pending -> {Confirmed, Failed}, with Confirmed/Failed returning
// to a fresh record only when the next call begins or Reset is called. At
// most one submission may be in flight per controller; a second Submit
// while Pending is refused immediately rather than queued, which is what
// keeps accidental double-submits from becoming duplicate on-chain calls.
type Controller struct {
	submitter Submitter
	logger    zerolog.Logger

	mu        sync.Mutex
	record    types.TransactionRecord
	observers map[int]Observer
	nextObsID int
}

// NewController creates a controller around the given submitter.
func NewController(submitter Submitter) (*Controller, error) {
	if submitter == nil {
		return nil, ErrNilSubmitter
	}
	return &Controller{
		submitter: submitter,
		logger:    logger.GetForComponent("tx_controller"),
		record:    types.TransactionRecord{Status: types.TxIdle},
		observers: make(map[int]Observer),
	}, nil
}

// Record returns a snapshot of the current lifecycle state.
func (c *Controller) Record() types.TransactionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Subscribe registers an observer for state transitions and returns its
// unsubscribe function. The observer is invoked synchronously with a copy
// of the record; it must not call back into the controller.
func (c *Controller) Subscribe(obs Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = obs
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Reset returns a Confirmed or Failed controller to Idle. Resetting while
// Pending is refused: once broadcast, a transaction cannot be cancelled
// from here.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record.Status == types.TxPending {
		return ErrConcurrentSubmission
	}
	c.setRecordLocked(types.TransactionRecord{Status: types.TxIdle})
	return nil
}

// Submit runs one contract call through the full lifecycle and blocks
// until it is Confirmed or Failed.
//
// The returned receipt is non-nil on confirmation and on an on-chain
// revert (paired with ErrTransactionReverted so revert details stay
// inspectable). Callers must check the error: rejection and revert are
// expected outcomes here, not exceptional ones, and no automatic retry is
// performed.
func (c *Controller) Submit(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*gethtypes.Receipt, error) {
	c.mu.Lock()
	if c.record.Status == types.TxPending {
		c.mu.Unlock()
		c.logger.Warn().
			Str("method", method).
			Str("pendingMethod", c.record.Method).
			Msg("Rejecting submission while another is pending")
		return nil, ErrConcurrentSubmission
	}
	// Pending begins the instant the signature request does, so observers
	// can surface "awaiting confirmation" before anything hits the wire.
	c.setRecordLocked(types.TransactionRecord{Status: types.TxPending, Method: method})
	c.mu.Unlock()

	tx, err := c.submitter.Populate(ctx, to, contractABI, method, args...)
	if err != nil {
		c.fail(method, common.Hash{}, errors.Join(ErrTransactionRejected, err), nil)
		return nil, errors.Join(ErrTransactionRejected, err)
	}

	hash, err := c.submitter.Send(ctx, tx)
	if err != nil {
		c.fail(method, common.Hash{}, errors.Join(ErrBroadcastFailed, err), nil)
		return nil, errors.Join(ErrBroadcastFailed, err)
	}

	// Still Pending, but the hash is now known: "awaiting confirmation
	// on-chain".
	c.mu.Lock()
	c.setRecordLocked(types.TransactionRecord{Status: types.TxPending, Method: method, Hash: hash})
	c.mu.Unlock()

	c.logger.Info().
		Str("method", method).
		Str("txHash", hash.Hex()).
		Msg("Transaction broadcast accepted, awaiting receipt")

	receipt, err := c.submitter.Wait(ctx, hash)
	if err != nil {
		c.fail(method, hash, errors.Join(ErrReceiptWaitFailed, err), nil)
		return nil, errors.Join(ErrReceiptWaitFailed, err)
	}

	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		c.fail(method, hash, ErrTransactionReverted, receipt)
		return receipt, ErrTransactionReverted
	}

	c.mu.Lock()
	c.setRecordLocked(types.TransactionRecord{
		Status:  types.TxConfirmed,
		Method:  method,
		Hash:    hash,
		Receipt: receipt,
	})
	c.mu.Unlock()

	c.logger.Info().
		Str("method", method).
		Str("txHash", hash.Hex()).
		Uint64("gasUsed", receipt.GasUsed).
		Msg("Transaction confirmed")

	return receipt, nil
}

func (c *Controller) fail(method string, hash common.Hash, cause error, receipt *gethtypes.Receipt) {
	c.mu.Lock()
	c.setRecordLocked(types.TransactionRecord{
		Status:  types.TxFailed,
		Method:  method,
		Hash:    hash,
		Receipt: receipt,
		Error:   cause.Error(),
	})
	c.mu.Unlock()

	c.logger.Error().
		Str("method", method).
		Err(cause).
		Msg("Transaction failed")
}

// setRecordLocked replaces the record and notifies observers. Callers must
// hold c.mu.
func (c *Controller) setRecordLocked(record types.TransactionRecord) {
	c.record = record
	for _, obs := range c.observers {
		obs(record)
	}
}
