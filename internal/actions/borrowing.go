/*

This file contains the borrowing-side write operations: opening vaults,
moving collateral and debt, poking the compound rate, and liquidating.
Every operation funnels through one transaction controller, so the
lifecycle and single-flight rules apply uniformly whether the caller is
the keeper loop or an interactive client. Operations that spend a token
consult the approval gate first and submit the one-time maximum approval
before the action when needed.

*/

package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/fer-protocol/keeper/internal/chain"
	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/types"
	"github.com/fer-protocol/keeper/internal/wallet"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNilDependency    = errors.New("service dependency cannot be nil")
	ErrNonPositiveInput = errors.New("amount must be positive")
)

// Service exposes the protocol's state-changing calls for one borrowing
// pair.
type Service struct {
	controller *wallet.Controller
	gate       *wallet.ApprovalGate
	pair       types.BorrowingPair
	logger     zerolog.Logger
}

// NewService wires the write surface for a pair.
func NewService(controller *wallet.Controller, gate *wallet.ApprovalGate, pair types.BorrowingPair) (*Service, error) {
	if controller == nil || gate == nil {
		return nil, ErrNilDependency
	}
	return &Service{
		controller: controller,
		gate:       gate,
		pair:       pair,
		logger:     logger.GetForComponent("actions"),
	}, nil
}

// Controller returns the underlying transaction controller, so callers
// can observe lifecycle state.
func (s *Service) Controller() *wallet.Controller {
	return s.controller
}

// OpenVault creates a new empty vault for the caller.
func (s *Service) OpenVault(ctx context.Context) (*gethtypes.Receipt, error) {
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "createVault",
		s.pair.CollateralKey)
}

// DepositCollateral moves collateral into the vault. Requires (and if
// necessary first submits) the collateral token approval.
func (s *Service) DepositCollateral(ctx context.Context, vaultID uint64, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	if _, err := s.gate.Ensure(ctx, s.pair.CollateralToken, s.pair.Borrowing); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "depositCollateral",
		new(big.Int).SetUint64(vaultID), amount.Value.BigInt())
}

// Borrow draws stable asset against the vault's collateral.
func (s *Service) Borrow(ctx context.Context, vaultID uint64, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "borrowAmount",
		new(big.Int).SetUint64(vaultID), amount.Value.BigInt())
}

// Repay pays down vault debt. Requires the stable token approval.
func (s *Service) Repay(ctx context.Context, vaultID uint64, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	if _, err := s.gate.Ensure(ctx, s.pair.StableToken, s.pair.Borrowing); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "repayAmount",
		new(big.Int).SetUint64(vaultID), amount.Value.BigInt())
}

// WithdrawCollateral removes collateral from the vault. The contract
// enforces the collateralization ratio; this client only precomputes the
// safe maximum for display.
func (s *Service) WithdrawCollateral(ctx context.Context, vaultID uint64, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "withdrawCol",
		new(big.Int).SetUint64(vaultID), amount.Value.BigInt())
}

// Liquidate seizes an under-collateralized vault.
func (s *Service) Liquidate(ctx context.Context, owner common.Address, vaultID uint64) (*gethtypes.Receipt, error) {
	s.logger.Warn().
		Str("owner", owner.Hex()).
		Uint64("vaultID", vaultID).
		Msg("Submitting liquidation")
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "liquidate",
		owner, new(big.Int).SetUint64(vaultID))
}

// PokeCompoundRate asks the borrowing contract to refresh its compounding
// factor.
func (s *Service) PokeCompoundRate(ctx context.Context) (*gethtypes.Receipt, error) {
	return s.controller.Submit(ctx, s.pair.Borrowing, chain.BorrowingABI, "updateCompoundRate",
		s.pair.CollateralKey)
}

func (s *Service) requirePositive(amount fixedpoint.Amount) error {
	if amount.Value.IsNil() || !amount.Value.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrNonPositiveInput, amount.Format(fixedpoint.EntryDecimals))
	}
	return nil
}
