package actions

import (
	"context"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/fer-protocol/keeper/internal/chain"
	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// DepositSavings moves stable asset into the savings pool. Requires the
// stable token approval for the saving contract.
func (s *Service) DepositSavings(ctx context.Context, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	if _, err := s.gate.Ensure(ctx, s.pair.StableToken, s.pair.Saving); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Saving, chain.SavingABI, "deposit", amount.Value.BigInt())
}

// WithdrawSavings pulls stable asset plus accrued yield back out of the
// savings pool.
func (s *Service) WithdrawSavings(ctx context.Context, amount fixedpoint.Amount) (*gethtypes.Receipt, error) {
	if err := s.requirePositive(amount); err != nil {
		return nil, err
	}
	return s.controller.Submit(ctx, s.pair.Saving, chain.SavingABI, "withdraw", amount.Value.BigInt())
}

// PokeSavingRate asks the saving contract to refresh its compounding
// factor.
func (s *Service) PokeSavingRate(ctx context.Context) (*gethtypes.Receipt, error) {
	return s.controller.Submit(ctx, s.pair.Saving, chain.SavingABI, "updateCompoundRate")
}
