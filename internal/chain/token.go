package chain

import (
	"context"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
)

// TokenReader reads ERC-20 state for any token contract. It satisfies
// wallet.AllowanceReader.
type TokenReader struct {
	caller ContractCaller
}

// NewTokenReader creates an ERC-20 reader.
func NewTokenReader(caller ContractCaller) (*TokenReader, error) {
	if caller == nil {
		return nil, ErrNilCaller
	}
	return &TokenReader{caller: caller}, nil
}

// BalanceOf reads the owner's token balance at the token's own decimal
// scale.
func (tr *TokenReader) BalanceOf(ctx context.Context, token, owner common.Address, decimals int) (fixedpoint.Amount, error) {
	outputs, err := call(ctx, tr.caller, token, ERC20ABI, "balanceOf", owner)
	if err != nil {
		return fixedpoint.Amount{}, err
	}
	balance, ok := outputs[0].(*big.Int)
	if !ok {
		return fixedpoint.Amount{}, fmt.Errorf("%w: balanceOf", ErrDecodingFailed)
	}
	return fixedpoint.New(sdkmath.NewIntFromBigInt(balance), decimals), nil
}

// Allowance reads the spender's remaining allowance from the owner.
func (tr *TokenReader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	outputs, err := call(ctx, tr.caller, token, ERC20ABI, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: allowance", ErrDecodingFailed)
	}
	return allowance, nil
}

// Decimals reads the token's decimal scale.
func (tr *TokenReader) Decimals(ctx context.Context, token common.Address) (int, error) {
	outputs, err := call(ctx, tr.caller, token, ERC20ABI, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := outputs[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals", ErrDecodingFailed)
	}
	return int(decimals), nil
}

// Symbol reads the token's display symbol.
func (tr *TokenReader) Symbol(ctx context.Context, token common.Address) (string, error) {
	outputs, err := call(ctx, tr.caller, token, ERC20ABI, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := outputs[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: symbol", ErrDecodingFailed)
	}
	return symbol, nil
}
