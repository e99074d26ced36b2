package wallet

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/fer-protocol/keeper/internal/logger"
)

var (
	ErrNilController      = errors.New("controller cannot be nil")
	ErrAllowanceRetrieval = errors.New("allowance retrieval failed")
)

var approvalLogger = logger.GetForComponent("approval_gate")

// MaxUint256 is the conventional "approve once, forever" allowance.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// NeedsApproval reports whether a spend approval must precede an action
// transaction. The threshold is conventionally MaxUint256: an allowance
// below the maximum counts as not-yet-approved even when it would cover
// the immediate action, so users are prompted once rather than every time
// balances shift.
func NeedsApproval(ownerAllowance, threshold *big.Int) bool {
	if ownerAllowance == nil {
		return true
	}
	if threshold == nil {
		threshold = MaxUint256
	}
	return ownerAllowance.Cmp(threshold) < 0
}

// AllowanceReader is the chain-read collaborator the gate consults.
// Implemented by chain.TokenReader.
type AllowanceReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// ApprovalGate decides whether a spend-approval transaction is required
// before an action transaction may proceed, and submits it through the
// same controller (and therefore under the same lifecycle and concurrency
// contract) as the action itself.
type ApprovalGate struct {
	controller *Controller
	reader     AllowanceReader
	erc20ABI   abi.ABI
	owner      common.Address
}

// NewApprovalGate creates a gate for the given owner address.
func NewApprovalGate(controller *Controller, reader AllowanceReader, erc20ABI abi.ABI, owner common.Address) (*ApprovalGate, error) {
	if controller == nil {
		return nil, ErrNilController
	}
	if reader == nil {
		return nil, errors.New("allowance reader cannot be nil")
	}
	return &ApprovalGate{
		controller: controller,
		reader:     reader,
		erc20ABI:   erc20ABI,
		owner:      owner,
	}, nil
}

// Approve submits an "approve maximum" call for the spender on the token
// contract.
func (g *ApprovalGate) Approve(ctx context.Context, token, spender common.Address) (*gethtypes.Receipt, error) {
	approvalLogger.Info().
		Str("token", token.Hex()).
		Str("spender", spender.Hex()).
		Msg("Submitting maximum spend approval")
	return g.controller.Submit(ctx, token, g.erc20ABI, "approve", spender, MaxUint256)
}

// Ensure checks the current allowance and submits an approval only when
// one is needed. Returns the approval receipt, or nil when no approval
// was required.
func (g *ApprovalGate) Ensure(ctx context.Context, token, spender common.Address) (*gethtypes.Receipt, error) {
	allowance, err := g.reader.Allowance(ctx, token, g.owner, spender)
	if err != nil {
		return nil, errors.Join(ErrAllowanceRetrieval, err)
	}
	if !NeedsApproval(allowance, MaxUint256) {
		return nil, nil
	}
	return g.Approve(ctx, token, spender)
}
