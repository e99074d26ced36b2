package wallet

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func erc20TestABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(`[{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}]`))
	require.NoError(t, err)
	return parsed
}

type fakeAllowanceReader struct {
	allowance *big.Int
	err       error
	calls     int
}

func (f *fakeAllowanceReader) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	f.calls++
	return f.allowance, f.err
}

func TestNeedsApproval(t *testing.T) {
	assert.True(t, NeedsApproval(nil, nil), "unknown allowance requires approval")
	assert.True(t, NeedsApproval(big.NewInt(0), MaxUint256))
	// A partial allowance still counts as unapproved: the gate approves
	// once at the maximum rather than topping up per action.
	huge := new(big.Int).Sub(MaxUint256, big.NewInt(1))
	assert.True(t, NeedsApproval(huge, MaxUint256))
	assert.False(t, NeedsApproval(new(big.Int).Set(MaxUint256), MaxUint256))
	assert.False(t, NeedsApproval(big.NewInt(500), big.NewInt(100)), "explicit lower thresholds are honored")
	assert.True(t, NeedsApproval(big.NewInt(500), nil), "nil threshold defaults to the maximum")
}

func TestEnsureSkipsWhenAlreadyApproved(t *testing.T) {
	controller, err := NewController(&fakeSubmitter{})
	require.NoError(t, err)
	reader := &fakeAllowanceReader{allowance: new(big.Int).Set(MaxUint256)}

	gate, err := NewApprovalGate(controller, reader, erc20TestABI(t), common.Address{})
	require.NoError(t, err)

	receipt, err := gate.Ensure(context.Background(), common.Address{1}, common.Address{2})
	require.NoError(t, err)
	assert.Nil(t, receipt, "no transaction when the allowance is already maximal")
	assert.Equal(t, 1, reader.calls)
}

func TestEnsureApprovesWhenAllowanceLow(t *testing.T) {
	sub := &fakeSubmitter{}
	controller, err := NewController(sub)
	require.NoError(t, err)
	reader := &fakeAllowanceReader{allowance: big.NewInt(1000)}

	gate, err := NewApprovalGate(controller, reader, erc20TestABI(t), common.Address{})
	require.NoError(t, err)

	receipt, err := gate.Ensure(context.Background(), common.Address{1}, common.Address{2})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, 1, sub.sendCalls)
	assert.Equal(t, "approve", controller.Record().Method)
}

func TestEnsureSurfacesAllowanceReadFailure(t *testing.T) {
	controller, err := NewController(&fakeSubmitter{})
	require.NoError(t, err)
	reader := &fakeAllowanceReader{err: errors.New("rpc down")}

	gate, err := NewApprovalGate(controller, reader, erc20TestABI(t), common.Address{})
	require.NoError(t, err)

	_, err = gate.Ensure(context.Background(), common.Address{1}, common.Address{2})
	assert.ErrorIs(t, err, ErrAllowanceRetrieval)
}

func TestNewApprovalGateValidation(t *testing.T) {
	controller, err := NewController(&fakeSubmitter{})
	require.NoError(t, err)

	_, err = NewApprovalGate(nil, &fakeAllowanceReader{}, erc20TestABI(t), common.Address{})
	assert.ErrorIs(t, err, ErrNilController)

	_, err = NewApprovalGate(controller, nil, erc20TestABI(t), common.Address{})
	assert.Error(t, err)
}
