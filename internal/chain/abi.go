/*

This file contains the ABI fragments for the protocol contracts, limited
to exactly the methods this client calls, plus the shared eth_call helper
the typed readers are built on. The wire protocol underneath is plain
JSON-RPC through the go-ethereum client.

*/

package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Error definitions for zero-tolerance error handling
var (
	ErrCallFailed     = errors.New("contract call failed")
	ErrEmptyReturn    = errors.New("contract call returned no data")
	ErrDecodingFailed = errors.New("contract return data decoding failed")
	ErrNilCaller      = errors.New("contract caller cannot be nil")
)

// ContractCaller is the read-only subset of the Ethereum RPC the typed
// readers use. *ethclient.Client satisfies it; tests supply fakes.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const defiParametersABIJSON = `[
	{"type":"function","name":"getAddress","stateMutability":"view","inputs":[{"name":"key","type":"string"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getUintParameter","stateMutability":"view","inputs":[{"name":"key","type":"string"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const borrowingABIJSON = `[
	{"type":"function","name":"userVaultsCount","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"userVaults","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"vaultId","type":"uint256"}],"outputs":[{"name":"colKey","type":"string"},{"name":"colAsset","type":"uint256"},{"name":"normalizedDebt","type":"uint256"},{"name":"mintedAmount","type":"uint256"},{"name":"liquidationFullDebt","type":"uint256"},{"name":"isLiquidated","type":"bool"}]},
	{"type":"function","name":"getFullDebt","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"vaultId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getCompoundRateUpdateTimestamp","stateMutability":"view","inputs":[{"name":"colKey","type":"string"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"createVault","stateMutability":"nonpayable","inputs":[{"name":"colKey","type":"string"}],"outputs":[]},
	{"type":"function","name":"depositCollateral","stateMutability":"nonpayable","inputs":[{"name":"vaultId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"borrowAmount","stateMutability":"nonpayable","inputs":[{"name":"vaultId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"repayAmount","stateMutability":"nonpayable","inputs":[{"name":"vaultId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdrawCol","stateMutability":"nonpayable","inputs":[{"name":"vaultId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"liquidate","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"vaultId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"updateCompoundRate","stateMutability":"nonpayable","inputs":[{"name":"colKey","type":"string"}],"outputs":[]}
]`

const savingABIJSON = `[
	{"type":"function","name":"getBalanceDetails","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"currentBalance","type":"uint256"},{"name":"normalizedBalance","type":"uint256"},{"name":"compoundRate","type":"uint256"},{"name":"lastUpdateOfCompoundRate","type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"updateCompoundRate","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const priceFeedABIJSON = `[
	{"type":"function","name":"getLatestPrice","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// Parsed ABIs, shared by the readers and the transaction-building callers.
var (
	DefiParametersABI = mustABI(defiParametersABIJSON)
	BorrowingABI      = mustABI(borrowingABIJSON)
	SavingABI         = mustABI(savingABIJSON)
	PriceFeedABI      = mustABI(priceFeedABIJSON)
	ERC20ABI          = mustABI(erc20ABIJSON)
)

func mustABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid ABI definition: " + err.Error())
	}
	return parsed
}

// call performs one eth_call against the latest block and unpacks the
// outputs.
func call(ctx context.Context, caller ContractCaller, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: packing %s: %w", ErrCallFailed, method, err)
	}

	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s on %s: %w", ErrCallFailed, method, to.Hex(), err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrEmptyReturn, method, to.Hex())
	}

	outputs, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodingFailed, method, err)
	}
	return outputs, nil
}
