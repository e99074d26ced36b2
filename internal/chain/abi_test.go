package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The 4-byte selectors the deployed contracts dispatch on. A fragment
// with the wrong input list packs a selector no contract method matches,
// so every write call would revert; pinning the selectors catches that
// before a transaction ever leaves the signer.
func TestWriteMethodSelectors(t *testing.T) {
	cases := []struct {
		name     string
		contract abi.ABI
		method   string
		selector string
		args     []interface{}
	}{
		{"borrowing createVault", BorrowingABI, "createVault", "3fe1da88", []interface{}{"FerBTC"}},
		{"borrowing updateCompoundRate", BorrowingABI, "updateCompoundRate", "a1df86f5", []interface{}{"FerBTC"}},
		{"borrowing depositCollateral", BorrowingABI, "depositCollateral", "ece13732", nil},
		{"borrowing borrowAmount", BorrowingABI, "borrowAmount", "c20d9b9d", nil},
		{"borrowing repayAmount", BorrowingABI, "repayAmount", "e643fcf3", nil},
		{"borrowing withdrawCol", BorrowingABI, "withdrawCol", "0dbd0294", nil},
		{"borrowing liquidate", BorrowingABI, "liquidate", "bcbaf487", nil},
		{"saving updateCompoundRate", SavingABI, "updateCompoundRate", "c0ab9cbc", nil},
		{"saving deposit", SavingABI, "deposit", "b6b55f25", nil},
		{"saving withdraw", SavingABI, "withdraw", "2e1a7d4d", nil},
		{"erc20 approve", ERC20ABI, "approve", "095ea7b3", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			method, ok := tc.contract.Methods[tc.method]
			require.True(t, ok, "method %s missing from fragment", tc.method)
			assert.Equal(t, common.FromHex(tc.selector), method.ID)

			if tc.args != nil {
				calldata, err := tc.contract.Pack(tc.method, tc.args...)
				require.NoError(t, err)
				assert.Equal(t, common.FromHex(tc.selector), calldata[:4])
			}
		})
	}
}

// The borrowing contract resolves which pair to act on from the
// collateral key argument; the key must survive a pack/unpack round trip.
func TestCreateVaultPacksCollateralKey(t *testing.T) {
	calldata, err := BorrowingABI.Pack("createVault", "FerBTC")
	require.NoError(t, err)

	decoded, err := BorrowingABI.Methods["createVault"].Inputs.Unpack(calldata[4:])
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "FerBTC", decoded[0])
}

// Saving tracks a single asset, so its rate poke takes no arguments.
func TestSavingCompoundRatePokeIsArgless(t *testing.T) {
	calldata, err := SavingABI.Pack("updateCompoundRate")
	require.NoError(t, err)
	assert.Len(t, calldata, 4)
}
