package scanner

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/types"
)

type fakeVault struct {
	vault types.Vault
	debt  fixedpoint.Amount
}

// fakeReader serves vaults from memory and counts chain reads so tests
// can assert laziness.
type fakeReader struct {
	vaults     []fakeVault
	countErr   error
	vaultErrs  map[uint64]error
	debtReads  int
	vaultReads int
	countReads int
}

func (f *fakeReader) VaultCount(ctx context.Context, owner common.Address) (uint64, error) {
	f.countReads++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return uint64(len(f.vaults)), nil
}

func (f *fakeReader) Vault(ctx context.Context, owner common.Address, id uint64) (types.Vault, error) {
	f.vaultReads++
	if err := f.vaultErrs[id]; err != nil {
		return types.Vault{}, err
	}
	return f.vaults[id].vault, nil
}

func (f *fakeReader) FullDebt(ctx context.Context, owner common.Address, id uint64) (fixedpoint.Amount, error) {
	f.debtReads++
	return f.vaults[id].debt, nil
}

func stable(v int64) fixedpoint.Amount {
	return fixedpoint.New(sdkmath.NewInt(v).Mul(fixedpoint.PowTen(18)), 18)
}

func collateral(v int64) fixedpoint.Amount {
	return fixedpoint.New(sdkmath.NewInt(v).Mul(fixedpoint.PowTen(18)), 18)
}

func testPass(price int64) Pass {
	return Pass{
		Owner: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Pair: types.BorrowingPair{
			StableDecimals:     18,
			CollateralDecimals: 18,
		},
		OraclePrice: fixedpoint.New(sdkmath.NewInt(price).Mul(fixedpoint.Ray()), fixedpoint.RayDecimals),
		Params: types.RiskParameters{
			CollateralizationRatio: sdkmath.NewInt(15).Mul(fixedpoint.PowTen(26)), // 1.5
			LiquidationRatio:       sdkmath.NewInt(13).Mul(fixedpoint.PowTen(26)), // 1.3
		},
	}
}

func healthyVault() fakeVault {
	// 1 collateral at price 50000 against 20000 debt: liquidation price
	// 26000.
	return fakeVault{
		vault: types.Vault{Collateral: collateral(1)},
		debt:  stable(20000),
	}
}

func underwaterVault() fakeVault {
	// Same debt, liquidation price 26000, so any price below that flags it.
	return fakeVault{
		vault: types.Vault{Collateral: collateral(1)},
		debt:  stable(20000),
	}
}

func liquidatedVault() fakeVault {
	return fakeVault{
		vault: types.Vault{IsLiquidated: true, Collateral: fixedpoint.Zero(18)},
		debt:  fixedpoint.Zero(18),
	}
}

func collect(t *testing.T, pass Pass, reader VaultReader) ([]types.ScanResult, []error) {
	t.Helper()
	var results []types.ScanResult
	var errs []error
	for result, err := range Scan(context.Background(), pass, reader) {
		results = append(results, result)
		errs = append(errs, err)
	}
	return results, errs
}

func TestScanFlagsVaultsBelowLiquidationPrice(t *testing.T) {
	reader := &fakeReader{vaults: []fakeVault{healthyVault(), underwaterVault()}}

	results, errs := collect(t, testPass(50000), reader)
	require.Len(t, results, 2)
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.False(t, results[0].Liquidatable)
	assert.False(t, results[1].Liquidatable)

	reader = &fakeReader{vaults: []fakeVault{healthyVault(), underwaterVault()}}
	results, _ = collect(t, testPass(20000), reader)
	require.Len(t, results, 2)
	assert.True(t, results[0].Liquidatable)
	assert.True(t, results[1].Liquidatable)
	assert.Equal(t, "26000", results[0].Snapshot.LiquidationPrice.Format(6))
}

func TestScanSkipsLiquidatedVaults(t *testing.T) {
	reader := &fakeReader{vaults: []fakeVault{liquidatedVault(), underwaterVault()}}

	results, errs := collect(t, testPass(20000), reader)
	require.Len(t, results, 2)
	for _, err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, results[0].AlreadyLiquidated)
	assert.False(t, results[0].Liquidatable, "a liquidated vault is never flagged again")
	assert.True(t, results[1].Liquidatable)

	// No debt read happens for the liquidated vault.
	assert.Equal(t, 1, reader.debtReads)
}

func TestScanYieldsVaultCountError(t *testing.T) {
	reader := &fakeReader{countErr: errors.New("rpc down")}

	results, errs := collect(t, testPass(50000), reader)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrVaultCount)
	assert.Len(t, results, 1)
}

func TestScanContinuesPastPerVaultErrors(t *testing.T) {
	reader := &fakeReader{
		vaults:    []fakeVault{healthyVault(), healthyVault(), healthyVault()},
		vaultErrs: map[uint64]error{1: errors.New("decode failure")},
	}

	results, errs := collect(t, testPass(50000), reader)
	require.Len(t, results, 3)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.Equal(t, uint64(1), results[1].VaultID)
	assert.NoError(t, errs[2])
}

func TestScanIsLazy(t *testing.T) {
	reader := &fakeReader{vaults: []fakeVault{healthyVault(), healthyVault(), healthyVault()}}

	for range Scan(context.Background(), testPass(50000), reader) {
		break
	}
	assert.Equal(t, 1, reader.vaultReads, "stopping the consumer stops the chain reads")
}

func TestScanIsRestartable(t *testing.T) {
	reader := &fakeReader{vaults: []fakeVault{healthyVault()}}
	seq := Scan(context.Background(), testPass(50000), reader)

	results, _ := collectSeq(seq)
	assert.Len(t, results, 1)

	// A vault created between passes is picked up, because each range
	// re-reads the count.
	reader.vaults = append(reader.vaults, healthyVault())
	results, _ = collectSeq(seq)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, reader.countReads)
}

func collectSeq(seq func(func(types.ScanResult, error) bool)) ([]types.ScanResult, []error) {
	var results []types.ScanResult
	var errs []error
	seq(func(r types.ScanResult, err error) bool {
		results = append(results, r)
		errs = append(errs, err)
		return true
	})
	return results, errs
}

func TestScanStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &fakeReader{vaults: []fakeVault{healthyVault(), healthyVault()}}
	var errs []error
	for _, err := range Scan(ctx, testPass(50000), reader) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestScanEmptyOwner(t *testing.T) {
	reader := &fakeReader{}
	results, errs := collect(t, testPass(50000), reader)
	assert.Empty(t, results)
	assert.Empty(t, errs)
}
