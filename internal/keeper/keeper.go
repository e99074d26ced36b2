/*

This file contains the keeper core: the cycle loop that reads the
protocol's risk parameters and oracle price in one pass, scans every
watched owner's vaults against them, and persists the results. In live
mode it also submits liquidations for the vaults that crossed their
liquidation price.

*/

package keeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/fer-protocol/keeper/internal/actions"
	"github.com/fer-protocol/keeper/internal/chain"
	"github.com/fer-protocol/keeper/internal/fixedpoint"
	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/metrics"
	"github.com/fer-protocol/keeper/internal/rates"
	"github.com/fer-protocol/keeper/internal/scanner"
	"github.com/fer-protocol/keeper/internal/state"
	"github.com/fer-protocol/keeper/internal/types"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidKeeperConfig = errors.New("keeper configuration is invalid")
)

// compoundRateStaleAfter is how old the pair's compounding factor may be
// before a liquidation is preceded by an update call. Liquidating against
// a stale factor understates the debt being seized.
const compoundRateStaleAfter = 10 * time.Minute

// RateClock reports when the pair's compounding factor last updated.
// Implemented by chain.BorrowingReader.
type RateClock interface {
	CompoundRateUpdatedAt(ctx context.Context) (time.Time, error)
}

// Config holds the dependencies for creating a Keeper instance.
type Config struct {
	Pair    types.BorrowingPair
	Params  *chain.ParamsReader
	Oracle  *chain.OracleReader
	Vaults  scanner.VaultReader
	Actions *actions.Service
	Owners  []common.Address

	// RateClock, Saving and KeeperAddress are optional; when set they
	// enrich the cycle with compound-rate freshness checks and the
	// keeper's own savings position.
	RateClock     RateClock
	Saving        *chain.SavingReader
	KeeperAddress common.Address

	LiveMode bool
	Persist  bool
}

// Keeper drives the scan/liquidate cycle.
type Keeper struct {
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	lastStatus map[string]interface{}
}

// New creates a Keeper instance with dependency injection.
func New(cfg Config) (*Keeper, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, errors.Join(ErrInvalidKeeperConfig, err)
	}

	k := &Keeper{
		cfg:    cfg,
		logger: logger.GetForComponent("keeper_core"),
		lastStatus: map[string]interface{}{
			"state": "initialized",
		},
	}

	k.logger.Info().
		Str("pair", cfg.Pair.CollateralKey+"_"+cfg.Pair.StableKey).
		Int("owners", len(cfg.Owners)).
		Bool("liveMode", cfg.LiveMode).
		Msg("Keeper instance created")

	return k, nil
}

func validateConfig(cfg Config) error {
	if cfg.Params == nil {
		return fmt.Errorf("params reader cannot be nil")
	}
	if cfg.Oracle == nil {
		return fmt.Errorf("oracle reader cannot be nil")
	}
	if cfg.Vaults == nil {
		return fmt.Errorf("vault reader cannot be nil")
	}
	if cfg.LiveMode && cfg.Actions == nil {
		return fmt.Errorf("live mode requires an actions service")
	}
	if len(cfg.Owners) == 0 {
		return fmt.Errorf("at least one watched owner is required")
	}
	return nil
}

// Status returns the keeper's latest cycle summary for the web server.
func (k *Keeper) Status() map[string]interface{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	status := make(map[string]interface{}, len(k.lastStatus))
	for key, value := range k.lastStatus {
		status[key] = value
	}
	return status
}

// RunLoop runs scan cycles until the context is cancelled. One cycle
// failing is logged and waited out, not fatal: a transient RPC outage
// must not take the keeper down.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	k.logger.Info().Str("interval", interval.String()).Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := k.RunCycle(ctx); err != nil {
			k.logger.Error().Err(err).Msg("Scan cycle failed")
		}

		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Keeper loop stopping")
			return
		case <-ticker.C:
		}
	}
}

// RunCycle performs one scan pass over every watched owner.
func (k *Keeper) RunCycle(ctx context.Context) error {
	started := time.Now()

	cycleNumber := int64(0)
	if k.cfg.Persist {
		var err error
		cycleNumber, err = state.NextCycleNumber()
		if err != nil {
			return err
		}
	}

	// Price and parameters are fetched back to back so every valuation in
	// this cycle sees one contemporaneous view of the market.
	params, err := k.cfg.Params.RiskParameters(ctx, k.cfg.Pair)
	if err != nil {
		return err
	}
	price, err := k.cfg.Oracle.LatestPrice(ctx)
	if err != nil {
		return err
	}

	borrowAPR := rates.Annualize(params.InterestRatePerSecond)

	k.logger.Info().
		Int64("cycle", cycleNumber).
		Str("oraclePrice", price.Format(fixedpoint.EntryDecimals)).
		Float64("borrowAPRPercent", borrowAPR).
		Msg("Scan cycle started")

	totalScanned := 0
	totalLiquidatable := 0

	for _, owner := range k.cfg.Owners {
		scanned, liquidatable, err := k.scanOwner(ctx, cycleNumber, owner, price, params)
		if err != nil {
			k.logger.Error().
				Str("owner", owner.Hex()).
				Err(err).
				Msg("Owner scan failed, continuing with next owner")
			continue
		}
		totalScanned += scanned
		totalLiquidatable += liquidatable
	}

	elapsed := time.Since(started)
	metrics.ScanCycles.Inc()
	metrics.VaultsScanned.Add(float64(totalScanned))
	metrics.LiquidatableVaults.Set(float64(totalLiquidatable))
	metrics.ScanDuration.Observe(elapsed.Seconds())
	if p, err := strconv.ParseFloat(price.Format(fixedpoint.EntryDecimals), 64); err == nil {
		metrics.OraclePrice.Set(p)
	}

	status := map[string]interface{}{
		"state":              "running",
		"cycle":              cycleNumber,
		"last_cycle_at":      started.UTC().Format(time.RFC3339),
		"cycle_duration_ms":  elapsed.Milliseconds(),
		"oracle_price":       price.Format(fixedpoint.EntryDecimals),
		"borrow_apr_percent": borrowAPR,
		"vaults_scanned":     totalScanned,
		"liquidatable_found": totalLiquidatable,
		"live_mode":          k.cfg.LiveMode,
	}

	if savingRate, err := k.cfg.Params.SavingRate(ctx, k.cfg.Pair.StableKey); err == nil {
		status["saving_apy_percent"] = rates.Annualize(savingRate)
	}
	if k.cfg.Saving != nil && k.cfg.KeeperAddress != (common.Address{}) {
		if balance, err := k.cfg.Saving.BalanceDetails(ctx, k.cfg.KeeperAddress); err == nil {
			status["keeper_saving_balance"] = balance.Current.Format(fixedpoint.EntryDecimals)
		}
	}

	k.mu.Lock()
	k.lastStatus = status
	k.mu.Unlock()

	k.logger.Info().
		Int64("cycle", cycleNumber).
		Int("vaultsScanned", totalScanned).
		Int("liquidatable", totalLiquidatable).
		Dur("elapsed", elapsed).
		Msg("Scan cycle complete")

	return nil
}

// scanOwner evaluates one owner's vaults and handles flagged ones.
func (k *Keeper) scanOwner(ctx context.Context, cycleNumber int64, owner common.Address, price fixedpoint.Amount, params types.RiskParameters) (int, int, error) {
	pass := scanner.Pass{
		Owner:       owner,
		Pair:        k.cfg.Pair,
		OraclePrice: price,
		Params:      params,
	}

	snapshot := types.ScanSnapshot{
		CycleNumber: cycleNumber,
		Timestamp:   time.Now().UTC(),
		Owner:       owner,
		Pair:        k.cfg.Pair,
		OraclePrice: price,
		Parameters:  params,
	}

	for result, err := range scanner.Scan(ctx, pass, k.cfg.Vaults) {
		if err != nil {
			if errors.Is(err, scanner.ErrVaultCount) || ctx.Err() != nil {
				return snapshot.VaultsScanned, len(snapshot.Liquidatable), err
			}
			k.logger.Error().
				Str("owner", owner.Hex()).
				Uint64("vaultID", result.VaultID).
				Err(err).
				Msg("Vault evaluation failed, skipping")
			continue
		}

		snapshot.VaultsScanned++
		snapshot.Results = append(snapshot.Results, result)

		if result.Liquidatable {
			snapshot.Liquidatable = append(snapshot.Liquidatable, result.VaultID)
			k.handleLiquidatable(ctx, cycleNumber, owner, result)
		}
	}

	if k.cfg.Persist {
		if _, err := state.SaveScanSnapshot(snapshot); err != nil {
			k.logger.Error().Err(err).Msg("Failed to persist scan snapshot")
		}
	}

	return snapshot.VaultsScanned, len(snapshot.Liquidatable), nil
}

// handleLiquidatable submits a liquidation in live mode and records the
// outcome either way.
func (k *Keeper) handleLiquidatable(ctx context.Context, cycleNumber int64, owner common.Address, result types.ScanResult) {
	attempt := types.LiquidationAttempt{
		CycleNumber: cycleNumber,
		Timestamp:   time.Now().UTC(),
		Owner:       owner,
		VaultID:     result.VaultID,
	}

	if !k.cfg.LiveMode {
		k.logger.Warn().
			Str("owner", owner.Hex()).
			Uint64("vaultID", result.VaultID).
			Msg("Dry-run mode: liquidation not submitted")
		attempt.Status = types.TxIdle
		k.recordAttempt(attempt)
		return
	}

	k.freshenCompoundRate(ctx)

	receipt, err := k.cfg.Actions.Liquidate(ctx, owner, result.VaultID)
	if err != nil {
		attempt.Status = types.TxFailed
		attempt.Error = err.Error()
		if receipt != nil {
			attempt.TxHash = receipt.TxHash
			attempt.GasUsed = receipt.GasUsed
		}
		metrics.Transactions.WithLabelValues(string(types.TxFailed)).Inc()
		k.logger.Error().
			Str("owner", owner.Hex()).
			Uint64("vaultID", result.VaultID).
			Err(err).
			Msg("Liquidation submission failed")
	} else {
		attempt.Status = types.TxConfirmed
		attempt.TxHash = receipt.TxHash
		attempt.GasUsed = receipt.GasUsed
		metrics.Transactions.WithLabelValues(string(types.TxConfirmed)).Inc()
		k.logger.Info().
			Str("owner", owner.Hex()).
			Uint64("vaultID", result.VaultID).
			Str("txHash", receipt.TxHash.Hex()).
			Msg("Liquidation confirmed")
	}

	k.recordAttempt(attempt)
}

// freshenCompoundRate pokes the borrowing contract's compounding factor
// when it has gone stale, so the liquidation settles against current
// debt. A failed poke is logged and the liquidation proceeds anyway;
// the contract recomputes on liquidate regardless.
func (k *Keeper) freshenCompoundRate(ctx context.Context) {
	if k.cfg.RateClock == nil {
		return
	}
	updatedAt, err := k.cfg.RateClock.CompoundRateUpdatedAt(ctx)
	if err != nil {
		k.logger.Warn().Err(err).Msg("Could not read compound rate age")
		return
	}
	if time.Since(updatedAt) < compoundRateStaleAfter {
		return
	}
	k.logger.Info().
		Time("lastUpdate", updatedAt).
		Msg("Compound rate is stale, updating before liquidation")
	if _, err := k.cfg.Actions.PokeCompoundRate(ctx); err != nil {
		k.logger.Warn().Err(err).Msg("Compound rate update failed, proceeding")
	}
}

func (k *Keeper) recordAttempt(attempt types.LiquidationAttempt) {
	if !k.cfg.Persist {
		return
	}
	if _, err := state.RecordLiquidationAttempt(attempt); err != nil {
		k.logger.Error().Err(err).Msg("Failed to record liquidation attempt")
	}
}
