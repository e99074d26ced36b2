// ./internal/state/scan_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fer-protocol/keeper/internal/types"
)

// SaveScanSnapshot persists one keeper scan cycle for one owner.
func SaveScanSnapshot(snapshot types.ScanSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	resultsJSON, err := json.Marshal(snapshot.Results)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal scan results: %w", err)
	}

	query := `
		INSERT INTO scan_snapshots (
			cycle_number, snapshot_timestamp, owner_address, pair,
			oracle_price, collateralization_ratio, liquidation_ratio,
			vaults_scanned, liquidatable_count, results
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(query,
		snapshot.CycleNumber,
		snapshot.Timestamp,
		snapshot.Owner.Hex(),
		snapshot.Pair.CollateralKey+"_"+snapshot.Pair.StableKey,
		snapshot.OraclePrice.Value.String(),
		snapshot.Parameters.CollateralizationRatio.String(),
		snapshot.Parameters.LiquidationRatio.String(),
		snapshot.VaultsScanned,
		len(snapshot.Liquidatable),
		resultsJSON,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan snapshot: %w", err)
	}

	return snapshotID, nil
}

// ScanSummary is the queryable shape of a persisted scan cycle.
type ScanSummary struct {
	SnapshotID        int64             `json:"snapshot_id"`
	CycleNumber       int64             `json:"cycle_number"`
	Timestamp         string            `json:"timestamp"`
	Owner             string            `json:"owner"`
	Pair              string            `json:"pair"`
	OraclePrice       string            `json:"oracle_price"`
	VaultsScanned     int               `json:"vaults_scanned"`
	LiquidatableCount int               `json:"liquidatable_count"`
	Results           json.RawMessage   `json:"results,omitempty"`
}

// LatestScanSummaries returns the most recent persisted scans, newest
// first.
func LatestScanSummaries(limit int) ([]ScanSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT snapshot_id, cycle_number, snapshot_timestamp, owner_address, pair,
		       oracle_price, vaults_scanned, liquidatable_count, results
		FROM scan_snapshots
		ORDER BY snapshot_id DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []ScanSummary
	for rows.Next() {
		var s ScanSummary
		var results sql.NullString
		if err := rows.Scan(&s.SnapshotID, &s.CycleNumber, &s.Timestamp, &s.Owner, &s.Pair,
			&s.OraclePrice, &s.VaultsScanned, &s.LiquidatableCount, &results); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if results.Valid {
			s.Results = json.RawMessage(results.String)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// RecordLiquidationAttempt persists one liquidation transaction outcome.
func RecordLiquidationAttempt(attempt types.LiquidationAttempt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var txHash *string
	if attempt.TxHash != (common.Hash{}) {
		hex := attempt.TxHash.Hex()
		txHash = &hex
	}

	query := `
		INSERT INTO liquidation_attempts (
			cycle_number, attempt_timestamp, owner_address, vault_id,
			tx_hash, status, gas_used, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING attempt_id;
	`

	var attemptID int64
	err := DB.QueryRow(query,
		attempt.CycleNumber,
		attempt.Timestamp,
		attempt.Owner.Hex(),
		attempt.VaultID,
		txHash,
		string(attempt.Status),
		attempt.GasUsed,
		nullIfEmpty(attempt.Error),
	).Scan(&attemptID)
	if err != nil {
		return 0, fmt.Errorf("failed to record liquidation attempt: %w", err)
	}

	return attemptID, nil
}

// LiquidationAttemptSummary is the queryable shape of a recorded attempt.
type LiquidationAttemptSummary struct {
	AttemptID   int64  `json:"attempt_id"`
	CycleNumber int64  `json:"cycle_number"`
	Timestamp   string `json:"timestamp"`
	Owner       string `json:"owner"`
	VaultID     int64  `json:"vault_id"`
	TxHash      string `json:"tx_hash,omitempty"`
	Status      string `json:"status"`
	GasUsed     int64  `json:"gas_used"`
	Error       string `json:"error,omitempty"`
}

// LatestLiquidationAttempts returns the most recent attempts, newest
// first.
func LatestLiquidationAttempts(limit int) ([]LiquidationAttemptSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT attempt_id, cycle_number, attempt_timestamp, owner_address,
		       vault_id, tx_hash, status, gas_used, error_message
		FROM liquidation_attempts
		ORDER BY attempt_id DESC
		LIMIT $1;
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query liquidation attempts: %w", err)
	}
	defer rows.Close()

	var attempts []LiquidationAttemptSummary
	for rows.Next() {
		var a LiquidationAttemptSummary
		var txHash, errMsg sql.NullString
		if err := rows.Scan(&a.AttemptID, &a.CycleNumber, &a.Timestamp, &a.Owner,
			&a.VaultID, &txHash, &a.Status, &a.GasUsed, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		a.TxHash = txHash.String
		a.Error = errMsg.String
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
