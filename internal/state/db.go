// ./internal/state/db.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS scan_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			cycle_number BIGINT NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			owner_address VARCHAR(42) NOT NULL,
			pair VARCHAR(64) NOT NULL,

			-- The contemporaneous reads the cycle evaluated against
			oracle_price NUMERIC(78, 0) NOT NULL,
			collateralization_ratio NUMERIC(78, 0) NOT NULL,
			liquidation_ratio NUMERIC(78, 0) NOT NULL,

			vaults_scanned INTEGER NOT NULL,
			liquidatable_count INTEGER NOT NULL,
			results JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_scan_snapshots_cycle ON scan_snapshots(cycle_number DESC);
		CREATE INDEX IF NOT EXISTS idx_scan_snapshots_owner ON scan_snapshots(owner_address);
		CREATE INDEX IF NOT EXISTS idx_scan_snapshots_timestamp ON scan_snapshots(snapshot_timestamp DESC);

		CREATE TABLE IF NOT EXISTS liquidation_attempts (
			attempt_id SERIAL PRIMARY KEY,
			cycle_number BIGINT NOT NULL,
			attempt_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			owner_address VARCHAR(42) NOT NULL,
			vault_id BIGINT NOT NULL,
			tx_hash VARCHAR(66),
			status VARCHAR(16) NOT NULL,
			gas_used BIGINT NOT NULL DEFAULT 0,
			error_message TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_liquidation_attempts_cycle ON liquidation_attempts(cycle_number DESC);
		CREATE INDEX IF NOT EXISTS idx_liquidation_attempts_owner_vault ON liquidation_attempts(owner_address, vault_id);
	`

	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

	if err := ensureCycleCounterTable(); err != nil {
		return err
	}

	log.Info().Msg("Database schema ensured successfully.")
	return nil
}
