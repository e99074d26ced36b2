package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// ChainID is the EVM chain ID of the target network.
	ChainID uint64

	// KeeperPrivateKey is the hex-encoded signing key for the keeper
	// account.
	KeeperPrivateKey string

	// KeeperMode gates transaction submission: scans run in any mode, but
	// liquidations are only broadcast when it is "live".
	KeeperMode string

	// StableKey and CollateralKey are the registry keys of the borrowing
	// pair this keeper instance watches (e.g. "FerUSD" / "FerBTC").
	StableKey     string
	CollateralKey string

	// WatchedOwners are the vault owners scanned each cycle.
	WatchedOwners []common.Address

	// ScanInterval is the pause between keeper cycles.
	ScanInterval time.Duration

	// DefaultGasLimit is the fallback gas limit if estimation fails.
	DefaultGasLimit uint64
	// GasAdjustment is the multiplier for estimated gas to ensure a call
	// that estimates at the edge still fits.
	GasAdjustment float64
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required and must be
// set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	ChainID, err = getEnvAsUint64("CHAIN_ID")
	if err != nil {
		return err
	}

	KeeperPrivateKey, err = getEnv("KEEPER_PRIVATE_KEY")
	if err != nil {
		return err
	}

	KeeperMode = os.Getenv("KEEPER_MODE")

	StableKey, err = getEnv("PAIR_STC_KEY")
	if err != nil {
		return err
	}

	CollateralKey, err = getEnv("PAIR_COL_KEY")
	if err != nil {
		return err
	}

	owners, err := getEnv("WATCHED_OWNERS")
	if err != nil {
		return err
	}
	WatchedOwners = WatchedOwners[:0]
	for _, raw := range strings.Split(owners, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !common.IsHexAddress(raw) {
			return errors.New("WATCHED_OWNERS contains an invalid address: " + raw)
		}
		WatchedOwners = append(WatchedOwners, common.HexToAddress(raw))
	}
	if len(WatchedOwners) == 0 {
		return errors.New("WATCHED_OWNERS must contain at least one address")
	}

	intervalSeconds, err := getEnvAsUint64("SCAN_INTERVAL_SECONDS")
	if err != nil {
		return err
	}
	if intervalSeconds == 0 {
		return errors.New("SCAN_INTERVAL_SECONDS must be positive")
	}
	ScanInterval = time.Duration(intervalSeconds) * time.Second

	DefaultGasLimit, err = getEnvAsUint64("GAS_DEFAULT_LIMIT")
	if err != nil {
		return err
	}

	GasAdjustment, err = getEnvAsFloat64("GAS_ADJUSTMENT")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Uint64("ChainID", ChainID).
		Str("Pair", CollateralKey+"_"+StableKey).
		Int("WatchedOwners", len(WatchedOwners)).
		Str("ScanInterval", ScanInterval.String()).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
