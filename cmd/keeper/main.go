package main

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fer-protocol/keeper/internal/actions"
	"github.com/fer-protocol/keeper/internal/chain"
	"github.com/fer-protocol/keeper/internal/config"
	"github.com/fer-protocol/keeper/internal/keeper"
	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/state"
	"github.com/fer-protocol/keeper/internal/wallet"
	"github.com/fer-protocol/keeper/internal/web"
)

// main is the entry point for the keeper.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Fer Keeper Starting...")

	// Initialize Database Connection (scan history and liquidation log)
	persist := os.Getenv("DB_HOST") != ""
	if persist {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
	} else {
		log.Warn().Msg("DB_HOST not set. Scan history will not be persisted.")
	}

	// Initialize JSON-RPC Connection
	ethClient, err := ethclient.Dial(config.NodeRPC)
	if err != nil {
		log.Fatal().Err(err).Msg("RPC connection error")
	}
	defer ethClient.Close()
	log.Info().Str("endpoint", config.NodeRPC).Msg("RPC connected")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 2. Protocol Discovery ---
	paramsReader, err := chain.NewParamsReader(ethClient, config.DefiParametersAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize parameter reader")
	}
	tokenReader, err := chain.NewTokenReader(ethClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token reader")
	}

	pair, err := paramsReader.LoadPair(ctx, tokenReader, config.StableKey, config.CollateralKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve borrowing pair from registry")
	}
	log.Info().
		Str("stable", pair.StableSymbol).
		Str("collateral", pair.CollateralSymbol).
		Str("borrowing", pair.Borrowing.Hex()).
		Str("oracle", pair.Oracle.Hex()).
		Msg("Borrowing pair resolved")

	oracleReader, err := chain.NewOracleReader(ethClient, pair.Oracle)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize oracle reader")
	}
	borrowingReader, err := chain.NewBorrowingReader(ethClient, pair)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize borrowing reader")
	}

	savingReader, err := chain.NewSavingReader(ethClient, pair.Saving, pair.StableDecimals)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize saving reader")
	}

	// --- 3. Transaction Stack (with Safety Switch) ---
	var service *actions.Service
	var keeperAddress common.Address
	liveMode := config.KeeperMode == "live"

	if liveMode {
		log.Warn().Msg("Initializing keeper in LIVE mode. Real transactions will be broadcast.")

		signingClient, err := wallet.NewSigningClient(
			ethClient,
			config.KeeperPrivateKey,
			new(big.Int).SetUint64(config.ChainID),
			config.DefaultGasLimit,
			config.GasAdjustment,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize signing client")
		}

		controller, err := wallet.NewController(signingClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize transaction controller")
		}
		gate, err := wallet.NewApprovalGate(controller, tokenReader, chain.ERC20ABI, signingClient.FromAddress())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize approval gate")
		}
		service, err = actions.NewService(controller, gate, pair)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize actions service")
		}
		keeperAddress = signingClient.FromAddress()
	} else {
		log.Warn().Msg("KEEPER_MODE is not 'live'. Running in dry-run mode: liquidations will be logged, not submitted.")
	}

	// --- 4. Create Keeper Instance with Dependency Injection ---
	keeperCfg := keeper.Config{
		Pair:          pair,
		Params:        paramsReader,
		Oracle:        oracleReader,
		Vaults:        borrowingReader,
		Actions:       service,
		Owners:        config.WatchedOwners,
		RateClock:     borrowingReader,
		Saving:        savingReader,
		KeeperAddress: keeperAddress,
		LiveMode:      liveMode,
		Persist:       persist,
	}

	keeperInstance, err := keeper.New(keeperCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create keeper instance")
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, keeperInstance)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting keeper status server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Start Keeper Main Loop ---
	keeperInstance.RunLoop(ctx, config.ScanInterval)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
