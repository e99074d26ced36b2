package config

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// NodeRPC is the JSON-RPC endpoint for the EVM node.
	NodeRPC string

	// DefiParametersAddress is the registry contract every other protocol
	// address is resolved through.
	DefiParametersAddress common.Address
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	NodeRPC, err = getEnv("NODE_RPC")
	if err != nil {
		return err
	}

	registry, err := getEnv("DEFI_PARAMETERS_ADDRESS")
	if err != nil {
		return err
	}
	if !common.IsHexAddress(registry) {
		return errors.New("DEFI_PARAMETERS_ADDRESS must be a valid hex address, got: " + registry)
	}
	DefiParametersAddress = common.HexToAddress(registry)

	log.Debug().
		Str("NodeRPC", NodeRPC).
		Str("DefiParametersAddress", DefiParametersAddress.Hex()).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
