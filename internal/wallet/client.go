package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fer-protocol/keeper/internal/logger"
)

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidPrivateKey   = errors.New("private key is invalid")
	ErrInvalidChainID      = errors.New("chain ID is invalid")
	ErrNilBackend          = errors.New("RPC backend cannot be nil")
	ErrCallDataPackFailed  = errors.New("call data packing failed")
	ErrNonceRetrieval      = errors.New("nonce retrieval failed")
	ErrGasPriceRetrieval   = errors.New("gas price retrieval failed")
	ErrGasEstimationFailed = errors.New("gas estimation failed")
	ErrSigningFailed       = errors.New("transaction signing failed")
)

var walletLogger = logger.GetForComponent("signing_client")

// receiptPollInterval is how often Wait re-checks for a receipt when the
// node does not yet have one.
const receiptPollInterval = 2 * time.Second

// Backend is the subset of the Ethereum RPC surface the signing client
// uses. *ethclient.Client satisfies it; tests supply fakes.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
}

// SigningClient builds, signs and broadcasts contract calls with a local
// ECDSA key. It implements Submitter for the transaction controller.
type SigningClient struct {
	backend     Backend
	privateKey  *ecdsa.PrivateKey
	fromAddress common.Address
	chainID     *big.Int
	signer      gethtypes.Signer

	// defaultGasLimit is the fallback when estimation fails.
	defaultGasLimit uint64
	// gasAdjustment is the multiplier applied to estimated gas so a call
	// that estimates at the edge still fits.
	gasAdjustment float64
}

// NewSigningClient creates a signing client from a hex-encoded private key.
func NewSigningClient(backend Backend, privateKeyHex string, chainID *big.Int, defaultGasLimit uint64, gasAdjustment float64) (*SigningClient, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, ErrInvalidChainID
	}
	if gasAdjustment < 1.0 {
		return nil, fmt.Errorf("%w: gas adjustment %f must be at least 1.0", ErrInvalidChainID, gasAdjustment)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, errors.Join(ErrInvalidPrivateKey, err)
	}

	client := &SigningClient{
		backend:         backend,
		privateKey:      key,
		fromAddress:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:         chainID,
		signer:          gethtypes.LatestSignerForChainID(chainID),
		defaultGasLimit: defaultGasLimit,
		gasAdjustment:   gasAdjustment,
	}

	walletLogger.Info().
		Str("address", client.fromAddress.Hex()).
		Str("chainID", chainID.String()).
		Msg("Signing client initialized")

	return client, nil
}

// FromAddress returns the address derived from the signing key.
func (sc *SigningClient) FromAddress() common.Address {
	return sc.fromAddress
}

// Populate packs the call data, fills in nonce, gas price and gas limit,
// and signs the transaction.
func (sc *SigningClient) Populate(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) (*gethtypes.Transaction, error) {
	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: method %s: %w", ErrCallDataPackFailed, method, err)
	}

	nonce, err := sc.backend.PendingNonceAt(ctx, sc.fromAddress)
	if err != nil {
		return nil, errors.Join(ErrNonceRetrieval, err)
	}

	gasPrice, err := sc.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Join(ErrGasPriceRetrieval, err)
	}

	gasLimit, err := sc.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     sc.fromAddress,
		To:       &to,
		GasPrice: gasPrice,
		Data:     callData,
	})
	if err != nil {
		if sc.defaultGasLimit == 0 {
			return nil, errors.Join(ErrGasEstimationFailed, err)
		}
		walletLogger.Warn().
			Str("method", method).
			Err(err).
			Uint64("fallbackGasLimit", sc.defaultGasLimit).
			Msg("Gas estimation failed, using fallback limit")
		gasLimit = sc.defaultGasLimit
	} else {
		gasLimit = uint64(float64(gasLimit) * sc.gasAdjustment)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     callData,
	})

	signed, err := gethtypes.SignTx(tx, sc.signer, sc.privateKey)
	if err != nil {
		return nil, errors.Join(ErrSigningFailed, err)
	}

	walletLogger.Debug().
		Str("method", method).
		Str("to", to.Hex()).
		Uint64("nonce", nonce).
		Uint64("gasLimit", gasLimit).
		Msg("Transaction populated and signed")

	return signed, nil
}

// Send broadcasts the signed transaction.
func (sc *SigningClient) Send(ctx context.Context, tx *gethtypes.Transaction) (common.Hash, error) {
	if err := sc.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

// Wait polls until the transaction has a receipt. Timeouts are the
// caller's concern: cancel the context to stop waiting. A transaction
// that has been broadcast cannot be cancelled here, only abandoned.
func (sc *SigningClient) Wait(ctx context.Context, hash common.Hash) (*gethtypes.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := sc.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
