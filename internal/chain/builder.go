package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// FallbackGasLimit is used when gas simulation fails. Generous for the
// transfer/approve/call shapes in scope; availability is preferred over
// estimation precision.
const FallbackGasLimit uint64 = 100_000

// ContractCall describes one contract invocation to be turned into a
// transaction.
type ContractCall struct {
	To    common.Address
	Data  []byte
	Value *big.Int
	From  common.Address
}

// TxBuilder assembles unsigned EIP-1559 transactions and reattaches
// signatures produced by the signing oracle.
type TxBuilder struct {
	client  Client
	chainID *big.Int
	logger  *zap.Logger
}

// NewTxBuilder creates a builder bound to one chain.
func NewTxBuilder(client Client, chainID *big.Int) *TxBuilder {
	return &TxBuilder{
		client:  client,
		chainID: chainID,
		logger:  logger.Log,
	}
}

// ChainID returns the chain the builder targets.
func (b *TxBuilder) ChainID() *big.Int {
	return b.chainID
}

// EstimateGasLimit simulates the call and applies a 20% safety margin.
// On simulation failure it falls back to FallbackGasLimit instead of
// aborting.
func (b *TxBuilder) EstimateGasLimit(ctx context.Context, call ContractCall) uint64 {
	msg := ethereum.CallMsg{
		From:  call.From,
		To:    &call.To,
		Data:  call.Data,
		Value: call.Value,
	}
	estimated, err := b.client.EstimateGas(ctx, msg)
	if err != nil {
		b.logger.Warn("Gas estimation failed, using fallback gas limit",
			zap.String("to", call.To.Hex()),
			zap.Uint64("fallback", FallbackGasLimit),
			zap.Error(err))
		return FallbackGasLimit
	}
	return estimated * 120 / 100
}

// Build assembles the unsigned EIP-1559 transaction for a contract call.
// The nonce comes from the caller: within one run the session allocates
// strictly increasing nonces across steps.
func (b *TxBuilder) Build(call ContractCall, gasLimit uint64, quote *GasQuote, nonce uint64) *types.Transaction {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   b.chainID,
		Nonce:     nonce,
		GasTipCap: quote.MaxPriorityFeePerGas,
		GasFeeCap: quote.MaxFeePerGas,
		Gas:       gasLimit,
		To:        &call.To,
		Value:     value,
		Data:      call.Data,
	})
}

// SigningDigest computes the digest the signing oracle must sign: the
// hash of the canonical serialized form under the chain's current signer.
func (b *TxBuilder) SigningDigest(tx *types.Transaction) common.Hash {
	return types.LatestSignerForChainID(b.chainID).Hash(tx)
}

// AttachSignature reassembles a broadcastable transaction from the
// unsigned record and the 65-byte signature returned by the oracle.
func (b *TxBuilder) AttachSignature(tx *types.Transaction, sig []byte) (*types.Transaction, error) {
	return tx.WithSignature(types.LatestSignerForChainID(b.chainID), sig)
}
