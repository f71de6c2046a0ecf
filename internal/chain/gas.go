package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// GasQuote is an ephemeral fee quote plus the signer's next sequence
// number. Computed fresh per signing step and never persisted: fee markets
// and nonces are time-sensitive.
type GasQuote struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	Nonce                uint64
}

// GasOracle computes fee quotes from recent chain state.
type GasOracle struct {
	client Client
	logger *zap.Logger
}

// NewGasOracle creates a gas oracle over the given client.
func NewGasOracle(client Client) *GasOracle {
	return &GasOracle{
		client: client,
		logger: logger.Log,
	}
}

// Quote samples the latest block's base fee and derives a fixed-multiplier
// quote: priority fee = base/4, max fee = base*2. Deliberately simple; it
// may overpay in volatile markets but does not underpay enough to stall
// under normal conditions. The nonce is the signer's pending transaction
// count; chaining additional unconfirmed transactions in one run is the
// session's responsibility, not the oracle's.
func (o *GasOracle) Quote(ctx context.Context, signer common.Address) (*GasQuote, error) {
	header, err := o.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest header: %w", err)
	}
	if header.BaseFee == nil {
		return nil, fmt.Errorf("chain does not report a base fee")
	}

	nonce, err := o.client.PendingNonceAt(ctx, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce for %s: %w", signer.Hex(), err)
	}

	quote := &GasQuote{
		MaxFeePerGas:         new(big.Int).Mul(header.BaseFee, big.NewInt(2)),
		MaxPriorityFeePerGas: new(big.Int).Div(header.BaseFee, big.NewInt(4)),
		Nonce:                nonce,
	}

	o.logger.Debug("Computed gas quote",
		zap.String("signer", signer.Hex()),
		zap.String("base_fee", header.BaseFee.String()),
		zap.String("max_fee_per_gas", quote.MaxFeePerGas.String()),
		zap.String("max_priority_fee_per_gas", quote.MaxPriorityFeePerGas.String()),
		zap.Uint64("nonce", nonce))

	return quote, nil
}
