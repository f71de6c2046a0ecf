package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/execerr"
	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// receiptPollInterval is how often AwaitConfirmation re-checks for a
// receipt while the transaction is in the mempool.
const receiptPollInterval = 5 * time.Second

// Broadcaster submits signed transactions and interprets receipts.
type Broadcaster struct {
	client Client
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given client.
func NewBroadcaster(client Client) *Broadcaster {
	return &Broadcaster{
		client: client,
		logger: logger.Log,
	}
}

// Broadcast submits a signed transaction. Network-layer failures are
// retried with the identical signed bytes, which is safe: resubmitting
// the same payload is idempotent. Exhausting retries yields a transient
// error the caller may retry again later with the same payload.
func (b *Broadcaster) Broadcast(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	operation := func() error {
		return b.client.SendTransaction(ctx, tx)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 500 * time.Millisecond
	expBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return common.Hash{}, execerr.New(execerr.KindBroadcastTransient,
			"failed to broadcast transaction", err)
	}

	hash := tx.Hash()
	b.logger.Info("Broadcast transaction",
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("nonce", tx.Nonce()))
	return hash, nil
}

// AwaitConfirmation blocks until the transaction has a receipt buried
// under minConfirmations blocks, then interprets its status. A failure
// receipt is a reverted transaction: fatal for the step and never retried
// with the same parameters. Context expiry is reported as transient.
func (b *Broadcaster) AwaitConfirmation(ctx context.Context, hash common.Hash, minConfirmations uint64) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := b.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return execerr.Errorf(execerr.KindTransactionReverted,
					"transaction %s reverted in block %d", hash.Hex(), receipt.BlockNumber.Uint64())
			}
			confirmed, err := b.confirmations(ctx, receipt)
			if err != nil {
				return err
			}
			if confirmed >= minConfirmations {
				b.logger.Info("Transaction confirmed",
					zap.String("tx_hash", hash.Hex()),
					zap.Uint64("block", receipt.BlockNumber.Uint64()),
					zap.Uint64("confirmations", confirmed))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return execerr.New(execerr.KindBroadcastTransient,
				fmt.Sprintf("gave up waiting for confirmation of %s", hash.Hex()), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (b *Broadcaster) confirmations(ctx context.Context, receipt *types.Receipt) (uint64, error) {
	header, err := b.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, execerr.New(execerr.KindBroadcastTransient,
			"failed to fetch latest header", err)
	}
	head := header.Number.Uint64()
	mined := receipt.BlockNumber.Uint64()
	if head < mined {
		return 0, nil
	}
	return head - mined + 1, nil
}
