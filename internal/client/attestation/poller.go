package attestation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// DefaultPollInterval is the delay between attestation queries.
const DefaultPollInterval = 5 * time.Second

// Poller waits for an attestation record to reach its terminal state.
// It retries indefinitely on "not found"; the only exits are a complete
// record, a non-pending service error, or context cancellation.
type Poller struct {
	api      API
	interval time.Duration
	log      *zap.Logger
}

// NewPoller builds a poller over the given API.
func NewPoller(api API) *Poller {
	return &Poller{
		api:      api,
		interval: DefaultPollInterval,
		log:      logger.With(zap.String("component", "attestation_poller")),
	}
}

// WithInterval overrides the poll interval. Used by tests.
func (p *Poller) WithInterval(d time.Duration) *Poller {
	p.interval = d
	return p
}

// Await polls until the attestation for txHash on the given domain is
// complete. Pending records and ErrNotFound both mean "keep waiting".
// Any other error is returned immediately wrapped as a chain failure;
// cancellation surfaces as an attestation-pending error so callers can
// report how far the run got.
func (p *Poller) Await(ctx context.Context, domain uint32, txHash common.Hash) (*Message, error) {
	attempt := 0
	for {
		attempt++
		msg, err := p.api.GetMessage(ctx, domain, txHash)
		switch {
		case errors.Is(err, ErrNotFound):
			p.log.Debug("attestation not yet indexed",
				zap.String("tx_hash", txHash.Hex()),
				zap.Int("attempt", attempt))
		case err != nil:
			return nil, engine.NewExecError(engine.KindChainFailure,
				fmt.Sprintf("attestation query failed for %s", txHash.Hex()), err)
		case msg.Complete():
			p.log.Info("attestation complete",
				zap.String("tx_hash", txHash.Hex()),
				zap.Int("attempts", attempt))
			return msg, nil
		default:
			p.log.Debug("attestation pending",
				zap.String("tx_hash", txHash.Hex()),
				zap.String("status", msg.Status),
				zap.Int("attempt", attempt))
		}

		select {
		case <-ctx.Done():
			return nil, engine.NewExecError(engine.KindAttestationPending,
				fmt.Sprintf("gave up waiting for attestation of %s", txHash.Hex()), ctx.Err())
		case <-time.After(p.interval):
		}
	}
}
