package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

// MinNativeBalanceWei is the native balance floor required before a
// multi-transaction run starts: 0.01 of the chain's native unit. A run
// that strands mid-pipeline because it ran out of gas money is worse
// than one refused upfront.
var MinNativeBalanceWei = new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil)

// Session binds one tool run to one chain. It holds the gas quote and
// the nonce cursor for the whole run: the quote is fetched once at open
// and every transaction in the run takes the next nonce from the
// cursor, so steps never race each other at the node's pending pool.
type Session struct {
	client  chain.Client
	builder *chain.TxBuilder
	caster  *chain.Broadcaster
	oracle  signer.Oracle
	pkp     PKP
	quote   *chain.GasQuote
	nonce   uint64
	log     *zap.Logger
}

// OpenSession dials nothing itself; the caller supplies a connected
// client. The session fetches the chain ID, the fee quote and the
// pending nonce for the PKP address once, up front.
func OpenSession(ctx context.Context, client chain.Client, oracle signer.Oracle, pkp PKP) (*Session, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, NewExecError(KindChainFailure, "failed to resolve chain id", err)
	}
	quote, err := chain.NewGasOracle(client).Quote(ctx, pkp.Address())
	if err != nil {
		return nil, NewExecError(KindChainFailure, "failed to quote gas", err)
	}
	return &Session{
		client:  client,
		builder: chain.NewTxBuilder(client, chainID),
		caster:  chain.NewBroadcaster(client),
		oracle:  oracle,
		pkp:     pkp,
		quote:   quote,
		nonce:   quote.Nonce,
		log: logger.With(
			zap.String("chain_id", chainID.String()),
			zap.String("signer", pkp.EthAddress),
		),
	}, nil
}

// ChainID returns the chain this session is bound to.
func (s *Session) ChainID() *big.Int {
	return s.builder.ChainID()
}

// Client exposes the underlying chain client for read-only calls.
func (s *Session) Client() chain.Client {
	return s.client
}

// PKP returns the key-pair the session signs for.
func (s *Session) PKP() PKP {
	return s.pkp
}

// NextNonce hands out the next nonce in the run. Strictly increasing,
// never refetched from the node mid-run.
func (s *Session) NextNonce() uint64 {
	n := s.nonce
	s.nonce++
	return n
}

// EnsureNativeBalance refuses the run when the PKP's native balance is
// below the floor.
func (s *Session) EnsureNativeBalance(ctx context.Context) error {
	balance, err := s.client.BalanceAt(ctx, s.pkp.Address(), nil)
	if err != nil {
		return NewExecError(KindChainFailure, "failed to read native balance", err)
	}
	if balance.Cmp(MinNativeBalanceWei) < 0 {
		return Errorf(KindValidation,
			"insufficient native balance for gas: have %s wei, need at least %s wei",
			balance.String(), MinNativeBalanceWei.String())
	}
	return nil
}

// Execute runs the full sign-and-broadcast step for one contract call:
// estimate, build with the session's quote and next nonce, obtain the
// signature from the oracle, reassemble, broadcast.
func (s *Session) Execute(ctx context.Context, call chain.ContractCall, label string) (common.Hash, error) {
	if call.From == (common.Address{}) {
		call.From = s.pkp.Address()
	}
	gasLimit := s.builder.EstimateGasLimit(ctx, call)
	unsigned := s.builder.Build(call, gasLimit, s.quote, s.NextNonce())
	digest := s.builder.SigningDigest(unsigned)

	sig, err := s.oracle.Sign(ctx, digest, s.pkp.PublicKey, label)
	if err != nil {
		return common.Hash{}, NewExecError(KindSigningFailure,
			fmt.Sprintf("signing oracle rejected %s", label), err)
	}
	sigBytes, err := sig.Bytes()
	if err != nil {
		return common.Hash{}, NewExecError(KindSigningFailure,
			fmt.Sprintf("malformed signature for %s", label), err)
	}
	signed, err := s.builder.AttachSignature(unsigned, sigBytes)
	if err != nil {
		return common.Hash{}, NewExecError(KindSigningFailure,
			fmt.Sprintf("failed to attach signature for %s", label), err)
	}

	hash, err := s.caster.Broadcast(ctx, signed)
	if err != nil {
		return common.Hash{}, err
	}
	s.log.Info("transaction broadcast",
		zap.String("step", label),
		zap.String("tx_hash", hash.Hex()),
		zap.Uint64("nonce", signed.Nonce()))
	return hash, nil
}

// ExecuteAndConfirm broadcasts the call and waits for it to be mined
// with at least minConfirmations confirmations.
func (s *Session) ExecuteAndConfirm(ctx context.Context, call chain.ContractCall, label string, minConfirmations uint64) (common.Hash, error) {
	hash, err := s.Execute(ctx, call, label)
	if err != nil {
		return common.Hash{}, err
	}
	if err := s.caster.AwaitConfirmation(ctx, hash, minConfirmations); err != nil {
		return hash, err
	}
	return hash, nil
}
