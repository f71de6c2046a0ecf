// Package cctp implements the bridged USDC transfer tool: burn on the
// source chain, wait for the attestation service to certify the burn,
// mint on the destination chain. The flow is resumable; a caller whose
// run died after the burn supplies the burn hash and the tool picks up
// at the attestation step.
package cctp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/client/attestation"
	"github.com/palisade-labs/pkp-engine/internal/constants"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/policy"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

// PolicyStore is the registry read surface the tool needs.
type PolicyStore interface {
	GetToolPolicy(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) (registry.ToolPolicy, error)
	GetPolicyParameters(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address, names []string) (registry.Parameters, error)
}

// Awaiter blocks until the attestation for a burn is complete.
type Awaiter interface {
	Await(ctx context.Context, domain uint32, txHash common.Hash) (*attestation.Message, error)
}

// Dialer connects to a chain RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (chain.Client, error)

// Tool is the bridged transfer implementation.
type Tool struct {
	store      PolicyStore
	oracle     signer.Oracle
	dial       Dialer
	newAwaiter func(srcChainID uint64) (Awaiter, error)
}

// Option customizes a Tool, mainly for tests.
type Option func(*Tool)

// WithDialer overrides how chain clients are created.
func WithDialer(dial Dialer) Option {
	return func(t *Tool) { t.dial = dial }
}

// WithAwaiterFactory overrides how attestation pollers are created.
func WithAwaiterFactory(f func(srcChainID uint64) (Awaiter, error)) Option {
	return func(t *Tool) { t.newAwaiter = f }
}

// New builds the tool with production wiring.
func New(store PolicyStore, oracle signer.Oracle, opts ...Option) *Tool {
	t := &Tool{
		store:  store,
		oracle: oracle,
		dial: func(ctx context.Context, rpcURL string) (chain.Client, error) {
			return chain.Dial(ctx, rpcURL)
		},
		newAwaiter: func(srcChainID uint64) (Awaiter, error) {
			client, err := attestation.NewClientForChain(srcChainID)
			if err != nil {
				return nil, err
			}
			return attestation.NewPoller(client), nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements engine.Tool.
func (t *Tool) Name() string {
	return constants.ToolBridgedTransfer
}

// Execute runs the transfer. Order matters: parameters, then policy,
// then fund movement. Nothing is signed before the policy verdict.
func (t *Tool) Execute(ctx context.Context, run *engine.Run) (map[string]string, error) {
	var params Params
	if err := json.Unmarshal(run.Params, &params); err != nil {
		return nil, engine.NewExecError(engine.KindValidation, "malformed parameters", err)
	}
	if err := engine.InvalidParams(params.Validate()); err != nil {
		return nil, err
	}
	recipient := common.HexToAddress(params.Recipient)
	usdc := common.HexToAddress(constants.USDCAddresses[params.SrcChainID])
	messenger := common.HexToAddress(constants.TokenMessengerAddresses[params.SrcChainID])

	srcClient, err := t.dial(ctx, params.SrcRPCURL)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to connect to source chain", err)
	}

	var burnHash common.Hash
	resuming := params.BurnTxHash != ""
	if resuming {
		burnHash = common.HexToHash(params.BurnTxHash)
		run.Log.Info("resuming from committed burn", zap.String("burn_tx_hash", burnHash.Hex()))
	} else {
		burnHash, err = t.burn(ctx, run, srcClient, params, usdc, messenger, recipient)
		if err != nil {
			return nil, err
		}
	}
	partial := map[string]string{"burnTxHash": burnHash.Hex()}

	awaiter, err := t.newAwaiter(params.SrcChainID)
	if err != nil {
		return nil, engine.AttachPartial(
			engine.NewExecError(engine.KindChainFailure, "no attestation service for source chain", err), partial)
	}
	msg, err := awaiter.Await(ctx, constants.DestinationDomains[params.SrcChainID], burnHash)
	if err != nil {
		return nil, engine.AttachPartial(err, partial)
	}

	mintHash, err := t.mint(ctx, run, params, msg)
	if err != nil {
		return nil, engine.AttachPartial(err, partial)
	}

	return map[string]string{
		"burnTxHash": burnHash.Hex(),
		"mintTxHash": mintHash.Hex(),
	}, nil
}

// burn runs the source-chain half: policy gate, allowance check,
// conditional approve, then depositForBurn.
func (t *Tool) burn(ctx context.Context, run *engine.Run, client chain.Client, params Params, usdc, messenger, recipient common.Address) (common.Hash, error) {
	token := chain.NewERC20(client, usdc)
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to read token decimals", err)
	}
	amount, err := policy.ToAtomic(params.Amount, decimals)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindValidation,
			fmt.Sprintf("amount %q does not fit %d decimals", params.Amount, decimals), err)
	}

	if err := t.checkPolicy(ctx, run, amount); err != nil {
		return common.Hash{}, err
	}

	session, err := engine.OpenSession(ctx, client, t.oracle, run.PKP)
	if err != nil {
		return common.Hash{}, err
	}
	if err := session.EnsureNativeBalance(ctx); err != nil {
		return common.Hash{}, err
	}

	info, err := token.Info(ctx, run.PKP.Address(), messenger)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to read token state", err)
	}
	if info.Balance.Cmp(amount) < 0 {
		return common.Hash{}, engine.Errorf(engine.KindValidation,
			"insufficient token balance: have %s, need %s", info.Balance.String(), amount.String())
	}

	if info.Allowance.Cmp(amount) < 0 {
		approveData, err := chain.EncodeApprove(messenger, amount)
		if err != nil {
			return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to encode approve", err)
		}
		approveHash, err := session.ExecuteAndConfirm(ctx,
			chain.ContractCall{To: usdc, Data: approveData}, "approve", 1)
		if err != nil {
			return common.Hash{}, err
		}
		run.Log.Info("approval confirmed", zap.String("tx_hash", approveHash.Hex()))
	} else {
		run.Log.Debug("existing allowance covers amount, skipping approve",
			zap.String("allowance", info.Allowance.String()))
	}

	burnData, err := encodeDepositForBurn(amount, constants.DestinationDomains[params.DstChainID], recipient, usdc)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to encode burn", err)
	}
	burnHash, err := session.ExecuteAndConfirm(ctx,
		chain.ContractCall{To: messenger, Data: burnData}, "burn", 1)
	if err != nil {
		return common.Hash{}, err
	}
	run.Log.Info("burn confirmed", zap.String("tx_hash", burnHash.Hex()))
	return burnHash, nil
}

// checkPolicy gates the transfer. No attached policy means the
// administrator configured no constraints and the transfer proceeds
// unguarded; an attached policy with no ceiling denies any nonzero
// amount.
func (t *Tool) checkPolicy(ctx context.Context, run *engine.Run, amount *big.Int) error {
	binding, err := t.store.GetToolPolicy(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee)
	if err != nil {
		return engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy binding", err)
	}
	if !binding.HasPolicy() {
		run.Log.Info("no policy attached, proceeding unguarded")
		return nil
	}

	registryParams, err := t.store.GetPolicyParameters(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee,
		[]string{policy.ParamMaxAmount})
	if err != nil {
		return engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy parameters", err)
	}
	var maxAmount *big.Int
	if raw, ok := registryParams[policy.ParamMaxAmount]; ok {
		maxAmount, err = policy.ParseAmountParameter(raw)
		if err != nil {
			return engine.NewExecError(engine.KindPolicyViolation, "malformed maxAmount policy parameter", err)
		}
	}
	return policy.TransferPolicy{MaxAmount: maxAmount}.Evaluate(amount)
}

// mint runs the destination-chain half with the attested message.
func (t *Tool) mint(ctx context.Context, run *engine.Run, params Params, msg *attestation.Message) (common.Hash, error) {
	message, err := hexutil.Decode(msg.Message)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "attestation message is not valid hex", err)
	}
	att, err := hexutil.Decode(msg.Attestation)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "attestation proof is not valid hex", err)
	}
	mintData, err := encodeReceiveMessage(message, att)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to encode mint", err)
	}

	dstClient, err := t.dial(ctx, params.DstRPCURL)
	if err != nil {
		return common.Hash{}, engine.NewExecError(engine.KindChainFailure, "failed to connect to destination chain", err)
	}
	session, err := engine.OpenSession(ctx, dstClient, t.oracle, run.PKP)
	if err != nil {
		return common.Hash{}, err
	}
	if err := session.EnsureNativeBalance(ctx); err != nil {
		return common.Hash{}, err
	}

	transmitter := common.HexToAddress(constants.MessageTransmitterAddresses[params.DstChainID])
	mintHash, err := session.ExecuteAndConfirm(ctx,
		chain.ContractCall{To: transmitter, Data: mintData}, "mint", 1)
	if err != nil {
		return common.Hash{}, err
	}
	run.Log.Info("mint confirmed", zap.String("tx_hash", mintHash.Hex()))
	return mintHash, nil
}
