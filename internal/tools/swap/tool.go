// Package swap implements the aggregator swap tool. The route comes
// from an external aggregator as ready-made calldata; this tool's job
// is the gate in front of it: atomic-unit conversion against on-chain
// decimals, policy ceiling and token allow-list, allowance management,
// then the sign-and-broadcast pipeline.
package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/client/routing"
	"github.com/palisade-labs/pkp-engine/internal/constants"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/policy"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

// Params is the caller input. AmountIn is a human decimal string,
// converted against tokenIn's on-chain decimals, never an assumed
// count.
type Params struct {
	TokenIn     string `json:"tokenIn"`
	TokenOut    string `json:"tokenOut"`
	AmountIn    string `json:"amountIn"`
	ChainID     uint64 `json:"chainId"`
	RPCURL      string `json:"rpcUrl"`
	SlippageBps uint64 `json:"slippageBps,omitempty"`
}

// Validate checks the parameter schema.
func (p Params) Validate() []engine.ParamError {
	var errs []engine.ParamError

	if !common.IsHexAddress(p.TokenIn) {
		errs = append(errs, engine.ParamError{Param: "tokenIn", Error: "not a valid address"})
	}
	if !common.IsHexAddress(p.TokenOut) {
		errs = append(errs, engine.ParamError{Param: "tokenOut", Error: "not a valid address"})
	}
	if p.TokenIn != "" && p.TokenIn == p.TokenOut {
		errs = append(errs, engine.ParamError{Param: "tokenOut", Error: "tokenIn and tokenOut must differ"})
	}
	if _, err := policy.ToAtomic(p.AmountIn, 18); err != nil {
		errs = append(errs, engine.ParamError{Param: "amountIn", Error: err.Error()})
	}
	if p.ChainID == 0 {
		errs = append(errs, engine.ParamError{Param: "chainId", Error: "required"})
	}
	if p.RPCURL == "" {
		errs = append(errs, engine.ParamError{Param: "rpcUrl", Error: "required"})
	}
	if p.SlippageBps > 10_000 {
		errs = append(errs, engine.ParamError{Param: "slippageBps", Error: "must be at most 10000"})
	}
	return errs
}

// PolicyStore is the registry read surface the tool needs.
type PolicyStore interface {
	GetToolPolicy(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) (registry.ToolPolicy, error)
	GetPolicyParameters(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address, names []string) (registry.Parameters, error)
}

// Dialer connects to a chain RPC endpoint.
type Dialer func(ctx context.Context, rpcURL string) (chain.Client, error)

// Tool is the swap implementation.
type Tool struct {
	store  PolicyStore
	oracle signer.Oracle
	router routing.API
	dial   Dialer
}

// Option customizes a Tool.
type Option func(*Tool)

// WithDialer overrides how chain clients are created.
func WithDialer(dial Dialer) Option {
	return func(t *Tool) { t.dial = dial }
}

// New builds the tool with production wiring.
func New(store PolicyStore, oracle signer.Oracle, router routing.API, opts ...Option) *Tool {
	t := &Tool{
		store:  store,
		oracle: oracle,
		router: router,
		dial: func(ctx context.Context, rpcURL string) (chain.Client, error) {
			return chain.Dial(ctx, rpcURL)
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements engine.Tool.
func (t *Tool) Name() string {
	return constants.ToolSwap
}

// Execute converts, gates, routes, and broadcasts. The policy verdict
// lands before the route request: a denied swap never reaches the
// aggregator.
func (t *Tool) Execute(ctx context.Context, run *engine.Run) (map[string]string, error) {
	var params Params
	if err := json.Unmarshal(run.Params, &params); err != nil {
		return nil, engine.NewExecError(engine.KindValidation, "malformed parameters", err)
	}
	if err := engine.InvalidParams(params.Validate()); err != nil {
		return nil, err
	}
	tokenIn := common.HexToAddress(params.TokenIn)
	tokenOut := common.HexToAddress(params.TokenOut)

	client, err := t.dial(ctx, params.RPCURL)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to connect to chain", err)
	}
	token := chain.NewERC20(client, tokenIn)
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to read token decimals", err)
	}
	amountIn, err := policy.ToAtomic(params.AmountIn, decimals)
	if err != nil {
		return nil, engine.NewExecError(engine.KindValidation,
			fmt.Sprintf("amountIn %q does not fit %d decimals", params.AmountIn, decimals), err)
	}

	pol, guarded, err := t.fetchPolicy(ctx, run)
	if err != nil {
		return nil, err
	}
	if guarded {
		if err := pol.Evaluate(amountIn, tokenIn); err != nil {
			return nil, err
		}
	} else {
		run.Log.Info("no policy attached, proceeding unguarded")
	}

	route, err := t.router.GetRoute(ctx, routing.RouteRequest{
		ChainID:     params.ChainID,
		From:        run.PKP.Address(),
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		SlippageBps: params.SlippageBps,
	})
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to resolve swap route", err)
	}
	run.Log.Info("route resolved",
		zap.String("router", route.To.Hex()),
		zap.String("spender", route.Spender.Hex()))

	session, err := engine.OpenSession(ctx, client, t.oracle, run.PKP)
	if err != nil {
		return nil, err
	}

	allowance, err := token.Allowance(ctx, run.PKP.Address(), route.Spender)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to read allowance", err)
	}
	var approveHash common.Hash
	if allowance.Cmp(amountIn) < 0 {
		approveData, err := chain.EncodeApprove(route.Spender, amountIn)
		if err != nil {
			return nil, engine.NewExecError(engine.KindChainFailure, "failed to encode approve", err)
		}
		approveHash, err = session.ExecuteAndConfirm(ctx,
			chain.ContractCall{To: tokenIn, Data: approveData}, "approve", 1)
		if err != nil {
			return nil, err
		}
		run.Log.Info("approval confirmed", zap.String("tx_hash", approveHash.Hex()))
	}

	swapHash, err := session.ExecuteAndConfirm(ctx,
		chain.ContractCall{To: route.To, Data: route.Data, Value: route.Value}, "swap", 1)
	if err != nil {
		if approveHash != (common.Hash{}) {
			return nil, engine.AttachPartial(err, map[string]string{"approveTxHash": approveHash.Hex()})
		}
		return nil, err
	}

	response := map[string]string{
		"swapTxHash": swapHash.Hex(),
		"amountIn":   amountIn.String(),
	}
	if route.AmountOut != nil {
		response["expectedAmountOut"] = route.AmountOut.String()
	}
	return response, nil
}

// fetchPolicy resolves the policy for the run's triple. The second
// return is false when no policy is attached at all, which is distinct
// from an attached policy with missing parameters.
func (t *Tool) fetchPolicy(ctx context.Context, run *engine.Run) (policy.SwapPolicy, bool, error) {
	binding, err := t.store.GetToolPolicy(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee)
	if err != nil {
		return policy.SwapPolicy{}, false, engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy binding", err)
	}
	if !binding.HasPolicy() {
		return policy.SwapPolicy{}, false, nil
	}

	registryParams, err := t.store.GetPolicyParameters(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee,
		[]string{policy.ParamMaxAmountIn, policy.ParamAllowedTokens})
	if err != nil {
		return policy.SwapPolicy{}, false, engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy parameters", err)
	}

	var pol policy.SwapPolicy
	if raw, ok := registryParams[policy.ParamMaxAmountIn]; ok {
		pol.MaxAmountIn, err = policy.ParseAmountParameter(raw)
		if err != nil {
			return policy.SwapPolicy{}, false, engine.NewExecError(engine.KindPolicyViolation, "malformed maxAmountIn policy parameter", err)
		}
	}
	if raw, ok := registryParams[policy.ParamAllowedTokens]; ok {
		pol.AllowedTokens, err = policy.ParseAddressListParameter(raw)
		if err != nil {
			return policy.SwapPolicy{}, false, engine.NewExecError(engine.KindPolicyViolation, "malformed allowedTokens policy parameter", err)
		}
	}
	return pol, true, nil
}
