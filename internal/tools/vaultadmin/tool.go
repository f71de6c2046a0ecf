// Package vaultadmin implements the vault administration tool. Each
// invocation performs one asynchronous-vault management call: settling
// pending deposits or redemptions, moving assets in or out for
// deployment, or updating the invested total used for share pricing.
package vaultadmin

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/constants"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/policy"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

// Supported actions.
const (
	ActionFulfillDeposit      = "fulfillDeposit"
	ActionFulfillRedeem       = "fulfillRedeem"
	ActionTakeAssets          = "takeAssets"
	ActionReturnAssets        = "returnAssets"
	ActionUpdateInvestedTotal = "updateInvestedTotal"
)

const vaultABIJSON = `[
	{"name": "fulfillDeposit", "type": "function", "stateMutability": "nonpayable",
	 "inputs": [{"name": "controller", "type": "address"}, {"name": "assets", "type": "uint256"}], "outputs": []},
	{"name": "fulfillRedeem", "type": "function", "stateMutability": "nonpayable",
	 "inputs": [{"name": "controller", "type": "address"}, {"name": "shares", "type": "uint256"}], "outputs": []},
	{"name": "takeAssets", "type": "function", "stateMutability": "nonpayable",
	 "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []},
	{"name": "returnAssets", "type": "function", "stateMutability": "nonpayable",
	 "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []},
	{"name": "updateInvestedTotal", "type": "function", "stateMutability": "nonpayable",
	 "inputs": [{"name": "amount", "type": "uint256"}], "outputs": []}
]`

var vaultABI abi.ABI

func init() {
	var err error
	vaultABI, err = abi.JSON(strings.NewReader(vaultABIJSON))
	if err != nil {
		panic("invalid vault abi: " + err.Error())
	}
}

// actionTakesController marks actions whose first argument is the
// controller whose pending request is being settled.
var actionTakesController = map[string]bool{
	ActionFulfillDeposit: true,
	ActionFulfillRedeem:  true,
}

// Params is the caller input. Amount is in the vault asset's atomic
// units; controller is required only for the fulfill actions.
type Params struct {
	Action     string `json:"action"`
	Vault      string `json:"vault"`
	Controller string `json:"controller,omitempty"`
	Amount     string `json:"amount"`
	RPCURL     string `json:"rpcUrl"`
}

// Validate checks the parameter schema.
func (p Params) Validate() []engine.ParamError {
	var errs []engine.ParamError

	switch p.Action {
	case ActionFulfillDeposit, ActionFulfillRedeem, ActionTakeAssets, ActionReturnAssets, ActionUpdateInvestedTotal:
	default:
		errs = append(errs, engine.ParamError{Param: "action", Error: "unknown action"})
	}
	if !common.IsHexAddress(p.Vault) {
		errs = append(errs, engine.ParamError{Param: "vault", Error: "not a valid address"})
	}
	if actionTakesController[p.Action] && !common.IsHexAddress(p.Controller) {
		errs = append(errs, engine.ParamError{Param: "controller", Error: "not a valid address"})
	}
	if amount, err := policy.ParseAmountParameter([]byte(p.Amount)); err != nil {
		errs = append(errs, engine.ParamError{Param: "amount", Error: err.Error()})
	} else if amount.Sign() < 0 {
		errs = append(errs, engine.ParamError{Param: "amount", Error: "must not be negative"})
	}
	if p.RPCURL == "" {
		errs = append(errs, engine.ParamError{Param: "rpcUrl", Error: "required"})
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

// Tool is the vault admin implementation.
type Tool struct {
	store  PolicyStore
	oracle signer.Oracle
	dial   Dialer
}

// Option customizes a Tool.
type Option func(*Tool)

// WithDialer overrides how chain clients are created.
func WithDialer(dial Dialer) Option {
	return func(t *Tool) { t.dial = dial }
}

// New builds the tool with production wiring.
func New(store PolicyStore, oracle signer.Oracle, opts ...Option) *Tool {
	t := &Tool{
		store:  store,
		oracle: oracle,
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
	return constants.ToolVaultAdmin
}

// Execute validates, gates on the vault allow-list and amount ceiling,
// then signs and broadcasts the single management call.
func (t *Tool) Execute(ctx context.Context, run *engine.Run) (map[string]string, error) {
	var params Params
	if err := json.Unmarshal(run.Params, &params); err != nil {
		return nil, engine.NewExecError(engine.KindValidation, "malformed parameters", err)
	}
	if err := engine.InvalidParams(params.Validate()); err != nil {
		return nil, err
	}
	vault := common.HexToAddress(params.Vault)
	amount, _ := policy.ParseAmountParameter([]byte(params.Amount))

	pol, guarded, err := t.fetchPolicy(ctx, run)
	if err != nil {
		return nil, err
	}
	if guarded {
		if err := pol.Evaluate(amount, vault); err != nil {
			return nil, err
		}
	} else {
		run.Log.Info("no policy attached, proceeding unguarded")
	}

	data, err := encodeAction(params, amount)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to encode vault call", err)
	}

	client, err := t.dial(ctx, params.RPCURL)
	if err != nil {
		return nil, engine.NewExecError(engine.KindChainFailure, "failed to connect to chain", err)
	}
	session, err := engine.OpenSession(ctx, client, t.oracle, run.PKP)
	if err != nil {
		return nil, err
	}

	hash, err := session.ExecuteAndConfirm(ctx,
		chain.ContractCall{To: vault, Data: data}, params.Action, 1)
	if err != nil {
		return nil, err
	}
	run.Log.Info("vault call confirmed",
		zap.String("action", params.Action),
		zap.String("vault", vault.Hex()),
		zap.String("tx_hash", hash.Hex()))

	return map[string]string{
		"action": params.Action,
		"txHash": hash.Hex(),
	}, nil
}

// fetchPolicy resolves the policy for the run's triple. The second
// return is false when no policy is attached at all, which is distinct
// from an attached policy with missing parameters.
func (t *Tool) fetchPolicy(ctx context.Context, run *engine.Run) (policy.VaultAdminPolicy, bool, error) {
	binding, err := t.store.GetToolPolicy(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee)
	if err != nil {
		return policy.VaultAdminPolicy{}, false, engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy binding", err)
	}
	if !binding.HasPolicy() {
		return policy.VaultAdminPolicy{}, false, nil
	}

	registryParams, err := t.store.GetPolicyParameters(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee,
		[]string{policy.ParamMaxAmount, policy.ParamAllowedVaults})
	if err != nil {
		return policy.VaultAdminPolicy{}, false, engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy parameters", err)
	}

	var pol policy.VaultAdminPolicy
	if raw, ok := registryParams[policy.ParamMaxAmount]; ok {
		pol.MaxAmount, err = policy.ParseAmountParameter(raw)
		if err != nil {
			return policy.VaultAdminPolicy{}, false, engine.NewExecError(engine.KindPolicyViolation, "malformed maxAmount policy parameter", err)
		}
	}
	if raw, ok := registryParams[policy.ParamAllowedVaults]; ok {
		pol.AllowedVaults, err = policy.ParseAddressListParameter(raw)
		if err != nil {
			return policy.VaultAdminPolicy{}, false, engine.NewExecError(engine.KindPolicyViolation, "malformed allowedVaults policy parameter", err)
		}
	}
	return pol, true, nil
}

func encodeAction(params Params, amount *big.Int) ([]byte, error) {
	if actionTakesController[params.Action] {
		return vaultABI.Pack(params.Action, common.HexToAddress(params.Controller), amount)
	}
	return vaultABI.Pack(params.Action, amount)
}
