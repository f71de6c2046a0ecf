// Package signmsg implements the raw message-signing tool. It never
// touches the transaction pipeline: the delegation is re-verified
// against the registry, the wrapped key is decrypted under the exact
// (PKP, tool, delegatee) triple, and the message is signed in memory.
package signmsg

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/constants"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/policy"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

// Params is the caller input. Ciphertext and DataHash are the wrapped
// key material produced when the key was provisioned for this triple.
type Params struct {
	Message    string `json:"message"`
	Ciphertext string `json:"ciphertext"`
	DataHash   string `json:"dataHash"`
}

// Validate checks the parameter schema.
func (p Params) Validate() []engine.ParamError {
	var errs []engine.ParamError

	if p.Message == "" {
		errs = append(errs, engine.ParamError{Param: "message", Error: "required"})
	}
	if p.Ciphertext == "" {
		errs = append(errs, engine.ParamError{Param: "ciphertext", Error: "required"})
	}
	if p.DataHash == "" {
		errs = append(errs, engine.ParamError{Param: "dataHash", Error: "required"})
	}
	return errs
}

// Registry is the read surface the tool needs: authorization is
// re-checked here even though the orchestrator already gated, because
// the unwrap condition must hold at the moment of decryption.
type Registry interface {
	Authorize(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) error
	GetPolicyParameters(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address, names []string) (registry.Parameters, error)
}

// Tool is the message-signing implementation.
type Tool struct {
	reg   Registry
	store signer.WrappedKeyStore
}

// New builds the tool.
func New(reg Registry, store signer.WrappedKeyStore) *Tool {
	return &Tool{reg: reg, store: store}
}

// Name implements engine.Tool.
func (t *Tool) Name() string {
	return constants.ToolSignMessage
}

// Execute re-verifies the delegation, applies the prefix allow-list,
// unwraps the key, and returns the signature over the keccak digest of
// the message bytes.
func (t *Tool) Execute(ctx context.Context, run *engine.Run) (map[string]string, error) {
	var params Params
	if err := json.Unmarshal(run.Params, &params); err != nil {
		return nil, engine.NewExecError(engine.KindValidation, "malformed parameters", err)
	}
	if err := engine.InvalidParams(params.Validate()); err != nil {
		return nil, err
	}

	if err := t.reg.Authorize(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee); err != nil {
		return nil, err
	}

	pol, err := t.fetchPolicy(ctx, run)
	if err != nil {
		return nil, err
	}
	if err := pol.Evaluate(params.Message); err != nil {
		return nil, err
	}

	keyBytes, err := t.store.Unwrap(ctx, params.Ciphertext, params.DataHash, signer.AccessTriple{
		PKPTokenID: run.PKP.TokenID,
		ToolCID:    run.ToolCID,
		Delegatee:  run.Delegatee,
	})
	if err != nil {
		return nil, engine.NewExecError(engine.KindSigningFailure, "failed to unwrap signing key", err)
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, engine.NewExecError(engine.KindSigningFailure, "unwrapped key is not a valid private key", err)
	}

	digest := crypto.Keccak256Hash([]byte(params.Message))
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, engine.NewExecError(engine.KindSigningFailure, "failed to sign message", err)
	}
	run.Log.Info("message signed",
		zap.String("signer", crypto.PubkeyToAddress(key.PublicKey).Hex()),
		zap.Int("message_len", len(params.Message)))

	return map[string]string{
		"signature": hexutil.Encode(sig),
		"digest":    digest.Hex(),
	}, nil
}

func (t *Tool) fetchPolicy(ctx context.Context, run *engine.Run) (policy.SignMessagePolicy, error) {
	registryParams, err := t.reg.GetPolicyParameters(ctx, run.PKP.TokenID, run.ToolCID, run.Delegatee,
		[]string{policy.ParamAllowedPrefixes})
	if err != nil {
		return policy.SignMessagePolicy{}, engine.NewExecError(engine.KindUnauthorized, "failed to fetch policy parameters", err)
	}

	var pol policy.SignMessagePolicy
	if raw, ok := registryParams[policy.ParamAllowedPrefixes]; ok {
		pol.AllowedPrefixes, err = policy.ParseStringListParameter(raw)
		if err != nil {
			return policy.SignMessagePolicy{}, engine.NewExecError(engine.KindPolicyViolation, "malformed allowedPrefixes policy parameter", err)
		}
	}
	return pol, nil
}
