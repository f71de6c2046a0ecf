package engine

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/palisade-labs/pkp-engine/internal/constants"
)

// PKP identifies a programmable key-pair. The private key material never
// exists in one place; signing happens through the oracle against the
// public key handle.
type PKP struct {
	TokenID    *big.Int `json:"tokenId"`
	EthAddress string   `json:"ethAddress"`
	PublicKey  string   `json:"publicKey"`
}

// Address returns the PKP's chain address in canonical form.
func (p PKP) Address() common.Address {
	return common.HexToAddress(p.EthAddress)
}

// PublicKeyBytes decodes the uncompressed public key, tolerating an
// optional 0x prefix.
func (p PKP) PublicKeyBytes() ([]byte, error) {
	hexKey := strings.TrimPrefix(p.PublicKey, "0x")
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid PKP public key: %w", err)
	}
	return key, nil
}

// Validate checks the PKP record is complete enough to execute with.
func (p PKP) Validate() error {
	if p.TokenID == nil || p.TokenID.Sign() < 0 {
		return fmt.Errorf("pkp token id is required")
	}
	if !common.IsHexAddress(p.EthAddress) {
		return fmt.Errorf("pkp eth address %q is not a valid address", p.EthAddress)
	}
	if p.PublicKey == "" {
		return fmt.Errorf("pkp public key is required")
	}
	pub, err := p.PublicKeyBytes()
	if err != nil {
		return err
	}
	if _, err := crypto.UnmarshalPubkey(pub); err != nil {
		return fmt.Errorf("pkp public key is not a valid secp256k1 point: %w", err)
	}
	return nil
}

// ParamError reports a single invalid tool parameter.
type ParamError struct {
	Param string `json:"param"`
	Error string `json:"error"`
}

// ToolParams is the caller-facing input contract every tool declares.
// Validate runs before any policy or chain interaction.
type ToolParams interface {
	Validate() []ParamError
}

// InvalidParams folds parameter errors into one validation failure.
// Returns nil when the list is empty.
func InvalidParams(errs []ParamError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, len(errs))
	for i, pe := range errs {
		parts[i] = fmt.Sprintf("%s: %s", pe.Param, pe.Error)
	}
	return Errorf(KindValidation, "invalid parameters: %s", strings.Join(parts, "; "))
}

// ExecutionResult is the terminal output of every tool invocation. Status
// is always set; exactly one of Response or Error carries the outcome.
type ExecutionResult struct {
	RunID    string            `json:"runId"`
	Status   string            `json:"status"`
	Response map[string]string `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
	Kind     ErrorKind         `json:"errorKind,omitempty"`
	Partial  map[string]string `json:"partial,omitempty"`
}

// Success builds a success result with the given response payload.
func Success(runID string, response map[string]string) *ExecutionResult {
	return &ExecutionResult{
		RunID:    runID,
		Status:   constants.SuccessStatus,
		Response: response,
	}
}

// Failure converts an error into an error-status result. ExecError
// classification and partial-completion state survive the conversion.
func Failure(runID string, err error) *ExecutionResult {
	execErr := AsExecError(err)
	return &ExecutionResult{
		RunID:   runID,
		Status:  constants.ErrorStatus,
		Error:   execErr.Message,
		Kind:    execErr.Kind,
		Partial: execErr.PartialState,
	}
}
