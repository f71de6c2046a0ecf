// Package execerr defines the failure taxonomy shared by the chain
// pipeline and the execution engine. It sits below both so either side
// can classify failures without importing the other.
package execerr

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a tool execution failure. Callers use the kind to
// decide whether a retry can possibly succeed and with what input.
type ErrorKind string

const (
	// KindUnauthorized means the caller is not a permitted or enabled
	// delegatee for the PKP and tool. Fatal, no retry.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindPolicyViolation means a numeric ceiling or allow-list check
	// failed. Fatal, the caller must adjust the request.
	KindPolicyViolation ErrorKind = "policy_violation"

	// KindValidation means the tool parameters failed schema validation
	// before any chain interaction.
	KindValidation ErrorKind = "validation"

	// KindSigningFailure means the signing oracle failed. Fatal for the
	// step; a fresh transaction must be derived before signing again.
	KindSigningFailure ErrorKind = "signing_failure"

	// KindBroadcastTransient is a network-layer broadcast failure. Safe to
	// retry with the identical signed bytes.
	KindBroadcastTransient ErrorKind = "broadcast_transient"

	// KindTransactionReverted means the chain executed and rejected the
	// transaction. Retrying with the same parameters will revert again.
	KindTransactionReverted ErrorKind = "transaction_reverted"

	// KindAttestationPending means the cross-chain attestation had not
	// reached its terminal state before the caller's deadline. The
	// underlying message may still complete later.
	KindAttestationPending ErrorKind = "attestation_pending"

	// KindChainFailure covers other chain-level failures (RPC errors,
	// nonce issues surfaced by the node).
	KindChainFailure ErrorKind = "chain_failure"
)

// ExecError is the structured failure type carried through a tool run.
// PartialState holds resume information when earlier steps already
// committed (e.g. the burn transaction hash after a failed mint).
type ExecError struct {
	Kind         ErrorKind
	Message      string
	PartialState map[string]string
	Err          error
}

func (e *ExecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// New builds an ExecError wrapping an underlying cause.
func New(kind ErrorKind, message string, err error) *ExecError {
	return &ExecError{Kind: kind, Message: message, Err: err}
}

// Errorf builds an ExecError with a formatted message and no cause.
func Errorf(kind ErrorKind, format string, args ...interface{}) *ExecError {
	return &ExecError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithPartial attaches resume state to the error and returns it.
func (e *ExecError) WithPartial(state map[string]string) *ExecError {
	e.PartialState = state
	return e
}

// AttachPartial folds resume state into any error. Callers use it after
// a later step fails so the terminal result carries the hashes of steps
// that already committed.
func AttachPartial(err error, state map[string]string) error {
	return As(err).WithPartial(state)
}

// KindOf extracts the ErrorKind from err, or KindChainFailure when err is
// not an ExecError.
func KindOf(err error) ErrorKind {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return KindChainFailure
}

// As converts any error into an ExecError, preserving an existing one
// unchanged.
func As(err error) *ExecError {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr
	}
	return New(KindChainFailure, err.Error(), err)
}
