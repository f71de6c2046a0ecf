package engine

import (
	"github.com/palisade-labs/pkp-engine/internal/execerr"
)

// The failure taxonomy lives in execerr so the chain pipeline can
// classify errors without importing the engine. The engine re-exports
// it under its own names; tools and the server only ever see these.

// ErrorKind classifies a tool execution failure.
type ErrorKind = execerr.ErrorKind

const (
	KindUnauthorized        = execerr.KindUnauthorized
	KindPolicyViolation     = execerr.KindPolicyViolation
	KindValidation          = execerr.KindValidation
	KindSigningFailure      = execerr.KindSigningFailure
	KindBroadcastTransient  = execerr.KindBroadcastTransient
	KindTransactionReverted = execerr.KindTransactionReverted
	KindAttestationPending  = execerr.KindAttestationPending
	KindChainFailure        = execerr.KindChainFailure
)

// ExecError is the structured failure type carried through a tool run.
type ExecError = execerr.ExecError

// NewExecError builds an ExecError wrapping an underlying cause.
func NewExecError(kind ErrorKind, message string, err error) *ExecError {
	return execerr.New(kind, message, err)
}

// Errorf builds an ExecError with a formatted message and no cause.
func Errorf(kind ErrorKind, format string, args ...interface{}) *ExecError {
	return execerr.Errorf(kind, format, args...)
}

// AttachPartial folds resume state into any error. Callers use it after
// a later step fails so the terminal result carries the hashes of steps
// that already committed.
func AttachPartial(err error, state map[string]string) error {
	return execerr.AttachPartial(err, state)
}

// KindOf extracts the ErrorKind from err, or KindChainFailure when err is
// not an ExecError.
func KindOf(err error) ErrorKind {
	return execerr.KindOf(err)
}

// AsExecError converts any error into an ExecError, preserving an
// existing one unchanged.
func AsExecError(err error) *ExecError {
	return execerr.As(err)
}
