// Package signer abstracts the distributed signing runtime. The engine
// hands it a 32-byte digest and a public key handle; the runtime returns
// signature components that must be reassembled into the chain's native
// 65-byte format before attachment.
package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Oracle produces an aggregated signature over a digest using the key
// identified by the public key handle. Implementations may coordinate
// multiple independent signer shares; from the engine's perspective the
// call is a single opaque suspension point.
type Oracle interface {
	Sign(ctx context.Context, digest common.Hash, publicKey string, label string) (*Signature, error)
}

// Signature carries the components the signing runtime emits, hex-encoded
// the way the runtime frames them.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint64 `json:"v"`
}

// ParseSignature decodes the runtime's JSON framing.
func ParseSignature(raw []byte) (*Signature, error) {
	var sig Signature
	if err := json.Unmarshal(raw, &sig); err != nil {
		return nil, fmt.Errorf("failed to parse signature response: %w", err)
	}
	if sig.R == "" || sig.S == "" {
		return nil, fmt.Errorf("signature response missing r or s component")
	}
	return &sig, nil
}

// Bytes reassembles the canonical 65-byte r||s||v signature with the
// recovery id normalized to 0/1 as typed transactions require.
func (sig *Signature) Bytes() ([]byte, error) {
	r, err := decodeComponent(sig.R)
	if err != nil {
		return nil, fmt.Errorf("invalid r component: %w", err)
	}
	s, err := decodeComponent(sig.S)
	if err != nil {
		return nil, fmt.Errorf("invalid s component: %w", err)
	}

	v := sig.V
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, fmt.Errorf("recovery id %d out of range", sig.V)
	}

	out := make([]byte, 65)
	copy(out[32-len(r):32], r)
	copy(out[64-len(s):64], s)
	out[64] = byte(v)
	return out, nil
}

func decodeComponent(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		// Some runtimes left-pad components with a zero byte.
		b = b[len(b)-32:]
	}
	return b, nil
}
