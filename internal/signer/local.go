package signer

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// LocalSigner is an in-process Oracle backed by a single secp256k1 key.
// It stands in for the distributed runtime in development and tests; the
// component framing (digest in, r/s/v out) is identical.
type LocalSigner struct {
	key    *ecdsa.PrivateKey
	pubHex string
	logger *zap.Logger
}

// NewLocalSigner builds a signer from a hex-encoded private key.
func NewLocalSigner(privateKeyHex string) (*LocalSigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}
	return &LocalSigner{
		key:    key,
		pubHex: hex.EncodeToString(crypto.FromECDSAPub(&key.PublicKey)),
		logger: logger.Log,
	}, nil
}

// PublicKey returns the uncompressed public key hex for this signer.
func (s *LocalSigner) PublicKey() string {
	return s.pubHex
}

// Address returns the chain address derived from the signer's key.
func (s *LocalSigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// Sign produces signature components over the digest. The public key
// handle must match the key this signer holds; a mismatch means the
// caller asked for a PKP this oracle cannot sign for.
func (s *LocalSigner) Sign(ctx context.Context, digest common.Hash, publicKey string, label string) (*Signature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if normalized := strings.TrimPrefix(publicKey, "0x"); normalized != s.pubHex {
		return nil, fmt.Errorf("signing oracle does not hold key %s", publicKey)
	}

	raw, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}

	s.logger.Debug("Produced signature",
		zap.String("label", label),
		zap.String("digest", digest.Hex()))

	return &Signature{
		R: "0x" + hex.EncodeToString(raw[:32]),
		S: "0x" + hex.EncodeToString(raw[32:64]),
		V: uint64(raw[64]),
	}, nil
}
