package signer

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AccessTriple pins a wrapped key to the exact (PKP, tool, delegatee)
// combination that may unwrap it. The store re-derives the unwrap key
// from the triple, so a delegatee authorized for a different tool cannot
// decrypt this tool's key material.
type AccessTriple struct {
	PKPTokenID *big.Int
	ToolCID    string
	Delegatee  common.Address
}

// WrappedKeyStore unwraps encrypted key material under an access
// condition. The registry permission check happens before any unwrap;
// the store only handles the cryptographic binding.
type WrappedKeyStore interface {
	Unwrap(ctx context.Context, ciphertext, dataHash string, triple AccessTriple) ([]byte, error)
	Wrap(ctx context.Context, plaintext []byte, triple AccessTriple) (ciphertext, dataHash string, err error)
}

// AESKeyStore implements WrappedKeyStore with AES-GCM under a key derived
// from a master secret and the access triple.
type AESKeyStore struct {
	masterSecret []byte
}

// NewAESKeyStore builds a store from a master secret.
func NewAESKeyStore(masterSecret []byte) (*AESKeyStore, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("master secret is required")
	}
	return &AESKeyStore{masterSecret: masterSecret}, nil
}

func (s *AESKeyStore) deriveKey(triple AccessTriple) []byte {
	h := sha256.New()
	h.Write(s.masterSecret)
	h.Write(triple.PKPTokenID.Bytes())
	h.Write([]byte(triple.ToolCID))
	h.Write(triple.Delegatee.Bytes())
	return h.Sum(nil)
}

// Wrap encrypts plaintext bound to the triple. The returned dataHash
// commits to the plaintext so Unwrap can detect substitution.
func (s *AESKeyStore) Wrap(ctx context.Context, plaintext []byte, triple AccessTriple) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	block, err := aes.NewCipher(s.deriveKey(triple))
	if err != nil {
		return "", "", fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("failed to build GCM: %w", err)
	}

	// Deterministic nonce from the plaintext commitment. Each plaintext
	// is wrapped once per triple, so nonce reuse cannot occur.
	digest := sha256.Sum256(plaintext)
	nonce := digest[:gcm.NonceSize()]

	sealed := gcm.Seal(nil, nonce, plaintext, []byte(triple.ToolCID))
	return base64.StdEncoding.EncodeToString(sealed),
		base64.StdEncoding.EncodeToString(digest[:]), nil
}

// Unwrap decrypts ciphertext for the triple and verifies the plaintext
// commitment.
func (s *AESKeyStore) Unwrap(ctx context.Context, ciphertext, dataHash string, triple AccessTriple) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	digest, err := base64.StdEncoding.DecodeString(dataHash)
	if err != nil {
		return nil, fmt.Errorf("invalid data hash encoding: %w", err)
	}

	block, err := aes.NewCipher(s.deriveKey(triple))
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build GCM: %w", err)
	}
	if len(digest) < gcm.NonceSize() {
		return nil, fmt.Errorf("data hash too short")
	}

	plaintext, err := gcm.Open(nil, digest[:gcm.NonceSize()], sealed, []byte(triple.ToolCID))
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap key: %w", err)
	}

	check := sha256.Sum256(plaintext)
	if base64.StdEncoding.EncodeToString(check[:]) != dataHash {
		return nil, fmt.Errorf("unwrapped key does not match its commitment")
	}
	return plaintext, nil
}
