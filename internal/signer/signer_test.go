package signer_test

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/signer"
)

func init() {
	logger.InitLogger("test")
}

func TestSignatureBytes(t *testing.T) {
	tests := []struct {
		name    string
		sig     signer.Signature
		wantV   byte
		wantErr bool
	}{
		{
			name:  "v already normalized",
			sig:   signer.Signature{R: "0x01", S: "0x02", V: 1},
			wantV: 1,
		},
		{
			name:  "legacy v 27",
			sig:   signer.Signature{R: "0x01", S: "0x02", V: 27},
			wantV: 0,
		},
		{
			name:  "legacy v 28",
			sig:   signer.Signature{R: "0x01", S: "0x02", V: 28},
			wantV: 1,
		},
		{
			name:    "v out of range",
			sig:     signer.Signature{R: "0x01", S: "0x02", V: 5},
			wantErr: true,
		},
		{
			name:    "invalid r component",
			sig:     signer.Signature{R: "0xzz", S: "0x02", V: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.sig.Bytes()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, out, 65)
			assert.Equal(t, tt.wantV, out[64])
			assert.Equal(t, byte(0x01), out[31])
			assert.Equal(t, byte(0x02), out[63])
		})
	}
}

func TestSignatureBytesLeftPaddedComponent(t *testing.T) {
	// Runtimes sometimes emit 33-byte components with a leading zero.
	sig := signer.Signature{
		R: "0x00" + "11" + strings.Repeat("0", 62),
		S: "0x02",
		V: 0,
	}
	out, err := sig.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x11), out[0])
}

func TestParseSignature(t *testing.T) {
	sig, err := signer.ParseSignature([]byte(`{"r":"0x01","s":"0x02","v":27}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(27), sig.V)

	_, err = signer.ParseSignature([]byte(`{"v":27}`))
	assert.Error(t, err)

	_, err = signer.ParseSignature([]byte(`not json`))
	assert.Error(t, err)
}

func TestLocalSignerSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	oracle, err := signer.NewLocalSigner(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("payload"))
	sig, err := oracle.Sign(context.Background(), digest, oracle.PublicKey(), "test")
	require.NoError(t, err)

	raw, err := sig.Bytes()
	require.NoError(t, err)

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	require.NoError(t, err)
	assert.Equal(t, oracle.Address(), crypto.PubkeyToAddress(*pub))
}

func TestLocalSignerRejectsForeignKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	oracle, err := signer.NewLocalSigner(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	foreign := hex.EncodeToString(crypto.FromECDSAPub(&other.PublicKey))
	_, err = oracle.Sign(context.Background(), crypto.Keccak256Hash([]byte("payload")), foreign, "test")
	assert.Error(t, err)
}

func TestNewLocalSignerInvalidKey(t *testing.T) {
	_, err := signer.NewLocalSigner("not-a-key")
	assert.Error(t, err)
}
