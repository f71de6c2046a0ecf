package signer_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palisade-labs/pkp-engine/internal/signer"
)

func testTriple() signer.AccessTriple {
	return signer.AccessTriple{
		PKPTokenID: big.NewInt(42),
		ToolCID:    "QmToolCid",
		Delegatee:  common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	store, err := signer.NewAESKeyStore([]byte("master-secret"))
	require.NoError(t, err)

	plaintext := []byte("super secret key material")
	ciphertext, dataHash, err := store.Wrap(context.Background(), plaintext, testTriple())
	require.NoError(t, err)

	recovered, err := store.Unwrap(context.Background(), ciphertext, dataHash, testTriple())
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestUnwrapRejectsDifferentTriple(t *testing.T) {
	store, err := signer.NewAESKeyStore([]byte("master-secret"))
	require.NoError(t, err)

	ciphertext, dataHash, err := store.Wrap(context.Background(), []byte("key"), testTriple())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*signer.AccessTriple)
	}{
		{name: "different pkp", mutate: func(tr *signer.AccessTriple) { tr.PKPTokenID = big.NewInt(43) }},
		{name: "different tool", mutate: func(tr *signer.AccessTriple) { tr.ToolCID = "QmOtherTool" }},
		{name: "different delegatee", mutate: func(tr *signer.AccessTriple) {
			tr.Delegatee = common.HexToAddress("0x2222222222222222222222222222222222222222")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triple := testTriple()
			tt.mutate(&triple)
			_, err := store.Unwrap(context.Background(), ciphertext, dataHash, triple)
			assert.Error(t, err)
		})
	}
}

func TestUnwrapRejectsTamperedCiphertext(t *testing.T) {
	store, err := signer.NewAESKeyStore([]byte("master-secret"))
	require.NoError(t, err)

	_, dataHash, err := store.Wrap(context.Background(), []byte("key"), testTriple())
	require.NoError(t, err)

	_, err = store.Unwrap(context.Background(), "dGFtcGVyZWQ=", dataHash, testTriple())
	assert.Error(t, err)
}

func TestNewAESKeyStoreRequiresSecret(t *testing.T) {
	_, err := signer.NewAESKeyStore(nil)
	assert.Error(t, err)
}
