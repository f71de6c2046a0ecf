package policy_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palisade-labs/pkp-engine/internal/policy"
)

func TestTransferPolicyRoundTrip(t *testing.T) {
	original := policy.TransferPolicy{MaxAmount: big.NewInt(50_000_000)}

	encoded, err := original.Encode()
	require.NoError(t, err)

	decoded, err := policy.DecodeTransferPolicy(encoded)
	require.NoError(t, err)
	assert.Zero(t, original.MaxAmount.Cmp(decoded.MaxAmount))
}

func TestTransferPolicyEncodeRequiresMaxAmount(t *testing.T) {
	_, err := policy.TransferPolicy{}.Encode()
	assert.Error(t, err)
}

func TestVaultAdminPolicyRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		policy policy.VaultAdminPolicy
	}{
		{
			name: "with allow list",
			policy: policy.VaultAdminPolicy{
				MaxAmount: big.NewInt(1_000_000_000),
				AllowedVaults: []common.Address{
					common.HexToAddress("0x1111111111111111111111111111111111111111"),
					common.HexToAddress("0x2222222222222222222222222222222222222222"),
				},
			},
		},
		{
			name:   "empty allow list",
			policy: policy.VaultAdminPolicy{MaxAmount: big.NewInt(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.policy.Encode()
			require.NoError(t, err)

			decoded, err := policy.DecodeVaultAdminPolicy(encoded)
			require.NoError(t, err)
			assert.Zero(t, tt.policy.MaxAmount.Cmp(decoded.MaxAmount))
			assert.Len(t, decoded.AllowedVaults, len(tt.policy.AllowedVaults))
			for i, vault := range tt.policy.AllowedVaults {
				assert.Equal(t, vault, decoded.AllowedVaults[i])
			}
		})
	}
}

func TestSwapPolicyRoundTrip(t *testing.T) {
	original := policy.SwapPolicy{
		MaxAmountIn: big.NewInt(200_000_000),
		AllowedTokens: []common.Address{
			common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
		},
	}

	encoded, err := original.Encode()
	require.NoError(t, err)

	decoded, err := policy.DecodeSwapPolicy(encoded)
	require.NoError(t, err)
	assert.Zero(t, original.MaxAmountIn.Cmp(decoded.MaxAmountIn))
	assert.Equal(t, original.AllowedTokens, decoded.AllowedTokens)
}

func TestSignMessagePolicyRoundTrip(t *testing.T) {
	original := policy.SignMessagePolicy{AllowedPrefixes: []string{"order:", "quote:"}}

	encoded, err := original.Encode()
	require.NoError(t, err)

	decoded, err := policy.DecodeSignMessagePolicy(encoded)
	require.NoError(t, err)
	assert.Equal(t, original.AllowedPrefixes, decoded.AllowedPrefixes)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := policy.DecodeTransferPolicy([]byte{0x01, 0x02})
	assert.Error(t, err)

	_, err = policy.DecodeSwapPolicy([]byte{})
	assert.Error(t, err)
}
