package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/mocks"
)

func init() {
	logger.InitLogger("test")
}

func TestGasOracleQuote(t *testing.T) {
	signer := common.HexToAddress("0x1111111111111111111111111111111111111111")

	tests := []struct {
		name         string
		baseFee      *big.Int
		nonce        uint64
		wantMaxFee   string
		wantPriority string
	}{
		{name: "typical base fee", baseFee: big.NewInt(100), nonce: 7, wantMaxFee: "200", wantPriority: "25"},
		{name: "large base fee", baseFee: big.NewInt(40_000_000_000), nonce: 0, wantMaxFee: "80000000000", wantPriority: "10000000000"},
		{name: "base fee below four wei", baseFee: big.NewInt(3), nonce: 1, wantMaxFee: "6", wantPriority: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mocks.NewMockClient(ctrl)
			client.EXPECT().HeaderByNumber(gomock.Any(), nil).
				Return(&types.Header{Number: big.NewInt(100), BaseFee: tt.baseFee}, nil)
			client.EXPECT().PendingNonceAt(gomock.Any(), signer).
				Return(tt.nonce, nil)

			quote, err := chain.NewGasOracle(client).Quote(context.Background(), signer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMaxFee, quote.MaxFeePerGas.String())
			assert.Equal(t, tt.wantPriority, quote.MaxPriorityFeePerGas.String())
			assert.Equal(t, tt.nonce, quote.Nonce)
		})
	}
}

func TestGasOracleQuoteNoBaseFee(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(100)}, nil)

	_, err := chain.NewGasOracle(client).Quote(context.Background(),
		common.HexToAddress("0x1111111111111111111111111111111111111111"))
	assert.Error(t, err)
}

func TestGasOracleQuoteNonceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(100)}, nil)
	client.EXPECT().PendingNonceAt(gomock.Any(), gomock.Any()).
		Return(uint64(0), errors.New("rpc unavailable"))

	_, err := chain.NewGasOracle(client).Quote(context.Background(),
		common.HexToAddress("0x1111111111111111111111111111111111111111"))
	assert.Error(t, err)
}
