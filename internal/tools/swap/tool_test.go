package swap_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/palisade-labs/pkp-engine/internal/chain"
	"github.com/palisade-labs/pkp-engine/internal/client/routing"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/mocks"
	"github.com/palisade-labs/pkp-engine/internal/policy"
	"github.com/palisade-labs/pkp-engine/internal/registry"
	"github.com/palisade-labs/pkp-engine/internal/signer"
	"github.com/palisade-labs/pkp-engine/internal/tools/swap"
)

func init() {
	logger.InitLogger("test")
}

const (
	tokenInAddr  = "0x4444444444444444444444444444444444444444"
	tokenOutAddr = "0x5555555555555555555555555555555555555555"
	routerAddr   = "0x6666666666666666666666666666666666666666"
)

func newRun(t *testing.T, oracle *signer.LocalSigner, params swap.Params) *engine.Run {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return &engine.Run{
		ID: "run-1",
		PKP: engine.PKP{
			TokenID:    big.NewInt(9),
			EthAddress: oracle.Address().Hex(),
			PublicKey:  oracle.PublicKey(),
		},
		ToolCID:   "QmSwap",
		Delegatee: common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Params:    raw,
		Log:       logger.Log,
	}
}

func newOracle(t *testing.T) *signer.LocalSigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	oracle, err := signer.NewLocalSigner(hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	return oracle
}

func expectTokenReads(client *mocks.MockClient, decimals uint8, allowance *big.Int) {
	client.EXPECT().CallContract(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			switch hexutil.Encode(msg.Data[:4]) {
			case "0x313ce567": // decimals()
				return common.LeftPadBytes([]byte{decimals}, 32), nil
			case "0xdd62ed3e": // allowance(address,address)
				return common.LeftPadBytes(allowance.Bytes(), 32), nil
			}
			return nil, fmt.Errorf("unexpected eth_call selector %s", hexutil.Encode(msg.Data[:4]))
		}).AnyTimes()
}

func expectSessionCalls(client *mocks.MockClient, sender common.Address) {
	client.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(8453), nil).AnyTimes()
	client.EXPECT().HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(50)}, nil).AnyTimes()
	client.EXPECT().PendingNonceAt(gomock.Any(), sender).Return(uint64(0), nil).AnyTimes()
	client.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(200_000), nil).AnyTimes()
	client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(10)}, nil).AnyTimes()
}

func attachPolicy(store *mocks.MockStore) {
	store.EXPECT().GetToolPolicy(gomock.Any(), big.NewInt(9), "QmSwap", gomock.Any()).
		Return(registry.ToolPolicy{Enabled: true, PolicyCID: "QmSwapPolicy"}, nil)
}

func validParams() swap.Params {
	return swap.Params{
		TokenIn:  tokenInAddr,
		TokenOut: tokenOutAddr,
		AmountIn: "2.5",
		ChainID:  8453,
		RPCURL:   "https://rpc.test",
	}
}

func TestExecuteSwapWithApprove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := newOracle(t)
	store := mocks.NewMockStore(ctrl)
	router := mocks.NewMockRoutingAPI(ctrl)

	// 2.5 at 18 decimals.
	amountIn, _ := new(big.Int).SetString("2500000000000000000", 10)

	attachPolicy(store)
	store.EXPECT().GetPolicyParameters(gomock.Any(), big.NewInt(9), "QmSwap",
		gomock.Any(), []string{policy.ParamMaxAmountIn, policy.ParamAllowedTokens}).
		Return(registry.Parameters{
			policy.ParamMaxAmountIn:   []byte("5000000000000000000"),
			policy.ParamAllowedTokens: []byte(`["` + tokenInAddr + `"]`),
		}, nil)

	routeData := []byte{0xca, 0xfe, 0x01}
	router.EXPECT().GetRoute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req routing.RouteRequest) (*routing.Route, error) {
			assert.Equal(t, uint64(8453), req.ChainID)
			assert.Equal(t, oracle.Address(), req.From)
			assert.Equal(t, common.HexToAddress(tokenInAddr), req.TokenIn)
			assert.Equal(t, common.HexToAddress(tokenOutAddr), req.TokenOut)
			assert.Equal(t, amountIn, req.AmountIn)
			return &routing.Route{
				To:        common.HexToAddress(routerAddr),
				Data:      routeData,
				Value:     big.NewInt(0),
				Spender:   common.HexToAddress(routerAddr),
				AmountOut: big.NewInt(777),
			}, nil
		})

	client := mocks.NewMockClient(ctrl)
	expectSessionCalls(client, oracle.Address())
	expectTokenReads(client, 18, big.NewInt(0)) // zero allowance forces approve
	var sent []*types.Transaction
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			sent = append(sent, tx)
			return nil
		}).Times(2)

	tool := swap.New(store, oracle, router, swap.WithDialer(
		func(context.Context, string) (chain.Client, error) { return client, nil }))

	result, err := tool.Execute(context.Background(), newRun(t, oracle, validParams()))
	require.NoError(t, err)

	require.Len(t, sent, 2)
	approve, swapTx := sent[0], sent[1]
	assert.Equal(t, common.HexToAddress(tokenInAddr), *approve.To())
	assert.Contains(t, hexutil.Encode(approve.Data()),
		hex.EncodeToString(common.LeftPadBytes(amountIn.Bytes(), 32)))
	assert.Equal(t, common.HexToAddress(routerAddr), *swapTx.To())
	assert.Equal(t, routeData, swapTx.Data())
	assert.Equal(t, swapTx.Nonce(), approve.Nonce()+1)

	assert.Equal(t, swapTx.Hash().Hex(), result["swapTxHash"])
	assert.Equal(t, amountIn.String(), result["amountIn"])
	assert.Equal(t, "777", result["expectedAmountOut"])
}

func TestExecuteSkipsApproveWhenAllowanceCovers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := newOracle(t)
	store := mocks.NewMockStore(ctrl)
	router := mocks.NewMockRoutingAPI(ctrl)

	attachPolicy(store)
	store.EXPECT().GetPolicyParameters(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(registry.Parameters{policy.ParamMaxAmountIn: []byte("5000000000000000000")}, nil)
	router.EXPECT().GetRoute(gomock.Any(), gomock.Any()).
		Return(&routing.Route{
			To:      common.HexToAddress(routerAddr),
			Data:    []byte{0xca, 0xfe},
			Value:   big.NewInt(0),
			Spender: common.HexToAddress(routerAddr),
		}, nil)

	bigAllowance, _ := new(big.Int).SetString("9000000000000000000", 10)
	client := mocks.NewMockClient(ctrl)
	expectSessionCalls(client, oracle.Address())
	expectTokenReads(client, 18, bigAllowance)
	var sent []*types.Transaction
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			sent = append(sent, tx)
			return nil
		}).Times(1)

	tool := swap.New(store, oracle, router, swap.WithDialer(
		func(context.Context, string) (chain.Client, error) { return client, nil }))

	result, err := tool.Execute(context.Background(), newRun(t, oracle, validParams()))
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Equal(t, common.HexToAddress(routerAddr), *sent[0].To())
	assert.Equal(t, sent[0].Hash().Hex(), result["swapTxHash"])
	assert.NotContains(t, result, "expectedAmountOut")
}

func TestExecuteNoPolicyAttachedProceedsUnguarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := newOracle(t)
	store := mocks.NewMockStore(ctrl)
	router := mocks.NewMockRoutingAPI(ctrl)

	// No binding on the triple, so the swap runs without any ceiling or
	// allow-list check. GetPolicyParameters carries no expectation:
	// looking up parameters without a binding fails the test.
	store.EXPECT().GetToolPolicy(gomock.Any(), big.NewInt(9), "QmSwap", gomock.Any()).
		Return(registry.ToolPolicy{}, nil)

	router.EXPECT().GetRoute(gomock.Any(), gomock.Any()).
		Return(&routing.Route{
			To:      common.HexToAddress(routerAddr),
			Data:    []byte{0xca, 0xfe},
			Value:   big.NewInt(0),
			Spender: common.HexToAddress(routerAddr),
		}, nil)

	bigAllowance, _ := new(big.Int).SetString("9000000000000000000", 10)
	client := mocks.NewMockClient(ctrl)
	expectSessionCalls(client, oracle.Address())
	expectTokenReads(client, 18, bigAllowance)
	var sent []*types.Transaction
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			sent = append(sent, tx)
			return nil
		}).Times(1)

	tool := swap.New(store, oracle, router, swap.WithDialer(
		func(context.Context, string) (chain.Client, error) { return client, nil }))

	result, err := tool.Execute(context.Background(), newRun(t, oracle, validParams()))
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, sent[0].Hash().Hex(), result["swapTxHash"])
}

func TestExecuteDeniedSwapNeverReachesAggregator(t *testing.T) {
	tests := []struct {
		name    string
		params  registry.Parameters
		wantMsg string
	}{
		{
			name:    "no ceiling configured",
			params:  registry.Parameters{},
			wantMsg: "no maxAmountIn configured",
		},
		{
			name:    "amount over ceiling",
			params:  registry.Parameters{policy.ParamMaxAmountIn: []byte("1000000000000000000")},
			wantMsg: "exceeds",
		},
		{
			name: "token not allowed",
			params: registry.Parameters{
				policy.ParamMaxAmountIn:   []byte("5000000000000000000"),
				policy.ParamAllowedTokens: []byte(`["` + tokenOutAddr + `"]`),
			},
			wantMsg: "not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			oracle := newOracle(t)
			store := mocks.NewMockStore(ctrl)
			// No GetRoute expectation: calling the aggregator fails the test.
			router := mocks.NewMockRoutingAPI(ctrl)

			attachPolicy(store)
			store.EXPECT().GetPolicyParameters(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return(tt.params, nil)

			client := mocks.NewMockClient(ctrl)
			expectTokenReads(client, 18, big.NewInt(0))

			tool := swap.New(store, oracle, router, swap.WithDialer(
				func(context.Context, string) (chain.Client, error) { return client, nil }))

			_, err := tool.Execute(context.Background(), newRun(t, oracle, validParams()))
			require.Error(t, err)
			assert.Equal(t, engine.KindPolicyViolation, engine.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExecuteSwapFailureCarriesApproveHash(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oracle := newOracle(t)
	store := mocks.NewMockStore(ctrl)
	router := mocks.NewMockRoutingAPI(ctrl)

	attachPolicy(store)
	store.EXPECT().GetPolicyParameters(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(registry.Parameters{policy.ParamMaxAmountIn: []byte("5000000000000000000")}, nil)
	router.EXPECT().GetRoute(gomock.Any(), gomock.Any()).
		Return(&routing.Route{
			To:      common.HexToAddress(routerAddr),
			Data:    []byte{0xca, 0xfe},
			Value:   big.NewInt(0),
			Spender: common.HexToAddress(routerAddr),
		}, nil)

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().ChainID(gomock.Any()).Return(big.NewInt(8453), nil).AnyTimes()
	client.EXPECT().HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(100), BaseFee: big.NewInt(50)}, nil).AnyTimes()
	client.EXPECT().PendingNonceAt(gomock.Any(), oracle.Address()).Return(uint64(0), nil).AnyTimes()
	client.EXPECT().EstimateGas(gomock.Any(), gomock.Any()).Return(uint64(200_000), nil).AnyTimes()
	expectTokenReads(client, 18, big.NewInt(0))

	var approveHash common.Hash
	client.EXPECT().SendTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *types.Transaction) error {
			if approveHash == (common.Hash{}) {
				approveHash = tx.Hash()
			}
			return nil
		}).Times(2)
	// The approve mines cleanly; the swap reverts on-chain.
	client.EXPECT().TransactionReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, hash common.Hash) (*types.Receipt, error) {
			status := types.ReceiptStatusFailed
			if hash == approveHash {
				status = types.ReceiptStatusSuccessful
			}
			return &types.Receipt{Status: status, BlockNumber: big.NewInt(10)}, nil
		}).AnyTimes()

	tool := swap.New(store, oracle, router, swap.WithDialer(
		func(context.Context, string) (chain.Client, error) { return client, nil }))

	_, err := tool.Execute(context.Background(), newRun(t, oracle, validParams()))
	require.Error(t, err)
	assert.Equal(t, engine.KindTransactionReverted, engine.KindOf(err))
	assert.Equal(t, approveHash.Hex(), engine.AsExecError(err).PartialState["approveTxHash"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*swap.Params)
		wantParam string
	}{
		{name: "valid", mutate: func(*swap.Params) {}},
		{name: "bad tokenIn", mutate: func(p *swap.Params) { p.TokenIn = "token" }, wantParam: "tokenIn"},
		{name: "same token both sides", mutate: func(p *swap.Params) { p.TokenOut = p.TokenIn }, wantParam: "tokenOut"},
		{name: "bad amount", mutate: func(p *swap.Params) { p.AmountIn = "lots" }, wantParam: "amountIn"},
		{name: "missing chain", mutate: func(p *swap.Params) { p.ChainID = 0 }, wantParam: "chainId"},
		{name: "missing rpc", mutate: func(p *swap.Params) { p.RPCURL = "" }, wantParam: "rpcUrl"},
		{name: "slippage over full", mutate: func(p *swap.Params) { p.SlippageBps = 10_001 }, wantParam: "slippageBps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			errs := params.Validate()
			if tt.wantParam == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantParam, errs[0].Param)
		})
	}
}
