package routing_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palisade-labs/pkp-engine/internal/client/routing"
	"github.com/palisade-labs/pkp-engine/internal/logger"
)

func init() {
	logger.InitLogger("test")
}

func routeRequest() routing.RouteRequest {
	return routing.RouteRequest{
		ChainID:  8453,
		From:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		TokenIn:  common.HexToAddress("0x4444444444444444444444444444444444444444"),
		TokenOut: common.HexToAddress("0x5555555555555555555555555555555555555555"),
		AmountIn: big.NewInt(1_000_000),
	}
}

func TestGetRoute(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tx": map[string]string{
				"to":    "0x6666666666666666666666666666666666666666",
				"data":  "0xcafe01",
				"value": "0",
			},
			"spender":   "0x7777777777777777777777777777777777777777",
			"amountOut": "987654",
			"gas":       "210000",
		})
	}))
	defer srv.Close()

	client := routing.NewClient(srv.URL, "test-api-key")
	route, err := client.GetRoute(context.Background(), routeRequest())
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/shortcuts/route", gotPath)
	assert.Equal(t, "Bearer test-api-key", gotAuth)
	assert.Equal(t, "8453", gotQuery["chainId"])
	assert.Equal(t, "1000000", gotQuery["amountIn"])
	// Unspecified slippage falls back to the default tolerance.
	assert.Equal(t, "50", gotQuery["slippage"])

	assert.Equal(t, common.HexToAddress("0x6666666666666666666666666666666666666666"), route.To)
	assert.Equal(t, []byte{0xca, 0xfe, 0x01}, route.Data)
	assert.Equal(t, common.HexToAddress("0x7777777777777777777777777777777777777777"), route.Spender)
	assert.Equal(t, big.NewInt(987_654), route.AmountOut)
	assert.Equal(t, uint64(210_000), route.GasEstimate)
}

func TestGetRouteSpenderDefaultsToRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tx": map[string]string{
				"to":   "0x6666666666666666666666666666666666666666",
				"data": "cafe",
			},
		})
	}))
	defer srv.Close()

	client := routing.NewClient(srv.URL, "key")
	route, err := client.GetRoute(context.Background(), routeRequest())
	require.NoError(t, err)

	// Bare calldata gets the hex prefix; a missing spender means the
	// router itself pulls the tokens.
	assert.Equal(t, []byte{0xca, 0xfe}, route.Data)
	assert.Equal(t, route.To, route.Spender)
	assert.Nil(t, route.AmountOut)
}

func TestGetRouteRejectsNonPositiveAmount(t *testing.T) {
	client := routing.NewClient("https://example.invalid", "key")

	req := routeRequest()
	req.AmountIn = big.NewInt(0)
	_, err := client.GetRoute(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive amountIn")
}

func TestGetRouteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tx": map[string]string{"to": "not-an-address", "data": "0x"},
		})
	}))
	defer srv.Close()

	client := routing.NewClient(srv.URL, "key")
	_, err := client.GetRoute(context.Background(), routeRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid router address")
}
