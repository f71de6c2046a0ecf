// Package routing resolves swap routes through an external aggregator
// API. The aggregator returns ready-to-broadcast calldata against its
// router contract; the engine never constructs swap paths itself.
package routing

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	httpclient "github.com/palisade-labs/pkp-engine/internal/client/http"
)

// DefaultSlippageBps is applied when the caller does not specify
// slippage tolerance (0.5%).
const DefaultSlippageBps = 50

// DefaultBaseURL is the production aggregator deployment.
const DefaultBaseURL = "https://api.enso.finance"

// RouteRequest describes the swap the caller wants priced and encoded.
type RouteRequest struct {
	ChainID     uint64
	From        common.Address
	TokenIn     common.Address
	TokenOut    common.Address
	AmountIn    *big.Int
	SlippageBps uint64
}

// Route is the aggregator's answer: a contract call plus the spender
// that must hold an allowance for TokenIn before the call executes.
type Route struct {
	To          common.Address
	Data        []byte
	Value       *big.Int
	Spender     common.Address
	AmountOut   *big.Int
	GasEstimate uint64
}

type routeResponse struct {
	Tx struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
	} `json:"tx"`
	Spender   string `json:"spender"`
	AmountOut string `json:"amountOut"`
	Gas       string `json:"gas"`
}

// API is the route-resolution surface the swap tool depends on.
type API interface {
	GetRoute(ctx context.Context, req RouteRequest) (*Route, error)
}

// Client queries the aggregator's routing endpoint.
type Client struct {
	http   *httpclient.HTTPClient
	apiKey string
}

// NewClient builds a routing client. The API key is sent as a bearer
// token on every request.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http: httpclient.NewHTTPClient(
			httpclient.WithBaseURL(baseURL),
		),
		apiKey: apiKey,
	}
}

// GetRoute resolves a route for the requested swap.
func (c *Client) GetRoute(ctx context.Context, req RouteRequest) (*Route, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, errors.New("route request requires a positive amountIn")
	}
	slippage := req.SlippageBps
	if slippage == 0 {
		slippage = DefaultSlippageBps
	}

	resp, err := c.http.Get(ctx, "/api/v1/shortcuts/route",
		httpclient.WithBearerToken(c.apiKey),
		httpclient.WithQueryParam("chainId", fmt.Sprintf("%d", req.ChainID)),
		httpclient.WithQueryParam("fromAddress", req.From.Hex()),
		httpclient.WithQueryParam("tokenIn", req.TokenIn.Hex()),
		httpclient.WithQueryParam("tokenOut", req.TokenOut.Hex()),
		httpclient.WithQueryParam("amountIn", req.AmountIn.String()),
		httpclient.WithQueryParam("slippage", fmt.Sprintf("%d", slippage)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch swap route")
	}

	var body routeResponse
	if err := c.http.ProcessJSONResponse(resp, &body); err != nil {
		return nil, errors.Wrap(err, "failed to decode route response")
	}
	return parseRoute(&body)
}

func parseRoute(body *routeResponse) (*Route, error) {
	if !common.IsHexAddress(body.Tx.To) {
		return nil, errors.Errorf("route response has invalid router address %q", body.Tx.To)
	}
	data, err := hexutil.Decode(ensureHexPrefix(body.Tx.Data))
	if err != nil {
		return nil, errors.Wrap(err, "route response has invalid calldata")
	}

	route := &Route{
		To:    common.HexToAddress(body.Tx.To),
		Data:  data,
		Value: new(big.Int),
	}
	if body.Tx.Value != "" {
		v, ok := new(big.Int).SetString(strings.TrimPrefix(body.Tx.Value, "0x"), base(body.Tx.Value))
		if !ok {
			return nil, errors.Errorf("route response has invalid value %q", body.Tx.Value)
		}
		route.Value = v
	}
	if body.Spender != "" {
		if !common.IsHexAddress(body.Spender) {
			return nil, errors.Errorf("route response has invalid spender %q", body.Spender)
		}
		route.Spender = common.HexToAddress(body.Spender)
	} else {
		route.Spender = route.To
	}
	if body.AmountOut != "" {
		out, ok := new(big.Int).SetString(body.AmountOut, 10)
		if !ok {
			return nil, errors.Errorf("route response has invalid amountOut %q", body.AmountOut)
		}
		route.AmountOut = out
	}
	if body.Gas != "" {
		g, ok := new(big.Int).SetString(body.Gas, 10)
		if !ok || !g.IsUint64() {
			return nil, errors.Errorf("route response has invalid gas %q", body.Gas)
		}
		route.GasEstimate = g.Uint64()
	}
	return route, nil
}

func ensureHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}

func base(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}
