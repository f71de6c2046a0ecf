// Package attestation talks to the cross-chain attestation service that
// issues finality proofs for source-chain burn events. A burn cannot be
// minted on the destination chain until the service reports a complete
// message for its transaction hash.
package attestation

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	httpclient "github.com/palisade-labs/pkp-engine/internal/client/http"
	"github.com/palisade-labs/pkp-engine/internal/constants"
)

// ErrNotFound means the service has not yet indexed the transaction.
// Callers treat it as "attestation pending", never as a failure.
var ErrNotFound = errors.New("attestation message not found")

// MessageStatusComplete is the terminal state of an attestation record.
const MessageStatusComplete = "complete"

// Message is one attestation record. Message and Attestation are the
// hex payloads the destination chain's receiveMessage call consumes.
type Message struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Attestation string `json:"attestation"`
}

// Complete reports whether the record reached its terminal state.
func (m *Message) Complete() bool {
	return m.Status == MessageStatusComplete
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

// API is the query surface the poller needs.
type API interface {
	GetMessage(ctx context.Context, domain uint32, txHash common.Hash) (*Message, error)
}

// Client queries one deployment of the attestation service.
type Client struct {
	http *httpclient.HTTPClient
}

// NewClient builds a client for the given base URL. Status-code retries
// are disabled: the poller owns retry policy, and a 404 must surface
// immediately as "pending" rather than being retried generically.
func NewClient(baseURL string) *Client {
	return &Client{
		http: httpclient.NewHTTPClient(
			httpclient.WithBaseURL(baseURL),
			httpclient.WithoutRetries(),
		),
	}
}

// NewClientForChain builds a client for the deployment serving the given
// source chain.
func NewClientForChain(srcChainID uint64) (*Client, error) {
	baseURL, ok := constants.AttestationAPIURLs[srcChainID]
	if !ok {
		return nil, fmt.Errorf("no attestation service configured for chain %d", srcChainID)
	}
	return NewClient(baseURL), nil
}

// GetMessage fetches the attestation record for a source-chain
// transaction. A 404 maps to ErrNotFound; any other failure is returned
// as-is since it likely indicates malformed input, not transience.
func (c *Client) GetMessage(ctx context.Context, domain uint32, txHash common.Hash) (*Message, error) {
	path := fmt.Sprintf("/v2/messages/%d", domain)
	resp, err := c.http.Get(ctx, path, httpclient.WithQueryParam("transactionHash", txHash.Hex()))
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var body messagesResponse
	if err := c.http.ProcessJSONResponse(resp, &body); err != nil {
		return nil, fmt.Errorf("failed to decode attestation response: %w", err)
	}
	if len(body.Messages) == 0 {
		return nil, ErrNotFound
	}
	return &body.Messages[0], nil
}
