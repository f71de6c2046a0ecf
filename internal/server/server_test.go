package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palisade-labs/pkp-engine/internal/config"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/logger"
	"github.com/palisade-labs/pkp-engine/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger("test")
}

// stubAuthorizer approves every delegation.
type stubAuthorizer struct{}

func (stubAuthorizer) Authorize(context.Context, *big.Int, string, common.Address) error {
	return nil
}

// echoTool reports its own deadline back so handlers' context plumbing
// is observable from the response.
type echoTool struct {
	name string
	err  error
}

func (t echoTool) Name() string { return t.name }

func (t echoTool) Execute(ctx context.Context, _ *engine.Run) (map[string]string, error) {
	if t.err != nil {
		return nil, t.err
	}
	deadline, ok := ctx.Deadline()
	return map[string]string{
		"hasDeadline": boolString(ok),
		"deadline":    deadline.UTC().Format(time.RFC3339),
	}, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func newTestServer(t *testing.T, tools ...engine.Tool) *gin.Engine {
	t.Helper()
	orchestrator := engine.NewOrchestrator(stubAuthorizer{})
	for _, tool := range tools {
		orchestrator.Register(tool)
	}
	cfg := &config.Config{Stage: "test", AttestationTimeout: time.Minute}
	return server.New(orchestrator, cfg).Router()
}

func executeBody(t *testing.T) *bytes.Reader {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	body, err := json.Marshal(engine.Request{
		PKP: engine.PKP{
			TokenID:    big.NewInt(42),
			EthAddress: crypto.PubkeyToAddress(key.PublicKey).Hex(),
			PublicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
		},
		ToolCID:   "QmTool",
		Delegatee: "0x2222222222222222222222222222222222222222",
		Params:    json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestHealth(t *testing.T) {
	router := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["stage"])
}

func TestListTools(t *testing.T) {
	router := newTestServer(t, echoTool{name: "alpha"}, echoTool{name: "beta"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Tools []string `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"alpha", "beta"}, body.Tools)
}

func TestExecuteSuccessCarriesDeadline(t *testing.T) {
	router := newTestServer(t, echoTool{name: "echo"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/echo/execute", executeBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result engine.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.Error)

	// The handler bounds every run with the configured timeout.
	assert.Equal(t, "true", result.Response["hasDeadline"])
}

func TestExecuteMalformedBody(t *testing.T) {
	router := newTestServer(t, echoTool{name: "echo"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/echo/execute", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExecuteStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		tool       engine.Tool
		wantStatus int
		wantKind   engine.ErrorKind
	}{
		{
			name:       "validation failure",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindValidation, "bad input")},
			wantStatus: http.StatusBadRequest,
			wantKind:   engine.KindValidation,
		},
		{
			name:       "policy violation",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindPolicyViolation, "over ceiling")},
			wantStatus: http.StatusBadRequest,
			wantKind:   engine.KindPolicyViolation,
		},
		{
			name:       "unauthorized",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindUnauthorized, "not delegated")},
			wantStatus: http.StatusForbidden,
			wantKind:   engine.KindUnauthorized,
		},
		{
			name:       "attestation pending",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindAttestationPending, "still waiting")},
			wantStatus: http.StatusAccepted,
			wantKind:   engine.KindAttestationPending,
		},
		{
			name:       "chain failure",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindChainFailure, "node down")},
			wantStatus: http.StatusBadGateway,
			wantKind:   engine.KindChainFailure,
		},
		{
			name:       "reverted",
			tool:       echoTool{name: "t", err: engine.Errorf(engine.KindTransactionReverted, "reverted")},
			wantStatus: http.StatusBadGateway,
			wantKind:   engine.KindTransactionReverted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestServer(t, tt.tool)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tools/t/execute", executeBody(t))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var result engine.ExecutionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, tt.wantKind, result.Kind)
		})
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	router := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/nope/execute", executeBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var result engine.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.Error, "unknown tool")
}

func TestExecutePendingResultCarriesPartialState(t *testing.T) {
	pending := engine.NewExecError(engine.KindAttestationPending, "attestation still pending", nil).
		WithPartial(map[string]string{"burnTxHash": "0xabc"})
	router := newTestServer(t, echoTool{name: "bridge", err: pending})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/bridge/execute", executeBody(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var result engine.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "0xabc", result.Partial["burnTxHash"])
}
