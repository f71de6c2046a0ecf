package engine

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/logger"
)

// Request is the caller-facing envelope for one tool invocation.
// Delegatee is the address claiming execution rights; the registry is
// always consulted before the tool runs.
type Request struct {
	PKP       PKP             `json:"pkp"`
	ToolCID   string          `json:"toolCid"`
	Delegatee string          `json:"delegatee"`
	Params    json.RawMessage `json:"params"`
}

// Run is the per-invocation context handed to a tool.
type Run struct {
	ID        string
	PKP       PKP
	ToolCID   string
	Delegatee common.Address
	Params    json.RawMessage
	Log       *zap.Logger
}

// Authorizer gates execution on the on-chain delegation record.
type Authorizer interface {
	Authorize(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) error
}

// Tool is one executable capability. Execute returns the response
// payload on success; failures come back as errors, classified where
// the tool can tell what happened.
type Tool interface {
	Name() string
	Execute(ctx context.Context, run *Run) (map[string]string, error)
}

// Orchestrator owns the tool table and the execution pipeline: validate
// the envelope, authorize the delegatee, dispatch to the tool, convert
// the outcome into a terminal ExecutionResult.
type Orchestrator struct {
	authorizer Authorizer
	tools      map[string]Tool
	log        *zap.Logger
}

// NewOrchestrator creates an orchestrator with an empty tool table.
func NewOrchestrator(authorizer Authorizer) *Orchestrator {
	return &Orchestrator{
		authorizer: authorizer,
		tools:      make(map[string]Tool),
		log:        logger.With(zap.String("component", "orchestrator")),
	}
}

// Register adds a tool under its own name. Later registrations replace
// earlier ones.
func (o *Orchestrator) Register(tool Tool) {
	o.tools[tool.Name()] = tool
}

// ToolNames lists the registered tools.
func (o *Orchestrator) ToolNames() []string {
	names := make([]string, 0, len(o.tools))
	for name := range o.tools {
		names = append(names, name)
	}
	return names
}

// Execute runs one invocation end to end. It never returns an error:
// every failure mode is folded into the result so callers get exactly
// one terminal record per run.
func (o *Orchestrator) Execute(ctx context.Context, toolName string, req *Request) *ExecutionResult {
	runID := uuid.New().String()
	log := o.log.With(
		zap.String("run_id", runID),
		zap.String("tool", toolName),
	)

	tool, ok := o.tools[toolName]
	if !ok {
		return Failure(runID, Errorf(KindValidation, "unknown tool %q", toolName))
	}
	if err := req.PKP.Validate(); err != nil {
		return Failure(runID, NewExecError(KindValidation, "invalid pkp record", err))
	}
	if !common.IsHexAddress(req.Delegatee) {
		return Failure(runID, Errorf(KindValidation, "delegatee %q is not a valid address", req.Delegatee))
	}
	if req.ToolCID == "" {
		return Failure(runID, Errorf(KindValidation, "tool cid is required"))
	}
	delegatee := common.HexToAddress(req.Delegatee)

	if err := o.authorizer.Authorize(ctx, req.PKP.TokenID, req.ToolCID, delegatee); err != nil {
		log.Warn("delegatee not authorized",
			zap.String("delegatee", delegatee.Hex()),
			zap.Error(err))
		return Failure(runID, err)
	}

	log.Info("executing tool",
		zap.String("pkp", req.PKP.EthAddress),
		zap.String("delegatee", delegatee.Hex()))

	response, err := tool.Execute(ctx, &Run{
		ID:        runID,
		PKP:       req.PKP,
		ToolCID:   req.ToolCID,
		Delegatee: delegatee,
		Params:    req.Params,
		Log:       log,
	})
	if err != nil {
		log.Error("tool execution failed", zap.Error(err))
		return Failure(runID, err)
	}
	log.Info("tool execution succeeded")
	return Success(runID, response)
}
