// Package registry reads the on-chain tool policy registry: the delegatee
// permission predicate and the policy parameters attached to a
// (PKP, tool, delegatee) triple. All reads are fresh per execution; the
// engine never caches registry state.
package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/palisade-labs/pkp-engine/internal/config"
	"github.com/palisade-labs/pkp-engine/internal/engine"
	"github.com/palisade-labs/pkp-engine/internal/logger"
)

const registryABIJSON = `[
  {
    "type": "function",
    "stateMutability": "view",
    "name": "isToolPermittedForDelegatee",
    "inputs": [
      {"type": "uint256", "name": "pkpTokenId"},
      {"type": "string", "name": "toolIpfsCid"},
      {"type": "address", "name": "delegatee"}
    ],
    "outputs": [
      {"type": "bool", "name": "isPermitted"},
      {"type": "bool", "name": "isEnabled"}
    ]
  },
  {
    "type": "function",
    "stateMutability": "view",
    "name": "getToolPolicyForDelegatee",
    "inputs": [
      {"type": "uint256", "name": "pkpTokenId"},
      {"type": "string", "name": "toolIpfsCid"},
      {"type": "address", "name": "delegatee"}
    ],
    "outputs": [
      {"type": "bool", "name": "enabled"},
      {"type": "string", "name": "policyIpfsCid"}
    ]
  },
  {
    "type": "function",
    "stateMutability": "view",
    "name": "getToolPolicyParameters",
    "inputs": [
      {"type": "uint256", "name": "pkpTokenId"},
      {"type": "string", "name": "toolIpfsCid"},
      {"type": "address", "name": "delegatee"},
      {"type": "string[]", "name": "parameterNames"}
    ],
    "outputs": [
      {
        "type": "tuple[]",
        "name": "parameters",
        "components": [
          {"type": "string", "name": "name"},
          {"type": "bytes", "name": "value"}
        ]
      }
    ]
  }
]`

// ContractCaller is the read-only chain access the registry client needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ToolPolicy is the registry's record binding a policy to a
// (PKP, tool, delegatee) triple. An empty or "0x" PolicyCID means the
// administrator has not attached constraint parameters: execution proceeds
// unguarded, which is distinct from a policy that denies.
type ToolPolicy struct {
	Enabled   bool
	PolicyCID string
}

// HasPolicy reports whether an enabled policy with a real content
// identifier is attached.
func (p ToolPolicy) HasPolicy() bool {
	return p.Enabled && p.PolicyCID != "" && p.PolicyCID != "0x"
}

// policyParameter mirrors the registry's parameter tuple layout.
type policyParameter struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// Parameters maps policy parameter names to their raw on-chain bytes.
// Absence of a name means "no constraint configured" for that parameter.
type Parameters map[string][]byte

// Store is the registry read surface consumers depend on. *Client
// satisfies it; tests substitute mocks.
type Store interface {
	Authorize(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) error
	GetToolPolicy(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) (ToolPolicy, error)
	GetPolicyParameters(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address, names []string) (Parameters, error)
}

// Client reads the tool policy registry contract.
type Client struct {
	caller  ContractCaller
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

var _ Store = (*Client)(nil)

// NewClient builds a registry client for one deployment.
func NewClient(caller ContractCaller, cfg config.RegistryConfig) (*Client, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid registry contract address %q", cfg.ContractAddress)
	}
	parsed, err := abi.JSON(strings.NewReader(registryABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	return &Client{
		caller:  caller,
		address: common.HexToAddress(cfg.ContractAddress),
		abi:     parsed,
		logger:  logger.Log,
	}, nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	output, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("registry call %s failed: %w", method, err)
	}
	values, err := c.abi.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// Authorize verifies the delegatee may invoke the tool on behalf of the
// PKP. It fails closed: any registry error, a missing permission, or a
// disabled tool all deny.
func (c *Client) Authorize(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) error {
	values, err := c.call(ctx, "isToolPermittedForDelegatee", pkpTokenID, toolCID, delegatee)
	if err != nil {
		return engine.NewExecError(engine.KindUnauthorized, "delegatee permission check failed", err)
	}
	isPermitted, ok1 := values[0].(bool)
	isEnabled, ok2 := values[1].(bool)
	if !ok1 || !ok2 {
		return engine.Errorf(engine.KindUnauthorized, "malformed permission response from registry")
	}
	if !isPermitted {
		return engine.Errorf(engine.KindUnauthorized,
			"delegatee %s is not permitted to use tool %s for PKP %s",
			delegatee.Hex(), toolCID, pkpTokenID.String())
	}
	if !isEnabled {
		return engine.Errorf(engine.KindUnauthorized,
			"tool %s is disabled for PKP %s", toolCID, pkpTokenID.String())
	}

	c.logger.Debug("Delegatee authorized",
		zap.String("delegatee", delegatee.Hex()),
		zap.String("tool_cid", toolCID),
		zap.String("pkp_token_id", pkpTokenID.String()))
	return nil
}

// GetToolPolicy fetches the policy binding for the triple.
func (c *Client) GetToolPolicy(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address) (ToolPolicy, error) {
	values, err := c.call(ctx, "getToolPolicyForDelegatee", pkpTokenID, toolCID, delegatee)
	if err != nil {
		return ToolPolicy{}, err
	}
	enabled, ok1 := values[0].(bool)
	cid, ok2 := values[1].(string)
	if !ok1 || !ok2 {
		return ToolPolicy{}, fmt.Errorf("malformed policy response from registry")
	}
	return ToolPolicy{Enabled: enabled, PolicyCID: cid}, nil
}

// GetPolicyParameters fetches the named policy parameters for the triple.
// Names the registry has no value for are simply absent from the result.
func (c *Client) GetPolicyParameters(ctx context.Context, pkpTokenID *big.Int, toolCID string, delegatee common.Address, names []string) (Parameters, error) {
	values, err := c.call(ctx, "getToolPolicyParameters", pkpTokenID, toolCID, delegatee, names)
	if err != nil {
		return nil, err
	}

	raw := *abi.ConvertType(values[0], new([]policyParameter)).(*[]policyParameter)

	params := make(Parameters, len(raw))
	for _, p := range raw {
		if len(p.Value) == 0 {
			continue
		}
		params[p.Name] = p.Value
	}

	c.logger.Debug("Fetched policy parameters",
		zap.String("pkp_token_id", pkpTokenID.String()),
		zap.Strings("requested", names),
		zap.Int("returned", len(params)))
	return params, nil
}
