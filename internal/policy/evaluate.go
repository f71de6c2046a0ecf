package policy

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/palisade-labs/pkp-engine/internal/engine"
)

// Policy parameter names shared across tools.
const (
	ParamMaxAmount       = "maxAmount"
	ParamMaxAmountIn     = "maxAmountIn"
	ParamAllowedVaults   = "allowedVaults"
	ParamAllowedTokens   = "allowedTokens"
	ParamAllowedPrefixes = "allowedPrefixes"
)

// ParseAmountParameter decodes a registry parameter stored as a UTF-8
// decimal string into a big integer.
func ParseAmountParameter(raw []byte) (*big.Int, error) {
	s := strings.TrimSpace(string(raw))
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("parameter value %q is not a base-10 integer", s)
	}
	return value, nil
}

// ParseAddressListParameter decodes a registry parameter stored as a JSON
// array of addresses, canonicalizing every entry.
func ParseAddressListParameter(raw []byte) ([]common.Address, error) {
	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parameter value is not a JSON address array: %w", err)
	}
	addrs := make([]common.Address, 0, len(entries))
	for _, entry := range entries {
		if !common.IsHexAddress(entry) {
			return nil, fmt.Errorf("parameter entry %q is not a valid address", entry)
		}
		addrs = append(addrs, common.HexToAddress(entry))
	}
	return addrs, nil
}

// ParseStringListParameter decodes a registry parameter stored as a JSON
// array of strings.
func ParseStringListParameter(raw []byte) ([]string, error) {
	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parameter value is not a JSON string array: %w", err)
	}
	return entries, nil
}

// CheckAmountCeiling enforces a mandatory numeric ceiling on an atomic
// amount. A missing ceiling denies any nonzero amount: the safe default
// for an unconfigured guardrail is zero spend, never unlimited.
func CheckAmountCeiling(name string, maxAmount, amount *big.Int) error {
	if amount == nil {
		return engine.Errorf(engine.KindPolicyViolation, "amount is required for %s check", name)
	}
	if maxAmount == nil {
		if amount.Sign() > 0 {
			return engine.Errorf(engine.KindPolicyViolation,
				"no %s configured; nonzero amount %s denied", name, amount.String())
		}
		return nil
	}
	if amount.Cmp(maxAmount) > 0 {
		return engine.Errorf(engine.KindPolicyViolation,
			"amount %s exceeds the maximum amount %s", amount.String(), maxAmount.String())
	}
	return nil
}

// CheckAllowList enforces allow-list membership after canonicalization.
// An empty list means the administrator configured no restriction.
func CheckAllowList(name string, allowed []common.Address, candidate common.Address) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, addr := range allowed {
		if addr == candidate {
			return nil
		}
	}
	return engine.Errorf(engine.KindPolicyViolation,
		"%s %s not allowed", name, candidate.Hex())
}

// Evaluate checks a requested transfer amount against the policy.
func (p TransferPolicy) Evaluate(amount *big.Int) error {
	return CheckAmountCeiling(ParamMaxAmount, p.MaxAmount, amount)
}

// Evaluate checks a vault admin action against the policy.
func (p VaultAdminPolicy) Evaluate(amount *big.Int, vault common.Address) error {
	if err := CheckAmountCeiling(ParamMaxAmount, p.MaxAmount, amount); err != nil {
		return err
	}
	return CheckAllowList("vault", p.AllowedVaults, vault)
}

// Evaluate checks a swap's atomic input amount and token against the policy.
func (p SwapPolicy) Evaluate(amountIn *big.Int, tokenIn common.Address) error {
	if err := CheckAmountCeiling(ParamMaxAmountIn, p.MaxAmountIn, amountIn); err != nil {
		return err
	}
	return CheckAllowList("token", p.AllowedTokens, tokenIn)
}

// Evaluate checks a message against the allowed prefixes.
func (p SignMessagePolicy) Evaluate(message string) error {
	if len(p.AllowedPrefixes) == 0 {
		return nil
	}
	for _, prefix := range p.AllowedPrefixes {
		if strings.HasPrefix(message, prefix) {
			return nil
		}
	}
	return engine.Errorf(engine.KindPolicyViolation,
		"message does not start with any allowed prefix")
}
