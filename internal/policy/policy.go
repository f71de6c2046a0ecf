// Package policy holds the typed policy records attached to a
// (PKP, tool, delegatee) triple, their on-chain encodings, and the
// evaluation predicates that gate every tool execution.
package policy

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	uint256Ty, _      = abi.NewType("uint256", "", nil)
	addressSliceTy, _ = abi.NewType("address[]", "", nil)
	stringSliceTy, _  = abi.NewType("string[]", "", nil)
)

// TransferPolicy caps the atomic amount a delegatee may move with the
// bridged transfer tool.
type TransferPolicy struct {
	MaxAmount *big.Int `json:"maxAmount"`
}

var transferArgs = abi.Arguments{{Name: "maxAmount", Type: uint256Ty}}

// Encode serializes the policy for on-chain storage.
func (p TransferPolicy) Encode() ([]byte, error) {
	if p.MaxAmount == nil {
		return nil, fmt.Errorf("transfer policy requires maxAmount")
	}
	return transferArgs.Pack(p.MaxAmount)
}

// DecodeTransferPolicy is the inverse of TransferPolicy.Encode.
func DecodeTransferPolicy(data []byte) (TransferPolicy, error) {
	values, err := transferArgs.Unpack(data)
	if err != nil {
		return TransferPolicy{}, fmt.Errorf("failed to decode transfer policy: %w", err)
	}
	return TransferPolicy{MaxAmount: values[0].(*big.Int)}, nil
}

// VaultAdminPolicy caps vault admin amounts and optionally restricts which
// vault contracts may be touched.
type VaultAdminPolicy struct {
	MaxAmount     *big.Int         `json:"maxAmount"`
	AllowedVaults []common.Address `json:"allowedVaults"`
}

var vaultAdminArgs = abi.Arguments{
	{Name: "maxAmount", Type: uint256Ty},
	{Name: "allowedVaults", Type: addressSliceTy},
}

// Encode serializes the policy for on-chain storage.
func (p VaultAdminPolicy) Encode() ([]byte, error) {
	if p.MaxAmount == nil {
		return nil, fmt.Errorf("vault admin policy requires maxAmount")
	}
	vaults := p.AllowedVaults
	if vaults == nil {
		vaults = []common.Address{}
	}
	return vaultAdminArgs.Pack(p.MaxAmount, vaults)
}

// DecodeVaultAdminPolicy is the inverse of VaultAdminPolicy.Encode.
func DecodeVaultAdminPolicy(data []byte) (VaultAdminPolicy, error) {
	values, err := vaultAdminArgs.Unpack(data)
	if err != nil {
		return VaultAdminPolicy{}, fmt.Errorf("failed to decode vault admin policy: %w", err)
	}
	return VaultAdminPolicy{
		MaxAmount:     values[0].(*big.Int),
		AllowedVaults: values[1].([]common.Address),
	}, nil
}

// SwapPolicy caps the atomic input amount of a swap and optionally
// restricts the input token.
type SwapPolicy struct {
	MaxAmountIn   *big.Int         `json:"maxAmountIn"`
	AllowedTokens []common.Address `json:"allowedTokens"`
}

var swapArgs = abi.Arguments{
	{Name: "maxAmountIn", Type: uint256Ty},
	{Name: "allowedTokens", Type: addressSliceTy},
}

// Encode serializes the policy for on-chain storage.
func (p SwapPolicy) Encode() ([]byte, error) {
	if p.MaxAmountIn == nil {
		return nil, fmt.Errorf("swap policy requires maxAmountIn")
	}
	tokens := p.AllowedTokens
	if tokens == nil {
		tokens = []common.Address{}
	}
	return swapArgs.Pack(p.MaxAmountIn, tokens)
}

// DecodeSwapPolicy is the inverse of SwapPolicy.Encode.
func DecodeSwapPolicy(data []byte) (SwapPolicy, error) {
	values, err := swapArgs.Unpack(data)
	if err != nil {
		return SwapPolicy{}, fmt.Errorf("failed to decode swap policy: %w", err)
	}
	return SwapPolicy{
		MaxAmountIn:   values[0].(*big.Int),
		AllowedTokens: values[1].([]common.Address),
	}, nil
}

// SignMessagePolicy restricts raw message signing to messages that start
// with one of the configured prefixes. An empty list permits any message.
type SignMessagePolicy struct {
	AllowedPrefixes []string `json:"allowedPrefixes"`
}

var signMessageArgs = abi.Arguments{{Name: "allowedPrefixes", Type: stringSliceTy}}

// Encode serializes the policy for on-chain storage.
func (p SignMessagePolicy) Encode() ([]byte, error) {
	prefixes := p.AllowedPrefixes
	if prefixes == nil {
		prefixes = []string{}
	}
	return signMessageArgs.Pack(prefixes)
}

// DecodeSignMessagePolicy is the inverse of SignMessagePolicy.Encode.
func DecodeSignMessagePolicy(data []byte) (SignMessagePolicy, error) {
	values, err := signMessageArgs.Unpack(data)
	if err != nil {
		return SignMessagePolicy{}, fmt.Errorf("failed to decode sign message policy: %w", err)
	}
	return SignMessagePolicy{AllowedPrefixes: values[0].([]string)}, nil
}
