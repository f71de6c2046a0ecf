package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
  {"type":"function","stateMutability":"view","name":"decimals","inputs":[],"outputs":[{"type":"uint8"}]},
  {"type":"function","stateMutability":"view","name":"balanceOf","inputs":[{"type":"address","name":"account"}],"outputs":[{"type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"allowance","inputs":[{"type":"address","name":"owner"},{"type":"address","name":"spender"}],"outputs":[{"type":"uint256"}]},
  {"type":"function","stateMutability":"nonpayable","name":"approve","inputs":[{"type":"address","name":"spender"},{"type":"uint256","name":"amount"}],"outputs":[{"type":"bool"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("invalid ABI literal: " + err.Error())
	}
	return parsed
}

// TokenInfo is the per-execution snapshot of an ERC-20 token as seen by
// one holder: declared decimals, current balance, and the allowance
// granted to a spender.
type TokenInfo struct {
	Address   common.Address
	Decimals  int
	Balance   *big.Int
	Allowance *big.Int
}

// ERC20 reads token state and encodes token calls.
type ERC20 struct {
	client Client
	token  common.Address
}

// NewERC20 binds a token contract.
func NewERC20(client Client, token common.Address) *ERC20 {
	return &ERC20{client: client, token: token}
}

func (t *ERC20) view(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}
	output, err := t.client.CallContract(ctx, ethereum.CallMsg{To: &t.token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("token call %s failed: %w", method, err)
	}
	values, err := erc20ABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// Decimals fetches the token's declared decimal count. Never assumed:
// an off-by-one here either blocks valid transfers or bypasses ceilings.
func (t *ERC20) Decimals(ctx context.Context) (int, error) {
	values, err := t.view(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return int(values[0].(uint8)), nil
}

// BalanceOf fetches the holder's token balance.
func (t *ERC20) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	values, err := t.view(ctx, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// Allowance fetches the amount the spender may move on the owner's behalf.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	values, err := t.view(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

// Info fetches decimals, balance, and allowance in one snapshot.
func (t *ERC20) Info(ctx context.Context, holder, spender common.Address) (*TokenInfo, error) {
	decimals, err := t.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := t.BalanceOf(ctx, holder)
	if err != nil {
		return nil, err
	}
	allowance, err := t.Allowance(ctx, holder, spender)
	if err != nil {
		return nil, err
	}
	return &TokenInfo{
		Address:   t.token,
		Decimals:  decimals,
		Balance:   balance,
		Allowance: allowance,
	}, nil
}

// EncodeApprove encodes approve(spender, amount) call data.
func EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approve: %w", err)
	}
	return data, nil
}
