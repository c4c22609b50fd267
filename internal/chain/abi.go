// Package chain 通过 ethclient 读取 Safe 与 ERC20Votes 合约状态
package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

const safeABIJSON = `[
  {"type":"function","name":"nonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getOwners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"function","name":"checkSignatures","stateMutability":"view","inputs":[
    {"name":"dataHash","type":"bytes32"},{"name":"data","type":"bytes"},{"name":"signatures","type":"bytes"}],"outputs":[]}
]`

const votesABIJSON = `[
  {"type":"function","name":"getPastVotes","stateMutability":"view","inputs":[
    {"name":"account","type":"address"},{"name":"timepoint","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getVotes","stateMutability":"view","inputs":[
    {"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"clock","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint48"}]},
  {"type":"function","name":"CLOCK_MODE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	safeABI  = mustParse(safeABIJSON)
	votesABI = mustParse(votesABIJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Backend ethclient.Client 满足此接口
type Backend interface {
	ethereum.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
}

// ErrReverted eth_call 被合约 revert
var ErrReverted = errors.New("execution reverted")

// call 打包调用并解包返回值, 合约 revert 包装为 ErrReverted
func call(ctx context.Context, b Backend, contract abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	out, err := b.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		if isRevert(err) {
			return nil, fmt.Errorf("%s: %w: %v", method, ErrReverted, err)
		}
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func isRevert(err error) bool {
	var de rpc.DataError
	if errors.As(err, &de) && de.ErrorData() != nil {
		return true
	}
	return strings.Contains(err.Error(), "execution reverted")
}
