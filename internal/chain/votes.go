package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"guard-core/internal/guard"

	"github.com/ethereum/go-ethereum/common"
)

// ERC-6372 CLOCK_MODE, 未实现 ERC-6372 的代币按区块号计时
const (
	ClockModeBlockNumber = "mode=blocknumber&from=default"
	ClockModeTimestamp   = "mode=timestamp"
)

// VotesToken ERC20Votes 治理代币
type VotesToken struct {
	backend   Backend
	address   common.Address
	timestamp bool
}

var (
	_ guard.VotingPowerSource = (*VotesToken)(nil)
	_ guard.Clock             = (*VotesToken)(nil)
)

func NewVotesToken(backend Backend, address common.Address) *VotesToken {
	return &VotesToken{backend: backend, address: address}
}

// ClockMode 读取 CLOCK_MODE(), revert 视为区块号计时
func (v *VotesToken) ClockMode(ctx context.Context) (string, error) {
	out, err := call(ctx, v.backend, votesABI, v.address, "CLOCK_MODE")
	if errors.Is(err, ErrReverted) {
		return ClockModeBlockNumber, nil
	}
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// RequireClock 检查 guard.clock 与代币的检查点单位一致, 通过后按代币时钟判断链头.
// "wall" 需要时间戳计时的代币, 否则 getPastVotes 收到的秒数会被当成未来区块号.
func (v *VotesToken) RequireClock(ctx context.Context, clock string) error {
	mode, err := v.ClockMode(ctx)
	if err != nil {
		return fmt.Errorf("read CLOCK_MODE: %w", err)
	}
	timestamp := strings.Contains(mode, ClockModeTimestamp)

	switch clock {
	case "wall":
		if !timestamp {
			return fmt.Errorf("guard.clock=wall requires a timestamp-mode votes token, %s reports %q", v.address.Hex(), mode)
		}
	case "", "block":
		if timestamp {
			return fmt.Errorf("guard.clock=block requires a blocknumber-mode votes token, %s reports %q", v.address.Hex(), mode)
		}
	default:
		return fmt.Errorf("unknown guard.clock %q", clock)
	}
	v.timestamp = timestamp
	return nil
}

// Now 代币当前的检查点: 时间戳模式读 clock(), 否则为链头区块号
func (v *VotesToken) Now(ctx context.Context) (uint64, error) {
	if !v.timestamp {
		return v.backend.BlockNumber(ctx)
	}
	out, err := call(ctx, v.backend, votesABI, v.address, "clock")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// PastVotes getPastVotes 只接受已过去的检查点, checkpoint 不早于代币时钟时改读 getVotes
func (v *VotesToken) PastVotes(ctx context.Context, account common.Address, checkpoint uint64) (*big.Int, error) {
	head, err := v.Now(ctx)
	if err != nil {
		return nil, err
	}

	var out []any
	if checkpoint >= head {
		out, err = call(ctx, v.backend, votesABI, v.address, "getVotes", account)
	} else {
		out, err = call(ctx, v.backend, votesABI, v.address, "getPastVotes", account, new(big.Int).SetUint64(checkpoint))
	}
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// BlockClock 以链头区块号为检查点
type BlockClock struct {
	backend Backend
}

var _ guard.Clock = (*BlockClock)(nil)

func NewBlockClock(backend Backend) *BlockClock {
	return &BlockClock{backend: backend}
}

func (c *BlockClock) Now(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}
