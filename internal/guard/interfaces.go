package guard

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ApprovalVerifier Safe 多签校验入口
// 签名不满足门限时返回包裹 errno.ErrInvalidApprovalProof 的错误;
// 其他错误 (RPC 超时等) 原样返回, 不视为签名无效
type ApprovalVerifier interface {
	VerifyApproval(ctx context.Context, tx Transaction, signatures []byte) error
}

// VotingPowerSource 治理代币在历史检查点的投票权重
type VotingPowerSource interface {
	PastVotes(ctx context.Context, account common.Address, checkpoint uint64) (*big.Int, error)
}

// Clock 返回当前检查点 (区块号或 unix 秒)
type Clock interface {
	Now(ctx context.Context) (uint64, error)
}

// WallClock 以 unix 秒为单位
type WallClock struct{}

func (WallClock) Now(ctx context.Context) (uint64, error) {
	return uint64(time.Now().Unix()), nil
}

// ManualClock 手动推进的时钟, 用于测试和离线回放
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

func (c *ManualClock) Set(now uint64) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d uint64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}
