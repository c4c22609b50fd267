package guard

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Store Guard 状态存储
// Update 内的全部写入要么一起提交要么全部丢弃, 且各 Update 之间线性化
type Store interface {
	View(ctx context.Context, fn func(tx StoreTx) error) error
	Update(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx 事务内可见的状态表
type StoreTx interface {
	// 入队表
	GetQueueEntry(fp common.Hash) (QueueEntry, bool, error)
	PutQueueEntry(entry QueueEntry) error
	CountQueueEntries() (int64, error)

	// 否决票表, 以 (fingerprint, window) 为单位
	HasVoted(fp common.Hash, window uint64, voter common.Address) (bool, error)
	VetoWeight(fp common.Hash, window uint64) (*big.Int, error)
	AddVote(vote Vote) error

	// 全局冻结记录
	GetFreezeState() (FreezeState, error)
	PutFreezeState(state FreezeState) error
	HasFreezeVoted(windowStart uint64, voter common.Address) (bool, error)
	AddFreezeVote(windowStart uint64, voter common.Address, weight *big.Int) error

	// Emit 记录事件, 随事务一起提交
	Emit(event Event) error
}
