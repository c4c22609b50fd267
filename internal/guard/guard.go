// Package guard 实现 Safe 交易守卫: 入队延迟, 代币加权否决, 全局冻结.
//
// 所有时间参数都是调用方传入的检查点 (区块号或秒), 包内不读取时钟.
package guard

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// maxVoteAttempts 投票期间入队记录被并发覆盖时的重试次数
const maxVoteAttempts = 3

var errWindowMoved = errors.New("guard: queue entry re-admitted during vote")

// Guard 组合 TransactionQueue, VetoTally, FreezeTally
type Guard struct {
	cfg    Config
	store  Store
	power  VotingPowerSource
	queue  *TransactionQueue
	veto   *VetoTally
	freeze *FreezeTally
}

// New 校验并固化配置
func New(cfg Config, store Store, verifier ApprovalVerifier, power VotingPowerSource) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || verifier == nil || power == nil {
		return nil, errors.New("guard: store, verifier and power source are required")
	}
	cfg = cfg.clone()

	return &Guard{
		cfg:    cfg,
		store:  store,
		power:  power,
		queue:  &TransactionQueue{delay: cfg.ExecutionDelay, verifier: verifier},
		veto:   &VetoTally{threshold: cfg.VetoThreshold, votingWindow: cfg.VotingWindow},
		freeze: &FreezeTally{threshold: cfg.FreezeThreshold, window: cfg.FreezeWindow},
	}, nil
}

// Config 返回配置副本
func (g *Guard) Config() Config {
	return g.cfg.clone()
}

// Queue 入队 (queueTransaction)
func (g *Guard) Queue(ctx context.Context, tx Transaction, signatures []byte, submitter common.Address, now uint64) (QueueEntry, error) {
	return g.queue.admit(ctx, g.store, tx, signatures, submitter, now)
}

func (g *Guard) Entry(ctx context.Context, fp common.Hash) (QueueEntry, error) {
	var entry QueueEntry
	err := g.store.View(ctx, func(stx StoreTx) error {
		var err error
		entry, err = g.queue.entry(stx, fp)
		return err
	})
	return entry, err
}

func (g *Guard) IsQueued(ctx context.Context, fp common.Hash) (bool, error) {
	_, err := g.Entry(ctx, fp)
	if errors.Is(err, errno.ErrNotQueued) {
		return false, nil
	}
	return err == nil, err
}

func (g *Guard) DelayElapsed(ctx context.Context, fp common.Hash, now uint64) (bool, error) {
	entry, err := g.Entry(ctx, fp)
	if err != nil {
		return false, err
	}
	return g.queue.delayElapsed(entry, now), nil
}

// Vote 投否决票, freeze 为 true 时同时计入全局冻结票
// 权重取 voter 在入队检查点的历史投票权, 查询在事务外完成
func (g *Guard) Vote(ctx context.Context, fp common.Hash, voter common.Address, freeze bool, now uint64) (VoteReceipt, error) {
	return g.vote(ctx, fp, nil, voter, freeze, now)
}

// VoteInWindow 同 Vote, 但只在入队检查点仍为 window 时计票.
// window 来自投票签名, 交易被重新入队后旧签名不能在新窗口内重放.
func (g *Guard) VoteInWindow(ctx context.Context, fp common.Hash, window uint64, voter common.Address, freeze bool, now uint64) (VoteReceipt, error) {
	return g.vote(ctx, fp, &window, voter, freeze, now)
}

func (g *Guard) vote(ctx context.Context, fp common.Hash, window *uint64, voter common.Address, freeze bool, now uint64) (VoteReceipt, error) {
	for attempt := 0; attempt < maxVoteAttempts; attempt++ {
		// 1. 读取入队记录并做前置校验, 避免无效投票触发链上查询
		var entry QueueEntry
		err := g.store.View(ctx, func(stx StoreTx) error {
			var err error
			if entry, err = g.veto.entry(stx, g.queue, fp, window); err != nil {
				return err
			}
			if err := g.veto.open(entry, now); err != nil {
				return err
			}
			return g.veto.alreadyVoted(stx, entry, voter)
		})
		if err != nil {
			return VoteReceipt{}, err
		}

		// 2. 查询历史投票权, 没有投票权的账户不能投票
		weight, err := g.power.PastVotes(ctx, voter, entry.QueuedAt)
		if err != nil {
			return VoteReceipt{}, fmt.Errorf("voting power of %s at %d: %w", voter.Hex(), entry.QueuedAt, err)
		}
		if weight == nil || weight.Sign() < 0 {
			return VoteReceipt{}, fmt.Errorf("voting power of %s: invalid weight %v", voter.Hex(), weight)
		}
		if weight.Sign() == 0 {
			return VoteReceipt{}, errno.ErrNoVotingPower
		}

		// 3. 原子写入
		receipt, err := g.castVote(ctx, entry, window, voter, weight, freeze, now)
		if errors.Is(err, errWindowMoved) {
			continue
		}
		return receipt, err
	}
	return VoteReceipt{}, errWindowMoved
}

func (g *Guard) castVote(ctx context.Context, snapshot QueueEntry, window *uint64, voter common.Address, weight *big.Int, freeze bool, now uint64) (VoteReceipt, error) {
	receipt := VoteReceipt{
		Fingerprint:  snapshot.Fingerprint,
		Window:       snapshot.QueuedAt,
		Voter:        voter,
		Weight:       copyBig(weight),
		FreezeWeight: new(big.Int),
	}

	err := g.store.Update(ctx, func(stx StoreTx) error {
		entry, err := g.veto.entry(stx, g.queue, snapshot.Fingerprint, window)
		if err != nil {
			return err
		}
		if entry.QueuedAt != snapshot.QueuedAt {
			return errWindowMoved
		}

		total, err := g.veto.cast(stx, entry, voter, weight, freeze, now)
		if err != nil {
			return err
		}
		receipt.VetoWeight = total
		receipt.Vetoed = g.veto.vetoed(total)

		if freeze {
			res, err := g.freeze.cast(stx, entry.Fingerprint, voter, weight, now)
			if err != nil {
				return err
			}
			receipt.FreezeCounted = res.counted
			receipt.FreezeWeight = res.weight
			receipt.Frozen = res.frozen
		}
		return nil
	})
	if err != nil {
		return VoteReceipt{}, err
	}
	return receipt, nil
}

// VetoWeight 当前否决窗口内的累计权重, 未入队返回 0
func (g *Guard) VetoWeight(ctx context.Context, fp common.Hash) (*big.Int, error) {
	weight := new(big.Int)
	err := g.store.View(ctx, func(stx StoreTx) error {
		entry, ok, err := stx.GetQueueEntry(fp)
		if err != nil || !ok {
			return err
		}
		weight, err = g.veto.weight(stx, entry)
		return err
	})
	return weight, err
}

func (g *Guard) IsVetoed(ctx context.Context, fp common.Hash) (bool, error) {
	weight, err := g.VetoWeight(ctx, fp)
	if err != nil {
		return false, err
	}
	return g.veto.vetoed(weight), nil
}

func (g *Guard) FreezeStatus(ctx context.Context, now uint64) (FreezeStatus, error) {
	var status FreezeStatus
	err := g.store.View(ctx, func(stx StoreTx) error {
		var err error
		status, err = g.freeze.status(stx, now)
		return err
	})
	return status, err
}

func (g *Guard) IsFrozen(ctx context.Context, now uint64) (bool, error) {
	status, err := g.FreezeStatus(ctx, now)
	return status.Frozen, err
}

// CheckTransaction Safe 执行前钩子 (checkTransaction), 无副作用
// 检查顺序: 未入队 -> 延迟未满 -> 已否决 -> 系统冻结
func (g *Guard) CheckTransaction(ctx context.Context, fp common.Hash, now uint64) error {
	return g.store.View(ctx, func(stx StoreTx) error {
		entry, err := g.queue.entry(stx, fp)
		if err != nil {
			return err
		}
		if !g.queue.delayElapsed(entry, now) {
			return errno.ErrDelayNotElapsed
		}

		weight, err := g.veto.weight(stx, entry)
		if err != nil {
			return err
		}
		if g.veto.vetoed(weight) {
			return errno.ErrVetoed
		}

		status, err := g.freeze.status(stx, now)
		if err != nil {
			return err
		}
		if status.Frozen {
			return errno.ErrSystemFrozen
		}
		return nil
	})
}

// CheckAfterExecution Safe 执行后钩子 (checkAfterExecution)
// 不修改 Guard 状态, 只记录一条执行事件
func (g *Guard) CheckAfterExecution(ctx context.Context, fp common.Hash, success bool, now uint64) error {
	return g.store.Update(ctx, func(stx StoreTx) error {
		return stx.Emit(Event{Kind: EventTransactionExecuted, Fingerprint: fp, Success: success, At: now})
	})
}

// QueuedCount 入队记录总数
func (g *Guard) QueuedCount(ctx context.Context) (int64, error) {
	var n int64
	err := g.store.View(ctx, func(stx StoreTx) error {
		var err error
		n, err = stx.CountQueueEntries()
		return err
	})
	return n, err
}
