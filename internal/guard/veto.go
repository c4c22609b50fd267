package guard

import (
	"errors"
	"fmt"
	"math/big"

	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// VetoTally 单笔交易的否决计票
type VetoTally struct {
	threshold    *big.Int
	votingWindow uint64
}

// vetoed 严格大于阈值才算否决, 恰好等于阈值不否决
func (v *VetoTally) vetoed(weight *big.Int) bool {
	return weight.Cmp(v.threshold) > 0
}

// entry 读取投票目标; window 非空时要求入队检查点与之相同
func (v *VetoTally) entry(stx StoreTx, q *TransactionQueue, fp common.Hash, window *uint64) (QueueEntry, error) {
	e, err := q.entry(stx, fp)
	if errors.Is(err, errno.ErrNotQueued) {
		return QueueEntry{}, errno.ErrNotYetQueued
	}
	if err != nil {
		return QueueEntry{}, err
	}
	if window != nil && e.QueuedAt != *window {
		return QueueEntry{}, errno.ErrInvalidVoteSignature.WithMessage(
			fmt.Sprintf("vote signed for queue window %d, current window is %d", *window, e.QueuedAt))
	}
	return e, nil
}

// open 检查投票窗口是否仍然开放
func (v *VetoTally) open(e QueueEntry, now uint64) error {
	if v.votingWindow == 0 || now < e.QueuedAt {
		return nil
	}
	if now-e.QueuedAt > v.votingWindow {
		return errno.ErrVotingClosed
	}
	return nil
}

func (v *VetoTally) alreadyVoted(stx StoreTx, e QueueEntry, voter common.Address) error {
	voted, err := stx.HasVoted(e.Fingerprint, e.QueuedAt, voter)
	if err != nil {
		return err
	}
	if voted {
		return errno.ErrAlreadyVoted
	}
	return nil
}

func (v *VetoTally) weight(stx StoreTx, e QueueEntry) (*big.Int, error) {
	return stx.VetoWeight(e.Fingerprint, e.QueuedAt)
}

// cast 在事务内记录投票并累加权重, 返回新的累计权重
func (v *VetoTally) cast(stx StoreTx, e QueueEntry, voter common.Address, weight *big.Int, freeze bool, now uint64) (*big.Int, error) {
	if err := v.alreadyVoted(stx, e, voter); err != nil {
		return nil, err
	}
	prev, err := v.weight(stx, e)
	if err != nil {
		return nil, err
	}

	err = stx.AddVote(Vote{
		Fingerprint: e.Fingerprint,
		Window:      e.QueuedAt,
		Voter:       voter,
		Weight:      weight,
		Freeze:      freeze,
		CastAt:      now,
	})
	if err != nil {
		return nil, err
	}
	total := new(big.Int).Add(prev, weight)

	if err := stx.Emit(Event{Kind: EventVetoCast, Fingerprint: e.Fingerprint, Account: voter, Weight: weight.String(), Freeze: freeze, At: now}); err != nil {
		return nil, err
	}
	if !v.vetoed(prev) && v.vetoed(total) {
		if err := stx.Emit(Event{Kind: EventTransactionVetoed, Fingerprint: e.Fingerprint, Account: voter, Weight: total.String(), At: now}); err != nil {
			return nil, err
		}
	}
	return total, nil
}
