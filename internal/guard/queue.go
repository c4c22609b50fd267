package guard

import (
	"context"

	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionQueue 交易入队与延迟判断
type TransactionQueue struct {
	delay    uint64
	verifier ApprovalVerifier
}

// admit 先校验 Safe 多签, 通过后覆盖写入入队记录 (重复入队即重置计时)
func (q *TransactionQueue) admit(ctx context.Context, store Store, tx Transaction, signatures []byte, submitter common.Address, now uint64) (QueueEntry, error) {
	if err := q.verifier.VerifyApproval(ctx, tx, signatures); err != nil {
		return QueueEntry{}, err
	}

	entry := QueueEntry{
		Fingerprint: Fingerprint(tx),
		QueuedAt:    now,
		Submitter:   submitter,
	}
	err := store.Update(ctx, func(stx StoreTx) error {
		if err := stx.PutQueueEntry(entry); err != nil {
			return err
		}
		return stx.Emit(Event{
			Kind:        EventTransactionQueued,
			Fingerprint: entry.Fingerprint,
			Account:     submitter,
			At:          now,
		})
	})
	if err != nil {
		return QueueEntry{}, err
	}
	return entry, nil
}

func (q *TransactionQueue) entry(stx StoreTx, fp common.Hash) (QueueEntry, error) {
	e, ok, err := stx.GetQueueEntry(fp)
	if err != nil {
		return QueueEntry{}, err
	}
	if !ok {
		return QueueEntry{}, errno.ErrNotQueued
	}
	return e, nil
}

// delayElapsed now - queuedAt >= delay
func (q *TransactionQueue) delayElapsed(e QueueEntry, now uint64) bool {
	if now < e.QueuedAt {
		return false
	}
	return now-e.QueuedAt >= q.delay
}
