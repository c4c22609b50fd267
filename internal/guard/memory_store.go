package guard

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var errReadOnly = errors.New("guard: write in read-only transaction")

type voteKey struct {
	fp     common.Hash
	window uint64
	voter  common.Address
}

type tallyKey struct {
	fp     common.Hash
	window uint64
}

type freezeVoterKey struct {
	windowStart uint64
	voter       common.Address
}

// MemoryStore 进程内存储: 单把锁串行化所有写事务, 写入先进入 overlay, 提交时才合并
type MemoryStore struct {
	mu           sync.RWMutex
	entries      map[common.Hash]QueueEntry
	votes        map[voteKey]Vote
	tallies      map[tallyKey]*big.Int
	freeze       FreezeState
	freezeVoters map[freezeVoterKey]*big.Int
	events       []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:      make(map[common.Hash]QueueEntry),
		votes:        make(map[voteKey]Vote),
		tallies:      make(map[tallyKey]*big.Int),
		freeze:       FreezeState{Weight: new(big.Int)},
		freezeVoters: make(map[freezeVoterKey]*big.Int),
	}
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx StoreTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.begin(false))
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx StoreTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.begin(true)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Events 返回已提交事件的副本
func (s *MemoryStore) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *MemoryStore) begin(writable bool) *memTx {
	return &memTx{
		s:            s,
		writable:     writable,
		entries:      make(map[common.Hash]QueueEntry),
		votes:        make(map[voteKey]Vote),
		tallies:      make(map[tallyKey]*big.Int),
		freezeVoters: make(map[freezeVoterKey]*big.Int),
	}
}

type memTx struct {
	s        *MemoryStore
	writable bool

	entries      map[common.Hash]QueueEntry
	votes        map[voteKey]Vote
	tallies      map[tallyKey]*big.Int
	freeze       *FreezeState
	freezeVoters map[freezeVoterKey]*big.Int
	events       []Event
}

func (t *memTx) commit() {
	for k, v := range t.entries {
		t.s.entries[k] = v
	}
	for k, v := range t.votes {
		t.s.votes[k] = v
	}
	for k, v := range t.tallies {
		t.s.tallies[k] = v
	}
	if t.freeze != nil {
		t.s.freeze = *t.freeze
	}
	for k, v := range t.freezeVoters {
		t.s.freezeVoters[k] = v
	}
	t.s.events = append(t.s.events, t.events...)
}

func (t *memTx) GetQueueEntry(fp common.Hash) (QueueEntry, bool, error) {
	if e, ok := t.entries[fp]; ok {
		return e, true, nil
	}
	e, ok := t.s.entries[fp]
	return e, ok, nil
}

func (t *memTx) PutQueueEntry(entry QueueEntry) error {
	if !t.writable {
		return errReadOnly
	}
	t.entries[entry.Fingerprint] = entry
	return nil
}

func (t *memTx) CountQueueEntries() (int64, error) {
	n := int64(len(t.s.entries))
	for fp := range t.entries {
		if _, ok := t.s.entries[fp]; !ok {
			n++
		}
	}
	return n, nil
}

func (t *memTx) HasVoted(fp common.Hash, window uint64, voter common.Address) (bool, error) {
	k := voteKey{fp: fp, window: window, voter: voter}
	if _, ok := t.votes[k]; ok {
		return true, nil
	}
	_, ok := t.s.votes[k]
	return ok, nil
}

func (t *memTx) VetoWeight(fp common.Hash, window uint64) (*big.Int, error) {
	k := tallyKey{fp: fp, window: window}
	if w, ok := t.tallies[k]; ok {
		return copyBig(w), nil
	}
	return copyBig(t.s.tallies[k]), nil
}

func (t *memTx) AddVote(vote Vote) error {
	if !t.writable {
		return errReadOnly
	}
	current, err := t.VetoWeight(vote.Fingerprint, vote.Window)
	if err != nil {
		return err
	}
	vote.Weight = copyBig(vote.Weight)
	t.votes[voteKey{fp: vote.Fingerprint, window: vote.Window, voter: vote.Voter}] = vote
	t.tallies[tallyKey{fp: vote.Fingerprint, window: vote.Window}] = current.Add(current, vote.Weight)
	return nil
}

func (t *memTx) GetFreezeState() (FreezeState, error) {
	if t.freeze != nil {
		return t.freeze.clone(), nil
	}
	return t.s.freeze.clone(), nil
}

func (t *memTx) PutFreezeState(state FreezeState) error {
	if !t.writable {
		return errReadOnly
	}
	st := state.clone()
	t.freeze = &st
	return nil
}

func (t *memTx) HasFreezeVoted(windowStart uint64, voter common.Address) (bool, error) {
	k := freezeVoterKey{windowStart: windowStart, voter: voter}
	if _, ok := t.freezeVoters[k]; ok {
		return true, nil
	}
	_, ok := t.s.freezeVoters[k]
	return ok, nil
}

func (t *memTx) AddFreezeVote(windowStart uint64, voter common.Address, weight *big.Int) error {
	if !t.writable {
		return errReadOnly
	}
	t.freezeVoters[freezeVoterKey{windowStart: windowStart, voter: voter}] = copyBig(weight)
	return nil
}

func (t *memTx) Emit(event Event) error {
	if !t.writable {
		return errReadOnly
	}
	t.events = append(t.events, event)
	return nil
}
