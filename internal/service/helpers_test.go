package service

import (
	"context"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	"guard-core/internal/guard"
	"guard-core/internal/model"
	"guard-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	monitor.Init()
	os.Exit(m.Run())
}

type acceptAll struct{}

func (acceptAll) VerifyApproval(context.Context, guard.Transaction, []byte) error { return nil }

// staticPower 固定权重, 记录调用次数
type staticPower struct {
	mu      sync.Mutex
	weights map[common.Address]*big.Int
	calls   int
}

func (p *staticPower) PastVotes(ctx context.Context, account common.Address, checkpoint uint64) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if w, ok := p.weights[account]; ok {
		return new(big.Int).Set(w), nil
	}
	return new(big.Int), nil
}

func newTestService(t *testing.T, weights map[common.Address]*big.Int) (*GuardService, *guard.ManualClock, *guard.MemoryStore) {
	t.Helper()
	store := guard.NewMemoryStore()
	g, err := guard.New(guard.Config{
		ExecutionDelay:  10,
		VetoThreshold:   big.NewInt(1000),
		FreezeThreshold: big.NewInt(1000),
		FreezeWindow:    50,
	}, store, acceptAll{}, &staticPower{weights: weights})
	require.NoError(t, err)

	clock := guard.NewManualClock(0)
	svc := NewGuardService(g, clock, Deployment{
		ChainID: big.NewInt(31337),
		Safe:    common.HexToAddress("0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe"),
		Clock:   "manual",
	})
	return svc, clock, store
}

// fakeOutbox 内存 outbox
type fakeOutbox struct {
	mu       sync.Mutex
	messages []model.OutboxMessage
	purged   []time.Time
}

func (f *fakeOutbox) add(key string, payload string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, model.OutboxMessage{
		ID:      uint64(len(f.messages) + 1),
		Topic:   "guard_events",
		MsgKey:  key,
		Payload: []byte(payload),
		Status:  model.OutboxPending,
	})
}

func (f *fakeOutbox) FetchPending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.OutboxMessage
	for _, m := range f.messages {
		if m.Status == model.OutboxPending && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkSent(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id-1].Status = model.OutboxSent
	return nil
}

func (f *fakeOutbox) MarkAttempt(ctx context.Context, id uint64, giveUp bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id-1].Attempts++
	if giveUp {
		f.messages[id-1].Status = model.OutboxFailed
	}
	return nil
}

func (f *fakeOutbox) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = append(f.purged, before)
	return 0, nil
}

func (f *fakeOutbox) status(id uint64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[id-1].Status
}
