package guard

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	owner = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

// fakeVerifier 接受或拒绝所有签名
type fakeVerifier struct {
	reject bool
	calls  int
}

func (f *fakeVerifier) VerifyApproval(ctx context.Context, tx Transaction, signatures []byte) error {
	f.calls++
	if f.reject {
		return fmt.Errorf("%w: threshold not met", errno.ErrInvalidApprovalProof)
	}
	return nil
}

// fakePower 固定权重, 并记录查询时使用的检查点
type fakePower struct {
	mu          sync.Mutex
	weights     map[common.Address]int64
	checkpoints []uint64
}

func newFakePower(weights map[common.Address]int64) *fakePower {
	return &fakePower{weights: weights}
}

func (f *fakePower) PastVotes(ctx context.Context, account common.Address, checkpoint uint64) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints = append(f.checkpoints, checkpoint)
	return big.NewInt(f.weights[account]), nil
}

func testConfig() Config {
	return Config{
		ExecutionDelay:  10,
		VetoThreshold:   big.NewInt(1000),
		FreezeThreshold: big.NewInt(1000),
		FreezeWindow:    50,
	}
}

func sampleTx(nonceLike int64) Transaction {
	return Transaction{
		To:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Value:     big.NewInt(nonceLike),
		Data:      []byte{0xa9, 0x05, 0x9c, 0xbb},
		Operation: OperationCall,
	}
}

type fixture struct {
	guard    *Guard
	store    *MemoryStore
	verifier *fakeVerifier
	power    *fakePower
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := NewMemoryStore()
	verifier := &fakeVerifier{}
	power := newFakePower(map[common.Address]int64{alice: 500, bob: 600, carol: 1})
	g, err := New(cfg, store, verifier, power)
	require.NoError(t, err)
	return &fixture{guard: g, store: store, verifier: verifier, power: power}
}

func (f *fixture) queue(t *testing.T, tx Transaction, now uint64) common.Hash {
	t.Helper()
	entry, err := f.guard.Queue(context.Background(), tx, []byte{0x01}, owner, now)
	require.NoError(t, err)
	return entry.Fingerprint
}
