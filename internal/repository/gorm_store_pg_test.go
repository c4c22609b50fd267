package repository

import (
	"context"
	"errors"
	"math/big"
	"os"
	"sync"
	"testing"

	"guard-core/internal/guard"
	"guard-core/internal/model"
	"guard-core/pkg/database"
	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 以下测试需要一个可写的 PostgreSQL, 例如:
// GUARD_TEST_DSN="host=localhost user=guard_user password=guard_pass dbname=guard_test port=5432 sslmode=disable" go test ./internal/repository/...
// 每个测试开始时会清空所有 Guard 表
func openTestStore(t *testing.T) (*GormStore, *gorm.DB) {
	t.Helper()

	// 1. DSN 从环境变量读取
	dsn := os.Getenv("GUARD_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping postgres test: GUARD_TEST_DSN not set")
	}
	db, err := database.ConnectPostgres(dsn, false)
	if err != nil {
		t.Skip("Skipping postgres test: database not reachable? " + err.Error())
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// 2. 建表并清空数据
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	for _, m := range model.AllModels() {
		require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error)
	}

	store, err := NewGormStore(db, "guard_events_test")
	require.NoError(t, err)
	return store, db
}

var (
	pgFp    = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000f00d1")
	pgAlice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	pgBob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func putEntry(t *testing.T, store *GormStore, at uint64, submitter common.Address) {
	t.Helper()
	err := store.Update(context.Background(), func(tx guard.StoreTx) error {
		return tx.PutQueueEntry(guard.QueueEntry{Fingerprint: pgFp, QueuedAt: at, Submitter: submitter})
	})
	require.NoError(t, err)
}

func vetoWeight(t *testing.T, store *GormStore, window uint64) *big.Int {
	t.Helper()
	var w *big.Int
	err := store.View(context.Background(), func(tx guard.StoreTx) error {
		var err error
		w, err = tx.VetoWeight(pgFp, window)
		return err
	})
	require.NoError(t, err)
	return w
}

func addVote(store *GormStore, window uint64, voter common.Address, weight *big.Int) error {
	return store.Update(context.Background(), func(tx guard.StoreTx) error {
		return tx.AddVote(guard.Vote{Fingerprint: pgFp, Window: window, Voter: voter, Weight: weight, CastAt: window + 1})
	})
}

func TestGormStore_PutQueueEntryResetsWindow(t *testing.T) {
	store, db := openTestStore(t)

	putEntry(t, store, 100, pgAlice)
	putEntry(t, store, 300, pgBob)

	var entry guard.QueueEntry
	var ok bool
	err := store.View(context.Background(), func(tx guard.StoreTx) error {
		var err error
		entry, ok, err = tx.GetQueueEntry(pgFp)
		return err
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(300), entry.QueuedAt)
	assert.Equal(t, pgBob, entry.Submitter)

	var rows int64
	require.NoError(t, db.Model(&model.GuardQueueEntry{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestGormStore_AddVoteAccumulatesPerWindow(t *testing.T) {
	store, _ := openTestStore(t)
	big30, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)

	require.NoError(t, addVote(store, 100, pgAlice, big30))
	require.NoError(t, addVote(store, 100, pgBob, big.NewInt(5)))
	require.NoError(t, addVote(store, 300, pgAlice, big.NewInt(7)))

	assert.Equal(t, new(big.Int).Add(big30, big.NewInt(5)), vetoWeight(t, store, 100))
	assert.Equal(t, big.NewInt(7), vetoWeight(t, store, 300))
	assert.Equal(t, 0, vetoWeight(t, store, 200).Sign())
}

func TestGormStore_DuplicateVoteRejectedByUniqueIndex(t *testing.T) {
	store, db := openTestStore(t)

	require.NoError(t, addVote(store, 100, pgAlice, big.NewInt(500)))
	err := addVote(store, 100, pgAlice, big.NewInt(500))
	assert.ErrorIs(t, err, errno.ErrDatabase)

	// 整个事务回滚, 计票不变
	assert.Equal(t, big.NewInt(500), vetoWeight(t, store, 100))
	var votes int64
	require.NoError(t, db.Model(&model.GuardVote{}).Count(&votes).Error)
	assert.Equal(t, int64(1), votes)
}

func TestGormStore_RollbackDiscardsOutbox(t *testing.T) {
	store, db := openTestStore(t)
	boom := errors.New("boom")
	ctx := context.Background()

	err := store.Update(ctx, func(tx guard.StoreTx) error {
		if err := tx.PutQueueEntry(guard.QueueEntry{Fingerprint: pgFp, QueuedAt: 100}); err != nil {
			return err
		}
		if err := tx.Emit(guard.Event{Kind: guard.EventTransactionQueued, Fingerprint: pgFp, At: 100}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, db.Model(&model.OutboxMessage{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
	require.NoError(t, db.Model(&model.GuardQueueEntry{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	err = store.Update(ctx, func(tx guard.StoreTx) error {
		return tx.Emit(guard.Event{Kind: guard.EventTransactionQueued, Fingerprint: pgFp, At: 100})
	})
	require.NoError(t, err)

	var msgs []model.OutboxMessage
	require.NoError(t, db.Find(&msgs).Error)
	require.Len(t, msgs, 1)
	assert.Equal(t, "guard_events_test", msgs[0].Topic)
	assert.Equal(t, pgFp.Hex(), msgs[0].MsgKey)
	assert.Equal(t, model.OutboxPending, msgs[0].Status)
}

func TestGormStore_ViewIsReadOnly(t *testing.T) {
	store, _ := openTestStore(t)

	err := store.View(context.Background(), func(tx guard.StoreTx) error {
		return tx.PutQueueEntry(guard.QueueEntry{Fingerprint: pgFp, QueuedAt: 1})
	})
	assert.ErrorIs(t, err, errReadOnly)
}

func TestGormStore_FreezeStatePersists(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()
	want := guard.FreezeState{Phase: guard.FreezeAccumulating, WindowStart: 101, Weight: big.NewInt(1100), HasFrozen: true, FrozenAt: 102}

	require.NoError(t, store.Update(ctx, func(tx guard.StoreTx) error {
		if err := tx.PutFreezeState(want); err != nil {
			return err
		}
		return tx.AddFreezeVote(101, pgAlice, big.NewInt(1100))
	}))

	var got guard.FreezeState
	var voted bool
	require.NoError(t, store.View(ctx, func(tx guard.StoreTx) error {
		var err error
		if got, err = tx.GetFreezeState(); err != nil {
			return err
		}
		voted, err = tx.HasFreezeVoted(101, pgAlice)
		return err
	}))
	assert.Equal(t, want, got)
	assert.True(t, voted)
}

// pgPower 每个地址固定权重 7
type pgPower struct{}

func (pgPower) PastVotes(context.Context, common.Address, uint64) (*big.Int, error) {
	return big.NewInt(7), nil
}

type pgAcceptAll struct{}

func (pgAcceptAll) VerifyApproval(context.Context, guard.Transaction, []byte) error { return nil }

func TestGormStore_ConcurrentVotesSerialize(t *testing.T) {
	store, _ := openTestStore(t)
	g, err := guard.New(guard.Config{
		ExecutionDelay:  10,
		VetoThreshold:   big.NewInt(1_000_000),
		FreezeThreshold: big.NewInt(1_000_000),
		FreezeWindow:    50,
	}, store, pgAcceptAll{}, pgPower{})
	require.NoError(t, err)

	ctx := context.Background()
	entry, err := g.Queue(ctx, guard.Transaction{To: pgAlice, Value: big.NewInt(1)}, nil, pgBob, 100)
	require.NoError(t, err)

	const voters = 20
	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(v common.Address) {
			defer wg.Done()
			_, err := g.Vote(ctx, entry.Fingerprint, v, true, 101)
			errs <- err
		}(common.BigToAddress(big.NewInt(int64(1000 + i))))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	weight, err := g.VetoWeight(ctx, entry.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7*voters), weight)

	status, err := g.FreezeStatus(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7*voters), status.Weight)
}
