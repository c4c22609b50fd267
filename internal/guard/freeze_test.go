package guard

import (
	"context"
	"math/big"
	"testing"

	"guard-core/pkg/errno"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreezeState_Transitions(t *testing.T) {
	threshold := big.NewInt(1000)
	const window = 50

	idle := FreezeState{Weight: new(big.Int)}

	// Idle -> Accumulating
	s, opened, crossed := idle.Current(10, window).Apply(big.NewInt(500), 10, threshold)
	assert.True(t, opened)
	assert.False(t, crossed)
	assert.Equal(t, FreezeAccumulating, s.Phase)
	assert.Equal(t, uint64(10), s.WindowStart)

	// 同一窗口内累加并越过阈值
	s, opened, crossed = s.Current(30, window).Apply(big.NewInt(600), 30, threshold)
	assert.False(t, opened)
	assert.True(t, crossed)
	assert.Equal(t, big.NewInt(1100), s.Weight)
	assert.Equal(t, uint64(30), s.FrozenAt)

	// 已越过阈值后继续累加不再触发 crossed
	s, _, crossed = s.Current(40, window).Apply(big.NewInt(1), 40, threshold)
	assert.False(t, crossed)
	assert.Equal(t, uint64(30), s.FrozenAt)

	// 窗口边界: now - start == window 仍在窗口内
	assert.Equal(t, FreezeAccumulating, s.Current(60, window).Phase)
	assert.Equal(t, FreezeIdle, s.Current(61, window).Phase)

	// 过期后新票开启新窗口, 累计值只含本票
	s, opened, crossed = s.Current(70, window).Apply(big.NewInt(200), 70, threshold)
	assert.True(t, opened)
	assert.False(t, crossed)
	assert.Equal(t, uint64(70), s.WindowStart)
	assert.Equal(t, big.NewInt(200), s.Weight)
	assert.True(t, s.HasFrozen, "上一次冻结记录保留")
}

func TestFreezeState_Frozen(t *testing.T) {
	s := FreezeState{Weight: new(big.Int)}
	assert.False(t, s.Frozen(100, 50))

	s.HasFrozen = true
	s.FrozenAt = 100
	assert.True(t, s.Frozen(100, 50))
	assert.True(t, s.Frozen(150, 50))
	assert.False(t, s.Frozen(151, 50))
	assert.True(t, s.Frozen(90, 50), "时钟落后按已冻结处理")
}

func TestFreeze_ScenarioBlocksEveryTransaction(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	fp1 := f.queue(t, sampleTx(1), 100)

	_, err := f.guard.Vote(ctx, fp1, alice, true, 101)
	require.NoError(t, err)
	frozen, err := f.guard.IsFrozen(ctx, 101)
	require.NoError(t, err)
	assert.False(t, frozen)

	receipt, err := f.guard.Vote(ctx, fp1, bob, true, 102)
	require.NoError(t, err)
	assert.True(t, receipt.FreezeCounted)
	assert.True(t, receipt.Frozen)
	assert.Equal(t, big.NewInt(1100), receipt.FreezeWeight)

	// F2 从未被否决, 延迟满足后仍因冻结被拒
	fp2 := f.queue(t, sampleTx(2), 103)
	assert.ErrorIs(t, f.guard.CheckTransaction(ctx, fp2, 113), errno.ErrSystemFrozen)
	assert.ErrorIs(t, f.guard.CheckTransaction(ctx, fp2, 152), errno.ErrSystemFrozen)

	// 冻结窗口 (50) 结束后自动解冻
	assert.NoError(t, f.guard.CheckTransaction(ctx, fp2, 153))
	frozen, err = f.guard.IsFrozen(ctx, 153)
	require.NoError(t, err)
	assert.False(t, frozen)
}

func TestFreeze_VoterCountedOncePerWindow(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	fp1 := f.queue(t, sampleTx(1), 100)
	fp2 := f.queue(t, sampleTx(2), 100)

	_, err := f.guard.Vote(ctx, fp1, bob, true, 101)
	require.NoError(t, err)

	// 对另一笔交易的否决票有效, 但冻结权重不重复计入
	receipt, err := f.guard.Vote(ctx, fp2, bob, true, 102)
	require.NoError(t, err)
	assert.False(t, receipt.FreezeCounted)
	assert.Equal(t, big.NewInt(600), receipt.FreezeWeight)
	assert.Equal(t, big.NewInt(600), receipt.VetoWeight)

	frozen, err := f.guard.IsFrozen(ctx, 102)
	require.NoError(t, err)
	assert.False(t, frozen)
}

func TestFreeze_ExpiredWindowDoesNotCarryForward(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	fp1 := f.queue(t, sampleTx(1), 100)
	fp2 := f.queue(t, sampleTx(2), 200)

	_, err := f.guard.Vote(ctx, fp1, alice, true, 101)
	require.NoError(t, err)

	// 窗口于 151 之后过期, bob 的票开启新窗口, alice 的 500 不再累计
	receipt, err := f.guard.Vote(ctx, fp2, bob, true, 201)
	require.NoError(t, err)
	assert.True(t, receipt.FreezeCounted)
	assert.Equal(t, big.NewInt(600), receipt.FreezeWeight)
	assert.False(t, receipt.Frozen)

	// 新窗口内 alice 可以再次贡献冻结权重
	receipt, err = f.guard.Vote(ctx, fp2, alice, true, 202)
	require.NoError(t, err)
	assert.True(t, receipt.FreezeCounted)
	assert.True(t, receipt.Frozen)

	status, err := f.guard.FreezeStatus(ctx, 202)
	require.NoError(t, err)
	assert.Equal(t, uint64(201), status.WindowStart)
	assert.Equal(t, uint64(202), status.FrozenAt)
}

func TestFreeze_StatusReadsAreIdempotent(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	fp := f.queue(t, sampleTx(1), 100)
	_, err := f.guard.Vote(ctx, fp, alice, true, 101)
	require.NoError(t, err)

	first, err := f.guard.FreezeStatus(ctx, 120)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := f.guard.FreezeStatus(ctx, 120)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// 过期后读取为空窗口, 但不修改存储
	expired, err := f.guard.FreezeStatus(ctx, 500)
	require.NoError(t, err)
	assert.False(t, expired.Accumulating)
	assert.Equal(t, 0, expired.Weight.Sign())

	back, err := f.guard.FreezeStatus(ctx, 120)
	require.NoError(t, err)
	assert.Equal(t, first, back)
}
