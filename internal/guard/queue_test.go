package guard

import (
	"context"
	"testing"

	"guard-core/pkg/errno"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_InvalidProofLeavesNoState(t *testing.T) {
	f := newFixture(t, testConfig())
	f.verifier.reject = true
	ctx := context.Background()
	tx := sampleTx(1)

	_, err := f.guard.Queue(ctx, tx, []byte{0x01}, owner, 100)
	assert.ErrorIs(t, err, errno.ErrInvalidApprovalProof)

	queued, err := f.guard.IsQueued(ctx, Fingerprint(tx))
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Empty(t, f.store.Events())
}

func TestQueue_AdmitRecordsEntryAndEvent(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	tx := sampleTx(1)

	entry, err := f.guard.Queue(ctx, tx, []byte{0x01}, owner, 100)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(tx), entry.Fingerprint)
	assert.Equal(t, uint64(100), entry.QueuedAt)
	assert.Equal(t, owner, entry.Submitter)
	assert.Equal(t, 1, f.verifier.calls)

	queued, err := f.guard.IsQueued(ctx, entry.Fingerprint)
	require.NoError(t, err)
	assert.True(t, queued)

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventTransactionQueued, events[0].Kind)
	assert.Equal(t, entry.Fingerprint, events[0].Fingerprint)
	assert.Equal(t, owner, events[0].Account)
	assert.Equal(t, uint64(100), events[0].At)
}

func TestQueue_DelayElapsed(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	fp := f.queue(t, sampleTx(1), 100)

	tests := []struct {
		now  uint64
		want bool
	}{
		{100, false},
		{109, false},
		{110, true},
		{500, true},
		{90, false}, // 调用方时钟落后
	}
	for _, tt := range tests {
		got, err := f.guard.DelayElapsed(ctx, fp, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "now=%d", tt.now)
	}

	_, err := f.guard.DelayElapsed(ctx, Fingerprint(sampleTx(2)), 500)
	assert.ErrorIs(t, err, errno.ErrNotQueued)
}

func TestQueue_ReadmissionResetsTimer(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()
	tx := sampleTx(1)

	fp := f.queue(t, tx, 100)
	elapsed, err := f.guard.DelayElapsed(ctx, fp, 110)
	require.NoError(t, err)
	assert.True(t, elapsed)

	f.queue(t, tx, 105)
	elapsed, err = f.guard.DelayElapsed(ctx, fp, 110)
	require.NoError(t, err)
	assert.False(t, elapsed, "只有最近一次入队时间生效")

	n, err := f.guard.QueuedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
