package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"guard-core/internal/guard"
	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend 按方法选择器分发 eth_call
type fakeBackend struct {
	head     uint64
	headErr  error
	contract abi.ABI
	handlers map[string]func(args []any) ([]byte, error)
	calls    []string
}

func newFakeBackend(contract abi.ABI) *fakeBackend {
	return &fakeBackend{contract: contract, handlers: map[string]func([]any) ([]byte, error){}}
}

func (f *fakeBackend) on(method string, h func(args []any) ([]byte, error)) {
	f.handlers[method] = h
}

func (f *fakeBackend) returns(method string, values ...any) {
	f.on(method, func([]any) ([]byte, error) {
		return f.contract.Methods[method].Outputs.Pack(values...)
	})
}

func (f *fakeBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	for name, m := range f.contract.Methods {
		if !bytes.Equal(msg.Data[:4], m.ID) {
			continue
		}
		f.calls = append(f.calls, name)
		args, err := m.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		h, ok := f.handlers[name]
		if !ok {
			return nil, errors.New("unexpected call " + name)
		}
		return h(args)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	return f.head, f.headErr
}

var safeAddr = common.HexToAddress("0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe")

func sampleTx() guard.Transaction {
	return guard.Transaction{To: common.HexToAddress("0x01"), Value: big.NewInt(5)}
}

func TestSafeClient_Reads(t *testing.T) {
	b := newFakeBackend(safeABI)
	b.returns("nonce", big.NewInt(4))
	b.returns("getThreshold", big.NewInt(2))
	b.returns("getOwners", []common.Address{common.HexToAddress("0x0a"), common.HexToAddress("0x0b")})

	c := NewSafeClient(b, big.NewInt(31337), safeAddr)
	ctx := context.Background()

	n, err := c.Nonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n.Int64())

	th, err := c.Threshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), th.Int64())

	owners, err := c.Owners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2)
}

func TestSafeClient_VerifyApproval(t *testing.T) {
	sigs := bytes.Repeat([]byte{0x01}, 65)

	t.Run("accepted", func(t *testing.T) {
		b := newFakeBackend(safeABI)
		b.returns("nonce", big.NewInt(9))
		c := NewSafeClient(b, big.NewInt(31337), safeAddr)

		var gotHash [32]byte
		var gotData []byte
		b.on("checkSignatures", func(args []any) ([]byte, error) {
			gotHash = args[0].([32]byte)
			gotData = args[1].([]byte)
			assert.Equal(t, sigs, args[2].([]byte))
			return nil, nil
		})

		require.NoError(t, c.VerifyApproval(context.Background(), sampleTx(), sigs))
		assert.Equal(t, c.Domain().TransactionHash(sampleTx(), big.NewInt(9)), common.Hash(gotHash))
		assert.Equal(t, c.Domain().EncodeTransactionData(sampleTx(), big.NewInt(9)), gotData)
	})

	t.Run("revert is an invalid proof", func(t *testing.T) {
		b := newFakeBackend(safeABI)
		b.returns("nonce", big.NewInt(0))
		b.on("checkSignatures", func([]any) ([]byte, error) {
			return nil, errors.New("execution reverted: GS026")
		})
		err := NewSafeClient(b, big.NewInt(1), safeAddr).VerifyApproval(context.Background(), sampleTx(), sigs)
		assert.ErrorIs(t, err, errno.ErrInvalidApprovalProof)
	})

	t.Run("transport failure is upstream", func(t *testing.T) {
		b := newFakeBackend(safeABI)
		b.on("nonce", func([]any) ([]byte, error) {
			return nil, errors.New("connection refused")
		})
		err := NewSafeClient(b, big.NewInt(1), safeAddr).VerifyApproval(context.Background(), sampleTx(), sigs)
		assert.ErrorIs(t, err, errno.ErrUpstream)
		assert.NotErrorIs(t, err, errno.ErrInvalidApprovalProof)
	})
}

func TestVotesToken_PastVotes(t *testing.T) {
	voter := common.HexToAddress("0x0a11ce")
	b := newFakeBackend(votesABI)
	b.head = 100
	b.on("getPastVotes", func(args []any) ([]byte, error) {
		assert.Equal(t, voter, args[0].(common.Address))
		return votesABI.Methods["getPastVotes"].Outputs.Pack(new(big.Int).Mul(args[1].(*big.Int), big.NewInt(10)))
	})
	b.returns("getVotes", big.NewInt(7))

	token := NewVotesToken(b, common.HexToAddress("0x70"))

	w, err := token.PastVotes(context.Background(), voter, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(420), w.Int64())

	// 当前区块尚未结束, 读取最新权重
	w, err = token.PastVotes(context.Background(), voter, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.Int64())
	assert.Equal(t, []string{"getPastVotes", "getVotes"}, b.calls)
}

func TestVotesToken_RequireClock(t *testing.T) {
	legacy := newFakeBackend(votesABI)
	legacy.on("CLOCK_MODE", func([]any) ([]byte, error) { return nil, errors.New("execution reverted") })
	modern := newFakeBackend(votesABI)
	modern.returns("CLOCK_MODE", ClockModeTimestamp)
	broken := newFakeBackend(votesABI)
	broken.on("CLOCK_MODE", func([]any) ([]byte, error) { return nil, errors.New("connection refused") })

	tests := []struct {
		name    string
		backend *fakeBackend
		clock   string
		wantErr bool
	}{
		{"blocknumber token with block clock", legacy, "block", false},
		{"blocknumber token with wall clock", legacy, "wall", true},
		{"timestamp token with wall clock", modern, "wall", false},
		{"timestamp token with block clock", modern, "block", true},
		{"unknown clock", legacy, "lunar", true},
		{"rpc failure", broken, "block", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewVotesToken(tt.backend, common.HexToAddress("0x70")).RequireClock(context.Background(), tt.clock)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVotesToken_TimestampCheckpoints(t *testing.T) {
	voter := common.HexToAddress("0x0a11ce")
	b := newFakeBackend(votesABI)
	b.head = 20_000_000
	b.returns("CLOCK_MODE", ClockModeTimestamp)
	b.returns("clock", big.NewInt(1_791_973_200))
	b.returns("getPastVotes", big.NewInt(500))
	b.returns("getVotes", big.NewInt(999))

	token := NewVotesToken(b, common.HexToAddress("0x70"))
	ctx := context.Background()
	require.NoError(t, token.RequireClock(ctx, "wall"))

	now, err := token.Now(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_791_973_200), now)

	// 以秒为检查点, 与链头区块号无关
	w, err := token.PastVotes(ctx, voter, 1_791_973_188)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Int64())

	w, err = token.PastVotes(ctx, voter, 1_791_973_200)
	require.NoError(t, err)
	assert.Equal(t, int64(999), w.Int64())
	assert.Equal(t, []string{"CLOCK_MODE", "clock", "clock", "getPastVotes", "clock", "getVotes"}, b.calls)
}

func TestBlockClock(t *testing.T) {
	b := newFakeBackend(votesABI)
	b.head = 77
	now, err := NewBlockClock(b).Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(77), now)

	b.headErr = errors.New("down")
	_, err = NewBlockClock(b).Now(context.Background())
	assert.Error(t, err)
}
