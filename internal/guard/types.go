package guard

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Operation Safe 调用类型
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

// Transaction 一笔待 Safe 执行的交易
// 只包含不可变字段, 不包含 Safe nonce
type Transaction struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      Operation
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
}

// QueueEntry 入队记录, 每个 fingerprint 至多一条, 重复入队覆盖 QueuedAt
type QueueEntry struct {
	Fingerprint common.Hash
	QueuedAt    uint64
	Submitter   common.Address
}

// Vote 一次已计入的投票
// Window 取入队时刻 QueuedAt, 重新入队即开启新的否决窗口
type Vote struct {
	Fingerprint common.Hash
	Window      uint64
	Voter       common.Address
	Weight      *big.Int
	Freeze      bool
	CastAt      uint64
}

// VoteReceipt 投票结果
type VoteReceipt struct {
	Fingerprint   common.Hash
	Window        uint64
	Voter         common.Address
	Weight        *big.Int
	VetoWeight    *big.Int
	Vetoed        bool
	FreezeCounted bool // 同一冻结窗口内已投过冻结票时为 false
	FreezeWeight  *big.Int
	Frozen        bool
}

// FreezeStatus 全局冻结状态快照
type FreezeStatus struct {
	Accumulating bool
	WindowStart  uint64
	Weight       *big.Int
	Frozen       bool
	FrozenAt     uint64
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func copyBig(v *big.Int) *big.Int {
	return new(big.Int).Set(bigOrZero(v))
}
