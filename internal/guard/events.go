package guard

import "github.com/ethereum/go-ethereum/common"

type EventKind string

const (
	EventTransactionQueued   EventKind = "transaction_queued"
	EventVetoCast            EventKind = "veto_cast"
	EventTransactionVetoed   EventKind = "transaction_vetoed"
	EventFreezeWindowOpened  EventKind = "freeze_window_opened"
	EventSystemFrozen        EventKind = "system_frozen"
	EventTransactionExecuted EventKind = "transaction_executed"
)

// Event Guard 状态变化通知, 与状态写入处于同一事务
// Account: 入队时为 submitter, 投票时为 voter
type Event struct {
	Kind        EventKind      `json:"kind"`
	Fingerprint common.Hash    `json:"fingerprint"`
	Account     common.Address `json:"account"`
	Weight      string         `json:"weight,omitempty"`
	Freeze      bool           `json:"freeze,omitempty"`
	Success     bool           `json:"success,omitempty"`
	At          uint64         `json:"at"`
}
