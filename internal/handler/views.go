package handler

import (
	"guard-core/internal/guard"
	"guard-core/internal/service"
)

// 大整数统一以十进制字符串返回

type FingerprintView struct {
	Fingerprint string `json:"fingerprint"`
}

type QueueEntryView struct {
	Fingerprint string `json:"fingerprint"`
	QueuedAt    uint64 `json:"queued_at"`
	Submitter   string `json:"submitter"`
}

type TransactionStatusView struct {
	Fingerprint  string `json:"fingerprint"`
	Queued       bool   `json:"queued"`
	QueuedAt     uint64 `json:"queued_at"`
	Submitter    string `json:"submitter,omitempty"`
	DelayElapsed bool   `json:"delay_elapsed"`
	VetoWeight   string `json:"veto_weight"`
	Vetoed       bool   `json:"vetoed"`
}

type VoteReceiptView struct {
	Fingerprint   string `json:"fingerprint"`
	Window        uint64 `json:"window"`
	Voter         string `json:"voter"`
	Weight        string `json:"weight"`
	VetoWeight    string `json:"veto_weight"`
	Vetoed        bool   `json:"vetoed"`
	FreezeCounted bool   `json:"freeze_counted"`
	FreezeWeight  string `json:"freeze_weight"`
	Frozen        bool   `json:"frozen"`
}

type CheckView struct {
	Allowed bool `json:"allowed"`
}

type FreezeStatusView struct {
	Accumulating bool   `json:"accumulating"`
	WindowStart  uint64 `json:"window_start"`
	Weight       string `json:"weight"`
	Frozen       bool   `json:"frozen"`
	FrozenAt     uint64 `json:"frozen_at"`
}

// GuardConfigView 对应合约 getter: executionDelayBlocks, vetoERC20Voting, gnosisSafe
type GuardConfigView struct {
	ChainID         string `json:"chain_id"`
	Safe            string `json:"safe"`
	VotesToken      string `json:"votes_token"`
	Owner           string `json:"owner"`
	Clock           string `json:"clock"`
	ExecutionDelay  uint64 `json:"execution_delay"`
	VetoThreshold   string `json:"veto_threshold"`
	FreezeThreshold string `json:"freeze_threshold"`
	FreezeWindow    uint64 `json:"freeze_window"`
	VotingWindow    uint64 `json:"voting_window"`
}

func newStatusView(s service.TransactionStatus) TransactionStatusView {
	v := TransactionStatusView{
		Fingerprint:  s.Fingerprint.Hex(),
		Queued:       s.Queued,
		QueuedAt:     s.QueuedAt,
		DelayElapsed: s.DelayElapsed,
		VetoWeight:   s.VetoWeight.String(),
		Vetoed:       s.Vetoed,
	}
	if s.Queued {
		v.Submitter = s.Submitter.Hex()
	}
	return v
}

func newReceiptView(r guard.VoteReceipt) VoteReceiptView {
	return VoteReceiptView{
		Fingerprint:   r.Fingerprint.Hex(),
		Window:        r.Window,
		Voter:         r.Voter.Hex(),
		Weight:        r.Weight.String(),
		VetoWeight:    r.VetoWeight.String(),
		Vetoed:        r.Vetoed,
		FreezeCounted: r.FreezeCounted,
		FreezeWeight:  r.FreezeWeight.String(),
		Frozen:        r.Frozen,
	}
}

func newFreezeView(s guard.FreezeStatus) FreezeStatusView {
	return FreezeStatusView{
		Accumulating: s.Accumulating,
		WindowStart:  s.WindowStart,
		Weight:       s.Weight.String(),
		Frozen:       s.Frozen,
		FrozenAt:     s.FrozenAt,
	}
}

func newConfigView(info service.GuardInfo) GuardConfigView {
	d, c := info.Deployment, info.Config
	return GuardConfigView{
		ChainID:         d.ChainID.String(),
		Safe:            d.Safe.Hex(),
		VotesToken:      d.VotesToken.Hex(),
		Owner:           d.Owner.Hex(),
		Clock:           d.Clock,
		ExecutionDelay:  c.ExecutionDelay,
		VetoThreshold:   c.VetoThreshold.String(),
		FreezeThreshold: c.FreezeThreshold.String(),
		FreezeWindow:    c.FreezeWindow,
		VotingWindow:    c.VotingWindow,
	}
}
