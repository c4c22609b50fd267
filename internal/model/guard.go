package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuardQueueEntry 入队记录, 每个 fingerprint 一行, 重新入队覆盖 queued_at
type GuardQueueEntry struct {
	Fingerprint string    `gorm:"type:varchar(66);primaryKey" json:"fingerprint"`
	QueuedAt    uint64    `gorm:"not null" json:"queued_at"`
	Submitter   string    `gorm:"type:varchar(42);not null" json:"submitter"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GuardVote 否决票, (fingerprint, veto_window, voter) 唯一
type GuardVote struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Fingerprint string          `gorm:"type:varchar(66);not null;uniqueIndex:idx_vote_window_voter" json:"fingerprint"`
	VetoWindow  uint64          `gorm:"not null;uniqueIndex:idx_vote_window_voter" json:"veto_window"` // 即入队时刻
	Voter       string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_vote_window_voter" json:"voter"`
	Weight      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"weight"`
	Freeze      bool            `gorm:"not null;default:false" json:"freeze"`
	CastAt      uint64          `gorm:"not null" json:"cast_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// GuardVetoTally 每个否决窗口的累计权重
type GuardVetoTally struct {
	Fingerprint string          `gorm:"type:varchar(66);primaryKey" json:"fingerprint"`
	VetoWindow  uint64          `gorm:"primaryKey;autoIncrement:false" json:"veto_window"`
	Weight      decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"weight"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FreezeStateID 全局冻结记录只有一行
const FreezeStateID = 1

// GuardFreezeState 全局冻结记录
// 每个写事务先对这一行加 FOR UPDATE 锁, 以此串行化所有状态变更
type GuardFreezeState struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Phase       string          `gorm:"type:varchar(16);not null;default:'idle'" json:"phase"` // idle, accumulating
	WindowStart uint64          `gorm:"not null;default:0" json:"window_start"`
	Weight      decimal.Decimal `gorm:"type:numeric(78,0);not null;default:0" json:"weight"`
	HasFrozen   bool            `gorm:"not null;default:false" json:"has_frozen"`
	FrozenAt    uint64          `gorm:"not null;default:0" json:"frozen_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// GuardFreezeVote 冻结票, 同一窗口内同一投票人只计一次
type GuardFreezeVote struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	WindowStart uint64          `gorm:"not null;uniqueIndex:idx_freeze_window_voter" json:"window_start"`
	Voter       string          `gorm:"type:varchar(42);not null;uniqueIndex:idx_freeze_window_voter" json:"voter"`
	Weight      decimal.Decimal `gorm:"type:numeric(78,0);not null" json:"weight"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (GuardQueueEntry) TableName() string {
	return "guard_queue_entries"
}

func (GuardVote) TableName() string {
	return "guard_votes"
}

func (GuardVetoTally) TableName() string {
	return "guard_veto_tallies"
}

func (GuardFreezeState) TableName() string {
	return "guard_freeze_state"
}

func (GuardFreezeVote) TableName() string {
	return "guard_freeze_votes"
}
