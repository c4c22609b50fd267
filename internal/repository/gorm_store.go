// Package repository 基于 gorm/postgres 的 Guard 状态存储
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"guard-core/internal/guard"
	"guard-core/internal/model"
	"guard-core/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultEventTopic Guard 事件的 outbox topic
const DefaultEventTopic = "guard_events"

var errReadOnly = errors.New("repository: write in read-only transaction")

// GormStore 实现 guard.Store
// Update 开始时锁定 guard_freeze_state 单行, 所有写事务因此串行执行
type GormStore struct {
	db    *gorm.DB
	topic string
}

var _ guard.Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB, topic string) (*GormStore, error) {
	if topic == "" {
		topic = DefaultEventTopic
	}
	// 确保单行存在, migration 已插入时不做任何事
	row := model.GuardFreezeState{ID: model.FreezeStateID, Phase: guard.FreezeIdle.String(), Weight: decimal.Zero}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("%w: init freeze state: %v", errno.ErrDatabase, err)
	}
	return &GormStore{db: db, topic: topic}, nil
}

func (s *GormStore) View(ctx context.Context, fn func(tx guard.StoreTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, topic: s.topic})
	}, &sql.TxOptions{ReadOnly: true})
}

func (s *GormStore) Update(ctx context.Context, fn func(tx guard.StoreTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 悲观锁读取全局冻结记录
		var st model.GuardFreezeState
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&st, "id = ?", model.FreezeStateID).Error; err != nil {
			return dbErr(err)
		}

		// 2. 业务逻辑, 返回错误即回滚
		return fn(&gormTx{db: tx, topic: s.topic, writable: true, freeze: &st})
	})
}

type gormTx struct {
	db       *gorm.DB
	topic    string
	writable bool
	freeze   *model.GuardFreezeState
}

func dbErr(err error) error {
	return fmt.Errorf("%w: %v", errno.ErrDatabase, err)
}

func (t *gormTx) GetQueueEntry(fp common.Hash) (guard.QueueEntry, bool, error) {
	var row model.GuardQueueEntry
	err := t.db.Where("fingerprint = ?", fp.Hex()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return guard.QueueEntry{}, false, nil
	}
	if err != nil {
		return guard.QueueEntry{}, false, dbErr(err)
	}
	return guard.QueueEntry{
		Fingerprint: fp,
		QueuedAt:    row.QueuedAt,
		Submitter:   common.HexToAddress(row.Submitter),
	}, true, nil
}

func (t *gormTx) PutQueueEntry(entry guard.QueueEntry) error {
	if !t.writable {
		return errReadOnly
	}
	row := model.GuardQueueEntry{
		Fingerprint: entry.Fingerprint.Hex(),
		QueuedAt:    entry.QueuedAt,
		Submitter:   entry.Submitter.Hex(),
	}
	err := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{"queued_at", "submitter", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return dbErr(err)
	}
	return nil
}

func (t *gormTx) CountQueueEntries() (int64, error) {
	var n int64
	if err := t.db.Model(&model.GuardQueueEntry{}).Count(&n).Error; err != nil {
		return 0, dbErr(err)
	}
	return n, nil
}

func (t *gormTx) HasVoted(fp common.Hash, window uint64, voter common.Address) (bool, error) {
	var n int64
	err := t.db.Model(&model.GuardVote{}).
		Where("fingerprint = ? AND veto_window = ? AND voter = ?", fp.Hex(), window, voter.Hex()).
		Count(&n).Error
	if err != nil {
		return false, dbErr(err)
	}
	return n > 0, nil
}

func (t *gormTx) VetoWeight(fp common.Hash, window uint64) (*big.Int, error) {
	var row model.GuardVetoTally
	err := t.db.Where("fingerprint = ? AND veto_window = ?", fp.Hex(), window).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return row.Weight.BigInt(), nil
}

func (t *gormTx) AddVote(vote guard.Vote) error {
	if !t.writable {
		return errReadOnly
	}
	weight := toDecimal(vote.Weight)

	// 1. 写入投票明细, 唯一索引兜底重复投票
	row := model.GuardVote{
		Fingerprint: vote.Fingerprint.Hex(),
		VetoWindow:  vote.Window,
		Voter:       vote.Voter.Hex(),
		Weight:      weight,
		Freeze:      vote.Freeze,
		CastAt:      vote.CastAt,
	}
	if err := t.db.Create(&row).Error; err != nil {
		return dbErr(err)
	}

	// 2. 累加窗口权重
	tally := model.GuardVetoTally{Fingerprint: row.Fingerprint, VetoWindow: row.VetoWindow, Weight: weight}
	err := t.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fingerprint"}, {Name: "veto_window"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"weight":     gorm.Expr("guard_veto_tallies.weight + ?", weight),
			"updated_at": gorm.Expr("NOW()"),
		}),
	}).Create(&tally).Error
	if err != nil {
		return dbErr(err)
	}
	return nil
}

func (t *gormTx) GetFreezeState() (guard.FreezeState, error) {
	if t.freeze == nil {
		var st model.GuardFreezeState
		if err := t.db.First(&st, "id = ?", model.FreezeStateID).Error; err != nil {
			return guard.FreezeState{}, dbErr(err)
		}
		t.freeze = &st
	}
	return FreezeStateFromRow(*t.freeze), nil
}

func (t *gormTx) PutFreezeState(state guard.FreezeState) error {
	if !t.writable {
		return errReadOnly
	}
	row := FreezeStateToRow(state)
	err := t.db.Model(&model.GuardFreezeState{}).Where("id = ?", model.FreezeStateID).
		Updates(map[string]interface{}{
			"phase":        row.Phase,
			"window_start": row.WindowStart,
			"weight":       row.Weight,
			"has_frozen":   row.HasFrozen,
			"frozen_at":    row.FrozenAt,
		}).Error
	if err != nil {
		return dbErr(err)
	}
	t.freeze = &row
	return nil
}

func (t *gormTx) HasFreezeVoted(windowStart uint64, voter common.Address) (bool, error) {
	var n int64
	err := t.db.Model(&model.GuardFreezeVote{}).
		Where("window_start = ? AND voter = ?", windowStart, voter.Hex()).
		Count(&n).Error
	if err != nil {
		return false, dbErr(err)
	}
	return n > 0, nil
}

func (t *gormTx) AddFreezeVote(windowStart uint64, voter common.Address, weight *big.Int) error {
	if !t.writable {
		return errReadOnly
	}
	row := model.GuardFreezeVote{WindowStart: windowStart, Voter: voter.Hex(), Weight: toDecimal(weight)}
	if err := t.db.Create(&row).Error; err != nil {
		return dbErr(err)
	}
	return nil
}

// Emit 事件写入 outbox, 以 fingerprint 作为消息 key
func (t *gormTx) Emit(event guard.Event) error {
	if !t.writable {
		return errReadOnly
	}
	if err := model.CreateOutboxMessage(t.db, t.topic, event.Fingerprint.Hex(), event); err != nil {
		return dbErr(err)
	}
	return nil
}

// FreezeStateFromRow 数据库行转为 guard.FreezeState
func FreezeStateFromRow(row model.GuardFreezeState) guard.FreezeState {
	st := guard.FreezeState{
		Phase:       guard.FreezeIdle,
		WindowStart: row.WindowStart,
		Weight:      row.Weight.BigInt(),
		HasFrozen:   row.HasFrozen,
		FrozenAt:    row.FrozenAt,
	}
	if row.Phase == guard.FreezeAccumulating.String() {
		st.Phase = guard.FreezeAccumulating
	}
	return st
}

func FreezeStateToRow(st guard.FreezeState) model.GuardFreezeState {
	return model.GuardFreezeState{
		ID:          model.FreezeStateID,
		Phase:       st.Phase.String(),
		WindowStart: st.WindowStart,
		Weight:      toDecimal(st.Weight),
		HasFrozen:   st.HasFrozen,
		FrozenAt:    st.FrozenAt,
	}
}

func toDecimal(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v, 0)
}
