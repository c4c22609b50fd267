package repository

import (
	"context"
	"time"

	"guard-core/internal/model"

	"gorm.io/gorm"
)

// OutboxRepository outbox_messages 表的读写
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// FetchPending 按 id 顺序取一批待发送消息
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxMessage, error) {
	var messages []model.OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// MarkAttempt 记录一次失败的投递, giveUp 时置为 FAILED 不再重试
func (r *OutboxRepository) MarkAttempt(ctx context.Context, id uint64, giveUp bool) error {
	updates := map[string]interface{}{"attempts": gorm.Expr("attempts + 1")}
	if giveUp {
		updates["status"] = model.OutboxFailed
	}
	return r.db.WithContext(ctx).Model(&model.OutboxMessage{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// PurgeSent 删除早于 before 的已发送消息
func (r *OutboxRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("status = ? AND updated_at < ?", model.OutboxSent, before).
		Delete(&model.OutboxMessage{})
	return res.RowsAffected, res.Error
}
