package service

import (
	"context"
	"time"

	"guard-core/internal/model"
	"guard-core/internal/service/mq"
	"guard-core/pkg/logger"
	"guard-core/pkg/monitor"

	"go.uber.org/zap"
)

// OutboxStore RelayService 与 CronService 依赖的 outbox 操作
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]model.OutboxMessage, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkAttempt(ctx context.Context, id uint64, giveUp bool) error
	PurgeSent(ctx context.Context, before time.Time) (int64, error)
}

// RelayService 负责将本地消息表的消息搬运到 MQ
type RelayService struct {
	outbox      OutboxStore
	producer    mq.Producer
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewRelayService(outbox OutboxStore, producer mq.Producer) *RelayService {
	return &RelayService{
		outbox:      outbox,
		producer:    producer,
		interval:    500 * time.Millisecond, // 500ms 轮询一次
		batchSize:   50,
		maxAttempts: 10,
	}
}

func (s *RelayService) Start(ctx context.Context) {
	logger.Info("[Relay] 启动消息中继服务", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[Relay] 停止服务")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

// ProcessPending 投递一批消息, 返回成功条数
func (s *RelayService) ProcessPending(ctx context.Context) int {
	// 1. 获取一批 Pending 消息
	messages, err := s.outbox.FetchPending(ctx, s.batchSize)
	if err != nil {
		logger.Error("[Relay] 查询消息失败", zap.Error(err))
		return 0
	}
	if len(messages) == 0 {
		return 0
	}

	sent := 0
	for _, msg := range messages {
		// 2. 发送 MQ, 同一 fingerprint 的事件按 id 顺序投递
		if err := s.producer.Publish(ctx, msg.Topic, msg.MsgKey, msg.Payload); err != nil {
			giveUp := msg.Attempts+1 >= s.maxAttempts
			logger.Warn("[Relay] 发送消息失败",
				zap.Uint64("id", msg.ID), zap.Int("attempts", msg.Attempts+1), zap.Bool("give_up", giveUp), zap.Error(err))
			if err := s.outbox.MarkAttempt(ctx, msg.ID, giveUp); err != nil {
				logger.Error("[Relay] 记录失败次数失败", zap.Uint64("id", msg.ID), zap.Error(err))
			}
			monitor.Business.OutboxRelayedTotal.WithLabelValues("failed").Inc()
			// 保持顺序, 本批剩余消息下次再发
			break
		}

		// 3. 更新状态为 SENT
		// 只有发送成功了才更新状态 => At-least-once, 消费方需做好幂等
		if err := s.outbox.MarkSent(ctx, msg.ID); err != nil {
			logger.Error("[Relay] 更新状态失败", zap.Uint64("id", msg.ID), zap.Error(err))
			break
		}
		monitor.Business.OutboxRelayedTotal.WithLabelValues("sent").Inc()
		sent++
	}

	logger.Debug("[Relay] 本批投递完成", zap.Int("fetched", len(messages)), zap.Int("sent", sent))
	return sent
}
