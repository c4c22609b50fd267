package service

import (
	"context"
	"time"

	"guard-core/pkg/logger"
	"guard-core/pkg/utils/lock"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GaugeRefresher 由 GuardService 实现
type GaugeRefresher interface {
	RefreshGauges(ctx context.Context) error
}

type CronService struct {
	cron      *cron.Cron
	locker    lock.DistributedLock
	gauges    GaugeRefresher
	outbox    OutboxStore
	retention time.Duration
}

func NewCronService(locker lock.DistributedLock, gauges GaugeRefresher, outbox OutboxStore) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		locker:    locker,
		gauges:    gauges,
		outbox:    outbox,
		retention: 7 * 24 * time.Hour,
	}
}

func (s *CronService) Start() error {
	// 注册任务
	if _, err := s.cron.AddFunc("@every 15s", s.RefreshGauges); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.CleanupOutbox); err != nil { // 每天 03:00
		return err
	}

	s.cron.Start()
	logger.Info("Cron Service started")
	return nil
}

// Stop 等待正在执行的任务结束
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron Service stopped")
}

// withLock 多实例部署时同一任务只在一个节点执行
func (s *CronService) withLock(name string, ttl time.Duration, fn func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), ttl)
	defer cancel()

	lockKey := "cron:lock:" + name
	locked, err := s.locker.Acquire(ctx, lockKey, ttl)
	if err != nil || !locked {
		// 获取锁失败，说明有其他节点在运行，跳过
		logger.Debug("cron: 获取锁失败或已有实例在运行", zap.String("job", name), zap.Error(err))
		return
	}
	defer func() {
		if err := s.locker.Release(context.Background(), lockKey); err != nil {
			logger.Warn("cron: 释放锁失败", zap.String("job", name), zap.Error(err))
		}
	}()

	fn(ctx)
}

// RefreshGauges 刷新冻结和入队指标
func (s *CronService) RefreshGauges() {
	s.withLock("refresh_gauges", 10*time.Second, func(ctx context.Context) {
		if err := s.gauges.RefreshGauges(ctx); err != nil {
			logger.Warn("刷新 Guard 指标失败", zap.Error(err))
		}
	})
}

// CleanupOutbox 清理过期的已发送消息
func (s *CronService) CleanupOutbox() {
	s.withLock("cleanup_outbox", time.Minute, func(ctx context.Context) {
		n, err := s.outbox.PurgeSent(ctx, time.Now().Add(-s.retention))
		if err != nil {
			logger.Error("清理 outbox 失败", zap.Error(err))
			return
		}
		logger.Info("outbox 清理完成", zap.Int64("deleted", n))
	})
}
