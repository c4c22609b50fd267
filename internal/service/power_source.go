package service

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"guard-core/internal/guard"
	"guard-core/pkg/cache"
	"guard-core/pkg/logger"
	"guard-core/pkg/monitor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CachedPowerSource 历史检查点的权重不可变, 查询结果写入多级缓存
// 检查点不早于当前时刻时结果仍可能变化, 不缓存
type CachedPowerSource struct {
	inner guard.VotingPowerSource
	cache cache.Cache
	clock guard.Clock
	ttl   time.Duration
}

var _ guard.VotingPowerSource = (*CachedPowerSource)(nil)

func NewCachedPowerSource(inner guard.VotingPowerSource, c cache.Cache, clock guard.Clock, ttl time.Duration) *CachedPowerSource {
	return &CachedPowerSource{inner: inner, cache: c, clock: clock, ttl: ttl}
}

func powerKey(account common.Address, checkpoint uint64) string {
	return cache.Key("power", account.Hex(), strconv.FormatUint(checkpoint, 10))
}

func (p *CachedPowerSource) PastVotes(ctx context.Context, account common.Address, checkpoint uint64) (*big.Int, error) {
	key := powerKey(account, checkpoint)

	weight, err := cache.GetOrLoad(ctx, p.cache, key, p.ttl, func(ctx context.Context) (decimal.Decimal, bool, error) {
		start := time.Now()
		w, err := p.inner.PastVotes(ctx, account, checkpoint)
		monitor.Business.PowerLookupDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return decimal.Decimal{}, false, err
		}
		if w == nil {
			return decimal.Decimal{}, false, fmt.Errorf("voting power of %s: empty result", account.Hex())
		}
		// 只缓存已确定的检查点
		return decimal.NewFromBigInt(w, 0), p.settled(ctx, checkpoint), nil
	}, func(op string, err error) {
		logger.Warn("power cache "+op+" failed", zap.String("key", key), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	return weight.BigInt(), nil
}

func (p *CachedPowerSource) settled(ctx context.Context, checkpoint uint64) bool {
	if p.clock == nil {
		return true
	}
	now, err := p.clock.Now(ctx)
	if err != nil {
		return false
	}
	return checkpoint < now
}
