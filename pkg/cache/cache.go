package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Cache 通用缓存接口, 值以 JSON 存储
type Cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Get 反序列化到 target; 未命中返回 ErrMiss
	Get(ctx context.Context, key string, target any) error
	Delete(ctx context.Context, key string) error
}

// Key 以 ":" 拼接缓存键
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Loader 回源函数, cacheable 为 false 时结果不写回缓存
type Loader[T any] func(ctx context.Context) (value T, cacheable bool, err error)

// GetOrLoad 先读缓存, 未命中或条目损坏时回源
// 缓存本身的读写错误不会让调用失败, 只通过 onErr 通知 (可为 nil)
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load Loader[T], onErr func(op string, err error)) (T, error) {
	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) && onErr != nil {
		onErr("get", err)
	}

	value, cacheable, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if cacheable {
		if err := c.Set(ctx, key, value, ttl); err != nil && onErr != nil {
			onErr("set", err)
		}
	}
	return value, nil
}
