package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"search-server/pkg/config"
)

const limitKeyPrefix = "search:ratelimit:"

var errRateLimited = errors.New("超出速率限制")

// Limiter 按服务做固定窗口限流, 超限返回 RateLimited 业务错误
type Limiter interface {
	Allow(ctx context.Context, provider string) error
}

type window struct {
	name   string
	limit  int
	ttl    time.Duration
	bucket func(time.Time) string
}

// windowsFor 只返回配置了限额的窗口
func windowsFor(l config.Limit) []window {
	var ws []window
	if l.PerSecond > 0 {
		ws = append(ws, window{
			name:   "second",
			limit:  l.PerSecond,
			ttl:    2 * time.Second,
			bucket: func(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) },
		})
	}
	if l.PerMinute > 0 {
		ws = append(ws, window{
			name:   "minute",
			limit:  l.PerMinute,
			ttl:    2 * time.Minute,
			bucket: func(t time.Time) string { return strconv.FormatInt(t.Unix()/60, 10) },
		})
	}
	if l.PerMonth > 0 {
		ws = append(ws, window{
			name:   "month",
			limit:  l.PerMonth,
			ttl:    32 * 24 * time.Hour,
			bucket: func(t time.Time) string { return t.UTC().Format("200601") },
		})
	}
	return ws
}

// RedisLimiter 计数放在 Redis, 多实例共享额度
type RedisLimiter struct {
	client *redis.Client
	limits config.RateLimit
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, limits config.RateLimit) *RedisLimiter {
	return &RedisLimiter{client: client, limits: limits, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, provider string) error {
	now := l.now()
	var taken []string
	for _, w := range windowsFor(l.limits.For(provider)) {
		key := limitKeyPrefix + provider + ":" + w.name + ":" + w.bucket(now)
		n, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			// Redis 不可用时放行
			log.Warnf("rate limit incr %s: %v", key, err)
			return nil
		}
		if n == 1 {
			if err := l.client.Expire(ctx, key, w.ttl).Err(); err != nil {
				log.Warnf("rate limit expire %s: %v", key, err)
			}
		}
		taken = append(taken, key)
		if n > int64(w.limit) {
			// 被拒绝的请求不占额度
			for _, k := range taken {
				if err := l.client.Decr(ctx, k).Err(); err != nil {
					log.Warnf("rate limit decr %s: %v", k, err)
				}
			}
			return ErrRateLimited(fmt.Errorf("%s: %w (%d/%s)", provider, errRateLimited, w.limit, w.name))
		}
	}
	return nil
}

// MemoryLimiter 进程内计数, 未配置 Redis 时使用
type MemoryLimiter struct {
	limits config.RateLimit
	now    func() time.Time

	mu     sync.Mutex
	counts map[string]*windowCount
}

type windowCount struct {
	bucket string
	n      int
}

func NewMemoryLimiter(limits config.RateLimit) *MemoryLimiter {
	return &MemoryLimiter{limits: limits, now: time.Now, counts: make(map[string]*windowCount)}
}

func (l *MemoryLimiter) Allow(_ context.Context, provider string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ws := windowsFor(l.limits.For(provider))
	counts := make([]*windowCount, len(ws))
	for i, w := range ws {
		key := provider + ":" + w.name
		bucket := w.bucket(now)
		c, ok := l.counts[key]
		if !ok || c.bucket != bucket {
			c = &windowCount{bucket: bucket}
			l.counts[key] = c
		}
		if c.n >= w.limit {
			return ErrRateLimited(fmt.Errorf("%s: %w (%d/%s)", provider, errRateLimited, w.limit, w.name))
		}
		counts[i] = c
	}
	for _, c := range counts {
		c.n++
	}
	return nil
}
