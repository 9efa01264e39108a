package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	lockKeyPrefix     = "search:lock:"
	metasoSessionLock = "metaso:session"
	defaultLockExpiry = time.Minute
)

var errLockHeld = errors.New("lock is held by another request")

// Locker 非阻塞互斥, 拿不到锁立即返回 errLockHeld。
// unlock 可重复调用。
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), err error)
}

// RedisLocker 基于 redsync, 多实例共享一个秘塔账号时使用。
// 持锁期间按 expiry/2 续期, 直到 unlock。
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisLocker(client *redis.Client, expiry time.Duration) *RedisLocker {
	if expiry <= 0 {
		expiry = defaultLockExpiry
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), error) {
	m := l.rs.NewMutex(lockKeyPrefix+key,
		redsync.WithTries(1),
		redsync.WithExpiry(l.expiry),
	)
	if err := m.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isLockTaken(err) {
			return nil, fmt.Errorf("%w: %v", errLockHeld, err)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", m.Name(), err)
	}

	stop := make(chan struct{})
	go l.keepAlive(m, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			if _, err := m.UnlockContext(context.Background()); err != nil {
				log.Warnf("unlock %s: %v", m.Name(), err)
			}
		})
	}, nil
}

// isLockTaken 只有锁被占用才算冲突, 节点连不上等错误原样返回
func isLockTaken(err error) bool {
	if errors.Is(err, redsync.ErrFailed) {
		return true
	}
	var taken *redsync.ErrTaken
	return errors.As(err, &taken)
}

func (l *RedisLocker) keepAlive(m *redsync.Mutex, stop <-chan struct{}) {
	ticker := time.NewTicker(l.expiry / 2)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ok, err := m.ExtendContext(context.Background()); !ok || err != nil {
				log.Warnf("extend lock %s: ok=%v err=%v", m.Name(), ok, err)
				return
			}
		}
	}
}

// LocalLocker 单实例进程内的锁
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, errLockHeld
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
