package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"search-server/internal/pkg/answer"
	"search-server/internal/pkg/code"
)

func TestLocalLocker(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, "a")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "a")
	assert.ErrorIs(t, err, errLockHeld)

	other, err := l.TryLock(ctx, "b")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.TryLock(ctx, "a")
	require.NoError(t, err)
	again()
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client, 2*time.Second)
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, metasoSessionLock)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKeyPrefix+metasoSessionLock))

	_, err = l.TryLock(ctx, metasoSessionLock)
	assert.ErrorIs(t, err, errLockHeld)

	unlock()
	unlock()
	assert.False(t, mr.Exists(lockKeyPrefix+metasoSessionLock))

	again, err := l.TryLock(ctx, metasoSessionLock)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	l := NewRedisLocker(client, 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.TryLock(ctx, metasoSessionLock)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errLockHeld)
}

func TestMetasoClient_LockBackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	b := &fakeBrowser{frames: answerFrames}
	c := newMetasoClient(b, NewRedisLocker(client, 2*time.Second), nil, answer.Options{})
	_, err := c.Complete(context.Background(), "q", "detail")
	assert.Equal(t, code.RequestFailed, CodeOf(err))
	assert.Zero(t, b.conversions)

}
