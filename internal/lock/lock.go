// Package lock serializes writers of one settlement across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	settlementdomain "github.com/dentalclinic/payouts/internal/settlement/domain"
	redis "github.com/redis/go-redis/v9"
)

// ErrNotObtained means another writer holds the key. It matches ErrConcurrentModification.
var ErrNotObtained = fmt.Errorf("lock_not_obtained: %w", settlementdomain.ErrConcurrentModification)

// RedisLocker is backed by bsm/redislock. Acquire does not wait; a held key fails fast.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (settlementdomain.Unlocker, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return redisUnlocker{lock: lk}, nil
}

type redisUnlocker struct {
	lock *redislock.Lock
}

func (u redisUnlocker) Release(ctx context.Context) error {
	err := u.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// expired under us; the version check inside the transaction still guards the write
		return nil
	}
	return err
}

// LocalLocker is used when Redis is disabled. It only serializes writers in this process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}, now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (settlementdomain.Unlocker, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return nil, ErrNotObtained
	}
	expires := now.Add(ttl)
	l.held[key] = expires
	return &localUnlocker{parent: l, key: key, expires: expires}, nil
}

type localUnlocker struct {
	parent  *LocalLocker
	key     string
	expires time.Time
}

func (u *localUnlocker) Release(context.Context) error {
	u.parent.mu.Lock()
	defer u.parent.mu.Unlock()
	if current, ok := u.parent.held[u.key]; ok && current.Equal(u.expires) {
		delete(u.parent.held, u.key)
	}
	return nil
}

// New picks the Redis locker when a client is configured.
func New(client *redis.Client) settlementdomain.Locker {
	if client == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(client)
}
