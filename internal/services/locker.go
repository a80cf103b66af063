package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AccountLocker serializes ledger mutations per account. The returned
// func releases the lock and is safe to call more than once.
type AccountLocker interface {
	Lock(ctx context.Context, accountID string) (func(), error)
}

type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*lockEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[accountID]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[accountID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(accountID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(accountID, e)
		})
	}, nil
}

func (l *LocalLocker) release(accountID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, accountID)
	}
}

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLocker holds a token under a TTL so a crashed holder cannot
// block an account forever.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 10 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, accountID string) (func(), error) {
	key := fmt.Sprintf(KeyLedgerLock, accountID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire account lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockScript.Run(context.Background(), l.client, []string{key}, token)
		})
	}, nil
}
