package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when another commit holds one of the keys.
var ErrLockBusy = errors.New("assignment lock is held by another commit")

// Locker takes short-lived exclusive locks on a set of keys, all or nothing.
type Locker interface {
	Acquire(ctx context.Context, keys []string, ttl time.Duration) (release func(), err error)
}

// Lua script taking every key or none. Each key stores the owner token so only the
// owner can release it.
var acquireScript = redis.NewScript(`
-- KEYS[1..N] = lock keys
-- ARGV[1] = owner token
-- ARGV[2] = ttl in milliseconds
for i = 1, #KEYS do
    if redis.call("EXISTS", KEYS[i]) == 1 then
        return {0, KEYS[i]}
    end
end
for i = 1, #KEYS do
    redis.call("SET", KEYS[i], ARGV[1], "PX", ARGV[2])
end
return {1, "ok"}
`)

// Lua script releasing the keys still owned by the token.
var releaseScript = redis.NewScript(`
-- KEYS[1..N] = lock keys
-- ARGV[1] = owner token
local released = 0
for i = 1, #KEYS do
    if redis.call("GET", KEYS[i]) == ARGV[1] then
        redis.call("DEL", KEYS[i])
        released = released + 1
    end
end
return released
`)

// RedisLocker locks keys in Redis so commits on every API instance exclude each other.
type RedisLocker struct {
	redis *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{redis: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error) {
	keys = sortedKeys(keys)
	token := uuid.NewString()

	result, err := acquireScript.Run(ctx, l.redis, keys, token, ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to execute lock acquire: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected result format from lock script")
	}
	if ok, _ := result[0].(int64); ok == 0 {
		return nil, ErrLockBusy
	}

	return func() {
		// The lock expires on its own if the release is lost.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.redis, keys, token).Err()
	}, nil
}

// LocalLocker locks keys within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(ctx context.Context, keys []string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys = sortedKeys(keys)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		if _, busy := l.held[k]; busy {
			return nil, ErrLockBusy
		}
	}
	for _, k := range keys {
		l.held[k] = struct{}{}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for _, k := range keys {
				delete(l.held, k)
			}
		})
	}, nil
}

func sortedKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
