// Package lock serialises allocations that target the same mentor slot.
//
// The database uniqueness constraint on (mentor_id, scheduled_time) remains
// the final guard; a SlotLocker keeps concurrent requests for one slot from
// racing through the conflict check at the same time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/mentor-bookings/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked means the slot stayed held by another allocation until the
// caller's context ended.
var ErrLocked = errors.New("slot is held by another allocation")

// Unlock releases a held slot. It is safe to call more than once.
type Unlock func(ctx context.Context) error

type SlotLocker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

func SlotKey(mentorID int64, at domain.Slot) string {
	return fmt.Sprintf("slot:%d:%d", mentorID, at)
}

// LocalLocker is an in-process keyed mutex. Waiters queue until the holder
// releases or their context ends.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*localSlot
}

type localSlot struct {
	held chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*localSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &localSlot{held: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.held <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.held
			l.release(key, s)
		})
		return nil
	}, nil
}

func (l *LocalLocker) release(key string, s *localSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// compare-and-delete so a holder whose TTL lapsed cannot free a newer lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

const (
	minRetryDelay = 10 * time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

// RedisLocker holds slots with SET NX PX so allocations running in several
// processes are serialised. A held slot is polled with backoff until it frees
// up or ctx ends, matching the queueing of LocalLocker.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker panics on a non-positive ttl, which would make SET NX
// create a lock that never expires.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		panic("lock: redis lock ttl must be positive")
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "mentor-bookings:lock:"}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	delay := minRetryDelay
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if delay > minRetryDelay && ctx.Err() != nil {
				return nil, fmt.Errorf("acquire %s: %w: %w", key, ErrLocked, ctx.Err())
			}
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("acquire %s: %w: %w", key, ErrLocked, ctx.Err())
		case <-t.C:
		}
		delay = min(delay*2, maxRetryDelay)
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
		})
		return err
	}, nil
}
