package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only if it still holds our token, so an
// expired lock taken over by another replica is left alone.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only while it still holds our token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// SessionGuard is a per-chat lock shared by every bot replica that uses the
// same Redis. A held lock is extended every ttl/3 until Unlock, so it only
// expires when the holding replica dies mid-quiz.
type SessionGuard struct {
	client  *redis.Client
	ttl     time.Duration
	refresh time.Duration

	mu    sync.Mutex
	locks map[int64]heldLock
}

type heldLock struct {
	token string
	stop  context.CancelFunc
	done  chan struct{}
}

func NewSessionGuard(client *redis.Client, ttl time.Duration) *SessionGuard {
	return &SessionGuard{
		client:  client,
		ttl:     ttl,
		refresh: ttl / 3,
		locks:   make(map[int64]heldLock),
	}
}

// TryLock takes the chat lock if no replica holds it.
func (g *SessionGuard) TryLock(ctx context.Context, chatID int64) (bool, error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, g.key(chatID), token, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return false, nil
	}

	renewCtx, stop := context.WithCancel(context.Background())
	held := heldLock{token: token, stop: stop, done: make(chan struct{})}
	go g.keepAlive(renewCtx, g.key(chatID), token, held.done)

	g.mu.Lock()
	g.locks[chatID] = held
	g.mu.Unlock()

	return true, nil
}

// keepAlive extends the lock until ctx is canceled or the lock is lost.
func (g *SessionGuard) keepAlive(ctx context.Context, key, token string, done chan<- struct{}) {
	defer close(done)

	if g.ttl <= 0 || g.refresh <= 0 {
		return
	}

	ticker := time.NewTicker(g.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := refreshScript.Run(ctx, g.client, []string{key}, token, g.ttl.Milliseconds()).Int()
			if err == nil && n == 0 {
				return
			}
		}
	}
}

// Unlock releases a lock taken by this guard. Locks held by other replicas
// are never released.
func (g *SessionGuard) Unlock(ctx context.Context, chatID int64) error {
	g.mu.Lock()
	held, ok := g.locks[chatID]
	delete(g.locks, chatID)
	g.mu.Unlock()

	if !ok {
		return nil
	}

	held.stop()
	<-held.done

	if err := unlockScript.Run(ctx, g.client, []string{g.key(chatID)}, held.token).Err(); err != nil {
		return fmt.Errorf("redis unlock: %w", err)
	}
	return nil
}

func (g *SessionGuard) key(chatID int64) string {
	return "quiz:chat:" + strconv.FormatInt(chatID, 10) + ":lock"
}
