package runlock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cms-backend/internal/platform/logger"
)

// Locker hands out advisory run locks. TryAcquire never blocks: ok is false when another
// holder owns the lock. release is safe to call more than once.
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// Local guards runs inside a single process.
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
}

func NewLocal() *Local {
	return &Local{held: map[string]time.Time{}}
}

func (l *Local) TryAcquire(_ context.Context, name string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if until, ok := l.held[name]; ok && (ttl <= 0 || now.Before(until)) {
		return func() {}, false, nil
	}
	until := now.Add(ttl)
	l.held[name] = until
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if cur, ok := l.held[name]; ok && cur.Equal(until) {
				delete(l.held, name)
			}
			l.mu.Unlock()
		})
	}, true, nil
}

// Redis guards runs across processes sharing one Redis. The lock expires after ttl so a
// crashed holder cannot wedge the job forever.
type Redis struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedis(log *logger.Logger, addr string) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{log: log.With("service", "RedisRunLock"), rdb: rdb, prefix: "cms:runlock:"}, nil
}

func (r *Redis) TryAcquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	key := r.prefix + name
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire %s: %w", name, err)
	}
	if !ok {
		return func() {}, false, nil
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, r.rdb, []string{key}, token).Err(); err != nil {
				r.log.Warn("Run lock release failed", "lock", name, "error", err)
			}
		})
	}, true, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
