package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a sliding-window store backed by a Redis sorted set per
// identity: members are individual requests, scores are their timestamps in
// nanoseconds. All processes pointed at the same Redis share one window, so
// a multi-process deployment enforces a single aggregate quota.
//
// Keys expire one window after the last admitted request; no explicit sweep
// is needed.
type RedisStore struct {
	client redis.UniversalClient
	cfg    Config
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides the key prefix (default "ratelimit").
// Useful for separating limiter instances on a shared Redis.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedis creates a Redis-backed store using an existing client.
func NewRedis(client redis.UniversalClient, cfg Config, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		cfg:    cfg,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

// window returns the purge cutoff score for the given instant.
func (s *RedisStore) window(now time.Time) (cutoff int64) {
	return now.Add(-s.cfg.Window).UnixNano()
}

// allowScript purges expired entries, counts the window, and conditionally
// records the request as one atomic unit. Scores are passed and returned as
// strings so nanosecond timestamps never round-trip through Lua numbers.
// Returns {admitted, count after the call, oldest score or "0"}.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local cutoff = ARGV[1]
local now = ARGV[2]
local limit = tonumber(ARGV[3])
local ttl = ARGV[4]
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, 0, cutoff)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, count, oldest[2] or '0'}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, ttl)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {1, count + 1, oldest[2] or '0'}
`)

// Allow purges expired entries, then admits and records the request when
// quota remains. Purge, count, and record run in one server-side script,
// so two concurrent checks against the same identity can never both claim
// the final slot.
func (s *RedisStore) Allow(ctx context.Context, id string) (Decision, error) {
	now := time.Now()

	res, err := allowScript.Run(ctx, s.client, []string{s.key(id)},
		strconv.FormatInt(s.window(now), 10),
		strconv.FormatInt(now.UnixNano(), 10),
		s.cfg.Limit,
		s.cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Slice()
	if err != nil {
		return Decision{}, err
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: unexpected script reply of %d values", len(res))
	}

	admitted, _ := res[0].(int64)
	count, _ := res[1].(int64)

	decision := Decision{
		Allowed:    admitted == 1,
		ResetAfter: s.resetFromScore(res[2], now),
	}
	if decision.Allowed {
		decision.Remaining = max(0, s.cfg.Limit-int(count))
	}
	return decision, nil
}

// resetFromScore converts the script's oldest-score reply into the time
// until that entry leaves the window. "0" means an empty window.
func (s *RedisStore) resetFromScore(raw any, now time.Time) time.Duration {
	score, ok := raw.(string)
	if !ok || score == "" || score == "0" {
		return 0
	}

	oldestNano, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return 0
	}

	reset := time.Unix(0, int64(oldestNano)).Add(s.cfg.Window).Sub(now)
	if reset < 0 {
		return 0
	}
	return reset
}

// Remaining reports the quota left without consuming any.
func (s *RedisStore) Remaining(ctx context.Context, id string) (int, error) {
	now := time.Now()
	key := s.key(id)

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(s.window(now), 10))
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return max(0, s.cfg.Limit-int(card.Val())), nil
}

// ResetAfter reports how long until the oldest recorded request leaves the
// window. Zero when the window is empty.
func (s *RedisStore) ResetAfter(ctx context.Context, id string) (time.Duration, error) {
	return s.oldestReset(ctx, s.key(id), time.Now())
}

// Close is a no-op: the Redis client is owned by the caller.
func (s *RedisStore) Close() error { return nil }

func (s *RedisStore) oldestReset(ctx context.Context, key string, now time.Time) (time.Duration, error) {
	oldest, err := s.client.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	oldestAt := time.Unix(0, int64(oldest[0].Score))
	if oldestAt.Add(s.cfg.Window).Before(now) {
		return 0, nil
	}
	return oldestAt.Add(s.cfg.Window).Sub(now), nil
}

var _ Store = (*RedisStore)(nil)
