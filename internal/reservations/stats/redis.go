package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisPrefix = "slotkeeper:stats"
	DefaultRedisTTL    = 24 * time.Hour
)

// RedisStore keeps cumulative counts in two hashes, <prefix>:total keyed by
// outcome and <prefix>:operation keyed by "operation:outcome", plus one
// expiring hash per minute bucket.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

// WithTTL sets the lifetime of minute buckets. Zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: DefaultRedisPrefix,
		ttl:    DefaultRedisTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) totalKey() string {
	return s.prefix + ":total"
}

func (s *RedisStore) operationKey() string {
	return s.prefix + ":operation"
}

func (s *RedisStore) minuteKey(at time.Time) string {
	return fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
}

func (s *RedisStore) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	field := entry.Operation + ":" + entry.Outcome

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.totalKey(), entry.Outcome, 1)
	pipe.HIncrBy(ctx, s.operationKey(), field, 1)

	bucket := s.minuteKey(at)
	pipe.HIncrBy(ctx, bucket, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucket, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}

func (s *RedisStore) Summary(ctx context.Context) (Summary, error) {
	if s == nil || s.rdb == nil {
		return newSummary(), nil
	}

	byOperation, err := s.rdb.HGetAll(ctx, s.operationKey()).Result()
	if err != nil {
		return Summary{}, fmt.Errorf("read stats: %w", err)
	}
	return parseOperationHash(byOperation), nil
}

// parseOperationHash rebuilds a Summary from "operation:outcome" fields.
// Malformed fields are ignored.
func parseOperationHash(fields map[string]string) Summary {
	summary := newSummary()
	for field, raw := range fields {
		op, outcome, ok := strings.Cut(field, ":")
		if !ok || op == "" || outcome == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		summary.add(op, outcome, n)
	}
	return summary
}
