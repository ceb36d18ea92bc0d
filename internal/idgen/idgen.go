package idgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

var ErrAllocationFailed = errors.New("ID_ALLOCATION_FAILED")

const (
	DefaultKeyPrefix = "lead"
	sequenceTTL      = 48 * time.Hour
)

var prefixes = map[models.Category]string{
	models.CategoryLoan:        "LN",
	models.CategoryInsurance:   "INS",
	models.CategoryConsultancy: "CON",
}

// Prefix is the human-readable tag leading every id of a category.
func Prefix(category models.Category) string {
	return prefixes[category]
}

// Allocator hands out URL-safe ids unique within a category's collection.
type Allocator interface {
	Allocate(ctx context.Context, category models.Category) (string, error)
}

// RedisAllocator produces ids such as LN-261015-0042 from a per-category daily
// counter. The counter expires two days after it was started.
type RedisAllocator struct {
	client    redis.Cmdable
	keyPrefix string
	now       func() time.Time
	logger    logger.Logger
}

type Option func(*RedisAllocator)

func WithClock(now func() time.Time) Option {
	return func(a *RedisAllocator) { a.now = now }
}

func WithLogger(log logger.Logger) Option {
	return func(a *RedisAllocator) { a.logger = log }
}

func NewRedisAllocator(client redis.Cmdable, keyPrefix string, opts ...Option) *RedisAllocator {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	a := &RedisAllocator{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
		logger:    logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SequenceKey is the redis key counting a category's ids for one UTC day.
func (a *RedisAllocator) SequenceKey(category models.Category, day time.Time) string {
	return fmt.Sprintf("%s:seq:%s:%s", a.keyPrefix, category, day.UTC().Format("20060102"))
}

func (a *RedisAllocator) Allocate(ctx context.Context, category models.Category) (string, error) {
	prefix, ok := prefixes[category]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrAllocationFailed, category)
	}

	day := a.now().UTC()
	key := a.SequenceKey(category, day)

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("%w: incr %s: %v", ErrAllocationFailed, key, err)
	}
	if seq == 1 {
		if err := a.client.Expire(ctx, key, sequenceTTL).Err(); err != nil {
			a.logger.Warn("failed to set sequence expiry", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("060102"), seq), nil
}

// ULIDAllocator needs no shared state; ids sort by creation time.
type ULIDAllocator struct{}

func NewULIDAllocator() *ULIDAllocator { return &ULIDAllocator{} }

func (ULIDAllocator) Allocate(ctx context.Context, category models.Category) (string, error) {
	prefix, ok := prefixes[category]
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrAllocationFailed, category)
	}
	return prefix + "-" + ulid.Make().String(), nil
}
