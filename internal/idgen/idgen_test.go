package idgen

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/models"
)

var fixedDay = time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedDay }

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

// ================================
// Redis allocator
// ================================

func TestRedisAllocator_SequentialPerCategory(t *testing.T) {
	mr, client := setupRedis(t)
	a := NewRedisAllocator(client, "", WithClock(fixedClock))
	ctx := context.Background()

	first, err := a.Allocate(ctx, models.CategoryLoan)
	require.NoError(t, err)
	second, err := a.Allocate(ctx, models.CategoryLoan)
	require.NoError(t, err)
	other, err := a.Allocate(ctx, models.CategoryConsultancy)
	require.NoError(t, err)

	assert.Equal(t, "LN-261015-0001", first)
	assert.Equal(t, "LN-261015-0002", second)
	assert.Equal(t, "CON-261015-0001", other)

	key := a.SequenceKey(models.CategoryLoan, fixedDay)
	assert.Equal(t, "lead:seq:loan:20261015", key)
	assert.Equal(t, 48*time.Hour, mr.TTL(key))
}

func TestRedisAllocator_NewDayRestartsSequence(t *testing.T) {
	_, client := setupRedis(t)
	day := fixedDay
	a := NewRedisAllocator(client, "test", WithClock(func() time.Time { return day }))
	ctx := context.Background()

	_, err := a.Allocate(ctx, models.CategoryInsurance)
	require.NoError(t, err)

	day = day.Add(24 * time.Hour)
	id, err := a.Allocate(ctx, models.CategoryInsurance)
	require.NoError(t, err)
	assert.Equal(t, "INS-261016-0001", id)
}

func TestRedisAllocator_IncrFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a := NewRedisAllocator(db, "lead", WithClock(fixedClock))

	mock.ExpectIncr("lead:seq:loan:20261015").SetErr(errors.New("connection refused"))

	_, err := a.Allocate(context.Background(), models.CategoryLoan)
	assert.True(t, errors.Is(err, ErrAllocationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAllocator_ExpireOnlyOnFirstIncrement(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a := NewRedisAllocator(db, "lead", WithClock(fixedClock))
	key := "lead:seq:insurance:20261015"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, 48*time.Hour).SetErr(errors.New("timeout"))
	mock.ExpectIncr(key).SetVal(2)

	id, err := a.Allocate(context.Background(), models.CategoryInsurance)
	require.NoError(t, err, "an expiry failure must not fail allocation")
	assert.Equal(t, "INS-261015-0001", id)

	id, err = a.Allocate(context.Background(), models.CategoryInsurance)
	require.NoError(t, err)
	assert.Equal(t, "INS-261015-0002", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisAllocator_UnknownCategory(t *testing.T) {
	_, client := setupRedis(t)
	_, err := NewRedisAllocator(client, "").Allocate(context.Background(), models.Category("pets"))
	assert.True(t, errors.Is(err, ErrAllocationFailed))
}

// ================================
// ULID allocator
// ================================

func TestULIDAllocator(t *testing.T) {
	a := NewULIDAllocator()
	urlSafe := regexp.MustCompile(`^(LN|INS|CON)-[0-9A-Z]{26}$`)

	seen := map[string]bool{}
	for _, c := range models.Categories {
		for i := 0; i < 50; i++ {
			id, err := a.Allocate(context.Background(), c)
			require.NoError(t, err)
			assert.Regexp(t, urlSafe, id)
			assert.False(t, seen[id])
			seen[id] = true
		}
	}
	assert.Equal(t, "INS", Prefix(models.CategoryInsurance))
}
