package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRepository counts calls that reach the wrapped store
type countingRepository struct {
	Repository
	loadAll int
	loadOne int
}

func (c *countingRepository) LoadAll(ctx context.Context) ([]domain.RuleSet, error) {
	c.loadAll++
	return c.Repository.LoadAll(ctx)
}

func (c *countingRepository) LoadOne(ctx context.Context, start domain.Date) (domain.RuleSet, error) {
	c.loadOne++
	return c.Repository.LoadOne(ctx, start)
}

func newTestCache(t *testing.T, inner Repository) (*CachedRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCachedRepository(inner, client, "tax", time.Minute, nil), mr
}

func TestCachedRepository_LoadAllHitsCacheSecondTime(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "tax")}
	cache, mr := newTestCache(t, inner)
	ctx := context.Background()

	first, err := cache.LoadAll(ctx)
	require.NoError(t, err)
	second, err := cache.LoadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.loadAll)
	require.Len(t, second, len(first))
	assert.True(t, first[1].EffectiveStart.Equal(second[1].EffectiveStart))
	assert.True(t, first[1].Brackets[5].FixedAmount.Equal(second[1].Brackets[5].FixedAmount))
	assert.True(t, mr.Exists("ratebook:tax:all"))
	assert.True(t, mr.TTL("ratebook:tax:all") > 0)
}

func TestCachedRepository_LoadOne(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "tax")}
	cache, mr := newTestCache(t, inner)
	ctx := context.Background()
	start := domain.NewDate(2018, time.January, 1)

	_, err := cache.LoadOne(ctx, start)
	require.NoError(t, err)
	rs, err := cache.LoadOne(ctx, start)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.loadOne)
	assert.Equal(t, "TRAIN 2018-2022", rs.Label)
	assert.True(t, mr.Exists("ratebook:tax:2018-01-01"))
}

func TestCachedRepository_ErrorsAreNotCached(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "missing")}
	cache, mr := newTestCache(t, inner)

	_, err := cache.LoadAll(context.Background())
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.False(t, mr.Exists("ratebook:tax:all"))
}

func TestCachedRepository_Invalidate(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "tax")}
	cache, mr := newTestCache(t, inner)
	ctx := context.Background()

	_, err := cache.LoadAll(ctx)
	require.NoError(t, err)
	_, err = cache.LoadOne(ctx, domain.NewDate(2023, time.January, 1))
	require.NoError(t, err)
	require.NoError(t, mr.Set("ratebook:sss:all", "[]"))

	removed, err := cache.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.True(t, mr.Exists("ratebook:sss:all"), "other families are untouched")

	_, err = cache.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loadAll)
}

func TestCachedRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "tax")}
	cache, mr := newTestCache(t, inner)
	mr.Close()

	ruleSets, err := cache.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, ruleSets, 2)
	assert.Equal(t, 1, inner.loadAll)
}

func TestCachedRepository_DiscardsCorruptEntries(t *testing.T) {
	inner := &countingRepository{Repository: NewFileRepository("testdata", "tax")}
	cache, mr := newTestCache(t, inner)
	require.NoError(t, mr.Set("ratebook:tax:all", "not json"))

	ruleSets, err := cache.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, ruleSets, 2)
	assert.Equal(t, 1, inner.loadAll)
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := DialRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = DialRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
