package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturematch/backend/internal/cache"
	"github.com/culturematch/backend/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	require.NoError(t, c.Ping(context.Background()))
	return c, mr
}

func TestPairScoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	_, hit, err := c.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetPairScore(ctx, 1, 2, 17.78, time.Hour))

	// argument order does not matter, the key is canonical
	score, hit, err := c.GetPairScore(ctx, 2, 1)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 17.78, score)
}

func TestInvalidateUserScoresOrphansEntries(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.SetPairScore(ctx, 1, 2, 50, time.Hour))
	require.NoError(t, c.SetPairScore(ctx, 1, 3, 60, time.Hour))
	require.NoError(t, c.SetPairScore(ctx, 2, 3, 70, time.Hour))

	// bumping user 1's generation kills both pairs involving them
	require.NoError(t, c.InvalidateUserScores(ctx, 1))

	_, hit, err := c.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = c.GetPairScore(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, hit)

	// the untouched pair survives
	score, hit, err := c.GetPairScore(ctx, 2, 3)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 70.0, score)

	// fresh writes after the bump land on the new generation
	require.NoError(t, c.SetPairScore(ctx, 1, 2, 55, time.Hour))
	score, hit, err = c.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 55.0, score)
}

func TestPairScoreTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.SetPairScore(ctx, 1, 2, 42, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, hit, err := c.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}
