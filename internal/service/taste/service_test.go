package taste_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/cache"
	"github.com/culturematch/backend/internal/config"
	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/repository"
	"github.com/culturematch/backend/internal/service/taste"
	"github.com/culturematch/backend/internal/vecindex"
)

func setupService(t *testing.T) (*taste.Service, *app.AppContext) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Matching.VectorDim = 4

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, database, cache.NewRedisCache(cfg), vecindex.NewMemory(4), log)

	user := db.User{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x"}
	require.NoError(t, appCtx.DB.Create(&user).Error)

	return taste.NewService(appCtx), appCtx
}

func TestRecordInteractionCreatesMediaOnFirstSight(t *testing.T) {
	ctx := context.Background()
	service, _ := setupService(t)

	score := 4.5
	interaction, media, err := service.RecordInteraction(
		ctx, 1, "tmdb:27205", db.MediaMovie, "Inception", "", db.KindFavorite, &score, "mind-bending",
	)
	require.NoError(t, err)
	assert.Equal(t, "Inception", media.Title)
	require.NotNil(t, interaction.Rating)
	assert.Equal(t, 4.5, *interaction.Rating)

	// the same external item is reused, the triple overwritten
	newScore := 3.0
	interaction2, media2, err := service.RecordInteraction(
		ctx, 1, "tmdb:27205", db.MediaMovie, "Inception", "", db.KindFavorite, &newScore, "",
	)
	require.NoError(t, err)
	assert.Equal(t, media.ID, media2.ID)
	assert.Equal(t, interaction.ID, interaction2.ID)
	assert.Equal(t, 3.0, *interaction2.Rating)
}

func TestRecordInteractionValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := setupService(t)

	_, _, err := service.RecordInteraction(ctx, 1, "", db.MediaMovie, "Inception", "", db.KindFavorite, nil, "")
	assert.True(t, svcErr.IsValidation(err))

	_, _, err = service.RecordInteraction(ctx, 1, "tmdb:1", "podcast", "Some Show", "", db.KindFavorite, nil, "")
	assert.True(t, svcErr.IsValidation(err))

	_, _, err = service.RecordInteraction(ctx, 99, "tmdb:1", db.MediaMovie, "Inception", "", db.KindFavorite, nil, "")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestRecordInteractionInvalidatesPairScores(t *testing.T) {
	ctx := context.Background()
	service, appCtx := setupService(t)

	require.NoError(t, appCtx.RedisCache.SetPairScore(ctx, 1, 2, 55.5, time.Hour))
	_, hit, err := appCtx.RedisCache.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, hit)

	_, _, err = service.RecordInteraction(ctx, 1, "tmdb:1", db.MediaMovie, "Movie1", "", db.KindTop4, nil, "")
	require.NoError(t, err)

	_, hit, err = appCtx.RedisCache.GetPairScore(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSetVectorValidatesDimension(t *testing.T) {
	ctx := context.Background()
	service, _ := setupService(t)

	err := service.SetVector(ctx, 1, []float32{1, 2})
	assert.True(t, svcErr.IsValidation(err))

	err = service.SetVector(ctx, 99, []float32{1, 0, 0, 0})
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestSetVectorPersistsAndIndexes(t *testing.T) {
	ctx := context.Background()
	service, appCtx := setupService(t)

	vec := []float32{0, 1, 0, 0}
	require.NoError(t, service.SetVector(ctx, 1, vec))

	stored, err := repository.NewUserRepository(appCtx.DB).TasteVector(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, vec, stored)

	assert.Equal(t, 1, appCtx.Vectors.Len())
	hits, err := appCtx.Vectors.Nearest(ctx, vec, nil, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(1), hits[0].UserID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}
