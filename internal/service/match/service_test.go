package match_test

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
	"github.com/culturematch/backend/internal/service/match"
	"github.com/culturematch/backend/internal/vecindex"
)

func setupService(t *testing.T) (*match.Service, *app.AppContext) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

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
	appCtx := app.New(cfg, database, cache.NewRedisCache(cfg), vecindex.NewMemory(cfg.Matching.VectorDim), log)
	return match.NewService(appCtx), appCtx
}

func seedUser(t *testing.T, appCtx *app.AppContext, id uint64, name string) {
	t.Helper()
	user := db.User{
		ID:           id,
		Username:     fmt.Sprintf("user%d", id),
		Email:        fmt.Sprintf("u%d@test.com", id),
		PasswordHash: "x",
		DisplayName:  name,
	}
	require.NoError(t, appCtx.DB.Create(&user).Error)
}

func TestRespondDrivesLifecycle(t *testing.T) {
	ctx := context.Background()
	service, appCtx := setupService(t)
	seedUser(t, appCtx, 1, "Ana")
	seedUser(t, appCtx, 2, "Ben")

	row, _, err := repository.NewMatchRepository(appCtx.DB).Upsert(ctx, 1, 2, 70, nil, nil)
	require.NoError(t, err)

	m, err := service.Respond(ctx, row.ID, 1, repository.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, db.StatusAccepted, m.Status())

	m, err = service.Respond(ctx, row.ID, 2, repository.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, db.StatusMatched, m.Status())

	// unknown actor fails before touching the match
	_, err = service.Respond(ctx, row.ID, 99, repository.ActionAccept)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestListForUserShapesPartnerView(t *testing.T) {
	ctx := context.Background()
	service, appCtx := setupService(t)
	seedUser(t, appCtx, 1, "Ana")
	seedUser(t, appCtx, 2, "Ben")
	seedUser(t, appCtx, 3, "Cara")

	matches := repository.NewMatchRepository(appCtx.DB)
	ra, rb := 5.0, 3.0
	snapshot := []db.SharedItem{{MediaID: 1, Title: "Movie1", MediaType: db.MediaMovie, RatingA: &ra, RatingB: &rb}}

	_, _, err := matches.Upsert(ctx, 1, 2, 40, snapshot, nil)
	require.NoError(t, err)
	_, _, err = matches.Upsert(ctx, 3, 2, 80, nil, nil)
	require.NoError(t, err)

	views, err := service.ListForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// highest score first
	assert.Equal(t, uint64(3), views[0].PartnerID)
	assert.Equal(t, "Cara", views[0].PartnerName)
	assert.Equal(t, "high compatibility", views[0].Label)

	// user 2 is side B of the pair (1,2): the snapshot is flipped so
	// rating_a is theirs
	view := views[1]
	assert.Equal(t, uint64(1), view.PartnerID)
	require.Len(t, view.SharedItems, 1)
	require.NotNil(t, view.SharedItems[0].RatingA)
	assert.Equal(t, 3.0, *view.SharedItems[0].RatingA)
	require.NotNil(t, view.SharedItems[0].RatingB)
	assert.Equal(t, 5.0, *view.SharedItems[0].RatingB)
}

func TestListForUserUnknownUser(t *testing.T) {
	ctx := context.Background()
	service, _ := setupService(t)

	_, err := service.ListForUser(ctx, 7)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}
