package taste

import (
	"context"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/repository"
)

// Service ingests the taste signals the matching engine runs on: media
// interactions and quiz-derived taste vectors. The embedding model that
// produces the vectors lives outside this service; vectors arrive opaque.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	interactions *repository.InteractionRepository
}

// NewService creates a taste service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
	}
}

// RecordInteraction upserts a (user, media, kind) interaction, creating
// the media item on first sight.
//
// Already-stored matches keep their frozen shared-items snapshots; only
// cached pair scores are invalidated, so future discovery reflects the
// change.
func (s *Service) RecordInteraction(
	ctx context.Context,
	userID uint64,
	externalID, mediaType, title, imageURL string,
	kind string,
	rating *float64,
	review string,
) (*db.Interaction, *db.MediaItem, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, nil, err
	}
	if externalID == "" || title == "" {
		return nil, nil, svcErr.Validation("media external_id and title are required")
	}
	if !validMediaType(mediaType) {
		return nil, nil, svcErr.Validation("unknown media type %q", mediaType)
	}

	media, err := s.interactions.EnsureMedia(ctx, externalID, mediaType, title, imageURL)
	if err != nil {
		return nil, nil, err
	}

	interaction, err := s.interactions.Upsert(ctx, userID, media.ID, kind, rating, review)
	if err != nil {
		return nil, nil, err
	}

	if err := s.appCtx.RedisCache.InvalidateUserScores(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("score cache invalidation failed", "user", userID, "err", err)
	}

	return interaction, media, nil
}

// SetVector replaces the user's taste vector and refreshes the vector
// index so the next discovery sees it.
func (s *Service) SetVector(ctx context.Context, userID uint64, vector []float32) error {
	dim := s.appCtx.Config.Matching.VectorDim
	if len(vector) != dim {
		return svcErr.Validation("taste vector must have length %d, got %d", dim, len(vector))
	}

	if err := s.users.SetTasteVector(ctx, userID, vector); err != nil {
		return err
	}
	if err := s.appCtx.Vectors.Upsert(userID, vector); err != nil {
		return err
	}
	if err := s.appCtx.RedisCache.InvalidateUserScores(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("score cache invalidation failed", "user", userID, "err", err)
	}

	s.appCtx.Logger.Info("taste vector updated", "user", userID)
	return nil
}

func validMediaType(mediaType string) bool {
	switch mediaType {
	case db.MediaMovie, db.MediaArtist, db.MediaTrack, db.MediaAlbum:
		return true
	}
	return false
}
