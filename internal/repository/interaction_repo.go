package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/matching"
)

// InteractionRepository provides data access for media items and per-user
// interactions, including the overlap index that backs the discovery
// fallback path.
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new repository bound to the given DB connection.
func NewInteractionRepository(database *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: database}
}

// EnsureMedia inserts a media item if the (external id, type) pair is new
// and returns the persisted row either way.
func (r *InteractionRepository) EnsureMedia(
	ctx context.Context,
	externalID, mediaType, title, imageURL string,
) (*db.MediaItem, error) {
	item := db.MediaItem{
		ExternalID: externalID,
		MediaType:  mediaType,
		Title:      title,
		ImageURL:   imageURL,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}, {Name: "media_type"}},
			DoNothing: true,
		}).
		Create(&item).Error
	if err != nil {
		return nil, err
	}

	var persisted db.MediaItem
	err = r.db.WithContext(ctx).
		Where("external_id = ? AND media_type = ?", externalID, mediaType).
		First(&persisted).Error
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}

// Upsert inserts or updates an interaction for the (user, media, kind)
// triple.
//
// Behavior:
//   - Rating must be in [0.5, 5.0] at 0.5 granularity; anything else is a
//     ValidationError.
//   - An existing triple is overwritten with the new rating and review.
func (r *InteractionRepository) Upsert(
	ctx context.Context,
	userID, mediaID uint64,
	kind string,
	rating *float64,
	review string,
) (*db.Interaction, error) {
	if !validKind(kind) {
		return nil, svcErr.Validation("unknown interaction kind %q", kind)
	}
	if rating != nil && !validRating(*rating) {
		return nil, svcErr.Validation("rating %.2f outside [0.5, 5.0] at 0.5 steps", *rating)
	}

	var media db.MediaItem
	if err := r.db.WithContext(ctx).First(&media, mediaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("media item")
		}
		return nil, err
	}

	interaction := db.Interaction{
		UserID:  userID,
		MediaID: mediaID,
		Kind:    kind,
		Rating:  rating,
		Review:  review,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "media_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "review", "updated_at"}),
		}).
		Create(&interaction).Error
	if err != nil {
		return nil, err
	}

	var persisted db.Interaction
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND media_id = ? AND kind = ?", userID, mediaID, kind).
		First(&persisted).Error
	if err != nil {
		return nil, err
	}
	return &persisted, nil
}

// Qualifying returns the user's taste-signal interactions (top4, anthem,
// favorite) joined with their media items, one entry per media item. When
// a user holds several qualifying interactions on the same item the rated
// one wins, then the most recent.
func (r *InteractionRepository) Qualifying(ctx context.Context, userID uint64) ([]matching.RatedItem, error) {
	type row struct {
		MediaID   uint64
		Title     string
		MediaType string
		Rating    *float64
		CreatedAt time.Time
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("interactions i").
		Select("i.media_id, m.title, m.media_type, i.rating, i.created_at").
		Joins("JOIN media_items m ON m.id = i.media_id").
		Where("i.user_id = ? AND i.kind IN ?", userID, db.QualifyingKinds).
		Order("i.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byMedia := make(map[uint64]matching.RatedItem, len(rows))
	order := make([]uint64, 0, len(rows))
	for _, rw := range rows {
		item := matching.RatedItem{
			MediaID:      rw.MediaID,
			Title:        rw.Title,
			MediaType:    rw.MediaType,
			Rating:       rw.Rating,
			InteractedAt: rw.CreatedAt.UnixMilli(),
		}
		prev, seen := byMedia[rw.MediaID]
		if !seen {
			byMedia[rw.MediaID] = item
			order = append(order, rw.MediaID)
			continue
		}
		if (prev.Rating == nil && item.Rating != nil) ||
			(item.Rating != nil) == (prev.Rating != nil) && item.InteractedAt > prev.InteractedAt {
			byMedia[rw.MediaID] = item
		}
	}

	items := make([]matching.RatedItem, 0, len(order))
	for _, id := range order {
		items = append(items, byMedia[id])
	}
	return items, nil
}

// OverlapCandidate is one row of the fallback ranking: a user plus how
// many qualifying items they share with the requester.
type OverlapCandidate struct {
	UserID      uint64
	SharedCount int
}

// OverlapCandidates ranks other users by how many qualifying media items
// they share with the requester, using the media item -> interacting users
// index. Tie-break: older accounts first, then lower user id. The account
// age stays inside the ORDER BY; mysql and sqlite disagree on how an
// aggregated datetime scans back into Go.
func (r *InteractionRepository) OverlapCandidates(
	ctx context.Context,
	userID uint64,
	exclude []uint64,
	limit int,
) ([]OverlapCandidate, error) {
	excluded := append([]uint64{userID}, exclude...)

	var rows []OverlapCandidate
	err := r.db.WithContext(ctx).
		Table("interactions other").
		Select("other.user_id AS user_id, COUNT(DISTINCT other.media_id) AS shared_count").
		Joins("JOIN interactions mine ON mine.media_id = other.media_id AND mine.user_id = ?", userID).
		Joins("JOIN users u ON u.id = other.user_id").
		Where("other.user_id NOT IN ?", excluded).
		Where("other.kind IN ? AND mine.kind IN ?", db.QualifyingKinds, db.QualifyingKinds).
		Group("other.user_id").
		Order("shared_count DESC, MIN(u.created_at) ASC, other.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func validKind(kind string) bool {
	switch kind {
	case db.KindLogged, db.KindTop4, db.KindAnthem, db.KindFavorite:
		return true
	}
	return false
}

func validRating(v float64) bool {
	if v < 0.5 || v > 5.0 {
		return false
	}
	// 0.5 granularity
	return math.Mod(v*2, 1) == 0
}
