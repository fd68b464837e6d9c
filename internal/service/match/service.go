package match

import (
	"context"
	"time"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/db"
	"github.com/culturematch/backend/internal/matching"
	"github.com/culturematch/backend/internal/repository"
)

// Service drives the per-pair match lifecycle: accept/reject responses and
// the user's match list.
type Service struct {
	appCtx  *app.AppContext
	users   *repository.UserRepository
	matches *repository.MatchRepository
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		users:   repository.NewUserRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// View is a match shaped for the requesting user: the partner is resolved
// relative to them.
type View struct {
	MatchID     uint64          `json:"match_id"`
	PartnerID   uint64          `json:"partner_id"`
	PartnerName string          `json:"partner_name,omitempty"`
	Score       float64         `json:"score"`
	Label       string          `json:"label"`
	SharedItems []db.SharedItem `json:"shared_items"`
	Icebreaker  *string         `json:"icebreaker,omitempty"`
	Status      db.MatchStatus  `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Respond applies an accept or reject from the acting user.
//
// Behavior:
//   - NotFound for unknown actors, unknown matches, and non-parties.
//   - Idempotent: repeating an already-applied action succeeds unchanged.
//   - InvalidTransition once the match is matched or rejected.
//   - The transition into matched appends exactly one system message,
//     however the two accepts race (see repository.RecordAction).
func (s *Service) Respond(ctx context.Context, matchID, userID uint64, action string) (*db.Match, error) {
	s.appCtx.Logger.Debug("respond called", "match_id", matchID, "user", userID, "action", action)

	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	match, err := s.matches.RecordAction(ctx, matchID, userID, action)
	if err != nil {
		return nil, err
	}
	if match.Status() == db.StatusMatched {
		s.appCtx.Logger.Info("pair matched", "match_id", match.ID)
	}
	return match, nil
}

// ListForUser returns the user's matches ordered by score descending,
// shaped for that user.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]View, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(matches))
	for _, m := range matches {
		partnerID := m.OtherUser(userID)
		var partnerName string
		if partner, err := s.users.Get(ctx, partnerID); err == nil {
			partnerName = partner.DisplayName
		}

		shared := m.SharedItems
		if m.UserBID == userID {
			shared = db.SwapRatingSides(shared)
		}

		views = append(views, View{
			MatchID:     m.ID,
			PartnerID:   partnerID,
			PartnerName: partnerName,
			Score:       m.Score,
			Label:       matching.Label(m.Score),
			SharedItems: shared,
			Icebreaker:  m.Icebreaker,
			Status:      m.Status(),
			CreatedAt:   m.CreatedAt,
		})
	}
	return views, nil
}
