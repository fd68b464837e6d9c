package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/db"
	"github.com/culturematch/backend/internal/matching"
	"github.com/culturematch/backend/internal/repository"
)

// Service is the candidate ranker: it turns a discovery request into a
// ranked page of scored match candidates, creating the backing pending
// match rows as a side effect.
type Service struct {
	appCtx       *app.AppContext
	users        *repository.UserRepository
	interactions *repository.InteractionRepository
	matches      *repository.MatchRepository
}

// NewService creates a discovery service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		interactions: repository.NewInteractionRepository(appCtx.DB),
		matches:      repository.NewMatchRepository(appCtx.DB),
	}
}

// Candidate is one ranked discovery result.
type Candidate struct {
	MatchID     uint64          `json:"match_id"`
	UserID      uint64          `json:"user_id"`
	DisplayName string          `json:"display_name,omitempty"`
	Score       float64         `json:"score"`
	Label       string          `json:"label"`
	SharedItems []db.SharedItem `json:"shared_items"`
	Icebreaker  *string         `json:"icebreaker,omitempty"`
	Status      db.MatchStatus  `json:"status"`
}

// scored carries a candidate through the ranking phase. result is nil
// when the score came from the pair cache; the snapshot is then computed
// only if the candidate makes the page.
type scored struct {
	user   *db.User
	score  float64
	result *matching.Result
}

// Discover returns up to limit ranked candidates for the requester.
//
// Behavior:
//   - Excludes the requester and anyone already sharing a match row in any
//     state.
//   - Primary path: overfetch nearest users by taste-vector similarity,
//     rescore each pair fully, rank by score (ties: older accounts first).
//   - Fallback (no requester vector, or vector search timed out): rank by
//     interaction-overlap count instead; scoring then omits the embedding
//     component. Degraded but correct, never surfaced as an error.
//   - Side effect: each returned candidate is backed by an idempotent
//     pending match upsert on the canonical pair.
func (s *Service) Discover(ctx context.Context, userID uint64, limit int) ([]Candidate, error) {
	log := s.appCtx.Logger

	requester, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	partners, err := s.matches.PartnersOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := make(map[uint64]struct{}, len(partners)+1)
	exclude[userID] = struct{}{}
	for _, p := range partners {
		exclude[p] = struct{}{}
	}

	itemsA, err := s.interactions.Qualifying(ctx, userID)
	if err != nil {
		return nil, err
	}

	overfetch := limit * s.appCtx.Config.Matching.CandidateMultiplier
	candidateIDs, degraded := s.candidateIDs(ctx, requester, partners, exclude, overfetch)
	if len(candidateIDs) == 0 {
		return []Candidate{}, nil
	}

	vecA := requester.TasteVector
	if degraded {
		vecA = nil
	}

	ranked := make([]scored, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		sc, err := s.scorePair(ctx, userID, itemsA, vecA, id)
		if err != nil {
			log.Warn("skipping candidate", "candidate", id, "err", err)
			continue
		}
		ranked = append(ranked, sc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		// older accounts surface first
		if !ranked[i].user.CreatedAt.Equal(ranked[j].user.CreatedAt) {
			return ranked[i].user.CreatedAt.Before(ranked[j].user.CreatedAt)
		}
		return ranked[i].user.ID < ranked[j].user.ID
	})
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}

	page := make([]Candidate, 0, len(ranked))
	for _, sc := range ranked {
		if sc.result == nil {
			itemsB, err := s.interactions.Qualifying(ctx, sc.user.ID)
			if err != nil {
				log.Warn("skipping candidate", "candidate", sc.user.ID, "err", err)
				continue
			}
			res := matching.Score(itemsA, itemsB, vecA, candidateVector(sc.user, vecA))
			sc.result = &res
			sc.score = res.Score
		}

		bothVectors := len(sc.user.TasteVector) > 0 && len(requester.TasteVector) > 0 && !degraded
		var icebreaker *string
		if prompt, ok := matching.Icebreaker(sc.result.SharedItems, bothVectors); ok {
			icebreaker = &prompt
		}

		match, created, err := s.matches.Upsert(ctx, userID, sc.user.ID, sc.score, sc.result.SharedItems, icebreaker)
		if err != nil {
			log.Error("match upsert failed", "candidate", sc.user.ID, "err", err)
			continue
		}
		if created {
			log.Debug("created pending match", "match_id", match.ID, "pair", []uint64{match.UserAID, match.UserBID})
		}

		// stored snapshots are canonical; rating_a means the requester in
		// the response
		shared := match.SharedItems
		if match.UserBID == userID {
			shared = db.SwapRatingSides(shared)
		}

		page = append(page, Candidate{
			MatchID:     match.ID,
			UserID:      sc.user.ID,
			DisplayName: sc.user.DisplayName,
			Score:       match.Score,
			Label:       matching.Label(match.Score),
			SharedItems: shared,
			Icebreaker:  match.Icebreaker,
			Status:      match.Status(),
		})
	}
	return page, nil
}

// candidateIDs picks the overfetched candidate pool: vector search when the
// requester has a taste vector, overlap ranking otherwise. A vector-search
// timeout demotes the request to the overlap path and flags it degraded.
func (s *Service) candidateIDs(
	ctx context.Context,
	requester *db.User,
	partners []uint64,
	exclude map[uint64]struct{},
	overfetch int,
) (ids []uint64, degraded bool) {
	log := s.appCtx.Logger

	if len(requester.TasteVector) > 0 {
		vctx, cancel := context.WithTimeout(ctx, s.appCtx.Config.Matching.VectorTimeout)
		defer cancel()

		hits, err := s.appCtx.Vectors.Nearest(vctx, requester.TasteVector, exclude, overfetch)
		if err == nil {
			ids = make([]uint64, 0, len(hits))
			for _, h := range hits {
				ids = append(ids, h.UserID)
			}
			return ids, false
		}
		log.Warn("vector search unavailable, falling back to overlap ranking", "user", requester.ID, "err", err)
		degraded = true
	}

	rows, err := s.interactions.OverlapCandidates(ctx, requester.ID, partners, overfetch)
	if err != nil {
		log.Error("overlap ranking failed", "user", requester.ID, "err", err)
		return nil, degraded
	}
	ids = make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, degraded
}

// scorePair scores requester vs candidate for ranking. The invalidation-
// aware pair cache short-circuits the interaction queries; a miss computes
// the full result and refreshes the cache.
func (s *Service) scorePair(
	ctx context.Context,
	userID uint64,
	itemsA []matching.RatedItem,
	vecA []float32,
	candidateID uint64,
) (scored, error) {
	candidate, err := s.users.Get(ctx, candidateID)
	if err != nil {
		return scored{}, err
	}

	if cachedScore, hit, err := s.appCtx.RedisCache.GetPairScore(ctx, userID, candidateID); err == nil && hit {
		return scored{user: candidate, score: cachedScore}, nil
	}

	itemsB, err := s.interactions.Qualifying(ctx, candidateID)
	if err != nil {
		return scored{}, err
	}
	result := matching.Score(itemsA, itemsB, vecA, candidateVector(candidate, vecA))

	ttl := s.appCtx.Config.Matching.ScoreCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	_ = s.appCtx.RedisCache.SetPairScore(ctx, userID, candidateID, result.Score, ttl)

	return scored{user: candidate, score: result.Score, result: &result}, nil
}

// candidateVector returns the candidate's vector only when the requester
// side is contributing one; the embedding component needs both.
func candidateVector(candidate *db.User, vecA []float32) []float32 {
	if len(vecA) == 0 {
		return nil
	}
	return candidate.TasteVector
}
