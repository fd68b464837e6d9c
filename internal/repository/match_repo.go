package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
)

// Match actions accepted by RecordAction.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// SystemMatchMessage is the single system message appended to the thread
// on the transition into matched.
const SystemMatchMessage = "It's a match! Break the ice below."

// casRetries bounds the optimistic-CAS loop in RecordAction. Contention on
// a single pair is two users at most, so this never runs hot.
const casRetries = 5

// MatchRepository provides data access for the per-pair match rows and
// their lifecycle flags.
//
// All pair rows are canonical: UserAID < UserBID, enforced on every write,
// so (A,B) and (B,A) land on the same row.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Upsert idempotently creates the match row for an unordered user pair.
//
// Behavior:
//   - The pair key is canonicalized, so argument order never matters.
//   - A new row starts pending (no flags set) with the given score,
//     shared-items snapshot and icebreaker frozen in.
//   - If the row already exists the insert is discarded and the existing
//     row is read back unchanged; concurrent racers converge on one row.
//
// Returns the persisted row and whether this call created it.
func (r *MatchRepository) Upsert(
	ctx context.Context,
	userA, userB uint64,
	score float64,
	sharedItems []db.SharedItem,
	icebreaker *string,
) (*db.Match, bool, error) {
	if userA == userB {
		return nil, false, svcErr.Validation("cannot match a user with themselves")
	}
	lo, hi := db.CanonicalPair(userA, userB)

	// the snapshot arrives with RatingA meaning the call's userA; stored
	// rating_a must belong to the canonical UserAID
	if userA != lo {
		sharedItems = db.SwapRatingSides(sharedItems)
	}

	match := db.Match{
		UserAID:     lo,
		UserBID:     hi,
		Score:       score,
		SharedItems: sharedItems,
		Icebreaker:  icebreaker,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(&match)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	persisted, err := r.GetByPair(ctx, lo, hi)
	if err != nil {
		return nil, false, err
	}
	return persisted, created, nil
}

// Get fetches a match by id.
func (r *MatchRepository) Get(ctx context.Context, matchID uint64) (*db.Match, error) {
	var match db.Match
	if err := r.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("match")
		}
		return nil, err
	}
	return &match, nil
}

// GetByPair fetches the match row for an unordered user pair.
func (r *MatchRepository) GetByPair(ctx context.Context, userA, userB uint64) (*db.Match, error) {
	lo, hi := db.CanonicalPair(userA, userB)
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.NotFound("match")
		}
		return nil, err
	}
	return &match, nil
}

// PartnersOf returns every user already paired with userID in any state.
// Discovery uses this as its exclusion list.
func (r *MatchRepository) PartnersOf(ctx context.Context, userID uint64) ([]uint64, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	partners := make([]uint64, 0, len(matches))
	for _, m := range matches {
		partners = append(partners, m.OtherUser(userID))
	}
	return partners, nil
}

// ListForUser returns the user's matches ordered by score descending.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("score DESC, id ASC").
		Find(&matches).Error
	return matches, err
}

// RecordAction applies an accept or reject from actingUser to the match.
//
// Behavior:
//   - NotFound when the match is unknown or the actor is not a party.
//   - Re-issuing an action that already applied is a no-op success.
//   - InvalidTransition when the derived status is already terminal.
//   - Each call is an atomic read-modify-write: a compare-and-swap on the
//     version column, retried on contention. The call whose CAS wins the
//     transition into matched appends the system message, in the same
//     transaction, so racing accepts produce exactly one.
func (r *MatchRepository) RecordAction(
	ctx context.Context,
	matchID, actingUser uint64,
	action string,
) (*db.Match, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, svcErr.Validation("unknown action %q", action)
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		match, err := r.Get(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if !match.HasParty(actingUser) {
			return nil, svcErr.NotFound("match party")
		}

		updates, becomesMatched, done, err := planAction(match, actingUser, action)
		if err != nil {
			return nil, err
		}
		if done {
			return match, nil
		}

		swapped, err := r.casUpdate(ctx, match, updates, becomesMatched)
		if err != nil {
			return nil, err
		}
		if swapped {
			return r.Get(ctx, matchID)
		}
		// lost the race; reload and re-evaluate
	}
	return nil, fmt.Errorf("match %d: action %q did not settle after %d attempts", matchID, action, casRetries)
}

// planAction decides what the action does against the loaded row: the
// column updates to apply, whether they complete the matched transition,
// or that the action is an idempotent no-op (done).
func planAction(match *db.Match, actingUser uint64, action string) (updates map[string]any, becomesMatched, done bool, err error) {
	actorAccepted := match.AcceptedByA
	actorColumn := "accepted_by_a"
	if actingUser == match.UserBID {
		actorAccepted = match.AcceptedByB
		actorColumn = "accepted_by_b"
	}

	switch action {
	case ActionAccept:
		if actorAccepted {
			return nil, false, true, nil
		}
		if match.Terminal() {
			return nil, false, false, svcErr.ErrInvalidTransition
		}
		partnerAccepted := match.AcceptedByA || match.AcceptedByB
		return map[string]any{actorColumn: true}, partnerAccepted, false, nil

	default: // ActionReject
		if match.Rejected {
			return nil, false, true, nil
		}
		if match.Terminal() {
			return nil, false, false, svcErr.ErrInvalidTransition
		}
		return map[string]any{"rejected": true}, false, false, nil
	}
}

// casUpdate performs the guarded update and, when the update completes the
// matched transition, inserts the system message atomically with it.
func (r *MatchRepository) casUpdate(
	ctx context.Context,
	match *db.Match,
	updates map[string]any,
	becomesMatched bool,
) (bool, error) {
	swapped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates["version"] = match.Version + 1
		res := tx.Model(&db.Match{}).
			Where("id = ? AND version = ?", match.ID, match.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		swapped = true

		if becomesMatched {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			msg := db.Message{
				ID:      id.String(),
				MatchID: match.ID,
				Content: SystemMatchMessage,
				System:  true,
			}
			if err := tx.Create(&msg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return swapped, err
}
