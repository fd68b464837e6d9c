package db

import (
	"time"
)

// Interaction kinds. Only the qualifying kinds feed compatibility scoring;
// "logged" is library bookkeeping.
const (
	KindLogged   = "logged"
	KindTop4     = "top4"
	KindAnthem   = "anthem"
	KindFavorite = "favorite"
)

// QualifyingKinds are the interaction kinds that count as taste signals.
var QualifyingKinds = []string{KindTop4, KindAnthem, KindFavorite}

// Media types mirror the external catalogs (TMDB movies, Spotify audio).
const (
	MediaMovie  = "movie"
	MediaArtist = "artist"
	MediaTrack  = "track"
	MediaAlbum  = "album"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:100"`
	Bio          string `gorm:"type:text"`

	// TasteVector is the quiz-derived embedding. Nil until the taste quiz
	// is completed; the embedding model itself lives outside this service.
	TasteVector []float32 `gorm:"serializer:json"`
	QuizDone    bool      `gorm:"default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// MediaItem is an external catalog entry, unique per (external id, type).
type MediaItem struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	ExternalID string            `gorm:"size:100;not null;uniqueIndex:idx_media_external,priority:1"`
	MediaType  string            `gorm:"size:20;not null;uniqueIndex:idx_media_external,priority:2"`
	Title      string            `gorm:"size:500;not null"`
	ImageURL   string            `gorm:"size:500"`
	Metadata   map[string]string `gorm:"serializer:json"`
	CreatedAt  time.Time         `gorm:"autoCreateTime"`
}

// Interaction is a (user, media item, kind) triple, unique per combination.
//
// Indexes:
//   - idx_interaction_triple(user_id, media_id, kind) unique
//     Overwrite guarantee: one row per triple.
//   - idx_interaction_media(media_id)
//     Drives the media item -> interacting users overlap index.
//
// Rating, when present, is in [0.5, 5.0] at 0.5 granularity (validated at
// the repository boundary).
type Interaction struct {
	ID      uint64   `gorm:"primaryKey;autoIncrement"`
	UserID  uint64   `gorm:"not null;uniqueIndex:idx_interaction_triple,priority:1"`
	MediaID uint64   `gorm:"not null;uniqueIndex:idx_interaction_triple,priority:2;index:idx_interaction_media"`
	Kind    string   `gorm:"size:20;not null;uniqueIndex:idx_interaction_triple,priority:3"`
	Rating  *float64 `gorm:"type:decimal(2,1)"`
	Review  string   `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// SharedItem is one entry of a match's frozen shared-items snapshot:
// a media item both users have a qualifying interaction with, plus both
// users' ratings at snapshot time.
type SharedItem struct {
	MediaID   uint64   `json:"media_id"`
	Title     string   `json:"title"`
	MediaType string   `json:"media_type"`
	RatingA   *float64 `json:"rating_a,omitempty"`
	RatingB   *float64 `json:"rating_b,omitempty"`
	// InteractedAt is the most recent qualifying interaction time across
	// both users, used as the icebreaker tie-break.
	InteractedAt time.Time `json:"interacted_at"`
}

// Match is one row per unordered user pair, keyed canonically with
// UserAID < UserBID so (A,B) and (B,A) never produce duplicates.
//
// Lifecycle state is two acceptance flags plus a reject flag; the
// user-facing status is derived by Status() and never stored. Version
// backs the optimistic compare-and-swap in RecordAction.
//
// SharedItems is frozen at creation time: later interaction changes do not
// retroactively alter a stored match.
type Match struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	UserAID uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID uint64 `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`

	Score       float64      `gorm:"type:decimal(5,2);not null"`
	SharedItems []SharedItem `gorm:"serializer:json"`
	Icebreaker  *string      `gorm:"type:text"`

	AcceptedByA bool   `gorm:"not null;default:false"`
	AcceptedByB bool   `gorm:"not null;default:false"`
	Rejected    bool   `gorm:"not null;default:false"`
	Version     uint64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// MatchStatus is the derived lifecycle status of a match.
type MatchStatus string

const (
	StatusPending  MatchStatus = "pending"
	StatusAccepted MatchStatus = "accepted"
	StatusMatched  MatchStatus = "matched"
	StatusRejected MatchStatus = "rejected"
)

// Status projects the persisted flags onto a single status. Rejected is
// terminal and overrides everything; matched requires both acceptance flags.
func (m *Match) Status() MatchStatus {
	switch {
	case m.Rejected:
		return StatusRejected
	case m.AcceptedByA && m.AcceptedByB:
		return StatusMatched
	case m.AcceptedByA || m.AcceptedByB:
		return StatusAccepted
	default:
		return StatusPending
	}
}

// Terminal reports whether the derived status accepts no further actions.
func (m *Match) Terminal() bool {
	s := m.Status()
	return s == StatusMatched || s == StatusRejected
}

// HasParty reports whether userID is one of the two users of the match.
func (m *Match) HasParty(userID uint64) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherUser returns the partner of userID in this match.
func (m *Match) OtherUser(userID uint64) uint64 {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// SwapRatingSides returns a copy of a snapshot with the A/B rating sides
// exchanged. Used when the order a snapshot was computed in differs from
// the canonical stored order, and when shaping a stored snapshot for the
// side-B user.
func SwapRatingSides(items []SharedItem) []SharedItem {
	if items == nil {
		return nil
	}
	swapped := make([]SharedItem, len(items))
	for i, it := range items {
		it.RatingA, it.RatingB = it.RatingB, it.RatingA
		swapped[i] = it
	}
	return swapped
}

// CanonicalPair sorts two user ids into the stored (UserAID, UserBID) order.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message belongs to exactly one match and is ordered by server-assigned
// CreatedAt, with the time-ordered id (UUIDv7) breaking millisecond ties.
// System messages carry no sender.
type Message struct {
	ID       string  `gorm:"primaryKey;size:36"`
	MatchID  uint64  `gorm:"not null;index:idx_message_match_created,priority:1"`
	SenderID *uint64 `gorm:""`
	Content  string  `gorm:"type:text;not null"`
	System   bool    `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_message_match_created,priority:2"`
}
