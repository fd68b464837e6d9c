package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/culturematch/backend/internal/db"
	"github.com/culturematch/backend/internal/utils/pagination"
)

// MessageRepository provides data access for the append-only message
// threads attached to matches. Ordering is by server-assigned timestamp;
// client-submitted ordering is never trusted.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append stores a message on the match thread. senderID is nil for system
// messages. Gating on match state happens in the chat service; the
// lifecycle's own system message is written inside RecordAction's
// transaction and never passes through here.
//
// Ids are time-ordered (UUIDv7), so created_at ASC, id ASC reproduces
// append order even when several messages land in the same millisecond.
func (r *MessageRepository) Append(
	ctx context.Context,
	matchID uint64,
	senderID *uint64,
	content string,
	system bool,
) (*db.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	msg := db.Message{
		ID:       id.String(),
		MatchID:  matchID,
		SenderID: senderID,
		Content:  content,
		System:   system,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns a page of the thread oldest-first, resuming strictly after
// the cursor (last-seen timestamp, message id breaking millisecond ties).
func (r *MessageRepository) List(
	ctx context.Context,
	matchID uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC, id ASC").
		Limit(limit + 1)

	if cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at > ? OR (created_at = ? AND id > ?))",
			ts, ts, cursor.LastID,
		)
	}

	var messages []db.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(messages) > limit {
		last := messages[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			CreatedUnix: last.CreatedAt.UnixMilli(),
			LastID:      last.ID,
		})
		nextToken = &token
		messages = messages[:limit]
	}

	return messages, nextToken, nil
}

// CountSystem returns how many system messages a match thread holds.
func (r *MessageRepository) CountSystem(ctx context.Context, matchID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND system = ?", matchID, true).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
