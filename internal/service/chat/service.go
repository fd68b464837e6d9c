package chat

import (
	"context"
	"strings"

	"github.com/culturematch/backend/internal/app"
	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/repository"
)

// Service is the message thread attached to a match: append-only, ordered
// by server timestamp, gated on the match being in the matched state.
type Service struct {
	appCtx   *app.AppContext
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

// NewService creates a chat service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// Send appends a user message to the thread.
//
// Behavior:
//   - NotFound when the match is unknown or the sender is not a party.
//   - PermissionDenied unless the derived status is matched. The
//     lifecycle's own system message bypasses this path entirely: it is
//     written inside the matched transition's transaction.
func (s *Service) Send(ctx context.Context, matchID, senderID uint64, content string) (*db.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, svcErr.Validation("message content must not be empty")
	}

	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasParty(senderID) {
		return nil, svcErr.NotFound("match party")
	}
	if match.Status() != db.StatusMatched {
		return nil, svcErr.ErrPermissionDenied
	}

	msg, err := s.messages.Append(ctx, matchID, &senderID, content, false)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Debug("message sent", "match_id", matchID, "message_id", msg.ID)
	return msg, nil
}

// History returns a page of the thread oldest-first for linear chat
// rendering, with an opaque resume cursor.
func (s *Service) History(
	ctx context.Context,
	matchID, userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	if !match.HasParty(userID) {
		return nil, nil, svcErr.NotFound("match party")
	}

	return s.messages.List(ctx, matchID, paginationToken, limit)
}
