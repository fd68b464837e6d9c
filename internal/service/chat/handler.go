package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/culturematch/backend/internal/db"
	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/server"
)

const defaultPageSize = 50

type messageView struct {
	ID        string    `json:"id"`
	SenderID  *uint64   `json:"sender_id,omitempty"`
	Content   string    `json:"content"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

func toView(m db.Message) messageView {
	return messageView{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		System:    m.System,
		CreatedAt: m.CreatedAt,
	}
}

// HandleHistory serves GET /api/matches/{id}/messages?user_id=&cursor=&limit=
func (s *Service) HandleHistory(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("match id must be a valid uint64"))
		return
	}
	userID, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("user_id must be a valid uint64"))
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			server.WriteError(w, svcErr.Validation("limit must be in [1, 100]"))
			return
		}
		limit = n
	}

	var token *string
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		token = &cursor
	}

	messages, nextToken, err := s.History(r.Context(), matchID, userID, token, limit)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toView(m))
	}
	resp := map[string]any{"messages": views}
	if nextToken != nil {
		resp["next_cursor"] = *nextToken
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

// HandleSend serves POST /api/matches/{id}/messages
func (s *Service) HandleSend(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("match id must be a valid uint64"))
		return
	}

	var req struct {
		SenderID uint64 `json:"sender_id"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request payload"))
		return
	}

	msg, err := s.Send(r.Context(), matchID, req.SenderID, req.Content)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, toView(*msg))
}
