package match

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/server"
)

// HandleList serves GET /api/matches?user_id=
func (s *Service) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("user_id must be a valid uint64"))
		return
	}

	views, err := s.ListForUser(r.Context(), userID)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"matches": views})
}

// HandleAction serves POST /api/matches/{id}/action
func (s *Service) HandleAction(w http.ResponseWriter, r *http.Request) {
	matchID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("match id must be a valid uint64"))
		return
	}

	var req struct {
		UserID uint64 `json:"user_id"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request payload"))
		return
	}

	match, err := s.Respond(r.Context(), matchID, req.UserID, req.Action)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{
		"match_id": match.ID,
		"status":   match.Status(),
	})
}
