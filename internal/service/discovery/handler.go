package discovery

import (
	"net/http"
	"strconv"

	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/server"
)

// HandleDiscover serves GET /api/discover?user_id=&limit=
func (s *Service) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("user_id must be a valid uint64"))
		return
	}

	cfg := s.appCtx.Config.Matching
	limit := cfg.DiscoverPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			server.WriteError(w, svcErr.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > cfg.DiscoverPageCap {
		limit = cfg.DiscoverPageCap
	}

	candidates, err := s.Discover(r.Context(), userID, limit)
	if err != nil {
		s.appCtx.Logger.Error("discover failed", "user", userID, "err", err)
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}
