package taste

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/culturematch/backend/internal/errors"
	"github.com/culturematch/backend/internal/server"
)

// HandleRecordInteraction serves POST /api/interactions
func (s *Service) HandleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     uint64   `json:"user_id"`
		ExternalID string   `json:"external_id"`
		MediaType  string   `json:"media_type"`
		Title      string   `json:"title"`
		ImageURL   string   `json:"image_url"`
		Kind       string   `json:"kind"`
		Rating     *float64 `json:"rating"`
		Review     string   `json:"review"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request payload"))
		return
	}

	interaction, media, err := s.RecordInteraction(
		r.Context(),
		req.UserID,
		req.ExternalID, req.MediaType, req.Title, req.ImageURL,
		req.Kind, req.Rating, req.Review,
	)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusCreated, map[string]any{
		"interaction_id": interaction.ID,
		"media_id":       media.ID,
		"kind":           interaction.Kind,
		"rating":         interaction.Rating,
	})
}

// HandleSetVector serves PUT /api/users/{id}/vector
func (s *Service) HandleSetVector(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		server.WriteError(w, svcErr.Validation("user id must be a valid uint64"))
		return
	}

	var req struct {
		Vector []float32 `json:"vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, svcErr.Validation("invalid request payload"))
		return
	}

	if err := s.SetVector(r.Context(), userID, req.Vector); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
