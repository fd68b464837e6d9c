package server

import (
	"encoding/json"
	"net/http"

	svcErr "github.com/culturematch/backend/internal/errors"
)

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a service error onto an HTTP status with a JSON body.
func WriteError(w http.ResponseWriter, err error) {
	code := svcErr.Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	WriteJSON(w, code, map[string]string{"error": msg})
}
