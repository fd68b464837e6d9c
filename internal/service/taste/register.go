package taste

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/culturematch/backend/internal/app"
)

// Registrar ties the taste service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the taste service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the taste-signal endpoints to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/api/interactions", service.HandleRecordInteraction).Methods(http.MethodPost)
	router.HandleFunc("/api/users/{id:[0-9]+}/vector", service.HandleSetVector).Methods(http.MethodPut)
}
