package match

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/culturematch/backend/internal/app"
)

// Registrar ties the match service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match lifecycle endpoints to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/api/matches", service.HandleList).Methods(http.MethodGet)
	router.HandleFunc("/api/matches/{id:[0-9]+}/action", service.HandleAction).Methods(http.MethodPost)
}
