package chat

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/culturematch/backend/internal/app"
)

// Registrar ties the chat service into the HTTP router
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the chat service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the message thread endpoints to the router
func (r *Registrar) Register(router *mux.Router) {
	service := NewService(r.appCtx)
	router.HandleFunc("/api/matches/{id:[0-9]+}/messages", service.HandleHistory).Methods(http.MethodGet)
	router.HandleFunc("/api/matches/{id:[0-9]+}/messages", service.HandleSend).Methods(http.MethodPost)
}
