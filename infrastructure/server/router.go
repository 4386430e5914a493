package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter exposes the peer protocol on "/" and "/ws", and health on "/health".
func NewRouter(peers *PeerHandler, health *HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/health", health).Methods(http.MethodGet)
	router.Handle("/ws", peers).Methods(http.MethodGet)
	router.Handle("/", peers).Methods(http.MethodGet)
	return router
}
