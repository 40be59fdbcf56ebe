package dating

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authenticate mux.MiddlewareFunc) {
	api := router.PathPrefix("/api/v1/matching").Subrouter()
	api.Use(authenticate)

	// Queue and views
	api.HandleFunc("/queue", handler.GetQueue).Methods(http.MethodGet)
	api.HandleFunc("/likes", handler.GetLikes).Methods(http.MethodGet)
	api.HandleFunc("/matches", handler.GetMatches).Methods(http.MethodGet)
	api.HandleFunc("/regenerate", handler.Regenerate).Methods(http.MethodPost)

	// Lifecycle
	api.HandleFunc("/matches/{id}", handler.GetMatch).Methods(http.MethodGet)
	api.HandleFunc("/matches/{id}/decision", handler.RecordDecision).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/unmatch", handler.Unmatch).Methods(http.MethodPost)

	// Messaging hooks
	api.HandleFunc("/matches/{id}/messages/notify", handler.NotifyMessage).Methods(http.MethodPost)
	api.HandleFunc("/matches/{id}/messages/ack", handler.AcknowledgeMessages).Methods(http.MethodPost)

	api.HandleFunc("/links/{linkId}", handler.ResolveLink).Methods(http.MethodGet)
	api.HandleFunc("/compatibility/{userId}", handler.GetCompatibility).Methods(http.MethodGet)
}
