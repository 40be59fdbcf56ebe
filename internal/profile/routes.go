// internal/profile/routes.go

package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the chi router serving /api/v1/profile
func NewRouter(handler *Handler, authenticate func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, handler, authenticate)
	return r
}

// RegisterRoutes registers all profile routes
func RegisterRoutes(r chi.Router, handler *Handler, authenticate func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/api/v1/profile", handler.GetMyProfile)
		r.Put("/api/v1/profile", handler.UpdateProfile)
		r.Delete("/api/v1/profile", handler.DeleteProfile)
		r.Post("/api/v1/profile/normalize", handler.NormalizePreview)
		r.Get("/api/v1/profile/{id}", handler.GetUserProfile)
	})
}
