package routes

import (
	"net/http"

	"github.com/rs/cors"
)

// SetupCORS wraps the router so browsers on the allowed origins can call the
// API with a bearer token.
func SetupCORS(h http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost,
			http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
	}).Handler(h)
}
