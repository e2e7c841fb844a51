package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/averroes-labs/storefront-gateway/pkg/config"
)

// CORS applies the storefront origin policy. Credentials are allowed
// because the gateway fronts a cookie-based session.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
