package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000", // local dev
	"http://localhost:5173", // Vite dev server
	"https://wardrobe-app.vercel.app",
}

// CORS returns middleware that applies the API's allowed origin policy.
// origins is a comma-separated list; empty falls back to the defaults.
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := defaultCORSOrigins
	if trimmed := strings.TrimSpace(origins); trimmed != "" {
		allowed = nil
		for _, origin := range strings.Split(trimmed, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowed = append(allowed, origin)
			}
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
