package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",       // local storefront
	"https://equiptrade.dz",       // storefront
	"https://admin.equiptrade.dz", // back office
}

// CORS returns middleware that applies the API's allowed origin policy. The
// configured site URL is always allowed.
func CORS(siteURL string) func(http.Handler) http.Handler {
	origins := append([]string{}, defaultCORSOrigins...)
	if site := strings.TrimRight(strings.TrimSpace(siteURL), "/"); site != "" {
		origins = append(origins, site)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", replayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
