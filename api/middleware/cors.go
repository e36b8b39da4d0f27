package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Headers browsers may send to the payments API. Idempotency-Key is needed by
// the order and cancel endpoints.
var corsAllowedHeaders = []string{
	"Accept",
	"Authorization",
	"Content-Type",
	idempotencyKeyHeader,
	requestIDHeader,
}

// CORS applies the configured origin allow-list. With no origins configured
// cross-origin requests are refused outright.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   corsAllowedHeaders,
		ExposedHeaders:   []string{requestIDHeader, idempotentReplayedHeader},
		AllowCredentials: len(origins) > 0 && origins[0] != "*",
		MaxAge:           600,
	})
}
