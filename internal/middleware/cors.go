package middleware

import (
	"net/http"

	"rentflow-backend/internal/config"

	"github.com/rs/cors"
)

func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsAllowedOrigins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{headerIdempotencyKey, headerIdempotentReplay},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return c.Handler
}
