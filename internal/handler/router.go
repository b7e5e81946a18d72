/*
Package handler provides the HTTP handlers and routing setup for the file service.

This file defines the main Router, applying logging, CORS, request IDs and panic recovery to
every request, bearer-token checks to mutating routes, and IP-based rate limiting to uploads.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"bucketfront/internal/pkg/auth/jwt"
	"bucketfront/internal/pkg/limiter"
	"bucketfront/internal/pkg/logx"
	"bucketfront/internal/pkg/resp"
)

// Router sets up the main HTTP routing table. ctx bounds background work such as the rate
// limiter cleanup and should be cancelled on shutdown.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	uploadLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(deps.Config.UploadRate), deps.Config.UploadBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "bucketfront",
			"bucket":  deps.Files.Bucket(),
		}
		resp.RespondSuccess(w, r, data)
	})

	if deps.Objects != nil {
		r.Get("/objects/{bucket}/*", HandleGetObject(deps))
	}

	r.Route("/api/files", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		api.Get("/", HandleListFiles(deps))
		api.Get("/url", HandleGetFileURL(deps))
		api.Get("/key", HandleResolveFileKey(deps))

		api.Group(func(write chi.Router) {
			write.Use(jwt.RequireScope(jwt.ScopeWrite))

			write.With(uploadLimiter.Middleware).Post("/", HandleUploadFiles(deps))
			write.Delete("/", HandleDeleteFile(deps))
			write.Post("/copy", HandleCopyFile(deps))
		})
	})

	return r
}
