package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-rollup-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-rollup-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions holds the request pipeline settings
type RouterOptions struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, rollupHandler RollupHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
		ExposedHeaders:   []string{"ETag", "Content-Disposition"},
		MaxAge:           300,
	}))

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/rollup", func(r chi.Router) {
		// SSE authenticates with a short-lived query token
		r.Get("/stream", rollupHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireCompany)

			r.Get("/tree", rollupHandler.GetTree)
			r.Post("/tree/preview", rollupHandler.PreviewTree)
			r.Get("/nodes/{id}", rollupHandler.GetNode)
			r.Get("/nodes/{id}/progress.png", rollupHandler.GetProgressChart)
			r.Get("/leaderboard", rollupHandler.GetLeaderboard)
			r.Get("/leaderboard/export", rollupHandler.ExportLeaderboard)
			r.Post("/refresh", rollupHandler.Refresh)
			r.Get("/stream-token", rollupHandler.GetStreamToken)
		})
	})

	return r
}
