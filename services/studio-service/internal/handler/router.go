package handler

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/payload"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/httpx"
	"github.com/vasapolrittideah/couchnbs-api/shared/middleware"
	"github.com/vasapolrittideah/couchnbs-api/shared/validator"
)

const apiVersion = "v2"

type RouterOpts struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Validator *validator.Validator
	Metrics   *middleware.Metrics
	Sessions  middleware.SessionVerifier

	// DBPing backs /healthz. A nil func reports healthy.
	DBPing func(context.Context) error

	Auth          usecase.AuthUsecase
	PasswordReset usecase.PasswordResetUsecase
	Admin         usecase.AdminUsecase
	Generation    usecase.GenerationUsecase
	Chat          usecase.ChatUsecase
}

func NewRouter(opts RouterOpts) http.Handler {
	cfg := opts.Config
	errWriter := errorWriter{logger: opts.Logger, isProd: cfg.IsProduction()}

	authHandler := newAuthHTTPHandler(opts.Auth, opts.PasswordReset, opts.Sessions, opts.Validator, errWriter, opts.Logger)
	aiHandler := newAIHTTPHandler(
		opts.Generation,
		opts.Chat,
		opts.Sessions,
		cfg.Storage.UploadDir,
		cfg.Storage.MaxUploadBytes,
		errWriter,
		opts.Logger,
	)
	adminHandler := newAdminHTTPHandler(opts.Admin, errWriter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Recoverer(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Message(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", healthz(opts.DBPing))
	r.Get("/api/ping", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, payload.PingResponse{
			Msg:     "pong",
			Version: apiVersion,
			Time:    time.Now().UnixMilli(),
		})
	})

	r.Route("/api/auth", authHandler.registerRoutes)
	r.Route("/api/ai", aiHandler.registerRoutes)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.Sessions))
		r.Use(middleware.RequireAdmin(opts.Auth, opts.Logger))
		adminHandler.registerRoutes(r)
	})

	videoDir := filepath.Join(cfg.Storage.PublicDir, "assets", "video")
	r.Handle("/assets/video/*", http.StripPrefix("/assets/video/", http.FileServer(fileOnlyFS{fs: http.Dir(videoDir)})))

	return r
}

func healthz(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				httpx.Error(w, http.StatusServiceUnavailable, "Database unavailable", err.Error())
				return
			}
		}

		httpx.Message(w, http.StatusOK, "ok")
	}
}
