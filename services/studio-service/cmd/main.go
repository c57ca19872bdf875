package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/config"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/handler"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/processor"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/repository"
	"github.com/vasapolrittideah/couchnbs-api/services/studio-service/internal/usecase"
	"github.com/vasapolrittideah/couchnbs-api/shared/auth"
	"github.com/vasapolrittideah/couchnbs-api/shared/logger"
	"github.com/vasapolrittideah/couchnbs-api/shared/mailer"
	"github.com/vasapolrittideah/couchnbs-api/shared/middleware"
	"github.com/vasapolrittideah/couchnbs-api/shared/provider"
	"github.com/vasapolrittideah/couchnbs-api/shared/validator"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	users   repository.UserRepository
	history repository.HistoryRepository
	ping    func(context.Context) error
	close   func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	v, err := validator.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build validator")
	}

	metrics := middleware.NewMetrics()
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.SessionTTL)
	mail := mailer.NewMailer(cfg.Mailer, log)

	groq := provider.NewGroqProvider(cfg.AI.GroqAPIKey, cfg.AI.GroqBaseURL, cfg.AI.GroqModel, &http.Client{Timeout: 60 * time.Second})
	stability := provider.NewStabilityProvider(cfg.AI.StabilityAPIKey, cfg.AI.StabilityURL, &http.Client{Timeout: 2 * time.Minute})
	if !stability.Configured() {
		log.Warn().Msg("STABILITY_API_KEY is not set; image generation is disabled")
	}

	runner := processor.NewRunner(processor.Options{
		Interpreter:    cfg.Processor.Interpreter,
		Script:         cfg.Processor.Script,
		Timeout:        cfg.Processor.Timeout,
		MaxConcurrency: cfg.Processor.MaxConcurrency,
	}, log, metrics.Registerer())

	authUsecase := usecase.NewAuthUsecase(st.users, jwtAuth, mail, v, cfg, log)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(st.users, mail, cfg, log)
	adminUsecase := usecase.NewAdminUsecase(st.users)
	generationUsecase := usecase.NewGenerationUsecase(st.history, stability, runner, cfg, log)
	chatUsecase := usecase.NewChatUsecase(groq)

	if err := bootstrapAdmin(ctx, cfg, authUsecase, log); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin user")
	}

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.PublicDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create storage directory")
		}
	}

	router := handler.NewRouter(handler.RouterOpts{
		Config:        cfg,
		Logger:        log,
		Validator:     v,
		Metrics:       metrics,
		Sessions:      jwtAuth,
		DBPing:        st.ping,
		Auth:          authUsecase,
		PasswordReset: passwordResetUsecase,
		Admin:         adminUsecase,
		Generation:    generationUsecase,
		Chat:          chatUsecase,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("env", cfg.AppEnv).Str("addr", srv.Addr).Str("db", cfg.Database.Driver).Msg("studio service listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := repository.ConnectMongo(ctx, cfg.Database.MongoURI, cfg.Database.MongoDatabase)
		if err != nil {
			return nil, err
		}

		return &stores{
			users:   repository.NewUserMongoRepository(ctx, log, db),
			history: repository.NewHistoryMongoRepository(ctx, log, db),
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: client.Disconnect,
		}, nil
	default:
		db, err := repository.OpenGorm(cfg.Database.Driver, cfg.Database.DSN, log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		return &stores{
			users:   repository.NewUserGormRepository(log, db),
			history: repository.NewHistoryGormRepository(log, db),
			ping:    sqlDB.PingContext,
			close: func(context.Context) error {
				return sqlDB.Close()
			},
		}, nil
	}
}

func bootstrapAdmin(ctx context.Context, cfg *config.Config, authUsecase usecase.AuthUsecase, log *zerolog.Logger) error {
	if cfg.AdminBootstrap.Password == "" {
		return nil
	}

	created, err := authUsecase.BootstrapAdmin(ctx, usecase.BootstrapAdminParams{
		Name:     cfg.AdminBootstrap.Name,
		Email:    cfg.AdminBootstrap.Email,
		Password: cfg.AdminBootstrap.Password,
	})
	if err != nil {
		return err
	}

	if created {
		log.Info().Str("email", cfg.AdminBootstrap.Email).Msg("admin bootstrap: created admin user")
	} else {
		log.Info().Str("email", cfg.AdminBootstrap.Email).Msg("admin bootstrap: user already exists")
	}
	return nil
}
