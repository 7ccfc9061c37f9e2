package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"yamdb/database"
	"yamdb/internal/authz"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/middleware"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db, log); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}

	limiter, closeLimiter, err := newAuthLimiter(cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	az, err := authz.New()
	if err != nil {
		return err
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepo(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// Services
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService := service.NewAuthService(userRepo, tokens, newSender(cfg, log), cfg, log)

	router, err := handler.NewRouter(handler.Dependencies{
		Auth:           authService,
		Users:          service.NewUserService(userRepo, log),
		Categories:     service.NewCategoryService(categoryRepo),
		Genres:         service.NewGenreService(genreRepo),
		Titles:         service.NewTitleService(titleRepo, categoryRepo, genreRepo),
		Reviews:        service.NewReviewService(reviewRepo, titleRepo, az),
		Comments:       service.NewCommentService(commentRepo, reviewRepo, az),
		Authorizer:     az,
		AuthLimiter:    limiter,
		DB:             sqlDB,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		MetricsEnabled: cfg.PrometheusEnabled,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newSender returns the SMTP relay behind a circuit breaker, or a sender
// that only logs when no relay is configured.
func newSender(cfg *config.Config, log zerolog.Logger) mailer.Sender {
	if !cfg.MailEnabled() {
		if cfg.IsDevelopment() {
			log.Warn().Msg("SMTP_HOST not set, confirmation codes will be logged instead of mailed")
			return mailer.NewLogSender(log, true)
		}
		log.Warn().Msg("SMTP_HOST not set, confirmation emails are dropped")
		return mailer.NewLogSender(log, false)
	}

	smtp := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		TLS:      cfg.SMTPTLS,
	})

	bc := mailer.DefaultBreakerConfig()
	bc.OnStateChange = metrics.SetMailBreakerState
	metrics.SetMailBreakerState(gobreaker.StateClosed)
	return mailer.NewBreakerSender(smtp, bc, log)
}

// newAuthLimiter shares buckets through Redis when REDIS_URL is set so every
// replica enforces the same budget.
func newAuthLimiter(cfg *config.Config, log zerolog.Logger) (middleware.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		return middleware.NewLocalLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the middleware fails open, so a late Redis only costs throttling
		log.Warn().Err(err).Msg("redis not reachable at startup")
	} else {
		log.Info().Str("addr", opts.Addr).Msg("connected to redis")
	}

	closer := func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis client")
		}
	}
	return middleware.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, cfg.RateLimitBurst), closer, nil
}
