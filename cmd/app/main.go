package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farinchan/chatery-whatsapp/internal/config"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/domain/ports/repository"
	"github.com/farinchan/chatery-whatsapp/internal/infra/adapters/channel"
	pg "github.com/farinchan/chatery-whatsapp/internal/infra/db/postgres"
	"github.com/farinchan/chatery-whatsapp/internal/infra/logging"
	"github.com/farinchan/chatery-whatsapp/internal/infra/memstore"
	"github.com/farinchan/chatery-whatsapp/internal/infra/metrics"
	red "github.com/farinchan/chatery-whatsapp/internal/infra/redis"
	"github.com/farinchan/chatery-whatsapp/internal/infra/web"
	"github.com/farinchan/chatery-whatsapp/internal/infra/webhook"
	"github.com/farinchan/chatery-whatsapp/internal/infra/worker"
	"github.com/farinchan/chatery-whatsapp/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (in-memory users, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Users: postgres behind redis cache, or in-memory in dev ----
	var userRepo repository.UserRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		userRepo = pg.NewPostgresUserRepo(pool)

		if cfg.Redis.URL != "" {
			redisClient, err := red.NewClient(ctx, &cfg.Redis)
			if err != nil {
				logger.Fatal().Err(err).Msg("redis connect failed")
			}
			defer redisClient.Close()
			userRepo = pg.NewUserRepoCacheDecorator(userRepo, redisClient, cfg.Redis.TTL)
		}
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("database.url is required outside dev mode")
		}
		userRepo = memstore.NewUserRepo(&model.User{
			ID:           "dev-admin",
			Username:     cfg.Auth.DashboardUsername,
			PasswordHash: usecase.HashPassword("admin"),
			APIKey:       cfg.Auth.APIKey,
			Role:         model.RoleAdmin,
			CreatedAt:    time.Now(),
		})
		logger.Warn().Msg("no database configured, using in-memory users")
	}
	userUC := usecase.NewUserUseCase(userRepo)

	// ---- Channel manager ----
	mgr := channel.NewManager(time.Duration(cfg.Channel.SendLatencyMs)*time.Millisecond, logger)

	// ---- Webhook dispatch ----
	pool := worker.NewPool(4, logger)
	pool.Start(ctx)
	defer pool.Stop()
	notifier := webhook.NewDispatcher(pool, logger)

	// ---- Use cases ----
	store := memstore.NewBulkJobStore(cfg.Bulk.HistoryLimit)
	bulkUC := usecase.NewBulkUseCase(store, mgr, notifier, usecase.BulkOptions{
		MaxRecipients:     cfg.Bulk.MaxRecipients,
		ListLimit:         cfg.Bulk.ListLimit,
		MaxActiveJobs:     cfg.Bulk.MaxActiveJobsPerSession,
		SessionRatePerSec: cfg.Bulk.SessionRatePerSec,
	}, logger)
	sessionUC := usecase.NewSessionUseCase(mgr, notifier, logger)

	// ---- HTTP API ----
	tokens := web.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	auth := web.NewAuthenticator(userUC, tokens, cfg.Auth.APIKey, cfg.Auth.DashboardUsername, logger)
	srv := web.NewServer(sessionUC, bulkUC, userUC, auth, cfg.Server.BasePath, cfg.Bulk, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("base_path", cfg.Server.BasePath).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
