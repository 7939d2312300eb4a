package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/cache"
	"github.com/openexam/exam-engine/internal/config"
	"github.com/openexam/exam-engine/internal/handlers"
	"github.com/openexam/exam-engine/internal/identity"
	"github.com/openexam/exam-engine/internal/repositories/postgres"
	"github.com/openexam/exam-engine/internal/services"
	"github.com/openexam/exam-engine/internal/session"
	"github.com/openexam/exam-engine/internal/utils"
	"github.com/openexam/exam-engine/internal/validator"
	"github.com/openexam/exam-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogLogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)
	defer repo.Close()

	var cacheService cache.CacheService = cache.NoopCache{}
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, summaries will not be cached", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, slogLogger)
		defer redisClient.Close()
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()

	scoringService := services.NewScoringService(repo, slogLogger, publisher, cacheService)
	attemptService := services.NewAttemptService(repo, scoringService, publisher, slogLogger, v)
	examService := services.NewExamService(repo, slogLogger, v)
	reportService := services.NewReportService(repo, cacheService, slogLogger)
	exportService := services.NewExportService(repo, slogLogger)

	sessions := session.NewManager(attemptService, slogLogger)
	defer sessions.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Countdowns for attempts left open by a previous process
	if err := sessions.Restore(ctx, repo); err != nil {
		logger.Error("Failed to restore open attempts", "error", err)
		os.Exit(1)
	}

	provider := identity.NewCasdoorProvider(cfg.Casdoor)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(utils.ContextLogger(logger))

	hm := handlers.NewHandlerManager(
		examService,
		attemptService,
		reportService,
		exportService,
		sessions,
		provider,
		v,
		logger,
	)
	hm.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Exam engine listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
