package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/database"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/models"
	"github.com/noah-isme/arena-go-api/internal/repository"
	"github.com/noah-isme/arena-go-api/internal/router"
	"github.com/noah-isme/arena-go-api/internal/service"
	"github.com/noah-isme/arena-go-api/pkg/integrity"
	"github.com/noah-isme/arena-go-api/pkg/judge"
	"github.com/noah-isme/arena-go-api/pkg/proctor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Contest{}, &models.Problem{}, &models.Session{}, &models.FinalResult{}, &models.OrphanIntegrityResult{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	sink := service.NewNopSink()
	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		sink = service.NewNATSSink(natsConn, cfg.NotifySubject, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	contestRepo := repository.NewContestRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resultRepo := repository.NewFinalResultRepository(db)
	integrityRepo := repository.NewIntegrityRepository(db)

	judgeClient := judge.NewHTTPClient(cfg.JudgeBaseURL, cfg.JudgeTimeout, logger)
	analyzerClient := integrity.NewHTTPClient(cfg.IntegrityBaseURL, 0, logger)
	proctorClient := proctor.NewHTTPClient(cfg.ProctorBaseURL, 0, logger)

	contestLoader := service.NewContestLoader(contestRepo, redisClient, cfg.ContestCacheTTL, logger)
	sessionService := service.NewSessionService(sessionRepo, contestLoader, logger)
	integrityService := service.NewIntegrityService(resultRepo, integrityRepo, sink, logger)
	resultService := service.NewResultService(resultRepo, logger)
	finalizeService := service.NewFinalizeService(
		contestLoader,
		sessionService,
		resultRepo,
		integrityService,
		judgeClient,
		analyzerClient,
		proctorClient,
		sink,
		logger,
		service.FinalizeConfig{
			PollAttempts: cfg.IntegrityPollCount,
			PollInterval: cfg.IntegrityPollBackoff,
			WebhookURL:   cfg.IntegrityWebhookURL,
		},
	)

	sessionHandler := handler.NewSessionHandler(sessionService, finalizeService, validate, logger)
	resultHandler := handler.NewResultHandler(resultService, validate, logger)
	integrityHandler := handler.NewIntegrityWebhookHandler(integrityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:   sessionHandler,
		ResultHandler:    resultHandler,
		IntegrityHandler: integrityHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
