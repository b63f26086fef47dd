package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/email"
	accounthandler "github.com/parkcare/care-api/internal/handler/account"
	assignmenthandler "github.com/parkcare/care-api/internal/handler/assignment"
	audithandler "github.com/parkcare/care-api/internal/handler/audit"
	authhandler "github.com/parkcare/care-api/internal/handler/auth"
	checkinhandler "github.com/parkcare/care-api/internal/handler/checkin"
	insighthandler "github.com/parkcare/care-api/internal/handler/insight"
	invitationhandler "github.com/parkcare/care-api/internal/handler/invitation"
	reporthandler "github.com/parkcare/care-api/internal/handler/report"
	basehandler "github.com/parkcare/care-api/internal/handler"
	"github.com/parkcare/care-api/internal/insight"
	"github.com/parkcare/care-api/internal/middleware"
	"github.com/parkcare/care-api/internal/repository/postgres"
	"github.com/parkcare/care-api/internal/router"
	accountsvc "github.com/parkcare/care-api/internal/service/account"
	"github.com/parkcare/care-api/internal/service/access"
	assignmentsvc "github.com/parkcare/care-api/internal/service/assignment"
	auditsvc "github.com/parkcare/care-api/internal/service/audit"
	authsvc "github.com/parkcare/care-api/internal/service/auth"
	checkinsvc "github.com/parkcare/care-api/internal/service/checkin"
	insightsvc "github.com/parkcare/care-api/internal/service/insight"
	invitationsvc "github.com/parkcare/care-api/internal/service/invitation"
	reportsvc "github.com/parkcare/care-api/internal/service/report"
	"github.com/parkcare/care-api/pkg/auth"
	"github.com/parkcare/care-api/pkg/logger"
	redisbroker "github.com/parkcare/care-api/pkg/messaging/redis"
	"github.com/parkcare/care-api/pkg/metrics"
	"github.com/parkcare/care-api/pkg/security"
	"github.com/parkcare/care-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(db)
	invitationRepo := postgres.NewInvitationRepository(baseRepo)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	checkInRepo := postgres.NewCheckInRepository(db)
	insightRepo := postgres.NewInsightRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	auditRepo := postgres.NewAuditRepository(db)

	// Infrastructure
	m := metrics.NewMetrics("care_api")
	hasher := security.NewBcryptHasher(0)
	jwtService := auth.NewJWTService(cfg.JWT)
	notifier := email.NewSMTPNotifier(cfg.SMTP)
	generator := insight.NewGeminiGenerator(cfg.Insight)

	// Services
	gate := access.NewService(assignmentRepo, m)
	authService := authsvc.NewService(userRepo, hasher, jwtService)
	accountService := accountsvc.NewService(userRepo, hasher, auditRepo)
	invitationService := invitationsvc.NewService(invitationRepo, userRepo, notifier, hasher, cfg.Server.BaseURL)
	assignmentService := assignmentsvc.NewService(assignmentRepo, userRepo, outboxRepo, auditRepo, gate)
	checkInService := checkinsvc.NewService(checkInRepo, gate, outboxRepo, auditRepo)
	reportService := reportsvc.NewService(checkInRepo, userRepo, assignmentRepo, gate)
	insightService := insightsvc.NewService(insightRepo, checkInRepo, generator, gate, outboxRepo)
	auditService := auditsvc.NewService(auditRepo)

	// Router
	authMW := middleware.NewAuthMiddleware(jwtService)
	engine := router.New(cfg, m, authMW, router.Handlers{
		Health:     basehandler.NewHealthHandler(db),
		Auth:       authhandler.NewHandler(authService),
		Account:    accounthandler.NewHandler(accountService),
		Invitation: invitationhandler.NewHandler(invitationService),
		Assignment: assignmenthandler.NewHandler(assignmentService),
		CheckIn:    checkinhandler.NewHandler(checkInService, m),
		Report:     reporthandler.NewHandler(reportService),
		Insight:    insighthandler.NewHandler(insightService, m),
		Audit:      audithandler.NewHandler(auditService),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox processor drains domain events to Redis. The API serves
	// without it if the broker is down; events stay pending until it
	// comes back.
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, appLogger.Zerolog())
	if err != nil {
		log.Warn().Err(err).Msg("message broker unavailable, outbox processing disabled")
	} else {
		defer broker.Close()
		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:    cfg.Outbox.BatchSize,
			PollInterval: cfg.Outbox.PollInterval,
			MaxRetries:   cfg.Outbox.MaxRetries,
			Retention:    cfg.Outbox.Retention,
		}, appLogger, m)
		go processor.Start(ctx)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
