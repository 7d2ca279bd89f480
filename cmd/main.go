package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/config"
	"timeline-service/internal/event"
	"timeline-service/internal/handler"
	"timeline-service/internal/httpserver"
	"timeline-service/internal/mqhandler"
	"timeline-service/internal/repository"
	"timeline-service/internal/service/notify"
	"timeline-service/internal/service/runner"
	"timeline-service/internal/service/timeline"
	"timeline-service/pkg/circuitbreaker"
	"timeline-service/pkg/db"
	"timeline-service/pkg/logger"
	"timeline-service/pkg/mq"
	"timeline-service/pkg/redis"
	"timeline-service/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting timeline-service...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	notificationRepo := repository.NewNotificationRepository(dbConn, log)
	commentRepo := repository.NewCommentRepository(dbConn, log)

	// Redis for event dedup
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()
	deduper := util.NewDeduperWithLogger(rdb, time.Duration(cfg.Notify.DedupTTLHours)*time.Hour, log)

	// Notification dispatcher
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())
	dispatcher := notify.NewDispatcher(notificationRepo, breaker, log).
		WithTimeout(time.Duration(cfg.Notify.TimeoutSeconds) * time.Second)

	timelineService := timeline.NewService(milestoneRepo, commentRepo, dispatcher, log, nil)

	// MQ publisher for milestone.overdue events
	log.Info("Initializing MQ publisher...")
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// MQ Consumer for milestone.overdue
	log.Info("Initializing MQ consumer for milestone.overdue...",
		zap.String("queue", "milestone.overdue.q"),
		zap.String("routing_key", event.RoutingKeyMilestoneOverdue),
	)
	overdueConsumer, err := mq.NewConsumer(cfg.MQ.URL, "milestone.overdue.q", event.RoutingKeyMilestoneOverdue, log)
	if err != nil {
		log.Fatal("Failed to init overdue consumer", zap.Error(err))
	}
	defer overdueConsumer.Close()

	overdueHandler := mqhandler.NewMilestoneOverdueHandler(milestoneRepo, dispatcher, deduper, log)
	overdueConsumer.SetHandler(overdueHandler.Handle)

	go func() {
		log.Info("Starting milestone.overdue consumer...")
		if err := overdueConsumer.StartConsuming(); err != nil {
			log.Fatal("Overdue consumer failed", zap.Error(err))
		}
	}()

	// Overdue scanner
	scannerCtx, scannerCancel := context.WithCancel(context.Background())
	defer scannerCancel()

	scanner := runner.NewOverdueScanner(
		milestoneRepo,
		publisher,
		log,
		time.Duration(cfg.Runner.ScanIntervalSeconds)*time.Second,
	)
	go scanner.Start(scannerCtx)

	// HTTP server
	port := cfg.Server.Port
	if port == "" {
		port = "8083"
	}
	log.Info("Initializing HTTP server...", zap.String("port", port))

	timelineHandler := handler.NewTimelineHandler(timelineService, log)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, log)
	router := httpserver.NewRouter(timelineHandler, notificationHandler, log, dbConn, overdueConsumer)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("timeline-service is fully initialized and running",
		zap.String("http_port", port),
		zap.String("mq_queue", "milestone.overdue.q"),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down timeline-service gracefully...")

	scannerCancel()

	log.Info("Stopping MQ consumer...")
	overdueConsumer.Stop()

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("timeline-service shutdown complete")
}
