package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"timeline-service/internal/handler"
	"timeline-service/pkg/metrics"
	"timeline-service/pkg/mq"
	"timeline-service/pkg/trace"
)

func NewRouter(
	timelineHandler *handler.TimelineHandler,
	notificationHandler *handler.NotificationHandler,
	logger *zap.Logger,
	db *pgxpool.Pool,
	consumer *mq.Consumer,
) *gin.Engine {
	r := gin.Default()

	// Request logging and metrics middleware.
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		traceID := c.GetHeader(trace.HeaderName())
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, c.FullPath(), strconv.Itoa(status), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("trace_id", traceID),
		)
	})

	// Health endpoints.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if consumer != nil && !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Commands.
	r.POST("/milestones", timelineHandler.CreateMilestone)
	r.POST("/milestones/:id/status", timelineHandler.TransitionStatus)
	r.PUT("/milestones/:id/dependency", timelineHandler.SetDependency)
	r.POST("/milestones/:id/comments", timelineHandler.AddComment)
	r.POST("/notifications/:id/read", notificationHandler.MarkRead)

	// Queries.
	r.GET("/documents/:type/:id/milestones", timelineHandler.GetTimeline)
	r.GET("/milestones/:id/comments", timelineHandler.ListComments)
	r.GET("/notifications", notificationHandler.ListNotifications)

	return r
}
