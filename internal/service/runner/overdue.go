package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/event"
	"timeline-service/internal/model"
)

// MilestoneSource lists milestones past their due date.
type MilestoneSource interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]model.Milestone, error)
}

// EventPublisher publishes events to the MQ exchange.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// OverdueScanner periodically scans for overdue milestones and publishes
// milestone.overdue events. Overdue is derived from the due date, never a
// stored status; the consumer side handles notification and dedup.
type OverdueScanner struct {
	source    MilestoneSource
	publisher EventPublisher
	logger    *zap.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewOverdueScanner(
	source MilestoneSource,
	publisher EventPublisher,
	logger *zap.Logger,
	interval time.Duration,
) *OverdueScanner {
	return &OverdueScanner{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}
}

// WithClock overrides the scanner clock, for tests.
func (o *OverdueScanner) WithClock(now func() time.Time) *OverdueScanner {
	o.now = now
	return o
}

// Start runs the scan loop until the context is cancelled. Call in a
// goroutine.
func (o *OverdueScanner) Start(ctx context.Context) {
	o.logger.Info("Starting overdue scanner",
		zap.Duration("interval", o.interval),
	)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("Overdue scanner stopped")
			return
		case <-ticker.C:
			if err := o.Scan(ctx); err != nil {
				o.logger.Error("Overdue scan failed", zap.Error(err))
			}
		}
	}
}

// Scan publishes one milestone.overdue event per overdue milestone.
func (o *OverdueScanner) Scan(ctx context.Context) error {
	o.logger.Debug("Checking for overdue milestones...")

	milestones, err := o.source.ListOverdue(ctx, o.now())
	if err != nil {
		o.logger.Error("Failed to list overdue milestones", zap.Error(err))
		return err
	}

	if len(milestones) == 0 {
		o.logger.Debug("No overdue milestones found")
		return nil
	}

	published := 0
	for _, m := range milestones {
		payload := event.MilestoneOverduePayload{MilestoneID: m.ID}
		if err := o.publisher.Publish(event.RoutingKeyMilestoneOverdue, payload); err != nil {
			o.logger.Error("Failed to publish milestone.overdue event",
				zap.Int("milestone_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		published++
		o.logger.Info("Published milestone.overdue event",
			zap.Int("milestone_id", m.ID),
		)
	}

	o.logger.Info("Overdue check completed",
		zap.Int("overdue_count", len(milestones)),
		zap.Int("published", published),
	)
	return nil
}
