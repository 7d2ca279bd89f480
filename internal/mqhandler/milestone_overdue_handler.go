package mqhandler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"timeline-service/internal/event"
	"timeline-service/internal/model"
	"timeline-service/internal/repository"
)

// Deduper suppresses repeat processing of the same event.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, id int) bool
}

// OverdueNotifier dispatches an overdue notification.
type OverdueNotifier interface {
	NotifyOverdue(ctx context.Context, m *model.Milestone, userID int) error
}

// MilestoneLookup fetches a milestone by id.
type MilestoneLookup interface {
	GetByID(ctx context.Context, id int) (*model.Milestone, error)
}

type MilestoneOverdueHandler struct {
	milestones MilestoneLookup
	notifier   OverdueNotifier
	deduper    Deduper
	logger     *zap.Logger
}

func NewMilestoneOverdueHandler(
	milestones MilestoneLookup,
	notifier OverdueNotifier,
	deduper Deduper,
	logger *zap.Logger,
) *MilestoneOverdueHandler {
	return &MilestoneOverdueHandler{
		milestones: milestones,
		notifier:   notifier,
		deduper:    deduper,
		logger:     logger,
	}
}

func (h *MilestoneOverdueHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p event.MilestoneOverduePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal MilestoneOverduePayload", zap.Error(err))
		return err
	}

	h.logger.Info("Handling milestone.overdue event",
		zap.Int("milestone_id", p.MilestoneID),
	)

	// The scanner re-publishes on every tick; dedup keeps it to one
	// notification per milestone per TTL window.
	if !h.deduper.AcquireOnce(ctx, "overdue", p.MilestoneID) {
		return nil
	}

	m, err := h.milestones.GetByID(ctx, p.MilestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn("Overdue milestone no longer exists",
				zap.Int("milestone_id", p.MilestoneID),
			)
			return nil
		}
		return err
	}

	// May have been completed or cancelled between scan and delivery.
	if m.Status.Terminal() {
		h.logger.Debug("Milestone reached terminal status, skipping overdue notification",
			zap.Int("milestone_id", m.ID),
			zap.String("status", string(m.Status)),
		)
		return nil
	}

	if m.AssignedTo == nil {
		h.logger.Debug("Overdue milestone has no assignee, skipping",
			zap.Int("milestone_id", m.ID),
		)
		return nil
	}

	// Notifications are advisory: a dispatch failure is logged, not
	// requeued, since the dedup key is already held.
	if err := h.notifier.NotifyOverdue(ctx, m, *m.AssignedTo); err != nil {
		h.logger.Error("Failed to dispatch overdue notification",
			zap.Int("milestone_id", m.ID),
			zap.Error(err),
		)
	}

	return nil
}
