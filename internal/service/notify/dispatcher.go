package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/model"
	"timeline-service/pkg/circuitbreaker"
	"timeline-service/pkg/metrics"
)

// DispatchError reports a failed notification persistence. The originating
// state change is authoritative and is never rolled back because of it.
type DispatchError struct {
	Type  model.NotificationType
	Cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch %s notification: %v", e.Type, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Store persists notification records for later retrieval by the
// presentation layer. No transport is involved.
type Store interface {
	Insert(ctx context.Context, n *model.Notification) (int, error)
}

// Dispatcher builds human-readable messages and persists notification
// records. Notifications without a target are silently dropped. The store
// call is bounded by a timeout and guarded by a circuit breaker so a dead
// store fails fast instead of hanging the caller.
type Dispatcher struct {
	store   Store
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	timeout time.Duration
}

func NewDispatcher(store Store, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:   store,
		breaker: breaker,
		logger:  logger,
		timeout: 2 * time.Second,
	}
}

// WithTimeout sets the per-dispatch store timeout.
func (d *Dispatcher) WithTimeout(timeout time.Duration) *Dispatcher {
	d.timeout = timeout
	return d
}

func (d *Dispatcher) NotifyAssignment(ctx context.Context, m *model.Milestone, userID int) error {
	msg := fmt.Sprintf("You have been assigned milestone %q for %s #%d, due %s.",
		m.Name, m.DocumentType, m.DocumentID, m.DueDate.Format("2006-01-02"))
	return d.dispatch(ctx, m.ID, userID, model.NotificationAssignment, msg)
}

func (d *Dispatcher) NotifyStatusChange(ctx context.Context, m *model.Milestone, newStatus model.Status) error {
	if m.AssignedTo == nil {
		d.drop(m.ID, model.NotificationStatusUpdate)
		return nil
	}
	msg := fmt.Sprintf("Milestone %q for %s #%d is now %s.",
		m.Name, m.DocumentType, m.DocumentID, newStatus)
	return d.dispatch(ctx, m.ID, *m.AssignedTo, model.NotificationStatusUpdate, msg)
}

func (d *Dispatcher) NotifyComment(ctx context.Context, m *model.Milestone, authorID int) error {
	if m.AssignedTo == nil {
		d.drop(m.ID, model.NotificationComment)
		return nil
	}
	msg := fmt.Sprintf("User %d commented on milestone %q for %s #%d.",
		authorID, m.Name, m.DocumentType, m.DocumentID)
	return d.dispatch(ctx, m.ID, *m.AssignedTo, model.NotificationComment, msg)
}

func (d *Dispatcher) NotifyOverdue(ctx context.Context, m *model.Milestone, userID int) error {
	msg := fmt.Sprintf("Milestone %q for %s #%d is overdue, was due %s.",
		m.Name, m.DocumentType, m.DocumentID, m.DueDate.Format("2006-01-02"))
	return d.dispatch(ctx, m.ID, userID, model.NotificationOverdue, msg)
}

func (d *Dispatcher) dispatch(ctx context.Context, milestoneID, userID int, typ model.NotificationType, message string) error {
	if userID == 0 {
		d.drop(milestoneID, typ)
		return nil
	}

	n := &model.Notification{
		MilestoneID: milestoneID,
		UserID:      userID,
		Type:        typ,
		Message:     message,
	}

	err := d.breaker.Execute(func() error {
		dispatchCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		_, err := d.store.Insert(dispatchCtx, n)
		return err
	})
	if err != nil {
		metrics.IncrementNotificationDispatch(string(typ), "failed")
		d.logger.Error("Failed to persist notification",
			zap.Int("milestone_id", milestoneID),
			zap.Int("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return &DispatchError{Type: typ, Cause: err}
	}

	metrics.IncrementNotificationDispatch(string(typ), "persisted")
	d.logger.Info("Notification dispatched",
		zap.Int("notification_id", n.ID),
		zap.Int("milestone_id", milestoneID),
		zap.Int("user_id", userID),
		zap.String("type", string(typ)),
	)
	return nil
}

func (d *Dispatcher) drop(milestoneID int, typ model.NotificationType) {
	metrics.IncrementNotificationDispatch(string(typ), "dropped")
	d.logger.Debug("Notification dropped, no target user",
		zap.Int("milestone_id", milestoneID),
		zap.String("type", string(typ)),
	)
}
