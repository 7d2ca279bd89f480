package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/model"
	"timeline-service/pkg/circuitbreaker"
)

type fakeStore struct {
	mu      sync.Mutex
	inserts []model.Notification
	err     error
}

func (s *fakeStore) Insert(ctx context.Context, n *model.Notification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	n.ID = len(s.inserts) + 1
	s.inserts = append(s.inserts, *n)
	return n.ID, nil
}

func newTestDispatcher(store *fakeStore) *Dispatcher {
	return NewDispatcher(store, circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()), zap.NewNop())
}

func assignedMilestone(userID int) *model.Milestone {
	return &model.Milestone{
		ID:           42,
		DocumentID:   10,
		DocumentType: model.DocumentTypeOrdinance,
		Name:         "First reading",
		Status:       model.StatusInProgress,
		DueDate:      time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		AssignedTo:   &userID,
	}
}

func TestNotifyAssignmentPersists(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(store)
	m := assignedMilestone(7)

	if err := d.NotifyAssignment(context.Background(), m, 7); err != nil {
		t.Fatalf("NotifyAssignment failed: %v", err)
	}

	if len(store.inserts) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserts))
	}
	n := store.inserts[0]
	if n.Type != model.NotificationAssignment {
		t.Errorf("type = %q, want assignment", n.Type)
	}
	if n.MilestoneID != 42 || n.UserID != 7 {
		t.Errorf("unexpected target: milestone %d user %d", n.MilestoneID, n.UserID)
	}
	if !strings.Contains(n.Message, "First reading") || !strings.Contains(n.Message, "2025-02-01") {
		t.Errorf("message missing milestone context: %q", n.Message)
	}
}

func TestNotifyStatusChangeDropsWithoutAssignee(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(store)
	m := assignedMilestone(7)
	m.AssignedTo = nil

	if err := d.NotifyStatusChange(context.Background(), m, model.StatusCompleted); err != nil {
		t.Fatalf("dropping must not error, got %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatalf("dropped notification must not reach the store, got %d inserts", len(store.inserts))
	}
}

func TestNotifyStatusChangeMessage(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(store)

	if err := d.NotifyStatusChange(context.Background(), assignedMilestone(7), model.StatusDelayed); err != nil {
		t.Fatalf("NotifyStatusChange failed: %v", err)
	}

	n := store.inserts[0]
	if n.Type != model.NotificationStatusUpdate {
		t.Errorf("type = %q, want status_update", n.Type)
	}
	if !strings.Contains(n.Message, "delayed") {
		t.Errorf("message should name the new status: %q", n.Message)
	}
}

func TestNotifyCommentMessage(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(store)

	if err := d.NotifyComment(context.Background(), assignedMilestone(7), 3); err != nil {
		t.Fatalf("NotifyComment failed: %v", err)
	}

	n := store.inserts[0]
	if n.Type != model.NotificationComment || n.UserID != 7 {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestStoreFailureYieldsDispatchError(t *testing.T) {
	cause := errors.New("connection refused")
	store := &fakeStore{err: cause}
	d := newTestDispatcher(store)

	err := d.NotifyOverdue(context.Background(), assignedMilestone(7), 7)

	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if dispatchErr.Type != model.NotificationOverdue {
		t.Errorf("DispatchError type = %q, want overdue", dispatchErr.Type)
	}
	if !errors.Is(err, cause) {
		t.Error("DispatchError must unwrap to the store error")
	}
}

func TestZeroUserIDDropsSilently(t *testing.T) {
	store := &fakeStore{}
	d := newTestDispatcher(store)

	if err := d.NotifyAssignment(context.Background(), assignedMilestone(7), 0); err != nil {
		t.Fatalf("zero user id must drop, not fail: %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatal("zero user id must not reach the store")
	}
}

func TestBreakerShortCircuitsDeadStore(t *testing.T) {
	store := &fakeStore{err: errors.New("store down")}
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             time.Hour,
		HalfOpenMaxRequests: 1,
	})
	d := NewDispatcher(store, breaker, zap.NewNop())
	m := assignedMilestone(7)

	for i := 0; i < 2; i++ {
		if err := d.NotifyOverdue(context.Background(), m, 7); err == nil {
			t.Fatal("expected dispatch failure")
		}
	}

	// Breaker is open now; the store must not be touched again.
	store.err = nil
	err := d.NotifyOverdue(context.Background(), m, 7)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatal("open breaker must not let requests through")
	}
}
