package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/model"
	"timeline-service/internal/repository"
)

type fakeLookup struct {
	milestone *model.Milestone
}

func (f *fakeLookup) GetByID(ctx context.Context, id int) (*model.Milestone, error) {
	if f.milestone == nil || f.milestone.ID != id {
		return nil, repository.ErrNotFound
	}
	c := *f.milestone
	return &c, nil
}

type fakeNotifier struct {
	calls int
	users []int
	err   error
}

func (f *fakeNotifier) NotifyOverdue(ctx context.Context, m *model.Milestone, userID int) error {
	f.calls++
	f.users = append(f.users, userID)
	return f.err
}

type fakeDeduper struct {
	allow bool
	seen  []int
}

func (f *fakeDeduper) AcquireOnce(ctx context.Context, handler string, id int) bool {
	f.seen = append(f.seen, id)
	return f.allow
}

func overduePayload(t *testing.T, id int) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]int{"milestone_id": id})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func overdueMilestone(assignee *int) *model.Milestone {
	return &model.Milestone{
		ID:           42,
		DocumentID:   10,
		DocumentType: model.DocumentTypeOrdinance,
		Name:         "Committee review",
		Status:       model.StatusInProgress,
		DueDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		AssignedTo:   assignee,
	}
}

func TestHandleNotifiesAssignee(t *testing.T) {
	assignee := 7
	lookup := &fakeLookup{milestone: overdueMilestone(&assignee)}
	notifier := &fakeNotifier{}
	h := NewMilestoneOverdueHandler(lookup, notifier, &fakeDeduper{allow: true}, zap.NewNop())

	if err := h.Handle(context.Background(), overduePayload(t, 42)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if notifier.calls != 1 || notifier.users[0] != 7 {
		t.Fatalf("expected one notification to user 7, got %+v", notifier)
	}
}

func TestHandleSkipsDuplicate(t *testing.T) {
	assignee := 7
	lookup := &fakeLookup{milestone: overdueMilestone(&assignee)}
	notifier := &fakeNotifier{}
	h := NewMilestoneOverdueHandler(lookup, notifier, &fakeDeduper{allow: false}, zap.NewNop())

	if err := h.Handle(context.Background(), overduePayload(t, 42)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if notifier.calls != 0 {
		t.Fatal("duplicate event must not notify again")
	}
}

func TestHandleSkipsTerminalMilestone(t *testing.T) {
	assignee := 7
	m := overdueMilestone(&assignee)
	m.Status = model.StatusCompleted
	notifier := &fakeNotifier{}
	h := NewMilestoneOverdueHandler(&fakeLookup{milestone: m}, notifier, &fakeDeduper{allow: true}, zap.NewNop())

	if err := h.Handle(context.Background(), overduePayload(t, 42)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if notifier.calls != 0 {
		t.Fatal("completed milestone must not be notified as overdue")
	}
}

func TestHandleSkipsUnassigned(t *testing.T) {
	notifier := &fakeNotifier{}
	h := NewMilestoneOverdueHandler(&fakeLookup{milestone: overdueMilestone(nil)}, notifier, &fakeDeduper{allow: true}, zap.NewNop())

	if err := h.Handle(context.Background(), overduePayload(t, 42)); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if notifier.calls != 0 {
		t.Fatal("milestone without assignee must not be notified")
	}
}

func TestHandleMissingMilestoneIsNotRequeued(t *testing.T) {
	h := NewMilestoneOverdueHandler(&fakeLookup{}, &fakeNotifier{}, &fakeDeduper{allow: true}, zap.NewNop())

	if err := h.Handle(context.Background(), overduePayload(t, 999)); err != nil {
		t.Fatalf("deleted milestone should be dropped, not requeued: %v", err)
	}
}

func TestHandleNotifyFailureIsSwallowed(t *testing.T) {
	assignee := 7
	lookup := &fakeLookup{milestone: overdueMilestone(&assignee)}
	notifier := &fakeNotifier{err: errors.New("store down")}
	h := NewMilestoneOverdueHandler(lookup, notifier, &fakeDeduper{allow: true}, zap.NewNop())

	// The dedup key is already held, so requeueing would never retry the
	// notification anyway.
	if err := h.Handle(context.Background(), overduePayload(t, 42)); err != nil {
		t.Fatalf("dispatch failure must not requeue: %v", err)
	}
}

func TestHandleBadPayload(t *testing.T) {
	h := NewMilestoneOverdueHandler(&fakeLookup{}, &fakeNotifier{}, &fakeDeduper{allow: true}, zap.NewNop())

	if err := h.Handle(context.Background(), json.RawMessage(`{invalid`)); err == nil {
		t.Fatal("malformed payload should surface an error")
	}
}
