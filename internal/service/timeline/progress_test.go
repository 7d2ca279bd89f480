package timeline

import (
	"testing"
	"time"

	"timeline-service/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func withStatus(statuses ...model.Status) []model.Milestone {
	milestones := make([]model.Milestone, 0, len(statuses))
	for i, s := range statuses {
		milestones = append(milestones, model.Milestone{
			ID:      i + 1,
			Status:  s,
			DueDate: day(2025, 6, i+1),
		})
	}
	return milestones
}

func TestCompletionPercent(t *testing.T) {
	cases := []struct {
		name     string
		statuses []model.Status
		want     int
	}{
		{name: "empty set", statuses: nil, want: 0},
		{name: "none completed", statuses: []model.Status{model.StatusPending, model.StatusInProgress}, want: 0},
		{name: "all completed", statuses: []model.Status{model.StatusCompleted, model.StatusCompleted}, want: 100},
		{
			name:     "half completed",
			statuses: []model.Status{model.StatusCompleted, model.StatusCompleted, model.StatusDelayed, model.StatusPending},
			want:     50,
		},
		{name: "one third rounds down", statuses: []model.Status{model.StatusCompleted, model.StatusPending, model.StatusPending}, want: 33},
		{name: "two thirds rounds up", statuses: []model.Status{model.StatusCompleted, model.StatusCompleted, model.StatusPending}, want: 67},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CompletionPercent(withStatus(tc.statuses...)); got != tc.want {
				t.Fatalf("CompletionPercent = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOverdue(t *testing.T) {
	today := day(2025, 1, 15)

	cases := []struct {
		name   string
		due    time.Time
		status model.Status
		want   bool
	}{
		{name: "past due pending", due: day(2025, 1, 10), status: model.StatusPending, want: true},
		{name: "past due in_progress", due: day(2025, 1, 10), status: model.StatusInProgress, want: true},
		{name: "past due delayed", due: day(2025, 1, 10), status: model.StatusDelayed, want: true},
		{name: "past due but completed", due: day(2025, 1, 10), status: model.StatusCompleted, want: false},
		{name: "past due but cancelled", due: day(2025, 1, 10), status: model.StatusCancelled, want: false},
		{name: "due today is not overdue", due: day(2025, 1, 15), status: model.StatusPending, want: false},
		{name: "due in the future", due: day(2025, 2, 1), status: model.StatusPending, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := model.Milestone{DueDate: tc.due, Status: tc.status}
			if got := Overdue(&m, today); got != tc.want {
				t.Fatalf("Overdue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverdueFlipsOnCompletion(t *testing.T) {
	today := day(2025, 1, 15)
	m := model.Milestone{DueDate: day(2025, 1, 10), Status: model.StatusInProgress}

	if !Overdue(&m, today) {
		t.Fatal("expected milestone to be overdue before completion")
	}
	m.Status = model.StatusCompleted
	if Overdue(&m, today) {
		t.Fatal("completed milestone must not be overdue")
	}
}

func TestNextDue(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := NextDue(nil); got != nil {
			t.Fatalf("NextDue(nil) = %v, want nil", got)
		}
	})

	t.Run("all completed", func(t *testing.T) {
		milestones := withStatus(model.StatusCompleted, model.StatusCompleted)
		if got := NextDue(milestones); got != nil {
			t.Fatalf("NextDue = %v, want nil", got)
		}
	})

	t.Run("earliest incomplete wins", func(t *testing.T) {
		milestones := []model.Milestone{
			{ID: 1, Status: model.StatusCompleted, DueDate: day(2025, 1, 1)},
			{ID: 2, Status: model.StatusPending, DueDate: day(2025, 3, 1)},
			{ID: 3, Status: model.StatusDelayed, DueDate: day(2025, 2, 1)},
		}
		got := NextDue(milestones)
		if got == nil || !got.Equal(day(2025, 2, 1)) {
			t.Fatalf("NextDue = %v, want 2025-02-01", got)
		}
	})
}

func TestCountByStatus(t *testing.T) {
	milestones := withStatus(
		model.StatusCompleted, model.StatusCompleted,
		model.StatusDelayed, model.StatusPending,
	)
	counts := CountByStatus(milestones)

	if counts[model.StatusCompleted] != 2 {
		t.Errorf("completed = %d, want 2", counts[model.StatusCompleted])
	}
	if counts[model.StatusDelayed] != 1 {
		t.Errorf("delayed = %d, want 1", counts[model.StatusDelayed])
	}
	if counts[model.StatusPending] != 1 {
		t.Errorf("pending = %d, want 1", counts[model.StatusPending])
	}
	if counts[model.StatusInProgress] != 0 {
		t.Errorf("in_progress = %d, want 0", counts[model.StatusInProgress])
	}
}

func TestSortForDisplay(t *testing.T) {
	milestones := []model.Milestone{
		{ID: 1, DueDate: day(2025, 2, 1), Priority: model.PriorityLow},
		{ID: 2, DueDate: day(2025, 1, 1), Priority: model.PriorityMedium},
		{ID: 3, DueDate: day(2025, 1, 1), Priority: model.PriorityEmergency},
		{ID: 4, DueDate: day(2025, 1, 1), Priority: model.PriorityMedium},
	}

	SortForDisplay(milestones)

	wantOrder := []int{3, 2, 4, 1}
	for i, want := range wantOrder {
		if milestones[i].ID != want {
			t.Fatalf("position %d: got id %d, want %d", i, milestones[i].ID, want)
		}
	}
}
