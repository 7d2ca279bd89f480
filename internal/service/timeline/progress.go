package timeline

import (
	"math"
	"sort"
	"time"

	"timeline-service/internal/model"
)

// CompletionPercent returns 100*completed/total rounded to the nearest
// integer, 0 for an empty set.
func CompletionPercent(milestones []model.Milestone) int {
	if len(milestones) == 0 {
		return 0
	}
	completed := 0
	for _, m := range milestones {
		if m.Status == model.StatusCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(milestones))))
}

// Overdue reports whether m is past due and not in a terminal status.
func Overdue(m *model.Milestone, today time.Time) bool {
	return m.DueDate.Before(today) && !m.Status.Terminal()
}

// OverdueCount tallies overdue milestones as of today.
func OverdueCount(milestones []model.Milestone, today time.Time) int {
	count := 0
	for i := range milestones {
		if Overdue(&milestones[i], today) {
			count++
		}
	}
	return count
}

// NextDue returns the earliest due date among milestones not yet completed,
// nil when none remain.
func NextDue(milestones []model.Milestone) *time.Time {
	var next *time.Time
	for i := range milestones {
		if milestones[i].Status == model.StatusCompleted {
			continue
		}
		due := milestones[i].DueDate
		if next == nil || due.Before(*next) {
			next = &due
		}
	}
	return next
}

// CountByStatus tallies milestones per status. Recomputed on every query,
// never cached.
func CountByStatus(milestones []model.Milestone) map[model.Status]int {
	counts := map[model.Status]int{}
	for _, m := range milestones {
		counts[m.Status]++
	}
	return counts
}

// SortForDisplay orders milestones by due date ascending, then priority
// urgency descending, then id. The store imposes no ordering; this is the
// display contract callers rely on.
func SortForDisplay(milestones []model.Milestone) {
	sort.SliceStable(milestones, func(i, j int) bool {
		if !milestones[i].DueDate.Equal(milestones[j].DueDate) {
			return milestones[i].DueDate.Before(milestones[j].DueDate)
		}
		if milestones[i].Priority.Rank() != milestones[j].Priority.Rank() {
			return milestones[i].Priority.Rank() > milestones[j].Priority.Rank()
		}
		return milestones[i].ID < milestones[j].ID
	})
}
