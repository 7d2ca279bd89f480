package timeline

import "timeline-service/internal/model"

// validateDependency checks that linking m -> target is safe: target must
// belong to the same document and following the dependency chain from target
// must not reach m. milestones is a consistent snapshot of the document's
// milestone set, read under the per-document lock.
//
// The walk is bounded by the snapshot size; exceeding the bound means the
// stored graph already contains a cycle and is reported as corruption.
func validateDependency(m *model.Milestone, target *model.Milestone, milestones []model.Milestone) error {
	if target.DocumentID != m.DocumentID || target.DocumentType != m.DocumentType {
		return &InvalidDependencyError{
			MilestoneID: m.ID,
			Reason:      "dependency must belong to the same document",
		}
	}
	if target.ID == m.ID {
		return &InvalidDependencyError{
			MilestoneID: m.ID,
			Reason:      "milestone cannot depend on itself",
		}
	}

	deps := make(map[int]*int, len(milestones))
	for i := range milestones {
		deps[milestones[i].ID] = milestones[i].DependencyID
	}

	current := target.ID
	for steps := 0; ; steps++ {
		if steps > len(milestones) {
			return ErrGraphCorrupted
		}
		if current == m.ID {
			return &InvalidDependencyError{
				MilestoneID: m.ID,
				Reason:      "dependency would create a cycle",
			}
		}
		next, ok := deps[current]
		if !ok || next == nil {
			return nil
		}
		current = *next
	}
}

// DependentsOf returns the milestones whose dependency points at id,
// one level only. Used for display counts.
func DependentsOf(milestones []model.Milestone, id int) []model.Milestone {
	var dependents []model.Milestone
	for _, m := range milestones {
		if m.DependencyID != nil && *m.DependencyID == id {
			dependents = append(dependents, m)
		}
	}
	return dependents
}

// Ready reports whether m has no dependency or its dependency is completed.
// Readiness is informational only and never blocks a status transition.
func Ready(milestones []model.Milestone, m *model.Milestone) bool {
	if m.DependencyID == nil {
		return true
	}
	for i := range milestones {
		if milestones[i].ID == *m.DependencyID {
			return milestones[i].Status == model.StatusCompleted
		}
	}
	return false
}
