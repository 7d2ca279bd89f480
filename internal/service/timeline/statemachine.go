package timeline

import "timeline-service/internal/model"

// transitions is the legal status edge table. completed and cancelled are
// terminal: no outgoing edges.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusDelayed, model.StatusCancelled},
	model.StatusDelayed:    {model.StatusInProgress, model.StatusCancelled},
	model.StatusCompleted:  {},
	model.StatusCancelled:  {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to model.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
