package event

// Routing keys on the events exchange.
const (
	RoutingKeyMilestoneOverdue = "milestone.overdue"
)

type MilestoneOverduePayload struct {
	MilestoneID int `json:"milestone_id"`
}
