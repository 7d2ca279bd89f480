package model

import "time"

// DocumentType identifies the kind of legislative document a milestone
// belongs to. Documents themselves live in the external document registry.
type DocumentType string

const (
	DocumentTypeOrdinance  DocumentType = "ordinance"
	DocumentTypeResolution DocumentType = "resolution"
)

func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentTypeOrdinance, DocumentTypeResolution:
		return DocumentType(s), true
	}
	return "", false
}

// DocumentRef is an opaque reference to a document in the registry.
type DocumentRef struct {
	ID   int          `json:"id"`
	Type DocumentType `json:"type"`
}

// Status is a milestone lifecycle status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelayed    Status = "delayed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelayed, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority is a milestone urgency level.
type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent, PriorityEmergency:
		return Priority(s), true
	}
	return "", false
}

// Rank orders priorities by urgency, higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	case PriorityEmergency:
		return 5
	default:
		return 0
	}
}

type Milestone struct {
	ID             int          `json:"id"`
	DocumentID     int          `json:"document_id"`
	DocumentType   DocumentType `json:"document_type"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Status         Status       `json:"status"`
	Priority       Priority     `json:"priority"`
	StartDate      *time.Time   `json:"start_date,omitempty"`
	DueDate        time.Time    `json:"due_date"`
	CompletedDate  *time.Time   `json:"completed_date,omitempty"`
	AssignedTo     *int         `json:"assigned_to,omitempty"`
	DependencyID   *int         `json:"dependency_id,omitempty"`
	Notes          string       `json:"notes"`
	ActualDuration *int         `json:"actual_duration,omitempty"` // whole days, set on completion
	Version        int          `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Document returns the milestone's document reference.
func (m *Milestone) Document() DocumentRef {
	return DocumentRef{ID: m.DocumentID, Type: m.DocumentType}
}
