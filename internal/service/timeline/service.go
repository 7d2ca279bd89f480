package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"timeline-service/internal/model"
	"timeline-service/pkg/metrics"
)

// MilestoneStore persists milestones. Update is a compare-and-swap on the
// version field.
type MilestoneStore interface {
	Insert(ctx context.Context, m *model.Milestone) (int, error)
	GetByID(ctx context.Context, id int) (*model.Milestone, error)
	FindByDocument(ctx context.Context, ref model.DocumentRef) ([]model.Milestone, error)
	Update(ctx context.Context, m *model.Milestone) error
}

// CommentStore persists milestone comments.
type CommentStore interface {
	Insert(ctx context.Context, c *model.Comment) (int, error)
	FindByMilestone(ctx context.Context, milestoneID int) ([]model.Comment, error)
}

// Dispatcher emits notification records. Failures never roll back the
// state change that triggered them.
type Dispatcher interface {
	NotifyAssignment(ctx context.Context, m *model.Milestone, userID int) error
	NotifyStatusChange(ctx context.Context, m *model.Milestone, newStatus model.Status) error
	NotifyComment(ctx context.Context, m *model.Milestone, authorID int) error
}

// Service implements the milestone timeline commands and queries. Callers
// supply the acting user id explicitly; there is no ambient session state.
type Service struct {
	milestones MilestoneStore
	comments   CommentStore
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	milestoneLocks *keyedMutex
	documentLocks  *keyedMutex
}

// NewService creates a Service. now may be nil, in which case time.Now is
// used; tests inject a fixed clock.
func NewService(
	milestones MilestoneStore,
	comments CommentStore,
	dispatcher Dispatcher,
	logger *zap.Logger,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		milestones:     milestones,
		comments:       comments,
		dispatcher:     dispatcher,
		logger:         logger,
		now:            now,
		milestoneLocks: newKeyedMutex(),
		documentLocks:  newKeyedMutex(),
	}
}

// CreateMilestoneInput carries the fields for a new milestone. Status is
// always pending on creation.
type CreateMilestoneInput struct {
	Document    model.DocumentRef
	Name        string
	Description string
	Priority    model.Priority
	StartDate   *time.Time
	DueDate     time.Time
	AssignedTo  *int
	Notes       string
}

func (s *Service) CreateMilestone(ctx context.Context, actorID int, in CreateMilestoneInput) (*model.Milestone, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "name is required"}
	}
	if in.DueDate.IsZero() {
		return nil, &ValidationError{Field: "due_date", Reason: "due date is required"}
	}
	if _, ok := model.ParseDocumentType(string(in.Document.Type)); !ok {
		return nil, &ValidationError{Field: "document_type", Reason: fmt.Sprintf("unknown document type %q", in.Document.Type)}
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if _, ok := model.ParsePriority(string(priority)); !ok {
		return nil, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", priority)}
	}

	m := &model.Milestone{
		DocumentID:   in.Document.ID,
		DocumentType: in.Document.Type,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Status:       model.StatusPending,
		Priority:     priority,
		StartDate:    in.StartDate,
		DueDate:      in.DueDate,
		AssignedTo:   in.AssignedTo,
		Notes:        in.Notes,
	}

	if _, err := s.milestones.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Milestone created",
		zap.Int("milestone_id", m.ID),
		zap.Int("document_id", m.DocumentID),
		zap.String("document_type", string(m.DocumentType)),
		zap.Int("actor_id", actorID),
	)

	// Assignment notification is advisory: a dispatch failure surfaces to
	// the caller but the milestone stays created.
	if m.AssignedTo != nil {
		if err := s.dispatcher.NotifyAssignment(ctx, m, *m.AssignedTo); err != nil {
			s.logger.Warn("Assignment notification failed",
				zap.Int("milestone_id", m.ID),
				zap.Error(err),
			)
			return m, err
		}
	}

	return m, nil
}

// Transition applies a status change. The transition table is enforced;
// dependency readiness is informational and never gates a transition.
// Exactly one status_update notification is attempted per successful
// transition; a dispatch failure is returned alongside the updated
// milestone and never rolls the transition back.
func (s *Service) Transition(ctx context.Context, actorID, milestoneID int, newStatus model.Status, note string) (*model.Milestone, error) {
	if _, ok := model.ParseStatus(string(newStatus)); !ok {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", newStatus)}
	}

	unlock := s.milestoneLocks.Lock(fmt.Sprintf("milestone:%d", milestoneID))
	defer unlock()

	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(m.Status, newStatus) {
		return nil, &InvalidTransitionError{From: m.Status, To: newStatus}
	}

	previous := m.Status
	m.Status = newStatus

	if newStatus == model.StatusCompleted {
		completed := s.now()
		m.CompletedDate = &completed
		if m.StartDate != nil {
			days := int(completed.Sub(*m.StartDate).Hours() / 24)
			m.ActualDuration = &days
		}
	}

	if note != "" {
		if m.Notes != "" {
			m.Notes += "\n"
		}
		m.Notes += note
	}

	if err := s.milestones.Update(ctx, m); err != nil {
		return nil, err
	}

	metrics.IncrementStatusTransition(string(previous), string(newStatus))
	s.logger.Info("Milestone status changed",
		zap.Int("milestone_id", m.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(newStatus)),
		zap.Int("actor_id", actorID),
	)

	if err := s.dispatcher.NotifyStatusChange(ctx, m, newStatus); err != nil {
		s.logger.Warn("Status change notification failed",
			zap.Int("milestone_id", m.ID),
			zap.Error(err),
		)
		return m, err
	}

	return m, nil
}

// SetDependency points a milestone at a prerequisite of the same document,
// or clears it when dependencyID is nil. Cycle validation runs against a
// fresh snapshot read under the per-document lock.
func (s *Service) SetDependency(ctx context.Context, actorID, milestoneID int, dependencyID *int) (*model.Milestone, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	unlock := s.documentLocks.Lock(fmt.Sprintf("document:%s:%d", m.DocumentType, m.DocumentID))
	defer unlock()

	// Re-read under the lock so the cycle check sees current edges.
	m, err = s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	if dependencyID != nil {
		snapshot, err := s.milestones.FindByDocument(ctx, m.Document())
		if err != nil {
			return nil, err
		}

		var target *model.Milestone
		for i := range snapshot {
			if snapshot[i].ID == *dependencyID {
				target = &snapshot[i]
				break
			}
		}
		if target == nil {
			return nil, &InvalidDependencyError{
				MilestoneID: milestoneID,
				Reason:      "dependency must belong to the same document",
			}
		}

		if err := validateDependency(m, target, snapshot); err != nil {
			return nil, err
		}
	}

	m.DependencyID = dependencyID
	if err := s.milestones.Update(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Milestone dependency updated",
		zap.Int("milestone_id", m.ID),
		zap.Any("dependency_id", dependencyID),
		zap.Int("actor_id", actorID),
	)
	return m, nil
}

// MilestoneView is a milestone enriched with display-only derivations.
type MilestoneView struct {
	model.Milestone
	Ready      bool `json:"ready"`
	Dependents int  `json:"dependents"`
	Overdue    bool `json:"overdue"`
}

// TimelineView is the per-document rollup for the dashboard.
type TimelineView struct {
	Milestones        []MilestoneView      `json:"milestones"`
	CompletionPercent int                  `json:"completion_percent"`
	StatusCounts      map[model.Status]int `json:"status_counts"`
	OverdueCount      int                  `json:"overdue_count"`
	NextDue           *time.Time           `json:"next_due,omitempty"`
}

// Timeline returns the document's milestones in display order with derived
// readiness, dependent counts, and progress figures. All figures are
// recomputed per call; today is supplied by the caller.
func (s *Service) Timeline(ctx context.Context, ref model.DocumentRef, today time.Time) (*TimelineView, error) {
	milestones, err := s.milestones.FindByDocument(ctx, ref)
	if err != nil {
		return nil, err
	}

	SortForDisplay(milestones)

	views := make([]MilestoneView, 0, len(milestones))
	for i := range milestones {
		views = append(views, MilestoneView{
			Milestone:  milestones[i],
			Ready:      Ready(milestones, &milestones[i]),
			Dependents: len(DependentsOf(milestones, milestones[i].ID)),
			Overdue:    Overdue(&milestones[i], today),
		})
	}

	return &TimelineView{
		Milestones:        views,
		CompletionPercent: CompletionPercent(milestones),
		StatusCounts:      CountByStatus(milestones),
		OverdueCount:      OverdueCount(milestones, today),
		NextDue:           NextDue(milestones),
	}, nil
}

// AddComment appends a comment to a milestone's thread and notifies the
// assignee when someone else wrote it.
func (s *Service) AddComment(ctx context.Context, authorID, milestoneID int, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Reason: "comment text is required"}
	}

	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{
		MilestoneID: milestoneID,
		AuthorID:    authorID,
		Text:        text,
	}
	if _, err := s.comments.Insert(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Comment added",
		zap.Int("comment_id", c.ID),
		zap.Int("milestone_id", milestoneID),
		zap.Int("author_id", authorID),
	)

	if m.AssignedTo != nil && *m.AssignedTo != authorID {
		if err := s.dispatcher.NotifyComment(ctx, m, authorID); err != nil {
			s.logger.Warn("Comment notification failed",
				zap.Int("milestone_id", milestoneID),
				zap.Error(err),
			)
			return c, err
		}
	}

	return c, nil
}

// ListComments returns the milestone's comments newest first.
func (s *Service) ListComments(ctx context.Context, milestoneID int) ([]model.Comment, error) {
	if _, err := s.milestones.GetByID(ctx, milestoneID); err != nil {
		return nil, err
	}
	return s.comments.FindByMilestone(ctx, milestoneID)
}
