package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timeline-service/internal/model"
)

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

const milestoneColumns = `
	id, document_id, document_type, name, description, status, priority,
	start_date, due_date, completed_date, assigned_to, dependency_id,
	notes, actual_duration, version, created_at, updated_at
`

func (r *MilestoneRepository) Insert(ctx context.Context, m *model.Milestone) (int, error) {
	r.logger.Debug("Inserting milestone",
		zap.Int("document_id", m.DocumentID),
		zap.String("document_type", string(m.DocumentType)),
		zap.String("name", m.Name),
	)

	query := `
        INSERT INTO milestones
            (document_id, document_type, name, description, status, priority,
             start_date, due_date, assigned_to, dependency_id, notes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, version, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		m.DocumentID,
		m.DocumentType,
		m.Name,
		m.Description,
		m.Status,
		m.Priority,
		m.StartDate,
		m.DueDate,
		m.AssignedTo,
		m.DependencyID,
		m.Notes,
	).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Milestone inserted successfully",
		zap.Int("id", m.ID),
		zap.Int("document_id", m.DocumentID),
	)
	return m.ID, nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id int) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	var m model.Milestone
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.DocumentID,
		&m.DocumentType,
		&m.Name,
		&m.Description,
		&m.Status,
		&m.Priority,
		&m.StartDate,
		&m.DueDate,
		&m.CompletedDate,
		&m.AssignedTo,
		&m.DependencyID,
		&m.Notes,
		&m.ActualDuration,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get milestone",
			zap.Int("id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepository) FindByDocument(ctx context.Context, ref model.DocumentRef) ([]model.Milestone, error) {
	r.logger.Debug("Listing milestones for document",
		zap.Int("document_id", ref.ID),
		zap.String("document_type", string(ref.Type)),
	)

	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones
        WHERE document_id = $1 AND document_type = $2
    `
	rows, err := r.db.Query(ctx, query, ref.ID, ref.Type)
	if err != nil {
		r.logger.Error("Failed to query milestones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		var m model.Milestone
		if err := rows.Scan(
			&m.ID,
			&m.DocumentID,
			&m.DocumentType,
			&m.Name,
			&m.Description,
			&m.Status,
			&m.Priority,
			&m.StartDate,
			&m.DueDate,
			&m.CompletedDate,
			&m.AssignedTo,
			&m.DependencyID,
			&m.Notes,
			&m.ActualDuration,
			&m.Version,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan milestone row", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

// Update applies the milestone state with a compare-and-swap on version.
// A transition computed against stale state is rejected with
// ErrVersionConflict instead of being silently applied.
func (r *MilestoneRepository) Update(ctx context.Context, m *model.Milestone) error {
	r.logger.Debug("Updating milestone",
		zap.Int("id", m.ID),
		zap.Int("version", m.Version),
		zap.String("status", string(m.Status)),
	)

	query := `
        UPDATE milestones
        SET name = $1, description = $2, status = $3, priority = $4,
            start_date = $5, due_date = $6, completed_date = $7,
            assigned_to = $8, dependency_id = $9, notes = $10,
            actual_duration = $11, version = version + 1, updated_at = NOW()
        WHERE id = $12 AND version = $13
        RETURNING version, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		m.Name,
		m.Description,
		m.Status,
		m.Priority,
		m.StartDate,
		m.DueDate,
		m.CompletedDate,
		m.AssignedTo,
		m.DependencyID,
		m.Notes,
		m.ActualDuration,
		m.ID,
		m.Version,
	).Scan(&m.Version, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row missing or version moved on. Disambiguate for the caller.
			if _, getErr := r.GetByID(ctx, m.ID); errors.Is(getErr, ErrNotFound) {
				return ErrNotFound
			}
			r.logger.Warn("Milestone update lost version race",
				zap.Int("id", m.ID),
				zap.Int("version", m.Version),
			)
			return ErrVersionConflict
		}
		r.logger.Error("Failed to update milestone",
			zap.Int("id", m.ID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Milestone updated successfully",
		zap.Int("id", m.ID),
		zap.Int("version", m.Version),
	)
	return nil
}

// ListOverdue returns non-terminal milestones whose due date has passed.
func (r *MilestoneRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Milestone, error) {
	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones
        WHERE due_date < $1
        AND status NOT IN ('completed', 'cancelled')
        ORDER BY due_date ASC
    `
	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		r.logger.Error("Failed to query overdue milestones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		var m model.Milestone
		if err := rows.Scan(
			&m.ID,
			&m.DocumentID,
			&m.DocumentType,
			&m.Name,
			&m.Description,
			&m.Status,
			&m.Priority,
			&m.StartDate,
			&m.DueDate,
			&m.CompletedDate,
			&m.AssignedTo,
			&m.DependencyID,
			&m.Notes,
			&m.ActualDuration,
			&m.Version,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan overdue milestone row", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
