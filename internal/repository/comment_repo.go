package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timeline-service/internal/model"
)

type CommentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCommentRepository(db *pgxpool.Pool, logger *zap.Logger) *CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CommentRepository) Insert(ctx context.Context, c *model.Comment) (int, error) {
	r.logger.Debug("Inserting comment",
		zap.Int("milestone_id", c.MilestoneID),
		zap.Int("author_id", c.AuthorID),
	)

	query := `
        INSERT INTO milestone_comments (milestone_id, author_id, text)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		c.MilestoneID,
		c.AuthorID,
		c.Text,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert comment", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Comment inserted successfully",
		zap.Int("id", c.ID),
		zap.Int("milestone_id", c.MilestoneID),
	)
	return c.ID, nil
}

// FindByMilestone returns comments newest first.
func (r *CommentRepository) FindByMilestone(ctx context.Context, milestoneID int) ([]model.Comment, error) {
	query := `
        SELECT id, milestone_id, author_id, text, created_at
        FROM milestone_comments
        WHERE milestone_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.db.Query(ctx, query, milestoneID)
	if err != nil {
		r.logger.Error("Failed to query comments",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.ID,
			&c.MilestoneID,
			&c.AuthorID,
			&c.Text,
			&c.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan comment row", zap.Error(err))
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
