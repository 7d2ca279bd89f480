package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"timeline-service/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) (int, error) {
	r.logger.Debug("Inserting notification",
		zap.Int("user_id", n.UserID),
		zap.Int("milestone_id", n.MilestoneID),
		zap.String("type", string(n.Type)),
	)

	query := `
        INSERT INTO notifications (milestone_id, user_id, type, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		n.MilestoneID,
		n.UserID,
		n.Type,
		n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert notification", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Notification inserted successfully",
		zap.Int("id", n.ID),
		zap.Int("user_id", n.UserID),
	)
	return n.ID, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool) ([]model.Notification, error) {
	query := `
        SELECT id, milestone_id, user_id, type, message, is_read, read_at, created_at
        FROM notifications
        WHERE user_id = $1
    `
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query notifications",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.MilestoneID,
			&n.UserID,
			&n.Type,
			&n.Message,
			&n.IsRead,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan notification row", zap.Error(err))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkAsRead(ctx context.Context, id int) error {
	query := `
        UPDATE notifications
        SET is_read = TRUE, read_at = NOW()
        WHERE id = $1
        RETURNING id
    `
	var readID int
	err := r.db.QueryRow(ctx, query, id).Scan(&readID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		r.logger.Error("Failed to mark notification as read",
			zap.Int("id", id),
			zap.Error(err),
		)
		return err
	}
	return nil
}
