package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// NotificationsRepository stores per-patient in-app notifications.
type NotificationsRepository interface {
	Insert(ctx context.Context, n *domain.Notification) (string, error)
	ListRecent(ctx context.Context, patientID string, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, patientID, notificationID string) error
	MarkAllRead(ctx context.Context, patientID string) error
}

type PostgresNotificationsRepository struct {
	db *sql.DB
}

func NewPostgresNotificationsRepository(db *sql.DB) *PostgresNotificationsRepository {
	return &PostgresNotificationsRepository{db: db}
}

var _ NotificationsRepository = (*PostgresNotificationsRepository)(nil)

func (r *PostgresNotificationsRepository) Insert(ctx context.Context, n *domain.Notification) (string, error) {
	if n.PatientID == "" {
		return "", fmt.Errorf("patient_id is required")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	// New notifications are always unread; NULL read values only exist on
	// rows imported from before the column was added.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, patient_id, type, title, body, read)
		 VALUES ($1, $2, $3, $4, $5, FALSE)`,
		n.ID, n.PatientID, n.Type, n.Title, n.Body,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}
	return n.ID, nil
}

func (r *PostgresNotificationsRepository) ListRecent(ctx context.Context, patientID string, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, patient_id::text, type, title, body, created_at, read
		 FROM notifications WHERE patient_id = $1
		 ORDER BY created_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.PatientID, &n.Type, &n.Title, &n.Body, &n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationsRepository) MarkRead(ctx context.Context, patientID, notificationID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND patient_id = $2`,
		notificationID, patientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationsRepository) MarkAllRead(ctx context.Context, patientID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE patient_id = $1 AND (read IS NULL OR read = FALSE)`,
		patientID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
