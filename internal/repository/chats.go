package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// ChatsRepository is the append-only message store.
type ChatsRepository interface {
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) (string, error)
	ListMessages(ctx context.Context, chatID string) ([]*domain.ChatMessage, error)
	// ListRecentPatientMessages returns the latest messages patients sent to
	// the given doctor, newest first.
	ListRecentPatientMessages(ctx context.Context, doctorID string, limit int) ([]*domain.ChatMessage, error)
}

type PostgresChatsRepository struct {
	db *sql.DB
}

func NewPostgresChatsRepository(db *sql.DB) *PostgresChatsRepository {
	return &PostgresChatsRepository{db: db}
}

var _ ChatsRepository = (*PostgresChatsRepository)(nil)

const chatMessageColumns = `id::text, chat_id, doctor_id::text, doctor_name,
	patient_id::text, patient_name, sender, text, created_at`

func scanChatMessage(row interface{ Scan(...any) error }) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	err := row.Scan(
		&m.ID,
		&m.ChatID,
		&m.DoctorID,
		&m.DoctorName,
		&m.PatientID,
		&m.PatientName,
		&m.Sender,
		&m.Text,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresChatsRepository) AppendMessage(ctx context.Context, msg *domain.ChatMessage) (string, error) {
	if msg.ChatID == "" || msg.Text == "" {
		return "", fmt.Errorf("chat_id and text are required")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (id, chat_id, doctor_id, doctor_name, patient_id, patient_name, sender, text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		msg.ID, msg.ChatID, msg.DoctorID, msg.DoctorName,
		msg.PatientID, msg.PatientName, msg.Sender, msg.Text,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	return msg.ID, nil
}

func (r *PostgresChatsRepository) ListMessages(ctx context.Context, chatID string) ([]*domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+chatMessageColumns+` FROM chat_messages WHERE chat_id = $1 ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresChatsRepository) ListRecentPatientMessages(ctx context.Context, doctorID string, limit int) ([]*domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+chatMessageColumns+` FROM chat_messages
		 WHERE doctor_id = $1 AND sender = 'patient'
		 ORDER BY created_at DESC LIMIT $2`, doctorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
