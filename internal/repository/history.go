package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
)

// HistoryRepository stores archived-medication records written by the
// reconciler.
type HistoryRepository interface {
	ListByPatient(ctx context.Context, patientID string) ([]*domain.SkippedMedicationHistory, error)
}

type PostgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)

func (r *PostgresHistoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.SkippedMedicationHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, medication_name, patient_id::text, skipped_at, end_date
		 FROM history_skipped_medications WHERE patient_id = $1
		 ORDER BY skipped_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skipped history: %w", err)
	}
	defer rows.Close()

	var out []*domain.SkippedMedicationHistory
	for rows.Next() {
		var h domain.SkippedMedicationHistory
		if err := rows.Scan(&h.ID, &h.MedicationName, &h.PatientID, &h.SkippedAt, &h.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan skipped history: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
