package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// ReconcilerRepository performs the archive of a medication whose end date
// has passed. The whole sequence runs in one transaction so a failed write
// cannot leave the medication deleted with its intakes still pending.
type ReconcilerRepository interface {
	// ArchiveExpired marks every unresolved intake of the medication as
	// skipped, synthesizes one skipped intake when the medication has no
	// intake rows at all, writes exactly one history record and deletes the
	// medication. Returns false when the medication row is already gone
	// (another session archived it first).
	ArchiveExpired(ctx context.Context, med *domain.Medication, now time.Time) (bool, error)
}

type PostgresReconcilerRepository struct {
	db *sql.DB
}

func NewPostgresReconcilerRepository(db *sql.DB) *PostgresReconcilerRepository {
	return &PostgresReconcilerRepository{db: db}
}

var _ ReconcilerRepository = (*PostgresReconcilerRepository)(nil)

func (r *PostgresReconcilerRepository) ArchiveExpired(ctx context.Context, med *domain.Medication, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the medication row; a concurrent reconciler run for the same
	// patient settles here instead of double-archiving.
	var medID string
	err = tx.QueryRowContext(ctx,
		`SELECT id::text FROM medications WHERE id = $1 FOR UPDATE`, med.ID,
	).Scan(&medID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock medication: %w", err)
	}

	// Unresolved intakes become skipped; taken and already-skipped rows are
	// left alone.
	_, err = tx.ExecContext(ctx,
		`UPDATE medication_intakes
		 SET skipped = TRUE, taken_time = NULL
		 WHERE medication_id = $1 AND taken_time IS NULL AND skipped = FALSE`,
		med.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to skip unresolved intakes: %w", err)
	}

	var intakeCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM medication_intakes WHERE medication_id = $1`, med.ID,
	).Scan(&intakeCount)
	if err != nil {
		return false, fmt.Errorf("failed to count intakes: %w", err)
	}

	// With no intake rows at all the skip would be invisible; synthesize a
	// single skipped intake scheduled at the end date.
	if intakeCount == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO medication_intakes (id, medication_id, patient_id, doctor_id, dose_id, scheduled_time, skipped, notes)
			 VALUES ($1, $2, $3, $4, '', $5, TRUE, $6)`,
			uuid.NewString(), med.ID, med.PatientID, med.DoctorID, med.EndDate, med.Name,
		)
		if err != nil {
			return false, fmt.Errorf("failed to synthesize skipped intake: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO history_skipped_medications (id, medication_name, patient_id, skipped_at, end_date)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), med.Name, med.PatientID, now.UTC(), med.EndDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to write skipped history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, med.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete medication: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit archive: %w", err)
	}
	return true, nil
}
