package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// IntakesRepository stores dose intake records. The absence of a row for a
// dose means pending; state changes go through domain.Transition before
// Save.
type IntakesRepository interface {
	CreateIntake(ctx context.Context, intake *domain.MedicationIntake) (string, error)
	GetIntake(ctx context.Context, id string) (*domain.MedicationIntake, error)
	ListByPatient(ctx context.Context, patientID string) ([]*domain.MedicationIntake, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*domain.MedicationIntake, error)
	ListByMedication(ctx context.Context, medicationID string) ([]*domain.MedicationIntake, error)
	Save(ctx context.Context, intake *domain.MedicationIntake) error
	DeleteIntake(ctx context.Context, id string) error
}

type PostgresIntakesRepository struct {
	db *sql.DB
}

func NewPostgresIntakesRepository(db *sql.DB) *PostgresIntakesRepository {
	return &PostgresIntakesRepository{db: db}
}

var _ IntakesRepository = (*PostgresIntakesRepository)(nil)

const intakeColumns = `id::text, medication_id::text, patient_id::text, doctor_id::text,
	dose_id, scheduled_time, taken_time, skipped, COALESCE(notes, '')`

func scanIntake(row interface{ Scan(...any) error }) (*domain.MedicationIntake, error) {
	var i domain.MedicationIntake
	err := row.Scan(
		&i.ID,
		&i.MedicationID,
		&i.PatientID,
		&i.DoctorID,
		&i.DoseID,
		&i.ScheduledTime,
		&i.TakenTime,
		&i.Skipped,
		&i.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *PostgresIntakesRepository) CreateIntake(ctx context.Context, intake *domain.MedicationIntake) (string, error) {
	if intake.MedicationID == "" || intake.PatientID == "" {
		return "", fmt.Errorf("medication_id and patient_id are required")
	}
	if intake.ID == "" {
		intake.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO medication_intakes (id, medication_id, patient_id, doctor_id, dose_id, scheduled_time, taken_time, skipped, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		intake.ID, intake.MedicationID, intake.PatientID, intake.DoctorID,
		intake.DoseID, intake.ScheduledTime, intake.TakenTime, intake.Skipped, intake.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create intake: %w", err)
	}
	return intake.ID, nil
}

func (r *PostgresIntakesRepository) GetIntake(ctx context.Context, id string) (*domain.MedicationIntake, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+intakeColumns+` FROM medication_intakes WHERE id = $1`, id)
	i, err := scanIntake(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake: %w", err)
	}
	return i, nil
}

func (r *PostgresIntakesRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.MedicationIntake, error) {
	return r.list(ctx, `patient_id = $1`, patientID)
}

func (r *PostgresIntakesRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*domain.MedicationIntake, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID)
}

func (r *PostgresIntakesRepository) ListByMedication(ctx context.Context, medicationID string) ([]*domain.MedicationIntake, error) {
	return r.list(ctx, `medication_id = $1`, medicationID)
}

func (r *PostgresIntakesRepository) list(ctx context.Context, where string, arg any) ([]*domain.MedicationIntake, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+intakeColumns+` FROM medication_intakes WHERE `+where+` ORDER BY scheduled_time`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list intakes: %w", err)
	}
	defer rows.Close()

	var out []*domain.MedicationIntake
	for rows.Next() {
		i, err := scanIntake(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intake: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Save writes the state columns back after a transition.
func (r *PostgresIntakesRepository) Save(ctx context.Context, intake *domain.MedicationIntake) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE medication_intakes
		 SET taken_time = $2, skipped = $3, notes = $4
		 WHERE id = $1`,
		intake.ID, intake.TakenTime, intake.Skipped, intake.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save intake: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresIntakesRepository) DeleteIntake(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medication_intakes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete intake: %w", err)
	}
	return nil
}
