package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MedicationsRepository stores prescriptions and their doses.
type MedicationsRepository interface {
	CreateMedication(ctx context.Context, med *domain.Medication) (string, error)
	GetMedication(ctx context.Context, id string) (*domain.Medication, error)
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Medication, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*domain.Medication, error)
	// ListActive returns every medication row; presence in the table means
	// the medication is still active.
	ListActive(ctx context.Context) ([]*domain.Medication, error)
	UpdateMedication(ctx context.Context, med *domain.Medication) error
	DeleteMedication(ctx context.Context, id string) error
}

type PostgresMedicationsRepository struct {
	db *sql.DB
}

func NewPostgresMedicationsRepository(db *sql.DB) *PostgresMedicationsRepository {
	return &PostgresMedicationsRepository{db: db}
}

var _ MedicationsRepository = (*PostgresMedicationsRepository)(nil)

const medicationColumns = `id::text, patient_id::text, doctor_id::text, name, intake_method,
	start_date, end_date, instructions, COALESCE(side_effects, '{}'), created_at`

func scanMedication(row interface{ Scan(...any) error }) (*domain.Medication, error) {
	var m domain.Medication
	err := row.Scan(
		&m.ID,
		&m.PatientID,
		&m.DoctorID,
		&m.Name,
		&m.IntakeMethod,
		&m.StartDate,
		&m.EndDate,
		&m.Instructions,
		(*pq.StringArray)(&m.SideEffects),
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMedication inserts the medication and its doses in one transaction.
func (r *PostgresMedicationsRepository) CreateMedication(ctx context.Context, med *domain.Medication) (string, error) {
	if med.PatientID == "" || med.Name == "" {
		return "", fmt.Errorf("patient_id and name are required")
	}
	if med.ID == "" {
		med.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO medications (id, patient_id, doctor_id, name, intake_method, start_date, end_date, instructions, side_effects)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		med.ID, med.PatientID, med.DoctorID, med.Name, med.IntakeMethod,
		med.StartDate, med.EndDate, med.Instructions, pq.Array(med.SideEffects),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create medication: %w", err)
	}

	for i := range med.Doses {
		dose := &med.Doses[i]
		if dose.ID == "" {
			dose.ID = uuid.NewString()
		}
		dose.MedicationID = med.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO medication_doses (id, medication_id, amount, unit, time_of_day)
			 VALUES ($1, $2, $3, $4, $5)`,
			dose.ID, med.ID, dose.Amount, dose.Unit, dose.TimeOfDay,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create dose: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit medication: %w", err)
	}
	return med.ID, nil
}

func (r *PostgresMedicationsRepository) GetMedication(ctx context.Context, id string) (*domain.Medication, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	m, err := scanMedication(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	if err := r.loadDoses(ctx, []*domain.Medication{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresMedicationsRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.Medication, error) {
	return r.list(ctx, `patient_id = $1`, patientID)
}

func (r *PostgresMedicationsRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*domain.Medication, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID)
}

func (r *PostgresMedicationsRepository) ListActive(ctx context.Context) ([]*domain.Medication, error) {
	return r.list(ctx, `TRUE`)
}

func (r *PostgresMedicationsRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE `+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadDoses(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresMedicationsRepository) loadDoses(ctx context.Context, meds []*domain.Medication) error {
	if len(meds) == 0 {
		return nil
	}
	ids := make([]string, 0, len(meds))
	byID := make(map[string]*domain.Medication, len(meds))
	for _, m := range meds {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, medication_id::text, amount, unit, time_of_day
		 FROM medication_doses WHERE medication_id = ANY($1) ORDER BY id`, idArray(ids))
	if err != nil {
		return fmt.Errorf("failed to load doses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.MedicationDose
		if err := rows.Scan(&d.ID, &d.MedicationID, &d.Amount, &d.Unit, &d.TimeOfDay); err != nil {
			return fmt.Errorf("failed to scan dose: %w", err)
		}
		if m, ok := byID[d.MedicationID]; ok {
			m.Doses = append(m.Doses, d)
		}
	}
	return rows.Err()
}

// UpdateMedication replaces the medication fields and its dose set.
func (r *PostgresMedicationsRepository) UpdateMedication(ctx context.Context, med *domain.Medication) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE medications
		 SET name = $2, intake_method = $3, start_date = $4, end_date = $5, instructions = $6, side_effects = $7
		 WHERE id = $1`,
		med.ID, med.Name, med.IntakeMethod, med.StartDate, med.EndDate,
		med.Instructions, pq.Array(med.SideEffects),
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM medication_doses WHERE medication_id = $1`, med.ID); err != nil {
		return fmt.Errorf("failed to clear doses: %w", err)
	}
	for i := range med.Doses {
		dose := &med.Doses[i]
		if dose.ID == "" {
			dose.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO medication_doses (id, medication_id, amount, unit, time_of_day)
			 VALUES ($1, $2, $3, $4, $5)`,
			dose.ID, med.ID, dose.Amount, dose.Unit, dose.TimeOfDay,
		)
		if err != nil {
			return fmt.Errorf("failed to insert dose: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PostgresMedicationsRepository) DeleteMedication(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	return nil
}
