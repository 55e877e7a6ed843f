package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/lib/pq"
)

// PatientsRepository stores patient profiles. A patient row shares its id
// with the user account; doctor_id stays empty until a doctor claims the
// patient.
type PatientsRepository interface {
	CreatePatient(ctx context.Context, patient *domain.Patient) error
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error)
	ListPatientsByDoctor(ctx context.Context, doctorID string) ([]*domain.Patient, error)
	ClaimPatient(ctx context.Context, patientID, doctorID string) error
	UpdateProfile(ctx context.Context, patient *domain.Patient) error
	UpdateNotificationSettings(ctx context.Context, patientID string, settings domain.NotificationSettings) error
}

type PostgresPatientsRepository struct {
	db *sql.DB
}

func NewPostgresPatientsRepository(db *sql.DB) *PostgresPatientsRepository {
	return &PostgresPatientsRepository{db: db}
}

var _ PatientsRepository = (*PostgresPatientsRepository)(nil)

const patientColumns = `id::text, name, email, doctor_id, date_of_birth, phone_number,
	COALESCE(medical_conditions, '{}'), notes, must_change_password,
	medication_reminders, missed_dose, doctor_messages, appointment_reminders, created_at`

func scanPatient(row interface{ Scan(...any) error }) (*domain.Patient, error) {
	var p domain.Patient
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.DoctorID,
		&p.DateOfBirth,
		&p.PhoneNumber,
		(*pq.StringArray)(&p.MedicalConditions),
		&p.Notes,
		&p.MustChangePassword,
		&p.MedicationReminders,
		&p.MissedDose,
		&p.DoctorMessages,
		&p.AppointmentReminders,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPatientsRepository) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	if patient.ID == "" {
		return fmt.Errorf("patient id is required")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO patients (id, name, email, doctor_id, date_of_birth, phone_number,
		                       medical_conditions, notes, must_change_password)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		patient.ID, patient.Name, patient.Email, patient.DoctorID,
		patient.DateOfBirth, patient.PhoneNumber, pq.Array(patient.MedicalConditions),
		patient.Notes, patient.MustChangePassword,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *PostgresPatientsRepository) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) GetPatientByEmail(ctx context.Context, email string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE lower(email) = lower($1)`, email)
	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient by email: %w", err)
	}
	return p, nil
}

func (r *PostgresPatientsRepository) ListPatientsByDoctor(ctx context.Context, doctorID string) ([]*domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE doctor_id = $1 ORDER BY name`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var out []*domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimPatient assigns an unassigned patient to a doctor. Claiming a patient
// that already belongs to another doctor is rejected.
func (r *PostgresPatientsRepository) ClaimPatient(ctx context.Context, patientID, doctorID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET doctor_id = $2 WHERE id = $1 AND (doctor_id = '' OR doctor_id = $2)`,
		patientID, doctorID)
	if err != nil {
		return fmt.Errorf("failed to claim patient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("patient is not available for claiming")
	}
	return nil
}

func (r *PostgresPatientsRepository) UpdateProfile(ctx context.Context, patient *domain.Patient) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients
		 SET name = $2, date_of_birth = $3, phone_number = $4, medical_conditions = $5
		 WHERE id = $1`,
		patient.ID, patient.Name, patient.DateOfBirth, patient.PhoneNumber,
		pq.Array(patient.MedicalConditions),
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPatientsRepository) UpdateNotificationSettings(ctx context.Context, patientID string, settings domain.NotificationSettings) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients
		 SET medication_reminders = $2, missed_dose = $3, doctor_messages = $4, appointment_reminders = $5
		 WHERE id = $1`,
		patientID, settings.MedicationReminders, settings.MissedDose,
		settings.DoctorMessages, settings.AppointmentReminders,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
