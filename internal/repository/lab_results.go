package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// LabResultsRepository stores lab orders and their test rows.
type LabResultsRepository interface {
	CreateLabResult(ctx context.Context, result *domain.LabResult) (string, error)
	GetLabResult(ctx context.Context, id string) (*domain.LabResult, error)
	ListByPatient(ctx context.Context, patientID string) ([]*domain.LabResult, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*domain.LabResult, error)
	// UpdateStatus sets the status and returns the status the row had
	// before, so callers can publish an edge-triggerable event.
	UpdateStatus(ctx context.Context, id, status string) (before string, err error)
	UpdateTests(ctx context.Context, id string, tests []domain.LabTest) error
}

type PostgresLabResultsRepository struct {
	db *sql.DB
}

func NewPostgresLabResultsRepository(db *sql.DB) *PostgresLabResultsRepository {
	return &PostgresLabResultsRepository{db: db}
}

var _ LabResultsRepository = (*PostgresLabResultsRepository)(nil)

const labResultColumns = `id::text, patient_id::text, doctor_id::text, doctor_name, status, created_at`

func scanLabResult(row interface{ Scan(...any) error }) (*domain.LabResult, error) {
	var lr domain.LabResult
	err := row.Scan(&lr.ID, &lr.PatientID, &lr.DoctorID, &lr.DoctorName, &lr.Status, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *PostgresLabResultsRepository) CreateLabResult(ctx context.Context, result *domain.LabResult) (string, error) {
	if result.PatientID == "" {
		return "", fmt.Errorf("patient_id is required")
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.Status == "" {
		result.Status = domain.LabStatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lab_results (id, patient_id, doctor_id, doctor_name, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		result.ID, result.PatientID, result.DoctorID, result.DoctorName, result.Status,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create lab result: %w", err)
	}

	for i := range result.Tests {
		test := &result.Tests[i]
		if test.ID == "" {
			test.ID = uuid.NewString()
		}
		test.LabResultID = result.ID
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lab_tests (id, lab_result_id, test_type, results)
			 VALUES ($1, $2, $3, $4)`,
			test.ID, result.ID, test.TestType, test.Results,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create lab test: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit lab result: %w", err)
	}
	return result.ID, nil
}

func (r *PostgresLabResultsRepository) GetLabResult(ctx context.Context, id string) (*domain.LabResult, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+labResultColumns+` FROM lab_results WHERE id = $1`, id)
	lr, err := scanLabResult(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lab result: %w", err)
	}
	if err := r.loadTests(ctx, []*domain.LabResult{lr}); err != nil {
		return nil, err
	}
	return lr, nil
}

func (r *PostgresLabResultsRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.LabResult, error) {
	return r.list(ctx, `patient_id = $1`, patientID)
}

func (r *PostgresLabResultsRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*domain.LabResult, error) {
	return r.list(ctx, `doctor_id = $1`, doctorID)
}

func (r *PostgresLabResultsRepository) list(ctx context.Context, where string, arg any) ([]*domain.LabResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+labResultColumns+` FROM lab_results WHERE `+where+` ORDER BY created_at DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab results: %w", err)
	}
	defer rows.Close()

	var out []*domain.LabResult
	for rows.Next() {
		lr, err := scanLabResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab result: %w", err)
		}
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadTests(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresLabResultsRepository) loadTests(ctx context.Context, results []*domain.LabResult) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]string, 0, len(results))
	byID := make(map[string]*domain.LabResult, len(results))
	for _, lr := range results {
		ids = append(ids, lr.ID)
		byID[lr.ID] = lr
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, lab_result_id::text, test_type, COALESCE(results, '')
		 FROM lab_tests WHERE lab_result_id = ANY($1) ORDER BY id`, idArray(ids))
	if err != nil {
		return fmt.Errorf("failed to load lab tests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.LabTest
		if err := rows.Scan(&t.ID, &t.LabResultID, &t.TestType, &t.Results); err != nil {
			return fmt.Errorf("failed to scan lab test: %w", err)
		}
		if lr, ok := byID[t.LabResultID]; ok {
			lr.Tests = append(lr.Tests, t)
		}
	}
	return rows.Err()
}

// UpdateStatus sets the new status and reports the previous one in a single
// statement, so concurrent writers cannot observe a torn before/after pair.
func (r *PostgresLabResultsRepository) UpdateStatus(ctx context.Context, id, status string) (string, error) {
	var before string
	err := r.db.QueryRowContext(ctx,
		`UPDATE lab_results lr SET status = $2
		 FROM (SELECT status AS old_status FROM lab_results WHERE id = $1 FOR UPDATE) prev
		 WHERE lr.id = $1
		 RETURNING prev.old_status`,
		id, status,
	).Scan(&before)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to update lab result status: %w", err)
	}
	return before, nil
}

// UpdateTests replaces the test rows of a result.
func (r *PostgresLabResultsRepository) UpdateTests(ctx context.Context, id string, tests []domain.LabTest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lab_tests WHERE lab_result_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear lab tests: %w", err)
	}
	for i := range tests {
		test := &tests[i]
		if test.ID == "" {
			test.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lab_tests (id, lab_result_id, test_type, results)
			 VALUES ($1, $2, $3, $4)`,
			test.ID, id, test.TestType, test.Results,
		)
		if err != nil {
			return fmt.Errorf("failed to insert lab test: %w", err)
		}
	}
	return tx.Commit()
}
