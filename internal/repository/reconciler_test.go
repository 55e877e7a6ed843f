package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReconcilerMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresReconcilerRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresReconcilerRepository(db)
}

func TestArchiveExpired_WithUnresolvedIntakes(t *testing.T) {
	db, mock, repo := setupReconcilerMock(t)
	defer db.Close()

	med := &domain.Medication{
		ID:        "med-1",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		Name:      "Аспирин",
		EndDate:   "2026-03-01",
	}
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id::text FROM medications WHERE id = \$1 FOR UPDATE`).
		WithArgs("med-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("med-1"))
	mock.ExpectExec(`UPDATE medication_intakes`).
		WithArgs("med-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM medication_intakes`).
		WithArgs("med-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO history_skipped_medications`).
		WithArgs(sqlmock.AnyArg(), "Аспирин", "patient-1", now.UTC(), "2026-03-01").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM medications WHERE id = \$1`).
		WithArgs("med-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	archived, err := repo.ArchiveExpired(context.Background(), med, now)
	require.NoError(t, err)
	assert.True(t, archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveExpired_NoIntakesSynthesizesSkip(t *testing.T) {
	db, mock, repo := setupReconcilerMock(t)
	defer db.Close()

	med := &domain.Medication{
		ID:        "med-2",
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		Name:      "Витамин D",
		EndDate:   "2026-02-28",
	}
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id::text FROM medications WHERE id = \$1 FOR UPDATE`).
		WithArgs("med-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("med-2"))
	mock.ExpectExec(`UPDATE medication_intakes`).
		WithArgs("med-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM medication_intakes`).
		WithArgs("med-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// The synthesized intake keeps the medication name in notes so the feed
	// can still label it after the medication row is gone.
	mock.ExpectExec(`INSERT INTO medication_intakes`).
		WithArgs(sqlmock.AnyArg(), "med-2", "patient-1", "doctor-1", "2026-02-28", "Витамин D").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO history_skipped_medications`).
		WithArgs(sqlmock.AnyArg(), "Витамин D", "patient-1", now.UTC(), "2026-02-28").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM medications WHERE id = \$1`).
		WithArgs("med-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	archived, err := repo.ArchiveExpired(context.Background(), med, now)
	require.NoError(t, err)
	assert.True(t, archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveExpired_AlreadyArchived(t *testing.T) {
	db, mock, repo := setupReconcilerMock(t)
	defer db.Close()

	med := &domain.Medication{ID: "med-3", PatientID: "patient-1", Name: "X", EndDate: "2026-01-01"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id::text FROM medications WHERE id = \$1 FOR UPDATE`).
		WithArgs("med-3").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	archived, err := repo.ArchiveExpired(context.Background(), med, time.Now())
	require.NoError(t, err)
	assert.False(t, archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ReturnsPreviousStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresLabResultsRepository(db)

	mock.ExpectQuery(`UPDATE lab_results lr SET status = \$2`).
		WithArgs("result-1", domain.LabStatusReady).
		WillReturnRows(sqlmock.NewRows([]string{"old_status"}).AddRow(domain.LabStatusPending))

	before, err := repo.UpdateStatus(context.Background(), "result-1", domain.LabStatusReady)
	require.NoError(t, err)
	assert.Equal(t, domain.LabStatusPending, before)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimPatient_NotAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresPatientsRepository(db)

	mock.ExpectExec(`UPDATE patients SET doctor_id = \$2`).
		WithArgs("patient-1", "doctor-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.ClaimPatient(context.Background(), "patient-1", "doctor-2")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
