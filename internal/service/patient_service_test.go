package service

import (
	"context"
	"testing"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRosterRepo struct {
	repository.PatientsRepository
	byEmail map[string]*domain.Patient
	created []*domain.Patient
	claimed map[string]string // patientID -> doctorID
}

func newFakeRosterRepo() *fakeRosterRepo {
	return &fakeRosterRepo{
		byEmail: map[string]*domain.Patient{},
		claimed: map[string]string{},
	}
}

func (f *fakeRosterRepo) GetPatientByEmail(_ context.Context, email string) (*domain.Patient, error) {
	if p, ok := f.byEmail[email]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRosterRepo) CreatePatient(_ context.Context, patient *domain.Patient) error {
	f.created = append(f.created, patient)
	f.byEmail[patient.Email] = patient
	return nil
}

func (f *fakeRosterRepo) ClaimPatient(_ context.Context, patientID, doctorID string) error {
	f.claimed[patientID] = doctorID
	return nil
}

func setupPatientService(t *testing.T) (PatientService, *fakeRosterRepo, *fakeUsersRepo) {
	patients := newFakeRosterRepo()
	users := newFakeUsersRepo()
	svc := NewPatientService(patients, users, nil, zap.NewNop())
	return svc, patients, users
}

func TestAddPatient_NewEmailCreatesAccount(t *testing.T) {
	svc, patients, users := setupPatientService(t)

	result, err := svc.AddPatient(context.Background(), "doctor-1", AddPatientRequest{
		Name:              "Иван Иванов",
		Email:             "Ivan.New@Example.com",
		PhoneNumber:       "0881234567",
		MedicalConditions: []string{"Диабет"},
		Notes:             "Насочен от кардиолог",
	})
	require.NoError(t, err)

	// A fresh account gets a temporary password the doctor hands over.
	require.Len(t, result.TempPassword, 8)

	user, err := users.GetUserByEmail(context.Background(), "ivan.new@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RolePatient, user.Role)
	assert.Equal(t, HashPassword(result.TempPassword), user.PasswordHash)

	require.Len(t, patients.created, 1)
	created := patients.created[0]
	assert.Equal(t, "doctor-1", created.DoctorID)
	assert.Equal(t, "Насочен от кардиолог", created.Notes)
	assert.True(t, created.MustChangePassword)
	assert.Equal(t, "0881234567", created.PhoneNumber.String)
}

func TestAddPatient_ExistingEmailClaims(t *testing.T) {
	svc, patients, users := setupPatientService(t)
	patients.byEmail["maria@example.com"] = &domain.Patient{
		ID:    "p-1",
		Name:  "Мария",
		Email: "maria@example.com",
	}

	result, err := svc.AddPatient(context.Background(), "doctor-1", AddPatientRequest{
		Name:  "Мария",
		Email: "maria@example.com",
	})
	require.NoError(t, err)

	// No new account, no temp password; the existing profile is claimed.
	assert.Empty(t, result.TempPassword)
	assert.Equal(t, "doctor-1", result.Patient.DoctorID)
	assert.Equal(t, "doctor-1", patients.claimed["p-1"])
	assert.Empty(t, users.byEmail)
	assert.Empty(t, patients.created)
}

func TestAddPatient_MissingFields(t *testing.T) {
	svc, _, _ := setupPatientService(t)

	_, err := svc.AddPatient(context.Background(), "doctor-1", AddPatientRequest{Name: "Без имейл"})
	assert.Error(t, err)

	_, err = svc.AddPatient(context.Background(), "doctor-1", AddPatientRequest{Email: "x@example.com"})
	assert.Error(t, err)
}
