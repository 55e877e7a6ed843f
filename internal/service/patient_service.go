package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// PatientService covers the doctor-side patient roster and the patient-side
// profile.
type PatientService interface {
	// Claim assigns a registered, unassigned patient to the doctor, looked
	// up by email.
	Claim(ctx context.Context, doctorID, patientEmail string) (*domain.Patient, error)
	// AddPatient claims the patient when the email is already registered,
	// otherwise creates the account with a temporary password.
	AddPatient(ctx context.Context, doctorID string, req AddPatientRequest) (*AddPatientResult, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*domain.Patient, error)
	Get(ctx context.Context, patientID string) (*domain.Patient, error)
	UpdateProfile(ctx context.Context, patientID string, req PatientProfileRequest) (*domain.Patient, error)
	UpdateNotificationSettings(ctx context.Context, patientID string, settings domain.NotificationSettings) error
	SaveFCMToken(ctx context.Context, userID, token string) error
	SkippedHistory(ctx context.Context, patientID string) ([]*domain.SkippedMedicationHistory, error)
}

type PatientProfileRequest struct {
	Name              string   `json:"name"`
	DateOfBirth       string   `json:"dateOfBirth"`
	PhoneNumber       string   `json:"phoneNumber"`
	MedicalConditions []string `json:"medicalConditions"`
}

type AddPatientRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	PhoneNumber       string   `json:"phoneNumber"`
	DateOfBirth       string   `json:"dateOfBirth"`
	MedicalConditions []string `json:"medicalConditions"`
	Notes             string   `json:"notes"`
}

// AddPatientResult carries the temporary password when a new account was
// created; it is empty when an existing patient was claimed instead.
type AddPatientResult struct {
	Patient      *domain.Patient
	TempPassword string
}

type patientService struct {
	patients repository.PatientsRepository
	users    repository.UsersRepository
	history  repository.HistoryRepository
	logger   *zap.Logger
}

func NewPatientService(patients repository.PatientsRepository, users repository.UsersRepository, history repository.HistoryRepository, logger *zap.Logger) PatientService {
	return &patientService{patients: patients, users: users, history: history, logger: logger}
}

func (s *patientService) Claim(ctx context.Context, doctorID, patientEmail string) (*domain.Patient, error) {
	patientEmail = strings.TrimSpace(strings.ToLower(patientEmail))
	if patientEmail == "" {
		return nil, fmt.Errorf("patient email is required")
	}

	patient, err := s.patients.GetPatientByEmail(ctx, patientEmail)
	if err == repository.ErrNotFound {
		return nil, fmt.Errorf("no registered patient with this email")
	}
	if err != nil {
		return nil, err
	}

	if err := s.patients.ClaimPatient(ctx, patient.ID, doctorID); err != nil {
		return nil, err
	}
	patient.DoctorID = doctorID

	s.logger.Info("Patient claimed",
		zap.String("patient_id", patient.ID),
		zap.String("doctor_id", doctorID),
	)
	return patient, nil
}

func (s *patientService) AddPatient(ctx context.Context, doctorID string, req AddPatientRequest) (*AddPatientResult, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}

	// An already-registered email turns the request into a claim.
	existing, err := s.patients.GetPatientByEmail(ctx, req.Email)
	if err == nil {
		if err := s.patients.ClaimPatient(ctx, existing.ID, doctorID); err != nil {
			return nil, err
		}
		existing.DoctorID = doctorID
		s.logger.Info("Existing patient claimed via add",
			zap.String("patient_id", existing.ID),
			zap.String("doctor_id", doctorID),
		)
		return &AddPatientResult{Patient: existing}, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}

	userID, err := s.users.CreateUser(ctx, &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: HashPassword(tempPassword),
		Role:         domain.RolePatient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create patient account: %w", err)
	}

	patient := &domain.Patient{
		ID:                 userID,
		Name:               req.Name,
		Email:              req.Email,
		DoctorID:           doctorID,
		DateOfBirth:        sql.NullString{String: req.DateOfBirth, Valid: req.DateOfBirth != ""},
		PhoneNumber:        sql.NullString{String: req.PhoneNumber, Valid: req.PhoneNumber != ""},
		MedicalConditions:  req.MedicalConditions,
		Notes:              req.Notes,
		MustChangePassword: true,
	}
	if err := s.patients.CreatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient profile: %w", err)
	}

	s.logger.Info("Patient account created by doctor",
		zap.String("patient_id", userID),
		zap.String("doctor_id", doctorID),
	)
	return &AddPatientResult{Patient: patient, TempPassword: tempPassword}, nil
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateTempPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tempPasswordAlphabet[int(b)%len(tempPasswordAlphabet)]
	}
	return string(buf), nil
}

func (s *patientService) ListForDoctor(ctx context.Context, doctorID string) ([]*domain.Patient, error) {
	return s.patients.ListPatientsByDoctor(ctx, doctorID)
}

func (s *patientService) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	return s.patients.GetPatient(ctx, patientID)
}

func (s *patientService) UpdateProfile(ctx context.Context, patientID string, req PatientProfileRequest) (*domain.Patient, error) {
	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		patient.Name = req.Name
	}
	patient.DateOfBirth = sql.NullString{String: req.DateOfBirth, Valid: req.DateOfBirth != ""}
	patient.PhoneNumber = sql.NullString{String: req.PhoneNumber, Valid: req.PhoneNumber != ""}
	patient.MedicalConditions = req.MedicalConditions

	if err := s.patients.UpdateProfile(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *patientService) UpdateNotificationSettings(ctx context.Context, patientID string, settings domain.NotificationSettings) error {
	return s.patients.UpdateNotificationSettings(ctx, patientID, settings)
}

// SaveFCMToken persists the web-push token a client obtained from the
// browser, so the notifier can reach this user.
func (s *patientService) SaveFCMToken(ctx context.Context, userID, token string) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	return s.users.SetFCMToken(ctx, userID, token)
}

func (s *patientService) SkippedHistory(ctx context.Context, patientID string) ([]*domain.SkippedMedicationHistory, error) {
	return s.history.ListByPatient(ctx, patientID)
}
