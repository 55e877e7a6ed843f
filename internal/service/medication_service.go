package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// DoctorRef is the prescribing doctor's public subset, resolved for the
// patient medication list.
type DoctorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	UIN  string `json:"uin,omitempty"`
}

// MedicationService owns the prescription CRUD and the doctors-by-id
// resolution the patient views need.
type MedicationService interface {
	Create(ctx context.Context, doctorID string, req MedicationRequest) (*domain.Medication, error)
	Update(ctx context.Context, doctorID, medicationID string, req MedicationRequest) (*domain.Medication, error)
	Delete(ctx context.Context, doctorID, medicationID string) error
	ListForPatient(ctx context.Context, patientID string) ([]*domain.Medication, map[string]DoctorRef, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]*domain.Medication, error)
}

type MedicationRequest struct {
	PatientID    string                  `json:"patientId"`
	Name         string                  `json:"name"`
	Doses        []domain.MedicationDose `json:"doses"`
	IntakeMethod string                  `json:"intakeMethod"`
	StartDate    string                  `json:"startDate"`
	EndDate      string                  `json:"endDate"`
	Instructions string                  `json:"instructions"`
	SideEffects  []string                `json:"sideEffects"`
}

type medicationService struct {
	medications repository.MedicationsRepository
	users       repository.UsersRepository
	publisher   events.Publisher
	logger      *zap.Logger
}

func NewMedicationService(medications repository.MedicationsRepository, users repository.UsersRepository, publisher events.Publisher, logger *zap.Logger) MedicationService {
	return &medicationService{
		medications: medications,
		users:       users,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *medicationService) validate(req MedicationRequest) error {
	if req.PatientID == "" {
		return fmt.Errorf("patientId is required")
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Doses) == 0 {
		return fmt.Errorf("at least one dose is required")
	}
	if req.StartDate == "" || req.EndDate == "" {
		return fmt.Errorf("startDate and endDate are required")
	}
	return nil
}

func (s *medicationService) Create(ctx context.Context, doctorID string, req MedicationRequest) (*domain.Medication, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	med := &domain.Medication{
		PatientID:    req.PatientID,
		DoctorID:     doctorID,
		Name:         req.Name,
		IntakeMethod: req.IntakeMethod,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		SideEffects:  req.SideEffects,
		Doses:        req.Doses,
	}
	if req.Instructions != "" {
		med.Instructions = sql.NullString{String: req.Instructions, Valid: true}
	}

	id, err := s.medications.CreateMedication(ctx, med)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Medication created",
		zap.String("medication_id", id),
		zap.String("patient_id", req.PatientID),
		zap.String("doctor_id", doctorID),
	)

	// The event drives the new-medication notification and the patient's
	// live view. A publish failure must not undo the prescription.
	if err := s.publisher.Publish(ctx, events.DocumentEvent{
		Type:           events.TypeMedicationCreated,
		PatientID:      req.PatientID,
		DoctorID:       doctorID,
		MedicationID:   id,
		MedicationName: req.Name,
		Timestamp:      time.Now().Unix(),
	}); err != nil {
		s.logger.Error("Failed to publish medication.created event",
			zap.String("medication_id", id),
			zap.Error(err),
		)
	}

	return med, nil
}

func (s *medicationService) Update(ctx context.Context, doctorID, medicationID string, req MedicationRequest) (*domain.Medication, error) {
	existing, err := s.medications.GetMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if existing.DoctorID != doctorID {
		return nil, fmt.Errorf("medication belongs to another doctor")
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.IntakeMethod = req.IntakeMethod
	existing.StartDate = req.StartDate
	existing.EndDate = req.EndDate
	existing.SideEffects = req.SideEffects
	existing.Doses = req.Doses
	existing.Instructions = sql.NullString{String: req.Instructions, Valid: req.Instructions != ""}

	if err := s.medications.UpdateMedication(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *medicationService) Delete(ctx context.Context, doctorID, medicationID string) error {
	existing, err := s.medications.GetMedication(ctx, medicationID)
	if err == repository.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.DoctorID != doctorID {
		return fmt.Errorf("medication belongs to another doctor")
	}
	return s.medications.DeleteMedication(ctx, medicationID)
}

// ListForPatient returns the patient's active medications together with the
// prescribing doctors resolved by id.
func (s *medicationService) ListForPatient(ctx context.Context, patientID string) ([]*domain.Medication, map[string]DoctorRef, error) {
	meds, err := s.medications.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}

	seen := map[string]bool{}
	var doctorIDs []string
	for _, m := range meds {
		if m.DoctorID != "" && !seen[m.DoctorID] {
			seen[m.DoctorID] = true
			doctorIDs = append(doctorIDs, m.DoctorID)
		}
	}

	doctors := map[string]DoctorRef{}
	if len(doctorIDs) > 0 {
		users, err := s.users.GetUsersByIDs(ctx, doctorIDs)
		if err != nil {
			return nil, nil, err
		}
		for id, u := range users {
			ref := DoctorRef{ID: id, Name: u.Name}
			if u.UIN.Valid {
				ref.UIN = u.UIN.String
			}
			doctors[id] = ref
		}
	}

	return meds, doctors, nil
}

func (s *medicationService) ListForDoctor(ctx context.Context, doctorID string) ([]*domain.Medication, error) {
	return s.medications.ListByDoctor(ctx, doctorID)
}
