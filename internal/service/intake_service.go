package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// IntakeFeedEntry is one row of the patient dashboard feed.
type IntakeFeedEntry struct {
	Intake *domain.MedicationIntake `json:"intake"`
	State  domain.IntakeState       `json:"state"`
}

// IntakeSummary is the dashboard tracker block.
type IntakeSummary struct {
	Total     int `json:"total"`
	Taken     int `json:"taken"`
	Missed    int `json:"missed"`
	Pending   int `json:"pending"`
	Adherence int `json:"adherence"`
}

// IntakeService tracks dose intakes. All state changes funnel through
// domain.Transition.
type IntakeService interface {
	// Record creates an intake row for a dose the patient is acting on for
	// the first time (no row yet means pending).
	Record(ctx context.Context, patientID string, req RecordIntakeRequest) (*domain.MedicationIntake, error)
	MarkTaken(ctx context.Context, patientID, intakeID string) (*domain.MedicationIntake, error)
	MarkSkipped(ctx context.Context, patientID, intakeID string) (*domain.MedicationIntake, error)
	// Feed builds the patient's deduplicated intake feed plus summary
	// counts.
	Feed(ctx context.Context, patientID string, now time.Time) ([]IntakeFeedEntry, IntakeSummary, error)
}

type RecordIntakeRequest struct {
	MedicationID  string `json:"medicationId"`
	DoseID        string `json:"doseId"`
	ScheduledTime string `json:"scheduledTime"`
	Taken         bool   `json:"taken"`
	Notes         string `json:"notes"`
}

type intakeService struct {
	intakes     repository.IntakesRepository
	medications repository.MedicationsRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewIntakeService(intakes repository.IntakesRepository, medications repository.MedicationsRepository, logger *zap.Logger) IntakeService {
	return &intakeService{
		intakes:     intakes,
		medications: medications,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *intakeService) Record(ctx context.Context, patientID string, req RecordIntakeRequest) (*domain.MedicationIntake, error) {
	if req.MedicationID == "" {
		return nil, fmt.Errorf("medicationId is required")
	}

	med, err := s.medications.GetMedication(ctx, req.MedicationID)
	if err != nil {
		return nil, err
	}
	if med.PatientID != patientID {
		return nil, fmt.Errorf("medication belongs to another patient")
	}

	scheduled := req.ScheduledTime
	if scheduled == "" {
		scheduled = s.now().UTC().Format(time.RFC3339)
	}

	intake := &domain.MedicationIntake{
		MedicationID:  req.MedicationID,
		PatientID:     patientID,
		DoctorID:      med.DoctorID,
		DoseID:        req.DoseID,
		ScheduledTime: scheduled,
		Notes:         req.Notes,
	}
	if req.Taken {
		if err := domain.Transition(intake, domain.IntakeTaken, s.now()); err != nil {
			return nil, err
		}
	}

	if _, err := s.intakes.CreateIntake(ctx, intake); err != nil {
		return nil, err
	}
	return intake, nil
}

func (s *intakeService) MarkTaken(ctx context.Context, patientID, intakeID string) (*domain.MedicationIntake, error) {
	return s.transition(ctx, patientID, intakeID, domain.IntakeTaken)
}

func (s *intakeService) MarkSkipped(ctx context.Context, patientID, intakeID string) (*domain.MedicationIntake, error) {
	return s.transition(ctx, patientID, intakeID, domain.IntakeSkipped)
}

func (s *intakeService) transition(ctx context.Context, patientID, intakeID string, to domain.IntakeState) (*domain.MedicationIntake, error) {
	intake, err := s.intakes.GetIntake(ctx, intakeID)
	if err != nil {
		return nil, err
	}
	if intake.PatientID != patientID {
		return nil, fmt.Errorf("intake belongs to another patient")
	}

	if err := domain.Transition(intake, to, s.now()); err != nil {
		return nil, err
	}
	if err := s.intakes.Save(ctx, intake); err != nil {
		return nil, err
	}

	s.logger.Info("Intake state changed",
		zap.String("intake_id", intakeID),
		zap.String("patient_id", patientID),
		zap.String("state", string(to)),
	)
	return intake, nil
}

// Feed applies the dashboard display rules: resolved intakes older than 24
// hours drop out, pending and skipped stay until acted on, and taken rows
// collapse to the first per (medication, dose) pair.
func (s *intakeService) Feed(ctx context.Context, patientID string, now time.Time) ([]IntakeFeedEntry, IntakeSummary, error) {
	intakes, err := s.intakes.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, IntakeSummary{}, err
	}

	var visible []*domain.MedicationIntake
	for _, intake := range intakes {
		if intake.State() == domain.IntakePending {
			visible = append(visible, intake)
			continue
		}
		resolvedAt, ok := intake.ResolvedAt()
		if intake.State() == domain.IntakeSkipped && !ok {
			// Skipped rows with an unparseable schedule still belong in the
			// feed; they have nothing to age out against.
			visible = append(visible, intake)
			continue
		}
		if intake.State() == domain.IntakeSkipped || now.Sub(resolvedAt) < 24*time.Hour {
			visible = append(visible, intake)
		}
	}

	seenTaken := map[string]bool{}
	var entries []IntakeFeedEntry
	var summary IntakeSummary
	for _, intake := range visible {
		state := intake.State()
		if state == domain.IntakeTaken {
			key := intake.MedicationID + "|" + intake.DoseID
			if seenTaken[key] {
				continue
			}
			seenTaken[key] = true
		}
		entries = append(entries, IntakeFeedEntry{Intake: intake, State: state})
		switch state {
		case domain.IntakeTaken:
			summary.Taken++
		case domain.IntakeSkipped:
			summary.Missed++
		default:
			summary.Pending++
		}
	}
	summary.Total = len(entries)
	if summary.Total > 0 {
		summary.Adherence = summary.Taken * 100 / summary.Total
	}

	return entries, summary, nil
}
