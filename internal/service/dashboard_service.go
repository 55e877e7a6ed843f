package service

import (
	"context"
	"sort"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

const recentActionLimit = 10

// RecentAction is one entry of the doctor dashboard activity feed:
// a prescription written, a dose taken, or a patient message.
type RecentAction struct {
	Type         string    `json:"type"` // "medication" | "intake" | "message"
	ID           string    `json:"id"`
	PatientID    string    `json:"patientId"`
	MedicationID string    `json:"medicationId,omitempty"`
	Name         string    `json:"name,omitempty"`
	Text         string    `json:"text,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// DoctorDashboard is the aggregate the doctor landing page renders.
type DoctorDashboard struct {
	PatientCount    int            `json:"patientCount"`
	MedicationCount int            `json:"medicationCount"`
	Adherence       int            `json:"adherence"`
	RecentActions   []RecentAction `json:"recentActions"`
}

// DashboardService aggregates the doctor's view across patients,
// medications, intakes and chat.
type DashboardService interface {
	DoctorDashboard(ctx context.Context, doctorID string) (*DoctorDashboard, error)
}

type dashboardService struct {
	patients    repository.PatientsRepository
	medications repository.MedicationsRepository
	intakes     repository.IntakesRepository
	chats       repository.ChatsRepository
	logger      *zap.Logger
}

func NewDashboardService(
	patients repository.PatientsRepository,
	medications repository.MedicationsRepository,
	intakes repository.IntakesRepository,
	chats repository.ChatsRepository,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		patients:    patients,
		medications: medications,
		intakes:     intakes,
		chats:       chats,
		logger:      logger,
	}
}

func (s *dashboardService) DoctorDashboard(ctx context.Context, doctorID string) (*DoctorDashboard, error) {
	patients, err := s.patients.ListPatientsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	medications, err := s.medications.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	intakes, err := s.intakes.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListRecentPatientMessages(ctx, doctorID, recentActionLimit)
	if err != nil {
		return nil, err
	}

	dashboard := &DoctorDashboard{
		PatientCount:    len(patients),
		MedicationCount: len(medications),
	}

	// Adherence across every intake this doctor prescribed.
	taken := 0
	for _, intake := range intakes {
		if intake.State() == domain.IntakeTaken {
			taken++
		}
	}
	if len(intakes) > 0 {
		dashboard.Adherence = taken * 100 / len(intakes)
	}

	// The three streams merge under one timestamp sort before truncation,
	// so the feed reads in true order regardless of which stream an entry
	// came from.
	var actions []RecentAction
	for _, med := range medications {
		actions = append(actions, RecentAction{
			Type:         "medication",
			ID:           med.ID,
			PatientID:    med.PatientID,
			MedicationID: med.ID,
			Name:         med.Name,
			Timestamp:    med.CreatedAt,
		})
	}
	for _, intake := range intakes {
		if intake.State() != domain.IntakeTaken {
			continue
		}
		takenAt, ok := intake.ResolvedAt()
		if !ok {
			continue
		}
		actions = append(actions, RecentAction{
			Type:         "intake",
			ID:           intake.ID,
			PatientID:    intake.PatientID,
			MedicationID: intake.MedicationID,
			Timestamp:    takenAt,
		})
	}
	for _, msg := range messages {
		actions = append(actions, RecentAction{
			Type:      "message",
			ID:        msg.ID,
			PatientID: msg.PatientID,
			Text:      msg.Text,
			Timestamp: msg.CreatedAt,
		})
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Timestamp.After(actions[j].Timestamp)
	})
	if len(actions) > recentActionLimit {
		actions = actions[:recentActionLimit]
	}
	dashboard.RecentActions = actions

	return dashboard, nil
}
