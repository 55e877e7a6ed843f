package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDashPatients struct {
	repository.PatientsRepository
	patients []*domain.Patient
}

func (f *fakeDashPatients) ListPatientsByDoctor(_ context.Context, _ string) ([]*domain.Patient, error) {
	return f.patients, nil
}

type fakeDashMedications struct {
	repository.MedicationsRepository
	meds []*domain.Medication
}

func (f *fakeDashMedications) ListByDoctor(_ context.Context, _ string) ([]*domain.Medication, error) {
	return f.meds, nil
}

type fakeDashIntakes struct {
	repository.IntakesRepository
	intakes []*domain.MedicationIntake
}

func (f *fakeDashIntakes) ListByDoctor(_ context.Context, _ string) ([]*domain.MedicationIntake, error) {
	return f.intakes, nil
}

type fakeDashChats struct {
	repository.ChatsRepository
	messages []*domain.ChatMessage
}

func (f *fakeDashChats) ListRecentPatientMessages(_ context.Context, _ string, _ int) ([]*domain.ChatMessage, error) {
	return f.messages, nil
}

func TestDoctorDashboard_MergesAndSortsActions(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	svc := NewDashboardService(
		&fakeDashPatients{patients: []*domain.Patient{{ID: "p1"}, {ID: "p2"}}},
		&fakeDashMedications{meds: []*domain.Medication{
			{ID: "m1", PatientID: "p1", Name: "Аспирин", CreatedAt: base.Add(2 * time.Hour)},
		}},
		&fakeDashIntakes{intakes: []*domain.MedicationIntake{
			{ID: "i1", PatientID: "p1", MedicationID: "m1",
				TakenTime: sql.NullString{String: base.Add(3 * time.Hour).Format(time.RFC3339), Valid: true}},
			{ID: "i2", PatientID: "p1", MedicationID: "m1", Skipped: true},
		}},
		&fakeDashChats{messages: []*domain.ChatMessage{
			{ID: "msg1", PatientID: "p2", Text: "Имам въпрос", CreatedAt: base.Add(1 * time.Hour)},
		}},
		zap.NewNop(),
	)

	dashboard, err := svc.DoctorDashboard(context.Background(), "doctor-1")
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.PatientCount)
	assert.Equal(t, 1, dashboard.MedicationCount)
	// One of two intakes taken.
	assert.Equal(t, 50, dashboard.Adherence)

	// Newest first across all three streams.
	require.Len(t, dashboard.RecentActions, 3)
	assert.Equal(t, "intake", dashboard.RecentActions[0].Type)
	assert.Equal(t, "medication", dashboard.RecentActions[1].Type)
	assert.Equal(t, "message", dashboard.RecentActions[2].Type)
}

func TestDoctorDashboard_TruncatesToLimit(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	meds := make([]*domain.Medication, 0, 15)
	for i := 0; i < 15; i++ {
		meds = append(meds, &domain.Medication{
			ID:        "m",
			PatientID: "p1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := NewDashboardService(
		&fakeDashPatients{},
		&fakeDashMedications{meds: meds},
		&fakeDashIntakes{},
		&fakeDashChats{},
		zap.NewNop(),
	)

	dashboard, err := svc.DoctorDashboard(context.Background(), "doctor-1")
	require.NoError(t, err)
	assert.Len(t, dashboard.RecentActions, 10)
	// The newest medication leads after truncation.
	assert.Equal(t, base.Add(14*time.Minute), dashboard.RecentActions[0].Timestamp)
}
