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

type fakeIntakesRepo struct {
	repository.IntakesRepository
	intakes []*domain.MedicationIntake
	saved   []*domain.MedicationIntake
}

func (f *fakeIntakesRepo) ListByPatient(_ context.Context, _ string) ([]*domain.MedicationIntake, error) {
	return f.intakes, nil
}

func (f *fakeIntakesRepo) GetIntake(_ context.Context, id string) (*domain.MedicationIntake, error) {
	for _, i := range f.intakes {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeIntakesRepo) Save(_ context.Context, intake *domain.MedicationIntake) error {
	f.saved = append(f.saved, intake)
	return nil
}

func takenIntake(id, medID, doseID, takenAt string) *domain.MedicationIntake {
	return &domain.MedicationIntake{
		ID:           id,
		MedicationID: medID,
		PatientID:    "patient-1",
		DoseID:       doseID,
		TakenTime:    sql.NullString{String: takenAt, Valid: true},
	}
}

func TestFeed_Visibility(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeIntakesRepo{intakes: []*domain.MedicationIntake{
		// Pending stays regardless of age.
		{ID: "pending-old", MedicationID: "m1", PatientID: "patient-1", ScheduledTime: "2026-01-01T08:00:00Z"},
		// Skipped stays until acted on, even weeks later.
		{ID: "skipped-old", MedicationID: "m1", PatientID: "patient-1", Skipped: true, ScheduledTime: "2026-02-01T08:00:00Z"},
		// Taken within 24h stays.
		takenIntake("taken-fresh", "m2", "d1", "2026-03-10T08:00:00Z"),
		// Taken older than 24h drops out.
		takenIntake("taken-stale", "m3", "d1", "2026-03-08T08:00:00Z"),
	}}
	svc := NewIntakeService(repo, nil, zap.NewNop())

	entries, summary, err := svc.Feed(context.Background(), "patient-1", now)
	require.NoError(t, err)

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Intake.ID)
	}
	assert.ElementsMatch(t, []string{"pending-old", "skipped-old", "taken-fresh"}, ids)
	assert.Equal(t, 1, summary.Taken)
	assert.Equal(t, 1, summary.Missed)
	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 3, summary.Total)
}

func TestFeed_DeduplicatesTakenPerDose(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &fakeIntakesRepo{intakes: []*domain.MedicationIntake{
		takenIntake("t1", "m1", "dose-a", "2026-03-10T08:00:00Z"),
		takenIntake("t2", "m1", "dose-a", "2026-03-10T09:00:00Z"),
		takenIntake("t3", "m1", "dose-b", "2026-03-10T09:30:00Z"),
	}}
	svc := NewIntakeService(repo, nil, zap.NewNop())

	entries, summary, err := svc.Feed(context.Background(), "patient-1", now)
	require.NoError(t, err)

	// Double-tap on the same dose collapses to the first row; the other dose
	// keeps its own entry.
	require.Len(t, entries, 2)
	assert.Equal(t, "t1", entries[0].Intake.ID)
	assert.Equal(t, "t3", entries[1].Intake.ID)
	assert.Equal(t, 2, summary.Taken)
}

func TestMarkTaken_OtherPatientsIntakeRejected(t *testing.T) {
	repo := &fakeIntakesRepo{intakes: []*domain.MedicationIntake{
		{ID: "i1", MedicationID: "m1", PatientID: "patient-1"},
	}}
	svc := NewIntakeService(repo, nil, zap.NewNop())

	_, err := svc.MarkTaken(context.Background(), "patient-2", "i1")
	assert.Error(t, err)
	assert.Empty(t, repo.saved)
}

func TestMarkSkipped_Transitions(t *testing.T) {
	repo := &fakeIntakesRepo{intakes: []*domain.MedicationIntake{
		{ID: "i1", MedicationID: "m1", PatientID: "patient-1"},
	}}
	svc := NewIntakeService(repo, nil, zap.NewNop())

	intake, err := svc.MarkSkipped(context.Background(), "patient-1", "i1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntakeSkipped, intake.State())
	require.Len(t, repo.saved, 1)
}
