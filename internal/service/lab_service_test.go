package service

import (
	"context"
	"testing"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeTests_KeyVariants(t *testing.T) {
	tests := NormalizeTests([]map[string]any{
		{"testType": "ПКК", "results": "норма"},
		{"test_type": "Глюкоза", "result": "5.2"},
		{"type": "Холестерол", "value": "4.8"},
		{"test": "Креатинин"},
	})

	require.Len(t, tests, 4)
	assert.Equal(t, domain.LabTest{TestType: "ПКК", Results: "норма"}, tests[0])
	assert.Equal(t, domain.LabTest{TestType: "Глюкоза", Results: "5.2"}, tests[1])
	assert.Equal(t, domain.LabTest{TestType: "Холестерол", Results: "4.8"}, tests[2])
	assert.Equal(t, domain.LabTest{TestType: "Креатинин", Results: ""}, tests[3])
}

func TestNormalizeTests_DropsEntriesWithoutType(t *testing.T) {
	tests := NormalizeTests([]map[string]any{
		{"results": "orphaned"},
		{"testType": "  ", "results": "blank"},
		{"testType": "ПКК"},
	})
	require.Len(t, tests, 1)
	assert.Equal(t, "ПКК", tests[0].TestType)
}

type fakeLabResultsRepo struct {
	repository.LabResultsRepository
	result *domain.LabResult
	before string
}

func (f *fakeLabResultsRepo) GetLabResult(_ context.Context, _ string) (*domain.LabResult, error) {
	return f.result, nil
}

func (f *fakeLabResultsRepo) UpdateStatus(_ context.Context, _, status string) (string, error) {
	before := f.before
	f.before = status
	return before, nil
}

type capturePublisher struct {
	published []events.DocumentEvent
}

func (c *capturePublisher) Publish(_ context.Context, event events.DocumentEvent) error {
	c.published = append(c.published, event)
	return nil
}

func TestSetStatus_PublishesBeforeAndAfter(t *testing.T) {
	repo := &fakeLabResultsRepo{
		result: &domain.LabResult{
			ID:        "lr-1",
			PatientID: "patient-1",
			DoctorID:  "doctor-1",
			Status:    domain.LabStatusPending,
			CreatedAt: time.Now(),
		},
		before: domain.LabStatusPending,
	}
	pub := &capturePublisher{}
	svc := NewLabService(repo, pub, zap.NewNop())

	err := svc.SetStatus(context.Background(), "doctor-1", "lr-1", domain.LabStatusReady)
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	event := pub.published[0]
	assert.Equal(t, events.TypeLabResultWritten, event.Type)
	assert.Equal(t, domain.LabStatusPending, event.StatusBefore)
	assert.Equal(t, domain.LabStatusReady, event.StatusAfter)
	assert.Equal(t, "patient-1", event.PatientID)

	// A second identical write still publishes, now with before == after;
	// suppressing the duplicate is the notifier's job.
	require.NoError(t, svc.SetStatus(context.Background(), "doctor-1", "lr-1", domain.LabStatusReady))
	require.Len(t, pub.published, 2)
	assert.Equal(t, domain.LabStatusReady, pub.published[1].StatusBefore)
}

func TestSetStatus_ForeignDoctorRejected(t *testing.T) {
	repo := &fakeLabResultsRepo{
		result: &domain.LabResult{ID: "lr-1", PatientID: "patient-1", DoctorID: "doctor-1"},
	}
	pub := &capturePublisher{}
	svc := NewLabService(repo, pub, zap.NewNop())

	err := svc.SetStatus(context.Background(), "doctor-2", "lr-1", domain.LabStatusReady)
	assert.Error(t, err)
	assert.Empty(t, pub.published)
}
