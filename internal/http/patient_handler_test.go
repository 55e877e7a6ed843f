package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePatientService struct {
	service.PatientService
	patient *domain.Patient
	history []*domain.SkippedMedicationHistory
}

func (f *fakePatientService) Get(_ context.Context, _ string) (*domain.Patient, error) {
	return f.patient, nil
}

func (f *fakePatientService) SkippedHistory(_ context.Context, _ string) ([]*domain.SkippedMedicationHistory, error) {
	return f.history, nil
}

func historyRequest(session *service.Session, patientID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+patientID+"/history", nil)
	ctx := context.WithValue(req.Context(), sessionContextKey, session)
	return req.WithContext(ctx)
}

func TestSkippedHistory_ForeignDoctorDenied(t *testing.T) {
	h := NewPatientHandler(&fakePatientService{
		patient: &domain.Patient{ID: "p-1", DoctorID: "doctor-1"},
		history: []*domain.SkippedMedicationHistory{{ID: "h-1", PatientID: "p-1"}},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	session := &service.Session{UserID: "doctor-2", Role: domain.RoleDoctor}
	h.SkippedHistory(rec, historyRequest(session, "p-1"), "p-1")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSkippedHistory_OwnDoctorAllowed(t *testing.T) {
	h := NewPatientHandler(&fakePatientService{
		patient: &domain.Patient{ID: "p-1", DoctorID: "doctor-1"},
		history: []*domain.SkippedMedicationHistory{{
			ID:             "h-1",
			MedicationName: "Витамин D",
			PatientID:      "p-1",
			SkippedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	session := &service.Session{UserID: "doctor-1", Role: domain.RoleDoctor}
	h.SkippedHistory(rec, historyRequest(session, "p-1"), "p-1")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp Result[[]map[string]any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ResultSuccess, resp.Code)
	require.Len(t, resp.Result, 1)
	assert.Equal(t, "Витамин D", resp.Result[0]["medicationName"])
}

func TestSkippedHistory_PatientReadsOnlySelf(t *testing.T) {
	h := NewPatientHandler(&fakePatientService{
		patient: &domain.Patient{ID: "p-1", DoctorID: "doctor-1"},
	}, zap.NewNop())

	rec := httptest.NewRecorder()
	session := &service.Session{UserID: "p-2", Role: domain.RolePatient}
	h.SkippedHistory(rec, historyRequest(session, "p-1"), "p-1")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
