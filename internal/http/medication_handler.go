package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// MedicationHandler serves prescription CRUD for doctors and the medication
// list for patients.
type MedicationHandler struct {
	medicationService service.MedicationService
	logger            *zap.Logger
}

func NewMedicationHandler(medicationService service.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		medicationService: medicationService,
		logger:            logger,
	}
}

func medicationView(m *domain.Medication) map[string]any {
	view := map[string]any{
		"id":           m.ID,
		"patientId":    m.PatientID,
		"doctorId":     m.DoctorID,
		"name":         m.Name,
		"intakeMethod": m.IntakeMethod,
		"startDate":    m.StartDate,
		"endDate":      m.EndDate,
		"doses":        m.Doses,
		"createdAt":    m.CreatedAt,
	}
	if m.Instructions.Valid {
		view["instructions"] = m.Instructions.String
	}
	if len(m.SideEffects) > 0 {
		view["sideEffects"] = []string(m.SideEffects)
	}
	return view
}

func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.MedicationRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	med, err := h.medicationService.Create(ctx, session.UserID, payload)
	if err != nil {
		h.logger.Warn("Medication create failed",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(medicationView(med)))
}

func (h *MedicationHandler) Update(w http.ResponseWriter, r *http.Request, medicationID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.MedicationRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	med, err := h.medicationService.Update(ctx, session.UserID, medicationID, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(medicationView(med)))
}

func (h *MedicationHandler) Delete(w http.ResponseWriter, r *http.Request, medicationID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if err := h.medicationService.Delete(ctx, session.UserID, medicationID); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": true}))
}

// ListForPatient serves a patient's medications with the prescribing
// doctors resolved, for the patient medication page.
func (h *MedicationHandler) ListForPatient(w http.ResponseWriter, r *http.Request, patientID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if session.Role == domain.RolePatient && patientID != session.UserID {
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}

	meds, doctors, err := h.medicationService.ListForPatient(ctx, patientID)
	if err != nil {
		h.logger.Error("Failed to list medications",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list medications"))
		return
	}

	views := make([]map[string]any, 0, len(meds))
	for _, m := range meds {
		views = append(views, medicationView(m))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"medications": views,
		"doctors":     doctors,
	}))
}

func (h *MedicationHandler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	meds, err := h.medicationService.ListForDoctor(ctx, session.UserID)
	if err != nil {
		h.logger.Error("Failed to list medications",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list medications"))
		return
	}

	views := make([]map[string]any, 0, len(meds))
	for _, m := range meds {
		views = append(views, medicationView(m))
	}
	writeJSON(w, http.StatusOK, Ok(views))
}
