package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// PatientHandler serves the doctor-side roster endpoints and the
// patient-side profile endpoints.
type PatientHandler struct {
	patientService service.PatientService
	logger         *zap.Logger
}

func NewPatientHandler(patientService service.PatientService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
		logger:         logger,
	}
}

func patientView(p *domain.Patient) map[string]any {
	view := map[string]any{
		"id":       p.ID,
		"name":     p.Name,
		"email":    p.Email,
		"doctorId": p.DoctorID,
		"notificationSettings": domain.NotificationSettings{
			MedicationReminders:  p.MedicationReminders,
			MissedDose:           p.MissedDose,
			DoctorMessages:       p.DoctorMessages,
			AppointmentReminders: p.AppointmentReminders,
		},
	}
	if p.DateOfBirth.Valid {
		view["dateOfBirth"] = p.DateOfBirth.String
	}
	if p.PhoneNumber.Valid {
		view["phoneNumber"] = p.PhoneNumber.String
	}
	if len(p.MedicalConditions) > 0 {
		view["medicalConditions"] = []string(p.MedicalConditions)
	}
	if p.Notes != "" {
		view["notes"] = p.Notes
	}
	if p.MustChangePassword {
		view["mustChangePassword"] = true
	}
	return view
}

// Add either claims an already-registered patient by email or creates a new
// account with a temporary password that is returned to the doctor once.
func (h *PatientHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.AddPatientRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	result, err := h.patientService.AddPatient(ctx, session.UserID, payload)
	if err != nil {
		h.logger.Warn("Add patient failed",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	resp := map[string]any{"patient": patientView(result.Patient)}
	if result.TempPassword != "" {
		resp["tempPassword"] = result.TempPassword
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Claim assigns an unassigned patient, looked up by email, to the calling
// doctor.
func (h *PatientHandler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload struct {
		Email string `json:"email"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	patient, err := h.patientService.Claim(ctx, session.UserID, payload.Email)
	if err != nil {
		h.logger.Warn("Claim failed",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(patientView(patient)))
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	patients, err := h.patientService.ListForDoctor(ctx, session.UserID)
	if err != nil {
		h.logger.Error("Failed to list patients", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list patients"))
		return
	}

	views := make([]map[string]any, 0, len(patients))
	for _, p := range patients {
		views = append(views, patientView(p))
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

// Get serves one patient by id. Doctors may only read their own patients;
// patients may only read themselves.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request, patientID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	patient, err := h.patientService.Get(ctx, patientID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("patient not found"))
		return
	}
	if !canAccessPatient(session, patient) {
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(patientView(patient)))
}

func canAccessPatient(session *service.Session, patient *domain.Patient) bool {
	switch session.Role {
	case domain.RoleDoctor:
		return patient.DoctorID == session.UserID
	case domain.RolePatient:
		return patient.ID == session.UserID
	}
	return false
}

// UpdateProfile lets the patient edit their own profile fields.
func (h *PatientHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.PatientProfileRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	patient, err := h.patientService.UpdateProfile(ctx, session.UserID, payload)
	if err != nil {
		h.logger.Error("Profile update failed",
			zap.String("patient_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to update profile"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(patientView(patient)))
}

func (h *PatientHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload domain.NotificationSettings
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	if err := h.patientService.UpdateNotificationSettings(ctx, session.UserID, payload); err != nil {
		h.logger.Error("Notification settings update failed",
			zap.String("patient_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to update settings"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(payload))
}

// SaveFCMToken stores the web-push token for the calling user.
func (h *PatientHandler) SaveFCMToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload struct {
		Token string `json:"token"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	if err := h.patientService.SaveFCMToken(ctx, session.UserID, payload.Token); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"saved": true}))
}

// SkippedHistory serves the archive of expired medications with missed
// doses.
func (h *PatientHandler) SkippedHistory(w http.ResponseWriter, r *http.Request, patientID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	patient, err := h.patientService.Get(ctx, patientID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("patient not found"))
		return
	}
	if !canAccessPatient(session, patient) {
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}

	history, err := h.patientService.SkippedHistory(ctx, patientID)
	if err != nil {
		h.logger.Error("Failed to load skipped history",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to load history"))
		return
	}

	views := make([]map[string]any, 0, len(history))
	for _, entry := range history {
		views = append(views, map[string]any{
			"id":             entry.ID,
			"medicationName": entry.MedicationName,
			"patientId":      entry.PatientID,
			"skippedAt":      entry.SkippedAt,
			"endDate":        entry.EndDate,
		})
	}
	writeJSON(w, http.StatusOK, Ok(views))
}
