package httpapi

import (
	"fmt"
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// LabHandler serves lab orders: creation and status updates for doctors,
// the result list for patients, and the Excel export.
type LabHandler struct {
	labService service.LabService
	logger     *zap.Logger
}

func NewLabHandler(labService service.LabService, logger *zap.Logger) *LabHandler {
	return &LabHandler{
		labService: labService,
		logger:     logger,
	}
}

func labResultView(result *domain.LabResult) map[string]any {
	return map[string]any{
		"id":         result.ID,
		"patientId":  result.PatientID,
		"doctorId":   result.DoctorID,
		"doctorName": result.DoctorName,
		"status":     result.Status,
		"createdAt":  result.CreatedAt,
		"tests":      result.Tests,
	}
}

func (h *LabHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.LabOrderRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	result, err := h.labService.CreateOrder(ctx, session.UserID, session.Name, payload)
	if err != nil {
		h.logger.Warn("Lab order create failed",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(labResultView(result)))
}

func (h *LabHandler) UpdateTests(w http.ResponseWriter, r *http.Request, resultID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload struct {
		Tests []map[string]any `json:"tests"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	if err := h.labService.UpdateTests(ctx, session.UserID, resultID, payload.Tests); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": true}))
}

func (h *LabHandler) SetStatus(w http.ResponseWriter, r *http.Request, resultID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload struct {
		Status string `json:"status"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	if err := h.labService.SetStatus(ctx, session.UserID, resultID, payload.Status); err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": payload.Status}))
}

func (h *LabHandler) ListForPatient(w http.ResponseWriter, r *http.Request, patientID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if session.Role == domain.RolePatient && patientID != session.UserID {
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}

	results, err := h.labService.ListForPatient(ctx, patientID)
	if err != nil {
		h.logger.Error("Failed to list lab results",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list lab results"))
		return
	}

	views := make([]map[string]any, 0, len(results))
	for _, result := range results {
		views = append(views, labResultView(result))
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

func (h *LabHandler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	results, err := h.labService.ListForDoctor(ctx, session.UserID)
	if err != nil {
		h.logger.Error("Failed to list lab results",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list lab results"))
		return
	}

	views := make([]map[string]any, 0, len(results))
	for _, result := range results {
		views = append(views, labResultView(result))
	}
	writeJSON(w, http.StatusOK, Ok(views))
}

// Export streams one lab result as an Excel workbook.
func (h *LabHandler) Export(w http.ResponseWriter, r *http.Request, resultID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	result, err := h.labService.Get(ctx, resultID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("lab result not found"))
		return
	}
	if !canAccessLabResult(session, result) {
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}

	data, err := GenerateLabResultExport(result)
	if err != nil {
		h.logger.Error("Failed to generate lab export",
			zap.String("lab_result_id", resultID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="lab-result-%s.xlsx"`, resultID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func canAccessLabResult(session *service.Session, result *domain.LabResult) bool {
	switch session.Role {
	case domain.RoleDoctor:
		return result.DoctorID == session.UserID
	case domain.RolePatient:
		return result.PatientID == session.UserID
	}
	return false
}
