package httpapi

import (
	"net/http"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// IntakeHandler serves dose intake recording and the patient dashboard feed.
type IntakeHandler struct {
	intakeService service.IntakeService
	reconciler    *service.Reconciler
	logger        *zap.Logger
}

func NewIntakeHandler(intakeService service.IntakeService, reconciler *service.Reconciler, logger *zap.Logger) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
		reconciler:    reconciler,
		logger:        logger,
	}
}

func intakeView(i *domain.MedicationIntake) map[string]any {
	view := map[string]any{
		"id":            i.ID,
		"medicationId":  i.MedicationID,
		"patientId":     i.PatientID,
		"doctorId":      i.DoctorID,
		"doseId":        i.DoseID,
		"scheduledTime": i.ScheduledTime,
		"state":         i.State(),
	}
	if i.TakenTime.Valid {
		view["takenTime"] = i.TakenTime.String
	}
	if i.Notes != "" {
		view["notes"] = i.Notes
	}
	return view
}

func (h *IntakeHandler) Record(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.RecordIntakeRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	intake, err := h.intakeService.Record(ctx, session.UserID, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(intakeView(intake)))
}

func (h *IntakeHandler) MarkTaken(w http.ResponseWriter, r *http.Request, intakeID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	intake, err := h.intakeService.MarkTaken(ctx, session.UserID, intakeID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(intakeView(intake)))
}

func (h *IntakeHandler) MarkSkipped(w http.ResponseWriter, r *http.Request, intakeID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	intake, err := h.intakeService.MarkSkipped(ctx, session.UserID, intakeID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(intakeView(intake)))
}

// Feed serves the patient dashboard: reconcile first so expired medications
// are archived before the feed is computed, then return the visible intakes
// and the summary counters.
func (h *IntakeHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if err := h.reconciler.ReconcilePatient(ctx, session.UserID); err != nil {
		// The feed still renders from whatever state the tables are in.
		h.logger.Error("Reconcile before feed failed",
			zap.String("patient_id", session.UserID),
			zap.Error(err),
		)
	}

	entries, summary, err := h.intakeService.Feed(ctx, session.UserID, time.Now())
	if err != nil {
		h.logger.Error("Failed to build intake feed",
			zap.String("patient_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to load feed"))
		return
	}

	views := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		views = append(views, intakeView(entry.Intake))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"intakes": views,
		"summary": summary,
	}))
}
