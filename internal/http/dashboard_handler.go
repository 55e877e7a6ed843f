package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// DashboardHandler serves the doctor landing page aggregate.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

func (h *DashboardHandler) DoctorDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	dashboard, err := h.dashboardService.DoctorDashboard(ctx, session.UserID)
	if err != nil {
		h.logger.Error("Failed to build doctor dashboard",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to load dashboard"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(dashboard))
}
