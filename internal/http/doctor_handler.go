package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// DoctorHandler serves the doctor's own profile page.
type DoctorHandler struct {
	doctorService service.DoctorService
	logger        *zap.Logger
}

func NewDoctorHandler(doctorService service.DoctorService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{
		doctorService: doctorService,
		logger:        logger,
	}
}

func doctorView(u *domain.User) map[string]any {
	view := map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
	if u.UIN.Valid {
		view["uin"] = u.UIN.String
	}
	if u.Specialization.Valid {
		view["specialization"] = u.Specialization.String
	}
	if u.Hospital.Valid {
		view["hospital"] = u.Hospital.String
	}
	if u.ProfilePicture.Valid {
		view["profilePicture"] = u.ProfilePicture.String
	}
	return view
}

func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	user, err := h.doctorService.Profile(ctx, session.UserID)
	if err != nil {
		h.logger.Error("Failed to load doctor profile",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to load profile"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(doctorView(user)))
}

func (h *DoctorHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload service.DoctorProfileRequest
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	user, err := h.doctorService.UpdateProfile(ctx, session.UserID, payload)
	if err != nil {
		h.logger.Error("Doctor profile update failed",
			zap.String("doctor_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to update profile"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(doctorView(user)))
}
