package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		Role           string `json:"role"`
		ProfilePicture string `json:"profilePicture"`
		UIN            string `json:"uin"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	resp, err := h.authService.Register(ctx, service.RegisterRequest{
		Name:           payload.Name,
		Email:          payload.Email,
		Password:       payload.Password,
		Role:           payload.Role,
		ProfilePicture: payload.ProfilePicture,
		UIN:            payload.UIN,
	})
	if err != nil {
		h.logger.Warn("Registration failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	resp, err := h.authService.Login(ctx, service.LoginRequest{
		Email:     payload.Email,
		Password:  payload.Password,
		Role:      payload.Role,
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		// Service logging already has the detail; the client gets the
		// opaque message either way.
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.authService.Logout(ctx, bearerToken(r)); err != nil {
		h.logger.Warn("Logout failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("logout failed"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"loggedOut": true}))
}
