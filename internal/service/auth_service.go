package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/store"

	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is deliberately opaque: a role mismatch and a wrong
// password produce the same user-visible failure.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// ErrEmailTaken surfaces duplicate registration with a fixed message.
var ErrEmailTaken = fmt.Errorf("this email is already registered")

// Session is what a bearer token resolves to.
type Session struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// AuthService handles registration, login and session resolution.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (*Session, error)
}

type RegisterRequest struct {
	Name           string
	Email          string
	Password       string
	Role           string
	ProfilePicture string
	UIN            string
}

type LoginRequest struct {
	Email     string
	Password  string
	Role      string
	IPAddress string
	UserAgent string
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	UIN         string `json:"uin,omitempty"`
}

type authService struct {
	users      repository.UsersRepository
	patients   repository.PatientsRepository
	sessions   store.KV
	sessionTTL time.Duration
	logger     *zap.Logger
}

func NewAuthService(users repository.UsersRepository, patients repository.PatientsRepository, sessions store.KV, sessionTTL time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		users:      users,
		patients:   patients,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// HashPassword hashes the password only; independent of email so address
// changes never invalidate credentials.
func HashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

func sessionKey(token string) string { return "session:" + token }

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}
	if req.Role != domain.RoleDoctor && req.Role != domain.RolePatient {
		return nil, fmt.Errorf("unknown role: %s", req.Role)
	}

	if _, err := s.users.GetUserByEmail(ctx, req.Email); err == nil {
		s.logger.Warn("Registration rejected: email already in use",
			zap.String("email", req.Email),
		)
		return nil, ErrEmailTaken
	} else if err != repository.ErrNotFound {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: HashPassword(req.Password),
		Role:         req.Role,
	}
	if req.ProfilePicture != "" {
		user.ProfilePicture = sql.NullString{String: req.ProfilePicture, Valid: true}
	}
	if req.Role == domain.RoleDoctor && req.UIN != "" {
		user.UIN = sql.NullString{String: req.UIN, Valid: true}
	}

	userID, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Patients also get a profile row, unassigned until a doctor claims it.
	if req.Role == domain.RolePatient {
		patient := &domain.Patient{
			ID:       userID,
			Name:     req.Name,
			Email:    req.Email,
			DoctorID: "",
		}
		if err := s.patients.CreatePatient(ctx, patient); err != nil {
			return nil, fmt.Errorf("failed to create patient profile: %w", err)
		}
	}

	s.logger.Info("User registered",
		zap.String("user_id", userID),
		zap.String("role", req.Role),
	)

	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		s.logger.Warn("Login failed: missing credentials",
			zap.String("ip_address", req.IPAddress),
			zap.String("user_agent", req.UserAgent),
		)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err == repository.ErrNotFound {
		s.logger.Warn("Login failed: unknown email",
			zap.String("ip_address", req.IPAddress),
		)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !hashEqual(user.PasswordHash, HashPassword(req.Password)) {
		s.logger.Warn("Login failed: wrong password",
			zap.String("user_id", user.ID),
			zap.String("ip_address", req.IPAddress),
		)
		return nil, ErrInvalidCredentials
	}

	// Role check happens after the credential check so the response never
	// reveals which of the two failed. No session exists at this point.
	if user.Role != req.Role {
		s.logger.Warn("Login failed: role mismatch",
			zap.String("user_id", user.ID),
			zap.String("requested_role", req.Role),
		)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
	)

	return s.startSession(ctx, user)
}

func (s *authService) startSession(ctx context.Context, user *domain.User) (*LoginResponse, error) {
	token := uuid.NewString()
	payload, err := json.Marshal(Session{UserID: user.ID, Name: user.Name, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.sessions.Set(ctx, sessionKey(token), string(payload), s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	resp := &LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
	}
	if user.UIN.Valid {
		resp.UIN = user.UIN.String
	}
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Del(ctx, sessionKey(token))
}

func (s *authService) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidCredentials
	}
	raw, err := s.sessions.Get(ctx, sessionKey(token))
	if err == store.ErrMiss {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func hashEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
