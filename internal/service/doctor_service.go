package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// DoctorService serves the doctor's own profile. Email and role are fixed;
// everything else on the profile page is editable.
type DoctorService interface {
	Profile(ctx context.Context, doctorID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, doctorID string, req DoctorProfileRequest) (*domain.User, error)
}

type DoctorProfileRequest struct {
	Name           string `json:"name"`
	UIN            string `json:"uin"`
	Specialization string `json:"specialization"`
	Hospital       string `json:"hospital"`
}

type doctorService struct {
	users  repository.UsersRepository
	logger *zap.Logger
}

func NewDoctorService(users repository.UsersRepository, logger *zap.Logger) DoctorService {
	return &doctorService{users: users, logger: logger}
}

func (s *doctorService) Profile(ctx context.Context, doctorID string) (*domain.User, error) {
	user, err := s.users.GetUser(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleDoctor {
		return nil, fmt.Errorf("not a doctor account")
	}
	return user, nil
}

func (s *doctorService) UpdateProfile(ctx context.Context, doctorID string, req DoctorProfileRequest) (*domain.User, error) {
	user, err := s.Profile(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	user.UIN = sql.NullString{String: req.UIN, Valid: req.UIN != ""}
	user.Specialization = sql.NullString{String: req.Specialization, Valid: req.Specialization != ""}
	user.Hospital = sql.NullString{String: req.Hospital, Valid: req.Hospital != ""}

	if err := s.users.UpdateDoctorProfile(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Doctor profile updated", zap.String("doctor_id", doctorID))
	return user, nil
}
