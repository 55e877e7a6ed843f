package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDoctorProfile_UpdateEditableFields(t *testing.T) {
	users := newFakeUsersRepo()
	_, err := users.CreateUser(context.Background(), &domain.User{
		ID:    "doc-1",
		Name:  "Д-р Георгиева",
		Email: "doc@example.com",
		Role:  domain.RoleDoctor,
		UIN:   sql.NullString{String: "1234567890", Valid: true},
	})
	require.NoError(t, err)

	svc := NewDoctorService(users, zap.NewNop())

	updated, err := svc.UpdateProfile(context.Background(), "doc-1", DoctorProfileRequest{
		Name:           "Д-р Мария Георгиева",
		UIN:            "1234567890",
		Specialization: "Кардиология",
		Hospital:       "УМБАЛ Св. Георги",
	})
	require.NoError(t, err)
	assert.Equal(t, "Д-р Мария Георгиева", updated.Name)
	assert.Equal(t, "Кардиология", updated.Specialization.String)
	assert.Equal(t, "УМБАЛ Св. Георги", updated.Hospital.String)
	// Email never changes through the profile page.
	assert.Equal(t, "doc@example.com", updated.Email)

	profile, err := svc.Profile(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "УМБАЛ Св. Георги", profile.Hospital.String)
}

func TestDoctorProfile_EmptyNameKeepsOld(t *testing.T) {
	users := newFakeUsersRepo()
	_, err := users.CreateUser(context.Background(), &domain.User{
		ID: "doc-1", Name: "Д-р Петров", Email: "p@example.com", Role: domain.RoleDoctor,
	})
	require.NoError(t, err)

	svc := NewDoctorService(users, zap.NewNop())
	updated, err := svc.UpdateProfile(context.Background(), "doc-1", DoctorProfileRequest{
		Specialization: "Неврология",
	})
	require.NoError(t, err)
	assert.Equal(t, "Д-р Петров", updated.Name)
}

func TestDoctorProfile_PatientAccountRejected(t *testing.T) {
	users := newFakeUsersRepo()
	_, err := users.CreateUser(context.Background(), &domain.User{
		ID: "p-1", Name: "Иван", Email: "i@example.com", Role: domain.RolePatient,
	})
	require.NoError(t, err)

	svc := NewDoctorService(users, zap.NewNop())
	_, err = svc.Profile(context.Background(), "p-1")
	assert.Error(t, err)
}
