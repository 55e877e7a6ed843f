package service

import (
	"context"
	"testing"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsersRepo struct {
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail: map[string]*domain.User{},
		byID:    map[string]*domain.User{},
	}
}

func (f *fakeUsersRepo) CreateUser(_ context.Context, user *domain.User) (string, error) {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return user.ID, nil
}

func (f *fakeUsersRepo) GetUser(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsersRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsersRepo) GetUsersByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	out := map[string]*domain.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsersRepo) SetFCMToken(_ context.Context, userID, token string) error {
	u, ok := f.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.FCMToken.String = token
	u.FCMToken.Valid = true
	return nil
}

func (f *fakeUsersRepo) UpdateDoctorProfile(_ context.Context, user *domain.User) error {
	u, ok := f.byID[user.ID]
	if !ok || u.Role != domain.RoleDoctor {
		return repository.ErrNotFound
	}
	*u = *user
	return nil
}

type fakePatientsRepo struct {
	repository.PatientsRepository
	created []*domain.Patient
}

func (f *fakePatientsRepo) CreatePatient(_ context.Context, patient *domain.Patient) error {
	f.created = append(f.created, patient)
	return nil
}

func setupAuthService(t *testing.T) (AuthService, *fakeUsersRepo, *fakePatientsRepo) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := newFakeUsersRepo()
	patients := &fakePatientsRepo{}
	svc := NewAuthService(users, patients, store.NewRedisKV(client), time.Hour, zap.NewNop())
	return svc, users, patients
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, patients := setupAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Name:     "Иван Петров",
		Email:    "Ivan@Example.com",
		Password: "secret123",
		Role:     domain.RolePatient,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, domain.RolePatient, resp.Role)
	// A patient registration also creates the unassigned profile row.
	require.Len(t, patients.created, 1)
	assert.Equal(t, "", patients.created[0].DoctorID)
	assert.Equal(t, "ivan@example.com", patients.created[0].Email)

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "ivan@example.com",
		Password: "secret123",
		Role:     domain.RolePatient,
	})
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, login.UserID)

	session, err := svc.Resolve(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.UserID, session.UserID)
	assert.Equal(t, domain.RolePatient, session.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name: "X", Email: "x@example.com", Password: "right", Role: domain.RoleDoctor,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "x@example.com", Password: "wrong", Role: domain.RoleDoctor})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_RoleMismatchIsOpaque(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name: "Д-р Георгиева", Email: "doc@example.com", Password: "secret123", Role: domain.RoleDoctor,
	})
	require.NoError(t, err)

	// Right credentials on the wrong portal must look exactly like a wrong
	// password, and no session may exist afterwards.
	_, err = svc.Login(ctx, LoginRequest{Email: "doc@example.com", Password: "secret123", Role: domain.RolePatient})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Name: "A", Email: "dup@example.com", Password: "pw1", Role: domain.RolePatient,
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		Name: "B", Email: "DUP@example.com", Password: "pw2", Role: domain.RoleDoctor,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{
		Name: "X", Email: "out@example.com", Password: "pw", Role: domain.RolePatient,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.AccessToken))

	_, err = svc.Resolve(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
