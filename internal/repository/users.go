package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = fmt.Errorf("not found")

// UsersRepository is the account store.
type UsersRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (string, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	SetFCMToken(ctx context.Context, userID, token string) error
	UpdateDoctorProfile(ctx context.Context, user *domain.User) error
}

type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `id::text, name, email, password_hash, role, profile_picture, uin, specialization, hospital, fcm_token, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ProfilePicture,
		&u.UIN,
		&u.Specialization,
		&u.Hospital,
		&u.FCMToken,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.Email == "" {
		return "", fmt.Errorf("email is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, profile_picture, uin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.ProfilePicture, user.UIN,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return user.ID, nil
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresUsersRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// GetUsersByIDs resolves a batch of users keyed by id. Missing ids are
// simply absent from the map.
func (r *PostgresUsersRepository) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, idArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (r *PostgresUsersRepository) SetFCMToken(ctx context.Context, userID, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET fcm_token = $2 WHERE id = $1`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to set fcm token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateDoctorProfile writes the doctor-editable profile fields. Email and
// role never change here.
func (r *PostgresUsersRepository) UpdateDoctorProfile(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $2, uin = $3, specialization = $4, hospital = $5
		 WHERE id = $1 AND role = 'doctor'`,
		user.ID, user.Name, user.UIN, user.Specialization, user.Hospital,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
