package domain

import (
	"database/sql"
	"time"
)

// Roles a user can register with. The role is fixed at registration and
// checked again on every login.
const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// User maps the users table.
type User struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	PasswordHash   []byte         `db:"password_hash"`
	Role           string         `db:"role"`
	ProfilePicture sql.NullString `db:"profile_picture"`
	// UIN is the doctor's professional identification number. Collected at
	// registration, not validated against any registry.
	UIN            sql.NullString `db:"uin"`
	Specialization sql.NullString `db:"specialization"`
	Hospital       sql.NullString `db:"hospital"`
	FCMToken       sql.NullString `db:"fcm_token"`
	CreatedAt      time.Time      `db:"created_at"`
}
