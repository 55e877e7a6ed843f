package domain

import (
	"database/sql"
	"time"
)

// In-app notification types, one per trigger.
const (
	NotificationNewMedication   = "newMedication"
	NotificationLabResultsReady = "labResultsReady"
	NotificationDoctorMessage   = "doctorMessage"
)

// Notification maps the notifications table. Read is nullable: rows imported
// from before the read flag existed carry NULL, and the unread count falls
// back to an age check for them.
type Notification struct {
	ID        string       `db:"id"`
	PatientID string       `db:"patient_id"`
	Type      string       `db:"type"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	CreatedAt time.Time    `db:"created_at"`
	Read      sql.NullBool `db:"read"`
}

// Unread reports whether the notification counts toward the badge.
// Rows without a read flag predate the column; treat them as unread only
// while they are less than 30 days old.
func (n *Notification) Unread(now time.Time) bool {
	if n.Read.Valid {
		return !n.Read.Bool
	}
	return now.Sub(n.CreatedAt) < 30*24*time.Hour
}
