package domain

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeState_Resolution(t *testing.T) {
	pending := &MedicationIntake{}
	assert.Equal(t, IntakePending, pending.State())

	taken := &MedicationIntake{
		TakenTime: sql.NullString{String: "2026-03-01T08:00:00Z", Valid: true},
	}
	assert.Equal(t, IntakeTaken, taken.State())

	skipped := &MedicationIntake{Skipped: true}
	assert.Equal(t, IntakeSkipped, skipped.State())

	// Rows carrying both flags resolve as taken.
	both := &MedicationIntake{
		TakenTime: sql.NullString{String: "2026-03-01T08:00:00Z", Valid: true},
		Skipped:   true,
	}
	assert.Equal(t, IntakeTaken, both.State())
}

func TestTransition_Taken(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	intake := &MedicationIntake{Skipped: true}

	err := Transition(intake, IntakeTaken, now)
	require.NoError(t, err)

	assert.Equal(t, IntakeTaken, intake.State())
	assert.True(t, intake.TakenTime.Valid)
	assert.Equal(t, "2026-03-01T08:30:00Z", intake.TakenTime.String)
	assert.False(t, intake.Skipped)
}

func TestTransition_Skipped(t *testing.T) {
	now := time.Now()
	intake := &MedicationIntake{
		TakenTime: sql.NullString{String: "2026-03-01T08:00:00Z", Valid: true},
	}

	err := Transition(intake, IntakeSkipped, now)
	require.NoError(t, err)

	assert.Equal(t, IntakeSkipped, intake.State())
	assert.False(t, intake.TakenTime.Valid)
}

func TestTransition_BackToPendingRejected(t *testing.T) {
	intake := &MedicationIntake{Skipped: true}
	err := Transition(intake, IntakePending, time.Now())
	assert.Error(t, err)
	// The failed transition must not touch the row.
	assert.Equal(t, IntakeSkipped, intake.State())
}

func TestTransition_Repeated(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	intake := &MedicationIntake{}

	require.NoError(t, Transition(intake, IntakeTaken, now))
	first := intake.TakenTime.String

	later := now.Add(time.Minute)
	require.NoError(t, Transition(intake, IntakeTaken, later))
	assert.Equal(t, IntakeTaken, intake.State())
	assert.NotEqual(t, first, intake.TakenTime.String)
}

func TestResolvedAt(t *testing.T) {
	taken := &MedicationIntake{
		TakenTime: sql.NullString{String: "2026-03-01T08:00:00Z", Valid: true},
	}
	at, ok := taken.ResolvedAt()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), at)

	// Skipped rows fall back to the scheduled time.
	skipped := &MedicationIntake{Skipped: true, ScheduledTime: "2026-03-02"}
	at, ok = skipped.ResolvedAt()
	require.True(t, ok)
	assert.Equal(t, 2026, at.Year())

	unparseable := &MedicationIntake{Skipped: true, ScheduledTime: "morning"}
	_, ok = unparseable.ResolvedAt()
	assert.False(t, ok)

	pending := &MedicationIntake{}
	_, ok = pending.ResolvedAt()
	assert.False(t, ok)
}

func TestMedicationExpired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	active := &Medication{EndDate: "2026-03-20"}
	assert.False(t, active.Expired(now))

	expired := &Medication{EndDate: "2026-03-10"}
	assert.True(t, expired.Expired(now))

	// No end date or an unparseable one never expires.
	assert.False(t, (&Medication{}).Expired(now))
	assert.False(t, (&Medication{EndDate: "soon"}).Expired(now))
}

func TestNotificationUnread(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	read := &Notification{Read: sql.NullBool{Bool: true, Valid: true}}
	assert.False(t, read.Unread(now))

	unread := &Notification{Read: sql.NullBool{Bool: false, Valid: true}}
	assert.True(t, unread.Unread(now))

	// NULL read: unread while younger than 30 days.
	recent := &Notification{CreatedAt: now.Add(-29 * 24 * time.Hour)}
	assert.True(t, recent.Unread(now))

	old := &Notification{CreatedAt: now.Add(-31 * 24 * time.Hour)}
	assert.False(t, old.Unread(now))
}
