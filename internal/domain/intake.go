package domain

import (
	"database/sql"
	"fmt"
	"time"
)

// IntakeState is the resolved lifecycle state of a scheduled dose.
// The table keeps (taken_time, skipped) columns for compatibility with the
// data the clients already exchange; State() is the only place that pair is
// interpreted, and Transition is the only write path that produces it.
type IntakeState string

const (
	IntakePending IntakeState = "pending"
	IntakeTaken   IntakeState = "taken"
	IntakeSkipped IntakeState = "skipped"
)

// MedicationIntake maps the medication_intakes table. A dose with no intake
// row at all is pending by definition.
type MedicationIntake struct {
	ID            string         `db:"id"`
	MedicationID  string         `db:"medication_id"`
	PatientID     string         `db:"patient_id"`
	DoctorID      string         `db:"doctor_id"`
	DoseID        string         `db:"dose_id"`
	ScheduledTime string         `db:"scheduled_time"`
	TakenTime     sql.NullString `db:"taken_time"`
	Skipped       bool           `db:"skipped"`
	Notes         string         `db:"notes"`
}

// State resolves the (taken_time, skipped) pair into a single state.
// A row carrying both is treated as taken; Transition never produces that
// combination, but imported data might.
func (i *MedicationIntake) State() IntakeState {
	if i.TakenTime.Valid && i.TakenTime.String != "" {
		return IntakeTaken
	}
	if i.Skipped {
		return IntakeSkipped
	}
	return IntakePending
}

// ResolvedAt returns the moment the intake left the pending state, or the
// scheduled time for skipped rows that never recorded one.
func (i *MedicationIntake) ResolvedAt() (time.Time, bool) {
	switch i.State() {
	case IntakeTaken:
		t, err := ParseClientTime(i.TakenTime.String)
		return t, err == nil
	case IntakeSkipped:
		t, err := ParseClientTime(i.ScheduledTime)
		return t, err == nil
	}
	return time.Time{}, false
}

// Transition moves the intake to the target state in place. It is the single
// authoritative transition function: marking taken stamps taken_time and
// clears skipped, marking skipped clears taken_time and sets the flag.
// Re-entering the current state is a no-op rather than an error so that
// repeated client taps stay harmless.
func Transition(i *MedicationIntake, to IntakeState, now time.Time) error {
	switch to {
	case IntakeTaken:
		i.TakenTime = sql.NullString{String: now.UTC().Format(time.RFC3339), Valid: true}
		i.Skipped = false
	case IntakeSkipped:
		i.TakenTime = sql.NullString{}
		i.Skipped = true
	case IntakePending:
		return fmt.Errorf("intake cannot transition back to pending")
	default:
		return fmt.Errorf("unknown intake state: %s", to)
	}
	return nil
}
