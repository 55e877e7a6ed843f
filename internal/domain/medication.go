package domain

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// MedicationDose is one scheduled dose of a medication (e.g. 10 мг in the
// morning).
type MedicationDose struct {
	ID           string  `db:"id" json:"id"`
	MedicationID string  `db:"medication_id" json:"-"`
	Amount       float64 `db:"amount" json:"amount"`
	Unit         string  `db:"unit" json:"unit"`
	// TimeOfDay is free-form: "morning", "afternoon", "evening", "night" or
	// a literal clock time.
	TimeOfDay string `db:"time_of_day" json:"time"`
}

// Medication maps the medications table. A row existing in the table means
// the medication is still active; the reconciler deletes expired rows.
type Medication struct {
	ID           string           `db:"id"`
	PatientID    string           `db:"patient_id"`
	DoctorID     string           `db:"doctor_id"`
	Name         string           `db:"name"`
	IntakeMethod string           `db:"intake_method"`
	StartDate    string           `db:"start_date"`
	EndDate      string           `db:"end_date"`
	Instructions sql.NullString   `db:"instructions"`
	SideEffects  pq.StringArray   `db:"side_effects"`
	CreatedAt    time.Time        `db:"created_at"`
	Doses        []MedicationDose `db:"-"`
}

// Expired reports whether the medication's end date has passed.
// End dates are stored as ISO date strings the way the clients send them.
func (m *Medication) Expired(now time.Time) bool {
	if m.EndDate == "" {
		return false
	}
	end, err := ParseClientTime(m.EndDate)
	if err != nil {
		return false
	}
	return end.Before(now)
}

// ParseClientTime accepts the timestamp formats clients send: full RFC3339
// or a bare ISO date.
func ParseClientTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
