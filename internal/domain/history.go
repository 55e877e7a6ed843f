package domain

import "time"

// SkippedMedicationHistory maps the history_skipped_medications table: one
// row per medication the reconciler archived after its end date passed.
type SkippedMedicationHistory struct {
	ID             string    `db:"id"`
	MedicationName string    `db:"medication_name"`
	PatientID      string    `db:"patient_id"`
	SkippedAt      time.Time `db:"skipped_at"`
	EndDate        string    `db:"end_date"`
}
