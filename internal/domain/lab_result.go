package domain

import "time"

// Lab result statuses. "готово" is the ready marker the clients and the
// notifier agree on; the notifier fires only on the transition into it.
const (
	LabStatusPending = "pending"
	LabStatusReady   = "готово"
)

// LabTest is one ordered test within a lab result.
type LabTest struct {
	ID          string `db:"id" json:"id"`
	LabResultID string `db:"lab_result_id" json:"-"`
	TestType    string `db:"test_type" json:"testType"`
	Results     string `db:"results" json:"results"`
}

// LabResult maps the lab_results table.
type LabResult struct {
	ID         string    `db:"id"`
	PatientID  string    `db:"patient_id"`
	DoctorID   string    `db:"doctor_id"`
	DoctorName string    `db:"doctor_name"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	Tests      []LabTest `db:"-"`
}
