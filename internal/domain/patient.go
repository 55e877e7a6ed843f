package domain

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Patient maps the patients table. ID is the same value as the users.id of
// the patient account. DoctorID is empty until a doctor claims the patient.
type Patient struct {
	ID                string         `db:"id"`
	Name              string         `db:"name"`
	Email             string         `db:"email"`
	DoctorID          string         `db:"doctor_id"`
	DateOfBirth       sql.NullString `db:"date_of_birth"`
	PhoneNumber       sql.NullString `db:"phone_number"`
	MedicalConditions pq.StringArray `db:"medical_conditions"`
	Notes             string         `db:"notes"`

	// MustChangePassword marks accounts a doctor created with a temporary
	// password.
	MustChangePassword bool `db:"must_change_password"`

	// Notification preference flags, all on by default.
	MedicationReminders  bool `db:"medication_reminders"`
	MissedDose           bool `db:"missed_dose"`
	DoctorMessages       bool `db:"doctor_messages"`
	AppointmentReminders bool `db:"appointment_reminders"`

	CreatedAt time.Time `db:"created_at"`
}

// NotificationSettings is the patient-editable subset of Patient.
type NotificationSettings struct {
	MedicationReminders  bool `json:"medicationReminders"`
	MissedDose           bool `json:"missedDose"`
	DoctorMessages       bool `json:"doctorMessages"`
	AppointmentReminders bool `json:"appointmentReminders"`
}
