package domain

import "time"

// Chat message senders.
const (
	SenderDoctor  = "doctor"
	SenderPatient = "patient"
)

// ChatID builds the conversation key. Doctor first on both sides so the two
// widgets land in the same thread.
func ChatID(doctorID, patientID string) string {
	return doctorID + "_" + patientID
}

// ChatMessage maps the chat_messages table. Messages are append-only and
// ordered by CreatedAt.
type ChatMessage struct {
	ID          string    `db:"id"`
	ChatID      string    `db:"chat_id"`
	DoctorID    string    `db:"doctor_id"`
	DoctorName  string    `db:"doctor_name"`
	PatientID   string    `db:"patient_id"`
	PatientName string    `db:"patient_name"`
	Sender      string    `db:"sender"`
	Text        string    `db:"text"`
	CreatedAt   time.Time `db:"created_at"`
}
