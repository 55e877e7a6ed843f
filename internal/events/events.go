package events

// Document-change event types. These are the write paths the notifier and
// the live fan-out react to.
const (
	TypeMedicationCreated  = "medication.created"
	TypeLabResultWritten   = "lab_result.written"
	TypeChatMessageCreated = "chat.message.created"
)

// DocumentEvent describes a single document write. Lab result events carry
// the before/after status so the notifier can edge-trigger on the ready
// transition instead of re-deriving it from snapshots.
type DocumentEvent struct {
	Type      string `json:"event_type"`
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id,omitempty"`
	Timestamp int64  `json:"timestamp"`

	MedicationID   string `json:"medication_id,omitempty"`
	MedicationName string `json:"medication_name,omitempty"`

	LabResultID  string `json:"lab_result_id,omitempty"`
	StatusBefore string `json:"status_before,omitempty"`
	StatusAfter  string `json:"status_after,omitempty"`

	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	From      string `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
}
