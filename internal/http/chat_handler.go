package httpapi

import (
	"net/http"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// ChatHandler serves the doctor-patient conversation.
type ChatHandler struct {
	chatService service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

func chatMessageView(m *domain.ChatMessage) map[string]any {
	return map[string]any{
		"id":          m.ID,
		"chatId":      m.ChatID,
		"doctorId":    m.DoctorID,
		"doctorName":  m.DoctorName,
		"patientId":   m.PatientID,
		"patientName": m.PatientName,
		"sender":      m.Sender,
		"text":        m.Text,
		"createdAt":   m.CreatedAt,
	}
}

// Send appends a message. The sender side is fixed by the session role; the
// counterpart ids and display names come from the client, which already has
// them on screen.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	var payload struct {
		DoctorID    string `json:"doctorId"`
		DoctorName  string `json:"doctorName"`
		PatientID   string `json:"patientId"`
		PatientName string `json:"patientName"`
		Text        string `json:"text"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	req := service.SendMessageRequest{
		DoctorID:    payload.DoctorID,
		DoctorName:  payload.DoctorName,
		PatientID:   payload.PatientID,
		PatientName: payload.PatientName,
		Text:        payload.Text,
	}
	switch session.Role {
	case domain.RoleDoctor:
		req.Sender = domain.SenderDoctor
		req.DoctorID = session.UserID
		req.DoctorName = session.Name
	case domain.RolePatient:
		req.Sender = domain.SenderPatient
		req.PatientID = session.UserID
		req.PatientName = session.Name
	}

	msg, err := h.chatService.SendMessage(ctx, req)
	if err != nil {
		h.logger.Warn("Chat send failed",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(chatMessageView(msg)))
}

// List serves the full conversation between one doctor and one patient. The
// caller must be one of the two parties.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	doctorID := r.URL.Query().Get("doctorId")
	patientID := r.URL.Query().Get("patientId")
	switch session.Role {
	case domain.RoleDoctor:
		doctorID = session.UserID
	case domain.RolePatient:
		patientID = session.UserID
	}
	if doctorID == "" || patientID == "" {
		writeJSON(w, http.StatusOK, Fail("doctorId and patientId are required"))
		return
	}

	messages, err := h.chatService.ListMessages(ctx, doctorID, patientID)
	if err != nil {
		h.logger.Error("Failed to list chat messages",
			zap.String("doctor_id", doctorID),
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to list messages"))
		return
	}

	views := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		views = append(views, chatMessageView(m))
	}
	writeJSON(w, http.StatusOK, Ok(views))
}
