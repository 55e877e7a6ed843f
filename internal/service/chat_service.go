package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

const maxMessageLength = 500

// ChatService is the append-only conversation store between a doctor and a
// patient.
type ChatService interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (*domain.ChatMessage, error)
	ListMessages(ctx context.Context, doctorID, patientID string) ([]*domain.ChatMessage, error)
}

type SendMessageRequest struct {
	DoctorID    string
	DoctorName  string
	PatientID   string
	PatientName string
	Sender      string
	Text        string
}

type chatService struct {
	chats     repository.ChatsRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewChatService(chats repository.ChatsRepository, publisher events.Publisher, logger *zap.Logger) ChatService {
	return &chatService{chats: chats, publisher: publisher, logger: logger}
}

func (s *chatService) SendMessage(ctx context.Context, req SendMessageRequest) (*domain.ChatMessage, error) {
	if req.DoctorID == "" || req.PatientID == "" {
		return nil, fmt.Errorf("doctor and patient are required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if len([]rune(text)) > maxMessageLength {
		return nil, fmt.Errorf("message is too long (max %d characters)", maxMessageLength)
	}
	if req.Sender != domain.SenderDoctor && req.Sender != domain.SenderPatient {
		return nil, fmt.Errorf("unknown sender: %s", req.Sender)
	}

	msg := &domain.ChatMessage{
		ChatID:      domain.ChatID(req.DoctorID, req.PatientID),
		DoctorID:    req.DoctorID,
		DoctorName:  req.DoctorName,
		PatientID:   req.PatientID,
		PatientName: req.PatientName,
		Sender:      req.Sender,
		Text:        text,
	}
	id, err := s.chats.AppendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.DocumentEvent{
		Type:      events.TypeChatMessageCreated,
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		ChatID:    msg.ChatID,
		MessageID: id,
		From:      req.Sender,
		Text:      text,
		Timestamp: time.Now().Unix(),
	}); err != nil {
		s.logger.Error("Failed to publish chat.message.created event",
			zap.String("chat_id", msg.ChatID),
			zap.Error(err),
		)
	}

	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, doctorID, patientID string) ([]*domain.ChatMessage, error) {
	return s.chats.ListMessages(ctx, domain.ChatID(doctorID, patientID))
}
