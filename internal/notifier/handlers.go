package notifier

import (
	"context"
	"fmt"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

// User-facing notification texts, matching what the clients display.
const (
	titleNewMedication = "Ново лекарство"
	bodyNewMedication  = "Добавено е ново лекарство за прием."

	titleLabResultsReady = "Готови изследвания"
	bodyLabResultsReady  = "Вашите лабораторни изследвания са готови."

	titleDoctorMessage        = "Съобщение от лекар"
	fallbackBodyDoctorMessage = "Имате ново съобщение от вашия лекар."
)

// Handler turns document-change events into push sends and in-app
// notification rows. Push is best-effort: a failed send is logged and never
// blocks the in-app write.
type Handler struct {
	users         repository.UsersRepository
	notifications repository.NotificationsRepository
	push          PushSender
	logger        *zap.Logger
}

func NewHandler(users repository.UsersRepository, notifications repository.NotificationsRepository, push PushSender, logger *zap.Logger) *Handler {
	return &Handler{
		users:         users,
		notifications: notifications,
		push:          push,
		logger:        logger,
	}
}

// Handle dispatches one event. Unknown event types are skipped, not failed,
// so a newer producer cannot wedge the consumer group.
func (h *Handler) Handle(ctx context.Context, event events.DocumentEvent) error {
	switch event.Type {
	case events.TypeMedicationCreated:
		return h.handleNewMedication(ctx, event)
	case events.TypeLabResultWritten:
		return h.handleLabResultWritten(ctx, event)
	case events.TypeChatMessageCreated:
		return h.handleChatMessage(ctx, event)
	default:
		h.logger.Warn("Unknown event type", zap.String("event_type", event.Type))
		return nil
	}
}

func (h *Handler) handleNewMedication(ctx context.Context, event events.DocumentEvent) error {
	if event.PatientID == "" {
		return fmt.Errorf("medication.created event missing patient_id")
	}

	h.sendPush(ctx, event.PatientID, titleNewMedication, bodyNewMedication)

	// The in-app record is written regardless of how the push went.
	return h.insertInApp(ctx, event.PatientID, domain.NotificationNewMedication, titleNewMedication, bodyNewMedication)
}

func (h *Handler) handleLabResultWritten(ctx context.Context, event events.DocumentEvent) error {
	// Edge-triggered: only the transition into ready fires. A repeated
	// write that leaves the status at ready stays silent.
	if event.StatusAfter != domain.LabStatusReady {
		h.logger.Debug("Lab result not ready, skipping",
			zap.String("lab_result_id", event.LabResultID),
			zap.String("status", event.StatusAfter),
		)
		return nil
	}
	if event.StatusBefore == domain.LabStatusReady {
		h.logger.Debug("Lab result was already ready, skipping",
			zap.String("lab_result_id", event.LabResultID),
		)
		return nil
	}
	if event.PatientID == "" {
		h.logger.Error("Patient ID missing in lab result event",
			zap.String("lab_result_id", event.LabResultID),
		)
		return fmt.Errorf("lab_result.written event missing patient_id")
	}

	h.sendPush(ctx, event.PatientID, titleLabResultsReady, bodyLabResultsReady)

	// Push and in-app write fail independently; neither aborts the other.
	if err := h.insertInApp(ctx, event.PatientID, domain.NotificationLabResultsReady, titleLabResultsReady, bodyLabResultsReady); err != nil {
		h.logger.Error("Failed to create in-app notification for ready lab results",
			zap.String("patient_id", event.PatientID),
			zap.Error(err),
		)
	}
	return nil
}

func (h *Handler) handleChatMessage(ctx context.Context, event events.DocumentEvent) error {
	// Only doctor messages notify the patient; patient messages surface on
	// the doctor dashboard instead.
	if event.From != domain.SenderDoctor {
		return nil
	}
	if event.PatientID == "" {
		return fmt.Errorf("chat.message.created event missing patient_id")
	}

	body := event.Text
	if body == "" {
		body = fallbackBodyDoctorMessage
	}

	h.sendPush(ctx, event.PatientID, titleDoctorMessage, body)
	return h.insertInApp(ctx, event.PatientID, domain.NotificationDoctorMessage, titleDoctorMessage, body)
}

// sendPush looks up the patient's token and attempts delivery. No token
// means no push; failures are logged and swallowed.
func (h *Handler) sendPush(ctx context.Context, patientID, title, body string) {
	user, err := h.users.GetUser(ctx, patientID)
	if err != nil {
		h.logger.Warn("Failed to load user for push",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		return
	}
	if !user.FCMToken.Valid || user.FCMToken.String == "" {
		return
	}

	if err := h.push.Send(ctx, user.FCMToken.String, title, body); err != nil {
		h.logger.Error("Failed to send push notification",
			zap.String("patient_id", patientID),
			zap.String("title", title),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("Push notification sent",
		zap.String("patient_id", patientID),
		zap.String("title", title),
	)
}

func (h *Handler) insertInApp(ctx context.Context, patientID, kind, title, body string) error {
	_, err := h.notifications.Insert(ctx, &domain.Notification{
		PatientID: patientID,
		Type:      kind,
		Title:     title,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("failed to insert in-app notification: %w", err)
	}
	h.logger.Info("In-app notification created",
		zap.String("patient_id", patientID),
		zap.String("type", kind),
	)
	return nil
}
