package notifier

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	repository.UsersRepository
	users map[string]*domain.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type fakeNotifications struct {
	repository.NotificationsRepository
	inserted []*domain.Notification
	fail     bool
}

func (f *fakeNotifications) Insert(_ context.Context, n *domain.Notification) (string, error) {
	if f.fail {
		return "", fmt.Errorf("insert failed")
	}
	f.inserted = append(f.inserted, n)
	return "n-1", nil
}

type fakePush struct {
	sent []string
	fail bool
}

func (f *fakePush) Send(_ context.Context, token, title, _ string) error {
	if f.fail {
		return fmt.Errorf("send failed")
	}
	f.sent = append(f.sent, token+"|"+title)
	return nil
}

func setupHandler(withToken bool) (*Handler, *fakeNotifications, *fakePush) {
	user := &domain.User{ID: "patient-1", Role: domain.RolePatient}
	if withToken {
		user.FCMToken = sql.NullString{String: "tok-1", Valid: true}
	}
	users := &fakeUsers{users: map[string]*domain.User{"patient-1": user}}
	notifications := &fakeNotifications{}
	push := &fakePush{}
	return NewHandler(users, notifications, push, zap.NewNop()), notifications, push
}

func TestHandle_NewMedication(t *testing.T) {
	h, notifications, push := setupHandler(true)

	err := h.Handle(context.Background(), events.DocumentEvent{
		Type:      events.TypeMedicationCreated,
		PatientID: "patient-1",
	})
	require.NoError(t, err)

	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, domain.NotificationNewMedication, notifications.inserted[0].Type)
	assert.Equal(t, "Ново лекарство", notifications.inserted[0].Title)
	require.Len(t, push.sent, 1)
	assert.Equal(t, "tok-1|Ново лекарство", push.sent[0])
}

func TestHandle_NewMedication_NoTokenStillInserts(t *testing.T) {
	h, notifications, push := setupHandler(false)

	err := h.Handle(context.Background(), events.DocumentEvent{
		Type:      events.TypeMedicationCreated,
		PatientID: "patient-1",
	})
	require.NoError(t, err)
	assert.Len(t, notifications.inserted, 1)
	assert.Empty(t, push.sent)
}

func TestHandle_NewMedication_PushFailureStillInserts(t *testing.T) {
	h, notifications, push := setupHandler(true)
	push.fail = true

	err := h.Handle(context.Background(), events.DocumentEvent{
		Type:      events.TypeMedicationCreated,
		PatientID: "patient-1",
	})
	require.NoError(t, err)
	assert.Len(t, notifications.inserted, 1)
}

func TestHandle_LabResult_EdgeTrigger(t *testing.T) {
	h, notifications, _ := setupHandler(true)
	ctx := context.Background()

	// pending -> ready fires.
	err := h.Handle(ctx, events.DocumentEvent{
		Type:         events.TypeLabResultWritten,
		PatientID:    "patient-1",
		LabResultID:  "lr-1",
		StatusBefore: domain.LabStatusPending,
		StatusAfter:  domain.LabStatusReady,
	})
	require.NoError(t, err)
	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, domain.NotificationLabResultsReady, notifications.inserted[0].Type)
	assert.Equal(t, "Готови изследвания", notifications.inserted[0].Title)

	// ready -> ready must stay silent: only the transition fires.
	err = h.Handle(ctx, events.DocumentEvent{
		Type:         events.TypeLabResultWritten,
		PatientID:    "patient-1",
		LabResultID:  "lr-1",
		StatusBefore: domain.LabStatusReady,
		StatusAfter:  domain.LabStatusReady,
	})
	require.NoError(t, err)
	assert.Len(t, notifications.inserted, 1)

	// pending -> pending stays silent too.
	err = h.Handle(ctx, events.DocumentEvent{
		Type:         events.TypeLabResultWritten,
		PatientID:    "patient-1",
		LabResultID:  "lr-1",
		StatusBefore: domain.LabStatusPending,
		StatusAfter:  domain.LabStatusPending,
	})
	require.NoError(t, err)
	assert.Len(t, notifications.inserted, 1)
}

func TestHandle_LabResult_MissingPatientID(t *testing.T) {
	h, notifications, push := setupHandler(true)

	err := h.Handle(context.Background(), events.DocumentEvent{
		Type:         events.TypeLabResultWritten,
		LabResultID:  "lr-1",
		StatusBefore: domain.LabStatusPending,
		StatusAfter:  domain.LabStatusReady,
	})
	assert.Error(t, err)
	assert.Empty(t, notifications.inserted)
	assert.Empty(t, push.sent)
}

func TestHandle_ChatMessage_DoctorOnly(t *testing.T) {
	h, notifications, _ := setupHandler(true)
	ctx := context.Background()

	err := h.Handle(ctx, events.DocumentEvent{
		Type:      events.TypeChatMessageCreated,
		PatientID: "patient-1",
		From:      domain.SenderDoctor,
		Text:      "Елате утре в 10:00.",
	})
	require.NoError(t, err)
	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, domain.NotificationDoctorMessage, notifications.inserted[0].Type)
	assert.Equal(t, "Елате утре в 10:00.", notifications.inserted[0].Body)

	// Patient messages never notify the patient back.
	err = h.Handle(ctx, events.DocumentEvent{
		Type:      events.TypeChatMessageCreated,
		PatientID: "patient-1",
		From:      domain.SenderPatient,
		Text:      "Благодаря!",
	})
	require.NoError(t, err)
	assert.Len(t, notifications.inserted, 1)
}

func TestHandle_ChatMessage_EmptyTextFallback(t *testing.T) {
	h, notifications, _ := setupHandler(true)

	err := h.Handle(context.Background(), events.DocumentEvent{
		Type:      events.TypeChatMessageCreated,
		PatientID: "patient-1",
		From:      domain.SenderDoctor,
	})
	require.NoError(t, err)
	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, "Имате ново съобщение от вашия лекар.", notifications.inserted[0].Body)
}

func TestHandle_UnknownTypeIgnored(t *testing.T) {
	h, notifications, push := setupHandler(true)

	err := h.Handle(context.Background(), events.DocumentEvent{Type: "something.else"})
	require.NoError(t, err)
	assert.Empty(t, notifications.inserted)
	assert.Empty(t, push.sent)
}
