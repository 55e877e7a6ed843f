package service

import (
	"context"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/repository"

	"go.uber.org/zap"
)

const notificationBadgeLimit = 10

// NotificationFeed is the navbar dropdown payload: the latest notifications
// and the badge count derived from them.
type NotificationFeed struct {
	Notifications []*domain.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

// NotificationService serves the in-app notification feed and read marks.
type NotificationService interface {
	Feed(ctx context.Context, patientID string, now time.Time) (*NotificationFeed, error)
	MarkRead(ctx context.Context, patientID, notificationID string) error
	MarkAllRead(ctx context.Context, patientID string) error
}

type notificationService struct {
	notifications repository.NotificationsRepository
	logger        *zap.Logger
}

func NewNotificationService(notifications repository.NotificationsRepository, logger *zap.Logger) NotificationService {
	return &notificationService{notifications: notifications, logger: logger}
}

func (s *notificationService) Feed(ctx context.Context, patientID string, now time.Time) (*NotificationFeed, error) {
	recent, err := s.notifications.ListRecent(ctx, patientID, notificationBadgeLimit)
	if err != nil {
		return nil, err
	}

	feed := &NotificationFeed{Notifications: recent}
	for _, n := range recent {
		if n.Unread(now) {
			feed.UnreadCount++
		}
	}
	return feed, nil
}

func (s *notificationService) MarkRead(ctx context.Context, patientID, notificationID string) error {
	return s.notifications.MarkRead(ctx, patientID, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, patientID string) error {
	return s.notifications.MarkAllRead(ctx, patientID)
}
