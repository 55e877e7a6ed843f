package httpapi

import (
	"net/http"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/service"

	"go.uber.org/zap"
)

// NotificationHandler serves the in-app notification dropdown.
type NotificationHandler struct {
	notificationService service.NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

func notificationView(n *domain.Notification, now time.Time) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"type":      n.Type,
		"title":     n.Title,
		"body":      n.Body,
		"createdAt": n.CreatedAt,
		"unread":    n.Unread(now),
	}
}

func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	now := time.Now()
	feed, err := h.notificationService.Feed(ctx, session.UserID, now)
	if err != nil {
		h.logger.Error("Failed to load notification feed",
			zap.String("patient_id", session.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to load notifications"))
		return
	}

	views := make([]map[string]any, 0, len(feed.Notifications))
	for _, n := range feed.Notifications {
		views = append(views, notificationView(n, now))
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"notifications": views,
		"unreadCount":   feed.UnreadCount,
	}))
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, notificationID string) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if err := h.notificationService.MarkRead(ctx, session.UserID, notificationID); err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to mark notification read"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"read": true}))
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := SessionFromContext(ctx)

	if err := h.notificationService.MarkAllRead(ctx, session.UserID); err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to mark notifications read"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"read": true}))
}
