package httpapi

import (
	"net/http"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/domain"
	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/events"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = 50 * time.Second
)

// LiveHandler upgrades a client connection to a websocket and forwards
// document-change events from the user's pub/sub channel, so open views
// refresh without polling.
type LiveHandler struct {
	redisClient *redis.Client
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

func NewLiveHandler(redisClient *redis.Client, logger *zap.Logger) *LiveHandler {
	return &LiveHandler{
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens before the upgrade; the browser clients are
			// served from a different origin than the API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var channel string
	switch session.Role {
	case domain.RoleDoctor:
		channel = events.LiveChannelForDoctor(session.UserID)
	case domain.RolePatient:
		channel = events.LiveChannelForPatient(session.UserID)
	default:
		writeJSON(w, http.StatusForbidden, Fail("insufficient permissions"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	sub := h.redisClient.Subscribe(r.Context(), channel)
	defer sub.Close()

	h.logger.Info("Live connection opened",
		zap.String("user_id", session.UserID),
		zap.String("channel", channel),
	)

	done := make(chan struct{})

	// Reader goroutine: the client sends nothing we care about, but reading
	// is what surfaces closes and pongs.
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	msgs := sub.Channel()
	for {
		select {
		case <-done:
			h.logger.Info("Live connection closed",
				zap.String("user_id", session.UserID),
			)
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Debug("Live write failed",
					zap.String("user_id", session.UserID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
