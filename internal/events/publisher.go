package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Daniel-I1iev/MEDPAL-TrackerApp/internal/redisutil"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher records document writes for the notifier and the live fan-out.
type Publisher interface {
	Publish(ctx context.Context, event DocumentEvent) error
}

// LiveChannelForPatient is the pub/sub channel a patient's websocket
// subscribes to.
func LiveChannelForPatient(patientID string) string {
	return "live:patient:" + patientID
}

// LiveChannelForDoctor is the pub/sub channel a doctor's websocket
// subscribes to.
func LiveChannelForDoctor(doctorID string) string {
	return "live:doctor:" + doctorID
}

// RedisPublisher appends events to the document-event stream (consumed by
// medtrack-notifier) and republishes them on per-user pub/sub channels for
// connected websockets. The stream write is the one that matters; a pub/sub
// publish with no subscribers is a no-op by redis semantics.
type RedisPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream, logger: logger}
}

var _ Publisher = (*RedisPublisher)(nil)

func (p *RedisPublisher) Publish(ctx context.Context, event DocumentEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	id, err := redisutil.PublishJSONToStream(ctx, p.client, p.stream, event)
	if err != nil {
		return fmt.Errorf("failed to publish event to stream: %w", err)
	}

	p.logger.Debug("Published document event",
		zap.String("event_type", event.Type),
		zap.String("stream_id", id),
		zap.String("patient_id", event.PatientID),
	)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for live fan-out: %w", err)
	}
	if event.PatientID != "" {
		if err := p.client.Publish(ctx, LiveChannelForPatient(event.PatientID), payload).Err(); err != nil {
			p.logger.Warn("Live fan-out publish failed",
				zap.String("patient_id", event.PatientID),
				zap.Error(err),
			)
		}
	}
	if event.DoctorID != "" {
		if err := p.client.Publish(ctx, LiveChannelForDoctor(event.DoctorID), payload).Err(); err != nil {
			p.logger.Warn("Live fan-out publish failed",
				zap.String("doctor_id", event.DoctorID),
				zap.Error(err),
			)
		}
	}

	return nil
}
