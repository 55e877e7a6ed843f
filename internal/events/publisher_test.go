package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupPublisher(t *testing.T) (*redis.Client, *RedisPublisher) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, NewRedisPublisher(client, "test:events", zap.NewNop())
}

func TestPublish_AppendsToStream(t *testing.T) {
	client, pub := setupPublisher(t)
	ctx := context.Background()

	err := pub.Publish(ctx, DocumentEvent{
		Type:      TypeMedicationCreated,
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
	})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "test:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, ok := entries[0].Values["data"].(string)
	require.True(t, ok)

	var event DocumentEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))
	assert.Equal(t, TypeMedicationCreated, event.Type)
	assert.Equal(t, "patient-1", event.PatientID)
	// Publish stamps the timestamp when the caller left it zero.
	assert.NotZero(t, event.Timestamp)
}

func TestPublish_FansOutToLiveChannels(t *testing.T) {
	client, pub := setupPublisher(t)
	ctx := context.Background()

	patientSub := client.Subscribe(ctx, LiveChannelForPatient("patient-1"))
	t.Cleanup(func() { patientSub.Close() })
	_, err := patientSub.Receive(ctx)
	require.NoError(t, err)

	doctorSub := client.Subscribe(ctx, LiveChannelForDoctor("doctor-1"))
	t.Cleanup(func() { doctorSub.Close() })
	_, err = doctorSub.Receive(ctx)
	require.NoError(t, err)

	err = pub.Publish(ctx, DocumentEvent{
		Type:      TypeChatMessageCreated,
		PatientID: "patient-1",
		DoctorID:  "doctor-1",
		From:      "doctor",
		Text:      "hello",
	})
	require.NoError(t, err)

	msg, err := patientSub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var event DocumentEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	assert.Equal(t, TypeChatMessageCreated, event.Type)

	msg, err = doctorSub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, "chat.message.created")
}

func TestLiveChannelNames(t *testing.T) {
	assert.Equal(t, "live:patient:p1", LiveChannelForPatient("p1"))
	assert.Equal(t, "live:doctor:d1", LiveChannelForDoctor("d1"))
}
