package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PushSender delivers a web-push notification to a device token.
type PushSender interface {
	Send(ctx context.Context, token, title, body string) error
}

// FCMClient sends pushes over the FCM HTTP API.
type FCMClient struct {
	httpClient *resty.Client
	serverKey  string
	logger     *zap.Logger
}

type fcmRequest struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

func NewFCMClient(endpoint, serverKey string, timeout time.Duration, logger *zap.Logger) *FCMClient {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &FCMClient{
		httpClient: client,
		serverKey:  serverKey,
		logger:     logger,
	}
}

var _ PushSender = (*FCMClient)(nil)

func (c *FCMClient) Send(ctx context.Context, token, title, body string) error {
	if token == "" {
		return fmt.Errorf("push token is empty")
	}

	var result fcmResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "key="+c.serverKey).
		SetBody(fcmRequest{
			To:           token,
			Notification: fcmNotification{Title: title, Body: body},
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push request rejected: status %d", resp.StatusCode())
	}
	if result.Failure > 0 && result.Success == 0 {
		return fmt.Errorf("push delivery failed for token")
	}

	c.logger.Debug("Push notification sent", zap.String("title", title))
	return nil
}
