// internal/notify/webhook.go

// Package notify talks to the chat/notification platform over its inbound
// webhook: conversation channels for matched pairs and the user-facing match
// alert event.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fundmatch-workers/internal/common/config"
	"fundmatch-workers/internal/common/errors"
	httpclient "fundmatch-workers/internal/common/http"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/metrics"
	"fundmatch-workers/internal/models"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookClient posts JSON events to the chat platform. It satisfies the
// matching service's ChatRooms and Notifier collaborator interfaces.
type WebhookClient struct {
	client  *httpclient.Client
	baseURL string
	logger  logger.Logger
}

func NewWebhookClient(cfg config.NotificationConfig, log logger.Logger) *WebhookClient {
	timeout := defaultWebhookTimeout
	if cfg.Webhook.Timeout > 0 {
		timeout = time.Duration(cfg.Webhook.Timeout) * time.Millisecond
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &WebhookClient{
		client:  httpclient.NewClient(timeout),
		baseURL: strings.TrimRight(cfg.Webhook.URL, "/"),
		logger:  log,
	}
}

type createRoomRequest struct {
	Participants []string `json:"participants"`
	Priority     bool     `json:"priority"`
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
}

// matchEventEnvelope wraps the domain event with the platform's event type
// discriminator.
type matchEventEnvelope struct {
	Type string `json:"type"`
	models.MatchEvent
}

// CreateRoom asks the chat platform for the pair's conversation channel. The
// platform keys rooms on the participant pair, so a retried call yields the
// same room rather than a duplicate.
func (w *WebhookClient) CreateRoom(ctx context.Context, userA, userB string, priority bool) (string, error) {
	var out createRoomResponse
	err := w.post(ctx, "/rooms", createRoomRequest{
		Participants: []string{userA, userB},
		Priority:     priority,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.RoomID == "" {
		return "", fmt.Errorf("chat platform returned no room id")
	}
	return out.RoomID, nil
}

// MatchFound delivers the match alert event for one side of a new match.
func (w *WebhookClient) MatchFound(ctx context.Context, userID string, record models.MatchRecord) error {
	occurred := time.Now().UTC()
	if record.RespondedAt != nil {
		occurred = *record.RespondedAt
	}

	event := matchEventEnvelope{
		Type: "match.created",
		MatchEvent: models.MatchEvent{
			MatchID:       record.ID,
			RecipientID:   userID,
			CounterpartID: record.OtherSide(userID),
			Score:         record.CompatibilityScore,
			Quality:       record.MatchQuality,
			Priority:      record.Priority,
			ChatRoomID:    record.ChatRoomID,
			OccurredAt:    occurred,
		},
	}

	if err := w.post(ctx, "/events/match", event, nil); err != nil {
		metrics.MatchAlertsSent.WithLabelValues("webhook", "error").Inc()
		return errors.NewNotificationSendFailedError("webhook", err)
	}

	metrics.MatchAlertsSent.WithLabelValues("webhook", "sent").Inc()
	w.logger.Debug("match event delivered", map[string]interface{}{
		"userId":  userID,
		"matchId": record.ID,
	})
	return nil
}

func (w *WebhookClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if err := w.client.PostJSON(ctx, w.baseURL+path, payload, out); err != nil {
		return fmt.Errorf("webhook %s: %w", path, err)
	}
	return nil
}
