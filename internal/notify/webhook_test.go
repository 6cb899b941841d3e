// internal/notify/webhook_test.go

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fundmatch-workers/internal/common/config"
	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func newWebhookClient(t *testing.T, serverURL string) *WebhookClient {
	cfg := config.NotificationConfig{}
	cfg.Webhook.Enabled = true
	cfg.Webhook.URL = serverURL
	cfg.Webhook.Timeout = 2000
	return NewWebhookClient(cfg, logger.NewTestLogger(t))
}

func testRecord() models.MatchRecord {
	return models.MatchRecord{
		ID:                 "rec-1",
		InitiatorID:        "ent-001",
		TargetID:           "fun-001",
		Status:             models.StatusMatched,
		CompatibilityScore: 85,
		MatchQuality:       models.QualityHigh,
		Priority:           true,
		ChatRoomID:         "room-1",
	}
}

// ==========================
// CreateRoom Tests
// ==========================

func TestWebhookClient_CreateRoom(t *testing.T) {
	var captured createRoomRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(createRoomResponse{RoomID: "room-42"})
	}))
	defer server.Close()

	client := newWebhookClient(t, server.URL)
	roomID, err := client.CreateRoom(context.Background(), "ent-001", "fun-001", true)
	require.NoError(t, err)

	assert.Equal(t, "room-42", roomID)
	assert.Equal(t, []string{"ent-001", "fun-001"}, captured.Participants)
	assert.True(t, captured.Priority)
}

func TestWebhookClient_CreateRoom_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newWebhookClient(t, server.URL)
	_, err := client.CreateRoom(context.Background(), "ent-001", "fun-001", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookClient_CreateRoom_MissingRoomID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newWebhookClient(t, server.URL)
	_, err := client.CreateRoom(context.Background(), "ent-001", "fun-001", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no room id")
}

// ==========================
// MatchFound Tests
// ==========================

func TestWebhookClient_MatchFound(t *testing.T) {
	var captured matchEventEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/match", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := newWebhookClient(t, server.URL)
	err := client.MatchFound(context.Background(), "fun-001", testRecord())
	require.NoError(t, err)

	assert.Equal(t, "match.created", captured.Type)
	assert.Equal(t, "fun-001", captured.RecipientID)
	assert.Equal(t, "ent-001", captured.CounterpartID)
	assert.Equal(t, "rec-1", captured.MatchID)
	assert.Equal(t, "room-1", captured.ChatRoomID)
	assert.Equal(t, 85, captured.Score)
	assert.Equal(t, models.QualityHigh, captured.Quality)
	assert.True(t, captured.Priority)
	assert.False(t, captured.OccurredAt.IsZero())
}

func TestWebhookClient_MatchFound_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newWebhookClient(t, server.URL)
	err := client.MatchFound(context.Background(), "fun-001", testRecord())
	require.Error(t, err)
	assert.True(t, errors.IsDependency(err))
}

func TestWebhookClient_MatchFound_UnreachableHost(t *testing.T) {
	client := newWebhookClient(t, "http://127.0.0.1:1")

	err := client.MatchFound(context.Background(), "fun-001", testRecord())
	require.Error(t, err)
	assert.True(t, errors.IsDependency(err))
}
