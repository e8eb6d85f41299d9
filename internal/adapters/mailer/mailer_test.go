package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWebhookMailer_RequiresURL(t *testing.T) {
	_, err := NewWebhookMailer(WebhookConfig{URL: "  "})
	assert.Error(t, err)
}

func TestWebhookMailer_Send(t *testing.T) {
	var got webhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m, err := NewWebhookMailer(WebhookConfig{URL: srv.URL, From: "noreply@example.com"})
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), "a@example.com", "Hello", "body"))

	assert.Equal(t, webhookMessage{From: "noreply@example.com", To: "a@example.com", Subject: "Hello", Text: "body"}, got)
}

func TestWebhookMailer_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "relay down", http.StatusBadGateway)
	}))
	defer srv.Close()

	m, err := NewWebhookMailer(WebhookConfig{URL: srv.URL, RetryLimit: 1})
	require.NoError(t, err)

	err = m.Send(context.Background(), "a@example.com", "Hello", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
	assert.Equal(t, int32(2), calls.Load())
}

func TestLogMailer_Send(t *testing.T) {
	assert.NoError(t, NewLogMailer(nil).Send(context.Background(), "a@example.com", "s", "b"))
}
