// Package mailer delivers account notifications such as password reset links.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/bhajan-library/internal/ports"
)

var (
	_ ports.Mailer = (*LogMailer)(nil)
	_ ports.Mailer = (*WebhookMailer)(nil)
)

// LogMailer writes messages to the log instead of delivering them. Used in development.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "mail delivered to log", "to", to, "subject", subject, "body", body)
	return nil
}

// WebhookConfig captures the subset of webhook behaviour we need.
type WebhookConfig struct {
	URL        string
	From       string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// WebhookMailer posts messages as JSON to a mail relay webhook.
type WebhookMailer struct {
	url        string
	from       string
	retryLimit int
	client     *http.Client
}

type webhookMessage struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// NewWebhookMailer builds a webhook mailer. Callers should pass a validated config.
func NewWebhookMailer(cfg WebhookConfig) (*WebhookMailer, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, errors.New("mail webhook url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &WebhookMailer{
		url:        u,
		from:       strings.TrimSpace(cfg.From),
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
	}, nil
}

// Send posts the message, retrying with linear backoff.
func (m *WebhookMailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(webhookMessage{From: m.from, To: to, Subject: subject, Text: body})
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	attempts := m.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = m.post(ctx, payload)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

func (m *WebhookMailer) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
