// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// WebhookConfig configures the webhook sink.
type WebhookConfig struct {
	// URL is the endpoint events are POSTed to.
	URL string `json:"url"`

	// Headers are custom headers added to every delivery (e.g. auth).
	Headers map[string]string `json:"headers,omitempty"`

	// Enabled toggles delivery.
	Enabled bool `json:"enabled"`

	// RatePerSecond caps deliveries; excess events are dropped, never
	// queued, so a noisy attack cannot back up the pipeline. Zero means
	// the default of 2/s.
	RatePerSecond float64 `json:"rate_per_second"`

	// Timeout bounds a single delivery. Zero means 10s.
	Timeout time.Duration `json:"timeout"`
}

// WebhookSink POSTs events as JSON to an external endpoint.
type WebhookSink struct {
	url     string
	headers map[string]string
	client  *http.Client
	limiter *rate.Limiter
	enabled bool
	mu      sync.RWMutex
}

// webhookPayload is the JSON body sent to the endpoint.
type webhookPayload struct {
	EventType string               `json:"event_type"` // security_event or data_access
	Event     *secevent.Event      `json:"event,omitempty"`
	Access    *secevent.DataAccess `json:"access,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Source    string               `json:"source"`
}

// NewWebhookSink creates a webhook sink from config.
func NewWebhookSink(config WebhookConfig) *WebhookSink {
	perSecond := config.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &WebhookSink{
		url:     config.URL,
		headers: headers,
		enabled: config.Enabled,
		limiter: rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1),
		client:  &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the sink will attempt delivery.
func (s *WebhookSink) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled && s.url != ""
}

// SetEnabled toggles delivery.
func (s *WebhookSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// OnSuspiciousActivity implements secevent.Sink.
func (s *WebhookSink) OnSuspiciousActivity(ctx context.Context, event *secevent.Event) error {
	return s.post(ctx, &webhookPayload{
		EventType: "security_event",
		Event:     event,
		Timestamp: time.Now().UTC(),
		Source:    "stagewatch",
	})
}

// LogDataAccess implements secevent.Sink.
func (s *WebhookSink) LogDataAccess(ctx context.Context, access *secevent.DataAccess) error {
	return s.post(ctx, &webhookPayload{
		EventType: "data_access",
		Access:    access,
		Timestamp: time.Now().UTC(),
		Source:    "stagewatch",
	})
}

func (s *WebhookSink) post(ctx context.Context, payload *webhookPayload) error {
	if !s.Enabled() {
		return nil
	}

	// Drop rather than wait: delivery is best-effort and must never back
	// pressure into the request path.
	if !s.limiter.Allow() {
		metrics.RecordSinkDrop()
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	s.mu.RLock()
	url := s.url
	headers := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		headers[k] = v
	}
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.RecordSinkError("webhook")
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordSinkError("webhook")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	metrics.RecordSinkPublish("webhook")
	return nil
}
