// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// NATSConfig configures the NATS JetStream sink.
type NATSConfig struct {
	// URL is the NATS server address.
	URL string `json:"url"`

	// EventTopic receives threat-signal events. Default: security.events
	EventTopic string `json:"event_topic"`

	// AuditTopic receives data-access records. Default: security.audit
	AuditTopic string `json:"audit_topic"`

	// MaxReconnects bounds reconnection attempts. Default: 60
	MaxReconnects int `json:"max_reconnects"`

	// ReconnectWait is the delay between reconnection attempts. Default: 2s
	ReconnectWait time.Duration `json:"reconnect_wait"`
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://127.0.0.1:4222",
		EventTopic:    "security.events",
		AuditTopic:    "security.audit",
		MaxReconnects: 60,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSSink publishes events to NATS JetStream through Watermill, protected
// by a circuit breaker so a broker outage degrades to dropped telemetry
// instead of per-request publish timeouts.
type NATSSink struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	eventTopic     string
	auditTopic     string
	mu             sync.RWMutex
	closed         bool
}

// NewNATSSink creates a JetStream publisher sink.
func NewNATSSink(cfg NATSConfig, logger watermill.LoggerAdapter) (*NATSSink, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	if cfg.EventTopic == "" {
		cfg.EventTopic = "security.events"
	}
	if cfg.AuditTopic == "" {
		cfg.AuditTopic = "security.audit"
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breakerSettings := gobreaker.Settings{
		Name:    "nats-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &NATSSink{
		publisher:      pub,
		circuitBreaker: gobreaker.NewCircuitBreaker[interface{}](breakerSettings),
		eventTopic:     cfg.EventTopic,
		auditTopic:     cfg.AuditTopic,
	}, nil
}

// OnSuspiciousActivity implements secevent.Sink.
func (s *NATSSink) OnSuspiciousActivity(_ context.Context, event *secevent.Event) error {
	data, err := event.Serialize()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.Metadata.Set("category", string(event.Category))
	msg.Metadata.Set("severity", string(event.Severity))

	return s.publish(s.eventTopic, msg)
}

// LogDataAccess implements secevent.Sink.
func (s *NATSSink) LogDataAccess(_ context.Context, access *secevent.DataAccess) error {
	data, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("serialize data access record: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("user_id", access.UserID)
	msg.Metadata.Set("area", access.Area)

	return s.publish(s.auditTopic, msg)
}

// publish sends a message through the circuit breaker. The message UUID
// doubles as Nats-Msg-Id for JetStream deduplication.
func (s *NATSSink) publish(topic string, msg *message.Message) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("nats sink is closed")
	}
	s.mu.RUnlock()

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, s.publisher.Publish(topic, msg)
	})
	if err != nil {
		metrics.RecordSinkError("nats")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	metrics.RecordSinkPublish("nats")
	return nil
}

// Close shuts down the underlying publisher.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.publisher.Close()
}
