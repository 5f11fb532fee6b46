// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package sink

import (
	"context"

	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// MetricsSink counts events in Prometheus. It never fails and is typically
// composed into a MultiSink alongside a delivery sink.
type MetricsSink struct{}

// NewMetricsSink creates a metrics sink.
func NewMetricsSink() *MetricsSink {
	return &MetricsSink{}
}

// OnSuspiciousActivity implements secevent.Sink.
func (s *MetricsSink) OnSuspiciousActivity(_ context.Context, event *secevent.Event) error {
	metrics.RecordSecurityEvent(string(event.Category), string(event.Severity))
	return nil
}

// LogDataAccess implements secevent.Sink.
func (s *MetricsSink) LogDataAccess(_ context.Context, _ *secevent.DataAccess) error {
	metrics.RecordAuditEvent()
	return nil
}
