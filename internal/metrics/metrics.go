// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

// Package metrics provides Prometheus instrumentation for the detection
// pipeline: event volume per category/severity, sink delivery health, body
// scan activity, and inspector overhead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SecurityEventsTotal counts emitted security events.
	SecurityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_security_events_total",
			Help: "Total number of security events emitted by the inspector",
		},
		[]string{"category", "severity"},
	)

	// AuditEventsTotal counts sensitive-area data access audit records.
	AuditEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_audit_events_total",
			Help: "Total number of sensitive-area access audit records",
		},
	)

	// SinkPublishTotal counts successful sink deliveries.
	SinkPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_sink_publish_total",
			Help: "Total number of events successfully delivered per sink",
		},
		[]string{"sink"},
	)

	// SinkErrorsTotal counts failed sink deliveries.
	SinkErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_sink_errors_total",
			Help: "Total number of sink delivery failures",
		},
		[]string{"sink"},
	)

	// SinkDroppedTotal counts events dropped because a sink buffer was full.
	SinkDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_sink_dropped_total",
			Help: "Total number of events dropped due to a full sink buffer",
		},
	)

	// BodyScansTotal counts form bodies scanned.
	BodyScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_body_scans_total",
			Help: "Total number of form bodies scanned for injection patterns",
		},
	)

	// BodyScansSkippedTotal counts bodies skipped (oversized or unparseable).
	BodyScansSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_body_scans_skipped_total",
			Help: "Total number of form bodies skipped by the scanner",
		},
	)

	// SlowRequestsTotal counts requests exceeding the slow-request threshold.
	SlowRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_slow_requests_total",
			Help: "Total number of requests exceeding the slow-request threshold",
		},
	)

	// HTTPRequestsTotal counts requests served, labeled by outcome.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency per method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagewatch_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// InspectorDuration observes the inspector's own overhead per request,
	// excluding the downstream handler.
	InspectorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagewatch_inspector_duration_seconds",
			Help:    "Time spent in pre/post checks per request, excluding the downstream handler",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		},
	)
)

// RecordSecurityEvent increments the event counter for a category/severity pair.
func RecordSecurityEvent(category, severity string) {
	SecurityEventsTotal.WithLabelValues(category, severity).Inc()
}

// RecordAuditEvent increments the audit record counter.
func RecordAuditEvent() {
	AuditEventsTotal.Inc()
}

// RecordSinkPublish increments the delivery counter for a sink.
func RecordSinkPublish(sink string) {
	SinkPublishTotal.WithLabelValues(sink).Inc()
}

// RecordSinkError increments the failure counter for a sink.
func RecordSinkError(sink string) {
	SinkErrorsTotal.WithLabelValues(sink).Inc()
}

// RecordSinkDrop increments the dropped-event counter.
func RecordSinkDrop() {
	SinkDroppedTotal.Inc()
}

// RecordBodyScan increments the body scan counter.
func RecordBodyScan() {
	BodyScansTotal.Inc()
}

// RecordBodyScanSkipped increments the skipped body scan counter.
func RecordBodyScanSkipped() {
	BodyScansSkippedTotal.Inc()
}

// RecordSlowRequest increments the slow request counter.
func RecordSlowRequest() {
	SlowRequestsTotal.Inc()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// ObserveInspectorOverhead records the inspector's own processing time.
func ObserveInspectorOverhead(d time.Duration) {
	InspectorDuration.Observe(d.Seconds())
}
