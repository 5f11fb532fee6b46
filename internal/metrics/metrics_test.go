// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSecurityEvent(t *testing.T) {
	before := testutil.ToFloat64(SecurityEventsTotal.WithLabelValues("MaliciousUrlPattern", "High"))
	RecordSecurityEvent("MaliciousUrlPattern", "High")
	after := testutil.ToFloat64(SecurityEventsTotal.WithLabelValues("MaliciousUrlPattern", "High"))

	if after != before+1 {
		t.Errorf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestRecordSinkCounters(t *testing.T) {
	before := testutil.ToFloat64(SinkErrorsTotal.WithLabelValues("webhook"))
	RecordSinkError("webhook")
	if got := testutil.ToFloat64(SinkErrorsTotal.WithLabelValues("webhook")); got != before+1 {
		t.Errorf("expected sink error counter increment, got %v", got)
	}

	beforeDrop := testutil.ToFloat64(SinkDroppedTotal)
	RecordSinkDrop()
	if got := testutil.ToFloat64(SinkDroppedTotal); got != beforeDrop+1 {
		t.Errorf("expected drop counter increment, got %v", got)
	}
}

func TestObserveInspectorOverhead(t *testing.T) {
	// Histogram observation must not panic for edge values.
	ObserveInspectorOverhead(0)
	ObserveInspectorOverhead(time.Millisecond)
	ObserveInspectorOverhead(time.Minute)
}
