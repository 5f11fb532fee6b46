// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package sink

import (
	"context"
	"errors"

	"github.com/tomtom215/stagewatch/internal/secevent"
)

// MultiSink fans out to several sinks. Every sink sees every event; a
// failing sink never prevents delivery to the others.
type MultiSink struct {
	sinks []secevent.Sink
}

// NewMultiSink composes sinks into one. Nil entries are skipped.
func NewMultiSink(sinks ...secevent.Sink) *MultiSink {
	out := make([]secevent.Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

// OnSuspiciousActivity implements secevent.Sink.
func (m *MultiSink) OnSuspiciousActivity(ctx context.Context, event *secevent.Event) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.OnSuspiciousActivity(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogDataAccess implements secevent.Sink.
func (m *MultiSink) LogDataAccess(ctx context.Context, access *secevent.DataAccess) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.LogDataAccess(ctx, access); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
