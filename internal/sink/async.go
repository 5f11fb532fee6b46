// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package sink

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/stagewatch/internal/logging"
	"github.com/tomtom215/stagewatch/internal/metrics"
	"github.com/tomtom215/stagewatch/internal/secevent"
)

// writeTimeout bounds a single inner-sink delivery so one stuck consumer
// cannot stall the drain worker forever.
const writeTimeout = 5 * time.Second

// AsyncSink decorates a sink with a bounded buffer and a background drain
// worker. Emission from the request path is fire-and-continue: a full
// buffer drops the event with a warning rather than blocking the request.
type AsyncSink struct {
	inner    secevent.Sink
	events   chan *secevent.Event
	accesses chan *secevent.DataAccess
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewAsyncSink wraps inner with a buffer of the given size and starts the
// drain worker. Close must be called to flush on shutdown.
func NewAsyncSink(inner secevent.Sink, bufferSize int) *AsyncSink {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	s := &AsyncSink{
		inner:    inner,
		events:   make(chan *secevent.Event, bufferSize),
		accesses: make(chan *secevent.DataAccess, bufferSize),
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.drain()

	return s
}

// drain delivers buffered items to the inner sink until Close.
func (s *AsyncSink) drain() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			// Flush whatever is still buffered, then exit.
			for {
				select {
				case event := <-s.events:
					s.deliverEvent(event)
				case access := <-s.accesses:
					s.deliverAccess(access)
				default:
					return
				}
			}
		case event := <-s.events:
			s.deliverEvent(event)
		case access := <-s.accesses:
			s.deliverAccess(access)
		}
	}
}

func (s *AsyncSink) deliverEvent(event *secevent.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.inner.OnSuspiciousActivity(ctx, event); err != nil {
		metrics.RecordSinkError("async")
		logging.Error().Err(err).
			Str("category", string(event.Category)).
			Msg("Failed to deliver security event")
	}
}

func (s *AsyncSink) deliverAccess(access *secevent.DataAccess) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.inner.LogDataAccess(ctx, access); err != nil {
		metrics.RecordSinkError("async")
		logging.Error().Err(err).Msg("Failed to deliver data access record")
	}
}

// OnSuspiciousActivity implements secevent.Sink. Never blocks: drops with a
// warning when the buffer is full.
func (s *AsyncSink) OnSuspiciousActivity(_ context.Context, event *secevent.Event) error {
	select {
	case s.events <- event:
	default:
		metrics.RecordSinkDrop()
		logging.Warn().
			Str("category", string(event.Category)).
			Msg("Security event buffer full, dropping event")
	}
	return nil
}

// LogDataAccess implements secevent.Sink. Never blocks.
func (s *AsyncSink) LogDataAccess(_ context.Context, access *secevent.DataAccess) error {
	select {
	case s.accesses <- access:
	default:
		metrics.RecordSinkDrop()
		logging.Warn().Msg("Data access buffer full, dropping record")
	}
	return nil
}

// Close stops the drain worker after flushing buffered items.
func (s *AsyncSink) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}
