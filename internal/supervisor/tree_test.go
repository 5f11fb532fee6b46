// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// countingService records how many times it was started.
type countingService struct {
	starts atomic.Int32
	block  chan struct{}
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.block:
		return errors.New("induced failure")
	}
}

func (s *countingService) String() string { return "counting-service" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTreeDefaults(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureBackoff != 15*time.Second {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestTreeZeroConfigGetsDefaults(t *testing.T) {
	tree, err := NewTree(discardLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("threshold default not applied: %v", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeout default not applied: %v", tree.config.ShutdownTimeout)
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree, err := NewTree(discardLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}

	svc := &countingService{block: make(chan struct{})}
	tree.AddPipelineService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for svc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("service never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	tree, err := NewTree(discardLogger(), TreeConfig{
		FailureThreshold: 100, // keep restarts immediate for the test
		FailureDecay:     30,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}

	svc := &countingService{block: make(chan struct{})}
	tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for svc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("service never started")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Induce a failure; the supervisor restarts the service.
	svc.block <- struct{}{}

	deadline = time.After(2 * time.Second)
	for svc.starts.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("service not restarted, starts=%d", svc.starts.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
