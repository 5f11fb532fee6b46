// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package services

import (
	"context"
	"time"

	"github.com/tomtom215/stagewatch/internal/audit"
	"github.com/tomtom215/stagewatch/internal/logging"
)

// RetentionService runs periodic audit record cleanup as a supervised
// service. One pass deletes records older than the retention window.
type RetentionService struct {
	store         audit.Store
	retentionDays int
	interval      time.Duration
	name          string
}

// NewRetentionService creates a retention cleanup service.
func NewRetentionService(store audit.Store, retentionDays int, interval time.Duration) *RetentionService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionService{
		store:         store,
		retentionDays: retentionDays,
		interval:      interval,
		name:          "audit-retention",
	}
}

// Serve implements suture.Service.
func (s *RetentionService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *RetentionService) cleanup(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	count, err := s.store.Delete(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Audit retention cleanup failed")
		return
	}
	if count > 0 {
		logging.Info().Int64("count", count).Msg("Cleaned up old audit records")
	}
}

// String implements fmt.Stringer.
func (s *RetentionService) String() string {
	return s.name
}
