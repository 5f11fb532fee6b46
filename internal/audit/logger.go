// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/tomtom215/stagewatch/internal/logging"
)

// Config holds configuration for the audit logger.
type Config struct {
	// Enabled controls whether audit persistence is active.
	Enabled bool `json:"enabled"`

	// RetentionDays is how long to keep records.
	RetentionDays int `json:"retention_days"`

	// CleanupInterval is how often to run retention cleanup.
	CleanupInterval time.Duration `json:"cleanup_interval"`

	// BufferSize is the size of the async write buffer.
	BufferSize int `json:"buffer_size"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
		BufferSize:      1000,
	}
}

// Logger writes audit records to a Store asynchronously so the request path
// never waits on persistence.
type Logger struct {
	config     *Config
	store      Store
	recordChan chan *Record
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewLogger creates an audit logger and starts its async writer.
func NewLogger(store Store, config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	l := &Logger{
		config:     config,
		store:      store,
		recordChan: make(chan *Record, config.BufferSize),
		stopChan:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.asyncWriter()

	return l
}

// asyncWriter persists records from the buffer.
func (l *Logger) asyncWriter() {
	defer l.wg.Done()

	for {
		select {
		case <-l.stopChan:
			// Drain remaining records.
			for {
				select {
				case record := <-l.recordChan:
					l.writeRecord(record)
				default:
					return
				}
			}
		case record := <-l.recordChan:
			l.writeRecord(record)
		}
	}
}

// writeRecord persists a record to the store.
func (l *Logger) writeRecord(record *Record) {
	if l.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.store.Save(ctx, record); err != nil {
		logging.Error().Err(err).Msg("Failed to save audit record")
	}
}

// Log queues an audit record for persistence. Never blocks: a full buffer
// drops the record with a warning.
func (l *Logger) Log(record *Record) {
	if !l.config.Enabled {
		return
	}

	if record.ID == "" {
		record.ID = generateRecordID()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	select {
	case l.recordChan <- record:
	default:
		logging.Warn().Str("record_id", record.ID).Msg("Audit buffer full, dropping record")
	}
}

// StartCleanupRoutine runs retention cleanup until the context is canceled.
func (l *Logger) StartCleanupRoutine(ctx context.Context) {
	interval := l.config.CleanupInterval
	retention := l.config.RetentionDays

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retention)
				count, err := l.store.Delete(ctx, cutoff)
				if err != nil {
					logging.Error().Err(err).Msg("Audit cleanup error")
				} else if count > 0 {
					logging.Info().Int64("count", count).Msg("Cleaned up old audit records")
				}
			}
		}
	}()
}

// Query retrieves records matching the filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	return l.store.Query(ctx, filter)
}

// Count returns the number of records matching the filter.
func (l *Logger) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return l.store.Count(ctx, filter)
}

// Close shuts down the logger after flushing buffered records.
func (l *Logger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopChan)
	})
	l.wg.Wait()
	return nil
}

// generateRecordID generates a unique record ID.
func generateRecordID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}
