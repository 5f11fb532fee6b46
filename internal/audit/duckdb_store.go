// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/stagewatch/internal/logging"
)

// DuckDBStore implements Store on DuckDB for durable audit logging.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store. Call CreateTable
// during initialization before the first Save.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the security_audit table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS security_audit (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			kind TEXT NOT NULL,
			category TEXT,
			severity TEXT,
			detail TEXT,
			matched_value TEXT,
			area TEXT,
			path TEXT NOT NULL,
			method TEXT NOT NULL,
			client_ip TEXT,
			user_agent TEXT,
			user_id TEXT,
			status_code INTEGER,
			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_security_audit_timestamp ON security_audit(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_security_audit_kind ON security_audit(kind);
		CREATE INDEX IF NOT EXISTS idx_security_audit_category ON security_audit(category);
		CREATE INDEX IF NOT EXISTS idx_security_audit_user_id ON security_audit(user_id);
		CREATE INDEX IF NOT EXISTS idx_security_audit_client_ip ON security_audit(client_ip);
	`

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Security audit table created/verified")
	return nil
}

// Save persists a record.
func (s *DuckDBStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	const query = `
		INSERT INTO security_audit (
			id, timestamp, kind, category, severity, detail, matched_value,
			area, path, method, client_ip, user_agent, user_id, status_code,
			request_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Timestamp,
		string(record.Kind),
		record.Category,
		record.Severity,
		record.Detail,
		record.MatchedValue,
		record.Area,
		record.Path,
		record.Method,
		record.ClientIP,
		record.UserAgent,
		record.UserID,
		record.StatusCode,
		record.RequestID,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save audit record: %w", err)
	}
	return nil
}

// Query retrieves records matching the filter, most recent first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	where, args := buildWhere(&filter)

	query := "SELECT id, timestamp, kind, category, severity, detail, matched_value, area, path, method, client_ip, user_agent, user_id, status_code, request_id FROM security_audit" +
		where + " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var kind string
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &kind, &r.Category, &r.Severity, &r.Detail,
			&r.MatchedValue, &r.Area, &r.Path, &r.Method, &r.ClientIP,
			&r.UserAgent, &r.UserID, &r.StatusCode, &r.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Kind = Kind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}

	return records, nil
}

// Count returns the number of records matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	where, args := buildWhere(&filter)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM security_audit"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return count, nil
}

// Delete removes records older than the cutoff.
func (s *DuckDBStore) Delete(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM security_audit WHERE timestamp < ?", before)
	if err != nil {
		return 0, fmt.Errorf("delete audit records: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, nil //nolint:nilerr // deletion succeeded; the count is best-effort
	}
	return count, nil
}

// buildWhere assembles the WHERE clause for a filter.
func buildWhere(filter *QueryFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if cond := inCondition("kind", kindsToStrings(filter.Kinds), &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := inCondition("category", filter.Categories, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := inCondition("severity", filter.Severities, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ClientIP != "" {
		conditions = append(conditions, "client_ip = ?")
		args = append(args, filter.ClientIP)
	}
	if filter.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.Since)
	}
	if filter.Until != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *filter.Until)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// inCondition creates a SQL IN condition for a slice of values.
func inCondition(column string, values []string, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, v)
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

func kindsToStrings(kinds []Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
