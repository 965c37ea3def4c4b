package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps the database in
	// memory on a single connection.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements Storage on a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens the database and creates the schema.
func NewSQLiteStorage(config *SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	maxOpen, maxIdle := config.MaxOpenConns, config.MaxIdleConns
	if config.Path == ":memory:" {
		// Every connection would see its own empty database.
		maxOpen, maxIdle = 1, 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up pragmas and the schema.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Store inserts or replaces a record together with its remark counts.
func (s *SQLiteStorage) Store(ctx context.Context, record *Record) error {
	if err := validateRecord(record); err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	var errorsVal any
	if len(record.Errors) > 0 {
		data, err := json.Marshal(record.Errors)
		if err != nil {
			return NewStorageError("sqlite", "store", err)
		}
		errorsVal = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_remarks WHERE record_id = ?`, record.ID); err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO audit_records (
			id, project, event_id, config_version, status, errors, reason, duration_ns, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Project, nullString(record.EventID), record.ConfigVersion, record.Status,
		errorsVal, nullString(record.Reason), int64(record.Duration), recordedAt.UnixNano(),
	)
	if err != nil {
		return NewStorageError("sqlite", "store", err)
	}

	for i, rc := range record.Remarks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_remarks (record_id, position, rule_id, kind, count)
			VALUES (?, ?, ?, ?, ?)`,
			record.ID, i, rc.RuleID, rc.Kind, rc.Count,
		)
		if err != nil {
			return NewStorageError("sqlite", "store_remarks", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// Query returns the matching records, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *Query) ([]*Record, error) {
	if query == nil {
		query = &Query{}
	}
	whereClause, args := buildWhereClause(query)

	sqlQuery := `SELECT id, project, event_id, config_version, status, errors, reason, duration_ns, recorded_at
		FROM audit_records`
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY recorded_at DESC, id DESC"

	limit := DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*Record{}
	byID := make(map[string]*Record)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
		byID[record.ID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "query", err)
	}
	rows.Close()

	if err := s.loadRemarks(ctx, byID); err != nil {
		return nil, err
	}
	return records, nil
}

// loadRemarks fills the remark counts of the given records.
func (s *SQLiteStorage) loadRemarks(ctx context.Context, byID map[string]*Record) error {
	if len(byID) == 0 {
		return nil
	}

	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, rule_id, kind, count FROM audit_remarks
		WHERE record_id IN (`+placeholders+`)
		ORDER BY record_id, position`, ids...)
	if err != nil {
		return NewStorageError("sqlite", "query_remarks", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var rc RuleCount
		if err := rows.Scan(&id, &rc.RuleID, &rc.Kind, &rc.Count); err != nil {
			return NewStorageError("sqlite", "scan_remarks", err)
		}
		if record := byID[id]; record != nil {
			record.Remarks = append(record.Remarks, rc)
		}
	}
	if err := rows.Err(); err != nil {
		return NewStorageError("sqlite", "query_remarks", err)
	}
	return nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM audit_records"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes the matching records and their remark counts.
func (s *SQLiteStorage) Delete(ctx context.Context, query *Query) (int64, error) {
	if query == nil {
		query = &Query{}
	}
	whereClause, args := buildWhereClause(query)
	if whereClause == "" {
		whereClause = "1 = 1"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM audit_remarks WHERE record_id IN (SELECT id FROM audit_records WHERE "+whereClause+")",
		args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete_remarks", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM audit_records WHERE "+whereClause, args...)
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, NewStorageError("sqlite", "delete", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError("sqlite", "commit", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite audit storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func buildWhereClause(query *Query) (string, []any) {
	var conditions []string
	var args []any

	if query.Project != "" {
		conditions = append(conditions, "project = ?")
		args = append(args, query.Project)
	}
	if query.EventID != "" {
		conditions = append(conditions, "event_id = ?")
		args = append(args, query.EventID)
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}
	if query.RuleID != "" {
		conditions = append(conditions, "id IN (SELECT record_id FROM audit_remarks WHERE rule_id = ?)")
		args = append(args, query.RuleID)
	}
	if query.StartTime != nil {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "recorded_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

// scanRecord scans one audit_records row.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var record Record
	var eventID, errorsVal, reason sql.NullString
	var durationNs, recordedAt int64

	err := rows.Scan(
		&record.ID, &record.Project, &eventID, &record.ConfigVersion, &record.Status,
		&errorsVal, &reason, &durationNs, &recordedAt,
	)
	if err != nil {
		return nil, err
	}

	record.EventID = eventID.String
	record.Reason = reason.String
	record.Duration = time.Duration(durationNs)
	record.RecordedAt = time.Unix(0, recordedAt).UTC()
	if errorsVal.Valid && errorsVal.String != "" {
		if err := json.Unmarshal([]byte(errorsVal.String), &record.Errors); err != nil {
			return nil, fmt.Errorf("failed to decode error counts: %w", err)
		}
	}
	return &record, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
