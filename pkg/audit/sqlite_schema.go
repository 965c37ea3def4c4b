package audit

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the audit database schema.
// Times are stored as Unix nanoseconds so range filters compare numerically.
const Schema = `
-- One row per scrub run
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    project TEXT NOT NULL,
    event_id TEXT,
    config_version TEXT NOT NULL,
    status TEXT NOT NULL,
    errors TEXT,
    reason TEXT,
    duration_ns INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
);

-- Remark counts per rule and redaction kind
CREATE TABLE IF NOT EXISTS audit_remarks (
    record_id TEXT NOT NULL REFERENCES audit_records(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    rule_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    count INTEGER NOT NULL,
    PRIMARY KEY (record_id, position)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_audit_records_recorded_at ON audit_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_audit_records_project ON audit_records(project);
CREATE INDEX IF NOT EXISTS idx_audit_records_event_id ON audit_records(event_id);
CREATE INDEX IF NOT EXISTS idx_audit_remarks_rule_id ON audit_remarks(rule_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
