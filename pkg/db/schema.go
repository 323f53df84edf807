// Package db keeps the optional SQLite history of report runs.
package db

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per successful generate run. The ledger itself is never stored.
CREATE TABLE IF NOT EXISTS report_runs (
    id TEXT PRIMARY KEY,               -- UUID
    input_path TEXT NOT NULL,
    output_path TEXT NOT NULL,         -- empty for dry runs
    start_date TEXT NOT NULL,          -- YYYY-MM-DD
    months INTEGER NOT NULL,
    transactions INTEGER NOT NULL,
    grid_rows INTEGER NOT NULL,
    checksum TEXT NOT NULL,            -- SHA-256 of the rendered grid
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_report_runs_created
    ON report_runs(created_at);

CREATE INDEX IF NOT EXISTS idx_report_runs_checksum
    ON report_runs(checksum);

-- Key-value metadata about runs
CREATE TABLE IF NOT EXISTS run_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(ctx context.Context, conn *Connection) error {
	_, err := conn.db.ExecContext(ctx, Schema)
	return err
}
