package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MetadataLastRun holds the id of the most recently recorded run.
const MetadataLastRun = "last_run_id"

// RunRecord describes one generate run.
type RunRecord struct {
	ID           string
	InputPath    string
	OutputPath   string
	StartDate    string
	Months       int
	Transactions int
	GridRows     int
	Checksum     string
	CreatedAt    time.Time
}

// RunHistory manages report run records.
type RunHistory struct {
	conn *Connection
	now  func() time.Time
}

// NewRunHistory creates a new RunHistory instance.
func NewRunHistory(conn *Connection) *RunHistory {
	return &RunHistory{conn: conn, now: time.Now}
}

const runColumns = `id, input_path, output_path, start_date, months, transactions, grid_rows, checksum, created_at`

// Record stores record under a fresh id and marks it as the last run.
// ID and CreatedAt are assigned here; the stored record is returned.
func (h *RunHistory) Record(ctx context.Context, record RunRecord) (RunRecord, error) {
	record.ID = uuid.NewString()
	record.CreatedAt = h.now().UTC()

	err := h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID,
			record.InputPath,
			record.OutputPath,
			record.StartDate,
			record.Months,
			record.Transactions,
			record.GridRows,
			record.Checksum,
			record.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_metadata (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, MetadataLastRun, record.ID)
		return err
	})
	if err != nil {
		return RunRecord{}, fmt.Errorf("failed to record run: %w", err)
	}
	return record, nil
}

// Get retrieves a run by id. It returns nil when no such run exists.
func (h *RunHistory) Get(ctx context.Context, id string) (*RunRecord, error) {
	row := h.conn.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM report_runs WHERE id = ?`, id)

	record, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &record, nil
}

// Last returns the most recently recorded run, or nil when there is none.
func (h *RunHistory) Last(ctx context.Context) (*RunRecord, error) {
	var id string
	err := h.conn.db.QueryRowContext(ctx, `SELECT value FROM run_metadata WHERE key = ?`, MetadataLastRun).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}
	return h.Get(ctx, id)
}

// List returns up to limit runs, newest first. limit <= 0 returns every run.
func (h *RunHistory) List(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM report_runs ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return h.query(ctx, query, args...)
}

// FindByChecksum returns every run whose grid checksum starts with checksum, newest first.
// A full checksum matches exactly; an empty one matches nothing.
func (h *RunHistory) FindByChecksum(ctx context.Context, checksum string) ([]RunRecord, error) {
	if checksum == "" {
		return nil, nil
	}
	return h.query(ctx,
		`SELECT `+runColumns+` FROM report_runs
		WHERE substr(checksum, 1, length(?)) = ?
		ORDER BY created_at DESC, rowid DESC`,
		checksum, checksum)
}

func (h *RunHistory) query(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	rows, err := h.conn.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var record RunRecord
	err := s.Scan(
		&record.ID,
		&record.InputPath,
		&record.OutputPath,
		&record.StartDate,
		&record.Months,
		&record.Transactions,
		&record.GridRows,
		&record.Checksum,
		&record.CreatedAt,
	)
	return record, err
}

// Stats summarises the run history.
type Stats struct {
	TotalRuns      int
	DistinctInputs int
	LastRun        sql.NullString
}

// GetStats retrieves run statistics.
func (h *RunHistory) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := h.conn.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT input_path) FROM report_runs`,
	).Scan(&stats.TotalRuns, &stats.DistinctInputs)
	if err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	err = h.conn.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM report_runs`).Scan(&stats.LastRun)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

// Delete removes a run. It reports whether a run was deleted.
func (h *RunHistory) Delete(ctx context.Context, id string) (bool, error) {
	result, err := h.conn.db.ExecContext(ctx, `DELETE FROM report_runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
