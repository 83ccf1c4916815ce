package scheduler

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"hostsync/internal/common"
	"hostsync/internal/updater"
)

const updateHistorySchema = `
CREATE TABLE IF NOT EXISTS update_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	status TEXT NOT NULL,
	sources_ok INTEGER NOT NULL,
	sources_failed INTEGER NOT NULL,
	bytes_written INTEGER NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS idx_update_history_started_at ON update_history (started_at);
`

// DB is the SQLite journal of update cycle outcomes. It is append-only
// operator history; the scheduler never reads it to make decisions.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// NewDB opens (creating if needed) the history database at dbPath.
func NewDB(dbPath string, logger zerolog.Logger) (*DB, error) {
	dbLogger := logger.With().Str("component", "HistoryDB").Logger()

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, common.WrapError(err, "failed to create history database directory")
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, common.WrapError(err, "failed to open history database")
	}

	if _, err := conn.Exec(updateHistorySchema); err != nil {
		conn.Close()
		return nil, common.WrapError(err, "failed to initialize history schema")
	}

	dbLogger.Info().Str("path", dbPath).Msg("History database opened")
	return &DB{conn: conn, logger: dbLogger}, nil
}

// RecordOutcome appends one cycle outcome to the journal.
func (d *DB) RecordOutcome(outcome updater.Outcome) error {
	var errText sql.NullString
	if outcome.Err != nil {
		errText = sql.NullString{String: outcome.Err.Error(), Valid: true}
	}

	_, err := d.conn.Exec(
		`INSERT INTO update_history (started_at, finished_at, status, sources_ok, sources_failed, bytes_written, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		outcome.StartedAt,
		outcome.FinishedAt,
		string(outcome.Status),
		outcome.SourcesOK,
		outcome.SourcesFailed,
		outcome.BytesWritten,
		errText,
	)
	if err != nil {
		return common.WrapError(err, "failed to record update outcome")
	}
	return nil
}

// LastSuccessTime returns the finish time of the most recent successful
// update, or the zero time when no update has succeeded yet.
func (d *DB) LastSuccessTime() (time.Time, error) {
	var finished time.Time
	err := d.conn.QueryRow(
		`SELECT finished_at FROM update_history WHERE status = ? ORDER BY finished_at DESC LIMIT 1`,
		string(updater.StatusUpdated),
	).Scan(&finished)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last success time: %w", err)
	}
	return finished, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}
