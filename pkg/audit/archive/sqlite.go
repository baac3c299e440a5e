// Package archive mirrors audit entries into SQLite for indexed queries.
//
// The JSONL journal is the authoritative hash chain; the archive is derived
// data optimised for time-range and result filtering at scales where
// re-parsing the journal per query is too slow. Because it is derived, the
// archive may be pruned by retention policy without weakening the chain.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"hisba-ai/mizan/pkg/audit"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	result        TEXT NOT NULL,
	rule_id       TEXT,
	rule_name     TEXT,
	reason        TEXT,
	score         INTEGER NOT NULL,
	previous_hash TEXT NOT NULL,
	hash          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries (timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_result ON audit_entries (result);
`

// Row is one mirrored entry.
type Row struct {
	ID           string
	Timestamp    string
	Result       string
	RuleID       string
	RuleName     string
	Reason       string
	Score        int
	PreviousHash string
	Hash         string
}

// Query filters mirrored rows. Zero values match everything.
type Query struct {
	// StartDate and EndDate are inclusive ISO-8601 bounds.
	StartDate string
	EndDate   string

	// Result filters by decision result.
	Result string

	// Limit caps the returned rows; zero means no cap.
	Limit int
}

// Config configures the mirror.
type Config struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long a locked database is retried.
	// Default: 5 seconds.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// Mirror is the SQLite-backed archive. It is safe for concurrent use; the
// underlying pool serialises writers.
type Mirror struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating as needed) the archive database and ensures the
// schema exists.
func Open(cfg Config, logger *slog.Logger) (*Mirror, error) {
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise archive schema: %w", err)
	}

	return &Mirror{
		db:     db,
		logger: logger.With("component", "audit.archive", "path", cfg.Path),
	}, nil
}

// Close releases the database handle.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// Record mirrors one audit entry. Re-recording an id is a no-op, so replays
// of the journal are idempotent.
func (m *Mirror) Record(ctx context.Context, entry *audit.Entry) error {
	row := rowFromEntry(entry)

	_, err := m.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO audit_entries
			(id, timestamp, result, rule_id, rule_name, reason, score, previous_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Timestamp, row.Result, row.RuleID, row.RuleName,
		row.Reason, row.Score, row.PreviousHash, row.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to mirror entry %s: %w", entry.ID, err)
	}
	return nil
}

// Sync mirrors every entry of the journal that is not yet archived.
func (m *Mirror) Sync(ctx context.Context, log *audit.Log) (int, error) {
	entries, err := log.QueryFromDisk(audit.Filter{})
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, entry := range entries {
		if err := m.Record(ctx, entry); err != nil {
			return recorded, err
		}
		recorded++
	}

	m.logger.Info("archive synced", "entries", recorded)
	return recorded, nil
}

// Query returns the mirrored rows matching q, newest first.
func (m *Mirror) Query(ctx context.Context, q Query) ([]Row, error) {
	sqlQuery := `SELECT id, timestamp, result, rule_id, rule_name, reason, score, previous_hash, hash
		FROM audit_entries WHERE 1=1`
	var args []any

	if q.StartDate != "" {
		sqlQuery += " AND timestamp >= ?"
		args = append(args, q.StartDate)
	}
	if q.EndDate != "" {
		sqlQuery += " AND timestamp <= ?"
		args = append(args, q.EndDate)
	}
	if q.Result != "" {
		sqlQuery += " AND result = ?"
		args = append(args, q.Result)
	}
	sqlQuery += " ORDER BY timestamp DESC"
	if q.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := m.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("archive query failed: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Result, &r.RuleID, &r.RuleName,
			&r.Reason, &r.Score, &r.PreviousHash, &r.Hash); err != nil {
			return nil, fmt.Errorf("archive scan failed: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of mirrored rows.
func (m *Mirror) Count(ctx context.Context) (int64, error) {
	var n int64
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`).Scan(&n)
	return n, err
}

// DeleteBefore removes rows older than the cutoff timestamp and returns the
// number deleted. Only the derived archive shrinks; the journal is never
// touched.
func (m *Mirror) DeleteBefore(ctx context.Context, cutoff string) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive prune failed: %w", err)
	}
	return res.RowsAffected()
}

func rowFromEntry(entry *audit.Entry) Row {
	row := Row{
		ID:           entry.ID,
		Timestamp:    entry.Timestamp,
		PreviousHash: entry.PreviousHash,
		Hash:         entry.Hash,
	}
	if entry.Output != nil {
		row.Result = string(entry.Output.Result)
		row.Reason = entry.Output.Reason
		row.Score = entry.Output.Score
	}
	if entry.Rule != nil {
		row.RuleID = entry.Rule.ID
		row.RuleName = entry.Rule.Name
	}
	return row
}
