package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome of a journaled operation
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected" // Backend answered false
	OutcomeFailed   Outcome = "failed"   // Call did not complete
	OutcomeInvalid  Outcome = "invalid"  // Rejected locally, no call made
)

// Entry is one recorded panel operation
type Entry struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Procedure string    `json:"procedure,omitempty"`
	Value     *int      `json:"value,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Stats represents journal statistics
type Stats struct {
	TotalEntries   int64 `json:"total_entries"`
	ValidEntries   int64 `json:"valid_entries"`
	ExpiredEntries int64 `json:"expired_entries"`
	Failures       int64 `json:"failures"`
	SizeBytes      int64 `json:"size_bytes"`
}

// Journal records operation outcomes in SQLite
type Journal struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// Open opens (or creates) the journal database at path. Entries expire
// after retention; a zero or negative retention keeps them forever.
func Open(path string, retention time.Duration) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// One writer is plenty for a single panel
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:        db,
		retention: retention,
		now:       time.Now,
	}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return j, nil
}

// Close closes the journal database connection
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores an entry, filling in ID and timestamps when unset
func (j *Journal) Record(entry Entry) error {
	entry = stamp(entry, j.now(), j.retention)

	var value sql.NullInt64
	if entry.Value != nil {
		value = sql.NullInt64{Int64: int64(*entry.Value), Valid: true}
	}

	query := `
		INSERT INTO operation_journal
		(id, operation, procedure, value, outcome, detail, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.Exec(query,
		entry.ID,
		entry.Operation,
		entry.Procedure,
		value,
		string(entry.Outcome),
		entry.Detail,
		entry.CreatedAt.UnixMilli(),
		entry.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}

	return nil
}

// Recent returns up to limit unexpired entries, newest first
func (j *Journal) Recent(limit int) ([]Entry, error) {
	query := `
		SELECT id, operation, COALESCE(procedure, ''), value, outcome, COALESCE(detail, ''), created_at, expires_at
		FROM operation_journal
		WHERE expires_at > ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := j.db.Query(query, j.now().UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry                  Entry
			outcome                string
			value                  sql.NullInt64
			createdAtMs, expiresMs int64
		)
		if err := rows.Scan(&entry.ID, &entry.Operation, &entry.Procedure, &value, &outcome, &entry.Detail, &createdAtMs, &expiresMs); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if value.Valid {
			v := int(value.Int64)
			entry.Value = &v
		}
		entry.Outcome = Outcome(outcome)
		entry.CreatedAt = time.UnixMilli(createdAtMs)
		entry.ExpiresAt = time.UnixMilli(expiresMs)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Clear removes all entries and reports how many were removed
func (j *Journal) Clear() (int64, error) {
	result, err := j.db.Exec("DELETE FROM operation_journal")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Cleanup removes expired entries and reports how many were removed
func (j *Journal) Cleanup() (int64, error) {
	result, err := j.db.Exec("DELETE FROM operation_journal WHERE expires_at <= ?", j.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup journal: %w", err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		// Vacuum to reclaim space after cleanup
		if _, err := j.db.Exec("VACUUM"); err != nil {
			return removed, err
		}
	}

	return removed, nil
}

// Stats returns journal statistics
func (j *Journal) Stats() (*Stats, error) {
	var stats Stats
	now := j.now().UnixMilli()

	err := j.db.QueryRow("SELECT COUNT(*) FROM operation_journal").Scan(&stats.TotalEntries)
	if err != nil {
		return nil, err
	}

	err = j.db.QueryRow("SELECT COUNT(*) FROM operation_journal WHERE expires_at <= ?", now).Scan(&stats.ExpiredEntries)
	if err != nil {
		return nil, err
	}

	err = j.db.QueryRow("SELECT COUNT(*) FROM operation_journal WHERE expires_at > ? AND outcome != ?", now, string(OutcomeSuccess)).Scan(&stats.Failures)
	if err != nil {
		return nil, err
	}

	// Database size
	var pageCount, pageSize int64
	if err := j.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := j.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}

	stats.SizeBytes = pageCount * pageSize
	stats.ValidEntries = stats.TotalEntries - stats.ExpiredEntries

	return &stats, nil
}

// initSchema creates the journal table if it doesn't exist
func (j *Journal) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS operation_journal (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			procedure TEXT,
			value INTEGER,
			outcome TEXT NOT NULL,
			detail TEXT,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_journal_expires_at ON operation_journal(expires_at);
		CREATE INDEX IF NOT EXISTS idx_journal_created_at ON operation_journal(created_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// noExpiry is stored for entries written with a zero or negative retention
var noExpiry = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// stamp fills in the generated fields of an entry
func stamp(entry Entry, now time.Time, retention time.Duration) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() {
		if retention <= 0 {
			entry.ExpiresAt = noExpiry
		} else {
			entry.ExpiresAt = entry.CreatedAt.Add(retention)
		}
	}
	return entry
}

// DefaultPath returns the journal location inside stateDir
func DefaultPath(stateDir string) string {
	return filepath.Join(stateDir, "journal.db")
}
