// Package ledger persists outstanding native handles in SQLite.
//
// A handle is recorded when Advise succeeds and marked released after
// Unadvise. Rows still outstanding when a new process starts belong to a
// process that died while connected; Sweep releases them.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rpbridge/rpbridge-go/pkg/native"
)

// Record is one acquired handle.
type Record struct {
	SubscriptionID string
	Kind           string
	Source         string
	Handle         native.Handle
	AcquiredAt     time.Time
	ReleasedAt     *time.Time
}

// Outstanding reports whether the handle has not been released.
func (r Record) Outstanding() bool {
	return r.ReleasedAt == nil
}

// Ledger provides SQLite persistence for handle records.
type Ledger struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the ledger at path.
// Use ":memory:" for an in-memory ledger.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA busy_timeout = 5000;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS handles (
		subscription_id TEXT NOT NULL,
		handle INTEGER NOT NULL,
		kind TEXT,
		source TEXT,
		acquired_at DATETIME NOT NULL,
		released_at DATETIME,
		PRIMARY KEY (subscription_id, handle)
	);

	CREATE INDEX IF NOT EXISTS idx_handles_released_at ON handles(released_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Acquired records a newly acquired handle.
func (l *Ledger) Acquired(ctx context.Context, rec Record) error {
	if rec.Handle.IsZero() {
		return errors.New("ledger: zero handle")
	}
	if rec.AcquiredAt.IsZero() {
		rec.AcquiredAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO handles (subscription_id, handle, kind, source, acquired_at, released_at)
		VALUES (?, ?, ?, ?, ?, NULL)
	`, rec.SubscriptionID, int64(rec.Handle), rec.Kind, rec.Source, rec.AcquiredAt.UTC())
	return err
}

// Released marks a handle as released. Releasing an unknown handle is not
// an error.
func (l *Ledger) Released(ctx context.Context, subscriptionID string, h native.Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.ExecContext(ctx, `
		UPDATE handles SET released_at = ?
		WHERE subscription_id = ? AND handle = ? AND released_at IS NULL
	`, time.Now().UTC(), subscriptionID, int64(h))
	return err
}

// Outstanding returns all unreleased records, oldest first.
func (l *Ledger) Outstanding(ctx context.Context) ([]Record, error) {
	return l.query(ctx, `
		SELECT subscription_id, handle, kind, source, acquired_at, released_at
		FROM handles WHERE released_at IS NULL
		ORDER BY acquired_at ASC
	`)
}

// History returns the most recent records, newest first.
func (l *Ledger) History(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	return l.query(ctx, `
		SELECT subscription_id, handle, kind, source, acquired_at, released_at
		FROM handles
		ORDER BY acquired_at DESC
		LIMIT ?
	`, limit)
}

func (l *Ledger) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			handle   int64
			kind     sql.NullString
			source   sql.NullString
			released sql.NullTime
		)
		if err := rows.Scan(&rec.SubscriptionID, &handle, &kind, &source, &rec.AcquiredAt, &released); err != nil {
			return nil, err
		}
		rec.Handle = native.Handle(handle)
		rec.Kind = kind.String
		rec.Source = source.String
		if released.Valid {
			t := released.Time
			rec.ReleasedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
