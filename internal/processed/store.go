package processed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the set of video IDs that have already been handled,
// backed by SQLite so restarts never reprocess a video.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	schemaVersion = 1
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_videos (
    video_id     TEXT PRIMARY KEY,
    channel      TEXT NOT NULL DEFAULT '',
    title        TEXT NOT NULL DEFAULT '',
    processed_at TEXT NOT NULL
);
`

// Entry records one processed video.
type Entry struct {
	VideoID     string
	Channel     string
	Title       string
	ProcessedAt time.Time
}

// Open opens (or creates) the processed store at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("processed store: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("processed store: ensure directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("processed store: open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("processed store: apply %s: %w", pragma, err)
		}
	}
	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("processed store: create schema: %w", err)
	}
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_info LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("processed store: record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("processed store: read schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("processed store: database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Contains reports whether videoID has already been processed.
func (s *Store) Contains(ctx context.Context, videoID string) (bool, error) {
	ctx = ensureContext(ctx)
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM processed_videos WHERE video_id = ?", videoID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("processed store: lookup %s: %w", videoID, err)
	}
	return true, nil
}

// Add marks videoID as processed and persists immediately. Adding an
// already present ID is a no-op.
func (s *Store) Add(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.VideoID) == "" {
		return fmt.Errorf("processed store: video id required")
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	ctx = ensureContext(ctx)
	err := s.execWithRetry(ctx, `
INSERT INTO processed_videos (video_id, channel, title, processed_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(video_id) DO NOTHING`,
		entry.VideoID, entry.Channel, entry.Title, entry.ProcessedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("processed store: add %s: %w", entry.VideoID, err)
	}
	return nil
}

// All returns every processed entry, most recent first.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
SELECT video_id, channel, title, processed_at
FROM processed_videos
ORDER BY processed_at DESC, video_id`)
	if err != nil {
		return nil, fmt.Errorf("processed store: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var processedAt string
		if err := rows.Scan(&entry.VideoID, &entry.Channel, &entry.Title, &processedAt); err != nil {
			return nil, fmt.Errorf("processed store: scan entry: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339, processedAt); parseErr == nil {
			entry.ProcessedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("processed store: iterate entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of processed entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processed_videos").Scan(&count); err != nil {
		return 0, fmt.Errorf("processed store: count entries: %w", err)
	}
	return count, nil
}

// Clear removes every processed entry.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	if err := s.execWithRetry(ctx, "DELETE FROM processed_videos"); err != nil {
		return fmt.Errorf("processed store: clear entries: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
