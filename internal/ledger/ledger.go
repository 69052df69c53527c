// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ledger keeps a durable history of resolved and stopped playback sessions.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/embyplay/internal/persistence/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS playback_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	item_id TEXT NOT NULL,
	method TEXT NOT NULL,
	live_stream_id TEXT NOT NULL DEFAULT '',
	media_source_id TEXT NOT NULL DEFAULT '',
	play_session_id TEXT NOT NULL DEFAULT '',
	resolved_at_ms INTEGER NOT NULL,
	stopped_at_ms INTEGER
);
CREATE INDEX IF NOT EXISTS idx_playback_sessions_url ON playback_sessions(url);
CREATE INDEX IF NOT EXISTS idx_playback_sessions_resolved ON playback_sessions(resolved_at_ms);
`

// ErrNotFound is returned by RecordStopped when no open session matches the URL.
var ErrNotFound = errors.New("ledger: no open session for url")

// Entry is one resolved playback session.
type Entry struct {
	URL           string     `json:"url"`
	ItemID        string     `json:"itemId"`
	Method        string     `json:"method"`
	LiveStreamID  string     `json:"liveStreamId,omitempty"`
	MediaSourceID string     `json:"mediaSourceId,omitempty"`
	PlaySessionID string     `json:"playSessionId,omitempty"`
	ResolvedAt    time.Time  `json:"resolvedAt"`
	StoppedAt     *time.Time `json:"stoppedAt,omitempty"`
}

// Store is the SQLite-backed ledger.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the ledger database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("ledger: create dir: %w", err)
	}
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, schemaVersion, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: migration failed: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// RecordResolved appends a resolved session. A zero ResolvedAt means now.
func (s *Store) RecordResolved(ctx context.Context, e Entry) error {
	if e.ResolvedAt.IsZero() {
		e.ResolvedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO playback_sessions (url, item_id, method, live_stream_id, media_source_id, play_session_id, resolved_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.URL, e.ItemID, e.Method, e.LiveStreamID, e.MediaSourceID, e.PlaySessionID, e.ResolvedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("ledger: record resolved: %w", err)
	}
	return nil
}

// RecordStopped marks the most recent open session for url as stopped.
func (s *Store) RecordStopped(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx, `
	UPDATE playback_sessions SET stopped_at_ms = ?
	WHERE id = (
		SELECT id FROM playback_sessions
		WHERE url = ? AND stopped_at_ms IS NULL
		ORDER BY resolved_at_ms DESC, id DESC LIMIT 1
	)`, s.now().UnixMilli(), url)
	if err != nil {
		return fmt.Errorf("ledger: record stopped: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ledger: record stopped: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT url, item_id, method, live_stream_id, media_source_id, play_session_id, resolved_at_ms, stopped_at_ms
	FROM playback_sessions
	ORDER BY resolved_at_ms DESC, id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: recent: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e        Entry
			resolved int64
			stopped  sql.NullInt64
		)
		if err := rows.Scan(&e.URL, &e.ItemID, &e.Method, &e.LiveStreamID, &e.MediaSourceID, &e.PlaySessionID, &resolved, &stopped); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		e.ResolvedAt = time.UnixMilli(resolved).UTC()
		if stopped.Valid {
			t := time.UnixMilli(stopped.Int64).UTC()
			e.StoppedAt = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
