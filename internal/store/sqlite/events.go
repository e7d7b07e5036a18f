// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/chakany/noah/internal/store"
	noaherr "github.com/chakany/noah/pkg/errors"
)

// driverName registers json_contains on every new connection. sqlite-vec is
// loaded as an auto extension, so vec_distance_cosine is available on the
// same connections.
const driverName = "sqlite3_noah"

func init() {
	sqlite_vec.Auto()
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("json_contains", jsonContains, true)
		},
	})
}

// Compile-time interface check.
var _ store.EventStore = (*EventStore)(nil)

// EventStore implements store.EventStore backed by SQLite with sqlite-vec.
type EventStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewEventStore opens (or creates) a SQLite database at dbPath and migrates
// the events table.
func NewEventStore(dbPath string) (*EventStore, error) {
	db, err := sql.Open(driverName, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrateEvents(db); err != nil {
		_ = db.Close()
		return nil, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "migrating events table: %w", err)
	}

	return &EventStore{db: db, logger: slog.Default()}, nil
}

// embedding is NOT NULL: only embedded events are inserted in the current
// scope, and every stored row must be visible to similarity search.
func migrateEvents(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	pubkey     TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	kind       INTEGER NOT NULL,
	content    TEXT    NOT NULL,
	tags       TEXT    NOT NULL DEFAULT '[]',
	embedding  BLOB    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_pubkey ON events(pubkey);
CREATE INDEX IF NOT EXISTS idx_events_kind   ON events(kind);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}

// Exists reports whether an event with the given ID is already stored.
func (s *EventStore) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT 1 FROM events WHERE id = ? LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, q, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "checking existence of event %s: %w", id, err)
	}
	return true, nil
}

// Insert stores an event row including its embedding. The primary key is the
// final arbiter against concurrent duplicate inserts: a constraint violation
// surfaces as a conflict-coded error callers treat as a no-op.
func (s *EventStore) Insert(ctx context.Context, event *store.Event, embedding []float32) error {
	if len(embedding) == 0 {
		return noaherr.New(noaherr.CodeStoreInvalidInput, "event embedding must not be empty", noaherr.FieldEventID(event.ID))
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return noaherr.Errorf(noaherr.CodeStoreInvalidInput, "serializing embedding for event %s: %w", event.ID, err)
	}

	tags := event.Tags
	if len(tags) == 0 {
		tags = []byte("[]")
	}

	const q = `INSERT INTO events (id, pubkey, created_at, kind, content, tags, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		event.ID,
		event.Pubkey,
		event.CreatedAt,
		event.Kind,
		event.Content,
		string(tags),
		blob,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return noaherr.Wrap(err, noaherr.CodeStoreEventConflict, "event already exists", noaherr.FieldEventID(event.ID))
		}
		return noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "inserting event %s: %w", event.ID, err)
	}
	return nil
}
