// Package sqlite stores the addressbook event log in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/addressbook/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store is a SQLite-backed event.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the event log at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlmigrate.Apply(ctx, sqlDB, sqlmigrate.SQLite, migrationFS, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database. It is nil-safe.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append implements event.Log.
func (s *Store) Append(ctx context.Context, stream event.StreamID, envelopes []event.Envelope) ([]event.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(envelopes) == 0 {
		return nil, nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events WHERE stream_id = ?", string(stream),
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("get stream seq: %w", err)
	}

	stored := make([]event.Envelope, 0, len(envelopes))
	for i, env := range envelopes {
		env.StreamID = stream
		env.Seq = uint64(last) + uint64(i) + 1
		env.Timestamp = env.Timestamp.UTC().Truncate(time.Millisecond)
		res, err := tx.ExecContext(ctx,
			"INSERT INTO events (stream_id, seq, event_type, timestamp, payload_json) VALUES (?, ?, ?, ?, ?)",
			string(stream), int64(env.Seq), string(env.Type), toMillis(env.Timestamp), env.PayloadJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
		}
		position, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read event position: %w", err)
		}
		env.Position = uint64(position)
		stored = append(stored, env)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return stored, nil
}

// Load implements event.Log.
func (s *Store) Load(ctx context.Context, stream event.StreamID) ([]event.Envelope, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT position, stream_id, seq, event_type, timestamp, payload_json FROM events WHERE stream_id = ? ORDER BY seq, position",
		string(stream),
	)
	if err != nil {
		return nil, fmt.Errorf("load stream %s: %w", stream, err)
	}
	return scanEnvelopes(rows)
}

// ReadAll implements event.Reader.
func (s *Store) ReadAll(ctx context.Context, after uint64, limit int) ([]event.Envelope, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT position, stream_id, seq, event_type, timestamp, payload_json FROM events WHERE position > ? ORDER BY position LIMIT ?",
		int64(after), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return scanEnvelopes(rows)
}

func scanEnvelopes(rows *sql.Rows) ([]event.Envelope, error) {
	defer rows.Close()
	out := []event.Envelope{}
	for rows.Next() {
		var (
			position, seq, ts int64
			stream, typ       string
			payload           []byte
		)
		if err := rows.Scan(&position, &stream, &seq, &typ, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, event.Envelope{
			StreamID:    event.StreamID(stream),
			Seq:         uint64(seq),
			Position:    uint64(position),
			Type:        event.Type(typ),
			Timestamp:   fromMillis(ts),
			PayloadJSON: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
