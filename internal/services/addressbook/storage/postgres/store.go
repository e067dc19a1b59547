// Package postgres stores the addressbook event log in PostgreSQL through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/louisbranch/addressbook/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/addressbook/internal/platform/timeouts"
	"github.com/louisbranch/addressbook/internal/services/addressbook/domain/event"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// appendLockKey serializes appenders so positions become visible in order.
const appendLockKey = 7_130_842

// Store is a PostgreSQL-backed event.Store.
type Store struct {
	sqlDB *sql.DB
}

// Open connects to dsn and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.StoreConnect)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := sqlmigrate.Apply(ctx, sqlDB, sqlmigrate.Postgres, migrationFS, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the connection pool. It is nil-safe.
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

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", appendLockKey); err != nil {
		return nil, fmt.Errorf("lock appenders: %w", err)
	}

	var last int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM events WHERE stream_id = $1", string(stream),
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("get stream seq: %w", err)
	}

	stored := make([]event.Envelope, 0, len(envelopes))
	for i, env := range envelopes {
		env.StreamID = stream
		env.Seq = uint64(last) + uint64(i) + 1
		env.Timestamp = env.Timestamp.UTC().Truncate(time.Millisecond)
		var position int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO events (stream_id, seq, event_type, timestamp, payload_json)
VALUES ($1, $2, $3, $4, $5) RETURNING position`,
			string(stream), int64(env.Seq), string(env.Type), env.Timestamp.UnixMilli(), env.PayloadJSON,
		).Scan(&position); err != nil {
			return nil, fmt.Errorf("insert event: %w", err)
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
		"SELECT position, stream_id, seq, event_type, timestamp, payload_json FROM events WHERE stream_id = $1 ORDER BY seq, position",
		string(stream),
	)
	if err != nil {
		return nil, fmt.Errorf("load stream %s: %w", stream, err)
	}
	return scanEnvelopes(rows)
}

// ReadAll implements event.Reader. A non-positive limit reads to the end.
func (s *Store) ReadAll(ctx context.Context, after uint64, limit int) ([]event.Envelope, error) {
	query := "SELECT position, stream_id, seq, event_type, timestamp, payload_json FROM events WHERE position > $1 ORDER BY position"
	args := []any{int64(after)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
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
			Timestamp:   time.UnixMilli(ts).UTC(),
			PayloadJSON: payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
