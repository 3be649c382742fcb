package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// MaxListLimit caps a single log read. Export and intent reporting read
	// at this cap.
	MaxListLimit = 1000
)

// Store is the append-only message log.
type Store interface {
	// Append writes one immutable entry and returns it with id and
	// timestamp filled.
	Append(ctx context.Context, msg *Message) (*Message, error)
	// List returns entries newest first, optionally filtered by a
	// case-insensitive body substring. limit is clamped to [1, MaxListLimit].
	List(ctx context.Context, limit int, search string) ([]*Message, error)
}

// PgxPool is the subset of pgxpool.Pool the store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the message log in Postgres.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("messaging: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

const messageColumns = `id, ts, direction, channel, intent, from_number, to_number, body, note, provider_message_id`

// Append inserts the message row.
func (s *PostgresStore) Append(ctx context.Context, msg *Message) (*Message, error) {
	stamped := prepare(msg)

	query := `
		INSERT INTO messages (id, ts, direction, channel, intent, from_number, to_number, body, note, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		stamped.ID,
		stamped.Timestamp,
		string(stamped.Direction),
		string(stamped.Channel),
		stamped.Intent,
		stamped.From,
		stamped.To,
		stamped.Body,
		stamped.Note,
		stamped.ProviderMessageID,
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: append failed: %w", err)
	}
	return stamped, nil
}

// List reads entries newest first.
func (s *PostgresStore) List(ctx context.Context, limit int, search string) ([]*Message, error) {
	limit = clampLimit(limit)

	query := `SELECT ` + messageColumns + ` FROM messages`
	args := []any{}
	if search != "" {
		query += ` WHERE body ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += fmt.Sprintf(` ORDER BY ts DESC LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("messaging: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.Timestamp,
			&m.Direction,
			&m.Channel,
			&m.Intent,
			&m.From,
			&m.To,
			&m.Body,
			&m.Note,
			&m.ProviderMessageID,
		); err != nil {
			return nil, fmt.Errorf("messaging: scan failed: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// prepare copies the message and fills the generated id and timestamp.
func prepare(msg *Message) *Message {
	stamped := *msg
	if stamped.ID == "" {
		stamped.ID = uuid.New().String()
	}
	if stamped.Timestamp.IsZero() {
		stamped.Timestamp = time.Now().UTC()
	}
	stamped.Body = strings.TrimSpace(stamped.Body)
	return &stamped
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
