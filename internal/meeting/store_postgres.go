package meeting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists invitations in PostgreSQL so they survive
// process restarts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meetings (
			id TEXT PRIMARY KEY,
			recipient_contact TEXT NOT NULL,
			slot_time TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_meetings_expires ON meetings (expires_at);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Insert claims the id. A row holding an already-expired meeting may
// be reclaimed; a live row wins and the insert reports ErrDuplicateID.
func (s *PostgresStore) Insert(ctx context.Context, m Meeting) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO meetings (id, recipient_contact, slot_time, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET recipient_contact = EXCLUDED.recipient_contact,
		     slot_time = EXCLUDED.slot_time,
		     status = EXCLUDED.status,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at
		 WHERE meetings.expires_at <= EXCLUDED.created_at`,
		m.ID, m.RecipientContact, m.SlotTime, string(m.Status), m.CreatedAt, m.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Meeting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, recipient_contact, slot_time, status, created_at, expires_at
		 FROM meetings WHERE id = $1`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, ErrNotFound
	}
	if err != nil {
		return Meeting{}, fmt.Errorf("get meeting: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ConfirmSlot(ctx context.Context, id, slotTime string) (Meeting, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE meetings SET slot_time = $2, status = $3
		 WHERE id = $1
		 RETURNING id, recipient_contact, slot_time, status, created_at, expires_at`,
		id, slotTime, string(StatusConfirmed))
	m, err := scanMeeting(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, ErrNotFound
	}
	if err != nil {
		return Meeting{}, fmt.Errorf("confirm slot: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) RemoveExpired(ctx context.Context, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM meetings WHERE expires_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("remove expired meetings: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) LiveCount(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM meetings WHERE expires_at > $1`, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count live meetings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanMeeting(row pgx.Row) (Meeting, error) {
	var (
		m      Meeting
		status string
	)
	if err := row.Scan(&m.ID, &m.RecipientContact, &m.SlotTime, &status, &m.CreatedAt, &m.ExpiresAt); err != nil {
		return Meeting{}, err
	}
	m.Status = Status(status)
	return m, nil
}
