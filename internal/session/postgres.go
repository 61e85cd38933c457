package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV stores entries in the admin_sessions table created by the
// db migrations.
type PostgresKV struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresKV(pool *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{pool: pool, now: time.Now}
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM admin_sessions WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)`,
		key, p.now().UTC(),
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := pgtype.Timestamptz{}
	if ttl > 0 {
		expiresAt = pgtype.Timestamptz{Time: p.now().Add(ttl).UTC(), Valid: true}
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO admin_sessions (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		key, value, expiresAt,
	)
	return err
}

func (p *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := p.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE key = ANY($1)`, keys)
	return err
}

func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Purge removes expired rows and reports how many were deleted.
func (p *PostgresKV) Purge(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM admin_sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`, p.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
