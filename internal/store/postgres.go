package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres backs the KV with a shared database, for deployments where
// the relay does not run on the printer host.
type Postgres struct {
	pool *pgxpool.Pool
}

const (
	pgMaxRetries = 10
	pgRetryDelay = 2 * time.Second
	pgPingTTL    = 5 * time.Second
)

// ConnectPostgres dials the database with bounded retries and ensures
// the kv table exists.
func ConnectPostgres(ctx context.Context, host string, port int, user, pass, name string) (*Postgres, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s", user, pass, host, port, name)

	var lastErr error
	for i := 1; i <= pgMaxRetries; i++ {
		pool, err := pgxpool.New(ctx, dsn)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pgPingTTL)
			err = pool.Ping(pctx)
			cancel()
			if err == nil {
				if _, err := pool.Exec(ctx, `
					CREATE TABLE IF NOT EXISTS kv (
						key   TEXT PRIMARY KEY,
						value TEXT NOT NULL
					)
				`); err != nil {
					pool.Close()
					return nil, fmt.Errorf("apply schema: %w", err)
				}
				return &Postgres{pool: pool}, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-time.After(pgRetryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("state db dial canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("state db unreachable after %d attempts: %w", pgMaxRetries, lastErr)
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *Postgres) PutIfAbsent(ctx context.Context, key, value string) (bool, error) {
	ct, err := s.pool.Exec(ctx, `
		INSERT INTO kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`, key, value)
	if err != nil {
		return false, fmt.Errorf("put %q: %w", key, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var _ KV = (*Postgres)(nil)
