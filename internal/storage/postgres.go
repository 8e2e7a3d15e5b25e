package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/coop-console/internal/domain"
)

// PostgresBackend keeps client namespaces in the client_storage table.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend returns a Postgres-backed implementation.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// Scope returns the namespace for client.
func (b *PostgresBackend) Scope(client domain.ClientID) ClientStorage {
	return &postgresScope{pool: b.pool, client: client}
}

// Ping verifies database connectivity.
func (b *PostgresBackend) Ping(ctx context.Context) error {
	if b == nil || b.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return b.pool.Ping(ctx)
}

// Close releases pool resources.
func (b *PostgresBackend) Close() {
	if b != nil && b.pool != nil {
		b.pool.Close()
	}
}

type postgresScope struct {
	pool   *pgxpool.Pool
	client domain.ClientID
}

func (s *postgresScope) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
        SELECT value FROM client_storage
        WHERE client_id=$1 AND key=$2`

	var value string
	err := s.pool.QueryRow(ctx, query, string(s.client), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

func (s *postgresScope) Set(ctx context.Context, key, value string) error {
	const query = `
        INSERT INTO client_storage (client_id, key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (client_id, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`

	if _, err := s.pool.Exec(ctx, query, string(s.client), key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *postgresScope) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM client_storage WHERE client_id=$1 AND key=$2`

	if _, err := s.pool.Exec(ctx, query, string(s.client), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
