package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hurou927/db-dump/internal/persist"
)

// PostgresStore opens sessions on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool. The caller keeps ownership of the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenSession acquires one connection from the pool.
func (s *PostgresStore) OpenSession(ctx context.Context) (persist.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &postgresSession{conn: conn}, nil
}

type postgresSession struct {
	conn *pgxpool.Conn
}

func (s *postgresSession) Exec(ctx context.Context, sql string) error {
	_, err := s.conn.Exec(ctx, sql)
	return err
}

func (s *postgresSession) ExecTx(ctx context.Context, stmts ...string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return tx.Commit(ctx)
}

// WriteRows streams rows with COPY FROM STDIN in binary format.
func (s *postgresSession) WriteRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	return s.conn.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

func (s *postgresSession) Close() error {
	s.conn.Release()
	return nil
}
