package kv

import (
	"context"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// PostgresStore persists keys in a single app_kv table through the
// shared SQL runner.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	row := s.sql.QueryRow(ctx, sqlinline.QKVGet, key)
	if err := row.Scan(&value); err != nil {
		if infra.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.sql.Exec(ctx, sqlinline.QKVSet, key, value)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QKVDelete, key)
	return err
}

var _ Store = (*PostgresStore)(nil)
