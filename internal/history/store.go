package history

import (
	"context"
	"fmt"
	"sync"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// Store is the append-only generation history. Entries are immutable;
// List returns most-recent-first.
type Store interface {
	Append(ctx context.Context, entry domain.HistoryEntry) error
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

const defaultListLimit = 50

// PostgresStore persists history rows through the shared SQL runner.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

func (s *PostgresStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	_, err := s.sql.Exec(ctx, sqlinline.QInsertHistoryEntry,
		entry.ID, string(entry.Kind), entry.Prompt, entry.ResultURL, entry.Model, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.sql.Query(ctx, sqlinline.QListHistory, limit)
	if err != nil {
		return nil, fmt.Errorf("history list: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Prompt, &e.ResultURL, &e.Model, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Kind = domain.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Store = (*PostgresStore)(nil)

// MemoryStore keeps history in process, newest first. Used in tests and
// when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]domain.HistoryEntry{entry}, s.entries...)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]domain.HistoryEntry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
