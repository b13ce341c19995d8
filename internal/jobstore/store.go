package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"server/internal/domain"
	"server/internal/kv"
)

// Store holds the durable record of at most one in-flight generation
// job per media kind, plus the last successful result URL per kind. The
// record is serialized as one JSON unit so the in-progress marker and
// the job id can never disagree after a partial write.
type Store struct {
	kv kv.Store
}

func New(store kv.Store) *Store {
	return &Store{kv: store}
}

func jobKey(kind domain.Kind) string        { return "job:" + string(kind) }
func lastResultKey(kind domain.Kind) string { return "last_result:" + string(kind) }

// Save persists the record for its kind, replacing any previous one.
func (s *Store) Save(ctx context.Context, rec domain.JobRecord) error {
	if !rec.Kind.Valid() {
		return fmt.Errorf("jobstore: invalid kind %q", rec.Kind)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jobstore: encode record: %w", err)
	}
	if err := s.kv.Set(ctx, jobKey(rec.Kind), raw); err != nil {
		return fmt.Errorf("jobstore: save: %w", err)
	}
	return nil
}

// Load returns the persisted record for kind, if any.
func (s *Store) Load(ctx context.Context, kind domain.Kind) (domain.JobRecord, bool, error) {
	raw, err := s.kv.Get(ctx, jobKey(kind))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return domain.JobRecord{}, false, nil
		}
		return domain.JobRecord{}, false, fmt.Errorf("jobstore: load: %w", err)
	}
	var rec domain.JobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.JobRecord{}, false, fmt.Errorf("jobstore: decode record: %w", err)
	}
	return rec, true, nil
}

// Clear removes the record for kind and reports whether one existed.
// The existed flag is the guard against reconciling (and refunding) the
// same job twice.
func (s *Store) Clear(ctx context.Context, kind domain.Kind) (bool, error) {
	_, existed, err := s.Load(ctx, kind)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}
	if err := s.kv.Delete(ctx, jobKey(kind)); err != nil {
		return false, fmt.Errorf("jobstore: clear: %w", err)
	}
	return true, nil
}

// SetLastResult retains the most recent successful result URL for kind.
func (s *Store) SetLastResult(ctx context.Context, kind domain.Kind, url string) error {
	if err := s.kv.Set(ctx, lastResultKey(kind), []byte(url)); err != nil {
		return fmt.Errorf("jobstore: set last result: %w", err)
	}
	return nil
}

// LastResult returns the most recent successful result URL for kind, or
// an empty string when none was recorded.
func (s *Store) LastResult(ctx context.Context, kind domain.Kind) (string, error) {
	raw, err := s.kv.Get(ctx, lastResultKey(kind))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("jobstore: last result: %w", err)
	}
	return string(raw), nil
}
