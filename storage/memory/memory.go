// Package memory provides a thread-safe in-memory attendance store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tebraouisamy/presence-app/attendance"
)

// Store is a thread-safe in-memory implementation of attendance.Store.
// Suitable for testing, demos, and single-process use cases. The mutex held
// across the check-and-insert is what makes InsertIfAbsent atomic.
type Store struct {
	mu   sync.RWMutex
	data map[attendance.Key]attendance.Record
}

var _ attendance.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{data: make(map[attendance.Key]attendance.Record)}
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec attendance.Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rec.Key()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = rec
	return true, nil
}

func (s *Store) Get(ctx context.Context, key attendance.Key) (*attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[key]
	if !ok {
		return nil, attendance.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

func (s *Store) List(ctx context.Context, f attendance.Filter) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var records []attendance.Record
	for _, rec := range s.data {
		if f.Matches(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].RecordedAt.Equal(records[j].RecordedAt) {
			return records[i].RecordedAt.Before(records[j].RecordedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[attendance.Key]attendance.Record)
	return nil
}
