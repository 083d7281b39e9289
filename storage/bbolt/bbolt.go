// Package bbolt provides a BBolt-backed attendance store.
package bbolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/tebraouisamy/presence-app/attendance"
)

// Store implements attendance.Store backed by a BBolt database. Records are
// grouped into one bucket per (session, day), keyed by participant ID; the
// serialised update transaction is the atomic check-and-insert.
type Store struct {
	db *bbolt.DB
}

var _ attendance.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func bucketName(sessionID string, day attendance.Day) []byte {
	return []byte(fmt.Sprintf("%s:%s", sessionID, day))
}

// storeErr classifies backend failures as retriable store unavailability.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", attendance.ErrStoreUnavailable, err)
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec attendance.Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	inserted := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName(rec.SessionID, rec.Day))
		if err != nil {
			return err
		}
		key := []byte(rec.ParticipantID)
		if b.Get(key) != nil {
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, storeErr(err)
	}
	return inserted, nil
}

func (s *Store) Get(ctx context.Context, key attendance.Key) (*attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec attendance.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName(key.SessionID, key.Day))
		if b == nil {
			return attendance.ErrNotFound
		}
		data := b.Get([]byte(key.ParticipantID))
		if data == nil {
			return attendance.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if errors.Is(err, attendance.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, f attendance.Filter) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var records []attendance.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(_ []byte, b *bbolt.Bucket) error {
			return b.ForEach(func(_, v []byte) error {
				var rec attendance.Record
				if err := json.Unmarshal(v, &rec); err != nil {
					return err
				}
				if f.Matches(rec) {
					records = append(records, rec)
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, storeErr(err)
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
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var names [][]byte
		if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storeErr(err)
	}
	return nil
}
