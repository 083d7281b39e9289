// Package postgres implements attendance.Store backed by PostgreSQL.
//
// The composite primary key (participant_id, session_id, day) enforces the
// one-record-per-participant-per-session-per-day invariant at the database,
// and INSERT ... ON CONFLICT DO NOTHING provides the atomic conditional
// write without holding application-side locks across I/O.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tebraouisamy/presence-app/attendance"
)

// Store implements attendance.Store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ attendance.Store = (*Store)(nil)

// NewStore returns a Store backed by the given pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewStoreFromDSN creates a connection pool from a DSN string, ensures the
// schema exists, and returns a new Store.
func NewStoreFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewStore(pool), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// storeErr classifies backend failures as retriable store unavailability.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", attendance.ErrStoreUnavailable, err)
}

func (s *Store) InsertIfAbsent(ctx context.Context, rec attendance.Record) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attendance_records (participant_id, session_id, day, id, recorded_at, status)
		 VALUES ($1, $2, $3::date, $4, $5, $6)
		 ON CONFLICT (participant_id, session_id, day) DO NOTHING`,
		rec.ParticipantID, rec.SessionID, string(rec.Day), rec.ID, rec.RecordedAt, string(rec.Status))
	if err != nil {
		return false, storeErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Get(ctx context.Context, key attendance.Key) (*attendance.Record, error) {
	var (
		rec        attendance.Record
		day        string
		status     string
		recordedAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, day::text, recorded_at, status
		 FROM attendance_records
		 WHERE participant_id = $1 AND session_id = $2 AND day = $3::date`,
		key.ParticipantID, key.SessionID, string(key.Day)).Scan(
		&rec.ID, &day, &recordedAt, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, attendance.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	rec.ParticipantID = key.ParticipantID
	rec.SessionID = key.SessionID
	rec.Day = attendance.Day(day)
	rec.RecordedAt = recordedAt
	rec.Status = attendance.Status(status)
	return &rec, nil
}

func (s *Store) List(ctx context.Context, f attendance.Filter) ([]attendance.Record, error) {
	query := `SELECT id, participant_id, session_id, day::text, recorded_at, status FROM attendance_records`
	var (
		clauses []string
		args    []any
	)
	if f.ParticipantID != "" {
		args = append(args, f.ParticipantID)
		clauses = append(clauses, fmt.Sprintf("participant_id = $%d", len(args)))
	}
	if f.SessionID != "" {
		args = append(args, f.SessionID)
		clauses = append(clauses, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if f.Day != "" {
		args = append(args, string(f.Day))
		clauses = append(clauses, fmt.Sprintf("day = $%d::date", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY recorded_at, id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		var (
			rec    attendance.Record
			day    string
			status string
		)
		if err := rows.Scan(&rec.ID, &rec.ParticipantID, &rec.SessionID, &day, &rec.RecordedAt, &status); err != nil {
			return nil, storeErr(err)
		}
		rec.Day = attendance.Day(day)
		rec.Status = attendance.Status(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return records, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM attendance_records`); err != nil {
		return storeErr(err)
	}
	return nil
}
