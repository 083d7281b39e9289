package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebraouisamy/presence-app/attendance"
)

func testRecord(participant, session string, day attendance.Day, status attendance.Status) attendance.Record {
	return attendance.Record{
		ID:            participant + "-" + session + "-" + string(day),
		ParticipantID: participant,
		SessionID:     session,
		Day:           day,
		RecordedAt:    time.Date(2026, 3, 2, 10, 5, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestStore_InsertIfAbsent(t *testing.T) {
	s := NewStore()
	rec := testRecord("u1", "S1", "2026-03-02", attendance.StatusPresent)

	inserted, err := s.InsertIfAbsent(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	// A second write under the same key is refused without error.
	dup := testRecord("u1", "S1", "2026-03-02", attendance.StatusAbsent)
	inserted, err = s.InsertIfAbsent(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, inserted)

	stored, err := s.Get(context.Background(), rec.Key())
	require.NoError(t, err)
	assert.Equal(t, rec, *stored)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.Get(context.Background(), attendance.Key{ParticipantID: "u1", SessionID: "S1", Day: "2026-03-02"})
	require.ErrorIs(t, err, attendance.ErrNotFound)
}

func TestStore_List_Filters(t *testing.T) {
	s := NewStore()
	records := []attendance.Record{
		testRecord("u1", "S1", "2026-03-02", attendance.StatusPresent),
		testRecord("u2", "S1", "2026-03-02", attendance.StatusLate),
		testRecord("u1", "S2", "2026-03-02", attendance.StatusAbsent),
		testRecord("u1", "S1", "2026-03-03", attendance.StatusPresent),
	}
	for _, rec := range records {
		inserted, err := s.InsertIfAbsent(context.Background(), rec)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	all, err := s.List(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byParticipant, err := s.List(context.Background(), attendance.Filter{ParticipantID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byParticipant, 3)

	bySession, err := s.List(context.Background(), attendance.Filter{SessionID: "S1", Day: "2026-03-02"})
	require.NoError(t, err)
	assert.Len(t, bySession, 2)

	byStatus, err := s.List(context.Background(), attendance.Filter{Status: attendance.StatusAbsent})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "S2", byStatus[0].SessionID)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	_, err := s.InsertIfAbsent(context.Background(), testRecord("u1", "S1", "2026-03-02", attendance.StatusPresent))
	require.NoError(t, err)

	require.NoError(t, s.Clear(context.Background()))

	all, err := s.List(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_ConcurrentInsertSameKey(t *testing.T) {
	s := NewStore()
	const n = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := s.InsertIfAbsent(context.Background(), testRecord("u1", "S1", "2026-03-02", attendance.StatusPresent))
			assert.NoError(t, err)
			if inserted {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
