package records

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/repository"
)

type fakeStore struct {
	created []repository.CreateRecordParams
	err     error
}

func (s *fakeStore) CreateRecord(_ context.Context, p repository.CreateRecordParams) (*repository.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, p)
	return &repository.Record{SessionID: p.SessionID, Won: p.Won, ElapsedMs: p.ElapsedMs}, nil
}

func newTestRecorder(store Store) *Recorder {
	log, _ := test.NewNullLogger()
	r := NewRecorder(log, store)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return r
}

func mode(m engine.PlayMode) *engine.PlayMode { return &m }

func newGame(id string) engine.StateChange {
	return engine.StateChange{
		Game:     &engine.SessionInfo{ID: id, Width: 9, Height: 9, MineCount: 10, Seed: 77},
		PlayMode: mode(engine.Pending),
	}
}

func TestRecorderWin(t *testing.T) {
	t.Parallel()

	var store fakeStore
	observe := newTestRecorder(&store).Observer("table-1")

	require.NoError(t, observe(newGame("s1")))
	require.NoError(t, observe(engine.StateChange{PlayMode: mode(engine.Playing)}))
	assert.Empty(t, store.created)

	require.NoError(t, observe(engine.StateChange{
		PlayMode:    mode(engine.Won),
		ElapsedTime: &engine.Duration{Duration: 12345 * time.Millisecond},
	}))
	require.Len(t, store.created, 1)
	assert.Equal(t, repository.CreateRecordParams{
		SessionID:  "s1",
		TableID:    "table-1",
		Width:      9,
		Height:     9,
		MineCount:  10,
		Seed:       "77",
		Won:        true,
		ElapsedMs:  12345,
		FinishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}, store.created[0])
}

func TestRecorderLossAndReset(t *testing.T) {
	t.Parallel()

	var store fakeStore
	observe := newTestRecorder(&store).Observer("t")

	require.NoError(t, observe(newGame("s1")))
	require.NoError(t, observe(engine.StateChange{Reset: true}))
	require.NoError(t, observe(engine.StateChange{PlayMode: mode(engine.Lost)}))
	assert.Empty(t, store.created, "nothing to record after a reset")

	require.NoError(t, observe(newGame("s2")))
	require.NoError(t, observe(engine.StateChange{PlayMode: mode(engine.Lost)}))
	require.Len(t, store.created, 1)
	assert.False(t, store.created[0].Won)
	assert.Equal(t, "s2", store.created[0].SessionID)
}

func TestRecorderErrors(t *testing.T) {
	t.Parallel()

	store := fakeStore{err: fmt.Errorf("%w: s1", repository.ErrDuplicateRecord)}
	observe := newTestRecorder(&store).Observer("t")
	require.NoError(t, observe(newGame("s1")))
	assert.NoError(t, observe(engine.StateChange{PlayMode: mode(engine.Won)}))

	boom := errors.New("connection refused")
	store.err = boom
	require.NoError(t, observe(newGame("s2")))
	assert.ErrorIs(t, observe(engine.StateChange{PlayMode: mode(engine.Won)}), boom)
}
