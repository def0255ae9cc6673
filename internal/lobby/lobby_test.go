package lobby

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/mines"
)

func newTestLobby(t *testing.T, opts ...Option) (*Lobby, context.CancelFunc) {
	t.Helper()
	log, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	opts = append([]Option{
		WithIDGenerator(func() string {
			n++
			return "t" + strconv.Itoa(n)
		}),
		WithEngineOptions(engine.WithTickInterval(0)),
	}, opts...)
	l := New(ctx, log, opts...)
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, l.Wait())
	})
	return l, cancel
}

func seed(v uint64) *uint64 { return &v }

func TestOpen(t *testing.T) {
	t.Parallel()

	l, _ := newTestLobby(t)
	ctx := context.Background()

	id, e, err := l.Open(ctx, engine.GameParams{Width: 9, Height: 9, MineCount: 10, Seed: seed(1)})
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	got, ok := l.Get(id)
	require.True(t, ok)
	assert.Same(t, e, got)

	snap, err := e.State(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Game)
	assert.Equal(t, engine.Pending, snap.PlayMode)
	assert.Equal(t, 1, l.Len())
}

func TestOpenInvalid(t *testing.T) {
	t.Parallel()

	l, _ := newTestLobby(t, WithEngineOptions(engine.WithMaxDimensions(10, 10)))
	ctx := context.Background()

	_, _, err := l.Open(ctx, engine.GameParams{Width: 1, Height: 1, MineCount: 1})
	assert.ErrorIs(t, err, mines.ErrInvalidMineCount)

	_, _, err = l.Open(ctx, engine.GameParams{Width: 11, Height: 5, MineCount: 1})
	assert.ErrorIs(t, err, mines.ErrInvalidDimensions)
	assert.Zero(t, l.Len())
}

func TestClose(t *testing.T) {
	t.Parallel()

	l, _ := newTestLobby(t)
	ctx := context.Background()

	id, e, err := l.Open(ctx, engine.GameParams{Width: 5, Height: 5, MineCount: 3})
	require.NoError(t, err)

	assert.True(t, l.Close(id))
	assert.False(t, l.Close(id))
	_, ok := l.Get(id)
	assert.False(t, ok)
	assert.ErrorIs(t, e.Reset(ctx), engine.ErrClosed)
}

func TestMaxTables(t *testing.T) {
	t.Parallel()

	l, _ := newTestLobby(t, WithMaxTables(1))
	ctx := context.Background()
	p := engine.GameParams{Width: 5, Height: 5, MineCount: 3}

	id, _, err := l.Open(ctx, p)
	require.NoError(t, err)
	_, _, err = l.Open(ctx, p)
	assert.ErrorIs(t, err, ErrFull)

	l.Close(id)
	_, _, err = l.Open(ctx, p)
	assert.NoError(t, err)
}

func TestObserverFactory(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen = map[string][]engine.StateChange{}
	)
	l, cancel := newTestLobby(t, WithObserver(func(tableID string) engine.Observer {
		return func(c engine.StateChange) error {
			mu.Lock()
			defer mu.Unlock()
			seen[tableID] = append(seen[tableID], c)
			return nil
		}
	}))
	ctx := context.Background()

	a, _, err := l.Open(ctx, engine.GameParams{Width: 5, Height: 5, MineCount: 3})
	require.NoError(t, err)
	b, eb, err := l.Open(ctx, engine.GameParams{Width: 6, Height: 6, MineCount: 3})
	require.NoError(t, err)
	require.NoError(t, eb.Reset(ctx))

	cancel()
	require.NoError(t, l.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen[a], 1)
	assert.Equal(t, 5, seen[a][0].Game.Width, "the first change carries the new game")
	require.Len(t, seen[b], 2)
	assert.True(t, seen[b][1].Reset)
}

func TestOpenAfterShutdown(t *testing.T) {
	t.Parallel()

	l, cancel := newTestLobby(t)
	cancel()
	_, _, err := l.Open(context.Background(), engine.GameParams{Width: 5, Height: 5, MineCount: 3})
	assert.ErrorIs(t, err, ErrClosed)
}
