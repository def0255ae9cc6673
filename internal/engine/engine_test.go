package engine

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/sweeper/internal/mines"
)

// startEngine runs an engine until stop is called or the test ends.
func startEngine(t *testing.T, opts ...Option) (e *Engine, stop func()) {
	t.Helper()
	log, _ := test.NewNullLogger()
	clock := newFakeClock()
	opts = append([]Option{
		WithLogger(log),
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs()),
		WithTickInterval(0),
	}, opts...)
	e = New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			require.NoError(t, <-errc)
		})
	}
	t.Cleanup(stop)
	return e, stop
}

type jsonRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *jsonRecorder) observe(c StateChange) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, string(b))
	return nil
}

func TestEngineDeterministic(t *testing.T) {
	t.Parallel()

	play := func() []string {
		e, stop := startEngine(t)
		ctx := context.Background()
		var r jsonRecorder
		_, err := e.Subscribe(ctx, r.observe)
		require.NoError(t, err)

		require.NoError(t, e.InitGame(ctx, GameParams{Width: 9, Height: 9, MineCount: 10, Seed: seed(1)}))
		require.NoError(t, e.Reveal(ctx, 4, 4))
		for _, p := range []mines.Point{{0, 0}, {8, 8}, {0, 8}, {8, 0}} {
			err := e.Reveal(ctx, p.X, p.Y)
			if err != nil {
				require.ErrorIs(t, err, mines.ErrIllegalStateTransition)
			}
		}
		stop()
		return r.lines
	}

	first := play()
	require.NotEmpty(t, first)
	assert.Equal(t, first, play())
}

func TestEngineFlagAfterWin(t *testing.T) {
	t.Parallel()

	e, stop := startEngine(t)
	ctx := context.Background()
	require.NoError(t, e.InitGame(ctx, GameParams{Width: 3, Height: 1, MineCount: 1, Seed: seed(5)}))

	// the only cell outside the safe zone of 0:0 is 2:0
	require.NoError(t, e.Reveal(ctx, 0, 0))

	snap, err := e.State(ctx)
	require.NoError(t, err)
	require.Equal(t, Won, snap.PlayMode)
	assert.True(t, snap.Grid[0][2].HasMine)

	var r recorder
	_, err = e.Subscribe(ctx, r.observe)
	require.NoError(t, err)

	err = e.Flag(ctx, 2, 0)
	assert.ErrorIs(t, err, mines.ErrIllegalStateTransition)
	stop()
	assert.Empty(t, r.snapshot())
}

func TestEngineInvalidMineCount(t *testing.T) {
	t.Parallel()

	e, _ := startEngine(t)
	ctx := context.Background()
	err := e.InitGame(ctx, GameParams{Width: 1, Height: 1, MineCount: 1})
	assert.ErrorIs(t, err, mines.ErrInvalidMineCount)

	snap, err := e.State(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Game)
}

func TestEngineSubscribeWithState(t *testing.T) {
	t.Parallel()

	e, stop := startEngine(t)
	ctx := context.Background()
	require.NoError(t, e.InitGame(ctx, GameParams{Width: 9, Height: 9, MineCount: 10, Seed: seed(7)}))

	var r recorder
	snap, h, err := e.SubscribeWithState(ctx, r.observe)
	require.NoError(t, err)
	assert.NotZero(t, h)
	assert.Equal(t, Pending, snap.PlayMode)
	require.NotNil(t, snap.Game)
	assert.Equal(t, uint64(7), snap.Game.Seed)

	require.NoError(t, e.Reveal(ctx, 4, 4))
	require.Eventually(t, func() bool {
		return len(r.snapshot()) == 1
	}, time.Second, time.Millisecond)
	assert.True(t, e.Unsubscribe(h))
	require.NoError(t, e.Reset(ctx))
	stop()

	got := r.snapshot()
	require.Len(t, got, 1, "changes after unsubscribe are not delivered")
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, snap.Version+1, got[0].Version)
	require.NotNil(t, got[0].PlayMode)
	assert.NotEqual(t, Pending, *got[0].PlayMode)
}

func TestEngineTick(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	e, stop := startEngine(t, WithClock(clock.Now))
	ctx := context.Background()
	require.NoError(t, e.InitGame(ctx, GameParams{Width: 30, Height: 16, MineCount: 99, Seed: seed(3)}))
	require.NoError(t, e.Reveal(ctx, 0, 0))

	var r recorder
	_, err := e.Subscribe(ctx, r.observe)
	require.NoError(t, err)

	snap, err := e.State(ctx)
	require.NoError(t, err)
	if snap.PlayMode != Playing {
		t.Skip("first reveal ended the game")
	}

	// commands are applied in order, so the clock is only read after the
	// previous command returned
	clock.Advance(2 * time.Second)
	require.NoError(t, e.Tick(ctx))
	require.NoError(t, e.Tick(ctx))
	stop()

	got := r.snapshot()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].ElapsedTime)
	assert.Equal(t, 2*time.Second, got[0].ElapsedTime.Duration)
}

func TestEngineTickInterval(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 250*time.Millisecond, New(WithTickInterval(250*time.Millisecond)).machine.resolution)
	assert.Equal(t, DefaultResolution, New(WithTickInterval(0)).machine.resolution)
	assert.Equal(t, time.Second, New(
		WithTickInterval(250*time.Millisecond), WithResolution(time.Second),
	).machine.resolution)

	clock := newFakeClock()
	e, _ := startEngine(t, WithClock(clock.Now), WithTickInterval(250*time.Millisecond))
	ctx := context.Background()

	// every border cell but one holds a mine, so the first reveal stops at
	// the inner ring and the game keeps going
	require.NoError(t, e.InitGame(ctx, GameParams{Width: 5, Height: 5, MineCount: 15, Seed: seed(4)}))
	require.NoError(t, e.Reveal(ctx, 2, 2))
	snap, err := e.State(ctx)
	require.NoError(t, err)
	require.Equal(t, Playing, snap.PlayMode)

	var r recorder
	_, err = e.Subscribe(ctx, r.observe)
	require.NoError(t, err)

	clock.Advance(250 * time.Millisecond)
	require.Eventually(t, func() bool {
		for _, c := range r.snapshot() {
			if c.ElapsedTime != nil && c.ElapsedTime.Duration == 250*time.Millisecond {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEngineConcurrentCommands(t *testing.T) {
	t.Parallel()

	const (
		workers  = 8
		commands = 200
		width    = 9
		height   = 9
	)
	e, stop := startEngine(t)
	ctx := context.Background()

	var r recorder
	_, err := e.Subscribe(ctx, r.observe)
	require.NoError(t, err)
	require.NoError(t, e.InitGame(ctx, GameParams{Width: width, Height: height, MineCount: 10, Seed: seed(1)}))

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rnd := rand.New(rand.NewPCG(uint64(w), 0))
			for range commands {
				x, y := rnd.IntN(width), rnd.IntN(height)
				var err error
				switch op := rnd.IntN(20); {
				case op == 0:
					err = e.InitGame(ctx, GameParams{
						Width: width, Height: height, MineCount: 10, Seed: seed(rnd.Uint64()),
					})
				case op < 6:
					err = e.Reveal(ctx, x, y)
				case op < 9:
					err = e.RevealSurrounding(ctx, x, y)
				case op < 13:
					err = e.Flag(ctx, x, y)
				case op < 15:
					err = e.Unflag(ctx, x, y)
				case op < 17:
					err = e.Mark(ctx, x, y)
				default:
					_, err = e.State(ctx)
				}
				if err != nil {
					assert.ErrorIs(t, err, mines.ErrIllegalStateTransition)
				}
			}
		}()
	}
	wg.Wait()

	snap, err := e.State(ctx)
	require.NoError(t, err)
	stop()

	got := r.snapshot()
	require.NotEmpty(t, got)
	for i, c := range got {
		require.Equal(t, uint64(i+1), c.Version, "change %d", i)
	}
	assert.Equal(t, got[len(got)-1].Version, snap.Version)

	require.NotNil(t, snap.Game)
	hidden := 0
	for y, row := range snap.Grid {
		for x, c := range row {
			var mineCount, flagCount uint16
			for ny := max(y-1, 0); ny <= min(y+1, height-1); ny++ {
				for nx := max(x-1, 0); nx <= min(x+1, width-1); nx++ {
					if nx == x && ny == y {
						continue
					}
					if snap.Grid[ny][nx].HasMine {
						mineCount++
					}
					if snap.Grid[ny][nx].Tag == mines.TagFlag {
						flagCount++
					}
				}
			}
			assert.Equal(t, mineCount, c.TouchingMines, "mines around %d:%d", x, y)
			assert.Equal(t, flagCount, c.TouchingFlags, "flags around %d:%d", x, y)
			if !c.Revealed && !c.HasMine {
				hidden++
			}
		}
	}
	if snap.PlayMode == Pending {
		// mines are laid on the first reveal
		assert.Equal(t, snap.Game.ToRevealTotal, snap.ToRevealRemaining)
		return
	}
	assert.Equal(t, hidden, snap.ToRevealRemaining)
}

func TestEngineClosed(t *testing.T) {
	t.Parallel()

	e, stop := startEngine(t)
	stop()

	<-e.Done()
	err := e.Reveal(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.State(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEngineRunTwice(t *testing.T) {
	t.Parallel()

	e, _ := startEngine(t)
	assert.ErrorIs(t, e.Run(context.Background()), ErrRunning)
}

func TestEngineContextCanceled(t *testing.T) {
	t.Parallel()

	e := New(WithCommandBuffer(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Reset(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineObserverDiagnostics(t *testing.T) {
	t.Parallel()

	failures := make(chan Handle, 4)
	e, stop := startEngine(t, WithDiagnostics(func(h Handle, err error) {
		failures <- h
	}))
	ctx := context.Background()

	h, err := e.Subscribe(ctx, func(StateChange) error { panic("observer bug") })
	require.NoError(t, err)
	var r recorder
	_, err = e.Subscribe(ctx, r.observe)
	require.NoError(t, err)

	require.NoError(t, e.InitGame(ctx, GameParams{Width: 3, Height: 3, MineCount: 1}))
	stop()

	assert.Equal(t, h, <-failures)
	assert.Len(t, r.snapshot(), 1)
}
