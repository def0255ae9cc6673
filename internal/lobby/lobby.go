// Package lobby keeps the running game tables. Every table is an
// [engine.Engine] with its own goroutine, stopped when the table is closed
// or the lobby's context ends.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/sweeper/internal/engine"
	"github.com/vancomm/sweeper/internal/mines"
)

var (
	ErrClosed = errors.New("lobby closed")
	ErrFull   = errors.New("lobby full")
)

// ObserverFactory returns an observer attached to every new table, or nil.
type ObserverFactory func(tableID string) engine.Observer

type Option func(*Lobby)

// WithEngineOptions sets options applied to the engine of every table.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(l *Lobby) {
		l.engineOpts = append(l.engineOpts, opts...)
	}
}

func WithObserver(f ObserverFactory) Option {
	return func(l *Lobby) {
		l.observers = append(l.observers, f)
	}
}

// WithMaxTables limits the number of open tables. Zero means no limit.
func WithMaxTables(n int) Option {
	return func(l *Lobby) {
		l.maxTables = n
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(l *Lobby) {
		l.newID = newID
	}
}

type table struct {
	engine *engine.Engine
	cancel context.CancelFunc
}

type Lobby struct {
	log        logrus.FieldLogger
	engineOpts []engine.Option
	observers  []ObserverFactory
	maxTables  int
	newID      func() string

	ctx   context.Context
	group *errgroup.Group

	mu     sync.Mutex
	tables map[string]*table
}

// New returns a lobby whose tables live until ctx is done.
func New(ctx context.Context, log logrus.FieldLogger, opts ...Option) *Lobby {
	group, ctx := errgroup.WithContext(ctx)
	l := &Lobby{
		log:    log,
		newID:  uuid.NewString,
		ctx:    ctx,
		group:  group,
		tables: make(map[string]*table),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open starts a table and initializes its first game. Nothing is left
// running if the game parameters are rejected.
func (l *Lobby) Open(ctx context.Context, p engine.GameParams) (string, *engine.Engine, error) {
	if err := mines.ValidateParams(p.Width, p.Height, p.MineCount); err != nil {
		return "", nil, err
	}

	l.mu.Lock()
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		return "", nil, ErrClosed
	}
	if l.maxTables > 0 && len(l.tables) >= l.maxTables {
		l.mu.Unlock()
		return "", nil, fmt.Errorf("%w: %d tables open", ErrFull, len(l.tables))
	}
	id := l.newID()
	log := l.log.WithField("table", id)
	opts := append([]engine.Option{engine.WithLogger(log)}, l.engineOpts...)
	e := engine.New(opts...)
	tctx, cancel := context.WithCancel(l.ctx)
	l.tables[id] = &table{engine: e, cancel: cancel}
	l.mu.Unlock()

	l.group.Go(func() error {
		defer l.remove(id)
		log.Info("table opened")
		err := e.Run(tctx)
		log.Info("table closed")
		return err
	})

	for _, f := range l.observers {
		fn := f(id)
		if fn == nil {
			continue
		}
		if _, err := e.Subscribe(ctx, fn); err != nil {
			l.Close(id)
			return "", nil, err
		}
	}
	if err := e.InitGame(ctx, p); err != nil {
		l.Close(id)
		return "", nil, err
	}
	return id, e, nil
}

func (l *Lobby) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tables[id]; ok {
		t.cancel()
		delete(l.tables, id)
	}
}

func (l *Lobby) Get(id string) (*engine.Engine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tables[id]
	if !ok {
		return nil, false
	}
	return t.engine, true
}

// Close stops the table's engine. Its observers still receive everything
// published before the stop.
func (l *Lobby) Close(id string) bool {
	l.mu.Lock()
	t, ok := l.tables[id]
	if ok {
		delete(l.tables, id)
	}
	l.mu.Unlock()
	if !ok {
		return false
	}
	t.cancel()
	<-t.engine.Done()
	return true
}

func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tables)
}

// Wait blocks until every table has stopped. Tables stop when the lobby's
// context ends.
func (l *Lobby) Wait() error {
	return l.group.Wait()
}
