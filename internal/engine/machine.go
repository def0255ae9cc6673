package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vancomm/sweeper/internal/mines"
)

const (
	DefaultMaxWidth   = 256
	DefaultMaxHeight  = 256
	DefaultResolution = time.Second
)

// Machine is the game state machine. It owns at most one session and is
// not safe for concurrent use; [Engine] serializes access to it.
type Machine struct {
	log        logrus.FieldLogger
	now        func() time.Time
	newID      func() string
	resolution time.Duration
	maxWidth   int
	maxHeight  int
	session    *session
}

func NewMachine(log logrus.FieldLogger) *Machine {
	return &Machine{
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
		resolution: DefaultResolution,
		maxWidth:   DefaultMaxWidth,
		maxHeight:  DefaultMaxHeight,
	}
}

func (m *Machine) InitGame(p GameParams) (StateChange, error) {
	if p.Width > m.maxWidth || p.Height > m.maxHeight {
		return StateChange{}, fmt.Errorf(
			"%w: %dx%d exceeds %dx%d",
			mines.ErrInvalidDimensions, p.Width, p.Height, m.maxWidth, m.maxHeight,
		)
	}
	grid, err := mines.NewGrid(p.Width, p.Height, p.MineCount)
	if err != nil {
		return StateChange{}, err
	}

	var seed uint64
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed = uint64(m.now().UnixNano())
	}

	total := p.Width*p.Height - p.MineCount
	s := &session{
		info: SessionInfo{
			ID:            m.newID(),
			Width:         p.Width,
			Height:        p.Height,
			MineCount:     p.MineCount,
			Seed:          seed,
			ToRevealTotal: total,
		},
		grid:              grid,
		rng:               mines.NewRNG(seed),
		playMode:          Pending,
		toRevealRemaining: total,
	}
	m.session = s

	m.log.WithFields(logrus.Fields{
		"session": s.info.ID,
		"width":   s.info.Width,
		"height":  s.info.Height,
		"mines":   s.info.MineCount,
		"seed":    s.info.Seed,
	}).Info("new game")

	var cs changeSet
	cs.game(s.info)
	cs.playMode(Pending)
	cs.elapsed(Duration{})
	cs.toReveal(total)
	return cs.build(), nil
}

// active returns the session if x, y can be acted on.
func (m *Machine) active(x, y int) (*session, error) {
	s := m.session
	if s == nil {
		return nil, fmt.Errorf("%w: no active game", mines.ErrIllegalStateTransition)
	}
	if !s.grid.InBounds(x, y) {
		return nil, fmt.Errorf(
			"%w: %d:%d on %dx%d", mines.ErrOutOfBounds, x, y, s.info.Width, s.info.Height,
		)
	}
	if s.playMode.Terminal() {
		return nil, fmt.Errorf(
			"%w: game is %s", mines.ErrIllegalStateTransition, s.playMode,
		)
	}
	return s, nil
}

func (m *Machine) Reveal(x, y int) (StateChange, error) {
	s, err := m.active(x, y)
	if err != nil {
		return StateChange{}, err
	}

	var cs changeSet
	if s.playMode == Pending {
		if err := mines.Place(s.grid, s.rng, x, y); err != nil {
			return StateChange{}, err
		}
		s.playMode = Playing
		s.startedAt = m.now()
		cs.playMode(Playing)
	}
	m.apply(s, &cs, s.grid.Reveal(x, y))
	return cs.build(), nil
}

func (m *Machine) RevealSurrounding(x, y int) (StateChange, error) {
	s, err := m.active(x, y)
	if err != nil {
		return StateChange{}, err
	}
	if s.playMode == Pending {
		return StateChange{}, nil
	}
	var cs changeSet
	m.apply(s, &cs, s.grid.RevealSurrounding(x, y))
	return cs.build(), nil
}

// apply folds revealed cells into the session counters and settles the
// outcome. A mine always loses, even if the same move cleared the board.
func (m *Machine) apply(s *session, cs *changeSet, changes []mines.CellChange) {
	if len(changes) == 0 {
		return
	}
	lost := false
	opened := 0
	for _, c := range changes {
		cs.cell(c)
		if c.Cell.HasMine {
			lost = true
		} else {
			opened++
		}
	}
	if opened > 0 {
		s.toRevealRemaining -= opened
		cs.toReveal(s.toRevealRemaining)
	}

	switch {
	case lost:
		m.finish(s, cs, Lost)
	case s.toRevealRemaining == 0:
		m.finish(s, cs, Won)
	}
}

func (m *Machine) finish(s *session, cs *changeSet, mode PlayMode) {
	s.playMode = mode
	s.elapsed = m.now().Sub(s.startedAt).Truncate(time.Millisecond)
	cs.playMode(mode)
	cs.elapsed(Duration{s.elapsed})

	m.log.WithFields(logrus.Fields{
		"session": s.info.ID,
		"result":  mode.String(),
		"elapsed": s.elapsed.String(),
	}).Info("game over")
}

// playing returns the session if tags can be changed on x, y.
func (m *Machine) playing(x, y int) (*session, error) {
	s, err := m.active(x, y)
	if err != nil {
		return nil, err
	}
	if s.playMode != Playing {
		return nil, fmt.Errorf(
			"%w: cannot tag cells while %s", mines.ErrIllegalStateTransition, s.playMode,
		)
	}
	return s, nil
}

func (m *Machine) tag(x, y int, fn func(*mines.Grid) []mines.CellChange) (StateChange, error) {
	s, err := m.playing(x, y)
	if err != nil {
		return StateChange{}, err
	}
	var cs changeSet
	for _, c := range fn(s.grid) {
		cs.cell(c)
	}
	return cs.build(), nil
}

func (m *Machine) Flag(x, y int) (StateChange, error) {
	return m.tag(x, y, func(g *mines.Grid) []mines.CellChange {
		return g.SetTag(x, y, mines.TagFlag)
	})
}

func (m *Machine) Unflag(x, y int) (StateChange, error) {
	return m.tag(x, y, func(g *mines.Grid) []mines.CellChange {
		if g.At(x, y).Tag != mines.TagFlag {
			return nil
		}
		return g.SetTag(x, y, mines.TagNone)
	})
}

func (m *Machine) Mark(x, y int) (StateChange, error) {
	return m.tag(x, y, func(g *mines.Grid) []mines.CellChange {
		return g.ToggleMark(x, y)
	})
}

// Reset drops the current session, returning to the no-game state.
func (m *Machine) Reset() StateChange {
	if m.session == nil {
		return StateChange{}
	}
	m.log.WithField("session", m.session.info.ID).Info("game reset")
	m.session = nil

	var cs changeSet
	cs.reset()
	return cs.build()
}

// Tick advances the elapsed-time clock of a running game. A change is
// produced only when the reported value moves.
func (m *Machine) Tick() StateChange {
	s := m.session
	if s == nil || s.playMode != Playing {
		return StateChange{}
	}
	elapsed := m.elapsed(s)
	if elapsed == s.elapsed {
		return StateChange{}
	}
	s.elapsed = elapsed

	var cs changeSet
	cs.elapsed(Duration{elapsed})
	return cs.build()
}

func (m *Machine) elapsed(s *session) time.Duration {
	if s.playMode != Playing {
		return s.elapsed
	}
	d := m.now().Sub(s.startedAt)
	if m.resolution > 0 {
		d = d.Truncate(m.resolution)
	}
	return d
}

// State returns a full copy of the current state.
func (m *Machine) State() Snapshot {
	s := m.session
	if s == nil {
		return Snapshot{}
	}
	info := s.info
	return Snapshot{
		Game:              &info,
		PlayMode:          s.playMode,
		ToRevealRemaining: s.toRevealRemaining,
		ElapsedTime:       Duration{m.elapsed(s)},
		Grid:              s.grid.Rows(),
	}
}
