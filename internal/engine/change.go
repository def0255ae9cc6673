package engine

import (
	"github.com/vancomm/sweeper/internal/mines"
)

// StateChange is the difference between two consecutive emitted states.
// Values are shared between observers and must be treated as read-only.
// Version counts the changes an engine has published; it is not part of
// the difference itself.
type StateChange struct {
	Version     uint64             `json:"version,omitempty"`
	Game        *SessionInfo       `json:"game,omitempty"`
	Reset       bool               `json:"reset,omitempty"`
	GridChanges []mines.CellChange `json:"grid_changes,omitempty"`
	PlayMode    *PlayMode          `json:"play_mode,omitempty"`
	ElapsedTime *Duration          `json:"elapsed_time,omitempty"`
	ToReveal    *int               `json:"to_reveal,omitempty"`
}

func (c StateChange) Empty() bool {
	return c.Game == nil &&
		!c.Reset &&
		len(c.GridChanges) == 0 &&
		c.PlayMode == nil &&
		c.ElapsedTime == nil &&
		c.ToReveal == nil
}

// changeSet accumulates the field deltas of one command. Repeated cell
// updates keep their first position and take the latest value.
type changeSet struct {
	change StateChange
	cells  map[mines.Point]int
}

func (cs *changeSet) game(info SessionInfo) {
	cs.change.Game = &info
}

func (cs *changeSet) reset() {
	cs.change.Reset = true
}

func (cs *changeSet) cell(c mines.CellChange) {
	p := mines.Point{X: c.X, Y: c.Y}
	if i, ok := cs.cells[p]; ok {
		cs.change.GridChanges[i] = c
		return
	}
	if cs.cells == nil {
		cs.cells = make(map[mines.Point]int)
	}
	cs.cells[p] = len(cs.change.GridChanges)
	cs.change.GridChanges = append(cs.change.GridChanges, c)
}

func (cs *changeSet) playMode(m PlayMode) {
	cs.change.PlayMode = &m
}

func (cs *changeSet) elapsed(d Duration) {
	cs.change.ElapsedTime = &d
}

func (cs *changeSet) toReveal(n int) {
	cs.change.ToReveal = &n
}

func (cs *changeSet) build() StateChange {
	return cs.change
}
