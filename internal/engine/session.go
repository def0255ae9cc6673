package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vancomm/sweeper/internal/mines"
)

type PlayMode uint8

const (
	Pending PlayMode = iota
	Playing
	Won
	Lost
)

func (m PlayMode) String() string {
	switch m {
	case Pending:
		return "pending"
	case Playing:
		return "playing"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "PlayMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Terminal reports whether the session accepts no more moves.
func (m PlayMode) Terminal() bool {
	return m == Won || m == Lost
}

// PlayMode implements [encoding.TextMarshaler]
func (m PlayMode) MarshalText() ([]byte, error) {
	if m > Lost {
		return nil, fmt.Errorf("unknown play mode %d", m)
	}
	return []byte(m.String()), nil
}

func (m *PlayMode) UnmarshalText(b []byte) error {
	for _, mode := range []PlayMode{Pending, Playing, Won, Lost} {
		if mode.String() == string(b) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown play mode %q", b)
}

// Duration is reported to observers in whole milliseconds.
type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Milliseconds())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value) * time.Millisecond
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}

// GameParams configures a new session. A nil Seed is derived from the clock.
type GameParams struct {
	Width     int     `json:"width" yaml:"width"`
	Height    int     `json:"height" yaml:"height"`
	MineCount int     `json:"mine_count" yaml:"mine_count"`
	Seed      *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// SessionInfo is the immutable metadata of one game.
type SessionInfo struct {
	ID            string `json:"id"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	MineCount     int    `json:"mine_count"`
	Seed          uint64 `json:"seed"`
	ToRevealTotal int    `json:"to_reveal_total"`
}

// Snapshot is the full engine state, used as a baseline before
// incremental changes. Game is nil when no session is active. Changes with
// a Version at or below the snapshot's are already part of it.
type Snapshot struct {
	Version           uint64         `json:"version"`
	Game              *SessionInfo   `json:"game"`
	PlayMode          PlayMode       `json:"play_mode"`
	ToRevealRemaining int            `json:"to_reveal"`
	ElapsedTime       Duration       `json:"elapsed_time"`
	Grid              [][]mines.Cell `json:"grid,omitempty"`
}

type session struct {
	info              SessionInfo
	grid              *mines.Grid
	rng               *mines.RNG
	playMode          PlayMode
	toRevealRemaining int
	startedAt         time.Time
	elapsed           time.Duration
}
