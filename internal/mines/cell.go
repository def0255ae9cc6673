package mines

import (
	"fmt"
	"strconv"
)

type Tag uint8

const (
	TagNone Tag = iota
	TagFlag
	TagMark
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagFlag:
		return "flag"
	case TagMark:
		return "mark"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Tag implements [encoding.TextMarshaler]
func (t Tag) MarshalText() ([]byte, error) {
	if t > TagMark {
		return nil, fmt.Errorf("unknown tag %d", t)
	}
	return []byte(t.String()), nil
}

func (t *Tag) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*t = TagNone
	case "flag":
		*t = TagFlag
	case "mark":
		*t = TagMark
	default:
		return fmt.Errorf("unknown tag %q", b)
	}
	return nil
}

type Cell struct {
	HasMine       bool   `json:"has_mine"`
	Revealed      bool   `json:"revealed"`
	Tag           Tag    `json:"tag"`
	TouchingMines uint16 `json:"touching_mines"`
	TouchingFlags uint16 `json:"touching_flags"`
}

// CellChange is the value a cell holds after a mutation.
type CellChange struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Cell Cell `json:"cell"`
}

type Point struct {
	X, Y int
}
