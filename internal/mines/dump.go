package mines

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// BoardDump is the YAML form of a whole board, mines included.
//
//	# hidden   O hidden mine
//	f flagged  F flagged mine
//	m marked   M marked mine
//	. revealed * revealed mine
type BoardDump struct {
	Seed  uint64 `yaml:"seed"`
	Board string `yaml:"board"`
}

func (g *Grid) Dump(seed uint64) BoardDump {
	return DumpRows(g.Rows(), seed)
}

// DumpRows encodes cells indexed [y][x], as returned by [Grid.Rows].
func DumpRows(rows [][]Cell, seed uint64) BoardDump {
	var b strings.Builder
	for y, row := range rows {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			b.WriteByte(c.dumpGlyph())
		}
	}
	return BoardDump{Seed: seed, Board: b.String()}
}

func (c Cell) dumpGlyph() byte {
	var glyph byte
	switch {
	case c.Revealed:
		glyph = '.'
	case c.Tag == TagFlag:
		glyph = 'f'
	case c.Tag == TagMark:
		glyph = 'm'
	default:
		glyph = '#'
	}
	if !c.HasMine {
		return glyph
	}
	switch glyph {
	case '.':
		return '*'
	case '#':
		return 'O'
	default:
		return glyph - 'a' + 'A'
	}
}

func (d BoardDump) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

func ParseDump(in []byte) (*BoardDump, error) {
	var d BoardDump
	if err := yaml.Unmarshal(in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Grid rebuilds the board described by the dump. Counters are derived from
// the mine and flag layout.
func (d BoardDump) Grid() (*Grid, error) {
	rows := strings.Split(strings.TrimSpace(d.Board), "\n")
	height := len(rows)
	width := len(strings.TrimSpace(rows[0]))

	type cellSpec struct {
		mine, revealed bool
		tag            Tag
	}
	specs := make([]cellSpec, 0, width*height)
	mineCount := 0
	for y, row := range rows {
		row = strings.TrimSpace(row)
		if len(row) != width {
			return nil, fmt.Errorf(
				"%w: row %d has %d cells, want %d", ErrInvalidDimensions, y, len(row), width,
			)
		}
		for x := range len(row) {
			var s cellSpec
			switch row[x] {
			case '#':
			case 'O':
				s.mine = true
			case 'f':
				s.tag = TagFlag
			case 'F':
				s.mine, s.tag = true, TagFlag
			case 'm':
				s.tag = TagMark
			case 'M':
				s.mine, s.tag = true, TagMark
			case '.':
				s.revealed = true
			case '*':
				s.mine, s.revealed = true, true
			default:
				return nil, fmt.Errorf("unknown board glyph %q at %d:%d", row[x], x, y)
			}
			if s.mine {
				mineCount++
			}
			specs = append(specs, s)
		}
	}

	g, err := NewGrid(width, height, mineCount)
	if err != nil {
		return nil, err
	}
	for i, s := range specs {
		p := g.point(i)
		if s.mine {
			g.SetMine(p.X, p.Y)
		}
		if s.tag != TagNone {
			g.SetTag(p.X, p.Y, s.tag)
		}
	}
	for i, s := range specs {
		if s.revealed {
			g.cells[i].Revealed = true
		}
	}
	g.minesPlaced = true
	return g, nil
}

// Hidden counts unrevealed mine-free cells.
func (g *Grid) Hidden() int {
	n := 0
	for _, c := range g.cells {
		if !c.Revealed && !c.HasMine {
			n++
		}
	}
	return n
}
