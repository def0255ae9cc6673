package mines

import (
	"fmt"
	"math"
	"strings"
)

// Grid is the cell matrix of one board. Cells are stored row-major.
type Grid struct {
	width, height int
	mineCount     int
	minesPlaced   bool
	cells         []Cell
}

// ValidateParams checks board shape and mine count without allocating.
func ValidateParams(width, height, mineCount int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > math.MaxInt/height {
		return fmt.Errorf("%w: %dx%d cells overflow", ErrInvalidDimensions, width, height)
	}
	if mineCount <= 0 || mineCount >= width*height {
		return fmt.Errorf(
			"%w: %d mines on %dx%d", ErrInvalidMineCount, mineCount, width, height,
		)
	}
	return nil
}

func NewGrid(width, height, mineCount int) (*Grid, error) {
	if err := ValidateParams(width, height, mineCount); err != nil {
		return nil, err
	}
	g := &Grid{
		width:     width,
		height:    height,
		mineCount: mineCount,
		cells:     make([]Cell, width*height),
	}
	return g, nil
}

func (g *Grid) Width() int     { return g.width }
func (g *Grid) Height() int    { return g.height }
func (g *Grid) MineCount() int { return g.mineCount }

// MinesPlaced reports whether the generator has run on this grid.
func (g *Grid) MinesPlaced() bool { return g.minesPlaced }

func (g *Grid) InBounds(x, y int) bool {
	return 0 <= x && x < g.width && 0 <= y && y < g.height
}

// At returns a copy of the cell at x, y. The position must be in bounds.
func (g *Grid) At(x, y int) Cell {
	return g.cells[g.index(x, y)]
}

func (g *Grid) index(x, y int) int {
	return y*g.width + x
}

func (g *Grid) point(i int) Point {
	return Point{X: i % g.width, Y: i / g.width}
}

func (g *Grid) change(i int) CellChange {
	p := g.point(i)
	return CellChange{X: p.X, Y: p.Y, Cell: g.cells[i]}
}

// Neighbors returns the in-bounds 8-connected positions around x, y.
func (g *Grid) Neighbors(x, y int) []Point {
	ps := make([]Point, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if g.InBounds(x+dx, y+dy) {
				ps = append(ps, Point{x + dx, y + dy})
			}
		}
	}
	return ps
}

func (g *Grid) neighborIndices(i int, buf []int) []int {
	p := g.point(i)
	buf = buf[:0]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if g.InBounds(p.X+dx, p.Y+dy) {
				buf = append(buf, g.index(p.X+dx, p.Y+dy))
			}
		}
	}
	return buf
}

// SetMine puts a mine on x, y and bumps the touching count of its
// neighbours. Setting a mine twice is a no-op.
func (g *Grid) SetMine(x, y int) {
	i := g.index(x, y)
	if g.cells[i].HasMine {
		return
	}
	g.cells[i].HasMine = true
	var buf [8]int
	for _, j := range g.neighborIndices(i, buf[:]) {
		g.cells[j].TouchingMines++
	}
}

// SetTag changes the tag of an unrevealed cell. The first element of the
// result is the tagged cell; any neighbours whose flag count moved follow
// it. Nothing changes if the cell is revealed or already carries tag.
func (g *Grid) SetTag(x, y int, tag Tag) []CellChange {
	i := g.index(x, y)
	c := &g.cells[i]
	if c.Revealed || c.Tag == tag {
		return nil
	}
	old := c.Tag
	c.Tag = tag

	changes := []CellChange{g.change(i)}
	if old != TagFlag && tag != TagFlag {
		return changes
	}
	var buf [8]int
	for _, j := range g.neighborIndices(i, buf[:]) {
		if tag == TagFlag {
			g.cells[j].TouchingFlags++
		} else {
			g.cells[j].TouchingFlags--
		}
		changes = append(changes, g.change(j))
	}
	return changes
}

// ToggleFlag cycles an unrevealed cell between flagged and untagged.
func (g *Grid) ToggleFlag(x, y int) []CellChange {
	if g.At(x, y).Tag == TagFlag {
		return g.SetTag(x, y, TagNone)
	}
	return g.SetTag(x, y, TagFlag)
}

// ToggleMark cycles an unrevealed cell between marked and untagged.
func (g *Grid) ToggleMark(x, y int) []CellChange {
	if g.At(x, y).Tag == TagMark {
		return g.SetTag(x, y, TagNone)
	}
	return g.SetTag(x, y, TagMark)
}

// Rows returns a copy of the cells indexed [y][x].
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.height)
	for y := range g.height {
		rows[y] = make([]Cell, g.width)
		copy(rows[y], g.cells[y*g.width:(y+1)*g.width])
	}
	return rows
}

// String renders the player's view, one row per line.
func (g *Grid) String() string {
	var b strings.Builder
	for y := range g.height {
		for x := range g.width {
			b.WriteByte(g.cells[g.index(x, y)].glyph())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (c Cell) glyph() byte {
	switch {
	case c.Revealed && c.HasMine:
		return '*'
	case c.Revealed:
		if c.TouchingMines == 0 {
			return '.'
		}
		return byte('0' + c.TouchingMines)
	case c.Tag == TagFlag:
		return 'F'
	case c.Tag == TagMark:
		return '?'
	default:
		return '#'
	}
}
