package mines

import "github.com/gammazero/deque"

// Reveal opens x, y. A zero-count cell floods outward through its
// unrevealed, unflagged, mine-free neighbours until it reaches numbered
// cells. Changes come back in the order cells were opened. Revealed and
// flagged cells are left alone.
func (g *Grid) Reveal(x, y int) []CellChange {
	i := g.index(x, y)
	c := &g.cells[i]
	if c.Revealed || c.Tag == TagFlag {
		return nil
	}
	if c.HasMine || c.TouchingMines != 0 {
		g.open(i)
		return []CellChange{g.change(i)}
	}

	var (
		changes []CellChange
		queue   deque.Deque[int]
		buf     [8]int
	)
	seen := make([]bool, len(g.cells))
	seen[i] = true
	queue.PushBack(i)

	for queue.Len() > 0 {
		j := queue.PopFront()
		g.open(j)
		changes = append(changes, g.change(j))
		if g.cells[j].TouchingMines != 0 {
			continue
		}
		for _, k := range g.neighborIndices(j, buf[:]) {
			n := g.cells[k]
			if seen[k] || n.Revealed || n.Tag == TagFlag || n.HasMine {
				continue
			}
			seen[k] = true
			queue.PushBack(k)
		}
	}
	return changes
}

func (g *Grid) open(i int) {
	g.cells[i].Revealed = true
	g.cells[i].Tag = TagNone
}

// RevealSurrounding opens every unrevealed, unflagged neighbour of a
// revealed cell whose flag count matches its mine count. A wrong flag
// elsewhere means a mine gets opened; the caller decides what that means.
func (g *Grid) RevealSurrounding(x, y int) []CellChange {
	c := g.At(x, y)
	if !c.Revealed || c.HasMine || c.TouchingFlags != c.TouchingMines {
		return nil
	}
	var changes []CellChange
	for _, p := range g.Neighbors(x, y) {
		n := g.At(p.X, p.Y)
		if n.Revealed || n.Tag == TagFlag {
			continue
		}
		changes = append(changes, g.Reveal(p.X, p.Y)...)
	}
	return changes
}
