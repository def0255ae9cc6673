package mines

import "fmt"

// SafeZone returns x, y and its neighbours.
func (g *Grid) SafeZone(x, y int) []Point {
	return append([]Point{{x, y}}, g.Neighbors(x, y)...)
}

// Place lays the grid's mines using r, none of them at x, y or within one
// square of it. It runs once per grid.
func Place(g *Grid, r Rand, x, y int) error {
	if !g.InBounds(x, y) {
		return fmt.Errorf("%w: %d:%d", ErrOutOfBounds, x, y)
	}
	if g.minesPlaced {
		return fmt.Errorf("%w: mines already placed", ErrIllegalStateTransition)
	}

	/*
	 * Write down the list of possible mine locations.
	 */
	candidates := make([]int, 0, len(g.cells))
	for yy := range g.height {
		for xx := range g.width {
			if absDiff(y, yy) > 1 || absDiff(x, xx) > 1 {
				candidates = append(candidates, g.index(xx, yy))
			}
		}
	}
	if g.mineCount > len(candidates) {
		return fmt.Errorf(
			"%w: %d mines, %d cells outside the safe zone",
			ErrInsufficientCells, g.mineCount, len(candidates),
		)
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range g.mineCount {
		i := intN(r, k)
		p := g.point(candidates[i])
		g.SetMine(p.X, p.Y)
		k--
		candidates[i] = candidates[k]
	}
	g.minesPlaced = true
	return nil
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
