package mines

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                 string
		width, height, mines int
		err                  error
	}{
		{name: "zero width", width: 0, height: 5, mines: 1, err: ErrInvalidDimensions},
		{name: "negative height", width: 5, height: -1, mines: 1, err: ErrInvalidDimensions},
		{name: "no mines", width: 5, height: 5, mines: 0, err: ErrInvalidMineCount},
		{name: "all mines", width: 5, height: 5, mines: 25, err: ErrInvalidMineCount},
		{name: "1x1", width: 1, height: 1, mines: 1, err: ErrInvalidMineCount},
		{name: "cell count overflow", width: math.MaxInt / 2, height: 3, mines: 1, err: ErrInvalidDimensions},
		{name: "ok", width: 9, height: 9, mines: 10},
		{name: "one free cell", width: 2, height: 2, mines: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			g, err := NewGrid(test.width, test.height, test.mines)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.width, g.Width())
			assert.Equal(t, test.height, g.Height())
			assert.Equal(t, test.mines, g.MineCount())
			assert.False(t, g.MinesPlaced())
			for y := range test.height {
				for x := range test.width {
					assert.Equal(t, Cell{}, g.At(x, y))
				}
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	t.Parallel()

	g, err := NewGrid(4, 3, 1)
	require.NoError(t, err)

	assert.Len(t, g.Neighbors(0, 0), 3)
	assert.Len(t, g.Neighbors(3, 2), 3)
	assert.Len(t, g.Neighbors(1, 0), 5)
	assert.Len(t, g.Neighbors(0, 1), 5)
	assert.Len(t, g.Neighbors(1, 1), 8)
	assert.ElementsMatch(t,
		[]Point{{1, 0}, {0, 1}, {1, 1}},
		g.Neighbors(0, 0),
	)

	line, err := NewGrid(1, 3, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Point{{0, 0}, {0, 2}}, line.Neighbors(0, 1))
}

func TestSetMineCounts(t *testing.T) {
	t.Parallel()

	g, err := NewGrid(3, 3, 2)
	require.NoError(t, err)

	g.SetMine(0, 0)
	g.SetMine(1, 1)
	g.SetMine(1, 1)

	assert.True(t, g.At(0, 0).HasMine)
	assert.Equal(t, uint16(1), g.At(0, 0).TouchingMines)
	assert.Equal(t, uint16(1), g.At(1, 1).TouchingMines)
	assert.Equal(t, uint16(2), g.At(1, 0).TouchingMines)
	assert.Equal(t, uint16(2), g.At(0, 1).TouchingMines)
	assert.Equal(t, uint16(1), g.At(2, 2).TouchingMines)
}

func TestSetTagTracksTouchingFlags(t *testing.T) {
	t.Parallel()

	g, err := NewGrid(3, 3, 1)
	require.NoError(t, err)

	changes := g.SetTag(1, 1, TagFlag)
	require.Len(t, changes, 9)
	assert.Equal(t, CellChange{X: 1, Y: 1, Cell: Cell{Tag: TagFlag}}, changes[0])
	for _, p := range g.Neighbors(1, 1) {
		assert.Equal(t, uint16(1), g.At(p.X, p.Y).TouchingFlags)
	}

	assert.Nil(t, g.SetTag(1, 1, TagFlag), "same tag is a no-op")

	changes = g.SetTag(1, 1, TagMark)
	require.Len(t, changes, 9)
	for _, p := range g.Neighbors(1, 1) {
		assert.Zero(t, g.At(p.X, p.Y).TouchingFlags)
	}

	changes = g.SetTag(1, 1, TagNone)
	assert.Len(t, changes, 1, "mark does not touch neighbour counters")
}

func TestToggles(t *testing.T) {
	t.Parallel()

	g, err := NewGrid(2, 2, 1)
	require.NoError(t, err)

	g.ToggleFlag(0, 0)
	assert.Equal(t, TagFlag, g.At(0, 0).Tag)
	g.ToggleMark(0, 0)
	assert.Equal(t, TagMark, g.At(0, 0).Tag)
	g.ToggleMark(0, 0)
	assert.Equal(t, TagNone, g.At(0, 0).Tag)
	g.ToggleFlag(0, 0)
	g.ToggleFlag(0, 0)
	assert.Equal(t, TagNone, g.At(0, 0).Tag)
	assert.Zero(t, g.At(1, 1).TouchingFlags)

	g.cells[g.index(1, 1)].Revealed = true
	assert.Nil(t, g.ToggleFlag(1, 1), "revealed cells are never tagged")
}

func TestTagText(t *testing.T) {
	t.Parallel()

	for _, tag := range []Tag{TagNone, TagFlag, TagMark} {
		b, err := tag.MarshalText()
		require.NoError(t, err)
		var got Tag
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, tag, got)
	}
	var bad Tag
	assert.Error(t, bad.UnmarshalText([]byte("bomb")))
}
