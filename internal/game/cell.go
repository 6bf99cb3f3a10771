package game

import "fmt"

// Cell is the content of one board position or one piece mask cell.
type Cell uint8

const (
	Empty Cell = iota
	Color0
	Color1
	Color2
	Color3
	Color4
	Color5
	Color6
	Color7

	// OutOfBounds is returned by queries outside the grid. It is never stored.
	OutOfBounds
)

// NumColors is the number of colors a piece can be drawn with.
const NumColors = 8

// ColorCell returns the i-th color cell.
func ColorCell(i int) Cell {
	if i < 0 || i >= NumColors {
		panic(fmt.Sprintf("color index %d out of range", i))
	}
	return Color0 + Cell(i)
}

// IsColor reports whether c is a locked or piece color.
func (c Cell) IsColor() bool {
	return c >= Color0 && c <= Color7
}

// ColorIndex returns the index passed to ColorCell, or -1 for non-colors.
func (c Cell) ColorIndex() int {
	if !c.IsColor() {
		return -1
	}
	return int(c - Color0)
}

func (c Cell) String() string {
	switch {
	case c == Empty:
		return "empty"
	case c == OutOfBounds:
		return "out"
	case c.IsColor():
		return fmt.Sprintf("color%d", c.ColorIndex())
	}
	return "unknown"
}
