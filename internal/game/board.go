package game

// Board is the fixed-size grid of locked cells. The active piece is never
// written into it until it locks.
type Board struct {
	width  int
	height int
	cells  [][]Cell
}

// NewBoard returns an empty board. The dimensions never change afterwards.
func NewBoard(width, height int) *Board {
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}
	return &Board{
		width:  width,
		height: height,
		cells:  cells,
	}
}

func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

func (b *Board) inside(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// At returns the locked cell at (x, y), or OutOfBounds outside the grid.
func (b *Board) At(x, y int) Cell {
	if !b.inside(x, y) {
		return OutOfBounds
	}
	return b.cells[y][x]
}

// Collides reports whether any occupied cell of p lies outside the grid or
// on a non-empty cell.
func (b *Board) Collides(p *Piece) bool {
	for dy := 0; dy < maskWindow; dy++ {
		for dx := 0; dx < maskWindow; dx++ {
			if !p.Occupies(dx, dy) {
				continue
			}
			if b.At(p.BoardPosition(dx, dy)) != Empty {
				return true
			}
		}
	}
	return false
}

// Freeze writes the color of p into every board cell it occupies.
// p must not collide; an out-of-grid cell panics.
func (b *Board) Freeze(p *Piece) {
	for dy := 0; dy < maskWindow; dy++ {
		for dx := 0; dx < maskWindow; dx++ {
			if !p.Occupies(dx, dy) {
				continue
			}
			x, y := p.BoardPosition(dx, dy)
			b.cells[y][x] = p.Color()
		}
	}
}

func (b *Board) rowFull(y int) bool {
	for _, c := range b.cells[y] {
		if c == Empty {
			return false
		}
	}
	return true
}

// removeRow shifts every row above y down by one and empties the top row.
func (b *Board) removeRow(y int) {
	for r := y; r > 0; r-- {
		copy(b.cells[r], b.cells[r-1])
	}
	for x := range b.cells[0] {
		b.cells[0][x] = Empty
	}
}

// ClearFullRows removes every full row, scanning top to bottom, and returns
// how many were removed. Shifting only moves rows already found non-full,
// so a single pass sees every full row.
func (b *Board) ClearFullRows() int {
	count := 0
	for y := 0; y < b.height; y++ {
		if b.rowFull(y) {
			b.removeRow(y)
			count++
		}
	}
	return count
}

// Clear empties every cell.
func (b *Board) Clear() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = Empty
		}
	}
}

// copyCells returns a deep copy of the grid, indexed [y][x].
func (b *Board) copyCells() [][]Cell {
	out := make([][]Cell, b.height)
	for y := range out {
		out[y] = make([]Cell, b.width)
		copy(out[y], b.cells[y])
	}
	return out
}
