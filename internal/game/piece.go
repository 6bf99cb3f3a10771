package game

// Piece is a shape in a rotation at an offset on the board.
// The offset is the top-left corner of the shape's mask in board coordinates.
//
// A Piece is mutated in place for the whole game: when it locks, the same
// instance takes over the identity of the next piece through RespawnAs.
type Piece struct {
	shape    Shape
	rotation Rotation
	offset   Position
	color    Cell
	spawn    Position
}

// NewPiece returns a random piece positioned at spawn.
func NewPiece(spawn Position, rng Rand) *Piece {
	p := &Piece{spawn: spawn}
	p.Randomize(rng)
	return p
}

func (p *Piece) Shape() Shape { return p.shape }
func (p *Piece) Rotation() Rotation { return p.rotation }
func (p *Piece) Offset() Position { return p.offset }
func (p *Piece) Color() Cell { return p.color }

// Occupies reports whether mask cell (dx, dy) is part of the piece.
func (p *Piece) Occupies(dx, dy int) bool {
	return Probe(p.shape, p.rotation, dx, dy)
}

// CellAt returns the piece color for occupied mask cells and Empty otherwise.
func (p *Piece) CellAt(dx, dy int) Cell {
	if p.Occupies(dx, dy) {
		return p.color
	}
	return Empty
}

// BoardPosition converts a mask coordinate into board coordinates.
func (p *Piece) BoardPosition(dx, dy int) (int, int) {
	return p.offset.X + dx, p.offset.Y + dy
}

// Translate moves the piece without checking for collisions.
func (p *Piece) Translate(dx, dy int) {
	p.offset.X += dx
	p.offset.Y += dy
}

// Rotate turns the piece by dir (+1 or -1) without checking for collisions.
func (p *Piece) Rotate(dir int) {
	p.rotation = p.rotation.Step(dir)
}

// RespawnAs takes the shape and color of other and moves back to spawn.
func (p *Piece) RespawnAs(other *Piece) {
	p.shape = other.shape
	p.color = other.color
	p.rotation = R0
	p.offset = p.spawn
}

// Randomize draws a new shape, then a new color, and moves back to spawn.
func (p *Piece) Randomize(rng Rand) {
	p.shape = Shape(rng.Intn(int(NumShapes)))
	p.color = ColorCell(rng.Intn(NumColors))
	p.rotation = R0
	p.offset = p.spawn
}

// View copies the piece into a render-ready value. The offset reported is
// at, which lets a preview be drawn at a neutral position.
func (p *Piece) View(at Position) PieceView {
	v := PieceView{
		Shape:    p.shape,
		Rotation: p.rotation,
		Offset:   at,
		Color:    p.color,
	}
	for dy := 0; dy < maskWindow; dy++ {
		for dx := 0; dx < maskWindow; dx++ {
			v.Cells[dy][dx] = p.CellAt(dx, dy)
		}
	}
	return v
}
