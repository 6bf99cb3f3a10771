package game

import "fmt"

func init() {
	precomputeMasks()
}

// Shape is one of the seven piece types.
type Shape uint8

const (
	I Shape = iota
	O
	T
	J
	L
	S
	Z

	// NumShapes is used to iterate through all shapes.
	NumShapes
)

func (s Shape) String() string {
	switch s {
	case I:
		return "I"
	case O:
		return "O"
	case T:
		return "T"
	case J:
		return "J"
	case L:
		return "L"
	case S:
		return "S"
	case Z:
		return "Z"
	}
	panic(fmt.Sprintf("unknown shape %d", uint8(s)))
}

// Rotation is one of the four orientations of a piece.
type Rotation uint8

const (
	R0 Rotation = iota
	R1
	R2
	R3

	numRotations
)

// Step returns the rotation reached by turning once in dir (+1 or -1).
func (r Rotation) Step(dir int) Rotation {
	switch dir {
	case 1:
		return (r + 1) % numRotations
	case -1:
		return (r + numRotations - 1) % numRotations
	}
	panic(fmt.Sprintf("rotation step must be 1 or -1, got %d", dir))
}

func (r Rotation) String() string {
	if r >= numRotations {
		return "R?"
	}
	return fmt.Sprintf("R%d", uint8(r))
}

// Mask window size scanned by the board for any piece.
const maskWindow = 4

// Patterns follow the SRS table at strategywiki.org/wiki/Tetris/Rotation_systems.
var patterns = [NumShapes][numRotations][]string{
	I: {
		{
			"....",
			"####",
			"....",
			"....",
		},
		{
			"..#.",
			"..#.",
			"..#.",
			"..#.",
		},
		{
			"....",
			"....",
			"####",
			"....",
		},
		{
			".#..",
			".#..",
			".#..",
			".#..",
		},
	},
	O: {
		oPattern,
		oPattern,
		oPattern,
		oPattern,
	},
	T: {
		{
			".#.",
			"###",
			"...",
		},
		{
			".#.",
			".##",
			".#.",
		},
		{
			"...",
			"###",
			".#.",
		},
		{
			".#.",
			"##.",
			".#.",
		},
	},
	J: {
		{
			"#..",
			"###",
			"...",
		},
		{
			".##",
			".#.",
			".#.",
		},
		{
			"...",
			"###",
			"..#",
		},
		{
			".#.",
			".#.",
			"##.",
		},
	},
	L: {
		{
			"..#",
			"###",
			"...",
		},
		{
			".#.",
			".#.",
			".##",
		},
		{
			"...",
			"###",
			"#..",
		},
		{
			"##.",
			".#.",
			".#.",
		},
	},
	S: {
		{
			".##",
			"##.",
			"...",
		},
		{
			".#.",
			".##",
			"..#",
		},
		{
			"...",
			".##",
			"##.",
		},
		{
			"#..",
			"##.",
			".#.",
		},
	},
	Z: {
		{
			"##.",
			".##",
			"...",
		},
		{
			"..#",
			".##",
			".#.",
		},
		{
			"...",
			"##.",
			".##",
		},
		{
			".#.",
			"##.",
			"#..",
		},
	},
}

var oPattern = []string{
	"....",
	".##.",
	".##.",
	"....",
}

// masks holds the parsed patterns. It is filled once in init and never modified.
var masks [NumShapes][numRotations][][]bool

func precomputeMasks() {
	for s := Shape(0); s < NumShapes; s++ {
		for r := R0; r < numRotations; r++ {
			rows := patterns[s][r]
			m := make([][]bool, len(rows))
			for y, row := range rows {
				if len(row) != len(rows) {
					panic(fmt.Sprintf("pattern %v/%v is not square", s, r))
				}
				m[y] = make([]bool, len(row))
				for x, ch := range row {
					m[y][x] = ch == '#'
				}
			}
			masks[s][r] = m
		}
	}
}

func mask(s Shape, r Rotation) [][]bool {
	if s >= NumShapes || r >= numRotations {
		panic(fmt.Sprintf("no mask for shape %d rotation %d", uint8(s), uint8(r)))
	}
	return masks[s][r]
}

// Mask returns a copy of the occupied-cell grid for a shape and rotation,
// indexed [y][x]. I and O use a 4x4 grid, every other shape 3x3.
func Mask(s Shape, r Rotation) [][]bool {
	src := mask(s, r)
	out := make([][]bool, len(src))
	for y := range src {
		out[y] = append([]bool(nil), src[y]...)
	}
	return out
}

// Probe reports whether the cell (dx, dy) of the mask is occupied.
// Coordinates outside the mask, negative ones included, are never occupied.
func Probe(s Shape, r Rotation, dx, dy int) bool {
	m := mask(s, r)
	if dx < 0 || dy < 0 || dy >= len(m) || dx >= len(m[dy]) {
		return false
	}
	return m[dy][dx]
}
