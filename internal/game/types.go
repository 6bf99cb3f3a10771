package game

import (
	"fmt"
	"strings"
)

// Position represents a coordinate on the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Input is one player command applied per engine step.
type Input uint8

const (
	NoInput Input = iota
	MoveLeft
	MoveRight
	SoftDrop
	HardDrop
	RotateLeft
	RotateRight
	Reset

	// inputLimit is used to iterate through all inputs.
	inputLimit
)

func (in Input) String() string {
	switch in {
	case NoInput:
		return "none"
	case MoveLeft:
		return "left"
	case MoveRight:
		return "right"
	case SoftDrop:
		return "soft_drop"
	case HardDrop:
		return "hard_drop"
	case RotateLeft:
		return "rotate_left"
	case RotateRight:
		return "rotate_right"
	case Reset:
		return "reset"
	}
	return "unknown"
}

// ParseInput maps the String form of an input back to the Input.
func ParseInput(s string) (Input, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for in := NoInput; in < inputLimit; in++ {
		if in.String() == s {
			return in, nil
		}
	}
	return NoInput, fmt.Errorf("unknown input %q", s)
}

// Rand is the random source the engine draws piece shapes and colors from.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Config holds the parameters of an engine instance.
type Config struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// StepInterval is the number of ticks between forced descents.
	StepInterval int `json:"step_interval"`
	// LockOnHardDrop locks the piece as soon as a hard drop lands.
	// By default a landed piece still waits for the next soft drop or forced descent.
	LockOnHardDrop bool `json:"lock_on_hard_drop"`
}

// DefaultConfig returns the canonical 10x20 configuration.
func DefaultConfig() Config {
	return Config{
		Width:        10,
		Height:       20,
		StepInterval: 10,
	}
}

// Validate checks that a board of this size can hold every piece at spawn.
func (c Config) Validate() error {
	if c.Width < maskWindow {
		return fmt.Errorf("board width %d is below the minimum of %d", c.Width, maskWindow)
	}
	if c.Height < maskWindow {
		return fmt.Errorf("board height %d is below the minimum of %d", c.Height, maskWindow)
	}
	if c.StepInterval < 1 {
		return fmt.Errorf("step interval must be positive, got %d", c.StepInterval)
	}
	return nil
}

// SpawnPosition returns the offset every piece starts from on a board of the given width.
func SpawnPosition(width int) Position {
	return Position{X: width/2 - 2, Y: 0}
}

// StepResult reports what an input or tick did to the game.
type StepResult struct {
	Changed bool `json:"changed"`
	Locked  bool `json:"locked"`
	Cleared int  `json:"cleared"`
	// GameOver is set when the newly spawned piece was blocked and the game was reset.
	GameOver bool `json:"game_over"`
	// Final holds the statistics of the game that ended, valid when GameOver is set.
	Final Stats `json:"final"`
}

// merge folds a later result of the same step into r.
func (r *StepResult) merge(o StepResult) {
	r.Changed = r.Changed || o.Changed
	r.Locked = r.Locked || o.Locked
	r.Cleared += o.Cleared
	if o.GameOver {
		r.GameOver = true
		r.Final = o.Final
	}
}

// PieceView is a render-ready copy of a piece.
type PieceView struct {
	Shape    Shape                        `json:"shape"`
	Rotation Rotation                     `json:"rotation"`
	Offset   Position                     `json:"offset"`
	Color    Cell                         `json:"color"`
	Cells    [maskWindow][maskWindow]Cell `json:"cells"`
}

// Snapshot is a deep copy of everything a renderer needs.
type Snapshot struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Cells is the board with the active piece overlaid, indexed [y][x].
	Cells   [][]Cell  `json:"cells"`
	Active  PieceView `json:"active"`
	Next    PieceView `json:"next"`
	Stats   Stats     `json:"stats"`
	Changes uint64    `json:"changes"`
	Games   int       `json:"games"`
}
