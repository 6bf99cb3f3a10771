package game

import (
	"fmt"
	"sync"
)

// Engine owns the board, the active and next pieces, and the statistics.
// It performs no I/O and no pacing: the caller applies one input and one
// tick per frame. All exported methods are safe for concurrent use; the
// engine is a single unit of mutual exclusion.
type Engine struct {
	config Config

	board  *Board
	active *Piece
	next   *Piece
	stats  Stats
	rng    Rand

	countdown int
	changes   uint64
	games     int

	mu         sync.Mutex
	onGameOver func(Stats) // Called after a blocked spawn, with the final stats
}

// NewEngine creates an engine with a fresh board and two random pieces.
func NewEngine(config Config, rng Rand) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	spawn := SpawnPosition(config.Width)
	e := &Engine{
		config:    config,
		board:     NewBoard(config.Width, config.Height),
		rng:       rng,
		countdown: config.StepInterval,
		games:     1,
	}
	e.active = NewPiece(spawn, rng)
	e.next = NewPiece(spawn, rng)
	return e, nil
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config {
	return e.config
}

// OnGameOver sets a callback invoked whenever a blocked spawn ends a game.
// It runs after the engine lock is released and receives the final stats.
func (e *Engine) OnGameOver(fn func(Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onGameOver = fn
}

// HandleInput applies one player input.
func (e *Engine) HandleInput(in Input) StepResult {
	e.mu.Lock()
	res := e.handleInputLocked(in)
	fn := e.onGameOver
	e.mu.Unlock()

	notify(fn, res)
	return res
}

// Tick advances the forced-descent timer by one step.
func (e *Engine) Tick() StepResult {
	e.mu.Lock()
	res := e.tickLocked()
	fn := e.onGameOver
	e.mu.Unlock()

	notify(fn, res)
	return res
}

// Step applies one input followed by one tick, the per-frame unit of play.
func (e *Engine) Step(in Input) StepResult {
	e.mu.Lock()
	res := e.handleInputLocked(in)
	res.merge(e.tickLocked())
	fn := e.onGameOver
	e.mu.Unlock()

	notify(fn, res)
	return res
}

func notify(fn func(Stats), res StepResult) {
	if fn != nil && res.GameOver {
		fn(res.Final)
	}
}

func (e *Engine) handleInputLocked(in Input) StepResult {
	switch in {
	case NoInput:
		return StepResult{}
	case MoveLeft:
		return e.translate(-1)
	case MoveRight:
		return e.translate(1)
	case SoftDrop:
		return e.softDrop()
	case HardDrop:
		return e.hardDrop()
	case RotateLeft:
		return e.rotate(-1)
	case RotateRight:
		return e.rotate(1)
	case Reset:
		e.reset()
		return StepResult{Changed: true}
	}
	panic(fmt.Sprintf("unknown input %d", uint8(in)))
}

func (e *Engine) tickLocked() StepResult {
	e.countdown--
	if e.countdown > 0 {
		return StepResult{}
	}
	e.countdown = e.config.StepInterval
	return e.softDrop()
}

func (e *Engine) translate(dx int) StepResult {
	e.active.Translate(dx, 0)
	if e.board.Collides(e.active) {
		e.active.Translate(-dx, 0)
		return StepResult{}
	}
	e.changes++
	return StepResult{Changed: true}
}

// rotate never kicks: a rotation that collides is rejected.
func (e *Engine) rotate(dir int) StepResult {
	e.active.Rotate(dir)
	if e.board.Collides(e.active) {
		e.active.Rotate(-dir)
		return StepResult{}
	}
	e.changes++
	return StepResult{Changed: true}
}

func (e *Engine) softDrop() StepResult {
	e.changes++
	e.active.Translate(0, 1)
	if !e.board.Collides(e.active) {
		return StepResult{Changed: true}
	}
	e.active.Translate(0, -1)
	return e.lock()
}

func (e *Engine) hardDrop() StepResult {
	e.changes++
	for !e.board.Collides(e.active) {
		e.active.Translate(0, 1)
	}
	e.active.Translate(0, -1)
	if e.config.LockOnHardDrop {
		return e.lock()
	}
	return StepResult{Changed: true}
}

// lock freezes the active piece, clears rows and brings in the next piece.
// A blocked spawn ends the game and resets it.
func (e *Engine) lock() StepResult {
	e.board.Freeze(e.active)
	rows := e.board.ClearFullRows()
	e.stats.Record(rows)

	e.active.RespawnAs(e.next)
	e.next.Randomize(e.rng)

	res := StepResult{Changed: true, Locked: true, Cleared: rows}
	if e.board.Collides(e.active) {
		res.GameOver = true
		res.Final = e.stats
		e.reset()
	}
	return res
}

func (e *Engine) reset() {
	e.changes++
	e.games++
	e.board.Clear()
	e.active.RespawnAs(e.next)
	e.next.Randomize(e.rng)
	e.stats.Reset()
	e.countdown = e.config.StepInterval
}

// Width returns the board width.
func (e *Engine) Width() int {
	return e.config.Width
}

// Height returns the board height.
func (e *Engine) Height() int {
	return e.config.Height
}

// BoardAt returns the locked cell at (x, y) without the active piece.
func (e *Engine) BoardAt(x, y int) Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.At(x, y)
}

// CellAt returns the active piece's color if it covers (x, y), otherwise the
// locked cell, otherwise OutOfBounds.
func (e *Engine) CellAt(x, y int) Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlayLocked(x, y)
}

func (e *Engine) overlayLocked(x, y int) Cell {
	off := e.active.Offset()
	if e.active.Occupies(x-off.X, y-off.Y) {
		return e.active.Color()
	}
	return e.board.At(x, y)
}

// Active returns the active piece at its board offset.
func (e *Engine) Active() PieceView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.View(e.active.Offset())
}

// Next returns the upcoming piece at the neutral offset (0, 0).
func (e *Engine) Next() PieceView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.next.View(Position{})
}

// Stats returns a copy of the current statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ChangeCount returns a counter that grows every time the visible state
// changes. Pollers compare it with the value they saw last.
func (e *Engine) ChangeCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changes
}

// Games returns how many games have been started, the current one included.
func (e *Engine) Games() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.games
}

// Snapshot returns a deep copy of the renderable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// snapshotLocked builds the overlay grid. MUST be called while e.mu is held.
func (e *Engine) snapshotLocked() Snapshot {
	cells := e.board.copyCells()
	off := e.active.Offset()
	for dy := 0; dy < maskWindow; dy++ {
		for dx := 0; dx < maskWindow; dx++ {
			if !e.active.Occupies(dx, dy) {
				continue
			}
			x, y := off.X+dx, off.Y+dy
			if e.board.inside(x, y) {
				cells[y][x] = e.active.Color()
			}
		}
	}

	return Snapshot{
		Width:   e.board.Width(),
		Height:  e.board.Height(),
		Cells:   cells,
		Active:  e.active.View(off),
		Next:    e.next.View(Position{}),
		Stats:   e.stats,
		Changes: e.changes,
		Games:   e.games,
	}
}
