package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-tetris/internal/game"
	"github.com/amalg/go-tetris/internal/scores"
)

// ScoreStore is the high-score persistence the model records finished games in.
type ScoreStore interface {
	Save(ctx context.Context, r scores.Record) error
	Top(ctx context.Context, n int) ([]scores.Record, error)
}

// Options configures the local game model.
type Options struct {
	Player    string
	FrameTime time.Duration
	// Scores may be nil, in which case nothing is recorded.
	Scores ScoreStore
	// TopN is how many high scores the HUD lists.
	TopN int
	// Bindings override or extend the default key map.
	Bindings map[string]game.Input
}

// DefaultOptions returns 60 frames per second and a five-entry score list.
func DefaultOptions() Options {
	return Options{
		Player:    "player",
		FrameTime: time.Second / 60,
		TopN:      5,
	}
}

// gameOverFrames is how long the game-over banner stays up.
const gameOverFrames = 120

// frameMsg drives one engine step.
type frameMsg time.Time

// scoresMsg carries the high-score list, or an error loading it.
type scoresMsg struct {
	top []scores.Record
	err error
}

// savedMsg reports the outcome of recording a finished game.
type savedMsg struct{ err error }

// shutdownMsg asks the model to quit the way the quit keys do.
type shutdownMsg struct{}

// Shutdown returns a message that quits the game after recording the
// current one. Send it to the program on an OS signal.
func Shutdown() tea.Msg {
	return shutdownMsg{}
}

// Model is the Bubbletea model for a local game.
type Model struct {
	engine    *game.Engine
	opts      Options
	snap      *game.Snapshot
	pending   game.Input
	top       []scores.Record
	banner    string
	bannerTTL int
	style     int
	paused    bool
	quitting  bool
}

// NewModel creates a TUI model playing on engine.
func NewModel(engine *game.Engine, opts Options) Model {
	if opts.FrameTime <= 0 {
		opts.FrameTime = DefaultOptions().FrameTime
	}
	snap := engine.Snapshot()
	return Model{
		engine: engine,
		opts:   opts,
		snap:   &snap,
	}
}

// Init starts the frame clock and loads the high scores.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.frame(), m.loadScores())
}

// Update handles key presses, frames and score store results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		return m.step()

	case shutdownMsg:
		return m.quit()

	case scoresMsg:
		if msg.err != nil {
			log.Printf("[SCORES] Failed to load high scores: %v", msg.err)
			return m, nil
		}
		m.top = msg.top
		return m, nil

	case savedMsg:
		if msg.err != nil {
			log.Printf("[SCORES] Failed to save score: %v", msg.err)
			return m, nil
		}
		return m, m.loadScores()
	}

	return m, nil
}

// step applies the pending input and one tick, the engine's per-frame unit.
func (m Model) step() (tea.Model, tea.Cmd) {
	if m.quitting {
		return m, nil
	}
	if m.paused {
		return m, m.frame()
	}

	res := m.engine.Step(m.pending)
	m.pending = game.NoInput

	var cmds []tea.Cmd
	if res.GameOver {
		m.banner = fmt.Sprintf("GAME OVER - %d lines", res.Final.Cleared)
		m.bannerTTL = gameOverFrames
		cmds = append(cmds, m.saveScore(res.Final))
	} else if m.bannerTTL > 0 {
		m.bannerTTL--
		if m.bannerTTL == 0 {
			m.banner = ""
		}
	}

	if res.Changed || m.snap == nil {
		snap := m.engine.Snapshot()
		m.snap = &snap
	}

	cmds = append(cmds, m.frame())
	return m, tea.Batch(cmds...)
}

// View renders the board and the HUD side by side.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	status := m.banner
	if m.paused {
		status = "PAUSED"
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			RenderBoard(m.snap, m.style),
			"  ",
			RenderHUD(m.snap, m.top, status),
		),
		RenderHelp(),
	) + "\n"
}

// keyInputs maps key names to engine inputs.
var keyInputs = map[string]game.Input{
	"a":     game.MoveLeft,
	"left":  game.MoveLeft,
	"d":     game.MoveRight,
	"right": game.MoveRight,
	"s":     game.SoftDrop,
	"down":  game.SoftDrop,
	"w":     game.HardDrop,
	" ":     game.HardDrop,
	"q":     game.RotateLeft,
	"e":     game.RotateRight,
	"up":    game.RotateRight,
	"n":     game.Reset,
}

// handleKey processes keyboard input. Game inputs are queued and applied
// on the next frame; the last key pressed within a frame wins.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "esc":
		return m.quit()

	case "p":
		m.paused = !m.paused

	case "t":
		m.style = nextBoardStyle(m.style)

	default:
		if in, ok := m.inputFor(key); ok && !m.paused {
			m.pending = in
		}
	}

	return m, nil
}

func (m Model) inputFor(key string) (game.Input, bool) {
	if in, ok := m.opts.Bindings[key]; ok {
		return in, true
	}
	in, ok := keyInputs[key]
	return in, ok
}

// ParseBindings parses a comma separated list of key=input pairs, such as
// "j=left,l=right,k=rotate_right", where input is an Input name.
func ParseBindings(s string) (map[string]game.Input, error) {
	bindings := make(map[string]game.Input)
	if strings.TrimSpace(s) == "" {
		return bindings, nil
	}
	for _, pair := range strings.Split(s, ",") {
		key, name, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid binding %q: want key=input", pair)
		}
		in, err := game.ParseInput(name)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", key, err)
		}
		bindings[key] = in
	}
	return bindings, nil
}

// quit records the game in progress, then exits.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Sequence(m.saveScore(m.engine.Stats()), tea.Quit)
}

func (m Model) frame() tea.Cmd {
	return tea.Tick(m.opts.FrameTime, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) loadScores() tea.Cmd {
	store, n := m.opts.Scores, m.opts.TopN
	if store == nil || n <= 0 {
		return nil
	}
	return func() tea.Msg {
		top, err := store.Top(context.Background(), n)
		return scoresMsg{top: top, err: err}
	}
}

// saveScore records a finished game. Games without a cleared row are skipped.
func (m Model) saveScore(stats game.Stats) tea.Cmd {
	record := scores.NewRecord(m.opts.Player, stats)
	store := m.opts.Scores
	if store == nil || !record.Worth() {
		return nil
	}
	return func() tea.Msg {
		return savedMsg{err: store.Save(context.Background(), record)}
	}
}
