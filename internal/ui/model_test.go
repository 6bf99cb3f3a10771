package ui

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-tetris/internal/game"
	"github.com/amalg/go-tetris/internal/scores"
)

// constRand always draws the same shape and color.
type constRand int

func (c constRand) Intn(n int) int { return int(c) % n }

type fakeStore struct {
	mu    sync.Mutex
	saved []scores.Record
}

func (f *fakeStore) Save(ctx context.Context, r scores.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeStore) Top(ctx context.Context, n int) ([]scores.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) > n {
		return f.saved[:n], nil
	}
	return append([]scores.Record(nil), f.saved...), nil
}

func newTestModel(t *testing.T, store ScoreStore) (Model, *game.Engine) {
	t.Helper()
	engine, err := game.NewEngine(game.DefaultConfig(), constRand(1))
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Player = "tester"
	opts.Scores = store
	return NewModel(engine, opts), engine
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestKeyQueuesInputUntilFrame(t *testing.T) {
	m, engine := newTestModel(t, nil)
	start := engine.Active().Offset

	m, _ = update(t, m, key("left"))
	assert.Equal(t, game.MoveLeft, m.pending)
	assert.Equal(t, start, engine.Active().Offset, "input waits for the frame")

	m, cmd := update(t, m, frameMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, game.NoInput, m.pending)
	assert.Equal(t, start.X-1, engine.Active().Offset.X)
	assert.Equal(t, start.X-1, m.snap.Active.Offset.X)
}

func TestLastKeyInFrameWins(t *testing.T) {
	m, engine := newTestModel(t, nil)
	start := engine.Active().Offset

	m, _ = update(t, m, key("a"))
	m, _ = update(t, m, key("d"))
	update(t, m, frameMsg(time.Now()))
	assert.Equal(t, start.X+1, engine.Active().Offset.X)
}

func TestPauseStopsTheEngine(t *testing.T) {
	m, engine := newTestModel(t, nil)

	m, _ = update(t, m, key("p"))
	require.True(t, m.paused)
	m, _ = update(t, m, key("d"))
	assert.Equal(t, game.NoInput, m.pending)

	before := engine.ChangeCount()
	for i := 0; i < 30; i++ {
		m, _ = update(t, m, frameMsg(time.Now()))
	}
	assert.Equal(t, before, engine.ChangeCount())
	assert.Contains(t, m.View(), "PAUSED")

	m, _ = update(t, m, key("p"))
	for i := 0; i < 10; i++ {
		m, _ = update(t, m, frameMsg(time.Now()))
	}
	assert.Greater(t, engine.ChangeCount(), before)
}

func TestGameOverShowsBanner(t *testing.T) {
	store := &fakeStore{}
	m, engine := newTestModel(t, store)

	// Stack O pieces in the middle until the spawn is blocked.
	for i := 0; i < 200 && m.banner == ""; i++ {
		m, _ = update(t, m, key("w"))
		m, _ = update(t, m, frameMsg(time.Now()))
		m, _ = update(t, m, key("s"))
		m, _ = update(t, m, frameMsg(time.Now()))
	}
	require.Contains(t, m.banner, "GAME OVER")
	assert.Equal(t, 2, engine.Games())
	assert.Empty(t, store.saved, "games without cleared rows are not recorded")
}

func TestSaveScoreRefreshesTop(t *testing.T) {
	store := &fakeStore{}
	m, _ := newTestModel(t, store)

	cmd := m.saveScore(game.Stats{Cleared: 3, OneLine: 1, TwoLine: 1})
	require.NotNil(t, cmd)
	saved, ok := cmd().(savedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "tester", store.saved[0].Player)

	m, cmd = update(t, m, saved)
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.Len(t, m.top, 1)
	assert.Contains(t, m.View(), "tester")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, cmd := update(t, m, key("esc"))
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Equal(t, "Goodbye!\n", m.View())
}

// runSequence runs cmd, and each command of a sequence it expands to, and
// returns the messages they produce.
func runSequence(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for i := 0; i < v.Len(); i++ {
		c, ok := v.Index(i).Interface().(tea.Cmd)
		require.True(t, ok)
		if c != nil {
			msgs = append(msgs, c())
		}
	}
	return msgs
}

// clearTwoRows fills the bottom two rows with five O pieces.
func clearTwoRows(t *testing.T, engine *game.Engine) {
	t.Helper()
	for _, moves := range []int{-4, -2, 0, 2, 4} {
		in := game.MoveRight
		if moves < 0 {
			in, moves = game.MoveLeft, -moves
		}
		for i := 0; i < moves; i++ {
			engine.HandleInput(in)
		}
		engine.HandleInput(game.HardDrop)
		engine.HandleInput(game.SoftDrop)
	}
	require.Equal(t, game.Stats{Cleared: 2, TwoLine: 1}, engine.Stats())
}

func TestShutdownRecordsGame(t *testing.T) {
	store := &fakeStore{}
	m, engine := newTestModel(t, store)
	clearTwoRows(t, engine)

	m, cmd := update(t, m, Shutdown())
	assert.True(t, m.quitting)

	msgs := runSequence(t, cmd)
	require.Len(t, msgs, 2)
	assert.Equal(t, savedMsg{}, msgs[0])
	assert.Equal(t, tea.QuitMsg{}, msgs[1])
	require.Len(t, store.saved, 1)
	assert.Equal(t, 2, store.saved[0].Stats.Cleared)
}

func TestStyleKeyCyclesBoard(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, _ = update(t, m, key("t"))
	assert.Equal(t, 1, m.style)
	assert.Equal(t, game.NoInput, m.pending)
}

func TestParseBindings(t *testing.T) {
	bindings, err := ParseBindings("j=left, l=right ,k=rotate_right")
	require.NoError(t, err)
	assert.Equal(t, map[string]game.Input{
		"j": game.MoveLeft,
		"l": game.MoveRight,
		"k": game.RotateRight,
	}, bindings)

	empty, err := ParseBindings("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseBindings("j")
	assert.ErrorContains(t, err, "want key=input")
	_, err = ParseBindings("j=jump")
	assert.ErrorContains(t, err, "unknown input")
}

func TestBindingsOverrideKeys(t *testing.T) {
	engine, err := game.NewEngine(game.DefaultConfig(), constRand(1))
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Bindings = map[string]game.Input{"j": game.MoveLeft, "a": game.RotateLeft}
	m := NewModel(engine, opts)

	m, _ = update(t, m, key("j"))
	assert.Equal(t, game.MoveLeft, m.pending)
	m, _ = update(t, m, key("a"))
	assert.Equal(t, game.RotateLeft, m.pending)
	m, _ = update(t, m, key("d"))
	assert.Equal(t, game.MoveRight, m.pending, "unbound keys keep their defaults")
}

type fakeSource struct {
	ch chan game.Snapshot
}

func (f *fakeSource) Snapshots() <-chan game.Snapshot { return f.ch }
func (f *fakeSource) Host() string { return "alice" }

func TestWatchModel(t *testing.T) {
	source := &fakeSource{ch: make(chan game.Snapshot, 1)}
	m := NewWatchModel(source)

	snap := *testSnapshot(t)
	source.ch <- snap
	msg := m.Init()()
	next, cmd := m.Update(msg)
	m = next.(WatchModel)
	require.NotNil(t, m.snap)
	assert.Equal(t, snap.Changes, m.snap.Changes)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Watching alice")

	close(source.ch)
	next, _ = m.Update(cmd())
	m = next.(WatchModel)
	assert.Contains(t, m.View(), "host connection closed")
}
