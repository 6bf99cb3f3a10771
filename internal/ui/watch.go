package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-tetris/internal/game"
)

// SnapshotSource yields snapshots of a remote game. *network.Client satisfies it.
type SnapshotSource interface {
	Snapshots() <-chan game.Snapshot
	Host() string
}

// snapshotMsg carries a new snapshot from the spectator feed.
type snapshotMsg game.Snapshot

// errMsg carries an error.
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// WatchModel is the Bubbletea model for watching someone else's game.
type WatchModel struct {
	source   SnapshotSource
	snap     *game.Snapshot
	style    int
	err      error
	quitting bool
}

// NewWatchModel creates a read-only model fed by source.
func NewWatchModel(source SnapshotSource) WatchModel {
	return WatchModel{source: source}
}

// Init starts listening for snapshots.
func (m WatchModel) Init() tea.Cmd {
	return waitForSnapshot(m.source)
}

// Update handles incoming snapshots and the quit keys.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "t":
			m.style = nextBoardStyle(m.style)
		}

	case snapshotMsg:
		snap := game.Snapshot(msg)
		m.snap = &snap
		return m, waitForSnapshot(m.source)

	case errMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the watched board and its HUD.
func (m WatchModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.err != nil {
		return alertStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	status := fmt.Sprintf("Watching %s", m.source.Host())
	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			RenderBoard(m.snap, m.style),
			"  ",
			RenderHUD(m.snap, nil, status),
		),
		helpStyle.Render("T: Style | Q: Quit"),
	) + "\n"
}

// waitForSnapshot returns a Cmd that waits for the next snapshot from the host.
func waitForSnapshot(source SnapshotSource) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-source.Snapshots()
		if !ok {
			return errMsg{err: fmt.Errorf("host connection closed")}
		}
		return snapshotMsg(snap)
	}
}
