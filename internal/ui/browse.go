package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-tetris/internal/discovery"
)

// FeedSource lists spectator feeds found on the network. *discovery.Listener satisfies it.
type FeedSource interface {
	Feeds() []discovery.FeedInfo
}

// refreshInterval is how often the feed list is re-read.
const refreshInterval = 500 * time.Millisecond

// refreshMsg triggers a re-read of the feed list.
type refreshMsg time.Time

var selectedStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#ff8844")).
	Bold(true)

// BrowseModel lets the user pick a feed to watch.
type BrowseModel struct {
	source   FeedSource
	feeds    []discovery.FeedInfo
	cursor   int
	selected *discovery.FeedInfo
}

// NewBrowseModel creates a feed picker over source.
func NewBrowseModel(source FeedSource) BrowseModel {
	return BrowseModel{source: source}
}

// Selected returns the chosen feed, if the user picked one.
func (m BrowseModel) Selected() (discovery.FeedInfo, bool) {
	if m.selected == nil {
		return discovery.FeedInfo{}, false
	}
	return *m.selected, true
}

// Init reads the feed list and starts the refresh clock.
func (m BrowseModel) Init() tea.Cmd {
	return refresh()
}

// Update handles navigation keys and refreshes.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k", "w":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j", "s":
			if m.cursor < len(m.feeds)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.feeds) > 0 {
				feed := m.feeds[m.cursor]
				m.selected = &feed
				return m, tea.Quit
			}
		}

	case refreshMsg:
		m.feeds = m.source.Feeds()
		if m.cursor >= len(m.feeds) {
			m.cursor = max(len(m.feeds)-1, 0)
		}
		return m, tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
			return refreshMsg(t)
		})
	}

	return m, nil
}

// View renders the feed list.
func (m BrowseModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SPECTATOR FEEDS"))
	b.WriteString("\n\n")

	if len(m.feeds) == 0 {
		b.WriteString(labelStyle.Render("Searching the local network..."))
		b.WriteString("\n")
	}
	for i, f := range m.feeds {
		line := fmt.Sprintf("%-12s %-7s %2d watching  %s", f.Host, f.Board, f.Watchers, f.Addr)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Up/Down: Select | Enter: Watch | Q: Quit"))
	b.WriteString("\n")
	return b.String()
}

func refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshMsg(time.Now())
	}
}
