package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amalg/go-tetris/internal/game"
	"github.com/amalg/go-tetris/internal/scores"
)

// Color palette
var (
	// One style per piece color, indexed by Cell.ColorIndex.
	cellColors = [game.NumColors]lipgloss.Color{
		lipgloss.Color("#00d7ff"), // Cyan
		lipgloss.Color("#ffd700"), // Yellow
		lipgloss.Color("#af5fff"), // Purple
		lipgloss.Color("#0087ff"), // Blue
		lipgloss.Color("#ff8700"), // Orange
		lipgloss.Color("#00ff5f"), // Green
		lipgloss.Color("#ff005f"), // Red
		lipgloss.Color("#d0d0d0"), // Grey
	}

	emptyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1a1a2e")).
			Foreground(lipgloss.Color("#2a2a44"))

	// wellStyles are the board frames the style key cycles through.
	wellStyles = []lipgloss.Style{
		wellStyle(lipgloss.ThickBorder()),
		wellStyle(lipgloss.DoubleBorder()),
		wellStyle(lipgloss.BlockBorder()),
	}

	// HUD styles
	hudBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8844")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff4444")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))
)

// renderCell renders a single cell. Each cell is 2 characters wide for a
// square-ish appearance.
func renderCell(c game.Cell) string {
	if !c.IsColor() {
		return emptyStyle.Render(" .")
	}
	color := cellColors[c.ColorIndex()]
	return lipgloss.NewStyle().
		Foreground(color).
		Background(color).
		Render("██")
}

func wellStyle(border lipgloss.Border) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color("#444466"))
}

// nextBoardStyle returns the frame after style, wrapping around.
func nextBoardStyle(style int) int {
	return (style + 1) % len(wellStyles)
}

// RenderBoard draws the board with the active piece overlaid, framed in
// one of the board styles.
func RenderBoard(snap *game.Snapshot, style int) string {
	if snap == nil || len(snap.Cells) == 0 {
		return "Waiting for game state..."
	}

	rows := make([]string, 0, snap.Height)
	for y := 0; y < snap.Height; y++ {
		var b strings.Builder
		for x := 0; x < snap.Width; x++ {
			b.WriteString(renderCell(snap.Cells[y][x]))
		}
		rows = append(rows, b.String())
	}
	return wellStyles[style%len(wellStyles)].Render(strings.Join(rows, "\n"))
}

// RenderPiece draws the 4x4 window of a piece, used for the next-piece preview.
func RenderPiece(v game.PieceView) string {
	rows := make([]string, 0, len(v.Cells))
	for _, row := range v.Cells {
		var b strings.Builder
		for _, c := range row {
			b.WriteString(renderCell(c))
		}
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// RenderHUD renders the side panel: next piece, line statistics and the
// best recorded games.
func RenderHUD(snap *game.Snapshot, top []scores.Record, status string) string {
	if snap == nil {
		return ""
	}

	var parts []string
	parts = append(parts, titleStyle.Render("TETRIS"))
	if status != "" {
		parts = append(parts, alertStyle.Render(status))
	}
	parts = append(parts, "")

	parts = append(parts, labelStyle.Render("Next:"))
	parts = append(parts, RenderPiece(snap.Next))
	parts = append(parts, "")

	parts = append(parts, renderStats(snap.Stats, snap.Games))

	if len(top) > 0 {
		parts = append(parts, "")
		parts = append(parts, labelStyle.Render("Best:"))
		for i, r := range top {
			parts = append(parts, fmt.Sprintf("%2d. %-12s %5d", i+1, r.Player, r.Stats.Cleared))
		}
	}

	return hudBorderStyle.Render(strings.Join(parts, "\n"))
}

func renderStats(s game.Stats, games int) string {
	lines := []string{
		fmt.Sprintf("%s %7d", labelStyle.Render("Game:    "), games),
		fmt.Sprintf("%s %7d", labelStyle.Render("Lines:   "), s.Cleared),
		fmt.Sprintf("%s %7d", labelStyle.Render("4-line:  "), s.FourLine),
		fmt.Sprintf("%s %7d", labelStyle.Render("3-line:  "), s.ThreeLine),
		fmt.Sprintf("%s %7d", labelStyle.Render("2-line:  "), s.TwoLine),
		fmt.Sprintf("%s %7d", labelStyle.Render("1-line:  "), s.OneLine),
	}
	return strings.Join(lines, "\n")
}

// RenderHelp renders the key bindings line.
func RenderHelp() string {
	return helpStyle.Render("A/D: Move | S: Down | W/Space: Drop | Q/E: Rotate | N: New | P: Pause | T: Style | Esc: Quit")
}
