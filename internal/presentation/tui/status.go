package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

const progressWidth = 24

// StatusLine summarizes the playback position of a view.
func StatusLine(algorithm string, v domain.View) string {
	var status string
	switch v.Status {
	case domain.StatusPlaying:
		status = playingStyle.Render("▶ playing")
	case domain.StatusPaused:
		status = pausedStyle.Render("⏸ paused")
	default:
		status = dimStyle.Render("■ idle")
	}
	parts := []string{
		titleStyle.Render(algorithm),
		status,
		fmt.Sprintf("step %d/%d", v.Cursor+1, v.TotalSteps),
		progress(v.Cursor, v.TotalSteps),
		dimStyle.Render(fmt.Sprintf("speed %d", v.Speed)),
	}
	return strings.Join(parts, "  ")
}

func progress(cursor, total int) string {
	filled := progressWidth
	if total > 1 {
		filled = cursor * progressWidth / (total - 1)
	}
	return strings.Repeat("█", filled) + dimStyle.Render(strings.Repeat("░", progressWidth-filled))
}

// Help lists the key bindings of the terminal player.
func Help() string {
	return helpStyle.Render("p play/pause  [ back  ] step  r reset  +/- speed  c copy link  q quit")
}
