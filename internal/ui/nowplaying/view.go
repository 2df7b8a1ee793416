package nowplaying

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tamaureus/tamaureus/internal/audio"
	"github.com/tamaureus/tamaureus/internal/engine"
	"github.com/tamaureus/tamaureus/internal/ui/render"
	"github.com/tamaureus/tamaureus/internal/ui/styles"
)

const (
	defaultWidth = 60
	filledBlock  = "▓"
	emptyBlock   = "░"
)

// View implements tea.Model.
func (m Model) View() string {
	s := styles.T().S()
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	// Border and horizontal padding.
	inner := max(width-4, 10)

	var lines []string
	if m.state.Empty {
		lines = append(lines, render.Pad(s.Muted.Render("Nothing playing"), inner))
	} else {
		lines = append(lines,
			render.Row(m.titleLine(inner), s.Subtle.Render(formatVolume(m.state.Volume)), inner),
			render.Pad(s.Muted.Render(render.Truncate(m.subtitle(), inner)), inner),
			renderProgress(m.position, m.state.Track.Duration, inner),
		)
	}
	if m.err != "" {
		lines = append(lines, s.Error.Render(render.Truncate(m.err, inner)))
	}

	panel := s.Panel.Width(inner + 2).Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, panel, " "+m.help.View(m.keys))
}

func (m Model) titleLine(width int) string {
	s := styles.T().S()
	icon := s.Playing.Render("▶")
	if m.state.Status == engine.Paused {
		icon = s.Paused.Render("⏸")
	}
	title := render.Truncate(m.info.Title, max(width-12, 1))
	return icon + "  " + styles.Gradient(title, styles.T().Primary, styles.T().Secondary)
}

// subtitle is "Artist - Album", or whichever of the two is known.
func (m Model) subtitle() string {
	switch {
	case m.info.Artist != "" && m.info.Album != "":
		return m.info.Artist + " - " + m.info.Album
	case m.info.Artist != "":
		return m.info.Artist
	}
	return m.info.Album
}

// renderProgress renders a block-style progress bar.
// Format: 1:23  ▓▓▓▓▓░░░░░  4:56
func renderProgress(position, duration time.Duration, width int) string {
	posStr := formatDuration(position)
	durStr := "--:--"
	if duration != audio.UnknownDuration {
		durStr = formatDuration(duration)
	}

	barWidth := width - lipgloss.Width(posStr) - lipgloss.Width(durStr) - 4
	if barWidth < 3 {
		return posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := min(max(int(float64(barWidth)*ratio), 0), barWidth)

	t := styles.T()
	bar := styles.GradientSpan(filledBlock, filled, barWidth, t.Primary, t.Secondary) +
		t.S().Subtle.Render(strings.Repeat(emptyBlock, barWidth-filled))
	return posStr + "  " + bar + "  " + durStr
}

func formatDuration(d time.Duration) string {
	d = max(d, 0)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatVolume(level float64) string {
	return fmt.Sprintf("vol %3d%%", int(math.Round(level*100)))
}
