package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// CaptureMeter shows how close a received code is to being captured
type CaptureMeter struct {
	Threshold int // Receptions needed before a code is stored
	Width     int // Terminal width
	bar       progress.Model
}

// NewCaptureMeter creates a meter for the given capture threshold
func NewCaptureMeter(threshold int) *CaptureMeter {
	m := &CaptureMeter{Threshold: threshold}
	return m.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (m *CaptureMeter) SetWidth(width int) *CaptureMeter {
	m.Width = width
	barWidth := width / 3
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 30 {
		barWidth = 30
	}
	m.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return m
}

// Percent returns count as a fraction of the threshold, capped at 1
func (m *CaptureMeter) Percent(count int) float64 {
	if m.Threshold <= 0 {
		return 1
	}
	p := float64(count) / float64(m.Threshold)
	if p > 1 {
		p = 1
	}
	return p
}

// Render returns one status line for a reception: the bar, the count and
// the start of the code.
func (m *CaptureMeter) Render(code string, count, buffered int) string {
	counter := fmt.Sprintf("%2d/%d", count, m.Threshold)
	prefix := fmt.Sprintf("%s  %s  [%d buffered]  ", m.bar.ViewAs(m.Percent(count)), counter, buffered)

	room := m.Width - lipgloss.Width(prefix) - 4
	if room < 10 {
		room = 10
	}
	if len(code) > room {
		code = code[:room-1] + "…"
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(prefix + CaptureCodeStyle.Render(code))
}

// RenderCaptured returns the line announcing a stored button
func RenderCaptured(name string, matches int) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(SuccessTitleStyle.Render(SuccessMarker + " Captured " + name))
	b.WriteString(CaptureCodeStyle.Render(fmt.Sprintf("  (%d matches)", matches)))
	return b.String()
}
