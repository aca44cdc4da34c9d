package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/soleus/internal/protocol"
)

// Display units
const (
	Celsius    = "C"
	Fahrenheit = "F"
)

// FormatTemperature renders a Celsius target in the preferred display unit.
// Fahrenheit is shown as the whole degree the remote would send.
func FormatTemperature(celsius float64, unit string) string {
	if strings.EqualFold(unit, Fahrenheit) {
		return fmt.Sprintf("%d°F", protocol.ProtocolToFahrenheit(protocol.TempToProtocol(celsius)))
	}
	return fmt.Sprintf("%.1f°C", celsius)
}

// RenderFrame renders the frame bytes with one explanation line per byte
func RenderFrame(f protocol.Frame) string {
	lines := []string{"  " + FrameHexStyle.Render(f.String())}

	for _, m := range f.Annotate() {
		idx := fmt.Sprintf("  [%d] %02X  ", m.Index, m.Value)
		lines = append(lines, idx+FrameNameStyle.Render(m.Name)+" "+FrameMeaningStyle.Render(m.Meaning))
	}

	check := SuccessTitleStyle.Render(SuccessMarker + " checksum ok")
	if !f.HasValidChecksum() {
		check = ErrorTitleStyle.Render(fmt.Sprintf("%s checksum want %02X", FailureMarker, f.Checksum()))
	}
	lines = append(lines, "      "+check)

	return strings.Join(lines, "\n")
}

// modeColor picks the accent for a mode
func modeColor(m protocol.Mode) lipgloss.Color {
	switch m {
	case protocol.ModeCool, protocol.ModeDry:
		return CoolColor
	case protocol.ModeHeat, protocol.ModeHeatCool:
		return HeatColor
	default:
		return TextColor
	}
}

// RenderState renders a one-line summary of a climate state
func RenderState(s protocol.State, displayUnit string) string {
	if !s.Power {
		return lipgloss.NewStyle().Foreground(MutedColor).Bold(true).Render("OFF")
	}

	mode := lipgloss.NewStyle().Foreground(modeColor(s.Mode)).Bold(true).Render(strings.ToUpper(string(s.Mode)))
	parts := []string{mode}
	switch s.Mode {
	case protocol.ModeCool, protocol.ModeHeat, protocol.ModeHeatCool:
		parts = append(parts, FormatTemperature(s.TargetTemperature, displayUnit))
	}
	parts = append(parts, "fan "+string(s.FanSpeed))
	if s.Preset != "" && s.Preset != protocol.PresetNone {
		parts = append(parts, "preset "+string(s.Preset))
	}
	return strings.Join(parts, "  ")
}

// StateParams lists a state as header/result parameters
func StateParams(s protocol.State, displayUnit string) []Param {
	if !s.Power {
		return []Param{{Key: "Power", Value: "off"}}
	}
	params := []Param{
		{Key: "Power", Value: "on"},
		{Key: "Mode", Value: string(s.Mode)},
		{Key: "Target", Value: FormatTemperature(s.TargetTemperature, displayUnit)},
		{Key: "Fan", Value: string(s.FanSpeed)},
	}
	if s.Preset != "" && s.Preset != protocol.PresetNone {
		params = append(params, Param{Key: "Preset", Value: string(s.Preset)})
	}
	return params
}
