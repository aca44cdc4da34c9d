package protocol

import (
	"fmt"
	"strings"
)

// Mode is the primary operating mode of the unit.
// Values use the Home Assistant climate vocabulary so they can be published as-is.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeCool    Mode = "cool"
	ModeHeat    Mode = "heat"
	ModeDry     Mode = "dry"
	ModeFanOnly Mode = "fan_only"
)

// FanSpeed is the fan level carried in the high nibble of byte 2.
type FanSpeed string

const (
	FanLow    FanSpeed = "low"
	FanMedium FanSpeed = "medium"
	FanHigh   FanSpeed = "high"
)

// Preset is a secondary modifier layered on top of COOL (or HEAT).
type Preset string

const (
	PresetNone  Preset = "none"
	PresetEco   Preset = "eco"
	PresetSleep Preset = "sleep"
)

// Temperature limits of the unit. The protocol works in whole Fahrenheit
// degrees; the Celsius limits are what the host offers to the user.
const (
	MinTempF = 62
	MaxTempF = 86
	MinTempC = 17.0
	MaxTempC = 30.0
	TempStep = 1.0
)

// State is the logical climate state exchanged with the host.
// It is a plain value: the codec never keeps a reference to it.
type State struct {
	Power             bool     `yaml:"power" json:"power"`
	Mode              Mode     `yaml:"mode,omitempty" json:"mode,omitempty"`
	FanSpeed          FanSpeed `yaml:"fan_speed,omitempty" json:"fan_speed,omitempty"`
	Preset            Preset   `yaml:"preset,omitempty" json:"preset,omitempty"`
	TargetTemperature float64  `yaml:"target_temperature" json:"target_temperature"`
}

// DefaultState is what a freshly configured unit starts from before any
// command or reception has been seen.
func DefaultState() State {
	return State{
		Power:             false,
		Mode:              ModeCool,
		FanSpeed:          FanMedium,
		Preset:            PresetNone,
		TargetTemperature: 22,
	}
}

// String returns a compact one-line description of the state
func (s State) String() string {
	if !s.Power {
		return "State{power=off}"
	}
	return fmt.Sprintf("State{mode=%s, fan=%s, preset=%s, target=%.1f°C}",
		s.Mode, s.FanSpeed, s.Preset, s.TargetTemperature)
}

// ParseMode converts a user supplied mode name. "fan" and "temp" are accepted
// as aliases used by the vendor remote labels.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto":
		return ModeAuto, nil
	case "cool", "temp":
		return ModeCool, nil
	case "heat":
		return ModeHeat, nil
	case "dry":
		return ModeDry, nil
	case "fan_only", "fan", "fan-only":
		return ModeFanOnly, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, cool, heat, dry, fan_only)", s)
	}
}

// ParseFanSpeed converts a user supplied fan speed name ("med" is accepted).
func ParseFanSpeed(s string) (FanSpeed, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return FanLow, nil
	case "medium", "med", "mid":
		return FanMedium, nil
	case "high":
		return FanHigh, nil
	default:
		return "", fmt.Errorf("unknown fan speed %q (want low, medium, high)", s)
	}
}

// ParsePreset converts a user supplied preset name. Empty means none.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PresetNone, nil
	case "eco":
		return PresetEco, nil
	case "sleep":
		return PresetSleep, nil
	default:
		return "", fmt.Errorf("unknown preset %q (want none, eco, sleep)", s)
	}
}
