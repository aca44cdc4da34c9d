package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/protocol"
)

// Climate setting flags shared by encode and send
var (
	modeFlag   string
	fanFlag    string
	presetFlag string
	tempFlag   string
	offFlag    bool
)

// Codec selection flags shared by encode and decode
var (
	unitName      string
	heatFlag      bool
	vendorOffFlag bool
)

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&modeFlag, "mode", "", "Mode: off, auto, cool, heat, heat_cool, dry, fan_only")
	cmd.Flags().StringVar(&fanFlag, "fan", "", "Fan speed: low, medium, high")
	cmd.Flags().StringVar(&presetFlag, "preset", "", "Preset: none, eco, sleep")
	cmd.Flags().StringVar(&tempFlag, "temp", "", "Target temperature, e.g. 22, 22.5C or 72F")
	cmd.Flags().BoolVar(&offFlag, "off", false, "Turn the unit off")
}

func addCodecFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&unitName, "unit", "", "Configured unit to take the codec variant from")
	cmd.Flags().BoolVar(&heatFlag, "heat", false, "Heat/cool variant (ignored with --unit)")
	cmd.Flags().BoolVar(&vendorOffFlag, "vendor-off", false, "Use the vendor remote's power-off frame (ignored with --unit)")
}

// applyStateFlags overlays the flags the user set onto s. Giving any
// setting turns the unit on unless --off or --mode off is given too.
func applyStateFlags(cmd *cobra.Command, s *protocol.State) error {
	changed := cmd.Flags().Changed
	turnOff := offFlag

	if changed("mode") {
		switch m := protocol.Mode(strings.ToLower(strings.TrimSpace(modeFlag))); m {
		case protocol.ModeOff:
			turnOff = true
		case protocol.ModeHeatCool:
			s.Power, s.Mode = true, m
		default:
			parsed, err := protocol.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			s.Power, s.Mode = true, parsed
		}
	}
	if changed("fan") {
		f, err := protocol.ParseFanSpeed(fanFlag)
		if err != nil {
			return err
		}
		s.FanSpeed = f
		s.Power = true
	}
	if changed("preset") {
		p, err := protocol.ParsePreset(presetFlag)
		if err != nil {
			return err
		}
		s.Preset = p
		s.Power = true
	}
	if changed("temp") {
		t, err := parseTemperature(tempFlag)
		if err != nil {
			return err
		}
		s.TargetTemperature = t
		s.Power = true
	}
	if turnOff {
		s.Power = false
	}
	return nil
}

// parseTemperature reads a target in Celsius. A trailing F selects Fahrenheit.
func parseTemperature(s string) (float64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "°")
	fahrenheit := false
	switch {
	case strings.HasSuffix(v, "F"):
		fahrenheit = true
		v = strings.TrimSuffix(v, "F")
	case strings.HasSuffix(v, "C"):
		v = strings.TrimSuffix(v, "C")
	}
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "°"))

	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q", s)
	}
	if fahrenheit {
		return protocol.FahrenheitToCelsius(t), nil
	}
	return t, nil
}

// selectCodec returns the codec of --unit, or the one described by the
// variant flags.
func selectCodec() (string, protocol.Codec, error) {
	if unitName == "" {
		return "", protocol.Codec{SupportsHeat: heatFlag, VendorPowerOff: vendorOffFlag}, nil
	}
	registry, err := config.LoadRegistry()
	if err != nil {
		return "", protocol.Codec{}, fmt.Errorf("failed to load config: %w", err)
	}
	name, unit, err := registry.ResolveUnit(unitName)
	if err != nil {
		return "", protocol.Codec{}, err
	}
	return name, unit.Codec(), nil
}

// displayUnit is the configured temperature unit, C when unset
func displayUnit() string {
	registry, err := config.LoadRegistry()
	if err != nil || registry.Preferences == nil || registry.Preferences.DisplayUnit == "" {
		return "C"
	}
	return registry.Preferences.DisplayUnit
}
