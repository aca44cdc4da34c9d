package protocol

// Modes that only exist at the host boundary. The frame has no field for
// them: "off" is State.Power=false and "heat_cool" is offered to heat-capable
// units but encodes through the same rules as any other non-matching mode.
const (
	ModeOff      Mode = "off"
	ModeHeatCool Mode = "heat_cool"
)

// ClimateTraits is the static capability list a host offers to users
type ClimateTraits struct {
	Modes                      []Mode     `json:"modes"`
	FanModes                   []FanSpeed `json:"fan_modes"`
	Presets                    []Preset   `json:"presets"`
	MinTemperature             float64    `json:"min_temperature"`
	MaxTemperature             float64    `json:"max_temperature"`
	TemperatureStep            float64    `json:"temperature_step"`
	SupportsCurrentTemperature bool       `json:"supports_current_temperature"`
}

// Traits returns the capabilities for a unit variant
func Traits(supportsHeat bool) ClimateTraits {
	modes := []Mode{ModeOff, ModeCool, ModeFanOnly, ModeDry, ModeAuto}
	if supportsHeat {
		modes = append(modes, ModeHeat, ModeHeatCool)
	}
	return ClimateTraits{
		Modes:           modes,
		FanModes:        []FanSpeed{FanLow, FanMedium, FanHigh},
		Presets:         []Preset{PresetNone, PresetEco, PresetSleep},
		MinTemperature:  MinTempC,
		MaxTemperature:  MaxTempC,
		TemperatureStep: TempStep,
	}
}

// SupportsMode reports whether m is offered by these traits
func (t ClimateTraits) SupportsMode(m Mode) bool {
	for _, candidate := range t.Modes {
		if candidate == m {
			return true
		}
	}
	return false
}
