package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/soleus/internal/protocol"
)

// Topics are the MQTT topics of one unit.
type Topics struct {
	State          string // JSON state, retained
	Availability   string
	ModeCmd        string
	TemperatureCmd string
	FanModeCmd     string
	PresetModeCmd  string
	Discovery      string
}

// NewTopics lays out the topics for a unit under prefix (e.g. "soleus").
func NewTopics(prefix, discoveryPrefix, unit string) Topics {
	base := fmt.Sprintf("%s/%s", prefix, unit)
	return Topics{
		State:          base + "/state",
		Availability:   prefix + "/status",
		ModeCmd:        base + "/mode/set",
		TemperatureCmd: base + "/temperature/set",
		FanModeCmd:     base + "/fan_mode/set",
		PresetModeCmd:  base + "/preset_mode/set",
		Discovery:      fmt.Sprintf("%s/climate/soleus_%s/config", discoveryPrefix, unit),
	}
}

// Commands returns the command topics.
func (t Topics) Commands() []string {
	return []string{t.ModeCmd, t.TemperatureCmd, t.FanModeCmd, t.PresetModeCmd}
}

type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// climateConfiguration is the Home Assistant MQTT climate discovery payload
type climateConfiguration struct {
	UniqueId                string     `json:"unique_id"`
	Name                    string     `json:"name"`
	Device                  deviceInfo `json:"device"`
	AvailabilityTopic       string     `json:"availability_topic"`
	ModeCommandTopic        string     `json:"mode_command_topic"`
	ModeStateTopic          string     `json:"mode_state_topic"`
	ModeStateTemplate       string     `json:"mode_state_template"`
	Modes                   []string   `json:"modes"`
	TemperatureCommandTopic string     `json:"temperature_command_topic"`
	TemperatureStateTopic   string     `json:"temperature_state_topic"`
	TemperatureTemplate     string     `json:"temperature_state_template"`
	TemperatureUnit         string     `json:"temperature_unit"`
	MinTemp                 float64    `json:"min_temp"`
	MaxTemp                 float64    `json:"max_temp"`
	TempStep                float64    `json:"temp_step"`
	Precision               float64    `json:"precision"`
	FanModeCommandTopic     string     `json:"fan_mode_command_topic"`
	FanModeStateTopic       string     `json:"fan_mode_state_topic"`
	FanModeStateTemplate    string     `json:"fan_mode_state_template"`
	FanModes                []string   `json:"fan_modes"`
	PresetModeCommandTopic  string     `json:"preset_mode_command_topic"`
	PresetModeStateTopic    string     `json:"preset_mode_state_topic"`
	PresetModeValueTemplate string     `json:"preset_mode_value_template"`
	PresetModes             []string   `json:"preset_modes"`
	Optimistic              bool       `json:"optimistic"`
}

// discoveryPayload builds the climate entity for a unit from its traits.
func discoveryPayload(unit, displayName string, topics Topics, traits protocol.ClimateTraits) ([]byte, error) {
	cfg := climateConfiguration{
		UniqueId: "soleus_" + unit,
		Name:     displayName,
		Device: deviceInfo{
			Identifiers:  []string{"soleus_" + unit},
			Name:         displayName,
			Manufacturer: "Soleus",
			Model:        "Portable AC (IR)",
		},
		AvailabilityTopic:       topics.Availability,
		ModeCommandTopic:        topics.ModeCmd,
		ModeStateTopic:          topics.State,
		ModeStateTemplate:       "{{ value_json.mode }}",
		TemperatureCommandTopic: topics.TemperatureCmd,
		TemperatureStateTopic:   topics.State,
		TemperatureTemplate:     "{{ value_json.temperature }}",
		TemperatureUnit:         "C",
		MinTemp:                 traits.MinTemperature,
		MaxTemp:                 traits.MaxTemperature,
		TempStep:                traits.TemperatureStep,
		Precision:               1.0,
		FanModeCommandTopic:     topics.FanModeCmd,
		FanModeStateTopic:       topics.State,
		FanModeStateTemplate:    "{{ value_json.fan_mode }}",
		PresetModeCommandTopic:  topics.PresetModeCmd,
		PresetModeStateTopic:    topics.State,
		PresetModeValueTemplate: "{{ value_json.preset_mode }}",
		// IR is one-way: the entity shows what was last sent or seen
		Optimistic: true,
	}

	for _, m := range traits.Modes {
		cfg.Modes = append(cfg.Modes, string(m))
	}
	for _, f := range traits.FanModes {
		cfg.FanModes = append(cfg.FanModes, string(f))
	}
	for _, p := range traits.Presets {
		// "none" is implicit in Home Assistant
		if p != protocol.PresetNone {
			cfg.PresetModes = append(cfg.PresetModes, string(p))
		}
	}

	return json.Marshal(cfg)
}

// statePayload is what the bridge publishes on the state topic
type statePayload struct {
	Mode        string  `json:"mode"`
	Temperature float64 `json:"temperature"`
	FanMode     string  `json:"fan_mode"`
	PresetMode  string  `json:"preset_mode"`
	Frame       string  `json:"frame,omitempty"`
}

func newStatePayload(s protocol.State, frame protocol.Frame) statePayload {
	p := statePayload{
		Mode:        string(s.Mode),
		Temperature: s.TargetTemperature,
		FanMode:     string(s.FanSpeed),
		PresetMode:  string(s.Preset),
		Frame:       frame.String(),
	}
	if !s.Power {
		p.Mode = string(protocol.ModeOff)
	}
	if p.PresetMode == "" {
		p.PresetMode = string(protocol.PresetNone)
	}
	return p
}
