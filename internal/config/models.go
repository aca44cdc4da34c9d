package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
)

// Transmitter types
const (
	TransmitterSerial = "serial"
	TransmitterMQTT   = "mqtt"
	TransmitterLog    = "log"
)

// MQTT payload formats
const (
	FormatJSON   = "json"
	FormatPronto = "pronto"
)

// Environment overrides applied after load
const (
	EnvMQTTBroker   = "SOLEUS_MQTT_BROKER"
	EnvMQTTUsername = "SOLEUS_MQTT_USERNAME"
	EnvMQTTPassword = "SOLEUS_MQTT_PASSWORD"
	EnvSerialPort   = "SOLEUS_SERIAL_PORT"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int              `yaml:"version"`
	Units       map[string]*Unit `yaml:"units,omitempty"` // Keyed by unit name
	MQTT        *MQTTConfig      `yaml:"mqtt,omitempty"`
	HTTP        *HTTPConfig      `yaml:"http,omitempty"`
	Preferences *Preferences     `yaml:"preferences,omitempty"`
}

// Unit describes one air conditioner and how to reach it.
type Unit struct {
	Nickname         string             `yaml:"nickname,omitempty"`
	SupportsHeat     bool               `yaml:"supports_heat"`              // Heat/cool variant; nibble 0x1 means HEAT
	VendorPowerOff   bool               `yaml:"vendor_power_off,omitempty"` // Send the vendor remote's off frame
	TolerancePercent uint32             `yaml:"tolerance_percent,omitempty"`
	Transmitter      *TransmitterConfig `yaml:"transmitter,omitempty"`
	ReceiverTopic    string             `yaml:"receiver_topic,omitempty"` // MQTT topic with raw IR captures
	LastState        *protocol.State    `yaml:"last_state,omitempty"`
	LastSeen         time.Time          `yaml:"last_seen,omitempty"`
}

// TransmitterConfig selects and configures the IR blaster for a unit.
type TransmitterConfig struct {
	Type       string `yaml:"type"`                  // serial, mqtt or log
	SerialPort string `yaml:"serial_port,omitempty"` // e.g. /dev/ttyUSB0
	BaudRate   int    `yaml:"baud_rate,omitempty"`
	Topic      string `yaml:"topic,omitempty"`  // MQTT command topic of the blaster
	Format     string `yaml:"format,omitempty"` // json or pronto
}

// MQTTConfig is the broker connection shared by the bridge and MQTT transmitters.
type MQTTConfig struct {
	Broker          string `yaml:"broker"` // tcp://host:1883
	Username        string `yaml:"username,omitempty"`
	Password        string `yaml:"password,omitempty"`
	ClientID        string `yaml:"client_id,omitempty"`
	DiscoveryPrefix string `yaml:"discovery_prefix,omitempty"`
	TopicPrefix     string `yaml:"topic_prefix,omitempty"`
}

// HTTPConfig configures the bridge HTTP API.
type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"` // Announce the API over mDNS
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultUnit       string `yaml:"default_unit,omitempty"`
	DisplayUnit       string `yaml:"display_unit"` // C or F
	CaptureThreshold  int    `yaml:"capture_threshold"`
	CaptureBuffer     int    `yaml:"capture_buffer"`
	CaptureDebounceMS int    `yaml:"capture_debounce_ms"`
	DiscoverTimeout   int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// Defaults
const (
	DefaultBaudRate        = 115200
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultTopicPrefix     = "soleus"
	DefaultListen          = ":8088"
	DefaultClientID        = "soleus-bridge"
)

func defaultPreferences() *Preferences {
	return &Preferences{
		DisplayUnit:       "C",
		CaptureThreshold:  10,
		CaptureBuffer:     40,
		CaptureDebounceMS: 200,
		DiscoverTimeout:   5,
	}
}

func defaultMQTT() *MQTTConfig {
	return &MQTTConfig{
		Broker:          "tcp://localhost:1883",
		ClientID:        DefaultClientID,
		DiscoveryPrefix: DefaultDiscoveryPrefix,
		TopicPrefix:     DefaultTopicPrefix,
	}
}

func defaultHTTP() *HTTPConfig {
	return &HTTPConfig{Listen: DefaultListen, Advertise: true}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Units:       make(map[string]*Unit),
		MQTT:        defaultMQTT(),
		HTTP:        defaultHTTP(),
		Preferences: defaultPreferences(),
	}
}

// fillDefaults initialises sections missing from a loaded file.
func (r *Registry) fillDefaults() {
	if r.Units == nil {
		r.Units = make(map[string]*Unit)
	}
	if r.MQTT == nil {
		r.MQTT = defaultMQTT()
	}
	if r.MQTT.DiscoveryPrefix == "" {
		r.MQTT.DiscoveryPrefix = DefaultDiscoveryPrefix
	}
	if r.MQTT.TopicPrefix == "" {
		r.MQTT.TopicPrefix = DefaultTopicPrefix
	}
	if r.MQTT.ClientID == "" {
		r.MQTT.ClientID = DefaultClientID
	}
	if r.HTTP == nil {
		r.HTTP = defaultHTTP()
	}
	if r.HTTP.Listen == "" {
		r.HTTP.Listen = DefaultListen
	}
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	for _, u := range r.Units {
		if u.Transmitter != nil && u.Transmitter.Type == TransmitterSerial && u.Transmitter.BaudRate == 0 {
			u.Transmitter.BaudRate = DefaultBaudRate
		}
	}
}

// ApplyEnv overrides broker and serial settings from the environment.
func (r *Registry) ApplyEnv() {
	if r.MQTT == nil {
		r.MQTT = defaultMQTT()
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		r.MQTT.Broker = v
	}
	if v := os.Getenv(EnvMQTTUsername); v != "" {
		r.MQTT.Username = v
	}
	if v := os.Getenv(EnvMQTTPassword); v != "" {
		r.MQTT.Password = v
	}
	if v := os.Getenv(EnvSerialPort); v != "" {
		for _, u := range r.Units {
			if u.Transmitter != nil && u.Transmitter.Type == TransmitterSerial {
				u.Transmitter.SerialPort = v
			}
		}
	}
}

// Validate checks the fields that would otherwise fail late at transmit time.
func (r *Registry) Validate() error {
	for name, u := range r.Units {
		if u.TolerancePercent > pulse.MaxTolerance {
			return fmt.Errorf("unit %s: tolerance_percent must be 0-%d, got %d", name, pulse.MaxTolerance, u.TolerancePercent)
		}
		if u.Transmitter == nil {
			continue
		}
		switch u.Transmitter.Type {
		case TransmitterSerial:
			if u.Transmitter.SerialPort == "" {
				return fmt.Errorf("unit %s: serial transmitter needs serial_port", name)
			}
		case TransmitterMQTT:
			if u.Transmitter.Topic == "" {
				return fmt.Errorf("unit %s: mqtt transmitter needs topic", name)
			}
			switch u.Transmitter.Format {
			case "", FormatJSON, FormatPronto:
			default:
				return fmt.Errorf("unit %s: unknown transmitter format %q", name, u.Transmitter.Format)
			}
		case TransmitterLog, "":
		default:
			return fmt.Errorf("unit %s: unknown transmitter type %q", name, u.Transmitter.Type)
		}
	}
	if r.Preferences != nil {
		switch strings.ToUpper(r.Preferences.DisplayUnit) {
		case "C", "F", "":
		default:
			return fmt.Errorf("display_unit must be C or F, got %q", r.Preferences.DisplayUnit)
		}
	}
	return nil
}

// GetUnit retrieves a unit by name.
// Returns nil if the unit doesn't exist in the registry.
func (r *Registry) GetUnit(name string) *Unit {
	return r.Units[name]
}

// EnsureUnit ensures a unit entry exists in the registry.
// New units get a log transmitter so that they can be tried without hardware.
func (r *Registry) EnsureUnit(name string) *Unit {
	if r.Units == nil {
		r.Units = make(map[string]*Unit)
	}

	if unit, exists := r.Units[name]; exists {
		return unit
	}

	unit := &Unit{
		Transmitter: &TransmitterConfig{Type: TransmitterLog},
	}
	r.Units[name] = unit
	return unit
}

// ResolveUnit returns the named unit, or the default unit when name is empty.
// A registry with exactly one unit resolves to it.
func (r *Registry) ResolveUnit(name string) (string, *Unit, error) {
	if name == "" && r.Preferences != nil {
		name = r.Preferences.DefaultUnit
	}
	if name == "" && len(r.Units) == 1 {
		for only := range r.Units {
			name = only
		}
	}
	if name == "" {
		return "", nil, fmt.Errorf("no unit given and no default_unit configured (known units: %s)",
			strings.Join(r.UnitNames(), ", "))
	}
	unit := r.GetUnit(name)
	if unit == nil {
		return "", nil, fmt.Errorf("unknown unit %q", name)
	}
	return name, unit, nil
}

// UnitNames returns the configured unit names in sorted order.
func (r *Registry) UnitNames() []string {
	names := make([]string, 0, len(r.Units))
	for name := range r.Units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateUnitState records the last state sent to or received from a unit.
func (r *Registry) UpdateUnitState(name string, state protocol.State) {
	unit := r.EnsureUnit(name)
	unit.LastState = &state
	unit.LastSeen = time.Now()
}

// SetUnitNickname sets a user-friendly nickname for a unit.
func (r *Registry) SetUnitNickname(name, nickname string) {
	unit := r.EnsureUnit(name)
	unit.Nickname = nickname
}

// Codec returns the frame codec configured for this unit.
func (u *Unit) Codec() protocol.Codec {
	return protocol.Codec{
		SupportsHeat:   u.SupportsHeat,
		VendorPowerOff: u.VendorPowerOff,
	}
}

// State returns the last known state, or the default state for a new unit.
func (u *Unit) State() protocol.State {
	if u.LastState == nil {
		return protocol.DefaultState()
	}
	return *u.LastState
}

// DisplayName returns the nickname if set, otherwise the unit name.
func (u *Unit) DisplayName(name string) string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return name
}
