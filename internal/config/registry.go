package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "soleus-ir"
	configFile = "config.yaml"
)

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Set by --config; empty means the OS default location
	configPathOverride string

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// SetConfigPath overrides the configuration file location and resets the
// global registry so the next LoadRegistry reads the new file.
func SetConfigPath(path string) {
	fileMutex.Lock()
	defer fileMutex.Unlock()
	configPathOverride = path
	globalRegistryOnce = sync.Once{}
	globalRegistry, globalRegistryErr = nil, nil
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/soleus-ir or $HOME/.config/soleus-ir
//   - macOS: $HOME/.config/soleus-ir
//   - Windows: %LOCALAPPDATA%\soleus-ir
func GetConfigDir() (string, error) {
	if configPathOverride != "" {
		return filepath.Dir(configPathOverride), nil
	}

	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	if configPathOverride != "" {
		return configPathOverride, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// ensureConfigDir ensures the configuration directory exists.
func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	// User-only permissions: the file may hold MQTT credentials
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// LoadRegistry loads the configuration registry from disk.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		globalRegistry, globalRegistryErr = loadRegistryFromDisk()
	})
	return globalRegistry, globalRegistryErr
}

func loadRegistryFromDisk() (*Registry, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadRegistryFile(configPath)
}

// LoadRegistryFile reads a registry from an explicit path, applying
// defaults and environment overrides. A missing file yields the defaults.
func LoadRegistryFile(configPath string) (*Registry, error) {
	var registry *Registry

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		registry = NewRegistry()
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		registry, err = ParseRegistry(data)
		if err != nil {
			return nil, err
		}
	}

	registry.ApplyEnv()
	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return registry, nil
}

// ParseRegistry parses registry YAML and fills in missing sections.
func ParseRegistry(data []byte) (*Registry, error) {
	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	registry.fillDefaults()
	return &registry, nil
}

// Marshal renders the registry as YAML with the file header.
func (r *Registry) Marshal(location string) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Soleus IR Configuration File
# Units, IR transmitters and the MQTT / HTTP settings of soleus-bridge.
#
# MQTT credentials may be left out here and supplied through the
# SOLEUS_MQTT_USERNAME and SOLEUS_MQTT_PASSWORD environment variables.
#
# Location: ` + location + `

`)
	return append(header, data...), nil
}

// Save saves the registry to disk.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory exists: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := r.Marshal(configPath)
	if err != nil {
		return err
	}

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// ReloadRegistry reloads the registry from disk, discarding any in-memory changes.
func ReloadRegistry() (*Registry, error) {
	fileMutex.Lock()
	globalRegistryOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadRegistry()
}

// SaveGlobal saves the global registry instance to disk.
func SaveGlobal() error {
	registry, err := LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	return registry.Save()
}

// CreateDefaultConfig writes a configuration file with one example unit.
func CreateDefaultConfig() error {
	registry := NewRegistry()
	registry.Units["living-room"] = &Unit{
		Nickname:         "Living Room AC",
		SupportsHeat:     false,
		TolerancePercent: 25,
		Transmitter: &TransmitterConfig{
			Type:   TransmitterMQTT,
			Topic:  "esphome/ir-blaster/transmit",
			Format: FormatPronto,
		},
		ReceiverTopic: "esphome/ir-blaster/received",
	}
	registry.Preferences.DefaultUnit = "living-room"

	return registry.Save()
}
