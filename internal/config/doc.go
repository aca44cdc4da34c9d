// Package config provides user configuration management for the Soleus tools.
//
// This package manages a YAML file describing the air conditioners ("units")
// the tools can talk to, the IR transmitter of each unit, and the MQTT and
// HTTP settings of the bridge. The file follows OS-specific conventions for
// its location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/soleus-ir/config.yaml or $HOME/.config/soleus-ir/config.yaml
//   - macOS: $HOME/.config/soleus-ir/config.yaml
//   - Windows: %LOCALAPPDATA%\soleus-ir\config.yaml
//
// The --config flag of both binaries overrides the location (SetConfigPath).
//
// # Example
//
//	version: 1
//	units:
//	  bedroom:
//	    nickname: Bedroom AC
//	    supports_heat: false
//	    tolerance_percent: 25
//	    transmitter:
//	      type: serial
//	      serial_port: /dev/ttyUSB0
//	      baud_rate: 115200
//	    receiver_topic: esphome/ir/received
//	mqtt:
//	  broker: tcp://192.168.1.10:1883
//	  discovery_prefix: homeassistant
//	  topic_prefix: soleus
//	http:
//	  listen: ":8088"
//	  advertise: true
//	preferences:
//	  default_unit: bedroom
//	  display_unit: C
//
// # Environment
//
// SOLEUS_MQTT_BROKER, SOLEUS_MQTT_USERNAME, SOLEUS_MQTT_PASSWORD and
// SOLEUS_SERIAL_PORT override the file after it is loaded.
//
// # Thread Safety
//
// Loading is guarded by sync.Once and saving by a mutex. Callers that mutate
// a shared *Registry from several goroutines must synchronise themselves.
package config
