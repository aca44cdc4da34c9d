package urls

// Reference URLs for the components soleus-ir works with

// ESPHomeRemoteReceiver documents the receiver whose log "capture run"
// reads; dump: pronto must be enabled.
const ESPHomeRemoteReceiver = "https://esphome.io/components/remote_receiver.html"

// ESPHomeRemoteTransmitter documents the transmitter the exported buttons use
const ESPHomeRemoteTransmitter = "https://esphome.io/components/remote_transmitter.html"

// HomeAssistantMQTTClimate lists the climate entity options the bridge announces
const HomeAssistantMQTTClimate = "https://www.home-assistant.io/integrations/climate.mqtt/"

// HomeAssistantMQTTDiscovery explains the discovery prefix setting
const HomeAssistantMQTTDiscovery = "https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery"
