package transmit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/pulse"
)

// RawPayload is the JSON form of a sequence on the wire. Timings are
// unsigned mark/space durations starting with a mark.
type RawPayload struct {
	CarrierHz uint32   `json:"carrier_hz"`
	Timings   []uint32 `json:"timings"`
}

// MQTTTransmitter publishes sequences to an ESPHome (or similar) IR blaster
// listening on an MQTT topic.
type MQTTTransmitter struct {
	client  mqtt.Client
	topic   string
	format  string
	timeout time.Duration
}

// NewMQTTTransmitter creates a transmitter publishing to topic. format is
// config.FormatJSON (the default) or config.FormatPronto.
func NewMQTTTransmitter(client mqtt.Client, topic, format string) *MQTTTransmitter {
	if format == "" {
		format = config.FormatJSON
	}
	return &MQTTTransmitter{
		client:  client,
		topic:   topic,
		format:  format,
		timeout: 5 * time.Second,
	}
}

// EncodePayload renders a sequence in the given payload format.
func EncodePayload(format string, carrierHz uint32, seq pulse.Sequence) ([]byte, error) {
	switch format {
	case config.FormatPronto:
		return []byte(pulse.ToPronto(seq, carrierHz)), nil
	case config.FormatJSON, "":
		return json.Marshal(RawPayload{CarrierHz: carrierHz, Timings: seq})
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}

// Transmit implements Transmitter.
func (m *MQTTTransmitter) Transmit(ctx context.Context, carrierHz uint32, seq pulse.Sequence) error {
	payload, err := EncodePayload(m.format, carrierHz, seq)
	if err != nil {
		return err
	}

	logging.LogMQTT("tx", m.topic, payload)

	t := m.client.Publish(m.topic, 1, false, payload)
	select {
	case <-t.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return fmt.Errorf("publish to %s timed out", m.topic)
	}
	if t.Error() != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, t.Error())
	}
	return nil
}
