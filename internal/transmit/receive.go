package transmit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/pulse"
	"go.uber.org/zap"
)

// capturePayload covers the JSON shapes IR receivers publish: our own
// RawPayload, and ESPHome-style signed raw dumps (positive mark, negative
// space).
type capturePayload struct {
	CarrierHz uint32   `json:"carrier_hz"`
	Timings   []uint32 `json:"timings"`
	Raw       []int32  `json:"raw"`
	Code      []int32  `json:"code"`
	Pronto    string   `json:"pronto"`
}

// ParsePayload decodes a received IR capture into a sequence and its carrier.
// Accepted forms are a RawPayload object, an object with signed "raw" or
// "code" values, a bare JSON array of signed values, or Pronto hex text.
// Captures without a carrier report pulse.CarrierHz.
func ParsePayload(payload []byte) (pulse.Sequence, uint32, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("empty payload")
	}

	switch trimmed[0] {
	case '[':
		var raw []int32
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, 0, fmt.Errorf("invalid raw array: %w", err)
		}
		seq, err := pulse.FromSigned(raw)
		return seq, pulse.CarrierHz, err
	case '{':
		var p capturePayload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, 0, fmt.Errorf("invalid capture payload: %w", err)
		}
		carrier := p.CarrierHz
		if carrier == 0 {
			carrier = pulse.CarrierHz
		}
		switch {
		case len(p.Timings) > 0:
			return pulse.Sequence(p.Timings), carrier, nil
		case len(p.Raw) > 0:
			seq, err := pulse.FromSigned(p.Raw)
			return seq, carrier, err
		case len(p.Code) > 0:
			seq, err := pulse.FromSigned(p.Code)
			return seq, carrier, err
		case p.Pronto != "":
			return pulse.FromPronto(p.Pronto)
		default:
			return nil, 0, fmt.Errorf("capture payload has no timings")
		}
	default:
		return pulse.FromPronto(string(trimmed))
	}
}

// Handler receives each successfully parsed capture.
type Handler func(seq pulse.Sequence, carrierHz uint32)

// Listen subscribes to topic and calls handler for every capture until ctx
// is cancelled. Unparseable messages are logged and dropped.
func Listen(ctx context.Context, client mqtt.Client, topic string, handler Handler) error {
	t := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		logging.LogMQTT("rx", msg.Topic(), msg.Payload())

		seq, carrier, err := ParsePayload(msg.Payload())
		if err != nil {
			logging.Warn("Dropping IR capture", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		handler(seq, carrier)
	})
	if t.Wait() && t.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, t.Error())
	}

	<-ctx.Done()

	if t := client.Unsubscribe(topic); t.Wait() && t.Error() != nil {
		logging.Warn("Unsubscribe failed", zap.String("topic", topic), zap.Error(t.Error()))
	}
	return ctx.Err()
}
