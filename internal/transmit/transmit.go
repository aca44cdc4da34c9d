package transmit

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
)

// Transmitter emits a mark/space sequence on a modulated IR carrier.
type Transmitter interface {
	Transmit(ctx context.Context, carrierHz uint32, seq pulse.Sequence) error
}

// New builds the transmitter configured for a unit. The MQTT client is only
// used by MQTT transmitters and may be nil otherwise.
func New(unit *config.Unit, client mqtt.Client) (Transmitter, error) {
	if unit == nil || unit.Transmitter == nil {
		return &LogTransmitter{}, nil
	}

	tc := unit.Transmitter
	switch tc.Type {
	case config.TransmitterSerial:
		if tc.SerialPort == "" {
			return nil, fmt.Errorf("serial transmitter needs a serial port")
		}
		baud := tc.BaudRate
		if baud == 0 {
			baud = config.DefaultBaudRate
		}
		return NewSerialTransmitter(tc.SerialPort, baud), nil
	case config.TransmitterMQTT:
		if client == nil {
			return nil, fmt.Errorf("mqtt transmitter needs a broker connection")
		}
		return NewMQTTTransmitter(client, tc.Topic, tc.Format), nil
	case config.TransmitterLog, "":
		return &LogTransmitter{}, nil
	default:
		return nil, fmt.Errorf("unknown transmitter type %q", tc.Type)
	}
}

// Send encodes state, renders it as pulses and hands it to tx. It returns the
// state the frame actually carries, which callers should adopt as the new
// current state.
func Send(ctx context.Context, tx Transmitter, unit string, codec protocol.Codec, state protocol.State) (protocol.State, error) {
	frame, adjusted := codec.Encode(state)
	seq := pulse.ToPulses(frame)

	logging.LogFrame(unit, "tx", frame.Bytes())
	logging.LogPulses(unit, "tx", seq)

	if err := tx.Transmit(ctx, pulse.CarrierHz, seq); err != nil {
		return state, fmt.Errorf("transmit %s: %w", frame, err)
	}
	return adjusted, nil
}
