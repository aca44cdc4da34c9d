package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
	"github.com/muurk/soleus/internal/transmit"
	"go.uber.org/zap"
)

const (
	// CommandTimeout bounds one MQTT command, transmit included
	CommandTimeout = 10 * time.Second

	// CommandQueueSize is the number of MQTT commands waiting for the unit
	// before new ones are dropped
	CommandQueueSize = 32
)

// ErrUnsupportedMode is returned for modes the unit variant does not offer
var ErrUnsupportedMode = errors.New("mode not supported")

// Options configures a Bridge. Empty prefixes select the config defaults.
type Options struct {
	TopicPrefix     string
	DiscoveryPrefix string

	// OnChange is called after every accepted state change, e.g. to persist it
	OnChange func(unit string, s protocol.State)
}

// Bridge exposes one air conditioner as a Home Assistant climate entity and
// keeps its last known state. Commands are transmitted over IR; frames seen
// by an IR receiver update the state too.
type Bridge struct {
	name        string
	displayName string
	codec       protocol.Codec
	traits      protocol.ClimateTraits
	tolerance   uint32
	tx          transmit.Transmitter
	topics      Topics
	onChange    func(string, protocol.State)

	// cmdMutex serialises updates, transmit included
	cmdMutex sync.Mutex

	// MQTT commands run on their own goroutine, in arrival order, so the
	// client's message router is never held up by a transmit
	commands    chan command
	startWorker sync.Once
	pending     sync.WaitGroup

	mutex    sync.Mutex
	state    protocol.State
	frame    protocol.Frame
	client   mqtt.Client
	watchers map[int]chan protocol.State
	nextID   int
}

// New creates a bridge for a configured unit.
func New(name string, unit *config.Unit, tx transmit.Transmitter, opts Options) *Bridge {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = config.DefaultTopicPrefix
	}
	if opts.DiscoveryPrefix == "" {
		opts.DiscoveryPrefix = config.DefaultDiscoveryPrefix
	}

	b := &Bridge{
		name:        name,
		displayName: unit.DisplayName(name),
		codec:       unit.Codec(),
		traits:      protocol.Traits(unit.SupportsHeat),
		tolerance:   unit.TolerancePercent,
		tx:          tx,
		topics:      NewTopics(opts.TopicPrefix, opts.DiscoveryPrefix, name),
		onChange:    opts.OnChange,
		state:       unit.State(),
		watchers:    make(map[int]chan protocol.State),
		commands:    make(chan command, CommandQueueSize),
	}
	b.frame, _ = b.codec.Encode(b.state)
	return b
}

// Name returns the unit name.
func (b *Bridge) Name() string { return b.name }

// Topics returns the unit's MQTT topics.
func (b *Bridge) Topics() Topics { return b.topics }

// Traits returns the climate capabilities of the unit.
func (b *Bridge) Traits() protocol.ClimateTraits { return b.traits }

// Codec returns the unit's codec.
func (b *Bridge) Codec() protocol.Codec { return b.codec }

// State returns the last known state.
func (b *Bridge) State() protocol.State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.state
}

// Frame returns the frame matching the last known state.
func (b *Bridge) Frame() protocol.Frame {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.frame
}

// Set transmits s and adopts the state the frame carries.
func (b *Bridge) Set(ctx context.Context, s protocol.State) (protocol.State, error) {
	return b.Update(ctx, func(st *protocol.State) error {
		*st = s
		return nil
	})
}

// Update applies fn to a copy of the current state and transmits the result.
// Changes made while the unit is off are stored without transmitting; they
// take effect with the next power on.
func (b *Bridge) Update(ctx context.Context, fn func(*protocol.State) error) (protocol.State, error) {
	b.cmdMutex.Lock()
	defer b.cmdMutex.Unlock()

	prev := b.State()
	next := prev
	if err := fn(&next); err != nil {
		return prev, err
	}
	if next.Power && !b.traits.SupportsMode(next.Mode) {
		return prev, fmt.Errorf("%w: %q on unit %s", ErrUnsupportedMode, next.Mode, b.name)
	}

	if next.Power || prev.Power {
		adjusted, err := transmit.Send(ctx, b.tx, b.name, b.codec, next)
		if err != nil {
			return prev, err
		}
		next = adjusted
	}

	b.commit(next)
	return next, nil
}

// HandleSequence decodes a received IR sequence and merges it into the
// state. Sequences that do not decode to a valid frame leave the state
// untouched and return the error.
func (b *Bridge) HandleSequence(seq pulse.Sequence) (protocol.State, error) {
	frame, err := pulse.FromReceiver(pulse.NewReader(seq, b.tolerance))
	if err != nil {
		logging.Debug("Ignoring IR sequence", zap.String("unit", b.name), zap.Error(err))
		return b.State(), err
	}
	return b.HandleFrame(frame)
}

// HandleFrame merges a received frame into the state.
func (b *Bridge) HandleFrame(frame protocol.Frame) (protocol.State, error) {
	logging.LogFrame(b.name, "rx", frame.Bytes())

	decoded, err := b.codec.Decode(frame)
	if err != nil {
		logging.Warn("Rejected received frame",
			zap.String("unit", b.name),
			zap.String("frame", frame.String()),
			zap.Error(err),
		)
		return b.State(), err
	}
	for _, w := range decoded.Warnings {
		logging.Warn("Partially understood frame",
			zap.String("unit", b.name),
			zap.String("frame", frame.String()),
			zap.Error(w),
		)
	}

	b.cmdMutex.Lock()
	defer b.cmdMutex.Unlock()

	next := decoded.Apply(b.State())
	b.commit(next)
	return next, nil
}

// commit stores a new state and tells everyone about it
func (b *Bridge) commit(s protocol.State) {
	frame, _ := b.codec.Encode(s)

	b.mutex.Lock()
	b.state = s
	b.frame = frame
	client := b.client
	for _, w := range b.watchers {
		select {
		case w <- s:
		default:
		}
	}
	b.mutex.Unlock()

	logging.Info("State changed", zap.String("unit", b.name), zap.Stringer("state", s))

	if client != nil {
		if err := b.publishState(client, s, frame); err != nil {
			logging.Error("Failed to publish state", zap.String("unit", b.name), zap.Error(err))
		}
	}
	if b.onChange != nil {
		b.onChange(b.name, s)
	}
}

// Watch returns a channel receiving every new state, and a function that
// stops the subscription. Slow readers miss intermediate states.
func (b *Bridge) Watch() (<-chan protocol.State, func()) {
	ch := make(chan protocol.State, 8)

	b.mutex.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mutex.Unlock()

	return ch, func() {
		b.mutex.Lock()
		delete(b.watchers, id)
		b.mutex.Unlock()
	}
}

// Register publishes the discovery config, availability and current state.
// Later state changes are published to client as well.
func (b *Bridge) Register(client mqtt.Client) error {
	payload, err := discoveryPayload(b.name, b.displayName, b.topics, b.traits)
	if err != nil {
		return err
	}

	logging.LogMQTT("tx", b.topics.Discovery, payload)
	if t := client.Publish(b.topics.Discovery, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	if t := client.Publish(b.topics.Availability, 0, true, "online"); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	b.mutex.Lock()
	b.client = client
	s, frame := b.state, b.frame
	b.mutex.Unlock()

	return b.publishState(client, s, frame)
}

func (b *Bridge) publishState(client mqtt.Client, s protocol.State, frame protocol.Frame) error {
	payload, err := json.Marshal(newStatePayload(s, frame))
	if err != nil {
		return err
	}
	logging.LogMQTT("tx", b.topics.State, payload)
	if t := client.Publish(b.topics.State, 0, true, payload); t.Wait() && t.Error() != nil {
		return t.Error()
	}
	return nil
}

type command struct {
	topic   string
	payload string
}

// SubscribeToCommands subscribes to the command topics. Call it from the
// MQTT OnConnect handler so subscriptions survive reconnects.
//
// The message handlers only queue the command; a worker started on the
// first call applies them one at a time.
func (b *Bridge) SubscribeToCommands(client mqtt.Client) {
	b.startWorker.Do(func() { go b.runCommands() })

	for _, topic := range b.topics.Commands() {
		if t := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			logging.LogMQTT("rx", msg.Topic(), msg.Payload())
			b.enqueue(command{topic: msg.Topic(), payload: string(msg.Payload())})
		}); t.Wait() && t.Error() != nil {
			logging.Error("MQTT subscribe failed", zap.String("topic", topic), zap.Error(t.Error()))
		}
	}
}

func (b *Bridge) enqueue(cmd command) {
	b.pending.Add(1)
	select {
	case b.commands <- cmd:
	default:
		b.pending.Done()
		logging.Warn("Command queue full, dropping command",
			zap.String("unit", b.name),
			zap.String("topic", cmd.topic),
		)
	}
}

func (b *Bridge) runCommands() {
	for cmd := range b.commands {
		ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
		if err := b.HandleCommand(ctx, cmd.topic, cmd.payload); err != nil {
			logging.Warn("Command failed",
				zap.String("unit", b.name),
				zap.String("topic", cmd.topic),
				zap.Error(err),
			)
		}
		cancel()
		b.pending.Done()
	}
}

// HandleCommand applies one Home Assistant command.
func (b *Bridge) HandleCommand(ctx context.Context, topic, payload string) error {
	payload = strings.TrimSpace(payload)

	var fn func(*protocol.State) error
	switch topic {
	case b.topics.ModeCmd:
		fn = func(s *protocol.State) error {
			switch protocol.Mode(strings.ToLower(payload)) {
			case protocol.ModeOff:
				s.Power = false
				return nil
			case protocol.ModeHeatCool:
				s.Power, s.Mode = true, protocol.ModeHeatCool
				return nil
			}
			m, err := protocol.ParseMode(payload)
			if err != nil {
				return err
			}
			s.Power, s.Mode = true, m
			return nil
		}
	case b.topics.TemperatureCmd:
		fn = func(s *protocol.State) error {
			t, err := strconv.ParseFloat(payload, 64)
			if err != nil {
				return fmt.Errorf("invalid temperature %q", payload)
			}
			s.TargetTemperature = t
			return nil
		}
	case b.topics.FanModeCmd:
		fn = func(s *protocol.State) error {
			f, err := protocol.ParseFanSpeed(payload)
			if err != nil {
				return err
			}
			s.FanSpeed = f
			return nil
		}
	case b.topics.PresetModeCmd:
		fn = func(s *protocol.State) error {
			p, err := protocol.ParsePreset(payload)
			if err != nil {
				return err
			}
			s.Preset = p
			return nil
		}
	default:
		return fmt.Errorf("unknown command topic %s", topic)
	}

	_, err := b.Update(ctx, fn)
	return err
}

// ListenForReceived feeds captures from the unit's IR receiver topic into
// HandleSequence until ctx is cancelled.
func (b *Bridge) ListenForReceived(ctx context.Context, client mqtt.Client, topic string) error {
	return transmit.Listen(ctx, client, topic, func(seq pulse.Sequence, _ uint32) {
		_, _ = b.HandleSequence(seq)
	})
}
