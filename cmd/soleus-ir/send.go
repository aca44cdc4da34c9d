package main

import (
	"context"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/transmit"
	"github.com/muurk/soleus/internal/ui"
)

var sendTimeout int

func init() {
	rootCmd.AddCommand(sendCmd)

	addStateFlags(sendCmd)
	sendCmd.Flags().StringVar(&unitName, "unit", "", "Unit to control (defaults to default_unit)")
	sendCmd.Flags().IntVar(&sendTimeout, "timeout", 10, "Transmit timeout in seconds")
}

// sendCmd transmits a state to a configured unit
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send climate settings to a unit",
	Long: `Send climate settings to a configured unit through its IR blaster.

The unit's last known state is the starting point, so only the settings you
give change. The state the frame carries is saved as the new last state.

Settings changed while the unit is off are saved without transmitting, since
the unit ignores them until it is turned on.`,
	Example: `  # Turn the default unit on with its last settings
  soleus-ir send --mode cool

  # Change only the temperature of the bedroom unit
  soleus-ir send --unit bedroom --temp 21

  # Turn it off
  soleus-ir send --unit bedroom --off`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	name, unit, err := registry.ResolveUnit(unitName)
	if err != nil {
		return err
	}

	prev := unit.State()
	next := prev
	if err := applyStateFlags(cmd, &next); err != nil {
		return err
	}
	if next.Power && !protocol.Traits(unit.SupportsHeat).SupportsMode(next.Mode) {
		return fmt.Errorf("unit %s does not support mode %q", name, next.Mode)
	}

	display := displayUnit()
	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("SEND", commandLine(cmd),
		append([]ui.Param{{Key: "Unit", Value: unit.DisplayName(name)}}, ui.StateParams(next, display)...)...)

	if !next.Power && !prev.Power {
		registry.UpdateUnitState(name, next)
		if err := registry.Save(); err != nil {
			return fmt.Errorf("failed to save state: %w", err)
		}
		p.PrintWarning("Unit is off; settings saved without transmitting", ui.StateParams(next, display)...)
		return nil
	}

	tx, closeTx, err := openTransmitter(registry, unit, "soleus-ir-send")
	if err != nil {
		return err
	}
	defer closeTx()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(sendTimeout)*time.Second)
	defer cancel()

	codec := unit.Codec()
	sent, err := transmit.Send(ctx, tx, name, codec, next)
	if err != nil {
		p.PrintError("Transmit failed", err,
			"Check the transmitter settings of the unit in the config file",
			"For serial blasters, check the port and that no other program holds it",
			"For MQTT blasters, check that the blaster is online",
		)
		return err
	}

	registry.UpdateUnitState(name, sent)
	if err := registry.Save(); err != nil {
		return fmt.Errorf("frame sent but failed to save state: %w", err)
	}

	frame, _ := codec.Encode(sent)
	p.PrintFrame(frame)
	p.Newline()
	p.PrintSuccess("Frame transmitted", ui.StateParams(sent, display)...)
	return nil
}

// openTransmitter builds the unit's transmitter, connecting to the broker
// first when the blaster is reached over MQTT. The returned func releases
// the connection.
func openTransmitter(registry *config.Registry, unit *config.Unit, clientID string) (transmit.Transmitter, func(), error) {
	var client mqtt.Client
	if unit.Transmitter != nil && unit.Transmitter.Type == config.TransmitterMQTT {
		if registry.MQTT == nil || registry.MQTT.Broker == "" {
			return nil, nil, fmt.Errorf("unit uses an MQTT transmitter but no broker is configured")
		}
		opts := transmit.ClientOptions(registry.MQTT, fmt.Sprintf("%s-%d", clientID, os.Getpid()))
		client = mqtt.NewClient(opts)
		if err := transmit.Connect(client, transmit.DefaultConnectTimeout); err != nil {
			return nil, nil, err
		}
	}

	tx, err := transmit.New(unit, client)
	if err != nil {
		if client != nil {
			client.Disconnect(250)
		}
		return nil, nil, err
	}
	return tx, func() {
		if client != nil {
			client.Disconnect(250)
		}
	}, nil
}
