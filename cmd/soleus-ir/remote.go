package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/apiclient"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/discovery"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/remote"
	"github.com/muurk/soleus/internal/transmit"
	"github.com/muurk/soleus/internal/ui"
)

// Remote command flags
var (
	bridgeURL      string
	discoverBridge bool
)

func init() {
	rootCmd.AddCommand(remoteCmd)

	remoteCmd.Flags().StringVar(&unitName, "unit", "", "Unit to control (defaults to default_unit)")
	remoteCmd.Flags().StringVar(&bridgeURL, "bridge", "", "Send through a running soleus-bridge, e.g. http://pi4.local:8088")
	remoteCmd.Flags().BoolVar(&discoverBridge, "discover", false, "Find the bridge serving the unit over mDNS")
}

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Interactive remote control in the terminal",
	Long: `Control a unit from an interactive remote in the terminal.

Keys change the pending settings and enter sends them. Without --bridge the
frames go out through the unit's own transmitter and the sent state is
saved to the config. With --bridge (or --discover) they are sent through a
running soleus-bridge, which keeps Home Assistant in sync.`,
	Example: `  # Local transmitter of the default unit
  soleus-ir remote

  # Through the bridge serving the office unit
  soleus-ir remote --unit office --discover

  # Through a known bridge
  soleus-ir remote --unit office --bridge http://192.168.1.20:8088`,
	Args: cobra.NoArgs,
	RunE: runRemote,
}

func runRemote(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	ctx := cmd.Context()

	var (
		opts remote.Options
		err  error
	)
	if bridgeURL != "" || discoverBridge {
		opts, err = bridgeRemote(ctx)
	} else {
		var closeTx func()
		opts, closeTx, err = localRemote()
		if closeTx != nil {
			defer closeTx()
		}
	}
	if err != nil {
		return err
	}
	opts.DisplayUnit = displayUnit()

	final, err := remote.Run(ctx, opts)
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderState(final, opts.DisplayUnit))
	return nil
}

// localRemote sends through the unit's configured transmitter
func localRemote() (remote.Options, func(), error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return remote.Options{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	name, unit, err := registry.ResolveUnit(unitName)
	if err != nil {
		return remote.Options{}, nil, err
	}

	tx, closeTx, err := openTransmitter(registry, unit, "soleus-ir-remote")
	if err != nil {
		return remote.Options{}, nil, err
	}

	codec := unit.Codec()
	return remote.Options{
		Unit:   unit.DisplayName(name),
		Codec:  codec,
		Traits: protocol.Traits(unit.SupportsHeat),
		State:  unit.State(),
		Send: func(ctx context.Context, s protocol.State) (protocol.State, error) {
			sent, err := transmit.Send(ctx, tx, name, codec, s)
			if err != nil {
				return s, err
			}
			registry.UpdateUnitState(name, sent)
			if err := registry.Save(); err != nil {
				return sent, fmt.Errorf("sent but failed to save state: %w", err)
			}
			return sent, nil
		},
	}, closeTx, nil
}

// bridgeRemote sends through the HTTP API of a bridge
func bridgeRemote(ctx context.Context) (remote.Options, error) {
	base := bridgeURL
	if base == "" {
		if unitName == "" {
			return remote.Options{}, fmt.Errorf("--discover needs --unit")
		}
		scanner := discovery.NewScanner()
		scanner.Timeout = discoverTimeout()
		device, err := scanner.WaitForUnit(ctx, unitName)
		if err != nil {
			return remote.Options{}, fmt.Errorf("no bridge serving %s found: %w", unitName, err)
		}
		base = device.BaseURL()
	}

	client := apiclient.NewClientWithURL(base)
	current, err := client.State(ctx, unitName)
	if err != nil {
		return remote.Options{}, err
	}
	name := current.Unit
	traits, err := client.Traits(ctx, name)
	if err != nil {
		return remote.Options{}, err
	}

	return remote.Options{
		Unit:   name,
		Codec:  protocol.Codec{SupportsHeat: traits.SupportsMode(protocol.ModeHeat)},
		Traits: traits,
		State:  current.State,
		Send: func(ctx context.Context, s protocol.State) (protocol.State, error) {
			resp, err := client.SetState(ctx, name, s)
			if err != nil {
				return s, err
			}
			return resp.State, nil
		},
	}, nil
}

// discoverTimeout is the configured mDNS timeout
func discoverTimeout() time.Duration {
	registry, err := config.LoadRegistry()
	if err != nil || registry.Preferences == nil || registry.Preferences.DiscoverTimeout <= 0 {
		return discovery.DefaultScanTimeout
	}
	return time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
}
