package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/soleus/internal/bridge"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/discovery"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/server"
	"github.com/muurk/soleus/internal/transmit"
	"github.com/muurk/soleus/internal/urls"
	"github.com/muurk/soleus/internal/version"
)

// Run command flags
var (
	configPath  string
	listenAddr  string
	logLevel    string
	dryRun      bool
	noAdvertise bool
	noMQTT      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bridge",
	Long: `Start the bridge for every unit in the configuration file.

Each unit is published to Home Assistant through MQTT discovery and served
by the HTTP API. The last state of every unit is saved to the configuration
file, so the bridge resumes where it stopped.

Use --dry-run to log frames instead of transmitting them.

The climate entities follow the MQTT discovery settings of Home Assistant:
` + urls.HomeAssistantMQTTDiscovery + `
Entity options: ` + urls.HomeAssistantMQTTClimate,
	Example: `  # Start with the default configuration
  soleus-bridge run

  # Alternate configuration file and HTTP port
  soleus-bridge run --config /etc/soleus/config.yaml --listen :9090

  # Try a new setup without touching the air conditioners
  soleus-bridge run --dry-run --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration file")
	runCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP API listen address (overrides http.listen)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $SOLEUS_LOG_LEVEL or info")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log frames instead of transmitting them")
	runCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not announce the HTTP API over mDNS")
	runCmd.Flags().BoolVar(&noMQTT, "no-mqtt", false, "Serve the HTTP API only")
}

func runBridge(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Sync()

	if configPath != "" {
		config.SetConfigPath(configPath)
	}
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(registry.Units) == 0 {
		path, _ := config.GetConfigPath()
		return fmt.Errorf("no units configured in %s", path)
	}

	logging.Info("Starting soleus-bridge",
		zap.String("version", version.Full()),
		zap.Strings("units", registry.UnitNames()),
		zap.Bool("dry_run", dryRun),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useMQTT := !noMQTT && registry.MQTT != nil && registry.MQTT.Broker != ""

	var client mqtt.Client
	var bridges []*bridge.Bridge

	mqttCfg := registry.MQTT
	if mqttCfg == nil {
		mqttCfg = &config.MQTTConfig{}
	}
	statusTopic := bridge.NewTopics(topicPrefix(mqttCfg), mqttCfg.DiscoveryPrefix, "").Availability

	if useMQTT {
		opts := transmit.ClientOptions(mqttCfg, "")
		// Keep the broker session so receiver subscriptions survive reconnects
		opts.SetCleanSession(false)
		opts.SetWill(statusTopic, "offline", 0, true)
		opts.SetOnConnectHandler(func(c mqtt.Client) {
			for _, b := range bridges {
				if err := b.Register(c); err != nil {
					logging.Error("Failed to register unit", zap.String("unit", b.Name()), zap.Error(err))
				}
				b.SubscribeToCommands(c)
			}
		})
		client = mqtt.NewClient(opts)
	} else {
		logging.Warn("MQTT disabled, serving the HTTP API only")
	}

	persist := newStatePersister(registry)
	for _, name := range registry.UnitNames() {
		unit := registry.Units[name]

		var tx transmit.Transmitter = &transmit.LogTransmitter{}
		if !dryRun {
			tx, err = transmit.New(unit, client)
			if err != nil {
				return fmt.Errorf("unit %s: %w", name, err)
			}
		}

		bridges = append(bridges, bridge.New(name, unit, tx, bridge.Options{
			TopicPrefix:     mqttCfg.TopicPrefix,
			DiscoveryPrefix: mqttCfg.DiscoveryPrefix,
			OnChange:        persist,
		}))
	}

	var wg sync.WaitGroup
	if useMQTT {
		if err := transmit.Connect(client, transmit.DefaultConnectTimeout); err != nil {
			return err
		}
		defer disconnect(client, statusTopic)

		for _, b := range bridges {
			topic := registry.Units[b.Name()].ReceiverTopic
			if topic == "" {
				continue
			}
			wg.Add(1)
			go func(b *bridge.Bridge) {
				defer wg.Done()
				err := b.ListenForReceived(ctx, client, topic)
				if err != nil && !errors.Is(err, context.Canceled) {
					logging.Error("IR receiver stopped", zap.String("unit", b.Name()), zap.Error(err))
				}
			}(b)
		}
	}

	httpCfg := registry.HTTP
	if httpCfg == nil {
		httpCfg = &config.HTTPConfig{Listen: config.DefaultListen}
	}
	listen := httpCfg.Listen
	if listenAddr != "" {
		listen = listenAddr
	}
	defaultUnit := ""
	if registry.Preferences != nil {
		defaultUnit = registry.Preferences.DefaultUnit
	}

	srv, err := server.New(&server.Config{Listen: listen, DefaultUnit: defaultUnit}, bridges)
	if err != nil {
		return err
	}

	if httpCfg.Advertise && !noAdvertise {
		adv, err := advertise(listen, registry)
		if err != nil {
			logging.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			defer adv.Shutdown()
		}
	}

	err = srv.Start(ctx)
	wg.Wait()
	logging.Info("Bridge stopped")
	return err
}

// newStatePersister saves every state change to the configuration file.
// Units change concurrently, the file is written by one at a time.
func newStatePersister(registry *config.Registry) func(string, protocol.State) {
	var mu sync.Mutex
	return func(unit string, s protocol.State) {
		mu.Lock()
		defer mu.Unlock()
		registry.UpdateUnitState(unit, s)
		if err := registry.Save(); err != nil {
			logging.Error("Failed to save state", zap.String("unit", unit), zap.Error(err))
		}
	}
}

// advertise announces the HTTP API on the port of the listen address
func advertise(listen string, registry *config.Registry) (*discovery.Advertiser, error) {
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port == 0 {
		return nil, fmt.Errorf("listen address %q has no fixed port", listen)
	}

	units := make([]discovery.UnitInfo, 0, len(registry.Units))
	for _, name := range registry.UnitNames() {
		units = append(units, discovery.UnitInfo{Name: name, SupportsHeat: registry.Units[name].SupportsHeat})
	}
	return discovery.Advertise("", port, units, version.Version)
}

// disconnect marks the bridge offline before leaving the broker
func disconnect(client mqtt.Client, statusTopic string) {
	t := client.Publish(statusTopic, 0, true, "offline")
	if !t.WaitTimeout(2 * time.Second) {
		logging.Warn("Timed out publishing offline status")
	} else if t.Error() != nil {
		logging.Warn("Failed to publish offline status", zap.Error(t.Error()))
	}
	client.Disconnect(250)
}

func topicPrefix(cfg *config.MQTTConfig) string {
	if cfg.TopicPrefix == "" {
		return config.DefaultTopicPrefix
	}
	return cfg.TopicPrefix
}
