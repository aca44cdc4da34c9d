package transmit

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/logging"
	"go.uber.org/zap"
)

// DefaultConnectTimeout bounds the initial broker connection
const DefaultConnectTimeout = 10 * time.Second

// BrokerURL adds the tcp:// scheme and default port to bare host names
func BrokerURL(broker string) string {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	rest := broker[strings.Index(broker, "://")+3:]
	if !strings.Contains(rest, ":") {
		broker += ":1883"
	}
	return broker
}

// ClientOptions builds paho options for the configured broker. Callers add
// their OnConnect handler and will before connecting.
func ClientOptions(cfg *config.MQTTConfig, clientID string) *mqtt.ClientOptions {
	if clientID == "" {
		clientID = cfg.ClientID
	}
	opts := mqtt.NewClientOptions().
		AddBroker(BrokerURL(cfg.Broker)).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logging.Warn("MQTT connection lost", zap.Error(err))
		}).
		SetReconnectingHandler(func(_ mqtt.Client, o *mqtt.ClientOptions) {
			logging.Info("MQTT reconnecting", zap.String("client_id", o.ClientID))
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

// Connect waits for the first connection of client. Clients are created by
// the caller so transmitters and handlers can be wired to them first.
func Connect(client mqtt.Client, timeout time.Duration) error {
	t := client.Connect()
	if !t.WaitTimeout(timeout) {
		return fmt.Errorf("timed out connecting to MQTT broker after %s", timeout)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	logging.Info("Connected to MQTT broker")
	return nil
}
