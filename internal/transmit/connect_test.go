package transmit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/mqtttest"
)

func TestBrokerURL(t *testing.T) {
	tests := map[string]string{
		"192.168.1.10":            "tcp://192.168.1.10:1883",
		"broker.local:1884":       "tcp://broker.local:1884",
		"tcp://broker.local":      "tcp://broker.local:1883",
		"ssl://broker.local:8883": "ssl://broker.local:8883",
	}
	for in, want := range tests {
		if got := BrokerURL(in); got != want {
			t.Errorf("BrokerURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &config.MQTTConfig{
		Broker:   "broker.local",
		Username: "soleus",
		Password: "secret",
		ClientID: "soleus-bridge",
	}

	opts := ClientOptions(cfg, "")
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://broker.local:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "soleus-bridge" {
		t.Errorf("ClientID = %q, want soleus-bridge", opts.ClientID)
	}
	if opts.Username != "soleus" || opts.Password != "secret" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false")
	}

	if got := ClientOptions(cfg, "soleus-ir-send").ClientID; got != "soleus-ir-send" {
		t.Errorf("explicit ClientID = %q", got)
	}
}

func TestConnect(t *testing.T) {
	if err := Connect(mqtttest.NewClient(), time.Second); err != nil {
		t.Errorf("Connect() error = %v", err)
	}

	client := mqtttest.NewClient()
	client.ConnectErr = errors.New("not authorized")
	err := Connect(client, time.Second)
	if err == nil || !strings.Contains(err.Error(), "not authorized") {
		t.Errorf("Connect() error = %v, want not authorized", err)
	}
}
