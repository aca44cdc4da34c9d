package capture

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTransmitterPin is written when no pin is given
const DefaultTransmitterPin = "GPIO32"

var unsafeID = regexp.MustCompile(`[^a-z0-9_]`)

type esphomeConfig struct {
	RemoteTransmitter esphomeTransmitter `yaml:"remote_transmitter"`
	Button            []esphomeButton    `yaml:"button"`
}

type esphomeTransmitter struct {
	Pin                string `yaml:"pin"`
	CarrierDutyPercent string `yaml:"carrier_duty_percent"`
}

type esphomeButton struct {
	Platform string          `yaml:"platform"`
	Name     string          `yaml:"name"`
	ID       string          `yaml:"id"`
	OnPress  []esphomeAction `yaml:"on_press"`
}

type esphomeAction struct {
	TransmitPronto esphomePronto `yaml:"remote_transmitter.transmit_pronto"`
}

type esphomePronto struct {
	Data string `yaml:"data"`
}

// ESPHomeID turns a button name into a valid ESPHome id.
func ESPHomeID(name string) string {
	id := unsafeID.ReplaceAllString(strings.ToLower(name), "_")
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "btn_" + id
	}
	return id
}

// ExportESPHome writes an ESPHome configuration fragment with one template
// button per capture, each transmitting its Pronto code.
func ExportESPHome(w io.Writer, captures []Capture, pin string) error {
	if pin == "" {
		pin = DefaultTransmitterPin
	}

	cfg := esphomeConfig{
		RemoteTransmitter: esphomeTransmitter{Pin: pin, CarrierDutyPercent: "50%"},
	}
	seen := make(map[string]int)
	for _, c := range captures {
		id := ESPHomeID(c.ButtonName)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s_%d", id, n)
		}
		cfg.Button = append(cfg.Button, esphomeButton{
			Platform: "template",
			Name:     c.ButtonName,
			ID:       id,
			OnPress:  []esphomeAction{{TransmitPronto: esphomePronto{Data: c.ProntoData}}},
		})
	}

	if _, err := io.WriteString(w, "# ESPHome remote transmitter configuration\n# Add this to your ESPHome YAML file\n\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode ESPHome config: %w", err)
	}
	return enc.Close()
}
