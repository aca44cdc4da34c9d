package codes

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
)

func TestAllCount(t *testing.T) {
	// 25 set-points x 3 fans for AC, ECO and SLEEP, 3 AUTO, 3 FAN, DRY, OFF
	want := 25*3*3 + 3 + 3 + 1 + 1
	if got := len(All()); got != want {
		t.Errorf("len(All()) = %d, want %d", got, want)
	}
}

func TestAllFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		state protocol.State
	}{
		{
			name:  "AC,72,HIGH",
			frame: "19 80 31 00 48 00 00 00 F9",
			state: protocol.State{Power: true, Mode: protocol.ModeCool, FanSpeed: protocol.FanHigh, Preset: protocol.PresetNone},
		},
		{
			name:  "AC,62,LOW",
			frame: "19 80 11 00 3E 00 00 00 CF",
			state: protocol.State{Power: true, Mode: protocol.ModeCool, FanSpeed: protocol.FanLow, Preset: protocol.PresetNone},
		},
		{
			name:  "AUTO,MED",
			frame: "19 80 20 00 48 00 00 00 E8",
			state: protocol.State{Power: true, Mode: protocol.ModeAuto, FanSpeed: protocol.FanMedium, Preset: protocol.PresetNone},
		},
		{
			name:  "ECO,86,LOW",
			frame: "19 80 15 00 56 00 00 00 EB",
			state: protocol.State{Power: true, Mode: protocol.ModeCool, FanSpeed: protocol.FanLow, Preset: protocol.PresetEco},
		},
		{
			name:  "SLEEP,68,LOW",
			frame: "19 81 16 00 44 00 00 00 DB",
			state: protocol.State{Power: true, Mode: protocol.ModeCool, FanSpeed: protocol.FanLow, Preset: protocol.PresetSleep},
		},
		{
			name:  "FAN,HIGH",
			frame: "19 80 33 00 4F 00 00 00 02",
			state: protocol.State{Power: true, Mode: protocol.ModeFanOnly, FanSpeed: protocol.FanHigh, Preset: protocol.PresetNone},
		},
		{
			name:  "DRY,AUTO",
			frame: "19 80 12 00 4F 00 00 00 E1",
			state: protocol.State{Power: true, Mode: protocol.ModeDry, FanSpeed: protocol.FanLow, Preset: protocol.PresetNone},
		},
		{
			name:  "POWER OFF",
			frame: "19 00 13 00 4F 00 00 00 62",
			state: protocol.State{Power: false},
		},
	}

	all := All()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := Find(all, tt.name)
			if !ok {
				t.Fatalf("Find(%q) found nothing", tt.name)
			}
			if got := b.Frame.String(); got != tt.frame {
				t.Errorf("frame = %s, want %s", got, tt.frame)
			}
			if err := b.Frame.Validate(); err != nil {
				t.Errorf("frame does not validate: %v", err)
			}
			got := b.State
			if !tt.state.Power {
				if got.Power {
					t.Errorf("state = %v, want power off", got)
				}
				return
			}
			got.TargetTemperature = 0
			if got != tt.state {
				t.Errorf("state = %v, want %v", got, tt.state)
			}
		})
	}
}

func TestAllTemperaturesDistinct(t *testing.T) {
	seen := make(map[byte]bool)
	for _, b := range Filter(All(), "AC,") {
		seen[b.Frame[protocol.PosTemp]] = true
	}
	if len(seen) != protocol.MaxTempF-protocol.MinTempF+1 {
		t.Errorf("AC codes use %d temperature bytes, want %d", len(seen), protocol.MaxTempF-protocol.MinTempF+1)
	}
}

func TestVendorProntoDecodes(t *testing.T) {
	for _, b := range All() {
		words := strings.Fields(b.Pronto)
		if len(words) != 4+2*0x4A {
			t.Fatalf("%s: %d words, want %d", b.Name, len(words), 4+2*0x4A)
		}
		if words[4] != "0153" || words[len(words)-1] != "0181" {
			t.Errorf("%s: unexpected framing %s ... %s", b.Name, words[4], words[len(words)-1])
		}

		seq, _, err := pulse.FromPronto(b.Pronto)
		if err != nil {
			t.Fatalf("%s: FromPronto() error = %v", b.Name, err)
		}
		got, err := pulse.FromPulses(seq)
		if err != nil {
			t.Fatalf("%s: FromPulses() error = %v", b.Name, err)
		}
		if got != b.Frame {
			t.Errorf("%s: pronto decodes to %s, want %s", b.Name, got, b.Frame)
		}
	}
}

func TestFindNormalizesName(t *testing.T) {
	if _, ok := Find(All(), "eco, 72, med"); !ok {
		t.Error(`Find("eco, 72, med") found nothing`)
	}
	if _, ok := Find(All(), "TURBO"); ok {
		t.Error(`Find("TURBO") found a button`)
	}
}

func TestFilter(t *testing.T) {
	all := All()
	tests := map[string]int{
		"":      len(all),
		"AUTO":  3,
		"FAN":   3,
		"sleep": 75,
		"DRY":   1,
	}
	for prefix, want := range tests {
		if got := len(Filter(all, prefix)); got != want {
			t.Errorf("len(Filter(%q)) = %d, want %d", prefix, got, want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Filter(All(), "DRY")); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0]["button_name"] != "DRY,AUTO" {
		t.Errorf("button_name = %v", got[0]["button_name"])
	}
	if got[0]["frame"] != "19 80 12 00 4F 00 00 00 E1" {
		t.Errorf("frame = %v", got[0]["frame"])
	}
	if !strings.HasPrefix(got[0]["pronto_data"].(string), "0000 006D 004A 0000 0153 00AE") {
		t.Errorf("pronto_data = %v", got[0]["pronto_data"])
	}
}

func TestWriteInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteInfo(&buf); err != nil {
		t.Fatalf("WriteInfo() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"62-86°F", "Device ID (0x19)", "0x3E + (°F - 62)", "38000 Hz", "147 durations"} {
		if !strings.Contains(out, want) {
			t.Errorf("info missing %q", want)
		}
	}
}
