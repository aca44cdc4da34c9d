package codes

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muurk/soleus/internal/protocol"
)

// Vendor Pronto words. These are what the OEM remote's learned codes
// contain and differ slightly from a straight conversion of the nominal
// timings (pulse.ToPronto).
var (
	prontoPreamble = []string{"0000", "006D", "004A", "0000"}
	prontoHeader   = []string{"0153", "00AE"}
	prontoZero     = []string{"0013", "0018"}
	prontoOne      = []string{"0013", "0043"}
	prontoEnd      = []string{"0014", "0181"}
)

// Fan labels used in button names
var fanLabels = []struct {
	label string
	speed protocol.FanSpeed
}{
	{"LOW", protocol.FanLow},
	{"MED", protocol.FanMedium},
	{"HIGH", protocol.FanHigh},
}

// Button is one entry of the code table.
type Button struct {
	Name   string
	State  protocol.State
	Frame  protocol.Frame
	Pronto string
}

// VendorPronto renders a frame with the vendor's Pronto word table.
func VendorPronto(f protocol.Frame) string {
	words := make([]string, 0, 4+2+protocol.FrameSize*8*2+2)
	words = append(words, prontoPreamble...)
	words = append(words, prontoHeader...)
	for _, b := range f {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				words = append(words, prontoOne...)
			} else {
				words = append(words, prontoZero...)
			}
		}
	}
	words = append(words, prontoEnd...)
	return strings.Join(words, " ")
}

func frame(b1, b2, b4 byte) protocol.Frame {
	return protocol.Frame{protocol.DeviceID, b1, b2, 0x00, b4}.Seal()
}

func newButton(codec protocol.Codec, name string, f protocol.Frame) Button {
	// Every frame in the table is well-formed, so Decode cannot fail.
	d, _ := codec.Decode(f)
	return Button{
		Name:   name,
		State:  d.State,
		Frame:  f,
		Pronto: VendorPronto(f),
	}
}

// All returns every code the vendor remote can produce, in the order of the
// OEM code list: temperature mode, AUTO, ECO, SLEEP, FAN, DRY, POWER OFF.
// Frames are built directly in Fahrenheit so all 25 set-points appear.
func All() []Button {
	codec := protocol.Codec{}
	var out []Button

	for f := protocol.MinTempF; f <= protocol.MaxTempF; f++ {
		for _, fan := range fanLabels {
			b := fanByte(fan.speed, protocol.NibbleTemp)
			out = append(out, newButton(codec, fmt.Sprintf("AC,%d,%s", f, fan.label),
				frame(protocol.PowerNormal, b, protocol.FahrenheitToProtocol(f))))
		}
	}

	for _, fan := range fanLabels {
		b := fanByte(fan.speed, protocol.NibbleAuto)
		out = append(out, newButton(codec, "AUTO,"+fan.label,
			frame(protocol.PowerNormal, b, protocol.SentinelAuto)))
	}

	for f := protocol.MinTempF; f <= protocol.MaxTempF; f++ {
		for _, fan := range fanLabels {
			b := fanByte(fan.speed, protocol.NibbleEco)
			out = append(out, newButton(codec, fmt.Sprintf("ECO,%d,%s", f, fan.label),
				frame(protocol.PowerNormal, b, protocol.FahrenheitToProtocol(f))))
		}
	}

	for f := protocol.MinTempF; f <= protocol.MaxTempF; f++ {
		for _, fan := range fanLabels {
			b := fanByte(fan.speed, protocol.NibbleSleep)
			out = append(out, newButton(codec, fmt.Sprintf("SLEEP,%d,%s", f, fan.label),
				frame(protocol.PowerSleep, b, protocol.FahrenheitToProtocol(f))))
		}
	}

	for _, fan := range fanLabels {
		b := fanByte(fan.speed, protocol.NibbleFanOnly)
		out = append(out, newButton(codec, "FAN,"+fan.label,
			frame(protocol.PowerNormal, b, protocol.SentinelFanOnly)))
	}

	out = append(out, newButton(codec, "DRY,AUTO",
		frame(protocol.PowerNormal, protocol.DryLowCode, protocol.SentinelDry)))

	out = append(out, newButton(codec, "POWER OFF",
		frame(protocol.PowerOff, protocol.VendorOffFanMode, protocol.SentinelVendorOff)))

	return out
}

func fanByte(speed protocol.FanSpeed, nibble byte) byte {
	switch speed {
	case protocol.FanLow:
		return protocol.FanBaseLow | nibble
	case protocol.FanHigh:
		return protocol.FanBaseHigh | nibble
	default:
		return protocol.FanBaseMedium | nibble
	}
}

// Find returns the button with the given name. Names are compared without
// case and spaces, so "eco, 72, med" finds "ECO,72,MED".
func Find(buttons []Button, name string) (Button, bool) {
	want := normalize(name)
	for _, b := range buttons {
		if normalize(b.Name) == want {
			return b, true
		}
	}
	return Button{}, false
}

// Filter returns the buttons whose name starts with prefix (e.g. "ECO").
func Filter(buttons []Button, prefix string) []Button {
	if prefix == "" {
		return buttons
	}
	want := normalize(prefix)
	var out []Button
	for _, b := range buttons {
		if strings.HasPrefix(normalize(b.Name), want) {
			out = append(out, b)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// exportedButton is the JSON shape of the OEM code list, with the frame
// and decoded state added.
type exportedButton struct {
	ButtonName string         `json:"button_name"`
	ProntoData string         `json:"pronto_data"`
	Frame      string         `json:"frame"`
	State      protocol.State `json:"state"`
}

// WriteJSON writes buttons as an indented JSON array.
func WriteJSON(w io.Writer, buttons []Button) error {
	out := make([]exportedButton, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, exportedButton{
			ButtonName: b.Name,
			ProntoData: b.Pronto,
			Frame:      b.Frame.String(),
			State:      b.State,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
