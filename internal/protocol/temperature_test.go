package protocol

import (
	"math"
	"testing"
)

func TestTempToProtocol(t *testing.T) {
	tests := []struct {
		celsius float64
		want    byte
	}{
		{22, 0x48},   // 71.6°F rounds to 72°F
		{17, 0x3E},   // lower bound is 62°F
		{16.5, 0x3E}, // below range
		{10, 0x3E},   // below range
		{-40, 0x3E},  // below range
		{17.1, 0x3F}, // 62.78°F rounds to 63°F
		{30, 0x56},   // 86°F
		{35, 0x56},   // clamped to 30°C
		{20, 0x44},   // 68°F
		{25, 0x4D},   // 77°F
		{24.5, 0x4C}, // 76.1°F rounds to 76°F
	}

	for _, tt := range tests {
		if got := TempToProtocol(tt.celsius); got != tt.want {
			t.Errorf("TempToProtocol(%v) = 0x%02X, want 0x%02X", tt.celsius, got, tt.want)
		}
	}

	if got := TempToProtocol(math.NaN()); got != 0x3E {
		t.Errorf("TempToProtocol(NaN) = 0x%02X, want 0x3E", got)
	}
	if TempToProtocol(10) != TempToProtocol(17) {
		t.Error("10°C and 17°C encode differently")
	}
}

func TestFahrenheitRoundTrip(t *testing.T) {
	for f := MinTempF; f <= MaxTempF; f++ {
		b := FahrenheitToProtocol(f)
		if want := byte(TempBase + f - MinTempF); b != want {
			t.Errorf("FahrenheitToProtocol(%d) = 0x%02X, want 0x%02X", f, b, want)
		}
		if got := ProtocolToFahrenheit(b); got != f {
			t.Errorf("ProtocolToFahrenheit(FahrenheitToProtocol(%d)) = %d", f, got)
		}
	}
}

func TestFahrenheitClamp(t *testing.T) {
	if got := FahrenheitToProtocol(50); got != TempBase {
		t.Errorf("FahrenheitToProtocol(50) = 0x%02X, want 0x%02X", got, TempBase)
	}
	if got := FahrenheitToProtocol(100); got != 0x56 {
		t.Errorf("FahrenheitToProtocol(100) = 0x%02X, want 0x56", got)
	}
	if got := ProtocolToFahrenheit(0x00); got != MinTempF {
		t.Errorf("ProtocolToFahrenheit(0x00) = %d, want %d", got, MinTempF)
	}
	if got := ProtocolToFahrenheit(0xFF); got != MaxTempF {
		t.Errorf("ProtocolToFahrenheit(0xFF) = %d, want %d", got, MaxTempF)
	}
}

func TestCelsiusRoundTrip(t *testing.T) {
	// Every byte decodes to a Celsius value that encodes back to the same byte
	for b := byte(TempBase); b <= 0x56; b++ {
		c := ProtocolToTemp(b)
		if c < MinTempC || c > MaxTempC {
			t.Errorf("ProtocolToTemp(0x%02X) = %v, outside %v..%v", b, c, MinTempC, MaxTempC)
		}
		if got := TempToProtocol(c); got != b {
			t.Errorf("TempToProtocol(ProtocolToTemp(0x%02X)) = 0x%02X", b, got)
		}
	}

	if got := ProtocolToTemp(TempBase); got != MinTempC {
		t.Errorf("ProtocolToTemp(0x3E) = %v, want %v", got, MinTempC)
	}
	if got := ProtocolToTemp(0x56); got != 30 {
		t.Errorf("ProtocolToTemp(0x56) = %v, want 30", got)
	}
}

func TestFahrenheitThroughCelsius(t *testing.T) {
	// A Fahrenheit request converted to Celsius, as the CLI and the remote do
	for f := MinTempF; f <= MaxTempF; f++ {
		if got := ProtocolToFahrenheit(TempToProtocol(FahrenheitToCelsius(float64(f)))); got != f {
			t.Errorf("%d°F encodes as %d°F", f, got)
		}
	}
}
