package protocol

import "math"

// CelsiusToFahrenheit converts without rounding
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// FahrenheitToCelsius converts without rounding
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// TempToProtocol encodes a Celsius target into byte 4.
//
// Targets at or below MinTempC encode as MinTempF and targets at or above
// MaxTempC as MaxTempF. In between the target is rounded to the nearest
// whole Fahrenheit degree, so every byte decoded by ProtocolToTemp encodes
// back to itself, 62 °F included.
func TempToProtocol(celsius float64) byte {
	if math.IsNaN(celsius) || celsius <= MinTempC {
		return FahrenheitToProtocol(MinTempF)
	}
	if celsius >= MaxTempC {
		return FahrenheitToProtocol(MaxTempF)
	}
	return FahrenheitToProtocol(int(math.Round(CelsiusToFahrenheit(celsius))))
}

// ProtocolToTemp decodes byte 4 into Celsius, clamped to the Celsius range.
// 62 °F (16.7 °C) is reported as MinTempC, which encodes back to 62 °F.
func ProtocolToTemp(b byte) float64 {
	c := FahrenheitToCelsius(float64(ProtocolToFahrenheit(b)))
	return math.Max(MinTempC, math.Min(MaxTempC, c))
}

// FahrenheitToProtocol encodes a whole Fahrenheit degree into byte 4
func FahrenheitToProtocol(f int) byte {
	if f < MinTempF {
		f = MinTempF
	}
	if f > MaxTempF {
		f = MaxTempF
	}
	return byte(TempBase + (f - MinTempF))
}

// ProtocolToFahrenheit decodes byte 4 into whole Fahrenheit degrees.
// Out of range bytes are clamped to the documented range.
func ProtocolToFahrenheit(b byte) int {
	f := int(b) - TempBase + MinTempF
	if f < MinTempF {
		return MinTempF
	}
	if f > MaxTempF {
		return MaxTempF
	}
	return f
}
