// Package protocol implements the Soleus portable air conditioner IR frame.
//
// This package converts between a logical climate state (power, mode, fan
// speed, preset, target temperature) and the 9-byte frame the vendor remote
// sends. It owns the field packing rules, the temperature scale and the
// checksum. It has no knowledge of pulse timings; see package pulse for that.
//
// # Frame Layout
//
// Every frame is exactly 9 bytes:
//   - Byte 0: Device ID (0x19)
//   - Byte 1: 0x80 normal, 0x81 sleep, 0x00 power off
//   - Byte 2: Fan speed in the high nibble, mode in the low nibble
//   - Byte 3: Reserved (0x00)
//   - Byte 4: Temperature (0x3E + °F - 62) or a mode sentinel
//   - Bytes 5-7: Reserved (0x00)
//   - Byte 8: Checksum, (byte1 + byte2 + byte4) mod 256
//
// # Mode Packing
//
// A single nibble carries five mutually exclusive modes, two of which are
// really presets of COOL. Encode resolves a state with an ordered rule
// table, first match wins:
//
//	fan_only  byte2 = fan|0x3  byte4 = 0x4F
//	auto      byte2 = fan|0x0  byte4 = 0x48
//	dry       byte2 = 0x12     byte4 = 0x4F  (fan forced LOW)
//	heat      byte2 = fan|0x1  byte4 = temp  (heat-capable units only)
//	sleep     byte2 = fan|0x6  byte4 = temp
//	eco       byte2 = fan|0x5  byte4 = temp
//	cool      byte2 = fan|0x1  byte4 = temp
//
// Nibble 0x1 means COOL on cooling-only units and HEAT on heat/cool units.
// The frame cannot tell them apart, so the same Codec.SupportsHeat value
// must be used in both directions.
//
// # Usage Example - Encoding
//
//	codec := protocol.Codec{SupportsHeat: false}
//	frame, state := codec.Encode(protocol.State{
//	    Power:             true,
//	    Mode:              protocol.ModeCool,
//	    FanSpeed:          protocol.FanHigh,
//	    Preset:            protocol.PresetNone,
//	    TargetTemperature: 22,
//	})
//	fmt.Println(frame) // 19 80 31 00 48 00 00 00 F9
//
// # Usage Example - Decoding
//
//	decoded, err := codec.Decode(frame)
//	if err != nil {
//	    // DeviceMismatch or ChecksumMismatch: keep the last known state
//	    return err
//	}
//	current = decoded.Apply(current)
//
// # Error Handling
//
// Encoding never fails. Decoding returns *Error values that can be
// classified with errors.Is against ErrDeviceMismatch and
// ErrChecksumMismatch. Frames with unknown nibbles decode successfully with
// Decoded.Partial() set and UnrecognizedField warnings attached.
//
// # Thread Safety
//
// Codec is a plain value with no internal state and is safe for concurrent use.
package protocol
