package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FrameSize is the fixed length of a Soleus protocol frame
const FrameSize = 9

// Byte positions inside a frame
const (
	PosDevice   = 0 // fixed device identifier
	PosPower    = 1 // power / sleep indicator
	PosFanMode  = 2 // fan speed (high nibble) + mode (low nibble)
	PosTemp     = 4 // temperature or mode sentinel
	PosChecksum = 8 // (b1 + b2 + b4) mod 256
)

// DeviceID is the first byte of every frame sent by the vendor remote
const DeviceID = 0x19

// Byte 1 values
const (
	PowerOff    = 0x00
	PowerNormal = 0x80
	PowerSleep  = 0x81
)

// Byte 2: fan speed bases (high nibble)
const (
	FanBaseLow    = 0x10
	FanBaseMedium = 0x20
	FanBaseHigh   = 0x30
)

// Byte 2: mode nibbles (low nibble)
const (
	NibbleAuto    = 0x0
	NibbleTemp    = 0x1 // COOL on cooling-only units, HEAT on heat/cool units
	NibbleDry     = 0x2
	NibbleFanOnly = 0x3
	NibbleEco     = 0x5
	NibbleSleep   = 0x6
)

// Fixed byte 2 codes
const (
	DryLowCode       = 0x12 // DRY only runs at LOW fan
	VendorOffFanMode = 0x13 // what the vendor remote sends in byte 2 when switching off
)

// Byte 4 sentinels for modes that carry no temperature
const (
	SentinelAuto      = 0x48
	SentinelFanOnly   = 0x4F
	SentinelDry       = 0x4F
	SentinelOff       = 0x00
	SentinelVendorOff = 0x4F
	TempBase          = 0x3E // 62°F
)

// Frame is a single 9-byte Soleus protocol message.
//
// Layout:
//
//	[0]     0x19           Device ID
//	[1]     0x80/0x81/0x00 Normal / sleep / power off
//	[2]     fan|mode       Fan speed (high nibble) and mode (low nibble)
//	[3]     0x00           Reserved
//	[4]     temp           0x3E + (°F - 62), or a mode sentinel
//	[5-7]   0x00           Reserved
//	[8]     checksum       (b1 + b2 + b4) & 0xFF
type Frame [FrameSize]byte

// Checksum computes the frame checksum over bytes 1, 2 and 4.
// uint8 arithmetic wraps, which is exactly the mod 256 the device uses.
func Checksum(b1, b2, b4 byte) byte {
	return b1 + b2 + b4
}

// Checksum returns the checksum this frame should carry
func (f Frame) Checksum() byte {
	return Checksum(f[PosPower], f[PosFanMode], f[PosTemp])
}

// Seal writes the checksum byte and returns the frame
func (f Frame) Seal() Frame {
	f[PosChecksum] = f.Checksum()
	return f
}

// HasValidChecksum reports whether byte 8 matches the computed checksum
func (f Frame) HasValidChecksum() bool {
	return f[PosChecksum] == f.Checksum()
}

// Validate checks the device id and the checksum, in that order.
// A frame failing either check must not be interpreted further.
func (f Frame) Validate() error {
	if f[PosDevice] != DeviceID {
		return newMismatchError(ErrTypeDeviceMismatch, "unexpected device id", DeviceID, f[PosDevice])
	}
	if want := f.Checksum(); f[PosChecksum] != want {
		return newMismatchError(ErrTypeChecksumMismatch, "invalid checksum", want, f[PosChecksum])
	}
	return nil
}

// Bytes returns the frame as a byte slice
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// String returns the frame as space separated upper-case hex
func (f Frame) String() string {
	parts := make([]string, FrameSize)
	for i, b := range f {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// FrameFromBytes copies exactly FrameSize bytes into a Frame
func FrameFromBytes(data []byte) (Frame, error) {
	var f Frame
	if len(data) != FrameSize {
		return f, fmt.Errorf("frame must be exactly %d bytes, got %d", FrameSize, len(data))
	}
	copy(f[:], data)
	return f, nil
}

// ParseFrame parses a hex representation of a frame. Whitespace, commas,
// colons and 0x prefixes are ignored, so "19 80 31 ..." and
// "0x19,0x80,0x31,..." both work.
func ParseFrame(s string) (Frame, error) {
	cleaned := strings.NewReplacer("0x", "", "0X", "", ",", "", ":", "", " ", "", "\t", "", "\n", "").Replace(s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid frame hex: %w", err)
	}
	return FrameFromBytes(data)
}

// ByteMeaning describes a single frame byte for annotated dumps
type ByteMeaning struct {
	Index   int
	Value   byte
	Name    string
	Meaning string
}

// Annotate explains each byte of the frame. It does not validate; use
// Validate first when the explanation must only cover trusted frames.
func (f Frame) Annotate() []ByteMeaning {
	out := make([]ByteMeaning, 0, FrameSize)
	add := func(i int, name, meaning string) {
		out = append(out, ByteMeaning{Index: i, Value: f[i], Name: name, Meaning: meaning})
	}

	if f[PosDevice] == DeviceID {
		add(PosDevice, "device", "Soleus device id")
	} else {
		add(PosDevice, "device", fmt.Sprintf("unexpected (want 0x%02X)", DeviceID))
	}

	switch f[PosPower] {
	case PowerOff:
		add(PosPower, "power", "power off")
	case PowerNormal:
		add(PosPower, "power", "on")
	case PowerSleep:
		add(PosPower, "power", "on, sleep")
	default:
		add(PosPower, "power", "unknown")
	}

	add(PosFanMode, "fan|mode", fmt.Sprintf("fan=%s mode=%s",
		describeFanNibble(f[PosFanMode]&0xF0), describeModeNibble(f[PosFanMode]&0x0F)))
	add(3, "reserved", "always 0x00")

	switch {
	case f[PosPower] == PowerOff:
		add(PosTemp, "temp", "off sentinel")
	case f[PosFanMode]&0x0F == NibbleAuto:
		add(PosTemp, "temp", "auto sentinel")
	case f[PosFanMode]&0x0F == NibbleFanOnly, f[PosFanMode]&0x0F == NibbleDry:
		add(PosTemp, "temp", "no-temperature sentinel")
	default:
		add(PosTemp, "temp", fmt.Sprintf("%d°F", ProtocolToFahrenheit(f[PosTemp])))
	}

	for i := 5; i <= 7; i++ {
		add(i, "reserved", "always 0x00")
	}

	if f.HasValidChecksum() {
		add(PosChecksum, "checksum", "valid")
	} else {
		add(PosChecksum, "checksum", fmt.Sprintf("invalid (want 0x%02X)", f.Checksum()))
	}
	return out
}

func describeFanNibble(n byte) string {
	switch n {
	case FanBaseLow:
		return "low"
	case FanBaseMedium:
		return "medium"
	case FanBaseHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown(0x%X)", n>>4)
	}
}

func describeModeNibble(n byte) string {
	switch n {
	case NibbleAuto:
		return "auto"
	case NibbleTemp:
		return "temp"
	case NibbleDry:
		return "dry"
	case NibbleFanOnly:
		return "fan_only"
	case NibbleEco:
		return "eco"
	case NibbleSleep:
		return "sleep"
	default:
		return fmt.Sprintf("unknown(0x%X)", n)
	}
}
