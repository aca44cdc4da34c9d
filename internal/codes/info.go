package codes

import (
	"fmt"
	"io"
	"strings"

	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
)

// WriteInfo prints a reference card of the protocol.
func WriteInfo(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Soleus Portable AC IR Protocol\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Temperature range: %d-%d°F (%.0f-%.0f°C)\n",
		protocol.MinTempF, protocol.MaxTempF, protocol.MinTempC, protocol.MaxTempC)
	b.WriteString("Fan speeds: LOW, MED, HIGH\n")

	fmt.Fprintf(&b, "\nTimings (carrier %d Hz):\n", pulse.CarrierHz)
	fmt.Fprintf(&b, "  Header: %d µs mark, %d µs space\n", pulse.HeaderMark, pulse.HeaderSpace)
	fmt.Fprintf(&b, "  Bit 1:  %d µs mark, %d µs space\n", pulse.BitMark, pulse.OneSpace)
	fmt.Fprintf(&b, "  Bit 0:  %d µs mark, %d µs space\n", pulse.BitMark, pulse.ZeroSpace)
	fmt.Fprintf(&b, "  Trailer: %d µs mark\n", pulse.BitMark)
	fmt.Fprintf(&b, "  %d bits, MSB first, %d durations per frame\n", pulse.FrameBits, pulse.SequenceLength)

	fmt.Fprintf(&b, "\nFrame structure (%d bytes):\n", protocol.FrameSize)
	fmt.Fprintf(&b, "  Byte 0: Device ID (0x%02X)\n", protocol.DeviceID)
	fmt.Fprintf(&b, "  Byte 1: 0x%02X normal, 0x%02X sleep, 0x%02X power off\n",
		protocol.PowerNormal, protocol.PowerSleep, protocol.PowerOff)
	b.WriteString("  Byte 2: fan speed (high nibble) | mode (low nibble)\n")
	fmt.Fprintf(&b, "    - fan: LOW=0x%X_, MED=0x%X_, HIGH=0x%X_\n",
		protocol.FanBaseLow>>4, protocol.FanBaseMedium>>4, protocol.FanBaseHigh>>4)
	fmt.Fprintf(&b, "    - mode: AUTO=%X, COOL/HEAT=%X, DRY=%X, FAN=%X, ECO=%X, SLEEP=%X\n",
		protocol.NibbleAuto, protocol.NibbleTemp, protocol.NibbleDry,
		protocol.NibbleFanOnly, protocol.NibbleEco, protocol.NibbleSleep)
	fmt.Fprintf(&b, "    - DRY is always 0x%02X (LOW fan only)\n", protocol.DryLowCode)
	b.WriteString("  Byte 3: Reserved (0x00)\n")
	b.WriteString("  Byte 4: temperature or mode sentinel\n")
	fmt.Fprintf(&b, "    - COOL/ECO/SLEEP: 0x%02X + (°F - %d)\n", protocol.TempBase, protocol.MinTempF)
	fmt.Fprintf(&b, "    - AUTO: 0x%02X\n", protocol.SentinelAuto)
	fmt.Fprintf(&b, "    - FAN / DRY: 0x%02X\n", protocol.SentinelFanOnly)
	fmt.Fprintf(&b, "    - Power off: 0x%02X (vendor remote: 0x%02X/0x%02X)\n",
		protocol.SentinelOff, protocol.VendorOffFanMode, protocol.SentinelVendorOff)
	b.WriteString("  Byte 5-7: Reserved (0x00)\n")
	b.WriteString("  Byte 8: Checksum ((byte1 + byte2 + byte4) & 0xFF)\n")

	b.WriteString("\nEncoding rules, first match wins:\n")
	for i, r := range protocol.Rules() {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
