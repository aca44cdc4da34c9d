package protocol

// Codec converts between State and Frame for one unit variant.
//
// The zero value is a cooling-only codec emitting all-zero power-off frames.
// A Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	// SupportsHeat must match the unit: it decides whether HEAT is encoded
	// and whether nibble 0x1 decodes to HEAT or COOL.
	SupportsHeat bool

	// VendorPowerOff emits the power-off frame the vendor remote sends
	// (byte 2 = 0x13, byte 4 = 0x4F) instead of the all-zero form.
	VendorPowerOff bool
}

// packingRule is one entry of the mode/preset resolution table.
// Rules are evaluated top-down and the first match packs bytes 2 and 4.
type packingRule struct {
	name  string
	match func(c Codec, s State) bool
	pack  func(fanBase byte, s State) (b2, b4 byte, adjusted State)
}

// packingRules is the priority order of the mode/preset resolution
var packingRules = []packingRule{
	{
		name:  "fan_only",
		match: func(_ Codec, s State) bool { return s.Mode == ModeFanOnly },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleFanOnly, SentinelFanOnly, s
		},
	},
	{
		name:  "auto",
		match: func(_ Codec, s State) bool { return s.Mode == ModeAuto },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleAuto, SentinelAuto, s
		},
	},
	{
		name:  "dry",
		match: func(_ Codec, s State) bool { return s.Mode == ModeDry },
		pack: func(_ byte, s State) (byte, byte, State) {
			s.FanSpeed = FanLow
			return DryLowCode, SentinelDry, s
		},
	},
	{
		name:  "heat",
		match: func(c Codec, s State) bool { return c.SupportsHeat && s.Mode == ModeHeat },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleTemp, TempToProtocol(s.TargetTemperature), s
		},
	},
	{
		name:  "sleep",
		match: func(_ Codec, s State) bool { return s.Preset == PresetSleep },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleSleep, TempToProtocol(s.TargetTemperature), s
		},
	},
	{
		name:  "eco",
		match: func(_ Codec, s State) bool { return s.Preset == PresetEco },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleEco, TempToProtocol(s.TargetTemperature), s
		},
	},
	{
		name:  "cool",
		match: func(Codec, State) bool { return true },
		pack: func(fanBase byte, s State) (byte, byte, State) {
			return fanBase | NibbleTemp, TempToProtocol(s.TargetTemperature), s
		},
	},
}

// Rules returns the names of the mode/preset packing rules in evaluation order
func Rules() []string {
	names := make([]string, len(packingRules))
	for i, r := range packingRules {
		names[i] = r.name
	}
	return names
}

// Rule returns the name of the packing rule that Encode would apply to s,
// or "off" when the state is powered off
func (c Codec) Rule(s State) string {
	if !s.Power {
		return "off"
	}
	for _, r := range packingRules {
		if r.match(c, s) {
			return r.name
		}
	}
	return ""
}

func fanBase(f FanSpeed) byte {
	switch f {
	case FanLow:
		return FanBaseLow
	case FanHigh:
		return FanBaseHigh
	default:
		return FanBaseMedium
	}
}

// Encode packs a state into a frame. It never fails: temperatures are
// clamped and unknown fan speeds fall back to MEDIUM.
//
// The returned state is the input with any adjustment the protocol forces
// on it (DRY always runs at LOW fan). Callers should publish that state
// rather than the one they passed in.
func (c Codec) Encode(s State) (Frame, State) {
	var f Frame
	f[PosDevice] = DeviceID

	if !s.Power {
		f[PosPower] = PowerOff
		if c.VendorPowerOff {
			f[PosFanMode] = VendorOffFanMode
			f[PosTemp] = SentinelVendorOff
		} else {
			f[PosFanMode] = PowerOff
			f[PosTemp] = SentinelOff
		}
		return f.Seal(), s
	}

	if s.Preset == PresetSleep {
		f[PosPower] = PowerSleep
	} else {
		f[PosPower] = PowerNormal
	}

	base := fanBase(s.FanSpeed)
	adjusted := s
	for _, r := range packingRules {
		if r.match(c, s) {
			f[PosFanMode], f[PosTemp], adjusted = r.pack(base, s)
			break
		}
	}
	return f.Seal(), adjusted
}

// Decoded is the result of a successful Decode.
//
// Fields the frame did not carry (temperature in AUTO, FAN_ONLY and DRY) or
// could not be interpreted (unknown nibbles) are flagged as not known, and
// Apply leaves them at the caller's previous value.
type Decoded struct {
	State     State
	FanKnown  bool
	ModeKnown bool // also covers Preset
	TempKnown bool
	Warnings  []*Error // UnrecognizedField entries
}

// Partial reports whether some field of a checksum-valid frame was not understood
func (d Decoded) Partial() bool {
	return len(d.Warnings) > 0
}

// Apply merges the decoded fields into the previous state
func (d Decoded) Apply(prev State) State {
	out := prev
	out.Power = d.State.Power
	if !d.State.Power {
		return out
	}
	if d.FanKnown {
		out.FanSpeed = d.State.FanSpeed
	}
	if d.ModeKnown {
		out.Mode = d.State.Mode
		out.Preset = d.State.Preset
	}
	if d.TempKnown {
		out.TargetTemperature = d.State.TargetTemperature
	}
	return out
}

// Decode validates a frame and unpacks it into a state.
//
// Frames with the wrong device id or checksum are rejected with a
// DeviceMismatch or ChecksumMismatch error and nothing else is read from
// them. Unknown nibbles are not errors: they are reported through
// Decoded.Warnings and the affected fields stay unknown.
func (c Codec) Decode(f Frame) (Decoded, error) {
	if err := f.Validate(); err != nil {
		return Decoded{}, err
	}

	if f[PosPower] == PowerOff {
		return Decoded{State: State{Power: false}}, nil
	}

	d := Decoded{State: State{Power: true}}

	fanNibble := f[PosFanMode] & 0xF0
	switch fanNibble {
	case FanBaseLow:
		d.State.FanSpeed, d.FanKnown = FanLow, true
	case FanBaseMedium:
		d.State.FanSpeed, d.FanKnown = FanMedium, true
	case FanBaseHigh:
		d.State.FanSpeed, d.FanKnown = FanHigh, true
	default:
		d.Warnings = append(d.Warnings, newUnrecognizedField("fan", fanNibble>>4))
	}

	modeNibble := f[PosFanMode] & 0x0F
	switch modeNibble {
	case NibbleAuto:
		d.setMode(ModeAuto, PresetNone)
	case NibbleTemp:
		if c.SupportsHeat {
			d.setMode(ModeHeat, PresetNone)
		} else {
			d.setMode(ModeCool, PresetNone)
		}
		d.setTemp(f[PosTemp])
	case NibbleDry:
		d.setMode(ModeDry, PresetNone)
		d.State.FanSpeed, d.FanKnown = FanLow, true
	case NibbleFanOnly:
		d.setMode(ModeFanOnly, PresetNone)
	case NibbleEco:
		d.setMode(ModeCool, PresetEco)
		d.setTemp(f[PosTemp])
	case NibbleSleep:
		d.setMode(ModeCool, PresetSleep)
		d.setTemp(f[PosTemp])
	default:
		d.Warnings = append(d.Warnings, newUnrecognizedField("mode", modeNibble))
	}

	return d, nil
}

func (d *Decoded) setMode(m Mode, p Preset) {
	d.State.Mode, d.State.Preset, d.ModeKnown = m, p, true
}

func (d *Decoded) setTemp(b byte) {
	d.State.TargetTemperature, d.TempKnown = ProtocolToTemp(b), true
}
