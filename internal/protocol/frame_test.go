package protocol

import (
	"strings"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name       string
		b1, b2, b4 byte
		want       byte
	}{
		{"cool high 22C", 0x80, 0x31, 0x48, 0xF9},
		{"all zero", 0x00, 0x00, 0x00, 0x00},
		{"vendor off", 0x00, 0x13, 0x4F, 0x62},
		{"wraps at 256", 0xFF, 0xFF, 0xFF, 0xFD},
		{"exact 256 wraps to zero", 0x80, 0x80, 0x00, 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.b1, tt.b2, tt.b4); got != tt.want {
				t.Errorf("Checksum(0x%02X, 0x%02X, 0x%02X) = 0x%02X, want 0x%02X",
					tt.b1, tt.b2, tt.b4, got, tt.want)
			}
			// order of summation does not matter
			if got := Checksum(tt.b4, tt.b1, tt.b2); got != tt.want {
				t.Errorf("Checksum permuted = 0x%02X, want 0x%02X", got, tt.want)
			}
		})
	}
}

func TestParseFrame(t *testing.T) {
	want := Frame{0x19, 0x80, 0x31, 0x00, 0x48, 0x00, 0x00, 0x00, 0xF9}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"spaced", "19 80 31 00 48 00 00 00 F9", false},
		{"compact lower case", "1980310048000000f9", false},
		{"0x prefixed with commas", "0x19,0x80,0x31,0x00,0x48,0x00,0x00,0x00,0xF9", false},
		{"colon separated", "19:80:31:00:48:00:00:00:f9", false},
		{"too short", "19 80 31", true},
		{"too long", "19 80 31 00 48 00 00 00 F9 00", true},
		{"not hex", "zz 80 31 00 48 00 00 00 F9", true},
		{"odd digit count", "19 80 31 00 48 00 00 00 F", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrame(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != want {
				t.Errorf("ParseFrame(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestFrameValidate(t *testing.T) {
	good := Frame{0x19, 0x80, 0x31, 0x00, 0x48, 0x00, 0x00, 0x00, 0xF9}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := good
	bad[PosChecksum] = 0xF8
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() accepted tampered checksum")
	}
	if !strings.Contains(err.Error(), "expected 0xF9, got 0xF8") {
		t.Errorf("Validate() error = %q, want expected/got bytes", err)
	}
}

func TestFrameSeal(t *testing.T) {
	f := Frame{DeviceID, PowerNormal, 0x21, 0x00, 0x4A}
	sealed := f.Seal()
	if sealed[PosChecksum] != 0xEB {
		t.Errorf("Seal() checksum = 0x%02X, want 0xEB", sealed[PosChecksum])
	}
	if f[PosChecksum] != 0x00 {
		t.Error("Seal() modified the receiver")
	}
}

func TestFrameAnnotate(t *testing.T) {
	f := Frame{0x19, 0x81, 0x26, 0x00, 0x4B, 0x00, 0x00, 0x00, 0xF2}
	notes := f.Annotate()
	if len(notes) != FrameSize {
		t.Fatalf("Annotate() returned %d entries, want %d", len(notes), FrameSize)
	}

	checks := map[int]string{
		PosPower:    "sleep",
		PosFanMode:  "fan=medium mode=sleep",
		PosTemp:     "75°F",
		PosChecksum: "valid",
	}
	for idx, want := range checks {
		if !strings.Contains(notes[idx].Meaning, want) {
			t.Errorf("Annotate()[%d].Meaning = %q, want it to contain %q", idx, notes[idx].Meaning, want)
		}
	}

	f[PosChecksum] = 0x00
	if got := f.Annotate()[PosChecksum].Meaning; !strings.Contains(got, "invalid") {
		t.Errorf("tampered checksum annotated as %q", got)
	}
}

func TestFrameFromBytes(t *testing.T) {
	if _, err := FrameFromBytes(make([]byte, 8)); err == nil {
		t.Error("FrameFromBytes(8 bytes) error = nil, want error")
	}
	f, err := FrameFromBytes([]byte{0x19, 0, 0, 0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("FrameFromBytes() error = %v", err)
	}
	b := f.Bytes()
	b[0] = 0xFF
	if f[0] != 0x19 {
		t.Error("Bytes() shares memory with the frame")
	}
}
