package pulse

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/muurk/soleus/internal/protocol"
)

var coolHigh22 = protocol.Frame{0x19, 0x80, 0x31, 0x00, 0x48, 0x00, 0x00, 0x00, 0xF9}

// Helper to build a handful of frames covering every bit position
func sampleFrames() []protocol.Frame {
	frames := []protocol.Frame{
		coolHigh22,
		{0x19, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{},
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 64; i++ {
		var f protocol.Frame
		rng.Read(f[:])
		frames = append(frames, f)
	}
	return frames
}

func scale(seq Sequence, factor float64) Sequence {
	out := make(Sequence, len(seq))
	for i, d := range seq {
		out[i] = uint32(float64(d) * factor)
	}
	return out
}

func TestToPulsesLayout(t *testing.T) {
	c := qt.New(t)

	seq := ToPulses(coolHigh22)
	c.Assert(len(seq), qt.Equals, SequenceLength)
	c.Assert(SequenceLength, qt.Equals, 147)
	c.Assert(seq[0], qt.Equals, uint32(HeaderMark))
	c.Assert(seq[1], qt.Equals, uint32(HeaderSpace))
	c.Assert(seq[len(seq)-1], qt.Equals, uint32(BitMark))

	// 0x19 = 0001 1001, MSB first
	wantSpaces := []uint32{ZeroSpace, ZeroSpace, ZeroSpace, OneSpace, OneSpace, ZeroSpace, ZeroSpace, OneSpace}
	for i, want := range wantSpaces {
		c.Assert(seq[2+2*i], qt.Equals, uint32(BitMark))
		c.Assert(seq[3+2*i], qt.Equals, want, qt.Commentf("bit %d", i))
	}
}

func TestPulsesRoundTrip(t *testing.T) {
	c := qt.New(t)

	for _, f := range sampleFrames() {
		c.Run(f.String(), func(c *qt.C) {
			seq := ToPulses(f)
			c.Assert(len(seq), qt.Equals, SequenceLength)
			got, err := FromPulses(seq)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, f)
		})
	}
}

func TestFromPulsesTolerance(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		factor  float64
		wantErr error
	}{
		{0.8, nil},
		{1.0, nil},
		{1.2, nil},
		{1.3, protocol.ErrHeaderMismatch},
		{0.7, protocol.ErrHeaderMismatch},
	}

	for _, tt := range tests {
		c.Run(fmt.Sprintf("x%.1f", tt.factor), func(c *qt.C) {
			got, err := FromPulses(scale(ToPulses(coolHigh22), tt.factor))
			if tt.wantErr != nil {
				c.Assert(errors.Is(err, tt.wantErr), qt.IsTrue, qt.Commentf("err = %v", err))
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, coolHigh22)
		})
	}
}

func TestFromPulsesHeaderMismatch(t *testing.T) {
	c := qt.New(t)

	seq := ToPulses(coolHigh22)
	seq[0] = 3000
	_, err := FromPulses(seq)
	c.Assert(errors.Is(err, protocol.ErrHeaderMismatch), qt.IsTrue)
	c.Assert(protocol.IsPulseError(err), qt.IsTrue)

	_, err = FromPulses(nil)
	c.Assert(errors.Is(err, protocol.ErrHeaderMismatch), qt.IsTrue)
}

func TestFromPulsesBitDecodeError(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		mutate  func(Sequence) Sequence
		wantBit int
	}{
		{
			name: "space between zero and one",
			mutate: func(s Sequence) Sequence {
				s[2+2*10+1] = 1000
				return s
			},
			wantBit: 10,
		},
		{
			name: "mark too long",
			mutate: func(s Sequence) Sequence {
				s[2+2*40] = 1500
				return s
			},
			wantBit: 40,
		},
		{
			name: "truncated",
			mutate: func(s Sequence) Sequence {
				return s[:2+2*65]
			},
			wantBit: 65,
		},
		{
			name: "trailing mark missing still decodes all bits",
			mutate: func(s Sequence) Sequence {
				return s[:len(s)-1]
			},
			wantBit: -1,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			seq := tt.mutate(ToPulses(coolHigh22))
			got, err := FromPulses(seq)
			if tt.wantBit < 0 {
				c.Assert(err, qt.IsNil)
				c.Assert(got, qt.Equals, coolHigh22)
				return
			}
			c.Assert(errors.Is(err, protocol.ErrBitDecode), qt.IsTrue, qt.Commentf("err = %v", err))
			var perr *protocol.Error
			c.Assert(errors.As(err, &perr), qt.IsTrue)
			c.Assert(perr.Bit, qt.Equals, tt.wantBit)
			c.Assert(got, qt.Equals, protocol.Frame{})
		})
	}
}

func TestReaderExpectItem(t *testing.T) {
	c := qt.New(t)

	r := NewReader(Sequence{8000, 4000, 600, 1600, 600}, 0)
	c.Assert(r.Tolerance(), qt.Equals, uint32(DefaultTolerance))

	// mismatch leaves the position alone
	c.Assert(r.ExpectItem(BitMark, OneSpace), qt.IsFalse)
	c.Assert(r.Position(), qt.Equals, 0)

	c.Assert(r.ExpectItem(HeaderMark, HeaderSpace), qt.IsTrue)
	c.Assert(r.ExpectItem(BitMark, ZeroSpace), qt.IsFalse)
	c.Assert(r.ExpectItem(BitMark, OneSpace), qt.IsTrue)
	c.Assert(r.Remaining(), qt.Equals, 1)

	// only a mark is left
	c.Assert(r.ExpectItem(BitMark, OneSpace), qt.IsFalse)
	c.Assert(r.ExpectMark(BitMark), qt.IsTrue)
	c.Assert(r.Remaining(), qt.Equals, 0)

	r.Reset()
	c.Assert(r.Position(), qt.Equals, 0)
}

func TestReaderToleranceBounds(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		tolerance uint32
		got       uint32
		want      bool
	}{
		{25, 1200, true},
		{25, 2000, true},
		{25, 1199, false},
		{25, 2001, false},
		{10, 1440, true},
		{10, 1439, false},
		{10, 1760, true},
		{10, 1761, false},
	}

	for _, tt := range tests {
		r := NewReader(Sequence{BitMark, tt.got}, tt.tolerance)
		c.Assert(r.ExpectItem(BitMark, OneSpace), qt.Equals, tt.want,
			qt.Commentf("tolerance %d%%, space %d", tt.tolerance, tt.got))
	}

	c.Assert(NewReader(nil, 250).Tolerance(), qt.Equals, uint32(MaxTolerance))
}

func TestMaxTolerance(t *testing.T) {
	c := qt.New(t)

	c.Assert(MaxTolerance, qt.Equals, 48)

	// A zero space never matches a one space at the cap
	r := NewReader(Sequence{BitMark, ZeroSpace * (100 + MaxTolerance) / 100}, MaxTolerance)
	c.Assert(r.ExpectItem(BitMark, OneSpace), qt.IsFalse)
	c.Assert(r.ExpectItem(BitMark, ZeroSpace), qt.IsTrue)

	for _, tolerance := range []uint32{MaxTolerance, 49, 70, 100} {
		c.Run(fmt.Sprintf("%d%%", tolerance), func(c *qt.C) {
			c.Assert(NewReader(nil, tolerance).Tolerance(), qt.Equals, uint32(MaxTolerance))
			for _, f := range sampleFrames() {
				got, err := FromReceiver(NewReader(ToPulses(f), tolerance))
				c.Assert(err, qt.IsNil)
				c.Assert(got, qt.Equals, f)
			}
		})
	}
}

// fakeReceiver records the order of ExpectItem calls
type fakeReceiver struct {
	calls [][2]uint32
	reply func(n int) bool
}

func (f *fakeReceiver) ExpectItem(mark, space uint32) bool {
	f.calls = append(f.calls, [2]uint32{mark, space})
	return f.reply(len(f.calls))
}

func TestFromReceiverCallOrder(t *testing.T) {
	c := qt.New(t)

	// header matches, then every one-bit probe fails and every zero-bit probe matches
	rx := &fakeReceiver{reply: func(n int) bool { return n == 1 || n%2 == 1 }}
	f, err := FromReceiver(rx)
	c.Assert(err, qt.IsNil)
	c.Assert(f, qt.Equals, protocol.Frame{})
	c.Assert(len(rx.calls), qt.Equals, 1+2*FrameBits)
	c.Assert(rx.calls[0], qt.Equals, [2]uint32{HeaderMark, HeaderSpace})
	c.Assert(rx.calls[1], qt.Equals, [2]uint32{BitMark, OneSpace})
	c.Assert(rx.calls[2], qt.Equals, [2]uint32{BitMark, ZeroSpace})
}

func TestSigned(t *testing.T) {
	c := qt.New(t)

	seq := Sequence{8000, 4000, 600, 550, 600}
	raw := seq.Signed()
	c.Assert(raw, qt.DeepEquals, []int32{8000, -4000, 600, -550, 600})

	back, err := FromSigned(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(back, qt.DeepEquals, seq)

	merged, err := FromSigned([]int32{-100, 8000, -2000, -2000, 300, 300, -550})
	c.Assert(err, qt.IsNil)
	c.Assert(merged, qt.DeepEquals, Sequence{8000, 4000, 600, 550})

	_, err = FromSigned([]int32{8000, 0})
	c.Assert(err, qt.IsNotNil)
}

func TestSequenceHelpers(t *testing.T) {
	c := qt.New(t)

	seq := Sequence{8000, 4000, 600}
	c.Assert(seq.Duration(), qt.Equals, uint64(12600))
	c.Assert(seq.String(), qt.Equals, "8000,4000,600")
}

// vendorPronto builds a code the way the vendor code tables do
func vendorPronto(f protocol.Frame) string {
	words := []string{"0000", "006D", "004A", "0000", "0153", "00AE"}
	for _, b := range f {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				words = append(words, "0013", "0043")
			} else {
				words = append(words, "0013", "0018")
			}
		}
	}
	words = append(words, "0014", "0181")
	return strings.Join(words, " ")
}

func TestToPronto(t *testing.T) {
	c := qt.New(t)

	code := ToPronto(ToPulses(coolHigh22), CarrierHz)
	words := strings.Fields(code)
	c.Assert(words[:4], qt.DeepEquals, []string{"0000", "006D", "004A", "0000"})
	c.Assert(len(words), qt.Equals, 4+2*0x4A)
	c.Assert(words[len(words)-1], qt.Equals, "0181")
	c.Assert(ProntoFrequencyWord(0), qt.Equals, uint16(0x6D))
}

func TestProntoRoundTrip(t *testing.T) {
	c := qt.New(t)

	for _, f := range sampleFrames() {
		seq, carrier, err := FromPronto(ToPronto(ToPulses(f), CarrierHz))
		c.Assert(err, qt.IsNil)
		c.Assert(len(seq), qt.Equals, SequenceLength)
		c.Assert(carrier > 37900 && carrier < 38100, qt.IsTrue, qt.Commentf("carrier %d", carrier))
		got, err := FromPulses(seq)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, f)
	}
}

func TestFromProntoVendorCodes(t *testing.T) {
	c := qt.New(t)

	frames := []protocol.Frame{
		coolHigh22,
		{0x19, 0x00, 0x13, 0x00, 0x4F, 0x00, 0x00, 0x00, 0x62},
		{0x19, 0x81, 0x16, 0x00, 0x44, 0x00, 0x00, 0x00, 0xDB},
	}
	for _, f := range frames {
		seq, _, err := FromPronto(vendorPronto(f))
		c.Assert(err, qt.IsNil)
		got, err := FromPulses(seq)
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, f)
	}
}

func TestFromProntoRunTogetherWords(t *testing.T) {
	c := qt.New(t)

	code := vendorPronto(coolHigh22)
	squashed := strings.Replace(code, "0000 006D 004A 0000", "0000006D004A0000", 1)
	seq, _, err := FromPronto(squashed)
	c.Assert(err, qt.IsNil)
	got, err := FromPulses(seq)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, coolHigh22)
}

func TestFromProntoErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "too short"},
		{"not learned", "0100 006D 0001 0000 0010 0010", "unsupported pronto format"},
		{"zero carrier", "0000 0000 0001 0000 0010 0010", "carrier word is zero"},
		{"missing pairs", "0000 006D 0004 0000 0010 0010", "declares 4 pairs"},
		{"bad hex", "0000 006D 0001 0000 00G0 0010", "invalid pronto word"},
		{"odd word", "0000 006D 0001 0000 010 0010", "invalid pronto word"},
		{"no pairs", "0000 006D 0000 0000", "no burst pairs"},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, _, err := FromPronto(tt.input)
			c.Assert(err, qt.ErrorMatches, ".*"+tt.want+".*")
		})
	}
}
