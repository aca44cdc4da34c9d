package pulse

import (
	"fmt"
	"strings"

	"github.com/muurk/soleus/internal/protocol"
)

// Soleus IR timings, in microseconds
const (
	HeaderMark  = 8000
	HeaderSpace = 4000
	BitMark     = 600
	OneSpace    = 1600
	ZeroSpace   = 550

	// CarrierHz is the modulation frequency of the vendor remote
	CarrierHz = 38_000
)

const (
	// FrameBits is the number of data bits in a frame
	FrameBits = protocol.FrameSize * 8

	// SequenceLength is the number of durations ToPulses emits:
	// header pair, one pair per bit, trailing mark.
	SequenceLength = 2 + FrameBits*2 + 1
)

// Sequence is an ordered list of durations in microseconds. Even indexes are
// marks (carrier on), odd indexes are spaces.
type Sequence []uint32

// ToPulses renders a frame as a mark/space sequence, most significant bit
// first, ending with a single trailing mark
func ToPulses(f protocol.Frame) Sequence {
	seq := make(Sequence, 0, SequenceLength)
	seq = append(seq, HeaderMark, HeaderSpace)
	for _, b := range f {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				seq = append(seq, BitMark, OneSpace)
			} else {
				seq = append(seq, BitMark, ZeroSpace)
			}
		}
	}
	return append(seq, BitMark)
}

// Duration returns the total length of the sequence in microseconds
func (s Sequence) Duration() uint64 {
	var total uint64
	for _, d := range s {
		total += uint64(d)
	}
	return total
}

// Signed returns the sequence in the raw form ESPHome logs and accepts:
// marks positive, spaces negative
func (s Sequence) Signed() []int32 {
	out := make([]int32, len(s))
	for i, d := range s {
		if i%2 == 0 {
			out[i] = int32(d)
		} else {
			out[i] = -int32(d)
		}
	}
	return out
}

// FromSigned converts ESPHome raw values back into a Sequence. Consecutive
// values with the same sign are merged, and a leading space is dropped.
func FromSigned(raw []int32) (Sequence, error) {
	seq := make(Sequence, 0, len(raw))
	for _, v := range raw {
		if v == 0 {
			return nil, fmt.Errorf("zero duration in raw timings")
		}
		mark := v > 0
		d := uint32(v)
		if !mark {
			d = uint32(-v)
		}
		if len(seq) == 0 && !mark {
			continue
		}
		// merge runs of the same polarity into the previous entry
		if len(seq) > 0 && (len(seq)%2 == 1) == mark {
			seq[len(seq)-1] += d
			continue
		}
		seq = append(seq, d)
	}
	return seq, nil
}

// String renders the sequence as comma separated durations
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return strings.Join(parts, ",")
}
