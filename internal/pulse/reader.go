package pulse

import (
	"github.com/muurk/soleus/internal/protocol"
)

const (
	// DefaultTolerance is the timing window, in percent, used when none is given
	DefaultTolerance = 25

	// MaxTolerance is the widest window that keeps a zero space from
	// matching a one space: ZeroSpace*(100+t) < OneSpace*(100-t).
	MaxTolerance = (OneSpace - ZeroSpace) * 100 / (OneSpace + ZeroSpace)
)

// Receiver is the tolerance-aware primitive a receive buffer offers.
// ExpectItem consumes the next mark/space pair only when both durations
// match; otherwise the position is unchanged.
type Receiver interface {
	ExpectItem(mark, space uint32) bool
}

// Reader is an in-memory Receiver over a captured Sequence
type Reader struct {
	seq       Sequence
	pos       int
	tolerance uint32
}

// NewReader creates a reader matching durations within ±tolerance percent.
// A tolerance of 0 means DefaultTolerance; values above MaxTolerance are
// capped.
func NewReader(seq Sequence, tolerance uint32) *Reader {
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}
	if tolerance > MaxTolerance {
		tolerance = MaxTolerance
	}
	return &Reader{seq: seq, tolerance: tolerance}
}

// Tolerance returns the matching window in percent
func (r *Reader) Tolerance() uint32 {
	return r.tolerance
}

func (r *Reader) matches(got, want uint32) bool {
	lower := uint64(want) * uint64(100-r.tolerance) / 100
	upper := uint64(want) * uint64(100+r.tolerance) / 100
	return uint64(got) >= lower && uint64(got) <= upper
}

// ExpectItem implements Receiver
func (r *Reader) ExpectItem(mark, space uint32) bool {
	if r.pos+1 >= len(r.seq) {
		return false
	}
	if !r.matches(r.seq[r.pos], mark) || !r.matches(r.seq[r.pos+1], space) {
		return false
	}
	r.pos += 2
	return true
}

// ExpectMark consumes a single mark, used for the trailing mark
func (r *Reader) ExpectMark(mark uint32) bool {
	if r.pos >= len(r.seq) || r.pos%2 != 0 {
		return false
	}
	if !r.matches(r.seq[r.pos], mark) {
		return false
	}
	r.pos++
	return true
}

// Position returns the index of the next unread duration
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread durations
func (r *Reader) Remaining() int {
	return len(r.seq) - r.pos
}

// Reset rewinds the reader to the start of the sequence
func (r *Reader) Reset() {
	r.pos = 0
}

// FromReceiver reconstructs a frame from a receiver, left to right with no
// backtracking. The frame is not validated; that is protocol.Codec's job.
func FromReceiver(r Receiver) (protocol.Frame, error) {
	var f protocol.Frame
	if !r.ExpectItem(HeaderMark, HeaderSpace) {
		return protocol.Frame{}, protocol.NewHeaderError("header pair did not match")
	}
	for i := 0; i < FrameBits; i++ {
		switch {
		case r.ExpectItem(BitMark, OneSpace):
			f[i/8] |= 1 << (7 - i%8)
		case r.ExpectItem(BitMark, ZeroSpace):
		default:
			return protocol.Frame{}, protocol.NewBitDecodeError(i, "pair matched neither bit encoding")
		}
	}
	return f, nil
}

// FromPulses decodes a sequence with the default tolerance
func FromPulses(seq Sequence) (protocol.Frame, error) {
	return FromReceiver(NewReader(seq, DefaultTolerance))
}
