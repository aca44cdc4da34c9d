package capture

import (
	"time"

	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
	"go.uber.org/zap"
)

// Defaults for a capture session
const (
	DefaultThreshold  = 10
	DefaultBufferSize = 40
	DefaultDebounce   = 200 * time.Millisecond
)

// Options tunes a Capturer. Zero values select the defaults.
type Options struct {
	Threshold  int           // repeats needed before a code is captured
	BufferSize int           // recent codes kept for counting
	Debounce   time.Duration // identical codes closer than this count once
	Codec      protocol.Codec
	Tolerance  uint32 // timing window in percent for decoding; 0 is pulse.DefaultTolerance
}

// Namer picks a name for a newly captured code. suggested is the
// automatic name; returning "" keeps it.
type Namer func(c Capture, suggested string) string

// Capturer identifies buttons from a stream of received codes: a code that
// shows up Threshold times among the last BufferSize receptions is taken
// to be a real button press.
type Capturer struct {
	opts  Options
	store *Store
	namer Namer
	now   func() time.Time

	recent   []string // ring buffer
	next     int
	lastCode string
	lastTime time.Time
	captured map[string]bool
}

// NewCapturer creates a capturer saving into store. Codes already in the
// store are never captured again.
func NewCapturer(store *Store, opts Options, namer Namer) *Capturer {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	c := &Capturer{
		opts:     opts,
		store:    store,
		namer:    namer,
		now:      time.Now,
		recent:   make([]string, 0, opts.BufferSize),
		captured: make(map[string]bool),
	}
	for _, existing := range store.Captures() {
		c.captured[existing.ProntoData] = true
	}
	return c
}

// Process handles one received code. It returns the capture when this
// reception pushed a code over the threshold.
func (c *Capturer) Process(code string) (*Capture, error) {
	code = Normalize(code)
	if code == "" {
		return nil, nil
	}

	now := c.now()
	if code == c.lastCode && now.Sub(c.lastTime) < c.opts.Debounce {
		logging.Debug("Ignoring repeat within debounce window", zap.Duration("debounce", c.opts.Debounce))
		return nil, nil
	}
	c.lastCode, c.lastTime = code, now

	if c.captured[code] {
		logging.Debug("Code already captured")
		return nil, nil
	}

	c.push(code)

	count := c.Count(code)
	logging.Debug("Code received",
		zap.Int("count", count),
		zap.Int("buffered", len(c.recent)),
		zap.Int("threshold", c.opts.Threshold),
	)
	if count < c.opts.Threshold {
		return nil, nil
	}

	capture, name := c.describe(code, count, now)
	if c.namer != nil {
		if chosen := c.namer(capture, name); chosen != "" {
			name = chosen
		}
	}
	capture.ButtonName = name

	if err := c.store.Add(capture); err != nil {
		return &capture, err
	}
	c.captured[code] = true

	logging.Info("Button captured",
		zap.String("name", capture.ButtonName),
		zap.String("frame", capture.Frame),
	)
	return &capture, nil
}

func (c *Capturer) push(code string) {
	if len(c.recent) < c.opts.BufferSize {
		c.recent = append(c.recent, code)
		return
	}
	c.recent[c.next] = code
	c.next = (c.next + 1) % c.opts.BufferSize
}

// Count returns how often code occurs in the recent buffer.
func (c *Capturer) Count(code string) int {
	n := 0
	for _, r := range c.recent {
		if r == code {
			n++
		}
	}
	return n
}

// Buffered returns the number of codes currently held.
func (c *Capturer) Buffered() int {
	return len(c.recent)
}

// describe builds a capture record and a suggested name, attaching the
// frame and state when the code is a valid Soleus frame.
func (c *Capturer) describe(code string, count int, now time.Time) (Capture, string) {
	capture := Capture{
		Timestamp:    now,
		ProntoData:   code,
		MatchesFound: count,
	}
	fallback := defaultName(c.store.Len() + 1)

	seq, _, err := pulse.FromPronto(code)
	if err != nil {
		return capture, fallback
	}
	frame, err := pulse.FromReceiver(pulse.NewReader(seq, c.opts.Tolerance))
	if err != nil {
		return capture, fallback
	}
	capture.Frame = frame.String()

	decoded, err := c.opts.Codec.Decode(frame)
	if err != nil || decoded.Partial() {
		return capture, fallback
	}
	state := decoded.State
	capture.State = &state
	return capture, describeState(state, frame)
}
