package transmit

import (
	"context"

	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/pulse"
	"go.uber.org/zap"
)

// LogTransmitter only logs what would have been sent. It is the transmitter
// of units without IR hardware and of --dry-run.
type LogTransmitter struct {
	// Last holds the most recent sequence, for inspection
	Last pulse.Sequence
}

// Transmit implements Transmitter.
func (l *LogTransmitter) Transmit(_ context.Context, carrierHz uint32, seq pulse.Sequence) error {
	l.Last = append(l.Last[:0], seq...)
	logging.Info("Dry run transmit",
		zap.Uint32("carrier_hz", carrierHz),
		zap.Int("count", len(seq)),
		zap.Uint64("duration_us", seq.Duration()),
	)
	return nil
}
