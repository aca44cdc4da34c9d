package transmit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/pulse"
	"go.bug.st/serial"
	"go.uber.org/zap"
)

// DefaultReplyTimeout bounds the wait for the blaster's OK/ERR line.
const DefaultReplyTimeout = 2 * time.Second

// port is the part of serial.Port the transmitter needs
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

type portOpener func(name string, baud int) (port, error)

func openSerial(name string, baud int) (port, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SerialTransmitter drives a microcontroller IR blaster over a serial line.
//
// Each sequence is sent as one line:
//
//	SEND 38000 8000,4000,600,1600,...
//
// and the blaster answers "OK" or "ERR <reason>". The port is opened per
// transmission so a replugged blaster recovers without a restart.
type SerialTransmitter struct {
	portName     string
	baudRate     int
	replyTimeout time.Duration
	open         portOpener

	mutex sync.Mutex
}

// NewSerialTransmitter creates a transmitter for the given device path.
func NewSerialTransmitter(portName string, baudRate int) *SerialTransmitter {
	return &SerialTransmitter{
		portName:     portName,
		baudRate:     baudRate,
		replyTimeout: DefaultReplyTimeout,
		open:         openSerial,
	}
}

// FormatCommand renders the SEND line for a sequence, including the newline.
func FormatCommand(carrierHz uint32, seq pulse.Sequence) string {
	return fmt.Sprintf("SEND %d %s\n", carrierHz, seq)
}

// Transmit implements Transmitter.
func (s *SerialTransmitter) Transmit(ctx context.Context, carrierHz uint32, seq pulse.Sequence) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	p, err := s.open(s.portName, s.baudRate)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", s.portName, err)
	}
	defer p.Close()

	if err := p.SetReadTimeout(s.replyTimeout); err != nil {
		return fmt.Errorf("failed to set read timeout on %s: %w", s.portName, err)
	}

	cmd := FormatCommand(carrierHz, seq)
	logging.LogRawBytes("serial tx", []byte(cmd))

	n, err := io.WriteString(p, cmd)
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", s.portName, err)
	}
	if n != len(cmd) {
		return fmt.Errorf("short write to %s: %d of %d bytes", s.portName, n, len(cmd))
	}

	reply, err := readReply(p)
	if err != nil {
		return fmt.Errorf("no reply from %s: %w", s.portName, err)
	}
	logging.Debug("Serial reply", zap.String("port", s.portName), zap.String("reply", reply))

	return parseReply(reply)
}

// readReply reads one line. A read timeout shows up as a zero-byte read,
// which ends the scan without a token.
func readReply(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}

func parseReply(reply string) error {
	switch {
	case reply == "OK":
		return nil
	case strings.HasPrefix(reply, "ERR"):
		reason := strings.TrimSpace(strings.TrimPrefix(reply, "ERR"))
		if reason == "" {
			reason = "unspecified error"
		}
		return fmt.Errorf("blaster rejected sequence: %s", reason)
	default:
		return fmt.Errorf("unexpected reply %q", reply)
	}
}
