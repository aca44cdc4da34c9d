package capture

import (
	"context"
	"errors"
	"io"

	"github.com/muurk/soleus/internal/logging"
	"go.uber.org/zap"
)

// Events receives progress from Run. Either callback may be nil.
type Events struct {
	OnCode    func(code string, count, buffered int)
	OnCapture func(c Capture)
}

// Run feeds lines from src through a LogParser into capturer until the
// source ends or ctx is cancelled. A source ending normally is not an error.
func Run(ctx context.Context, src Source, capturer *Capturer, events Events) error {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		for {
			line, err := src.Next()
			if err != nil {
				errc <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	var parser LogParser
	for {
		select {
		case <-ctx.Done():
			src.Close()
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				if code, ok := parser.Flush(); ok {
					handleCode(capturer, code, events)
				}
				select {
				case err := <-errc:
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				default:
					return ctx.Err()
				}
			}
			if code, ok := parser.Feed(line); ok {
				handleCode(capturer, code, events)
			}
		}
	}
}

func handleCode(capturer *Capturer, code string, events Events) {
	capture, err := capturer.Process(code)
	if err != nil {
		logging.Error("Failed to save capture", zap.Error(err))
	}
	if events.OnCode != nil {
		events.OnCode(code, capturer.Count(code), capturer.Buffered())
	}
	if capture != nil && events.OnCapture != nil {
		events.OnCapture(*capture)
	}
}
