package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/capture"
	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/ui"
	"github.com/muurk/soleus/internal/urls"
)

// Capture command flags
var (
	storePath      string
	captureFile    string
	captureWS      string
	captureHello   string
	threshold      int
	bufferSize     int
	debounceMS     int
	promptForNames bool
	exportPin      string
	exportOutput   string
)

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.AddCommand(captureRunCmd)
	captureCmd.AddCommand(captureListCmd)
	captureCmd.AddCommand(captureExportCmd)

	captureCmd.PersistentFlags().StringVar(&storePath, "store", "", "Capture file (default captures.yaml next to the config)")

	captureRunCmd.Flags().StringVar(&unitName, "unit", "", "Unit whose codec and receive tolerance decode the captures (defaults to default_unit)")
	captureRunCmd.Flags().StringVar(&captureFile, "file", "", "Read a saved receiver log instead of stdin")
	captureRunCmd.Flags().StringVar(&captureWS, "ws", "", "Follow a websocket log stream, e.g. ws://esphome.local:6052/logs")
	captureRunCmd.Flags().StringVar(&captureHello, "hello", "", "First message sent on the websocket (ESPHome dashboard: {\"configuration\":\"ir.yaml\"})")
	captureRunCmd.Flags().IntVar(&threshold, "threshold", 0, "Receptions needed before a code is captured (default from config)")
	captureRunCmd.Flags().IntVar(&bufferSize, "buffer", 0, "Recent receptions kept for counting (default from config)")
	captureRunCmd.Flags().IntVar(&debounceMS, "debounce", 0, "Identical codes closer than this many ms count once (default from config)")
	captureRunCmd.Flags().BoolVar(&promptForNames, "prompt", false, "Ask for a name for each captured button")

	captureExportCmd.Flags().StringVar(&exportPin, "pin", capture.DefaultTransmitterPin, "GPIO pin of the IR LED")
	captureExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Learn remote buttons from an IR receiver log",
	Long: `Learn the buttons of a remote from the log of an IR receiver.

Point a receiver (e.g. ESPHome remote_receiver with dump: pronto) at the
remote and press each button repeatedly. A code that appears often enough
among the recent receptions is stored as a button.`,
}

var captureRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture buttons from a receiver log",
	Example: `  # Follow the ESPHome dashboard log
  soleus-ir capture run --ws ws://esphome.local:6052/logs --hello '{"configuration":"ir.yaml"}'

  # Pipe a log
  esphome logs ir.yaml | soleus-ir capture run

  # Replay a saved log with a lower threshold
  soleus-ir capture run --file ir.log --threshold 3`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if promptForNames && captureFile == "" && captureWS == "" {
		return errors.New("--prompt needs --file or --ws, stdin is the log")
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts := captureOptions(registry.Preferences)
	unitLabel := "-"
	if name, unit, err := registry.ResolveUnit(unitName); err == nil {
		opts.Codec = unit.Codec()
		opts.Tolerance = unit.TolerancePercent
		unitLabel = unit.DisplayName(name)
	} else if unitName != "" {
		return err
	}

	store, err := openCaptureStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openCaptureSource(ctx)
	if err != nil {
		return err
	}

	var namer capture.Namer
	if promptForNames {
		namer = promptNamer(bufio.NewReader(os.Stdin))
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("CAPTURE", commandLine(cmd),
		ui.Param{Key: "Source", Value: sourceName()},
		ui.Param{Key: "Unit", Value: unitLabel},
		ui.Param{Key: "Store", Value: store.Path()},
		ui.Param{Key: "Threshold", Value: fmt.Sprintf("%d of %d", opts.Threshold, opts.BufferSize)},
		ui.Param{Key: "Already captured", Value: fmt.Sprintf("%d", store.Len())},
	)

	meter := ui.NewCaptureMeter(opts.Threshold)
	interactive := ui.IsTerminal()
	before := store.Len()

	err = capture.Run(ctx, src, capture.NewCapturer(store, opts, namer), capture.Events{
		OnCode: func(code string, count, buffered int) {
			if interactive {
				fmt.Print("\r\033[K" + meter.Render(code, count, buffered))
			} else {
				fmt.Println(meter.Render(code, count, buffered))
			}
		},
		OnCapture: func(c capture.Capture) {
			if interactive {
				fmt.Print("\r\033[K")
			}
			fmt.Println(ui.RenderCaptured(c.ButtonName, c.MatchesFound))
		},
	})
	if interactive {
		fmt.Println()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	p.Newline()
	details := []ui.Param{
		{Key: "New buttons", Value: fmt.Sprintf("%d", store.Len()-before)},
		{Key: "Total", Value: fmt.Sprintf("%d", store.Len())},
	}
	if store.Len() == before {
		details = append(details, ui.Param{Key: "Receiver setup", Value: urls.ESPHomeRemoteReceiver})
		p.PrintWarning("No new buttons captured", details...)
		return nil
	}
	p.PrintSuccess("Capture finished", details...)
	return nil
}

// captureOptions merges flags over the configured preferences
func captureOptions(prefs *config.Preferences) capture.Options {
	opts := capture.Options{}
	if prefs != nil {
		opts.Threshold = prefs.CaptureThreshold
		opts.BufferSize = prefs.CaptureBuffer
		opts.Debounce = time.Duration(prefs.CaptureDebounceMS) * time.Millisecond
	}
	if threshold > 0 {
		opts.Threshold = threshold
	}
	if bufferSize > 0 {
		opts.BufferSize = bufferSize
	}
	if debounceMS > 0 {
		opts.Debounce = time.Duration(debounceMS) * time.Millisecond
	}
	if opts.Threshold <= 0 {
		opts.Threshold = capture.DefaultThreshold
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = capture.DefaultBufferSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = capture.DefaultDebounce
	}
	return opts
}

func openCaptureStore() (*capture.Store, error) {
	path := storePath
	if path == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "captures.yaml")
	}
	return capture.OpenStore(path)
}

func openCaptureSource(ctx context.Context) (capture.Source, error) {
	switch {
	case captureWS != "":
		ws, err := capture.DialWebSocket(ctx, captureWS, captureHello)
		if err != nil {
			return nil, err
		}
		return ws, nil
	case captureFile != "":
		f, err := os.Open(captureFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
		return capture.NewReaderSource(f), nil
	default:
		return capture.NewReaderSource(os.Stdin), nil
	}
}

func sourceName() string {
	switch {
	case captureWS != "":
		return captureWS
	case captureFile != "":
		return captureFile
	default:
		return "stdin"
	}
}

// promptNamer asks for each button name on r. An empty answer keeps the
// suggested name.
func promptNamer(r *bufio.Reader) capture.Namer {
	return func(c capture.Capture, suggested string) string {
		fmt.Printf("\r\033[K  New button (%d matches). Name [%s]: ", c.MatchesFound, suggested)
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return ""
		}
		return strings.TrimSpace(line)
	}
}

var captureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List captured buttons",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		store, err := openCaptureStore()
		if err != nil {
			return err
		}
		captures := store.Captures()
		if len(captures) == 0 {
			fmt.Printf("No captures in %s\n", store.Path())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUTTON\tMATCHES\tCAPTURED\tSTATE")
		for _, c := range captures {
			state := "-"
			if c.State != nil {
				state = c.State.String()
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.ButtonName, c.MatchesFound, c.Timestamp.Format(time.DateTime), state)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d captures in %s\n", len(captures), store.Path())
		return nil
	},
}

var captureExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export captured buttons as ESPHome configuration",
	Example: `  # Print the ESPHome fragment
  soleus-ir capture export

  # Write it for an IR LED on GPIO4
  soleus-ir capture export --pin GPIO4 -o soleus_buttons.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		store, err := openCaptureStore()
		if err != nil {
			return err
		}
		if store.Len() == 0 {
			return fmt.Errorf("no captures in %s", store.Path())
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}
		if err := capture.ExportESPHome(w, store.Captures(), exportPin); err != nil {
			return err
		}
		if exportOutput != "" {
			fmt.Printf("Wrote %d buttons to %s\n", store.Len(), exportOutput)
			fmt.Printf("Transmitter setup: %s\n", urls.ESPHomeRemoteTransmitter)
		}
		return nil
	},
}
