package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/codes"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
	"github.com/muurk/soleus/internal/transmit"
	"github.com/muurk/soleus/internal/ui"
)

// Output flags
var (
	showPronto bool
	showPulses bool
	rawOutput  bool
	jsonOutput bool
	codeFilter string
)

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(infoCmd)

	addStateFlags(encodeCmd)
	addCodecFlags(encodeCmd)
	encodeCmd.Flags().BoolVar(&showPronto, "pronto", false, "Also print the frame as a Pronto code")
	encodeCmd.Flags().BoolVar(&showPulses, "pulses", false, "Also print the mark/space durations in µs")
	encodeCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print only the frame hex")

	addCodecFlags(decodeCmd)

	codesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the code list as JSON")
	codesCmd.Flags().StringVar(&codeFilter, "filter", "", "Only list buttons starting with this name (e.g. ECO)")
}

// encodeCmd builds a frame from climate settings
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode climate settings into an IR frame",
	Long: `Encode climate settings into the unit's 9-byte IR frame.

Settings not given keep their defaults (cool, medium fan, 22°C). Targets are
clamped to 17-30°C and sent as whole Fahrenheit degrees. The resolved state
may differ from the request: DRY always runs the fan on low, and HEAT is only
encoded for the heat/cool variant.`,
	Example: `  # Cool to 22°C on medium fan
  soleus-ir encode --mode cool --temp 22

  # Eco preset at 72°F, high fan, with the Pronto code
  soleus-ir encode --preset eco --temp 72F --fan high --pronto

  # Power off using the vendor remote's frame
  soleus-ir encode --off --vendor-off

  # Frame hex only, for scripts
  soleus-ir encode --mode fan_only --fan low --raw`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func runEncode(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name, codec, err := selectCodec()
	if err != nil {
		return err
	}

	requested := protocol.DefaultState()
	requested.Power = true
	if err := applyStateFlags(cmd, &requested); err != nil {
		return err
	}

	frame, adjusted := codec.Encode(requested)
	if rawOutput {
		fmt.Println(frame.String())
		return nil
	}

	display := displayUnit()
	p := ui.NewPrinter(os.Stdout)

	params := ui.StateParams(requested, display)
	if name != "" {
		params = append([]ui.Param{{Key: "Unit", Value: name}}, params...)
	}
	p.PrintHeader("ENCODE", commandLine(cmd), params...)
	p.PrintFrame(frame)
	p.Newline()

	details := append(ui.StateParams(adjusted, display), ui.Param{Key: "Rule", Value: codec.Rule(requested)})
	if adjusted != requested {
		p.PrintWarning("Frame encoded with adjusted settings", details...)
	} else {
		p.PrintSuccess("Frame encoded", details...)
	}

	if showPronto {
		p.Newline()
		p.Println("Pronto:")
		p.Println(codes.VendorPronto(frame))
	}
	if showPulses {
		seq := pulse.ToPulses(frame)
		p.Newline()
		p.Println(fmt.Sprintf("Pulses (%d durations, %d µs):", len(seq), seq.Duration()))
		p.Println(seq.String())
	}
	return nil
}

// decodeCmd explains a frame, Pronto code or receiver capture
var decodeCmd = &cobra.Command{
	Use:   "decode <frame | pronto | capture | ->",
	Short: "Decode an IR frame, Pronto code or raw capture",
	Long: `Decode a frame and show the climate state it carries.

The input may be the 9 frame bytes in hex, a Pronto code, or a receiver
capture (a JSON array of signed durations, or an object with "timings",
"raw", "code" or "pronto"). Use "-" to read the input from stdin.

Frames with the wrong device byte or checksum are rejected. Fields the
decoder does not recognize are reported as warnings.`,
	Example: `  # Frame bytes
  soleus-ir decode 19 80 21 00 48 00 00 00 E9

  # Pronto code from a learning remote
  soleus-ir decode "0000 006D 004A 0000 0153 00AE ..."

  # Capture from an ESPHome receiver log
  cat capture.json | soleus-ir decode -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	input := strings.Join(args, " ")
	if input == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input = string(data)
	}

	frame, source, err := parseFrameInput(input)
	if err != nil {
		return err
	}

	_, codec, err := selectCodec()
	if err != nil {
		return err
	}

	display := displayUnit()
	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("DECODE", commandLine(cmd), ui.Param{Key: "Input", Value: source})
	p.PrintFrame(frame)
	p.Newline()

	decoded, err := codec.Decode(frame)
	if err != nil {
		p.PrintError("Frame rejected", err,
			"Check that the capture comes from a Soleus remote",
			"Re-capture the button if bits were lost",
		)
		return fmt.Errorf("frame rejected: %w", err)
	}

	details := append(ui.StateParams(decoded.State, display), ui.Param{Key: "Rule", Value: codec.Rule(decoded.State)})
	if decoded.Partial() {
		for _, w := range decoded.Warnings {
			details = append(details, ui.Param{Key: "Warning", Value: w.Error()})
		}
		p.PrintWarning("Frame partially decoded", details...)
		return nil
	}
	p.PrintSuccess("Frame decoded", details...)
	return nil
}

// parseFrameInput accepts frame hex, or anything ParsePayload understands
func parseFrameInput(input string) (protocol.Frame, string, error) {
	if frame, err := protocol.ParseFrame(input); err == nil {
		return frame, "frame", nil
	}

	seq, _, err := transmit.ParsePayload([]byte(input))
	if err != nil {
		return protocol.Frame{}, "", fmt.Errorf("input is neither frame hex nor a capture: %w", err)
	}
	frame, err := pulse.FromPulses(seq)
	if err != nil {
		return protocol.Frame{}, "", fmt.Errorf("failed to decode pulses: %w", err)
	}
	return frame, fmt.Sprintf("%d durations", len(seq)), nil
}

// codesCmd lists the vendor remote's codes
var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List every code the vendor remote sends",
	Long: `List every button of the vendor remote with its frame and Pronto code.

Temperature buttons are named MODE,<°F>,<FAN>, e.g. "ECO,72,MED".`,
	Example: `  # All codes
  soleus-ir codes

  # Only the sleep buttons
  soleus-ir codes --filter sleep

  # JSON for a learning remote or Home Assistant script
  soleus-ir codes --json > soleus_codes.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		buttons := codes.Filter(codes.All(), codeFilter)
		if len(buttons) == 0 {
			return fmt.Errorf("no buttons match %q", codeFilter)
		}
		if jsonOutput {
			return codes.WriteJSON(os.Stdout, buttons)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUTTON\tFRAME\tSTATE")
		for _, b := range buttons {
			fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Frame, b.State)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d codes\n", len(buttons))
		return nil
	},
}

// infoCmd prints a protocol reference card
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the IR protocol reference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return codes.WriteInfo(os.Stdout)
	},
}

// commandLine echoes the invocation for command headers
func commandLine(cmd *cobra.Command) string {
	return strings.Join(append([]string{cmd.Root().Name()}, os.Args[1:]...), " ")
}
