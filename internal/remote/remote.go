package remote

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/ui"
)

// SendTimeout bounds one transmission started from the remote
const SendTimeout = 10 * time.Second

// Sender transmits a state and returns the state the unit was set to
type Sender func(ctx context.Context, s protocol.State) (protocol.State, error)

// Options configures the remote
type Options struct {
	Unit        string // Shown in the title
	Codec       protocol.Codec
	Traits      protocol.ClimateTraits
	DisplayUnit string // C or F; also selects the temperature step
	State       protocol.State
	Send        Sender
}

// sentMsg reports the end of a transmission
type sentMsg struct {
	state protocol.State
	err   error
}

// Model is the interactive remote. Keys edit a pending state; enter sends it.
type Model struct {
	ctx  context.Context
	opts Options

	pending  protocol.State
	sent     protocol.State
	sending  bool
	lastSent time.Time
	err      error

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    keyMap
}

// New creates a remote model starting from opts.State
func New(ctx context.Context, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	if opts.State.Mode == "" {
		opts.State.Mode = protocol.ModeCool
	}
	if opts.State.FanSpeed == "" {
		opts.State.FanSpeed = protocol.FanMedium
	}

	return Model{
		ctx:     ctx,
		opts:    opts,
		pending: opts.State,
		sent:    opts.State,
		Spinner: s,
		Help:    help.New(),
		Keys:    newKeyMap(),
	}
}

// Pending returns the state being edited
func (m Model) Pending() protocol.State { return m.pending }

// Sent returns the last state the unit acknowledged
func (m Model) Sent() protocol.State { return m.sent }

// Dirty reports whether the pending state differs from the sent one
func (m Model) Dirty() bool { return m.pending != m.sent }

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case sentMsg:
		m.sending = false
		m.err = msg.err
		if msg.err == nil {
			m.sent = msg.state
			m.pending = msg.state
			m.lastSent = time.Now()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return m, nil
	}

	// Edits are locked while a frame is on its way
	if m.sending {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Power):
		m.pending.Power = !m.pending.Power
	case key.Matches(msg, m.Keys.Mode):
		m.pending.Mode = m.nextMode()
	case key.Matches(msg, m.Keys.Fan):
		m.pending.FanSpeed = nextFan(m.pending.FanSpeed)
	case key.Matches(msg, m.Keys.Preset):
		m.pending.Preset = nextPreset(m.pending.Preset)
	case key.Matches(msg, m.Keys.Warmer):
		m.pending.TargetTemperature = m.stepTemperature(1)
	case key.Matches(msg, m.Keys.Cooler):
		m.pending.TargetTemperature = m.stepTemperature(-1)
	case key.Matches(msg, m.Keys.Reset):
		m.pending = m.sent
		m.err = nil
	case key.Matches(msg, m.Keys.Send):
		if m.opts.Send == nil {
			return m, nil
		}
		m.sending = true
		m.err = nil
		return m, tea.Batch(m.Spinner.Tick, m.send(m.pending))
	}
	return m, nil
}

// send transmits s in the background
func (m Model) send(s protocol.State) tea.Cmd {
	ctx, send := m.ctx, m.opts.Send
	return func() tea.Msg {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, SendTimeout)
		defer cancel()
		got, err := send(ctx, s)
		return sentMsg{state: got, err: err}
	}
}

func (m Model) nextMode() protocol.Mode {
	var modes []protocol.Mode
	for _, mode := range m.opts.Traits.Modes {
		if mode != protocol.ModeOff {
			modes = append(modes, mode)
		}
	}
	if len(modes) == 0 {
		return m.pending.Mode
	}
	for i, mode := range modes {
		if mode == m.pending.Mode {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

func nextFan(f protocol.FanSpeed) protocol.FanSpeed {
	switch f {
	case protocol.FanLow:
		return protocol.FanMedium
	case protocol.FanMedium:
		return protocol.FanHigh
	default:
		return protocol.FanLow
	}
}

func nextPreset(p protocol.Preset) protocol.Preset {
	switch p {
	case protocol.PresetEco:
		return protocol.PresetSleep
	case protocol.PresetSleep:
		return protocol.PresetNone
	default:
		return protocol.PresetEco
	}
}

// stepTemperature moves the target by one display degree
func (m Model) stepTemperature(dir int) float64 {
	c := m.pending.TargetTemperature
	if strings.EqualFold(m.opts.DisplayUnit, ui.Fahrenheit) {
		f := protocol.ProtocolToFahrenheit(protocol.TempToProtocol(c)) + dir
		if f < protocol.MinTempF {
			f = protocol.MinTempF
		}
		if f > protocol.MaxTempF {
			f = protocol.MaxTempF
		}
		return protocol.FahrenheitToCelsius(float64(f))
	}
	c = math.Round(c) + float64(dir)*protocol.TempStep
	return math.Max(protocol.MinTempC, math.Min(protocol.MaxTempC, c))
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(ui.PrimaryColor).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(ui.MutedColor).Width(8)
	dirtyStyle  = lipgloss.NewStyle().Foreground(ui.WarningColor).Italic(true)
	okStyle     = lipgloss.NewStyle().Foreground(ui.SuccessColor)
	errStyle    = lipgloss.NewStyle().Foreground(ui.ErrorColor)
	statusStyle = lipgloss.NewStyle().Foreground(ui.MutedColor)
)

// View implements tea.Model
func (m Model) View() string {
	frame, _ := m.opts.Codec.Encode(m.pending)

	title := titleStyle.Render("SOLEUS REMOTE  ─  " + m.opts.Unit)

	state := ui.RenderState(m.pending, m.opts.DisplayUnit)
	if m.Dirty() {
		state += "  " + dirtyStyle.Render("(not sent)")
	}

	lines := []string{
		title,
		"",
		labelStyle.Render("State") + state,
		labelStyle.Render("Frame") + ui.FrameHexStyle.Render(frame.String()),
		labelStyle.Render("Rule") + statusStyle.Render(m.opts.Codec.Rule(m.pending)),
		"",
		m.statusLine(),
		"",
		m.Help.View(m.Keys),
	}

	width := m.Width
	if width < ui.MinTerminalWidth {
		width = ui.MinTerminalWidth
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Padding(0, 2).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) statusLine() string {
	switch {
	case m.sending:
		return m.Spinner.View() + " Transmitting…"
	case m.err != nil:
		return errStyle.Render(fmt.Sprintf("%s %v", ui.FailureMarker, m.err))
	case !m.lastSent.IsZero():
		return okStyle.Render(fmt.Sprintf("%s Sent at %s", ui.SuccessMarker, m.lastSent.Format("15:04:05")))
	default:
		return statusStyle.Render("Nothing sent yet")
	}
}

// Run shows the remote until the user quits and returns the last state
// that was sent successfully.
func Run(ctx context.Context, opts Options) (protocol.State, error) {
	p := tea.NewProgram(New(ctx, opts), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return opts.State, err
	}
	if m, ok := final.(Model); ok {
		return m.Sent(), nil
	}
	return opts.State, nil
}
