package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muurk/soleus/internal/codes"
	"github.com/muurk/soleus/internal/protocol"
	"github.com/muurk/soleus/internal/pulse"
	"gopkg.in/yaml.v3"
)

var coolHigh72 = protocol.Frame{0x19, 0x80, 0x31, 0x00, 0x48, 0x00, 0x00, 0x00, 0xF9}

func coolHigh72Pronto() string {
	return codes.VendorPronto(coolHigh72)
}

// chunks splits a code into log-line sized pieces the way ESPHome does
func chunks(code string, words int) []string {
	fields := strings.Fields(code)
	var out []string
	for len(fields) > 0 {
		n := words
		if n > len(fields) {
			n = len(fields)
		}
		out = append(out, strings.Join(fields[:n], " "))
		fields = fields[n:]
	}
	return out
}

func TestLogParserSingleLine(t *testing.T) {
	var p LogParser
	code := coolHigh72Pronto()

	got, ok := p.Feed("[12:00:01][I][remote.pronto:233]: " + code)
	if !ok {
		t.Fatal("Feed() did not return a code")
	}
	if got != code {
		t.Errorf("Feed() = %.40s..., want %.40s...", got, code)
	}
}

func TestLogParserRunTogetherWords(t *testing.T) {
	var p LogParser
	code := coolHigh72Pronto()
	squashed := strings.Replace(code, "0000 006D 004A 0000", "0000006D 004A0000", 1)

	got, ok := p.Feed("[I][remote.pronto:233]: " + squashed)
	if !ok || got != code {
		t.Errorf("Feed() = %.40s..., %v, want normalized code", got, ok)
	}
}

func TestLogParserMultiLine(t *testing.T) {
	var p LogParser
	code := coolHigh72Pronto()

	if _, ok := p.Feed("\x1b[0;32m[I][remote.pronto:231]: Received Pronto: data=\x1b[0m"); ok {
		t.Fatal("start line returned a code")
	}
	parts := chunks(code, 38)
	for i, part := range parts {
		got, ok := p.Feed("\x1b[0;32m[I][remote.pronto:233]: " + part + "\x1b[0m")
		last := i == len(parts)-1
		if ok != last {
			t.Fatalf("line %d: ok = %v, want %v", i, ok, last)
		}
		if last && got != code {
			t.Errorf("assembled = %.40s..., want %.40s...", got, code)
		}
	}
}

func TestLogParserEndedByOtherLine(t *testing.T) {
	var p LogParser
	p.Feed("[I][remote.pronto:231]: Received Pronto: data=")
	p.Feed("[I][remote.pronto:233]: 0000 006D 0002 0000 0153 00AE 0013 0018")

	got, ok := p.Feed("[D][sensor:094]: 'Temperature': Sending state 22.5")
	if !ok {
		t.Fatal("unrelated line did not end the dump")
	}
	if got != "0000 006D 0002 0000 0153 00AE 0013 0018" {
		t.Errorf("got %q", got)
	}
	if _, ok := p.Feed("[D][sensor:094]: again"); ok {
		t.Error("second unrelated line returned a code")
	}
}

func TestLogParserFlush(t *testing.T) {
	var p LogParser
	if _, ok := p.Flush(); ok {
		t.Error("Flush() on idle parser returned a code")
	}
	p.Feed("[I][remote.pronto:231]: Received Pronto: data=")
	p.Feed("[I][remote.pronto:233]: 0000 006D 0002 0000 0153 00AE 0013 0018")
	if got, ok := p.Flush(); !ok || !strings.HasPrefix(got, "0000 006D") {
		t.Errorf("Flush() = %q, %v", got, ok)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  0000  006d\n004A ": "0000 006D 004A",
		"0000006D":            "0000 006D",
		"":                    "",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCapturer(t *testing.T, opts Options, namer Namer) (*Capturer, *Store, *fakeClock) {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "captures.yaml"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	clock := &fakeClock{t: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCapturer(store, opts, namer)
	c.now = clock.now
	return c, store, clock
}

func TestCapturerThreshold(t *testing.T) {
	c, store, clock := newTestCapturer(t, Options{}, nil)
	code := coolHigh72Pronto()

	for i := 1; i < DefaultThreshold; i++ {
		got, err := c.Process(code)
		if err != nil || got != nil {
			t.Fatalf("press %d: Process() = %v, %v, want nothing", i, got, err)
		}
		clock.advance(time.Second)
	}

	got, err := c.Process(code)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got == nil {
		t.Fatal("threshold reached without a capture")
	}
	if got.ButtonName != "COOL 72F HIGH" {
		t.Errorf("ButtonName = %q, want COOL 72F HIGH", got.ButtonName)
	}
	if got.Frame != "19 80 31 00 48 00 00 00 F9" {
		t.Errorf("Frame = %q", got.Frame)
	}
	if got.State == nil || got.State.Mode != protocol.ModeCool || got.State.FanSpeed != protocol.FanHigh {
		t.Errorf("State = %v", got.State)
	}
	if got.MatchesFound != DefaultThreshold {
		t.Errorf("MatchesFound = %d, want %d", got.MatchesFound, DefaultThreshold)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d captures, want 1", store.Len())
	}

	clock.advance(time.Second)
	if again, _ := c.Process(code); again != nil {
		t.Error("code captured twice")
	}
}

func TestCapturerRetriesAfterSaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	store, err := OpenStore(filepath.Join(dir, "captures.yaml"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	c := NewCapturer(store, Options{Threshold: 2}, nil)
	clock := &fakeClock{t: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now
	code := coolHigh72Pronto()

	// A file where the directory should be makes every save fail
	if err := os.WriteFile(dir, nil, 0644); err != nil {
		t.Fatal(err)
	}

	c.Process(code)
	clock.advance(time.Second)
	if _, err := c.Process(code); err == nil {
		t.Fatal("Process() error = nil with an unwritable store")
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d captures after a failed save, want 0", store.Len())
	}

	if err := os.Remove(dir); err != nil {
		t.Fatal(err)
	}
	clock.advance(time.Second)
	got, err := c.Process(code)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got == nil {
		t.Fatal("code not captured once the store is writable")
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d captures, want 1", store.Len())
	}
}

func TestCapturerTolerance(t *testing.T) {
	// A receiver running 30% slow
	seq := pulse.ToPulses(coolHigh72)
	for i := range seq {
		seq[i] = seq[i] * 13 / 10
	}
	code := pulse.ToPronto(seq, pulse.CarrierHz)

	tests := []struct {
		tolerance uint32
		wantFrame string
	}{
		{0, ""},
		{20, ""},
		{40, "19 80 31 00 48 00 00 00 F9"},
	}
	for _, tt := range tests {
		c, _, _ := newTestCapturer(t, Options{Threshold: 1, Tolerance: tt.tolerance}, nil)
		got, err := c.Process(code)
		if err != nil {
			t.Fatalf("tolerance %d: Process() error = %v", tt.tolerance, err)
		}
		if got == nil {
			t.Fatalf("tolerance %d: nothing captured", tt.tolerance)
		}
		if got.Frame != tt.wantFrame {
			t.Errorf("tolerance %d: Frame = %q, want %q", tt.tolerance, got.Frame, tt.wantFrame)
		}
	}
}

func TestCapturerDebounce(t *testing.T) {
	c, _, clock := newTestCapturer(t, Options{Threshold: 2}, nil)
	code := coolHigh72Pronto()

	c.Process(code)
	clock.advance(50 * time.Millisecond)
	if got, _ := c.Process(code); got != nil {
		t.Fatal("repeat inside debounce window was counted")
	}
	if n := c.Count(Normalize(code)); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}

	clock.advance(DefaultDebounce)
	if got, _ := c.Process(code); got == nil {
		t.Error("repeat after debounce window not counted")
	}
}

func TestCapturerRingBuffer(t *testing.T) {
	c, _, clock := newTestCapturer(t, Options{Threshold: 3, BufferSize: 3}, nil)
	a := codes.VendorPronto(coolHigh72)
	b := codes.VendorPronto(protocol.Frame{0x19, 0x80, 0x12, 0x00, 0x4F, 0, 0, 0, 0xE1})

	for _, code := range []string{a, a, b, b} {
		if got, _ := c.Process(code); got != nil {
			t.Fatalf("early capture %q", got.ButtonName)
		}
		clock.advance(time.Second)
	}
	if c.Buffered() != 3 {
		t.Fatalf("Buffered() = %d, want 3", c.Buffered())
	}
	if n := c.Count(a); n != 1 {
		t.Fatalf("Count(a) = %d, want 1 after first eviction", n)
	}

	got, _ := c.Process(b)
	if got == nil || got.ButtonName != "DRY LOW" {
		t.Fatalf("Process(b) = %v, want DRY LOW capture", got)
	}
	if n := c.Count(a); n != 0 {
		t.Errorf("Count(a) = %d, want 0", n)
	}
	if c.Buffered() != 3 {
		t.Errorf("Buffered() = %d, want 3", c.Buffered())
	}
}

func TestCapturerNamer(t *testing.T) {
	var suggested string
	namer := func(c Capture, s string) string {
		suggested = s
		return "Bedroom cool"
	}
	c, store, clock := newTestCapturer(t, Options{Threshold: 2}, namer)

	c.Process(coolHigh72Pronto())
	clock.advance(time.Second)
	got, _ := c.Process(coolHigh72Pronto())

	if suggested != "COOL 72F HIGH" {
		t.Errorf("suggested = %q", suggested)
	}
	if got == nil || got.ButtonName != "Bedroom cool" {
		t.Errorf("capture = %v", got)
	}
	if store.Captures()[0].ButtonName != "Bedroom cool" {
		t.Errorf("stored name = %q", store.Captures()[0].ButtonName)
	}
}

func TestCapturerForeignCode(t *testing.T) {
	c, _, clock := newTestCapturer(t, Options{Threshold: 2}, nil)
	foreign := "0000 006D 0002 0000 0153 00AE 0013 0181"

	c.Process(foreign)
	clock.advance(time.Second)
	got, err := c.Process(foreign)
	if err != nil || got == nil {
		t.Fatalf("Process() = %v, %v", got, err)
	}
	if got.ButtonName != "button_1" || got.State != nil || got.Frame != "" {
		t.Errorf("capture = %+v, want unnamed raw capture", got)
	}
}

func TestCapturerSkipsStoredCodes(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "captures.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Add(Capture{ButtonName: "known", ProntoData: coolHigh72Pronto()}); err != nil {
		t.Fatal(err)
	}

	c := NewCapturer(store, Options{Threshold: 1}, nil)
	if got, _ := c.Process(coolHigh72Pronto()); got != nil {
		t.Error("stored code captured again")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "captures.yaml")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("new store has %d captures", store.Len())
	}

	state := protocol.State{Power: true, Mode: protocol.ModeCool, FanSpeed: protocol.FanHigh, Preset: protocol.PresetNone, TargetTemperature: 22}
	in := Capture{
		Timestamp:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		ButtonName:   "COOL 72F HIGH",
		ProntoData:   coolHigh72Pronto(),
		MatchesFound: 10,
		Frame:        coolHigh72.String(),
		State:        &state,
	}
	if err := store.Add(in); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	got := reopened.Captures()
	if len(got) != 1 {
		t.Fatalf("reopened store has %d captures", len(got))
	}
	if got[0].ButtonName != in.ButtonName || got[0].ProntoData != in.ProntoData || !got[0].Timestamp.Equal(in.Timestamp) {
		t.Errorf("capture = %+v, want %+v", got[0], in)
	}
	if got[0].State == nil || *got[0].State != state {
		t.Errorf("state = %v, want %v", got[0].State, state)
	}
}

func TestOpenStoreInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captures.yaml")
	if err := os.WriteFile(path, []byte("captures: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenStore(path); err == nil {
		t.Error("OpenStore() error = nil for broken YAML")
	}
}

func TestESPHomeID(t *testing.T) {
	tests := map[string]string{
		"COOL 72F HIGH": "cool_72f_high",
		"Power-Off!":    "power_off_",
		"72 degrees":    "btn_72_degrees",
		"":              "btn_",
	}
	for in, want := range tests {
		if got := ESPHomeID(in); got != want {
			t.Errorf("ESPHomeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportESPHome(t *testing.T) {
	captures := []Capture{
		{ButtonName: "COOL 72F HIGH", ProntoData: "0000 006D"},
		{ButtonName: "cool 72f high", ProntoData: "0000 006E"},
	}

	var buf bytes.Buffer
	if err := ExportESPHome(&buf, captures, ""); err != nil {
		t.Fatalf("ExportESPHome() error = %v", err)
	}

	var cfg esphomeConfig
	if err := yaml.Unmarshal(buf.Bytes(), &cfg); err != nil {
		t.Fatalf("export is not YAML: %v\n%s", err, buf.String())
	}
	if cfg.RemoteTransmitter.Pin != DefaultTransmitterPin {
		t.Errorf("pin = %q", cfg.RemoteTransmitter.Pin)
	}
	if len(cfg.Button) != 2 {
		t.Fatalf("got %d buttons, want 2", len(cfg.Button))
	}
	if cfg.Button[0].ID != "cool_72f_high" || cfg.Button[1].ID != "cool_72f_high_2" {
		t.Errorf("ids = %q, %q", cfg.Button[0].ID, cfg.Button[1].ID)
	}
	if cfg.Button[0].Platform != "template" {
		t.Errorf("platform = %q", cfg.Button[0].Platform)
	}
	if got := cfg.Button[1].OnPress[0].TransmitPronto.Data; got != "0000 006E" {
		t.Errorf("data = %q", got)
	}
	if !strings.Contains(buf.String(), "remote_transmitter.transmit_pronto:") {
		t.Error("export lacks the transmit_pronto action")
	}
}

func logLines(code string, presses int) string {
	var b strings.Builder
	for i := 0; i < presses; i++ {
		fmt.Fprintf(&b, "[12:00:%02d][I][remote.pronto:231]: Received Pronto: data=\n", i)
		for _, part := range chunks(code, 38) {
			fmt.Fprintf(&b, "[12:00:%02d][I][remote.pronto:233]: %s\n", i, part)
		}
		fmt.Fprintf(&b, "[12:00:%02d][D][api:102]: heartbeat\n", i)
	}
	return b.String()
}

func TestRunFromReader(t *testing.T) {
	c, store, clock := newTestCapturer(t, Options{Threshold: 3}, nil)
	c.now = func() time.Time {
		clock.advance(time.Second)
		return clock.t
	}

	var seen int
	var captured []Capture
	err := Run(context.Background(), NewReaderSource(strings.NewReader(logLines(coolHigh72Pronto(), 3))), c, Events{
		OnCode:    func(string, int, int) { seen++ },
		OnCapture: func(cp Capture) { captured = append(captured, cp) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if seen != 3 {
		t.Errorf("OnCode called %d times, want 3", seen)
	}
	if len(captured) != 1 || store.Len() != 1 {
		t.Errorf("captured %d, stored %d, want 1 each", len(captured), store.Len())
	}
}

func TestRunCancelled(t *testing.T) {
	c, _, _ := newTestCapturer(t, Options{}, nil)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, NewReaderSource(pr), c, Events{}) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWebSocketSource(t *testing.T) {
	code := coolHigh72Pronto()
	upgrader := websocket.Upgrader{}
	hello := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, _ := conn.ReadMessage()
		hello <- string(msg)

		send := func(v string) { _ = conn.WriteMessage(websocket.TextMessage, []byte(v)) }
		send(`{"event":"line","data":"[I][remote.pronto:233]: ` + code + `"}`)
		send(`{"event":"ping"}`)
		send("[D][api:102]: plain text line\n[D][api:102]: second line")
		send(`{"event":"exit","code":0}`)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	src, err := DialWebSocket(context.Background(), url, `{"type":"spawn","configuration":"ir.yaml","port":"OTA"}`)
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer src.Close()

	var lines []string
	for {
		line, err := src.Next()
		if err != nil {
			break
		}
		lines = append(lines, line)
	}

	if got := <-hello; !strings.Contains(got, "spawn") {
		t.Errorf("hello = %q", got)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), lines)
	}
	var p LogParser
	if got, ok := p.Feed(lines[0]); !ok || got != code {
		t.Errorf("first line did not parse to the code")
	}
	if lines[2] != "[D][api:102]: second line" {
		t.Errorf("lines[2] = %q", lines[2])
	}
}
