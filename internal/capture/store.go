package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/muurk/soleus/internal/protocol"
	"gopkg.in/yaml.v3"
)

// Capture is one identified button.
type Capture struct {
	Timestamp    time.Time       `yaml:"timestamp"`
	ButtonName   string          `yaml:"button_name"`
	ProntoData   string          `yaml:"pronto_data"`
	MatchesFound int             `yaml:"matches_found"`
	Frame        string          `yaml:"frame,omitempty"` // set when the code is a valid Soleus frame
	State        *protocol.State `yaml:"state,omitempty"`
}

// captureFile is the on-disk layout
type captureFile struct {
	Captures []Capture `yaml:"captures"`
}

// Store keeps captures in a YAML file. Every Add rewrites the file.
type Store struct {
	path string

	mu       sync.Mutex
	captures []Capture
}

// OpenStore loads the store at path. A missing file is an empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read captures: %w", err)
	}

	var file captureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse captures %s: %w", path, err)
	}
	s.captures = file.Captures
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Captures returns a copy of the stored captures, oldest first.
func (s *Store) Captures() []Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Capture(nil), s.captures...)
}

// Len returns the number of captures.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.captures)
}

// Add appends a capture and saves the file. The capture is not kept when
// the file cannot be written.
func (s *Store) Add(c Capture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.captures = append(s.captures, c)
	if err := s.save(); err != nil {
		s.captures = s.captures[:len(s.captures)-1]
		return err
	}
	return nil
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(captureFile{Captures: s.captures})
	if err != nil {
		return fmt.Errorf("failed to marshal captures: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create capture directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write captures: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save captures: %w", err)
	}
	return nil
}

func defaultName(n int) string {
	return fmt.Sprintf("button_%d", n)
}

// describeState names a decoded capture after what it does, e.g.
// "COOL 72F HIGH" or "SLEEP 68F LOW". The set-point is read from the frame
// since Celsius cannot represent 62°F.
func describeState(s protocol.State, f protocol.Frame) string {
	if !s.Power {
		return "POWER OFF"
	}

	mode := strings.ToUpper(string(s.Mode))
	if s.Preset == protocol.PresetEco || s.Preset == protocol.PresetSleep {
		mode = strings.ToUpper(string(s.Preset))
	}
	fan := strings.ToUpper(string(s.FanSpeed))

	switch s.Mode {
	case protocol.ModeAuto, protocol.ModeDry, protocol.ModeFanOnly:
		return fmt.Sprintf("%s %s", mode, fan)
	}
	return fmt.Sprintf("%s %dF %s", mode, protocol.ProtocolToFahrenheit(f[protocol.PosTemp]), fan)
}
