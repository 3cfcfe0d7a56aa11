// Package config defines the structured configuration for bowstring and its
// validation rules. A Config value is loaded once at startup and threaded
// into each component at construction; there is no global mutable state.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps all configuration validation failures. Validation errors
// are fatal at startup; gesture processing never begins on a bad Config.
var ErrInvalid = errors.New("invalid configuration")

// Tracker holds hand-tracking input options.
type Tracker struct {
	URL           string  `yaml:"url"`
	MinConfidence float64 `yaml:"min_confidence"`
	TickHz        int     `yaml:"tick_hz"`
}

// Thresholds holds gesture decision thresholds. Dwell times are plain
// milliseconds in the file, matching the tracker service's units.
type Thresholds struct {
	PinchOn           float64 `yaml:"pinch_on"`
	PinchOff          float64 `yaml:"pinch_off"`
	TiltDeadZone      float64 `yaml:"tilt_dead_zone"`
	NoteDwellMs       int     `yaml:"note_dwell_ms"`
	PositionDwellMs   int     `yaml:"position_dwell_ms"`
	BowDwellMs        int     `yaml:"bow_dwell_ms"`
	CalibrationWindow int     `yaml:"calibration_window"`
}

// NoteDwell returns the dwell time for string, finger and pitch fields.
func (t Thresholds) NoteDwell() time.Duration {
	return time.Duration(t.NoteDwellMs) * time.Millisecond
}

// PositionDwell returns the dwell time for the position field.
func (t Thresholds) PositionDwell() time.Duration {
	return time.Duration(t.PositionDwellMs) * time.Millisecond
}

// BowDwell returns the dwell guard applied to the hysteresis-derived bowing
// value before commit.
func (t Thresholds) BowDwell() time.Duration {
	return time.Duration(t.BowDwellMs) * time.Millisecond
}

// Violin holds the pitch mapping tables.
type Violin struct {
	// Strings maps string number (1-4) to its open-string MIDI note.
	Strings map[int]int `yaml:"strings"`
	// Positions maps position (1-3) to a semitone shift.
	Positions map[int]int `yaml:"positions"`
	// Fingers maps pressed-finger count (0-4) to a semitone shift.
	Fingers map[int]int `yaml:"fingers"`
	// Policy selects mid-bow note-change behavior: "retrigger" or "glide".
	Policy string `yaml:"policy"`
}

// Synth holds audio synthesis options.
type Synth struct {
	SampleRate   int       `yaml:"sample_rate"`
	BufferFrames int       `yaml:"buffer_frames"`
	Attack       float64   `yaml:"attack"`
	Decay        float64   `yaml:"decay"`
	Sustain      float64   `yaml:"sustain"`
	Release      float64   `yaml:"release"`
	Harmonics    []float64 `yaml:"harmonics"`
	VibratoDepth float64   `yaml:"vibrato_depth"`
	VibratoRate  float64   `yaml:"vibrato_rate"`
	Gain         float64   `yaml:"gain"`
}

// MIDI holds outbound MIDI options.
type MIDI struct {
	Enabled  bool   `yaml:"enabled"`
	PortName string `yaml:"port_name"`
	Channel  uint8  `yaml:"channel"`
	Velocity uint8  `yaml:"velocity"`
	Program  uint8  `yaml:"program"`
}

// Database holds session persistence options.
type Database struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the root configuration record.
type Config struct {
	Tracker    Tracker    `yaml:"tracker"`
	Thresholds Thresholds `yaml:"thresholds"`
	Violin     Violin     `yaml:"violin"`
	Synth      Synth      `yaml:"synth"`
	MIDI       MIDI       `yaml:"midi"`
	Database   Database   `yaml:"database"`
}

// Default returns the built-in configuration, matching a standard violin
// tuning and a bowed-string envelope.
func Default() Config {
	return Config{
		Tracker: Tracker{
			URL:           "ws://127.0.0.1:8787/landmarks",
			MinConfidence: 0.7,
			TickHz:        30,
		},
		Thresholds: Thresholds{
			PinchOn:           0.05,
			PinchOff:          0.08,
			TiltDeadZone:      0.02,
			NoteDwellMs:       150,
			PositionDwellMs:   200,
			BowDwellMs:        50,
			CalibrationWindow: 30,
		},
		Violin: Violin{
			Strings:   map[int]int{1: 76, 2: 69, 3: 62, 4: 55}, // E A D G
			Positions: map[int]int{1: 0, 2: 2, 3: 4},
			Fingers:   map[int]int{0: 0, 1: 2, 2: 4, 3: 6, 4: 8},
			Policy:    "retrigger",
		},
		Synth: Synth{
			SampleRate:   44100,
			BufferFrames: 1024,
			Attack:       0.08,
			Decay:        0.10,
			Sustain:      0.8,
			Release:      0.15,
			Harmonics:    []float64{1.0, 0.6, 0.4, 0.25, 0.15},
			VibratoDepth: 0.003,
			VibratoRate:  5.5,
			Gain:         0.4,
		},
		MIDI: MIDI{
			Enabled:  false,
			PortName: "Bowstring",
			Channel:  0,
			Velocity: 100,
			Program:  40, // violin in General MIDI
		},
		Database: Database{
			Enabled: true,
			Path:    "", // resolved to the data dir by the CLI when empty
		},
	}
}

// Load reads a YAML file over the defaults. A missing path is not an error;
// the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every invariant the pipeline depends on. Any failure is
// fatal at startup.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	if c.Tracker.MinConfidence < 0 || c.Tracker.MinConfidence > 1 {
		return fail("tracker.min_confidence %v outside [0,1]", c.Tracker.MinConfidence)
	}
	if c.Tracker.TickHz <= 0 {
		return fail("tracker.tick_hz must be positive")
	}

	t := c.Thresholds
	if t.PinchOn <= 0 || t.PinchOn > 1 {
		return fail("thresholds.pinch_on %v outside (0,1]", t.PinchOn)
	}
	if t.PinchOff <= t.PinchOn {
		return fail("thresholds.pinch_off %v must exceed pinch_on %v", t.PinchOff, t.PinchOn)
	}
	if t.NoteDwellMs <= 0 || t.PositionDwellMs <= 0 || t.BowDwellMs <= 0 {
		return fail("dwell times must be positive")
	}
	if t.CalibrationWindow < 3 {
		return fail("thresholds.calibration_window %d too small", t.CalibrationWindow)
	}

	for s := 1; s <= 4; s++ {
		note, ok := c.Violin.Strings[s]
		if !ok {
			return fail("violin.strings missing string %d", s)
		}
		if note < 0 || note > 127 {
			return fail("violin.strings[%d] = %d outside MIDI range", s, note)
		}
	}
	for p := 1; p <= 3; p++ {
		if _, ok := c.Violin.Positions[p]; !ok {
			return fail("violin.positions missing position %d", p)
		}
	}
	for f := 0; f <= 4; f++ {
		if _, ok := c.Violin.Fingers[f]; !ok {
			return fail("violin.fingers missing count %d", f)
		}
	}
	if c.Violin.Policy != "retrigger" && c.Violin.Policy != "glide" {
		return fail("violin.policy %q must be retrigger or glide", c.Violin.Policy)
	}

	s := c.Synth
	if s.SampleRate < 8000 {
		return fail("synth.sample_rate %d too low", s.SampleRate)
	}
	if s.BufferFrames <= 0 {
		return fail("synth.buffer_frames must be positive")
	}
	if s.Attack < 0 || s.Decay < 0 || s.Release <= 0 {
		return fail("synth envelope durations invalid")
	}
	if s.Sustain < 0 || s.Sustain > 1 {
		return fail("synth.sustain %v outside [0,1]", s.Sustain)
	}
	if len(s.Harmonics) == 0 {
		return fail("synth.harmonics must not be empty")
	}
	if s.Gain <= 0 || s.Gain > 1 {
		return fail("synth.gain %v outside (0,1]", s.Gain)
	}

	if c.MIDI.Channel > 15 {
		return fail("midi.channel %d outside 0-15", c.MIDI.Channel)
	}
	if c.MIDI.Velocity > 127 || c.MIDI.Program > 127 {
		return fail("midi velocity/program outside 0-127")
	}

	return nil
}
