package music

import (
	"fmt"
	"time"
)

// Policy selects what happens when the mapped note changes while bowing is
// already active.
type Policy int

const (
	// PolicyRetrigger ends the old note and starts the new one (default).
	PolicyRetrigger Policy = iota
	// PolicyGlide emits a single EdgeChange event; the synthesizer slides
	// to the new pitch while sinks without glide support degrade to
	// off-then-on.
	PolicyGlide
)

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "retrigger":
		return PolicyRetrigger, nil
	case "glide":
		return PolicyGlide, nil
	default:
		return PolicyRetrigger, fmt.Errorf("unknown note policy %q", s)
	}
}

// MapperConfig holds the pitch tables and event options.
type MapperConfig struct {
	// Strings maps string number (1-4) to its open-string MIDI note.
	Strings map[int]int
	// Positions maps position (1-3) to a semitone shift.
	Positions map[int]int
	// Fingers maps pressed-finger count (0-4) to a semitone shift.
	Fingers map[int]int
	// Velocity is attached to every EdgeOn event.
	Velocity int
	// Policy selects retrigger or glide for mid-bow note changes.
	Policy Policy
}

// DefaultMapperConfig returns the standard violin tables.
func DefaultMapperConfig() MapperConfig {
	return MapperConfig{
		Strings:   map[int]int{1: 76, 2: 69, 3: 62, 4: 55}, // E A D G
		Positions: map[int]int{1: 0, 2: 2, 3: 4},
		Fingers:   map[int]int{0: 0, 1: 2, 2: 4, 3: 6, 4: 8},
		Velocity:  100,
		Policy:    PolicyRetrigger,
	}
}

// Mapper converts stabilized gesture fields to note events. Map is a pure
// function; Update additionally tracks the bowing edge so each transition
// produces exactly one on and one off.
type Mapper struct {
	cfg MapperConfig

	bowing  bool
	current int // sounding MIDI note; -1 when silent
}

// NewMapper creates a Mapper with the given tables.
func NewMapper(cfg MapperConfig) *Mapper {
	if cfg.Strings == nil {
		cfg = DefaultMapperConfig()
	}
	return &Mapper{cfg: cfg, current: -1}
}

// Map computes the MIDI note for the given gesture fields:
//
//	note = base(string) + shift(position) + shift(fingers) + offset
//
// Out-of-range results are clamped to [0,127]; a table that pushes notes out
// of range is a configuration problem, not a runtime fault.
func (m *Mapper) Map(str, position, fingers, offset int) int {
	str = clamp(str, 1, 4)
	position = clamp(position, 1, 3)
	fingers = clamp(fingers, 0, 4)
	offset = clamp(offset, -1, 1)

	note := m.cfg.Strings[str] + m.cfg.Positions[position] + m.cfg.Fingers[fingers] + offset
	return clamp(note, 0, 127)
}

// Update applies one stabilized gesture snapshot and returns the note
// events it produces, in emission order. Exactly one EdgeOn fires per
// bowing false-to-true transition and one EdgeOff per true-to-false; a note
// change mid-bow follows the configured policy.
func (m *Mapper) Update(bowing bool, str, position, fingers, offset int, ts time.Time) []NoteEvent {
	note := m.Map(str, position, fingers, offset)

	ev := func(edge Edge, n int) NoteEvent {
		return NoteEvent{
			Note:        n,
			Velocity:    m.cfg.Velocity,
			Edge:        edge,
			Timestamp:   ts,
			String:      clamp(str, 1, 4),
			Position:    clamp(position, 1, 3),
			FingerCount: clamp(fingers, 0, 4),
			PitchOffset: clamp(offset, -1, 1),
		}
	}

	switch {
	case bowing && !m.bowing:
		m.bowing = true
		m.current = note
		return []NoteEvent{ev(EdgeOn, note)}

	case !bowing && m.bowing:
		m.bowing = false
		off := ev(EdgeOff, m.current)
		m.current = -1
		return []NoteEvent{off}

	case bowing && note != m.current:
		old := m.current
		m.current = note
		if m.cfg.Policy == PolicyGlide {
			return []NoteEvent{ev(EdgeChange, note)}
		}
		return []NoteEvent{ev(EdgeOff, old), ev(EdgeOn, note)}
	}

	return nil
}

// Sounding returns the currently sounding note, or -1 when silent.
func (m *Mapper) Sounding() int {
	return m.current
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
