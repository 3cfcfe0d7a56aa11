// Package music defines note events, the mapping from stabilized gesture
// state to MIDI notes, and the sink boundary outbound events flow through.
package music

import (
	"fmt"
	"math"
	"time"
)

// Edge is the transition a NoteEvent carries.
type Edge int

const (
	// EdgeOn starts a note.
	EdgeOn Edge = iota
	// EdgeOff ends a note.
	EdgeOff
	// EdgeChange replaces the sounding note with a new pitch without a
	// separate off/on pair; only emitted under the glide policy.
	EdgeChange
)

// String returns a short label for logs.
func (e Edge) String() string {
	switch e {
	case EdgeOn:
		return "on"
	case EdgeOff:
		return "off"
	case EdgeChange:
		return "change"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// NoteEvent is one discrete musical transition. Events are immutable and
// produced once per debounced gesture transition.
type NoteEvent struct {
	Note      int // MIDI note number, 0-127
	Velocity  int // 0-127
	Edge      Edge
	Timestamp time.Time

	// Gesture context for performance logging.
	String      int // 1-4
	Position    int // 1-3
	FingerCount int // 0-4
	PitchOffset int // -1, 0, +1
}

// Sink receives note events. Implementations must be safe to call from the
// gesture path; they may block briefly (I/O) but never depend on the audio
// render thread.
type Sink interface {
	Send(ev NoteEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev NoteEvent) error

// Send calls f.
func (f SinkFunc) Send(ev NoteEvent) error { return f(ev) }

// Fanout forwards each event to every sink, collecting the first error but
// always delivering to all of them.
type Fanout []Sink

// Send delivers ev to every sink in order.
func (f Fanout) Send(ev NoteEvent) error {
	var first error
	for _, s := range f {
		if err := s.Send(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI note number as a pitch name with octave, e.g.
// 69 -> "A4".
func NoteName(note int) string {
	if note < 0 || note > 127 {
		return fmt.Sprintf("?%d", note)
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

// StringName renders a string number (1-4) as its violin letter.
func StringName(s int) string {
	switch s {
	case 1:
		return "E"
	case 2:
		return "A"
	case 3:
		return "D"
	case 4:
		return "G"
	default:
		return "?"
	}
}

// Frequency converts a MIDI note number to its equal-temperament frequency
// in Hz, with A4 (note 69) at 440Hz.
func Frequency(note int) float64 {
	return 440.0 * math.Exp2((float64(note)-69.0)/12.0)
}
