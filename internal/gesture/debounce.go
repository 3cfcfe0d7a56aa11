package gesture

import "time"

// State is the stabilized, low-flicker view of both hands. Each field is
// debounced independently; a field only moves after its raw value has held
// steady for that field's dwell time.
type State struct {
	String      int  // selected string, 1-4
	Bowing      bool // pinch-driven note gate
	Position    int  // 1-3
	FingerCount int  // 0-4
	PitchOffset int  // -1, 0, +1
}

// StabilizerConfig holds the dwell times and hysteresis band.
type StabilizerConfig struct {
	// PinchOn closes the bow gate when pinch distance drops below it.
	PinchOn float64
	// PinchOff reopens the gate once distance rises above it. Must exceed
	// PinchOn; the band between the two is the hysteresis zone.
	PinchOff float64

	NoteDwell     time.Duration // string, fingers, pitch offset
	PositionDwell time.Duration
	BowDwell      time.Duration // guard on the hysteresis output

	// Profile maps raw position Y to a zone.
	Profile Profile
}

// DefaultStabilizerConfig returns the standard thresholds.
func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		PinchOn:       0.05,
		PinchOff:      0.08,
		NoteDwell:     150 * time.Millisecond,
		PositionDwell: 200 * time.Millisecond,
		BowDwell:      50 * time.Millisecond,
		Profile:       DefaultProfile(),
	}
}

// dwellField debounces one discrete value. A new raw value restarts the
// window; it commits only after holding for the full dwell. A single
// outlier therefore restarts the clock — latency traded for jitter
// immunity, no averaging or voting.
type dwellField struct {
	dwell     time.Duration
	candidate int
	since     time.Time
	committed int
	primed    bool
}

func newDwellField(initial int, dwell time.Duration) dwellField {
	return dwellField{dwell: dwell, candidate: initial, committed: initial}
}

// observe feeds one raw value and reports whether the committed value
// changed.
func (f *dwellField) observe(v int, now time.Time) bool {
	if !f.primed || v != f.candidate {
		f.candidate = v
		f.since = now
		f.primed = true
		return false
	}

	if now.Sub(f.since) < f.dwell {
		return false
	}
	if f.committed == v {
		return false
	}
	f.committed = v
	return true
}

// Stabilizer folds raw observations into a State. Fields debounce
// independently and asynchronously; ticks with a missing hand leave that
// hand's fields untouched.
type Stabilizer struct {
	cfg StabilizerConfig

	str     dwellField
	pos     dwellField
	fingers dwellField
	offset  dwellField
	bow     dwellField

	pinchClosed bool // raw hysteresis output, pre-dwell

	state State
}

// NewStabilizer creates a Stabilizer starting on string 1, first position,
// bow open.
func NewStabilizer(cfg StabilizerConfig) *Stabilizer {
	return &Stabilizer{
		cfg:     cfg,
		str:     newDwellField(1, cfg.NoteDwell),
		pos:     newDwellField(1, cfg.PositionDwell),
		fingers: newDwellField(0, cfg.NoteDwell),
		offset:  newDwellField(0, cfg.NoteDwell),
		bow:     newDwellField(0, cfg.BowDwell),
		state:   State{String: 1, Position: 1},
	}
}

// Update feeds one tick's observations (either may be nil) and returns the
// stabilized state plus whether any field changed.
func (s *Stabilizer) Update(right, left *Observation, now time.Time) (State, bool) {
	changed := false

	if right != nil {
		if right.StringCandidate >= 1 && right.StringCandidate <= 4 {
			changed = s.str.observe(right.StringCandidate, now) || changed
		}

		// Hysteresis first, then the dwell guard on its output.
		if right.PinchDistance < s.cfg.PinchOn {
			s.pinchClosed = true
		} else if right.PinchDistance > s.cfg.PinchOff {
			s.pinchClosed = false
		}
		changed = s.bow.observe(boolToInt(s.pinchClosed), now) || changed
	}

	if left != nil {
		changed = s.pos.observe(s.cfg.Profile.Zone(left.PositionY), now) || changed
		changed = s.fingers.observe(left.FingerCount, now) || changed
		changed = s.offset.observe(left.OrientationSign, now) || changed
	}

	s.state = State{
		String:      s.str.committed,
		Bowing:      s.bow.committed == 1,
		Position:    s.pos.committed,
		FingerCount: s.fingers.committed,
		PitchOffset: s.offset.committed,
	}
	return s.state, changed
}

// State returns the last stabilized state.
func (s *Stabilizer) State() State {
	return s.state
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
