// Package gesture turns hand landmark frames into a stabilized musical
// gesture state: string selection and bowing from the right hand, position,
// finger count and pitch offset from the left.
package gesture

import (
	"time"

	"github.com/ayusman/bowstring/internal/tracker"
)

// Observation is the raw, unfiltered reading from one hand at one tick.
// Fields not applicable to the hand's role keep their zero value.
type Observation struct {
	Handedness string

	// Right hand: bow control.
	StringCandidate int     // 1-4; 0 means no candidate this tick
	PinchDistance   float64 // thumb-index distance in hand-span units

	// Left hand: pitch control.
	PositionY       float64 // normalized thumb-tip Y
	FingerCount     int     // curled fingers, 0-4
	OrientationSign int     // -1 flat, 0 natural, +1 sharp

	Timestamp time.Time
}

// Classifier derives per-tick observations from landmark frames. It is
// stateless: every output depends only on the frame it was given.
//
// Handedness labels are taken from the tracker as-is; a mirrored camera
// that swaps them swaps the control roles too. Known limitation.
type Classifier struct {
	tiltDeadZone float64
}

// NewClassifier creates a Classifier with the given index-tilt dead zone.
func NewClassifier(tiltDeadZone float64) *Classifier {
	return &Classifier{tiltDeadZone: tiltDeadZone}
}

// Classify reads both hands out of a frame set. Either result is nil when
// that hand was not detected; callers hold their last committed state
// through such gaps.
func (c *Classifier) Classify(set *tracker.FrameSet) (right, left *Observation) {
	if h := set.Hand(tracker.HandRight); h != nil {
		right = c.classifyRight(h, set.Timestamp)
	}
	if h := set.Hand(tracker.HandLeft); h != nil {
		left = c.classifyLeft(h, set.Timestamp)
	}
	return right, left
}

func (c *Classifier) classifyRight(h *tracker.HandFrame, ts time.Time) *Observation {
	candidate := h.ExtendedFingers()
	if candidate > 4 {
		candidate = 4
	}
	// Zero extended fingers is "no selection", not string zero; the
	// stabilizer keeps the previous committed string.

	return &Observation{
		Handedness:      tracker.HandRight,
		StringCandidate: candidate,
		PinchDistance:   h.PinchDistance(),
		Timestamp:       ts,
	}
}

func (c *Classifier) classifyLeft(h *tracker.HandFrame, ts time.Time) *Observation {
	return &Observation{
		Handedness:      tracker.HandLeft,
		PositionY:       h.ThumbY(),
		FingerCount:     h.CurledFingers(),
		OrientationSign: h.IndexTiltSign(c.tiltDeadZone),
		Timestamp:       ts,
	}
}
