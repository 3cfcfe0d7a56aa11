// Package tracker defines the hand-frame data model produced by an external
// hand-tracking service, plus the geometry utilities the gesture layer is
// built on. The tracker itself (camera capture and landmark extraction) lives
// outside this process; frames arrive through a Source.
package tracker

import (
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels as reported by the tracking service.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// Point3D represents a 3D point with x, y in normalized [0,1] image
// coordinates and z as relative depth (negative toward the camera).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandFrame is one hand's labeled landmarks at a single tick. Frames are
// immutable once produced; the pipeline never mutates them.
type HandFrame struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Confidence float64               `json:"confidence"` // detection score in [0,1]
	Timestamp  time.Time             `json:"-"`
}

// FrameSet groups the hands detected in a single tick.
type FrameSet struct {
	Hands     []HandFrame
	Timestamp time.Time
}

// Hand returns the frame with the given handedness label, or nil if that
// hand was not detected this tick.
func (fs *FrameSet) Hand(handedness string) *HandFrame {
	for i := range fs.Hands {
		if fs.Hands[i].Handedness == handedness {
			return &fs.Hands[i]
		}
	}
	return nil
}

// Distance calculates the Euclidean distance between two landmark points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HandSpan returns the wrist to middle-finger-MCP distance, used as a
// per-frame scale reference so pinch measurements are invariant to how far
// the hand is from the camera.
func (h *HandFrame) HandSpan() float64 {
	return Distance(h.Points[Wrist], h.Points[MiddleMCP])
}

// Normalize returns a copy of the frame with the wrist at the origin and
// all points scaled so the wrist to middle-MCP distance is 1.0.
func (h *HandFrame) Normalize() *HandFrame {
	if h == nil {
		return nil
	}

	out := &HandFrame{
		Handedness: h.Handedness,
		Confidence: h.Confidence,
		Timestamp:  h.Timestamp,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumLandmarks; i++ {
		out.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	scale := Distance(Point3D{}, out.Points[MiddleMCP])
	if scale < 1e-10 {
		return out
	}

	for i := 0; i < NumLandmarks; i++ {
		out.Points[i].X /= scale
		out.Points[i].Y /= scale
		out.Points[i].Z /= scale
	}

	return out
}
