package tracker

import "math"

// Finger joint index groups for the four non-thumb fingers, in
// index/middle/ring/pinky order.
var (
	fingerTips = [4]int{IndexTip, MiddleTip, RingTip, PinkyTip}
	fingerPIPs = [4]int{IndexPIP, MiddlePIP, RingPIP, PinkyPIP}
	fingerMCPs = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
)

// PinchDistance returns the thumb-tip to index-tip distance normalized by
// the hand span. Values are comparable across hand sizes and camera
// distances; a closed pinch is typically below 0.3 in span units.
func (h *HandFrame) PinchDistance() float64 {
	span := h.HandSpan()
	if span < 1e-10 {
		return math.Inf(1)
	}
	return Distance(h.Points[ThumbTip], h.Points[IndexTip]) / span
}

// ExtendedFingers counts fingers (index through pinky) whose tip sits above
// its PIP joint in image coordinates. Y grows downward, so extended means a
// lower Y value at the tip.
func (h *HandFrame) ExtendedFingers() int {
	count := 0
	for i := 0; i < 4; i++ {
		if h.Points[fingerTips[i]].Y < h.Points[fingerPIPs[i]].Y {
			count++
		}
	}
	return count
}

// CurledFingers counts fingers (index through pinky) whose tip has dropped
// below its MCP joint, the "pressed on the fingerboard" pose.
func (h *HandFrame) CurledFingers() int {
	count := 0
	for i := 0; i < 4; i++ {
		if h.Points[fingerTips[i]].Y > h.Points[fingerMCPs[i]].Y {
			count++
		}
	}
	return count
}

// ThumbY returns the normalized vertical position of the thumb tip, the
// signal the position zones are calibrated against.
func (h *HandFrame) ThumbY() float64 {
	return h.Points[ThumbTip].Y
}

// IndexTiltSign quantizes the index-finger depth tilt to {-1, 0, +1} with a
// dead zone around flat. The tip further from the camera than the MCP reads
// as a downward (flat) tilt, toward the camera as upward (sharp).
func (h *HandFrame) IndexTiltSign(deadZone float64) int {
	dz := h.Points[IndexTip].Z - h.Points[IndexMCP].Z
	switch {
	case dz > deadZone:
		return -1
	case dz < -deadZone:
		return 1
	default:
		return 0
	}
}

// JointAngle returns the interior angle in radians at vertex b formed by the
// segments b-a and b-c. Used by calibration diagnostics to sanity-check that
// a hand pose is plausible.
func JointAngle(a, b, c Point3D) float64 {
	v1 := Point3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
	v2 := Point3D{X: c.X - b.X, Y: c.Y - b.Y, Z: c.Z - b.Z}

	dot := v1.X*v2.X + v1.Y*v2.Y + v1.Z*v2.Z
	n1 := math.Sqrt(v1.X*v1.X + v1.Y*v1.Y + v1.Z*v1.Z)
	n2 := math.Sqrt(v2.X*v2.X + v2.Y*v2.Y + v2.Z*v2.Z)
	if n1 < 1e-10 || n2 < 1e-10 {
		return 0
	}

	cos := dot / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
