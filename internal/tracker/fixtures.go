package tracker

import "time"

// Fixture hands for tests. The poses are anatomically rough but satisfy the
// geometric predicates the gesture layer relies on: extended means tip above
// PIP, curled means tip below MCP, and the wrist to middle-MCP span anchors
// pinch normalization.

const (
	fixtureWristY  = 0.80
	fixtureMCPY    = 0.68
	fixturePIPY    = 0.60
	fixtureOpenY   = 0.50 // extended tip
	fixtureIdleY   = 0.64 // relaxed tip: below PIP, above MCP
	fixtureCurledY = 0.74 // curled tip: below MCP
)

// baseHand lays out a neutral hand with all fingers relaxed.
func baseHand(handedness string) HandFrame {
	h := HandFrame{
		Handedness: handedness,
		Confidence: 0.95,
		Timestamp:  time.Now(),
	}

	h.Points[Wrist] = Point3D{X: 0.50, Y: fixtureWristY}
	h.Points[MiddleMCP] = Point3D{X: 0.50, Y: fixtureMCPY}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.76}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72}
	h.Points[ThumbIP] = Point3D{X: 0.63, Y: 0.69}
	h.Points[ThumbTip] = Point3D{X: 0.66, Y: 0.66}

	xs := [4]float64{0.56, 0.50, 0.44, 0.38}
	for i := 0; i < 4; i++ {
		h.Points[fingerMCPs[i]] = Point3D{X: xs[i], Y: fixtureMCPY}
		h.Points[fingerPIPs[i]] = Point3D{X: xs[i], Y: fixturePIPY}
		h.Points[fingerTips[i]] = Point3D{X: xs[i], Y: fixtureIdleY}
	}
	// DIP joints sit between PIP and tip; only a few predicates read them.
	h.Points[IndexDIP] = Point3D{X: xs[0], Y: 0.62}
	h.Points[MiddleDIP] = Point3D{X: xs[1], Y: 0.62}
	h.Points[RingDIP] = Point3D{X: xs[2], Y: 0.62}
	h.Points[PinkyDIP] = Point3D{X: xs[3], Y: 0.62}

	return h
}

// RightHand builds a right-hand frame with the first `extended` fingers
// raised and the pinch either closed onto the index tip or held open.
func RightHand(extended int, pinchClosed bool) HandFrame {
	h := baseHand(HandRight)

	for i := 0; i < 4 && i < extended; i++ {
		p := h.Points[fingerTips[i]]
		p.Y = fixtureOpenY
		h.Points[fingerTips[i]] = p
	}

	if pinchClosed {
		tip := h.Points[IndexTip]
		h.Points[ThumbTip] = Point3D{X: tip.X + 0.004, Y: tip.Y, Z: tip.Z}
	} else {
		h.Points[ThumbTip] = Point3D{X: 0.72, Y: 0.78}
	}

	return h
}

// LeftHand builds a left-hand frame with the thumb tip at the given
// vertical position, the first `curled` fingers pressed down, and the index
// finger tilted per `tiltSign` (-1 flat, 0 natural, +1 sharp).
func LeftHand(thumbY float64, curled int, tiltSign int) HandFrame {
	h := baseHand(HandLeft)

	h.Points[ThumbTip] = Point3D{X: 0.66, Y: thumbY}

	for i := 0; i < 4 && i < curled; i++ {
		p := h.Points[fingerTips[i]]
		p.Y = fixtureCurledY
		h.Points[fingerTips[i]] = p
	}

	switch tiltSign {
	case 1:
		p := h.Points[IndexTip]
		p.Z = h.Points[IndexMCP].Z - 0.05
		h.Points[IndexTip] = p
	case -1:
		p := h.Points[IndexTip]
		p.Z = h.Points[IndexMCP].Z + 0.05
		h.Points[IndexTip] = p
	}

	return h
}
