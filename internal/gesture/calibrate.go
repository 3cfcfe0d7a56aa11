package gesture

import (
	"errors"
	"fmt"
	"sort"
)

// Zone indices for calibration sampling, ordered by position number.
const (
	ZoneLow  = 0 // first position, top of the frame
	ZoneMid  = 1 // second position
	ZoneHigh = 2 // third position
	numZones = 3
)

// ErrProfileBounds is returned for profiles whose boundaries are not
// strictly increasing within (0, 1].
var ErrProfileBounds = errors.New("profile boundaries not strictly increasing")

// Profile holds the calibrated position-zone boundaries. A thumb Y below
// LowBound reads as first position, below MidBound as second, otherwise
// third. Boundaries are strictly increasing with HighBound as the top of
// the range.
type Profile struct {
	LowBound  float64
	MidBound  float64
	HighBound float64
}

// DefaultProfile returns the even three-way split used until the first
// calibration.
func DefaultProfile() Profile {
	return Profile{LowBound: 0.33, MidBound: 0.66, HighBound: 1.0}
}

// Validate checks the strictly-increasing invariant.
func (p Profile) Validate() error {
	if !(p.LowBound > 0 && p.LowBound < p.MidBound && p.MidBound < p.HighBound && p.HighBound <= 1.0) {
		return fmt.Errorf("%w: %.3f / %.3f / %.3f", ErrProfileBounds, p.LowBound, p.MidBound, p.HighBound)
	}
	return nil
}

// Zone maps a normalized Y coordinate to a position number (1-3).
func (p Profile) Zone(y float64) int {
	switch {
	case y < p.LowBound:
		return 1
	case y < p.MidBound:
		return 2
	default:
		return 3
	}
}

// Calibrator collects thumb-Y samples per target zone and derives a
// Profile. It runs in an exclusive calibration mode; normal gesture-to-note
// flow is suspended while sampling.
type Calibrator struct {
	window  int
	samples [numZones][]float64
}

// NewCalibrator creates a Calibrator requiring `window` samples per zone.
func NewCalibrator(window int) *Calibrator {
	if window < 3 {
		window = 3
	}
	return &Calibrator{window: window}
}

// Add records one sample for a zone and reports whether that zone's window
// is full. Samples beyond the window are ignored.
func (c *Calibrator) Add(zone int, y float64) bool {
	if zone < 0 || zone >= numZones {
		return false
	}
	if len(c.samples[zone]) < c.window {
		c.samples[zone] = append(c.samples[zone], y)
	}
	return len(c.samples[zone]) >= c.window
}

// Count returns the number of samples collected for a zone.
func (c *Calibrator) Count(zone int) int {
	if zone < 0 || zone >= numZones {
		return 0
	}
	return len(c.samples[zone])
}

// Done reports whether every zone's window is full.
func (c *Calibrator) Done() bool {
	for z := 0; z < numZones; z++ {
		if len(c.samples[z]) < c.window {
			return false
		}
	}
	return true
}

// Profile computes zone boundaries from the collected samples: the median
// of each zone's window, with boundaries at the midpoints between
// consecutive medians and the top of the range closing the last zone.
func (c *Calibrator) Profile() (Profile, error) {
	var medians [numZones]float64
	for z := 0; z < numZones; z++ {
		if len(c.samples[z]) == 0 {
			return Profile{}, fmt.Errorf("zone %d has no samples", z)
		}
		medians[z] = median(c.samples[z])
	}

	p := Profile{
		LowBound:  (medians[ZoneLow] + medians[ZoneMid]) / 2,
		MidBound:  (medians[ZoneMid] + medians[ZoneHigh]) / 2,
		HighBound: 1.0,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("calibration produced %w", err)
	}
	return p, nil
}

// median returns the middle value of the samples without mutating them.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
