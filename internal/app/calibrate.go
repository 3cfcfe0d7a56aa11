package app

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/gesture"
	"github.com/ayusman/bowstring/internal/tracker"
)

// ErrCalibrationAborted is returned when the tracker stream ends or a zone
// times out before enough samples were collected.
var ErrCalibrationAborted = errors.New("calibration aborted")

// CalibrationOptions configures a calibration run.
type CalibrationOptions struct {
	// Window is the number of samples collected per zone.
	Window int
	// ZoneTimeout bounds how long one zone may take.
	ZoneTimeout time.Duration
	// Settle is how long frames are discarded after a prompt, giving the
	// player time to move their hand to the new zone.
	Settle time.Duration
	// Prompt is called when sampling for a zone begins.
	Prompt func(zone int)
	// TiltDeadZone matches the classifier setting used during play.
	TiltDeadZone float64
}

// RunCalibration samples the player's left hand in each position zone and
// derives a Profile from the per-zone medians. It consumes the source's
// frames until all zones are sampled.
func RunCalibration(src tracker.Source, opts CalibrationOptions, log *zap.Logger) (gesture.Profile, error) {
	if opts.Window < 3 {
		opts.Window = 30
	}
	if opts.ZoneTimeout <= 0 {
		opts.ZoneTimeout = 30 * time.Second
	}

	classifier := gesture.NewClassifier(opts.TiltDeadZone)
	cal := gesture.NewCalibrator(opts.Window)
	frames := src.Frames()

	for _, zone := range []int{gesture.ZoneLow, gesture.ZoneMid, gesture.ZoneHigh} {
		if opts.Prompt != nil {
			opts.Prompt(zone)
		}

		settleUntil := time.Now().Add(opts.Settle)
		deadline := time.NewTimer(opts.ZoneTimeout)

	sampling:
		for cal.Count(zone) < opts.Window {
			select {
			case <-deadline.C:
				deadline.Stop()
				return gesture.Profile{}, fmt.Errorf("%w: zone %d timed out with %d/%d samples",
					ErrCalibrationAborted, zone, cal.Count(zone), opts.Window)
			case set, ok := <-frames:
				if !ok {
					deadline.Stop()
					return gesture.Profile{}, fmt.Errorf("%w: tracker stream closed", ErrCalibrationAborted)
				}
				if time.Now().Before(settleUntil) {
					continue sampling
				}
				_, left := classifier.Classify(&set)
				if left == nil {
					continue sampling
				}
				cal.Add(zone, left.PositionY)
			}
		}
		deadline.Stop()

		log.Info("zone sampled", zap.Int("zone", zone), zap.Int("samples", cal.Count(zone)))
	}

	profile, err := cal.Profile()
	if err != nil {
		return gesture.Profile{}, fmt.Errorf("derive profile: %w", err)
	}

	log.Info("calibration complete",
		zap.Float64("low_bound", profile.LowBound),
		zap.Float64("mid_bound", profile.MidBound),
		zap.Float64("high_bound", profile.HighBound))
	return profile, nil
}
