package synth

import "math"

// envStage is the position of a voice in its ADSR lifecycle.
type envStage int

const (
	stageAttack envStage = iota
	stageDecay
	stageSustain
	stageRelease
	stageDone
)

func (s envStage) String() string {
	switch s {
	case stageAttack:
		return "attack"
	case stageDecay:
		return "decay"
	case stageSustain:
		return "sustain"
	case stageRelease:
		return "release"
	default:
		return "done"
	}
}

// voice is one sounding note. The engine is monophonic so at most one voice
// exists; it is reused in place rather than reallocated, keeping the render
// path allocation-free.
//
// Phase accumulates for the life of the note and is never reset while the
// voice is audible; frequency changes adjust the phase increment, not the
// phase, so glides and retargets stay click-free.
type voice struct {
	freq       float64 // current (slewed) fundamental, Hz
	targetFreq float64
	phase      float64 // fundamental phase, radians
	elapsed    float64 // seconds since the note began, drives vibrato

	stage     envStage
	stageTime float64 // seconds in the current stage
	level     float64 // current envelope value, 0-1
	rampFrom  float64 // envelope value at stage entry (attack and release)
}

// start begins a new note. A voice still releasing is stolen and
// restarted: the attack ramps from the current envelope level so fast
// re-bowing produces no discontinuity.
func (v *voice) start(freq float64) {
	if v.stage == stageDone {
		// Fresh voice from silence.
		v.freq = freq
		v.phase = 0
		v.elapsed = 0
		v.level = 0
	}
	v.targetFreq = freq
	v.rampFrom = v.level
	v.stage = stageAttack
	v.stageTime = 0
}

// release moves the voice to its release ramp from wherever the envelope
// currently is. Safe to call in any stage.
func (v *voice) release() {
	if v.stage == stageDone || v.stage == stageRelease {
		return
	}
	v.rampFrom = v.level
	v.stage = stageRelease
	v.stageTime = 0
}

// retarget changes pitch without touching the envelope (glide).
func (v *voice) retarget(freq float64) {
	if v.stage == stageDone {
		v.start(freq)
		return
	}
	v.targetFreq = freq
}

// active reports whether the voice still produces signal.
func (v *voice) active() bool {
	return v.stage != stageDone
}

// envelope advances the ADSR by dt seconds and returns the new level.
func (v *voice) envelope(env Envelope, dt float64) float64 {
	v.stageTime += dt

	switch v.stage {
	case stageAttack:
		if env.Attack <= 0 || v.stageTime >= env.Attack {
			v.level = 1
			v.stage = stageDecay
			v.stageTime = 0
			break
		}
		v.level = v.rampFrom + (1-v.rampFrom)*(v.stageTime/env.Attack)

	case stageDecay:
		if env.Decay <= 0 || v.stageTime >= env.Decay {
			v.level = env.Sustain
			v.stage = stageSustain
			v.stageTime = 0
			break
		}
		v.level = 1 + (env.Sustain-1)*(v.stageTime/env.Decay)

	case stageSustain:
		v.level = env.Sustain

	case stageRelease:
		if v.stageTime >= env.Release {
			v.level = 0
			v.stage = stageDone
			break
		}
		v.level = v.rampFrom * (1 - v.stageTime/env.Release)
	}

	return v.level
}

// Envelope holds ADSR timings in seconds and the sustain level.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultEnvelope returns the bowed-string envelope.
func DefaultEnvelope() Envelope {
	return Envelope{Attack: 0.08, Decay: 0.10, Sustain: 0.8, Release: 0.15}
}

// slewCoefficient returns the per-sample smoothing factor for a one-pole
// ramp with the given time constant.
func slewCoefficient(tau float64, sampleRate int) float64 {
	if tau <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(tau*float64(sampleRate)))
}
