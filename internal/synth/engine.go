// Package synth renders note events into an audio sample stream with a
// harmonic additive synthesizer. The engine is split across two execution
// contexts: the gesture path feeds events through Send, and the audio
// device pulls rendered samples through Read on its real-time thread. The
// two meet only at a lock-free SPSC queue; the render side never blocks,
// never allocates per sample, and never returns an error. Queued events are
// applied in arrival order, spaced a few milliseconds apart through the
// buffer so an on followed immediately by an off still sounds.
package synth

import (
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/ayusman/bowstring/internal/music"
)

// ErrQueueFull is returned by Send when the event ring is saturated. The
// caller decides how to surface it; the engine never drops silently.
var ErrQueueFull = errors.New("synth: event queue full")

// Config holds the synthesis parameters.
type Config struct {
	SampleRate   int
	BufferFrames int
	Envelope     Envelope
	// Harmonics holds relative amplitudes for harmonics 1..n of the
	// fundamental. Partials above Nyquist are skipped at render time.
	Harmonics    []float64
	VibratoDepth float64 // pitch modulation depth as a fraction of f0
	VibratoRate  float64 // Hz
	Gain         float64 // master gain, 0-1
	// GlideTime is the slew constant for frequency changes, seconds.
	GlideTime float64
}

// DefaultConfig returns a violin-like voice at 44.1kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		BufferFrames: 1024,
		Envelope:     DefaultEnvelope(),
		Harmonics:    []float64{1.0, 0.6, 0.4, 0.25, 0.15},
		VibratoDepth: 0.003,
		VibratoRate:  5.5,
		Gain:         0.4,
		GlideTime:    0.005,
	}
}

// Stats is a snapshot of the engine's diagnostic counters. The render path
// only increments atomics; a non-real-time caller polls and logs them.
type Stats struct {
	DeadlineMisses uint64 // buffers rendered slower than their play time
	Underruns      uint64 // reads served while the queue rejected a push
	EventsApplied  uint64
}

// Engine is the monophonic additive synthesis engine. It implements
// music.Sink for the gesture path and io.Reader (little-endian float32
// mono) for the audio device.
type Engine struct {
	cfg       Config
	queue     *eventQueue
	voice     voice
	normalize float64 // 1 / sum of harmonic amplitudes
	slew      float64
	scratch   []float32 // Read's staging buffer, reused across calls

	sounding atomic.Bool
	stopReq  atomic.Bool

	deadlineMisses atomic.Uint64
	pushFailures   atomic.Uint64
	eventsApplied  atomic.Uint64
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg = DefaultConfig()
	}

	var sum float64
	for _, a := range cfg.Harmonics {
		sum += a
	}
	if sum <= 0 {
		sum = 1
	}

	e := &Engine{
		cfg:       cfg,
		queue:     newEventQueue(256),
		normalize: 1 / sum,
		slew:      slewCoefficient(cfg.GlideTime, cfg.SampleRate),
	}
	e.voice.stage = stageDone
	return e
}

// Send queues a note event for the render thread. Implements music.Sink.
// Called from the gesture path only (single producer).
func (e *Engine) Send(ev music.NoteEvent) error {
	if !e.queue.push(ev) {
		e.pushFailures.Add(1)
		return ErrQueueFull
	}
	return nil
}

// Sounding reports whether a voice is currently audible. Safe from any
// goroutine.
func (e *Engine) Sounding() bool {
	return e.sounding.Load() || e.queue.pending() > 0
}

// Stats returns the diagnostic counters.
func (e *Engine) Stats() Stats {
	return Stats{
		DeadlineMisses: e.deadlineMisses.Load(),
		Underruns:      e.pushFailures.Load(),
		EventsApplied:  e.eventsApplied.Load(),
	}
}

// BeginStop asks the render thread to drive any active voice through a
// full release. Pending queue events are still applied first, so a final
// off is never overtaken.
func (e *Engine) BeginStop() {
	e.stopReq.Store(true)
}

// WaitIdle blocks until the voice has fully released and the queue is
// drained, or the timeout elapses. Returns false on timeout. Must not be
// called from the render thread.
func (e *Engine) WaitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for e.Sounding() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(2 * time.Millisecond)
	}
	return true
}

// Read renders the next block of little-endian float32 mono samples.
// Implements io.Reader for the audio device; it never blocks and never
// returns an error. Any overrun is recorded and the stream continues.
func (e *Engine) Read(p []byte) (int, error) {
	started := time.Now()

	frames := len(p) / 4
	if cap(e.scratch) < frames {
		e.scratch = make([]float32, frames)
	}
	buf := e.scratch[:frames]
	e.renderSamples(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	e.sounding.Store(e.voice.active())

	// A render slower than the audio it produced means the device had to
	// cover the gap; count it for the supervisor to log.
	budget := time.Duration(float64(frames) / float64(e.cfg.SampleRate) * float64(time.Second))
	if frames > 0 && time.Since(started) > budget {
		e.deadlineMisses.Add(1)
	}

	return frames * 4, nil
}

// RenderFloat renders directly into a float32 buffer, one sample per
// element. Exposed for tests and for hosts that want raw samples.
func (e *Engine) RenderFloat(buf []float32) {
	e.renderSamples(buf)
	e.sounding.Store(e.voice.active())
}

func (e *Engine) apply(ev music.NoteEvent) {
	e.eventsApplied.Add(1)

	switch ev.Edge {
	case music.EdgeOn:
		e.voice.start(music.Frequency(ev.Note))
	case music.EdgeOff:
		e.voice.release()
	case music.EdgeChange:
		e.voice.retarget(music.Frequency(ev.Note))
	}
}

// renderSamples fills buf, interleaving queued events in arrival order. One
// event is applied per chunk of about 10ms, so consecutive edges never land
// on the same sample: an on followed immediately by an off still gets an
// audible attack before its release. Worst-case added latency stays inside
// one buffer, well under the gesture dwell times.
func (e *Engine) renderSamples(buf []float32) {
	spacing := e.cfg.SampleRate / 100
	if spacing < 1 {
		spacing = 1
	}

	for i := 0; i < len(buf); {
		if ev, ok := e.queue.pop(); ok {
			e.apply(ev)
		} else if e.stopReq.Load() {
			// Pending events are applied first so a final off is never
			// overtaken by the shutdown release.
			e.stopReq.Store(false)
			e.voice.release()
		}

		n := len(buf) - i
		if n > spacing {
			n = spacing
		}
		for j := 0; j < n; j++ {
			buf[i+j] = e.nextSample()
		}
		i += n
	}
}

// nextSample advances the voice by one sample. All state lives in the
// engine and the voice struct; nothing allocates.
func (e *Engine) nextSample() float32 {
	v := &e.voice
	if !v.active() {
		return 0
	}

	dt := 1 / float64(e.cfg.SampleRate)

	level := v.envelope(e.cfg.Envelope, dt)
	if !v.active() {
		return 0
	}

	// Smooth frequency toward its target so retargets and glides never
	// step the phase increment audibly.
	v.freq += (v.targetFreq - v.freq) * e.slew

	vibrato := 1 + e.cfg.VibratoDepth*math.Sin(2*math.Pi*e.cfg.VibratoRate*v.elapsed)
	v.phase += 2 * math.Pi * v.freq * vibrato * dt
	if v.phase > 2*math.Pi*1e6 {
		// Rewrap far from the origin to keep precision; harmonics are
		// integer multiples so subtracting full turns is exact enough.
		v.phase = math.Mod(v.phase, 2*math.Pi)
	}
	v.elapsed += dt

	nyquist := float64(e.cfg.SampleRate) / 2
	var s float64
	for n, amp := range e.cfg.Harmonics {
		h := float64(n + 1)
		if v.freq*h >= nyquist {
			break
		}
		s += amp * math.Sin(h*v.phase)
	}

	return float32(s * e.normalize * level * e.cfg.Gain)
}
