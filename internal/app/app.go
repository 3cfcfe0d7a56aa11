// Package app wires the gesture pipeline together: landmark frames in,
// stabilized gesture state, note events fanned out to the synthesizer and
// MIDI, and the session recorded to the database.
package app

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/config"
	"github.com/ayusman/bowstring/internal/gesture"
	"github.com/ayusman/bowstring/internal/midiout"
	"github.com/ayusman/bowstring/internal/music"
	"github.com/ayusman/bowstring/internal/store"
	"github.com/ayusman/bowstring/internal/synth"
	"github.com/ayusman/bowstring/internal/tracker"
)

// statsInterval is how often engine diagnostics are polled and logged.
const statsInterval = 5 * time.Second

// Config holds the assembled dependencies for the application.
type Config struct {
	App    config.Config
	Source tracker.Source
	Sinks  []music.Sink

	// Engine and MIDIOut are polled for diagnostics when present; both are
	// optional and usually also appear in Sinks.
	Engine  *synth.Engine
	MIDIOut *midiout.Out

	// Store enables session recording when non-nil.
	Store *store.Store

	// Profile holds calibrated position zones; the zero value selects the
	// default thirds.
	Profile gesture.Profile

	Logger *zap.Logger
}

// App is the performance loop: it consumes tracker frames and drives the
// configured sinks until stopped.
type App struct {
	cfg config.Config
	log *zap.Logger

	source     tracker.Source
	classifier *gesture.Classifier
	stabilizer *gesture.Stabilizer
	mapper     *music.Mapper
	sink       music.Sink

	engine  *synth.Engine
	midiOut *midiout.Out
	rec     *recorder

	mu        sync.Mutex
	observers []func(music.NoteEvent)
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// New creates an App instance with the given configuration.
func New(c Config) (*App, error) {
	policy, err := music.ParsePolicy(c.App.Violin.Policy)
	if err != nil {
		return nil, err
	}

	profile := c.Profile
	if profile == (gesture.Profile{}) {
		profile = gesture.DefaultProfile()
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("position profile: %w", err)
	}

	t := c.App.Thresholds
	stab := gesture.NewStabilizer(gesture.StabilizerConfig{
		PinchOn:       t.PinchOn,
		PinchOff:      t.PinchOff,
		NoteDwell:     t.NoteDwell(),
		PositionDwell: t.PositionDwell(),
		BowDwell:      t.BowDwell(),
		Profile:       profile,
	})

	mapper := music.NewMapper(music.MapperConfig{
		Strings:   c.App.Violin.Strings,
		Positions: c.App.Violin.Positions,
		Fingers:   c.App.Violin.Fingers,
		Velocity:  int(c.App.MIDI.Velocity),
		Policy:    policy,
	})

	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		cfg:        c.App,
		log:        log,
		source:     c.Source,
		classifier: gesture.NewClassifier(t.TiltDeadZone),
		stabilizer: stab,
		mapper:     mapper,
		sink:       music.Fanout(c.Sinks),
		engine:     c.Engine,
		midiOut:    c.MIDIOut,
	}

	if c.Store != nil {
		a.rec = newRecorder(c.Store, log)
	}

	return a, nil
}

// Subscribe registers an observer called for every emitted note event, on
// the pipeline goroutine. Register before Start.
func (a *App) Subscribe(fn func(music.NoteEvent)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, fn)
}

// Start begins the performance pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if a.rec != nil {
		if err := a.rec.begin(); err != nil {
			return fmt.Errorf("begin session: %w", err)
		}
		a.log.Info("session started", zap.String("session", a.rec.sessionID()))
	}

	a.stopCh = make(chan struct{})
	a.wg.Add(2)
	go a.run(a.stopCh)
	go a.pollStats(a.stopCh)

	a.log.Info("pipeline started",
		zap.String("policy", a.cfg.Violin.Policy),
		zap.Int("tick_hz", a.cfg.Tracker.TickHz))
	return nil
}

// Stop halts the pipeline, releases any sounding note, and closes out the
// session with its summary statistics.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.mu.Unlock()

	a.wg.Wait()

	// A note held through shutdown still gets its off.
	if a.mapper.Sounding() >= 0 {
		now := time.Now()
		for _, ev := range a.mapper.Update(false, 1, 1, 0, 0, now) {
			a.deliver(ev)
		}
	}

	if a.rec != nil {
		a.finishSession()
	}

	a.log.Info("pipeline stopped")
}

// finishSession writes the session summary and the engine diagnostics.
func (a *App) finishSession() {
	extras := map[string]float64{}
	if a.engine != nil {
		extras[store.MetricDeadlineMisses] = float64(a.engine.Stats().DeadlineMisses)
	}
	if a.midiOut != nil {
		extras[store.MetricMIDIDropped] = float64(a.midiOut.Dropped())
	}

	if err := a.rec.finish(time.Now(), extras); err != nil {
		a.log.Error("failed to close session", zap.Error(err))
	}
}

// State returns the current stabilized gesture state.
func (a *App) State() gesture.State {
	return a.stabilizer.State()
}
