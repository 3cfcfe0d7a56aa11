package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/app"
	"github.com/ayusman/bowstring/internal/config"
	"github.com/ayusman/bowstring/internal/gesture"
	"github.com/ayusman/bowstring/internal/midiout"
	"github.com/ayusman/bowstring/internal/music"
	"github.com/ayusman/bowstring/internal/store"
	"github.com/ayusman/bowstring/internal/synth"
	"github.com/ayusman/bowstring/internal/tracker"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a performance session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay()
	},
}

func runPlay() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	// Persistence is optional; everything else plays without it.
	var st *store.Store
	if cfg.Database.Enabled {
		st, err = store.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
	}

	profile := loadProfile(st, log)

	engine := synth.NewEngine(engineConfig(cfg))
	speaker, err := synth.NewSpeaker(engine)
	if err != nil {
		return err
	}
	defer speaker.Close()

	sinks := []music.Sink{engine}

	var midiOut *midiout.Out
	if cfg.MIDI.Enabled {
		midiOut, err = midiout.Open(midiout.Config{
			PortName: cfg.MIDI.PortName,
			Channel:  cfg.MIDI.Channel,
			Velocity: cfg.MIDI.Velocity,
			Program:  cfg.MIDI.Program,
		}, log)
		if err != nil {
			return fmt.Errorf("open midi: %w", err)
		}
		defer midiOut.Close()
		sinks = append(sinks, midiOut)
	}

	source, err := tracker.Dial(tracker.Config{
		URL:           cfg.Tracker.URL,
		MinConfidence: cfg.Tracker.MinConfidence,
		Buffer:        cfg.Tracker.TickHz, // a second of backlog before dropping
	}, log)
	if err != nil {
		return err
	}
	defer source.Close()

	a, err := app.New(app.Config{
		App:     cfg,
		Source:  source,
		Sinks:   sinks,
		Engine:  engine,
		MIDIOut: midiOut,
		Store:   st,
		Profile: profile,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	if err := a.Start(); err != nil {
		return err
	}

	fmt.Println("Playing. Pinch with your right hand to bow; Ctrl-C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	a.Stop()
	return nil
}

// loadProfile returns the active calibration profile, or the default zones
// when none is saved.
func loadProfile(st *store.Store, log *zap.Logger) gesture.Profile {
	if st == nil {
		return gesture.DefaultProfile()
	}

	saved, err := st.Profiles().Active()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("failed to load calibration profile", zap.Error(err))
		}
		return gesture.DefaultProfile()
	}

	profile := gesture.Profile{
		LowBound:  saved.LowBound,
		MidBound:  saved.MidBound,
		HighBound: saved.HighBound,
	}
	if err := profile.Validate(); err != nil {
		log.Warn("saved calibration profile invalid, using defaults",
			zap.String("name", saved.Name), zap.Error(err))
		return gesture.DefaultProfile()
	}

	log.Info("using calibration profile", zap.String("name", saved.Name))
	return profile
}

// engineConfig translates the synth section into engine parameters. The
// glide slew constant is not user-facing; the default is kept.
func engineConfig(cfg config.Config) synth.Config {
	ec := synth.DefaultConfig()
	ec.SampleRate = cfg.Synth.SampleRate
	ec.BufferFrames = cfg.Synth.BufferFrames
	ec.Envelope = synth.Envelope{
		Attack:  cfg.Synth.Attack,
		Decay:   cfg.Synth.Decay,
		Sustain: cfg.Synth.Sustain,
		Release: cfg.Synth.Release,
	}
	ec.Harmonics = cfg.Synth.Harmonics
	ec.VibratoDepth = cfg.Synth.VibratoDepth
	ec.VibratoRate = cfg.Synth.VibratoRate
	ec.Gain = cfg.Synth.Gain
	return ec
}
