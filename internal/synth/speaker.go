package synth

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker connects an Engine to the default audio output device. The
// device pulls samples through the engine's Read on its own thread; the
// speaker owns the device lifecycle, the engine owns the sound.
type Speaker struct {
	engine *Engine
	ctx    *oto.Context
	player *oto.Player
}

// NewSpeaker opens the audio device and starts pulling from the engine.
// Only one context can exist per process; open the speaker once and keep
// it for the life of the session.
func NewSpeaker(engine *Engine) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   engine.cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(engine)
	player.SetBufferSize(engine.cfg.BufferFrames * 4)
	player.Play()

	return &Speaker{engine: engine, ctx: ctx, player: player}, nil
}

// Close releases any sounding note, waits for the tail to play out, and
// closes the device.
func (s *Speaker) Close() error {
	s.engine.BeginStop()
	s.engine.WaitIdle(time.Second)
	return s.player.Close()
}
