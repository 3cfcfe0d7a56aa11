// Package midiout forwards note events to a MIDI output port so the
// performance can drive an external DAW or hardware synth alongside the
// built-in audio engine.
package midiout

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"

	"github.com/ayusman/bowstring/internal/music"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("midiout: closed")

const reconnectCoalesce = 500 * time.Millisecond

// Config selects and shapes the output port.
type Config struct {
	PortName string // substring match against available ports; virtual port name otherwise
	Channel  uint8  // 0-15
	Velocity uint8  // default when the event carries none
	Program  uint8  // General MIDI program sent once per connection
}

// DefaultConfig returns a virtual violin port on channel 0.
func DefaultConfig() Config {
	return Config{PortName: "Bowstring", Channel: 0, Velocity: 100, Program: 40}
}

// Out is a music.Sink that writes note events to a MIDI port. When the
// port is unavailable events are dropped and counted rather than blocking
// the gesture path; reconnection attempts are coalesced so a burst of
// events triggers at most one scan.
type Out struct {
	cfg Config
	log *zap.Logger

	mu        sync.Mutex
	drv       *rtmididrv.Driver
	port      drivers.Out
	send      func(midi.Message) error
	active    int // sounding note, -1 when silent
	closed    bool
	dropped   uint64
	reconnect func(func())
}

// Open initialises the rtmidi driver and connects to the configured port.
// A matching hardware port is preferred; otherwise a virtual port with the
// configured name is created so a DAW can attach to it.
func Open(cfg Config, log *zap.Logger) (*Out, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}

	o := &Out{
		cfg:       cfg,
		log:       log,
		drv:       drv,
		active:    -1,
		reconnect: debounce.New(reconnectCoalesce),
	}
	if err := o.connect(); err != nil {
		// Keep the sink usable; events drop until a port appears.
		log.Warn("midi: no output port, events will be dropped",
			zap.String("port", cfg.PortName), zap.Error(err))
	}
	return o, nil
}

// Ports lists the available MIDI output ports.
func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names, nil
}

// connect opens the port and announces the instrument. Caller holds no
// lock; connect takes it.
func (o *Out) connect() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.send != nil {
		return nil
	}

	port, err := o.findPort()
	if err != nil {
		return err
	}
	if err := port.Open(); err != nil {
		return fmt.Errorf("open %q: %w", port.String(), err)
	}

	send, err := midi.SendTo(port)
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("attach sender: %w", err)
	}
	if err := send(midi.ProgramChange(o.cfg.Channel, o.cfg.Program)); err != nil {
		_ = port.Close()
		return fmt.Errorf("program change: %w", err)
	}

	o.port = port
	o.send = send
	o.log.Info("midi: connected", zap.String("port", port.String()),
		zap.Uint8("channel", o.cfg.Channel), zap.Uint8("program", o.cfg.Program))
	return nil
}

func (o *Out) findPort() (drivers.Out, error) {
	outs, err := o.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(o.cfg.PortName)) {
			return out, nil
		}
	}
	port, err := o.drv.OpenVirtualOut(o.cfg.PortName)
	if err != nil {
		return nil, fmt.Errorf("virtual port %q: %w", o.cfg.PortName, err)
	}
	return port, nil
}

// Send writes the event to the port. Implements music.Sink. A missing
// port drops the event, bumps the drop counter, and schedules a
// reconnection attempt; the gesture path never blocks on MIDI recovery.
func (o *Out) Send(ev music.NoteEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.send == nil {
		o.dropped++
		o.reconnect(func() {
			if err := o.connect(); err != nil {
				o.log.Debug("midi: reconnect failed", zap.Error(err))
			}
		})
		return nil
	}

	switch ev.Edge {
	case music.EdgeOn:
		return o.noteOn(ev)
	case music.EdgeOff:
		return o.noteOff(ev.Note)
	case music.EdgeChange:
		// MIDI has no mid-note pitch replacement at the note layer, so a
		// glide degrades to an off/on pair on the wire.
		if o.active >= 0 {
			if err := o.noteOff(o.active); err != nil {
				return err
			}
		}
		return o.noteOn(ev)
	}
	return nil
}

// caller holds o.mu
func (o *Out) noteOn(ev music.NoteEvent) error {
	if ev.Note < 0 || ev.Note > 127 {
		return nil
	}
	vel := uint8(ev.Velocity)
	if ev.Velocity <= 0 {
		vel = o.cfg.Velocity
	}
	if err := o.send(midi.NoteOn(o.cfg.Channel, uint8(ev.Note), vel)); err != nil {
		return o.sendFailed(err)
	}
	o.active = ev.Note
	return nil
}

// caller holds o.mu
func (o *Out) noteOff(note int) error {
	if note < 0 || note > 127 {
		return nil
	}
	if err := o.send(midi.NoteOff(o.cfg.Channel, uint8(note))); err != nil {
		return o.sendFailed(err)
	}
	if o.active == note {
		o.active = -1
	}
	return nil
}

// sendFailed drops the connection so the next Send schedules a reconnect.
// caller holds o.mu
func (o *Out) sendFailed(err error) error {
	o.log.Warn("midi: send failed, disconnecting", zap.Error(err))
	if o.port != nil {
		_ = o.port.Close()
	}
	o.port = nil
	o.send = nil
	o.active = -1
	return fmt.Errorf("midi send: %w", err)
}

// Dropped reports how many events were discarded while no port was
// available.
func (o *Out) Dropped() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Close silences any sounding note and releases the port and driver.
func (o *Out) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	if o.send != nil && o.active >= 0 {
		_ = o.send(midi.NoteOff(o.cfg.Channel, uint8(o.active)))
		o.active = -1
	}
	if o.port != nil {
		_ = o.port.Close()
	}
	return o.drv.Close()
}
