package tracker

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// wireFrame is the JSON payload the tracking service pushes per tick.
type wireFrame struct {
	Hands       []wireHand `json:"hands"`
	TimestampMs int64      `json:"timestamp"`
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Confidence float64   `json:"confidence"`
}

// WSSource reads landmark frames from a hand-tracking service over a
// WebSocket connection. Malformed or sub-threshold hands are dropped; when
// the frame channel is full the oldest pending frame is discarded so the
// reader never falls behind the wire.
type WSSource struct {
	conn   *websocket.Conn
	cfg    Config
	log    *zap.Logger
	frames chan FrameSet

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to the tracking service and starts the read loop.
func Dial(cfg Config, log *zap.Logger) (*WSSource, error) {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultConfig().Buffer
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial tracker %s: %w", cfg.URL, err)
	}

	s := &WSSource{
		conn:   conn,
		cfg:    cfg,
		log:    log,
		frames: make(chan FrameSet, cfg.Buffer),
		closed: make(chan struct{}),
	}
	go s.readLoop()

	log.Info("connected to hand tracker", zap.String("url", cfg.URL))
	return s, nil
}

// Frames returns the channel frame sets are delivered on.
func (s *WSSource) Frames() <-chan FrameSet {
	return s.frames
}

// Close shuts down the connection and closes the frame channel.
func (s *WSSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

func (s *WSSource) readLoop() {
	defer close(s.frames)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				// Expected during shutdown.
			default:
				s.log.Warn("tracker connection lost", zap.Error(err))
			}
			return
		}

		var wf wireFrame
		if err := json.Unmarshal(data, &wf); err != nil {
			s.log.Warn("malformed tracker frame", zap.Error(err))
			continue
		}

		set := s.convert(&wf)

		select {
		case s.frames <- set:
		default:
			// Consumer is behind: drop the oldest frame, keep the newest.
			select {
			case <-s.frames:
			default:
			}
			s.frames <- set
		}
	}
}

func (s *WSSource) convert(wf *wireFrame) FrameSet {
	ts := time.UnixMilli(wf.TimestampMs)
	if wf.TimestampMs == 0 {
		ts = time.Now()
	}

	set := FrameSet{Timestamp: ts}
	for _, wh := range wf.Hands {
		if len(wh.Points) != NumLandmarks {
			continue
		}
		if wh.Confidence < s.cfg.MinConfidence {
			continue
		}

		hf := HandFrame{
			Handedness: wh.Handedness,
			Confidence: wh.Confidence,
			Timestamp:  ts,
		}
		copy(hf.Points[:], wh.Points)
		set.Hands = append(set.Hands, hf)
	}
	return set
}
