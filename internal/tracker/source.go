package tracker

// Source delivers landmark frame sets from a hand-tracking service. The
// service is expected to filter out detections below its own confidence
// threshold; frames that do arrive still carry their score so consumers can
// apply a stricter gate.
type Source interface {
	// Frames returns the channel frame sets are delivered on. The channel
	// is closed when the source shuts down.
	Frames() <-chan FrameSet

	// Close stops delivery and releases the underlying connection.
	Close() error
}

// Config holds connection options for a tracking source.
type Config struct {
	// URL is the WebSocket endpoint of the tracking service.
	URL string

	// MinConfidence drops hands scored below this value (0.0-1.0).
	MinConfidence float64

	// Buffer is the frame channel depth; a slow consumer loses the oldest
	// frames rather than stalling the reader.
	Buffer int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		URL:           "ws://127.0.0.1:8787/landmarks",
		MinConfidence: 0.7,
		Buffer:        8,
	}
}
