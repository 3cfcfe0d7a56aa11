package tracker

import "sync"

// MockSource is a test implementation of Source. Frames are either pushed
// one at a time or played back from a pre-loaded script.
type MockSource struct {
	frames chan FrameSet
	once   sync.Once
}

// NewMockSource creates a MockSource with room for `buffer` pending frames.
func NewMockSource(buffer int) *MockSource {
	if buffer <= 0 {
		buffer = 64
	}
	return &MockSource{frames: make(chan FrameSet, buffer)}
}

// Push delivers a single frame set to the consumer.
func (m *MockSource) Push(set FrameSet) {
	m.frames <- set
}

// PushHands wraps the given hands in a FrameSet and delivers it.
func (m *MockSource) PushHands(hands ...HandFrame) {
	set := FrameSet{Hands: hands}
	if len(hands) > 0 {
		set.Timestamp = hands[0].Timestamp
	}
	m.frames <- set
}

// Frames returns the channel frame sets are delivered on.
func (m *MockSource) Frames() <-chan FrameSet {
	return m.frames
}

// Close closes the frame channel, ending consumer loops.
func (m *MockSource) Close() error {
	m.once.Do(func() { close(m.frames) })
	return nil
}
