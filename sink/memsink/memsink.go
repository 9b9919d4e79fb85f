// Package memsink implements an in-memory engine.Sink that accumulates
// fixed-size frame bursts in its own buffer. It is meant for tests and offline
// rendering: Write never blocks on real device timing, so callers driving
// the engine against it should pace themselves if real-time behavior
// matters.
package memsink

import "sync"

// Sink accumulates every frame burst written to it, in order.
type Sink struct {
	mu      sync.Mutex
	frames  []float32
	burst   int
	started bool
	closed  bool
}

// New returns an idle Sink.
func New() *Sink { return &Sink{} }

// AllocVoice records the burst size the engine will write per tick.
func (s *Sink) AllocVoice(mixRate, updateHz int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.burst = mixRate / updateHz
	return s.burst, nil
}

// Write appends a copy of frames[:frameCount*2] to the capture buffer.
func (s *Sink) Write(frames []float32, frameCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.frames = append(s.frames, frames[:frameCount*2]...)
	return nil
}

// StartVoice marks the sink as actively accepting writes.
func (s *Sink) StartVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

// StopVoice marks the sink idle without discarding captured frames.
func (s *Sink) StopVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// FreeVoice discards all captured frames.
func (s *Sink) FreeVoice() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
	return nil
}

// Close marks the sink permanently done; further Write calls are no-ops.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Frames returns a copy of every stereo float32 frame captured so far.
func (s *Sink) Frames() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float32(nil), s.frames...)
}

// Len reports the number of stereo frames captured.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) / 2
}
