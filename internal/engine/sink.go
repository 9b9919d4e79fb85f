package engine

// Sink is the pluggable, worker-thread-only output collaborator. A
// process opens at most one.
type Sink interface {
	// AllocVoice tells the sink the mix rate and tick rate it must service;
	// the sink reports back the frame count it expects per Write call.
	AllocVoice(mixRate, updateHz int) (burstFrames int, err error)
	// Write blocks until frameCount interleaved stereo frames of frames
	// have been consumed — the engine's primary pacing mechanism.
	Write(frames []float32, frameCount int) error
	StartVoice() error
	StopVoice() error
	FreeVoice() error
	Close() error
}
