// Package faun is an embeddable realtime audio mixing engine: a single
// background worker that mixes fixed-size sources and decode-ahead streams
// into periodic bursts handed to a pluggable Sink, driven entirely through
// a thread-safe command/signal surface (IsPlaying is a lock-free read) so
// callers never touch engine state directly.
package faun

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/faun-audio/faun/internal/engine"
	"github.com/faun-audio/faun/internal/voice"
)

// Re-exported so callers implementing their own decoders/sinks, or wiring
// in the reference ones under decode/ and sink/, only ever import this
// package.
type (
	Decoder  = voice.Decoder
	Metadata = voice.Metadata
	Sink     = engine.Sink
	Config   = engine.Config
)

// Playback modes for PlaySource/PlayStream/PlayStreamPart.
const (
	PlayOnce = voice.PlayOnce
	PlayLoop = voice.PlayLoop
)

// Control ops for Control.
const (
	CtrlStart   = engine.CtrlStart
	CtrlStop    = engine.CtrlStop
	CtrlResume  = engine.CtrlResume
	CtrlFadeOut = engine.CtrlFadeOut
)

// Parameter kinds for SetParameter.
const (
	ParamVolume     = engine.ParamVolume
	ParamFadePeriod = engine.ParamFadePeriod
	ParamEndTime    = engine.ParamEndTime
)

// Signal kinds reported by PollSignals/WaitSignal.
const (
	SignalDone = engine.SignalDone
	SignalProg = engine.SignalProg
)

// Signal is one entry from PollSignals/WaitSignal.
type Signal = engine.Signal

// ErrAlreadyStarted is returned by Startup when called a second time in the
// same process: one Engine per process.
var ErrAlreadyStarted = errors.New("faun: already started")

var (
	once     sync.Once
	instance *engine.Engine
	startErr error
)

// Option configures Startup, using functional options since the engine is
// constructed exactly once per process instead of once per call site.
type Option func(*options)

type options struct {
	cfg    Config
	sink   Sink
	logger *log.Logger
}

// WithConfig overrides the default engine limits/mix rate/tick rate.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithSink supplies the output collaborator. Required — Startup fails
// without one.
func WithSink(s Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLogger overrides the default charmbracelet/log logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMixRate overrides just the mix rate, leaving other Config fields at
// their default.
func WithMixRate(rate int) Option {
	return func(o *options) { o.cfg.MixRate = rate }
}

// ErrNoSink is returned by Startup when no WithSink option was given.
var ErrNoSink = errors.New("faun: WithSink is required")

// Startup allocates the engine's fixed-size pools, opens the sink, and
// spawns the worker goroutine. Only the first call in a
// process does any work; subsequent calls return ErrAlreadyStarted.
func Startup(opts ...Option) error {
	o := options{cfg: engine.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		return ErrNoSink
	}

	called := false
	once.Do(func() {
		called = true
		e, err := engine.New(o.cfg, o.sink, o.logger)
		if err != nil {
			startErr = err
			return
		}
		if err := e.Start(); err != nil {
			startErr = err
			return
		}
		instance = e
	})
	if !called {
		return ErrAlreadyStarted
	}
	return startErr
}

// engineOrPanic returns the running instance. Every exported call below
// assumes Startup already succeeded.
func engineOrPanic() *engine.Engine {
	if instance == nil {
		panic("faun: Startup has not been called")
	}
	return instance
}

// Shutdown posts Quit, joins the worker, and tears down the sink.
func Shutdown() {
	if instance != nil {
		instance.Shutdown()
	}
}

// Suspend halts or resumes mixing without tearing down the worker.
func Suspend(halt bool) { engineOrPanic().Suspend(halt) }

// PollSignals drains every signal currently queued without blocking.
func PollSignals() []Signal { return engineOrPanic().PollSignals() }

// WaitSignal blocks for the next signal.
func WaitSignal() Signal { return engineOrPanic().WaitSignal() }

// Control applies a state transition to count sources/streams starting at
// si.
func Control(si, count int, op engine.ControlOp) { engineOrPanic().Control(si, count, op) }

// SetParameter assigns one per-source parameter across count sources
// starting at si.
func SetParameter(si, count int, param engine.ParamKind, value float32) {
	engineOrPanic().SetParameter(si, count, param, value)
}

// Pan fades si's current gains to (finalL, finalR) over period seconds.
func Pan(si int, finalL, finalR float32, period float64) {
	engineOrPanic().Pan(si, finalL, finalR, period)
}

// Program replaces and starts execIndex's bytecode.
func Program(execIndex int, bytecode []byte) { engineOrPanic().Program(execIndex, bytecode) }

// ProgramBeg starts a multi-message program upload for execIndex.
func ProgramBeg(execIndex int, bytecode []byte) { engineOrPanic().ProgramBeg(execIndex, bytecode) }

// ProgramMid appends an interior chunk to an in-progress program upload.
func ProgramMid(execIndex int, bytecode []byte) { engineOrPanic().ProgramMid(execIndex, bytecode) }

// ProgramEnd appends the final chunk to a program upload and starts it.
func ProgramEnd(execIndex int, bytecode []byte) { engineOrPanic().ProgramEnd(execIndex, bytecode) }

// LoadBuffer decodes dec fully on the caller thread and posts a SetBuffer
// command for bi. Returns the buffer's duration in seconds, or 0 on decode
// failure (logged, not fatal).
func LoadBuffer(bi int, dec Decoder, meta Metadata) float64 {
	return engineOrPanic().LoadBuffer(bi, dec, meta)
}

// FreeBuffers posts a BuffersFree command for count buffers starting at bi.
func FreeBuffers(bi, count int) { engineOrPanic().FreeBuffers(bi, count) }

// PlaySource mints a pid, posts Play, and returns the pid.
func PlaySource(si int, bufIDs []int, mode int, volL, volR float32, hasTarget bool) uint32 {
	return engineOrPanic().PlaySource(si, bufIDs, mode, volL, volR, hasTarget)
}

// PlayStream opens dec on si, mints a pid, and posts OpenStream.
func PlayStream(si int, dec Decoder, mode int) uint32 {
	return engineOrPanic().PlayStream(si, dec, mode)
}

// PlayStreamPart posts a PlayStreamPart command.
func PlayStreamPart(si int, start, duration float64, mode int) {
	engineOrPanic().PlayStreamPart(si, start, duration, mode)
}

// IsPlaying is a lock-free pid-table lookup.
func IsPlaying(p uint32) bool { return engineOrPanic().IsPlaying(p) }
