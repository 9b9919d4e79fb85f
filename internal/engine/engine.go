// Package engine implements the single realtime worker that owns every
// piece of mutable state — buffers, sources, streams, programs — and
// drives the mix tick. Its Start/Stop/run shape is restructured around
// MsgPort.popTimed instead of a blocking device read.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/faun-audio/faun/internal/mixer"
	"github.com/faun-audio/faun/internal/msgport"
	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/pid"
	"github.com/faun-audio/faun/internal/program"
	"github.com/faun-audio/faun/internal/voice"
)

const (
	cmdPortCapacity = 64
	sigPortCapacity = 64
)

// Engine is the process-wide realtime audio worker. Exactly one is
// expected per process; the façade package enforces that with sync.Once.
type Engine struct {
	cfg Config
	log *log.Logger

	buffers []*pcmbuf.Buffer
	sources []*voice.Source
	streams []*voice.Stream
	progs   []*program.Program
	progSel []int // currently-selected source index per execution unit

	pids  *pid.Table
	mix   *mixer.Mixer
	sink  Sink
	mixed []float32 // reused voice mix buffer, length mixSampleLen*2

	mixSampleLen int

	cmdPort *msgport.Port[Command]
	sigPort *msgport.Port[Signal]

	running   atomic.Bool
	suspended atomic.Bool

	stopCh chan struct{}
	wg     sync.WaitGroup

	serialMu sync.Mutex
	nextSerial uint32
}

// ErrShutdown is the error value for an engine that is not running. No
// Engine method returns it.
var ErrShutdown = errors.New("engine: not running")

// New allocates an Engine's fixed-size pools and opens the sink, but does
// not yet start the worker goroutine ("Allocate arrays, open sink, spawn
// worker").
func New(cfg Config, sink Sink, logger *log.Logger) (*Engine, error) {
	cfg.Validate()
	if logger == nil {
		logger = log.Default()
	}

	burst, err := sink.AllocVoice(cfg.MixRate, cfg.UpdateHz)
	if err != nil {
		return nil, err
	}
	if burst <= 0 {
		burst = cfg.MixRate / cfg.UpdateHz
	}

	e := &Engine{
		cfg:          cfg,
		log:          logger,
		buffers:      make([]*pcmbuf.Buffer, cfg.BufferLimit),
		sources:      make([]*voice.Source, cfg.SourceLimit),
		streams:      make([]*voice.Stream, cfg.StreamLimit),
		progs:        make([]*program.Program, cfg.ProgLimit),
		progSel:      make([]int, cfg.ProgLimit),
		pids:         pid.NewTable(cfg.SourceLimit + cfg.StreamLimit),
		mix:          mixer.New(cfg.MixRate),
		sink:         sink,
		mixed:        make([]float32, burst*2),
		mixSampleLen: burst,
		cmdPort:      msgport.New[Command](cmdPortCapacity),
		sigPort:      msgport.New[Signal](sigPortCapacity),
		stopCh:       make(chan struct{}),
		nextSerial:   1,
	}
	for i := range e.sources {
		e.sources[i] = voice.NewSource(cfg.MixRate)
	}
	for i := range e.streams {
		e.streams[i] = voice.NewStream(cfg.MixRate)
	}
	for i := range e.progs {
		e.progs[i] = &program.Program{}
	}
	return e, nil
}

// Start spawns the worker goroutine.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := e.sink.StartVoice(); err != nil {
		e.running.Store(false)
		return err
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run()
	}()
	return nil
}

// Shutdown posts Quit, joins the worker, and tears down the sink in
// stop-before-close order so no goroutine touches the sink after it
// closes.
func (e *Engine) Shutdown() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	e.cmdPort.Push(Command{Kind: CmdQuit})
	e.wg.Wait()

	_ = e.sink.StopVoice()
	_ = e.sink.FreeVoice()
	_ = e.sink.Close()
	close(e.stopCh)
}

// mintSerial returns the next monotonic 24-bit serial, wrapping
// 0xFFFFFF -> 1.
func (e *Engine) mintSerial() uint32 {
	e.serialMu.Lock()
	defer e.serialMu.Unlock()
	s := e.nextSerial
	e.nextSerial++
	if e.nextSerial > 0xFFFFFF {
		e.nextSerial = 1
	}
	return s
}

// run is the worker loop: a plain for loop that exits on a Quit command or
// a closed command port, with blocking I/O (popTimed, then sink.Write)
// providing pacing.
func (e *Engine) run() {
	period := time.Second/time.Duration(e.cfg.UpdateHz) - 2*time.Millisecond
	if period <= 0 {
		period = time.Millisecond
	}
	deadline := time.Now().Add(period)

	for {
		msg, status := e.cmdPort.PopTimed(deadline)
		switch status {
		case msgport.Got:
			if msg.Kind == CmdQuit {
				return
			}
			e.dispatch(msg)
			continue
		case msgport.Closed:
			return
		}

		// Timeout: one mix tick.
		if !e.suspended.Load() {
			e.tick()
		}
		deadline = time.Now().Add(period)
	}
}

func (e *Engine) tick() {
	clock := e.mix.TotalMixed
	m := &progMachine{eng: e}
	for i, p := range e.progs {
		if p.Running {
			m.exec = i
			program.Eval(p, clock, m, e.log.Warnf)
		}
	}

	active := e.mix.SelectActive(e.sources, e.streams, len(e.sources))
	cb := mixer.Callbacks{
		ClearPid: func(sourceIndex int, packedPid uint32) { e.pids.ClearIfMatches(sourceIndex, packedPid) },
		Signal: func(sourceIndex int) {
			e.postSignal(SignalDone, sourceIndex, pid.Pack(e.sourceAt(sourceIndex).SerialNo, sourceIndex))
		},
	}
	e.mix.Tick(active, e.mixed, e.mixSampleLen, cb)

	if err := e.sink.Write(e.mixed, e.mixSampleLen); err != nil {
		e.log.Error("sink write failed", "err", err)
	}
}

func (e *Engine) postSignal(kind SignalKind, sourceIndex int, p uint32) {
	e.sigPort.Push(Signal{Kind: kind, SourceIndex: sourceIndex, Pid: p})
}

// sourceAt resolves a global source index into the pure source pool or
// the stream pool's embedded Source, or nil if si is out of range (an
// invalid index drops the command).
func (e *Engine) sourceAt(si int) *voice.Source {
	if si < 0 {
		return nil
	}
	if si < len(e.sources) {
		return e.sources[si]
	}
	si -= len(e.sources)
	if si < len(e.streams) {
		return e.streams[si].Source
	}
	return nil
}

func (e *Engine) streamAt(si int) *voice.Stream {
	si -= len(e.sources)
	if si < 0 || si >= len(e.streams) {
		return nil
	}
	return e.streams[si]
}

func (e *Engine) bufferAt(bi int) *pcmbuf.Buffer {
	if bi < 0 || bi >= len(e.buffers) {
		return nil
	}
	return e.buffers[bi]
}
