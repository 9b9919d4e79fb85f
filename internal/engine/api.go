package engine

import (
	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/pid"
	"github.com/faun-audio/faun/internal/voice"
)

// Suspend halts or resumes mixing without tearing down the worker.
func (e *Engine) Suspend(halt bool) {
	e.cmdPort.Push(Command{Kind: CmdSuspend, Halt: halt})
}

// PollSignals drains every signal currently queued without blocking.
func (e *Engine) PollSignals() []Signal {
	var out []Signal
	for e.sigPort.Used() > 0 {
		out = append(out, e.sigPort.Pop())
	}
	return out
}

// WaitSignal blocks for the next signal.
func (e *Engine) WaitSignal() Signal {
	return e.sigPort.Pop()
}

// Control applies a state transition to count sources/streams starting at
// si.
func (e *Engine) Control(si, count int, op ControlOp) {
	e.cmdPort.Push(Command{Kind: CmdControl, SourceIndex: si, Count: count, Mode: int(op)})
}

// SetParameter assigns one per-source parameter across count sources
// starting at si.
func (e *Engine) SetParameter(si, count int, param ParamKind, value float32) {
	e.cmdPort.Push(Command{Kind: CmdSetParameter, SourceIndex: si, Count: count, Param: param, Value: value})
}

// Pan fades si's current gains to (finalL, finalR) over period seconds.
func (e *Engine) Pan(si int, finalL, finalR float32, period float64) {
	e.cmdPort.Push(Command{Kind: CmdPan, SourceIndex: si, VolL: finalL, VolR: finalR, Period: period})
}

// Program replaces and starts execIndex's bytecode; this is
// the single-message form. Large programs shipped across the caller API in
// up to three framed chunks should instead use ProgramBeg/ProgramMid/
// ProgramEnd.
func (e *Engine) Program(execIndex int, bytecode []byte) {
	e.cmdPort.Push(Command{Kind: CmdProgram, ExecIndex: execIndex, Bytecode: bytecode})
}

// ProgramBeg starts a multi-message program upload for execIndex: resets
// its code buffer and appends the first chunk without starting it.
func (e *Engine) ProgramBeg(execIndex int, bytecode []byte) {
	e.cmdPort.Push(Command{Kind: CmdProgramBeg, ExecIndex: execIndex, Bytecode: bytecode})
}

// ProgramMid appends an interior chunk to execIndex's in-progress code
// buffer. May be called zero or more times between ProgramBeg and
// ProgramEnd.
func (e *Engine) ProgramMid(execIndex int, bytecode []byte) {
	e.cmdPort.Push(Command{Kind: CmdProgramMid, ExecIndex: execIndex, Bytecode: bytecode})
}

// ProgramEnd appends the final chunk to execIndex's code buffer and starts
// it, completing a ProgramBeg/ProgramMid/ProgramEnd upload.
func (e *Engine) ProgramEnd(execIndex int, bytecode []byte) {
	e.cmdPort.Push(Command{Kind: CmdProgramEnd, ExecIndex: execIndex, Bytecode: bytecode})
}

// LoadBuffer decodes dec fully on the caller thread and posts a SetBuffer
// command for bi. Returns the buffer's duration in
// seconds, or 0 on decode failure (logged, not fatal).
func (e *Engine) LoadBuffer(bi int, dec voice.Decoder, meta voice.Metadata) float64 {
	frames := make([]float32, 0, 4096)
	chunk := make([]float32, 2048)
	total := 0
	for {
		n, status, err := dec.ReadFrames(chunk)
		if n > 0 {
			frames = append(frames, chunk[:n*2]...)
			total += n
		}
		if status == voice.StatusError {
			if err != nil {
				e.log.Error("loadBuffer decode failed", "buffer_index", bi, "err", err)
			}
			_ = dec.Close()
			return 0
		}
		if status == voice.StatusEOF {
			break
		}
	}
	_ = dec.Close()

	buf := pcmbuf.New(pcmbuf.FormatF32, 2, e.cfg.MixRate, total)
	copy(buf.Samples, frames)
	buf.SetUsed(total)

	if meta.Rate != 0 && meta.Rate != e.cfg.MixRate {
		buf = pcmbuf.ToVoice(buf, e.cfg.MixRate)
	}

	e.cmdPort.Push(Command{Kind: CmdSetBuffer, BufferIndex: bi, Buffers: []*pcmbuf.Buffer{buf}})

	return float64(buf.Used()) / float64(e.cfg.MixRate)
}

// FreeBuffers posts a BuffersFree command for count buffers starting at bi.
func (e *Engine) FreeBuffers(bi, count int) {
	e.cmdPort.Push(Command{Kind: CmdBuffersFree, SourceIndex: bi, Count: count})
}

// PlaySource mints a pid, posts Play, and returns the pid.
func (e *Engine) PlaySource(si int, bufIDs []int, mode int, volL, volR float32, hasTarget bool) uint32 {
	serial := e.mintSerial()
	p := pid.Pack(serial, si)
	e.pids.Set(si, p)

	var bufs []*pcmbuf.Buffer
	for _, bi := range bufIDs {
		if b := e.bufferAt(bi); b != nil {
			bufs = append(bufs, b)
		}
	}

	e.cmdPort.Push(Command{
		Kind: CmdPlay, SourceIndex: si, Serial: serial, Mode: mode,
		VolL: volL, VolR: volR, HasTarget: hasTarget, Buffers: bufs,
	})
	return p
}

// PlayStream opens dec on si, mints a pid, and posts OpenStream.
func (e *Engine) PlayStream(si int, dec voice.Decoder, mode int) uint32 {
	serial := e.mintSerial()
	p := pid.Pack(serial, si)
	e.pids.Set(si, p)

	e.cmdPort.Push(Command{Kind: CmdOpenStream, SourceIndex: si, Serial: serial, Mode: mode, Decoder: dec})
	return p
}

// PlayStreamPart posts a PlayStreamPart command.
func (e *Engine) PlayStreamPart(si int, start, duration float64, mode int) {
	e.cmdPort.Push(Command{Kind: CmdPlayStreamPart, SourceIndex: si, Start: start, Duration: duration, Mode: mode})
}

// IsPlaying is a lock-free pid-table lookup.
func (e *Engine) IsPlaying(p uint32) bool {
	return e.pids.IsPlaying(p)
}
