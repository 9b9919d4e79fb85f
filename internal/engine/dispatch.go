package engine

import "github.com/faun-audio/faun/internal/voice"

// dispatch applies one command's effect on the worker thread.
func (e *Engine) dispatch(c Command) {
	switch c.Kind {
	case CmdSetBuffer:
		// Installs a caller-thread-decoded Buffer into the engine-owned
		// Buffers pool; buffers are mutated only on this thread even
		// though decoding happened on the caller's.
		if c.BufferIndex < 0 || c.BufferIndex >= len(e.buffers) || len(c.Buffers) == 0 {
			e.log.Warn("command dropped: invalid buffer index", "buffer_index", c.BufferIndex)
			return
		}
		e.buffers[c.BufferIndex] = c.Buffers[0]

	case CmdBuffersFree:
		for i := 0; i < c.Count; i++ {
			bi := c.SourceIndex + i
			if bi < 0 || bi >= len(e.buffers) {
				continue
			}
			if e.buffers[bi] != nil {
				e.buffers[bi].Free()
				e.buffers[bi] = nil
			}
		}

	case CmdPlay:
		src := e.sourceAt(c.SourceIndex)
		if src == nil || len(c.Buffers) == 0 {
			e.log.Warn("command dropped: invalid play target", "source_index", c.SourceIndex)
			return
		}
		src.StartPlay(c.Serial, c.Buffers, c.Mode, c.VolL, c.VolL, c.VolR, c.HasTarget)

	case CmdOpenStream:
		st := e.streamAt(c.SourceIndex)
		if st == nil || c.Decoder == nil {
			e.log.Warn("command dropped: invalid stream target", "source_index", c.SourceIndex)
			return
		}
		st.SerialNo = c.Serial
		st.Mode = c.Mode
		st.Open(c.Decoder)
		st.Start()

	case CmdPlayStreamPart:
		st := e.streamAt(c.SourceIndex)
		if st == nil {
			e.log.Warn("command dropped: invalid stream target", "source_index", c.SourceIndex)
			return
		}
		if err := st.PlayStreamPart(c.Start, c.Duration, c.Mode); err != nil {
			e.log.Error("stream seek failed", "source_index", c.SourceIndex, "err", err)
		}

	case CmdControl:
		for i := 0; i < c.Count; i++ {
			e.applyControl(c.SourceIndex+i, c.Mode)
		}

	case CmdSetParameter:
		for i := 0; i < c.Count; i++ {
			e.applyParameter(c.SourceIndex+i, c.Param, c.Value)
		}

	case CmdPan:
		src := e.sourceAt(c.SourceIndex)
		if src == nil {
			return
		}
		src.FadePeriod = c.Period
		src.TargetL, src.TargetR = c.VolL, c.VolR
		src.SetFadeDeltas()

	case CmdProgram:
		if c.ExecIndex < 0 || c.ExecIndex >= len(e.progs) {
			e.log.Warn("command dropped: invalid program index", "exec_index", c.ExecIndex)
			return
		}
		p := e.progs[c.ExecIndex]
		p.Reset()
		if !p.Append(c.Bytecode) {
			e.log.Error("program dropped: bytecode exceeds max size", "exec_index", c.ExecIndex)
			return
		}
		p.Start()

	case CmdProgramBeg:
		// First of up to three framed chunks: reset the code buffer and
		// append, but do not start — running only flips true on the
		// terminal CmdProgramEnd frame.
		if c.ExecIndex < 0 || c.ExecIndex >= len(e.progs) {
			e.log.Warn("command dropped: invalid program index", "exec_index", c.ExecIndex)
			return
		}
		p := e.progs[c.ExecIndex]
		p.Reset()
		if !p.Append(c.Bytecode) {
			e.log.Error("program chunk dropped: bytecode exceeds max size", "exec_index", c.ExecIndex)
		}

	case CmdProgramMid:
		// Middle chunk(s): append only.
		if c.ExecIndex < 0 || c.ExecIndex >= len(e.progs) {
			e.log.Warn("command dropped: invalid program index", "exec_index", c.ExecIndex)
			return
		}
		p := e.progs[c.ExecIndex]
		if !p.Append(c.Bytecode) {
			e.log.Error("program chunk dropped: bytecode exceeds max size", "exec_index", c.ExecIndex)
		}

	case CmdProgramEnd:
		// Terminal chunk: append the remainder, then start.
		if c.ExecIndex < 0 || c.ExecIndex >= len(e.progs) {
			e.log.Warn("command dropped: invalid program index", "exec_index", c.ExecIndex)
			return
		}
		p := e.progs[c.ExecIndex]
		if !p.Append(c.Bytecode) {
			e.log.Error("program chunk dropped: bytecode exceeds max size", "exec_index", c.ExecIndex)
		}
		p.Start()

	case CmdSuspend:
		e.suspended.Store(c.Halt)
	}
}

// applyControl implements the `control` public API op: Start, Stop,
// Resume, FadeOut state transitions applied to one source.
func (e *Engine) applyControl(si int, op int) {
	src := e.sourceAt(si)
	if src == nil {
		return
	}
	switch ControlOp(op) {
	case CtrlStart:
		if st := e.streamAt(si); st != nil {
			st.Start()
			return
		}
		if src.QActive() != voice.NoActive {
			src.State = voice.StatePlaying
		}
	case CtrlStop:
		if st := e.streamAt(si); st != nil {
			st.Stop()
			return
		}
		src.Deactivate()
	case CtrlResume:
		if src.QActive() != voice.NoActive {
			src.State = voice.StatePlaying
		}
	case CtrlFadeOut:
		src.DoFadeOut()
	}
}

// applyParameter implements the `setParameter` public API op.
func (e *Engine) applyParameter(si int, param ParamKind, value float32) {
	src := e.sourceAt(si)
	if src == nil {
		return
	}
	switch param {
	case ParamVolume:
		src.PlayVolume = value
	case ParamFadePeriod:
		src.FadePeriod = float64(value)
	case ParamEndTime:
		if value <= 0 {
			src.EndPos = voice.Never
		} else {
			src.EndPos = int64(value * float32(e.cfg.MixRate))
		}
	}
}
