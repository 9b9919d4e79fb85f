package engine

import (
	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/voice"
)

// CmdKind tags a Command's payload.
type CmdKind int

const (
	CmdSetBuffer CmdKind = iota
	CmdBuffersFree
	CmdPlay
	CmdOpenStream
	CmdPlayStreamPart
	CmdControl
	CmdSetParameter
	CmdPan
	CmdProgram
	CmdProgramBeg
	CmdProgramMid
	CmdProgramEnd
	CmdSuspend
	CmdQuit
)

// ControlOp is the control-command enum from the Public API table.
type ControlOp int

const (
	CtrlStart ControlOp = iota
	CtrlStop
	CtrlResume
	CtrlFadeOut
)

// ParamKind selects which per-source parameter setParameter assigns.
type ParamKind int

const (
	ParamVolume ParamKind = iota
	ParamFadePeriod
	ParamEndTime
)

// Command is the single tagged payload carried by the command port. Only
// the fields relevant to Kind are populated; this mirrors the fixed-size
// fixed-size 20-byte command record without hand-rolling a byte encoding,
// since MsgPort is already generic over Go values.
type Command struct {
	Kind CmdKind

	SourceIndex int
	Count       int
	Mode        int
	Serial      uint32

	VolL, VolR   float32
	HasTarget    bool
	Period       float64
	Param        ParamKind
	Value        float32

	BufferIndex int              // CmdSetBuffer: slot in the Buffers pool
	Buffers     []*pcmbuf.Buffer // CmdSetBuffer (installs into pool) / CmdPlay (queued onto a source)

	Decoder voice.Decoder // CmdOpenStream

	Start, Duration float64 // CmdPlayStreamPart

	ExecIndex int    // CmdProgram, CmdProgramBeg/Mid/End
	Bytecode  []byte // CmdProgram, CmdProgramBeg/Mid/End

	Halt bool // CmdSuspend
}

// SignalKind tags what a Signal reports.
type SignalKind int

const (
	SignalDone SignalKind = iota
	SignalProg
)

// Signal is posted to the signal port.
type Signal struct {
	Kind        SignalKind
	SourceIndex int
	Pid         uint32
}
