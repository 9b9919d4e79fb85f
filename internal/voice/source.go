// Package voice implements Faun's per-voice state: Source and Stream, the
// fixed pool of playing voices the mixer draws from.
package voice

import (
	"errors"

	"github.com/faun-audio/faun/internal/pcmbuf"
)

// State is a Source's play state.
type State int

const (
	StateUnused  State = iota
	StatePlaying
	StateStopped
)

// Mode bits. The low bits are caller-visible playback modes; the high
// bits are internal flags the engine sets itself.
const (
	PlayOnce   = 1 << 0
	PlayLoop   = 1 << 1
	FadeIn     = 1 << 2
	FadeOut    = 1 << 3
	SignalDone = 1 << 4

	// TargetVol marks that the caller supplied explicit L/R gain targets
	// (as opposed to a single playVolume applied to both channels).
	TargetVol = 1 << 5
	// EndAfterFade marks that the current fade is terminal: when both
	// channel fades clear, force end-of-play rather than continuing at
	// constant gain.
	EndAfterFade = 1 << 6
)

// QueueCapacity is the fixed buffer-queue depth per source.
const QueueCapacity = 4

// Never is the sentinel value for EndPos/FadePos meaning "never".
const Never int64 = -1

// NoActive is the qactive sentinel meaning "no active buffer".
const NoActive = -1

// ErrQueueFull is returned by Queue when the buffer queue is already at
// QueueCapacity.
var ErrQueueFull = errors.New("voice: source buffer queue is full")

// Source is one playing or idle voice.
type Source struct {
	State State
	Mode  int

	bufferQueue [QueueCapacity]*pcmbuf.Buffer
	qhead       int
	qtail       int
	qactive     int
	bufUsed     int

	GainL, GainR   float32
	FadeL, FadeR   float32
	TargetL, TargetR float32

	PlayVolume float32
	FadePeriod float64 // seconds

	SerialNo  uint32
	PlayPos   int
	FramesOut int64
	EndPos    int64
	FadePos   int64

	MixRate int
}

// NewSource returns an idle Source configured for the given mix rate.
func NewSource(mixRate int) *Source {
	return &Source{
		qactive: NoActive,
		EndPos:  Never,
		FadePos: Never,
		MixRate: mixRate,
		State:   StateUnused,
	}
}

// ActiveBuffer returns the buffer at qactive, or nil if none is active.
func (s *Source) ActiveBuffer() *pcmbuf.Buffer {
	if s.qactive == NoActive {
		return nil
	}
	return s.bufferQueue[s.qactive]
}

// QActive exposes the active queue slot index (NoActive if none).
func (s *Source) QActive() int { return s.qactive }

// BufUsed reports the number of populated queue slots.
func (s *Source) BufUsed() int { return s.bufUsed }

// SetBuffer resets the queue to a single-entry queue containing buf, with
// qactive pointing at it.
func (s *Source) SetBuffer(buf *pcmbuf.Buffer) {
	s.bufferQueue = [QueueCapacity]*pcmbuf.Buffer{}
	s.bufferQueue[0] = buf
	s.qhead = 0
	s.qtail = 1 % QueueCapacity
	s.qactive = 0
	s.bufUsed = 1
}

// Queue appends buf to the tail of the queue. If the queue is full, the
// push is dropped and ErrQueueFull returned (caller logs). If the queue
// had been fully drained (qactive == NoActive), the new entry becomes
// active immediately.
func (s *Source) Queue(buf *pcmbuf.Buffer) error {
	if s.bufUsed >= QueueCapacity {
		return ErrQueueFull
	}
	idx := s.qtail
	s.bufferQueue[idx] = buf
	s.qtail = (s.qtail + 1) % QueueCapacity
	s.bufUsed++
	if s.qactive == NoActive {
		s.qactive = idx
	}
	return nil
}

// ProcessedBuffer dequeues the oldest finished buffer. The slot at qhead is
// finished iff qactive != qhead (the active slot is still playing). Returns
// ok=false if nothing is finished.
func (s *Source) ProcessedBuffer() (*pcmbuf.Buffer, bool) {
	if s.bufUsed == 0 || s.qactive == s.qhead {
		return nil, false
	}
	buf := s.bufferQueue[s.qhead]
	s.bufferQueue[s.qhead] = nil
	s.qhead = (s.qhead + 1) % QueueCapacity
	s.bufUsed--
	return buf, true
}

// AdvanceQueue rotates qactive to the next slot (tail reached). loop
// indicates whether PlayLoop semantics apply (restart at qhead rather than
// deactivating when the queue is exhausted). It reports whether a new
// active slot is available.
func (s *Source) AdvanceQueue(loop bool) (stillActive bool) {
	next := (s.qactive + 1) % QueueCapacity
	if next == s.qtail {
		// Queue exhausted.
		if loop && s.bufUsed > 0 {
			s.qactive = s.qhead
			return true
		}
		s.qactive = NoActive
		return false
	}
	if s.bufferQueue[next] == nil || s.bufferQueue[next].Freed() {
		s.qactive = NoActive
		return false
	}
	s.qactive = next
	return true
}

// SetGain assigns current gains directly and clears any in-flight fade.
func (s *Source) SetGain(l, r float32) {
	s.GainL, s.GainR = l, r
	s.FadeL, s.FadeR = 0, 0
}

// SetFadeDeltas computes per-frame gain deltas so that gain reaches target
// over FadePeriod seconds at MixRate. A zero FadePeriod snaps immediately.
func (s *Source) SetFadeDeltas() {
	frames := s.FadePeriod * float64(s.MixRate)
	if s.FadePeriod <= 0 || frames <= 0 {
		s.GainL, s.GainR = s.TargetL, s.TargetR
		s.FadeL, s.FadeR = 0, 0
		return
	}
	s.FadeL = float32((float64(s.TargetL) - float64(s.GainL)) / frames)
	s.FadeR = float32((float64(s.TargetR) - float64(s.GainR)) / frames)
}

// DoFadeOut sets targets to 0 and deltas to -gain/(fadePeriod*mixRate),
// marking the fade as terminal (EndAfterFade).
func (s *Source) DoFadeOut() {
	s.TargetL, s.TargetR = 0, 0
	s.Mode |= EndAfterFade
	frames := s.FadePeriod * float64(s.MixRate)
	if frames <= 0 {
		// Snap immediately: a zero fade period has no envelope left to step,
		// so the mixer's usual end-of-fade EndAfterFade resolution would never
		// run for this source. Force it here instead.
		s.GainL, s.GainR = 0, 0
		s.FadeL, s.FadeR = 0, 0
		s.EndPos = s.FramesOut
	} else {
		s.FadeL = float32(-float64(s.GainL) / frames)
		s.FadeR = float32(-float64(s.GainR) / frames)
	}
}

// InitFadeOut sets FadePos = totalFrames - fadePeriod*mixRate if there is
// enough room that a fade-in and this fade-out would not overlap, else
// leaves FadePos at Never.
func (s *Source) InitFadeOut(totalFrames int64) {
	fadeFrames := int64(s.FadePeriod * float64(s.MixRate))
	if fadeFrames <= 0 || fadeFrames >= totalFrames {
		return
	}
	if totalFrames-fadeFrames < fadeFrames {
		// Fade-in (if any) and fade-out would overlap; leave as Never.
		return
	}
	s.FadePos = totalFrames - fadeFrames
}

// StartPlay installs the playback id and buffer list and applies source
// start semantics. bufs must be non-empty; targetL/targetR are only used
// when hasTarget is true.
func (s *Source) StartPlay(serial uint32, bufs []*pcmbuf.Buffer, mode int, playVolume float32, targetL, targetR float32, hasTarget bool) {
	s.SerialNo = serial
	if len(bufs) == 0 {
		s.State = StateUnused
		return
	}

	s.SetBuffer(bufs[0])
	var ftotal int64
	ftotal += int64(bufs[0].Used())
	for _, b := range bufs[1:] {
		_ = s.Queue(b)
		ftotal += int64(b.Used())
	}

	s.PlayPos = 0
	s.FramesOut = 0
	s.Mode = mode
	s.EndPos = Never
	s.FadePos = Never
	s.PlayVolume = playVolume

	switch {
	case mode&FadeIn != 0:
		s.GainL, s.GainR = 0, 0
		s.TargetL, s.TargetR = playVolume, playVolume
		s.SetFadeDeltas()
	case hasTarget:
		s.Mode |= TargetVol
		s.GainL, s.GainR = targetL, targetR
		s.TargetL, s.TargetR = targetL, targetR
		s.FadeL, s.FadeR = 0, 0
	default:
		s.GainL, s.GainR = playVolume, playVolume
		s.TargetL, s.TargetR = playVolume, playVolume
		s.FadeL, s.FadeR = 0, 0
	}

	if mode&FadeOut != 0 {
		s.InitFadeOut(ftotal)
	}

	if mode&(PlayOnce|PlayLoop) != 0 {
		s.State = StatePlaying
	} else {
		s.State = StateStopped
	}
}

// Deactivate clears the active-buffer pointer and returns the source to
// Unused, as the mixer does at end-of-play.
func (s *Source) Deactivate() {
	s.qactive = NoActive
	s.State = StateUnused
}
