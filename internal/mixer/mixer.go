// Package mixer implements the fragment planner and gain/fade mixing
// engine: picking the active set of sources for this tick, mixing them
// into the voice's interleaved stereo buffer in uniform-gain and
// envelope-stepping passes, and advancing play positions.
package mixer

import (
	"github.com/faun-audio/faun/internal/pid"
	"github.com/faun-audio/faun/internal/voice"
)

// Callbacks lets the mixer reach back into engine-owned state (the pid
// table, the signal port) without importing either package directly for
// its core math.
type Callbacks struct {
	// ClearPid clears the playback id for sourceIndex if it still matches
	// packedPid (a no-op implementation is fine for pure in-process use).
	ClearPid func(sourceIndex int, packedPid uint32)
	// Signal is invoked when a source finishes with SignalDone set.
	Signal func(sourceIndex int)
}

// Slot pairs a voice.Source with the engine-wide index it occupies, used
// for pid clearing and signal emission.
type Slot struct {
	Index  int
	Source *voice.Source
}

// Mixer holds the running mix clock (wraps at 2^32 frames, roughly 27
// hours at 44,100 Hz).
type Mixer struct {
	MixRate    int
	TotalMixed uint32
}

// New returns a Mixer configured for the given mix rate.
func New(mixRate int) *Mixer {
	return &Mixer{MixRate: mixRate}
}

// SelectActive builds this tick's mixSource list from the fixed pure-source
// pool and the stream pool. streamBase is the engine-wide index of
// streams[0] (streams occupy the index range immediately after the pure
// sources).
func (m *Mixer) SelectActive(sources []*voice.Source, streams []*voice.Stream, streamBase int) []Slot {
	var active []Slot

	for i, s := range sources {
		if s.State == voice.StatePlaying && s.QActive() != voice.NoActive {
			active = append(active, Slot{Index: i, Source: s})
		}
	}

	refilledOne := false
	for i, st := range streams {
		if st.State == voice.StatePlaying {
			if st.QActive() == voice.NoActive {
				// Starved: keep decoding until it produces something or
				// its decoder genuinely has nothing left to give.
				for st.QActive() == voice.NoActive && st.Feeding() {
					st.Refill()
				}
				refilledOne = true
			} else if st.NeedsRefill() && !refilledOne {
				st.Refill()
				refilledOne = true
			}
		}
		if st.State == voice.StatePlaying && st.QActive() != voice.NoActive {
			active = append(active, Slot{Index: streamBase + i, Source: st.Source})
		}
	}

	return active
}

// Tick mixes mixSampleLen stereo frames into out (len(out) >= mixSampleLen*2)
// from the given active set, then advances every active source's play
// position. cb may be the zero value; nil callback fields are simply
// skipped.
func (m *Mixer) Tick(active []Slot, out []float32, mixSampleLen int, cb Callbacks) {
	for i := 0; i < mixSampleLen*2; i++ {
		out[i] = 0
	}

	mixed := 0
	for mixed < mixSampleLen {
		fragmentLen := mixSampleLen - mixed

		type entry struct {
			slot    Slot
			samples []float32
			fading  bool
		}
		entries := make([]entry, 0, len(active))

		for _, sl := range active {
			src := sl.Source
			buf := src.ActiveBuffer()
			if buf == nil {
				continue
			}
			if buf.Freed() {
				m.deactivate(sl, cb)
				continue
			}
			avail := buf.Used() - src.PlayPos
			if avail <= 0 {
				continue
			}
			if avail < fragmentLen {
				fragmentLen = avail
			}
			entries = append(entries, entry{
				slot:    sl,
				samples: buf.Samples[src.PlayPos*2:],
				fading:  src.FadeL != 0 || src.FadeR != 0,
			})
		}
		if fragmentLen <= 0 {
			break
		}

		var flat []flatEntry
		var fades []entry
		for _, e := range entries {
			if e.fading {
				fades = append(fades, e)
			} else {
				flat = append(flat, flatEntry{
					samples: e.samples,
					gainL:   e.slot.Source.GainL,
					gainR:   e.slot.Source.GainR,
				})
			}
		}

		dst := out[mixed*2 : (mixed+fragmentLen)*2]
		mixFlatAll(dst, flat, fragmentLen)
		for _, e := range fades {
			mixFadeOverlay(dst, e.slot.Source, e.samples, fragmentLen)
		}

		for _, e := range entries {
			m.advance(e.slot, fragmentLen, cb)
		}

		mixed += fragmentLen
		m.TotalMixed += uint32(fragmentLen)
	}
}

// advance applies end-of-fragment position/state bookkeeping to one
// source after a fragment has been mixed for it.
func (m *Mixer) advance(sl Slot, fragmentLen int, cb Callbacks) {
	src := sl.Source
	src.FramesOut += int64(fragmentLen)

	if src.EndPos != voice.Never && src.FramesOut >= src.EndPos {
		m.deactivate(sl, cb)
		return
	}

	if src.FadePos != voice.Never && src.FramesOut >= src.FadePos {
		src.FadePos = voice.Never
		src.DoFadeOut()
	}

	src.PlayPos += fragmentLen
	if src.PlayPos >= src.ActiveBuffer().Used() {
		loop := src.Mode&voice.PlayLoop != 0
		if !src.AdvanceQueue(loop) {
			m.deactivate(sl, cb)
			return
		}
		src.PlayPos = 0
	}
}

func (m *Mixer) deactivate(sl Slot, cb Callbacks) {
	src := sl.Source
	serial := src.SerialNo
	src.Deactivate()
	if cb.ClearPid != nil {
		cb.ClearPid(sl.Index, pid.Pack(serial, sl.Index))
	}
	if cb.Signal != nil && src.Mode&voice.SignalDone != 0 {
		cb.Signal(sl.Index)
	}
}
