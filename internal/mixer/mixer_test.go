package mixer

import (
	"testing"

	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/voice"
)

func constBuf(frames int, l, r float32) *pcmbuf.Buffer {
	b := pcmbuf.New(pcmbuf.FormatF32, 2, pcmbuf.DefaultRate, frames)
	b.SetUsed(frames)
	for i := 0; i < frames; i++ {
		f := b.Frame(i)
		f[0], f[1] = l, r
	}
	return b
}

func TestSelectActiveSkipsNonPlayingSources(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	active := m.SelectActive([]*voice.Source{s}, nil, 1)
	if len(active) != 0 {
		t.Fatalf("len(active) = %d, want 0 for an unused source", len(active))
	}
}

func TestSelectActiveIncludesPlayingSource(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(10, 1, 1)}, voice.PlayOnce, 1.0, 0, 0, false)

	active := m.SelectActive([]*voice.Source{s}, nil, 1)
	if len(active) != 1 || active[0].Source != s {
		t.Fatalf("active = %+v, want [source]", active)
	}
}

func TestTickFlatMixSingleSource(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(10, 0.5, 0.25)}, voice.PlayOnce, 1.0, 0, 0, false)

	out := make([]float32, 10*2)
	m.Tick([]Slot{{Index: 0, Source: s}}, out, 10, Callbacks{})

	if out[0] != 0.5 || out[1] != 0.25 {
		t.Fatalf("out[0:2] = %v,%v, want 0.5,0.25", out[0], out[1])
	}
	if s.FramesOut != 10 {
		t.Fatalf("FramesOut = %d, want 10", s.FramesOut)
	}
}

func TestTickMixesFourFlatSourcesAdditively(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	var slots []Slot
	for i := 0; i < 4; i++ {
		s := voice.NewSource(pcmbuf.DefaultRate)
		s.StartPlay(uint32(i+1), []*pcmbuf.Buffer{constBuf(4, 0.1, 0.1)}, voice.PlayOnce, 1.0, 0, 0, false)
		slots = append(slots, Slot{Index: i, Source: s})
	}
	out := make([]float32, 4*2)
	m.Tick(slots, out, 4, Callbacks{})

	want := float32(0.4)
	if diff := out[0] - want; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("out[0] = %v, want ~%v", out[0], want)
	}
}

func TestTickDeactivatesAtEndPos(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(10, 1, 1)}, voice.PlayOnce, 1.0, 0, 0, false)
	s.EndPos = 5

	var cleared bool
	cb := Callbacks{ClearPid: func(idx int, p uint32) { cleared = true }}

	out := make([]float32, 10*2)
	m.Tick([]Slot{{Index: 0, Source: s}}, out, 10, cb)

	if s.State != voice.StateUnused {
		t.Fatalf("State = %v, want StateUnused after reaching EndPos", s.State)
	}
	if s.QActive() != voice.NoActive {
		t.Fatal("QActive() should be NoActive after deactivation")
	}
	if !cleared {
		t.Fatal("expected ClearPid callback on deactivation")
	}
}

func TestTickSignalsDoneWhenRequested(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(4, 1, 1)}, voice.PlayOnce|voice.SignalDone, 1.0, 0, 0, false)

	var signaled bool
	cb := Callbacks{Signal: func(idx int) { signaled = true }}

	out := make([]float32, 4*2)
	m.Tick([]Slot{{Index: 0, Source: s}}, out, 4, cb)

	if !signaled {
		t.Fatal("expected Signal callback when source drains with SignalDone set")
	}
}

func TestTickFadeOverlayStepsGainAndClampsAtTarget(t *testing.T) {
	m := New(100) // 100 Hz for simple arithmetic
	s := voice.NewSource(100)
	s.FadePeriod = 0.1 // 10 frames to reach target 1.0 from 0
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(20, 1, 1)}, voice.PlayOnce|voice.FadeIn, 1.0, 0, 0, false)

	out := make([]float32, 20*2)
	m.Tick([]Slot{{Index: 0, Source: s}}, out, 20, Callbacks{})

	// After 10 frames the fade should have clamped to target and cleared.
	if s.FadeL != 0 || s.GainL != 1.0 {
		t.Fatalf("GainL/FadeL = %v/%v, want 1.0/0 after fade completes mid-fragment", s.GainL, s.FadeL)
	}
	// Output should be silent at frame 0 (gain started at 0) and at full
	// volume by the final frame (gain clamped to target).
	if out[0] != 0 {
		t.Fatalf("out[0] = %v, want 0 at fade-in start", out[0])
	}
	last := out[19*2]
	if last != 1.0 {
		t.Fatalf("out[last] = %v, want 1.0 once fade has completed", last)
	}
}

func TestTickAdvancesPlayPosAndRotatesQueue(t *testing.T) {
	m := New(pcmbuf.DefaultRate)
	s := voice.NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{constBuf(4, 1, 1), constBuf(4, 0.5, 0.5)}, voice.PlayOnce, 1.0, 0, 0, false)

	out := make([]float32, 4*2)
	m.Tick([]Slot{{Index: 0, Source: s}}, out, 4, Callbacks{})

	if s.PlayPos != 0 {
		t.Fatalf("PlayPos = %d, want 0 after rotating to the next queue slot", s.PlayPos)
	}
	if s.ActiveBuffer() == nil {
		t.Fatal("expected the second queued buffer to be active after rotation")
	}
}
