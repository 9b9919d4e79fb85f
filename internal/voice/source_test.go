package voice

import (
	"testing"

	"github.com/faun-audio/faun/internal/pcmbuf"
)

func stereoBuf(frames int) *pcmbuf.Buffer {
	b := pcmbuf.New(pcmbuf.FormatF32, 2, pcmbuf.DefaultRate, frames)
	b.SetUsed(frames)
	return b
}

func TestSetBufferInitializesSingleEntryQueue(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	b := stereoBuf(100)
	s.SetBuffer(b)
	if s.QActive() != 0 || s.BufUsed() != 1 {
		t.Fatalf("qactive=%d bufUsed=%d, want 0,1", s.QActive(), s.BufUsed())
	}
	if s.ActiveBuffer() != b {
		t.Fatal("ActiveBuffer() did not return the installed buffer")
	}
}

func TestQueueAppendsAndActivatesWhenDrained(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	if err := s.Queue(stereoBuf(10)); err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if s.QActive() != 0 {
		t.Fatalf("qactive = %d, want 0 (queue was drained)", s.QActive())
	}
}

func TestQueueFullIsDropped(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	for i := 0; i < QueueCapacity; i++ {
		if err := s.Queue(stereoBuf(1)); err != nil {
			t.Fatalf("Queue() #%d error = %v", i, err)
		}
	}
	if err := s.Queue(stereoBuf(1)); err != ErrQueueFull {
		t.Fatalf("5th Queue() error = %v, want ErrQueueFull", err)
	}
	if s.BufUsed() != QueueCapacity {
		t.Fatalf("BufUsed() = %d, want %d (previous 4 still intact)", s.BufUsed(), QueueCapacity)
	}
}

func TestProcessedBufferOnlyWhenHeadFinished(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	b1, b2 := stereoBuf(1), stereoBuf(1)
	s.SetBuffer(b1)
	s.Queue(b2)

	if _, ok := s.ProcessedBuffer(); ok {
		t.Fatal("ProcessedBuffer() returned a buffer while head == active")
	}

	s.AdvanceQueue(false) // qactive moves to b2's slot; b1's slot is now finished
	got, ok := s.ProcessedBuffer()
	if !ok || got != b1 {
		t.Fatalf("ProcessedBuffer() = (%v, %v), want (b1, true)", got, ok)
	}
}

func TestSetGainClearsFade(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.FadeL, s.FadeR = 0.01, 0.02
	s.SetGain(0.5, 0.75)
	if s.GainL != 0.5 || s.GainR != 0.75 || s.FadeL != 0 || s.FadeR != 0 {
		t.Fatalf("SetGain() left state %+v", s)
	}
}

func TestSetFadeDeltasZeroPeriodSnaps(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.GainL, s.GainR = 0, 0
	s.TargetL, s.TargetR = 1, 1
	s.FadePeriod = 0
	s.SetFadeDeltas()
	if s.GainL != 1 || s.GainR != 1 || s.FadeL != 0 || s.FadeR != 0 {
		t.Fatalf("zero-period fade did not snap: %+v", s)
	}
}

func TestSetFadeDeltasComputesLinearRamp(t *testing.T) {
	s := NewSource(100) // mix rate 100 Hz for easy arithmetic
	s.GainL, s.GainR = 0, 0
	s.TargetL, s.TargetR = 1, 1
	s.FadePeriod = 1.0 // 100 frames
	s.SetFadeDeltas()
	if s.FadeL <= 0 || s.FadeL != s.FadeR {
		t.Fatalf("FadeL/R = %v/%v, want equal positive deltas", s.FadeL, s.FadeR)
	}
	want := float32(1.0 / 100.0)
	if diff := s.FadeL - want; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("FadeL = %v, want ~%v", s.FadeL, want)
	}
}

func TestInitFadeOutLeavesNeverWhenNoRoom(t *testing.T) {
	s := NewSource(100)
	s.FadePeriod = 1.0 // 100 frames
	s.InitFadeOut(150) // fade-out window would overlap a symmetric fade-in window
	if s.FadePos != Never {
		t.Fatalf("FadePos = %d, want Never (no room)", s.FadePos)
	}
}

func TestInitFadeOutSetsPositionWhenRoomExists(t *testing.T) {
	s := NewSource(100)
	s.FadePeriod = 1.0 // 100 frames
	s.InitFadeOut(300)
	if s.FadePos != 200 {
		t.Fatalf("FadePos = %d, want 200", s.FadePos)
	}
}

func TestStartPlaySnapsGainWithoutFadeIn(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{stereoBuf(10)}, PlayOnce, 0.8, 0, 0, false)
	if s.GainL != 0.8 || s.GainR != 0.8 {
		t.Fatalf("GainL/R = %v/%v, want 0.8/0.8", s.GainL, s.GainR)
	}
	if s.State != StatePlaying {
		t.Fatalf("State = %v, want StatePlaying", s.State)
	}
}

func TestStartPlayFadeInStartsSilent(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.FadePeriod = 0.1
	s.StartPlay(1, []*pcmbuf.Buffer{stereoBuf(10)}, PlayOnce|FadeIn, 1.0, 0, 0, false)
	if s.GainL != 0 || s.GainR != 0 {
		t.Fatalf("GainL/R = %v/%v, want 0,0 at fade-in start", s.GainL, s.GainR)
	}
	if s.FadeL <= 0 {
		t.Fatal("FadeL should be positive to ramp up to playVolume")
	}
}

func TestStartPlayStoppedWithoutOnceOrLoop(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{stereoBuf(10)}, 0, 1.0, 0, 0, false)
	if s.State != StateStopped {
		t.Fatalf("State = %v, want StateStopped", s.State)
	}
}

func TestDoFadeOutZeroPeriodSnapsAndForcesEnd(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{stereoBuf(10)}, PlayOnce, 1.0, 0, 0, false)
	s.FramesOut = 3
	s.FadePeriod = 0
	s.DoFadeOut()
	if s.GainL != 0 || s.GainR != 0 || s.FadeL != 0 || s.FadeR != 0 {
		t.Fatalf("zero-period fade-out did not snap to silence: %+v", s)
	}
	if s.EndPos != s.FramesOut {
		t.Fatalf("EndPos = %d, want %d so end-of-play fires on the next advancement", s.EndPos, s.FramesOut)
	}
}

func TestDeactivateClearsActiveAndState(t *testing.T) {
	s := NewSource(pcmbuf.DefaultRate)
	s.StartPlay(1, []*pcmbuf.Buffer{stereoBuf(10)}, PlayOnce, 1.0, 0, 0, false)
	s.Deactivate()
	if s.QActive() != NoActive || s.State != StateUnused {
		t.Fatalf("Deactivate() left qactive=%d state=%v", s.QActive(), s.State)
	}
}
