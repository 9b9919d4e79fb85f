package memsink

import "testing"

func TestAllocVoiceReportsBurst(t *testing.T) {
	s := New()
	burst, err := s.AllocVoice(44100, 100)
	if err != nil {
		t.Fatalf("AllocVoice() error = %v", err)
	}
	if burst != 441 {
		t.Fatalf("burst = %d, want 441", burst)
	}
}

func TestWriteAccumulatesFrames(t *testing.T) {
	s := New()
	s.AllocVoice(44100, 100)
	frames := []float32{0.1, -0.1, 0.2, -0.2}
	if err := s.Write(frames, 2); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got := s.Frames()
	for i, v := range frames {
		if got[i] != v {
			t.Fatalf("Frames()[%d] = %v, want %v", i, got[i], v)
		}
	}
}

func TestFreeVoiceDiscardsFrames(t *testing.T) {
	s := New()
	s.AllocVoice(44100, 100)
	s.Write([]float32{0.1, -0.1}, 1)
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 before FreeVoice", s.Len())
	}
	s.FreeVoice()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after FreeVoice", s.Len())
	}
}
