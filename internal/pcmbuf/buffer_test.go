package pcmbuf

import "testing"

func TestReserveGrowsPreservingData(t *testing.T) {
	b := New(FormatF32, 2, DefaultRate, 4)
	b.SetUsed(4)
	for i := 0; i < 4; i++ {
		f := b.Frame(i)
		f[0], f[1] = float32(i), float32(-i)
	}

	b.Reserve(8)
	if b.Avail() != 8 {
		t.Fatalf("Avail() = %d, want 8", b.Avail())
	}
	for i := 0; i < 4; i++ {
		f := b.Frame(i)
		if f[0] != float32(i) || f[1] != float32(-i) {
			t.Fatalf("frame %d corrupted after Reserve: %v", i, f)
		}
	}
}

func TestReserveShrinkIsNoop(t *testing.T) {
	b := New(FormatF32, 2, DefaultRate, 8)
	b.Reserve(2)
	if b.Avail() != 8 {
		t.Fatalf("Avail() = %d, want unchanged 8", b.Avail())
	}
}

func TestFreeMarksDetached(t *testing.T) {
	b := New(FormatF32, 2, DefaultRate, 4)
	b.SetUsed(4)
	if b.Freed() {
		t.Fatal("fresh buffer reports Freed()")
	}
	b.Free()
	if !b.Freed() {
		t.Fatal("Free() did not mark buffer detached")
	}
	if b.Used() != 0 || b.Avail() != 0 {
		t.Fatalf("Free() left Used/Avail nonzero: used=%d avail=%d", b.Used(), b.Avail())
	}
}

func TestToVoiceMonoDuplicatesChannels(t *testing.T) {
	src := New(FormatF32, 1, DefaultRate, 2)
	src.SetUsed(2)
	src.Frame(0)[0] = 0.5
	src.Frame(1)[0] = -0.25

	dst := ToVoice(src, DefaultRate)
	if dst.Channels != 2 || dst.Used() != 2 {
		t.Fatalf("dst shape = channels=%d used=%d, want 2,2", dst.Channels, dst.Used())
	}
	f0 := dst.Frame(0)
	if f0[0] != 0.5 || f0[1] != 0.5 {
		t.Fatalf("frame 0 = %v, want [0.5 0.5]", f0)
	}
}

func TestToVoiceHalfRateDuplicatesInTime(t *testing.T) {
	src := New(FormatF32, 2, HalfRate, 3)
	src.SetUsed(3)
	for i := 0; i < 3; i++ {
		f := src.Frame(i)
		f[0], f[1] = float32(i), float32(i)
	}

	dst := ToVoice(src, DefaultRate)
	if dst.Used() != 6 {
		t.Fatalf("Used() = %d, want 6 (2x doubling)", dst.Used())
	}
	for i := 0; i < 3; i++ {
		a, b := dst.Frame(i*2), dst.Frame(i*2+1)
		if a[0] != float32(i) || b[0] != float32(i) {
			t.Fatalf("pair %d = %v, %v, want both %v", i, a, b, float32(i))
		}
	}
}

func TestToVoiceS16Scaling(t *testing.T) {
	src := New(FormatS16, 2, DefaultRate, 1)
	src.SetUsed(1)
	f := src.Frame(0)
	f[0], f[1] = 32767, -32767

	dst := ToVoice(src, DefaultRate)
	got := dst.Frame(0)
	if got[0] < 0.999 || got[0] > 1.0 {
		t.Fatalf("left = %v, want ~1.0", got[0])
	}
	if got[1] > -0.999 || got[1] < -1.0 {
		t.Fatalf("right = %v, want ~-1.0", got[1])
	}
}
