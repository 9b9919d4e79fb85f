package pid

import "testing"

func TestPackSourceSerialRoundTrip(t *testing.T) {
	p := Pack(12345, 7)
	if Source(p) != 7 {
		t.Fatalf("Source() = %d, want 7", Source(p))
	}
	if Serial(p) != 12345 {
		t.Fatalf("Serial() = %d, want 12345", Serial(p))
	}
}

func TestIsPlayingAfterSet(t *testing.T) {
	tab := NewTable(4)
	p := Pack(1, 2)
	if tab.IsPlaying(p) {
		t.Fatal("IsPlaying() true before Set")
	}
	tab.Set(2, p)
	if !tab.IsPlaying(p) {
		t.Fatal("IsPlaying() false after Set")
	}
}

func TestClearIfMatchesOnlyClearsSamePid(t *testing.T) {
	tab := NewTable(4)
	p1 := Pack(1, 0)
	p2 := Pack(2, 0)

	tab.Set(0, p1)
	tab.ClearIfMatches(0, p2) // stale id, must not clear the newer p1
	if !tab.IsPlaying(p1) {
		t.Fatal("ClearIfMatches cleared a slot holding a different pid")
	}

	tab.ClearIfMatches(0, p1)
	if tab.IsPlaying(p1) {
		t.Fatal("ClearIfMatches did not clear the matching pid")
	}
}

func TestIsPlayingOutOfRangeSourceIsFalse(t *testing.T) {
	tab := NewTable(2)
	if tab.IsPlaying(Pack(1, 99)) {
		t.Fatal("IsPlaying() true for out-of-range source index")
	}
}
