// Package pid implements the lock-free playback-identifier table: a fixed
// array of atomics, one per source slot, that is the only engine structure
// with true cross-thread access. Writes go through a per-slot spin flag
// (Set from the caller thread that mints a pid, ClearIfMatches from the
// worker); isPlaying is a lock-free read for any caller thread.
package pid

import "sync/atomic"

// None is the sentinel pid meaning "no play has ever been posted for this
// slot" — it is never a valid minted id (the serial component starts at 1).
const None uint32 = 0

// Table tracks the current playback id for each source slot.
type Table struct {
	slots []atomic.Uint32
	locks []atomic.Bool // spin flag guarding each slot's write side
}

// NewTable allocates a Table for n source slots.
func NewTable(n int) *Table {
	return &Table{
		slots: make([]atomic.Uint32, n),
		locks: make([]atomic.Bool, n),
	}
}

// Pack combines a 24-bit serial and 8-bit source index into a pid, matching
// the wire format `(serial << 8) | sourceIndex`.
func Pack(serial uint32, sourceIndex int) uint32 {
	return (serial << 8) | uint32(sourceIndex&0xFF)
}

// Source extracts the source index from a pid (FAUN_PID_SOURCE).
func Source(p uint32) int {
	return int(p & 0xFF)
}

// Serial extracts the 24-bit serial from a pid.
func Serial(p uint32) uint32 {
	return p >> 8
}

// Set installs pid as the current playback id for slot si. Called
// synchronously by the caller thread before the play command is posted, so
// IsPlaying is observable immediately.
func (t *Table) Set(si int, p uint32) {
	t.spin(si)
	t.slots[si].Store(p)
	t.locks[si].Store(false)
}

// ClearIfMatches clears slot si's pid only if it still equals p — the
// worker calls this on end-of-play so a newer play that has already taken
// the slot is not clobbered.
func (t *Table) ClearIfMatches(si int, p uint32) {
	t.spin(si)
	if t.slots[si].Load() == p {
		t.slots[si].Store(None)
	}
	t.locks[si].Store(false)
}

// IsPlaying reports whether p is the current pid for its encoded source
// slot. Lock-free.
func (t *Table) IsPlaying(p uint32) bool {
	si := Source(p)
	if si < 0 || si >= len(t.slots) {
		return false
	}
	return t.slots[si].Load() == p
}

func (t *Table) spin(si int) {
	for !t.locks[si].CompareAndSwap(false, true) {
	}
}
