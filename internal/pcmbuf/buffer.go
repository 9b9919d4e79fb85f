// Package pcmbuf implements Faun's owned PCM storage: the Buffer type and
// the format conversions required to bring decoded audio into the voice's
// fixed stereo-float mix format.
package pcmbuf

// Format identifies the sample encoding of a Buffer's raw storage.
type Format int

const (
	FormatU8  Format = iota // unsigned 8-bit, centered at 128
	FormatS16               // signed 16-bit little-endian
	FormatS24               // signed 24-bit little-endian, stored sign-extended in int32
	FormatF32               // IEEE float32 in [-1, 1]
)

// Standard mix rates recognized by the engine.
const (
	HalfRate    = 22050
	DefaultRate = 44100
)

// Buffer is owned PCM storage: format, rate, channel layout, and the
// contiguous interleaved sample slab. Samples is stored as float32
// regardless of the original on-disk Format; for an integer Format the
// values are raw integer sample values, which ToVoice scales into [-1, 1].
// Format/Channels/Rate drive that conversion.
//
// Invariant: Used <= Avail. A Buffer whose Samples slice is nil is detached
// — any Source still pointing at it must be treated as freed.
type Buffer struct {
	Format   Format
	Channels int
	Rate     int

	avail   int // frames allocated
	used    int // frames populated
	Samples []float32
}

// New allocates a Buffer with room for frames frames of the given format.
func New(format Format, channels, rate, frames int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	b := &Buffer{Format: format, Channels: channels, Rate: rate}
	b.Reserve(frames)
	return b
}

// Avail returns the number of frames allocated.
func (b *Buffer) Avail() int { return b.avail }

// Used returns the number of frames populated. SetUsed panics if n > Avail.
func (b *Buffer) Used() int { return b.used }

// SetUsed sets the populated-frame count. n must not exceed Avail.
func (b *Buffer) SetUsed(n int) {
	if n > b.avail {
		panic("pcmbuf: SetUsed exceeds Avail")
	}
	b.used = n
}

// Freed reports whether this Buffer's storage has been released — the
// "empty sample pointer" marker signaling detachment from any Source.
func (b *Buffer) Freed() bool { return b.Samples == nil }

// Free releases storage and marks the Buffer detached. Sources whose
// current buffer is this one must deactivate when they next observe it.
func (b *Buffer) Free() {
	b.Samples = nil
	b.avail = 0
	b.used = 0
}

// Reserve grows storage to hold at least frames frames, preserving
// Format/Channels/Rate. Shrinking is a no-op — callers that want to shrink
// use SetUsed.
func (b *Buffer) Reserve(frames int) {
	if frames <= b.avail {
		return
	}
	next := make([]float32, frames*b.Channels)
	copy(next, b.Samples)
	b.Samples = next
	b.avail = frames
}

// Frame returns a slice over the interleaved samples of frame index i
// (length Channels). Panics if i is out of [0, Avail).
func (b *Buffer) Frame(i int) []float32 {
	start := i * b.Channels
	return b.Samples[start : start+b.Channels]
}

// scaleFor returns the multiplier that brings a raw integer sample of
// Format f into the [-1, 1] float range.
func scaleFor(f Format) float32 {
	switch f {
	case FormatU8:
		return 1.0 / 127.0
	case FormatS16:
		return 1.0 / 32767.0
	case FormatS24:
		return 1.0 / 8388607.0
	default: // FormatF32
		return 1.0
	}
}

// ToVoice converts src into a new stereo-float Buffer at mixRate:
//   - mono input is duplicated to L/R
//   - half-mix-rate (e.g. 22,050 Hz into a 44,100 Hz voice) input is
//     duplicated in time, each input frame becoming two output frames
//   - integer formats are scaled into [-1, 1]; F32 passes through
//
// src.Samples always holds float32 values; for an integer Format they are
// raw integer sample values (U8 offset by 128) scaled here via scaleFor, so
// a decoder that has already scaled its samples labels the buffer
// FormatF32.
func ToVoice(src *Buffer, mixRate int) *Buffer {
	scale := scaleFor(src.Format)
	var offset float32
	if src.Format == FormatU8 {
		offset = 128
	}
	dup := src.Rate > 0 && src.Rate*2 == mixRate

	outFrames := src.used
	if dup {
		outFrames *= 2
	}

	dst := New(FormatF32, 2, mixRate, outFrames)
	dst.SetUsed(outFrames)

	writeFrame := func(outIdx int, l, r float32) {
		f := dst.Frame(outIdx)
		f[0] = l
		f[1] = r
	}

	for i := 0; i < src.used; i++ {
		sf := src.Frame(i)
		var l, r float32
		if src.Channels == 1 {
			l = (sf[0] - offset) * scale
			r = l
		} else {
			l = (sf[0] - offset) * scale
			r = (sf[1] - offset) * scale
		}
		if dup {
			writeFrame(i*2, l, r)
			writeFrame(i*2+1, l, r)
		} else {
			writeFrame(i, l, r)
		}
	}

	return dst
}
