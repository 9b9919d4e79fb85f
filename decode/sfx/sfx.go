// Package sfx implements the procedural-SFX container decoder: a
// small binary parameter block ("rFX " version 200) describing a sequence
// of sine tones, synthesized on demand rather than decoded from PCM. A
// linear fade-in/fade-out envelope wraps each steady sine tone.
package sfx

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/faun-audio/faun/internal/voice"
)

// Magic and version identify the container.
const (
	Magic   = "rFX "
	Version = 200
)

// ErrBadContainer is returned when the header magic/version don't match.
var ErrBadContainer = errors.New("sfx: not an rFX v200 container")

// Tone is one sine segment: frequency in Hz, duration in milliseconds, and
// peak amplitude in [0, 1].
type Tone struct {
	FreqHz   uint32
	DurMs    uint32
	Peak     float32
}

// Parse decodes an rFX v200 parameter block into its tone sequence. Wire
// layout: 4-byte magic, uint32 version, uint32 toneCount, then toneCount
// records of (uint32 freqHz, uint32 durMs, float32 peak).
func Parse(data []byte) ([]Tone, error) {
	if len(data) < 12 || string(data[:4]) != Magic {
		return nil, ErrBadContainer
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, ErrBadContainer
	}
	count := binary.LittleEndian.Uint32(data[8:12])
	off := 12
	tones := make([]Tone, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+12 > len(data) {
			return nil, ErrBadContainer
		}
		freq := binary.LittleEndian.Uint32(data[off:])
		dur := binary.LittleEndian.Uint32(data[off+4:])
		peakBits := binary.LittleEndian.Uint32(data[off+8:])
		tones = append(tones, Tone{FreqHz: freq, DurMs: dur, Peak: math.Float32frombits(peakBits)})
		off += 12
	}
	return tones, nil
}

// Decoder synthesizes a tone sequence into stereo float frames at mixRate
// on demand, implementing voice.Decoder without ever touching a file.
type Decoder struct {
	mixRate int
	tones   []Tone

	toneIdx int
	samp    int // sample index within the current tone
	total   int // total samples in the current tone
	fade    int // fade length in samples for the current tone
}

// Open builds a Decoder over an already-parsed tone sequence.
func Open(mixRate int, tones []Tone) *Decoder {
	d := &Decoder{mixRate: mixRate, tones: tones}
	d.loadTone(0)
	return d
}

func (d *Decoder) loadTone(idx int) {
	d.toneIdx = idx
	d.samp = 0
	if idx >= len(d.tones) {
		d.total = 0
		return
	}
	t := d.tones[idx]
	d.total = int(t.DurMs) * d.mixRate / 1000
	d.fade = d.mixRate * 5 / 1000 // 5ms fade
	if d.fade > d.total/2 {
		d.fade = d.total / 2
	}
}

// ReadFrames synthesizes the next len(dst)/2 stereo frames.
func (d *Decoder) ReadFrames(dst []float32) (int, voice.ReadStatus, error) {
	n := 0
	max := len(dst) / 2
	for n < max {
		if d.toneIdx >= len(d.tones) {
			if n == 0 {
				return 0, voice.StatusEOF, nil
			}
			return n, voice.StatusData, nil
		}
		if d.samp >= d.total {
			d.loadTone(d.toneIdx + 1)
			continue
		}
		t := d.tones[d.toneIdx]
		time := float64(d.samp) / float64(d.mixRate)
		s := float32(math.Sin(2*math.Pi*float64(t.FreqHz)*time)) * t.Peak

		env := float32(1.0)
		if d.samp < d.fade && d.fade > 0 {
			env = float32(d.samp) / float32(d.fade)
		} else if d.total-d.samp <= d.fade && d.fade > 0 {
			env = float32(d.total-d.samp) / float32(d.fade)
		}
		v := s * env

		dst[n*2] = v
		dst[n*2+1] = v
		d.samp++
		n++
	}
	return n, voice.StatusData, nil
}

// Seek restarts synthesis inside the tone whose span contains startSeconds,
// at the matching sample offset within that tone.
func (d *Decoder) Seek(startSeconds float64) error {
	elapsed := 0.0
	for i, t := range d.tones {
		dur := float64(t.DurMs) / 1000
		if elapsed+dur > startSeconds {
			d.loadTone(i)
			d.samp = int((startSeconds - elapsed) * float64(d.mixRate))
			return nil
		}
		elapsed += dur
	}
	d.loadTone(len(d.tones))
	return nil
}

// Close is a no-op; there is no underlying resource.
func (d *Decoder) Close() error { return nil }
