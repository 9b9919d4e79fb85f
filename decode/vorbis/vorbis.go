// Package vorbis implements a reference Ogg Vorbis Decoder over
// github.com/jfreymuth/oggvorbis, producing stereo float samples at the
// engine's mix rate via mono-duplication and half-rate doubling.
package vorbis

import (
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/faun-audio/faun/internal/voice"
)

// Decoder wraps an oggvorbis.Reader, converting its native-rate output to
// the engine's mix rate one ReadFrames call at a time.
type Decoder struct {
	src     io.ReadSeeker
	reader  *oggvorbis.Reader
	mixRate int
	rate    int
	chans   int

	dup bool // half-rate input: duplicate every decoded frame

	// pending holds one already-converted stereo frame's worth of extra
	// output when a dup doubled a single decoded frame into two.
	pendingFrame [2]float32
	havePending  bool
}

// Open constructs a Decoder over r, which must be positioned at the start
// of an Ogg Vorbis stream.
func Open(r io.ReadSeeker, mixRate int) (*Decoder, voice.Metadata, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, voice.Metadata{}, err
	}
	d := &Decoder{
		src:     r,
		reader:  reader,
		mixRate: mixRate,
		rate:    reader.SampleRate(),
		chans:   reader.Channels(),
		dup:     reader.SampleRate()*2 == mixRate,
	}
	meta := voice.Metadata{Channels: d.chans, Rate: d.rate, TotalFrames: reader.Length()}
	return d, meta, nil
}

// ReadFrames decodes and converts the next frames into dst.
func (d *Decoder) ReadFrames(dst []float32) (int, voice.ReadStatus, error) {
	want := len(dst) / 2
	n := 0

	if d.havePending && n < want {
		dst[0], dst[1] = d.pendingFrame[0], d.pendingFrame[1]
		d.havePending = false
		n++
	}

	raw := make([]float32, 4096*d.chans)
	for n < want {
		need := want - n
		if d.dup {
			// Each decoded frame becomes two output frames.
			need = (need + 1) / 2
		}
		bufLen := need * d.chans
		if bufLen > len(raw) {
			bufLen = len(raw)
		}
		if bufLen == 0 {
			break
		}
		rn, err := d.reader.Read(raw[:bufLen])
		if err != nil && err != io.EOF {
			return n, voice.StatusError, err
		}
		framesRead := rn / d.chans
		if framesRead == 0 {
			if n == 0 {
				return 0, voice.StatusEOF, nil
			}
			return n, voice.StatusData, nil
		}

		for i := 0; i < framesRead && n < want; i++ {
			var l, r float32
			if d.chans == 1 {
				l = raw[i]
				r = l
			} else {
				l = raw[i*2]
				r = raw[i*2+1]
			}
			dst[n*2], dst[n*2+1] = l, r
			n++
			if d.dup {
				if n < want {
					dst[n*2], dst[n*2+1] = l, r
					n++
				} else {
					d.pendingFrame = [2]float32{l, r}
					d.havePending = true
				}
			}
		}
		if err == io.EOF {
			break
		}
	}

	if n == 0 {
		return 0, voice.StatusEOF, nil
	}
	return n, voice.StatusData, nil
}

// Seek re-creates the underlying reader from the start and discards frames
// until startSeconds — jfreymuth/oggvorbis does not expose random access,
// so this is an O(n) replay seek, acceptable for a reference decoder.
func (d *Decoder) Seek(startSeconds float64) error {
	if _, err := d.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader, err := oggvorbis.NewReader(d.src)
	if err != nil {
		return err
	}
	d.reader = reader
	d.havePending = false

	skipFrames := int(startSeconds * float64(d.rate))
	skipBuf := make([]float32, 4096*d.chans)
	for skipFrames > 0 {
		n := skipFrames * d.chans
		if n > len(skipBuf) {
			n = len(skipBuf)
		}
		rn, err := reader.Read(skipBuf[:n])
		if rn == 0 || err == io.EOF {
			break
		}
		skipFrames -= rn / d.chans
	}
	return nil
}

// Close releases the decoder; the caller owns the underlying reader.
func (d *Decoder) Close() error {
	d.reader = nil
	return nil
}
