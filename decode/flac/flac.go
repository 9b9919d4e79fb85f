// Package flac implements a reference FLAC Decoder over
// github.com/mewkiz/flac, producing stereo float samples at the engine's
// mix rate via mono-duplication and half-rate doubling, the same
// conversion shape as decode/vorbis and decode/wav.
package flac

import (
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/faun-audio/faun/internal/voice"
)

// Decoder wraps a mewkiz/flac.Stream, converting its native-rate,
// native-depth output to the engine's mix rate one ReadFrames call at a
// time.
type Decoder struct {
	src     io.ReadSeeker
	stream  *flac.Stream
	mixRate int
	rate    int
	chans   int
	bits    uint8

	dup bool // half-rate input: duplicate every decoded frame

	cur         *frame.Frame // most recently parsed frame awaiting drain
	curPos      int          // next sample index within cur to emit
	pending     [2]float32   // one already-converted stereo frame held over by dup
	havePending bool
}

// Open constructs a Decoder over r, which must be positioned at the start
// of a FLAC stream (with or without an ID3v2 prefix, per mewkiz/flac).
func Open(r io.ReadSeeker, mixRate int) (*Decoder, voice.Metadata, error) {
	stream, err := flac.NewSeek(r)
	if err != nil {
		return nil, voice.Metadata{}, err
	}
	info := stream.Info
	d := &Decoder{
		src:     r,
		stream:  stream,
		mixRate: mixRate,
		rate:    int(info.SampleRate),
		chans:   int(info.NChannels),
		bits:    info.BitsPerSample,
		dup:     int(info.SampleRate)*2 == mixRate,
	}
	meta := voice.Metadata{
		Channels:    d.chans,
		Rate:        d.rate,
		TotalFrames: int64(info.NSamples),
	}
	return d, meta, nil
}

// scale converts one decoded integer sample at d.bits depth to [-1, 1].
func (d *Decoder) scale(s int32) float32 {
	if d.bits <= 0 {
		return 0
	}
	full := float32(int64(1) << (d.bits - 1))
	return float32(s) / full
}

// ReadFrames decodes and converts the next frames into dst.
func (d *Decoder) ReadFrames(dst []float32) (int, voice.ReadStatus, error) {
	want := len(dst) / 2
	n := 0

	if d.havePending && n < want {
		dst[0], dst[1] = d.pending[0], d.pending[1]
		d.havePending = false
		n++
	}

	for n < want {
		if d.cur == nil || d.curPos >= int(d.cur.BlockSize) {
			f, err := d.stream.ParseNext()
			if err == io.EOF {
				break
			}
			if err != nil {
				return n, voice.StatusError, err
			}
			d.cur = f
			d.curPos = 0
		}

		for d.curPos < int(d.cur.BlockSize) && n < want {
			var l, r float32
			if d.chans == 1 {
				l = d.scale(d.cur.Subframes[0].Samples[d.curPos])
				r = l
			} else {
				l = d.scale(d.cur.Subframes[0].Samples[d.curPos])
				r = d.scale(d.cur.Subframes[1].Samples[d.curPos])
			}
			d.curPos++

			dst[n*2], dst[n*2+1] = l, r
			n++
			if d.dup {
				if n < want {
					dst[n*2], dst[n*2+1] = l, r
					n++
				} else {
					d.pending = [2]float32{l, r}
					d.havePending = true
				}
			}
		}
	}

	if n == 0 {
		return 0, voice.StatusEOF, nil
	}
	return n, voice.StatusData, nil
}

// Seek repositions the decoder to startSeconds using the stream's seek
// table / binary search (mewkiz/flac.Stream.Seek operates on sample
// index).
func (d *Decoder) Seek(startSeconds float64) error {
	sampleNum := uint64(startSeconds * float64(d.rate))
	if _, err := d.stream.Seek(sampleNum); err != nil {
		return err
	}
	d.cur = nil
	d.curPos = 0
	d.havePending = false
	return nil
}

// Close releases the decoder; the caller owns the underlying reader.
func (d *Decoder) Close() error {
	d.stream.Close()
	d.stream = nil
	return nil
}
