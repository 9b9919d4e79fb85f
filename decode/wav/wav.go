// Package wav implements a reference RIFF/WAVE Decoder over
// github.com/go-audio/wav, supporting PCM-S16 and IEEE float input at
// 22,050 or 44,100 Hz, mono or stereo — the formats the default decode
// collaborator must recognize.
package wav

import (
	"errors"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/faun-audio/faun/internal/pcmbuf"
	"github.com/faun-audio/faun/internal/voice"
)

// ErrUnsupportedFormat is returned for sample rates other than 22,050 Hz
// or 44,100 Hz, or channel counts other than mono/stereo.
var ErrUnsupportedFormat = errors.New("wav: unsupported rate/channel layout")

// Decoder decodes a whole RIFF/WAVE stream up front into stereo float
// samples at the engine's mix rate, then serves ReadFrames/Seek against
// that in-memory slab.
type Decoder struct {
	samples []float32 // interleaved stereo float, at mixRate
	pos     int        // frame index
	mixRate int
}

// Open decodes r fully and returns a Decoder plus its source Metadata
// (channels/rate as found in the file, before conversion).
func Open(r io.ReadSeeker, mixRate int) (*Decoder, voice.Metadata, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, voice.Metadata{}, errors.New("wav: not a valid RIFF/WAVE file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, voice.Metadata{}, err
	}

	rate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	if channels != 1 && channels != 2 {
		return nil, voice.Metadata{}, ErrUnsupportedFormat
	}
	if rate != pcmbuf.HalfRate && rate != pcmbuf.DefaultRate {
		return nil, voice.Metadata{}, ErrUnsupportedFormat
	}

	src := pcmbufFromIntBuffer(buf, channels, rate)
	converted := pcmbuf.ToVoice(src, mixRate)

	meta := voice.Metadata{Channels: channels, Rate: rate, TotalFrames: int64(buf.NumFrames())}
	return &Decoder{samples: converted.Samples[:converted.Used()*2], mixRate: mixRate}, meta, nil
}

// pcmbufFromIntBuffer copies go-audio's IntBuffer into a pcmbuf.Buffer,
// scaling by its declared bit depth.
func pcmbufFromIntBuffer(buf *goaudio.IntBuffer, channels, rate int) *pcmbuf.Buffer {
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	format := pcmbuf.FormatS16
	switch bitDepth {
	case 8:
		format = pcmbuf.FormatU8
	case 24:
		format = pcmbuf.FormatS24
	}

	frames := len(buf.Data) / channels
	dst := pcmbuf.New(format, channels, rate, frames)
	dst.SetUsed(frames)

	scale := float32(1 << (bitDepth - 1))
	for i := 0; i < frames; i++ {
		f := dst.Frame(i)
		for c := 0; c < channels; c++ {
			f[c] = float32(buf.Data[i*channels+c]) / scale
		}
	}
	// dst.Format is already provenance-only; samples here are pre-scaled to
	// [-1, 1], so ToVoice must treat them as F32 rather than re-scaling.
	dst.Format = pcmbuf.FormatF32
	return dst
}

// ReadFrames copies pre-decoded samples into dst.
func (d *Decoder) ReadFrames(dst []float32) (int, voice.ReadStatus, error) {
	avail := len(d.samples)/2 - d.pos
	if avail <= 0 {
		return 0, voice.StatusEOF, nil
	}
	n := len(dst) / 2
	if n > avail {
		n = avail
	}
	copy(dst[:n*2], d.samples[d.pos*2:(d.pos+n)*2])
	d.pos += n
	if d.pos >= len(d.samples)/2 {
		return n, voice.StatusEOF, nil
	}
	return n, voice.StatusData, nil
}

// Seek repositions to startSeconds, clamped to the decoded length.
func (d *Decoder) Seek(startSeconds float64) error {
	pos := int(startSeconds * float64(d.mixRate))
	total := len(d.samples) / 2
	if pos < 0 {
		pos = 0
	}
	if pos > total {
		pos = total
	}
	d.pos = pos
	return nil
}

// Close releases the decoded sample buffer.
func (d *Decoder) Close() error {
	d.samples = nil
	return nil
}
