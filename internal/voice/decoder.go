package voice

// ReadStatus classifies the outcome of one Decoder.ReadFrames call.
type ReadStatus int

const (
	StatusData ReadStatus = iota
	StatusEOF
	StatusError
)

// Metadata describes a decoder's stream at open time.
type Metadata struct {
	Channels    int
	Rate        int
	TotalFrames int64 // 0 = unknown
}

// Decoder is the pluggable container/codec collaborator. It is used both
// on the caller thread (loadBuffer, one-shot decode) and on the worker
// thread (Stream refills). Implementations must already yield interleaved
// stereo float32 frames at the voice mix rate — the mono→stereo and
// half-rate-doubling conversions are the Decoder's responsibility in both
// uses; loadBuffer stores what the decoder yields as a stereo buffer at the
// mix rate.
type Decoder interface {
	// ReadFrames fills dst (interleaved stereo float32, len a multiple of
	// 2) and returns the number of frames written and the outcome status.
	ReadFrames(dst []float32) (n int, status ReadStatus, err error)
	// Seek repositions the decoder to startSeconds.
	Seek(startSeconds float64) error
	// Close releases decoder resources.
	Close() error
}

// OpenFunc opens a Decoder over some caller-supplied handle, given a byte
// offset and size within it, returning stream Metadata alongside.
type OpenFunc func(offset, size int64) (Decoder, Metadata, error)
