package voice

import "github.com/faun-audio/faun/internal/pcmbuf"

// streamBufSeconds is the quarter-second sizing rule ("each 1/4 second
// rounded up to a multiple of 8 frames").
const streamBufSeconds = 0.25

// Stream is a Source plus a streaming-decode front end.
type Stream struct {
	*Source

	dec  Decoder
	bufs [QueueCapacity]*pcmbuf.Buffer // the stream's own 4 decode buffers

	feed        bool
	sampleCount int64
	sampleLimit int64 // Never (-1) = unlimited
	segmentStart float64 // seconds, replayed on loop restart
}

// NewStream returns an idle Stream configured for the given mix rate.
func NewStream(mixRate int) *Stream {
	return &Stream{
		Source:      NewSource(mixRate),
		sampleLimit: Never,
	}
}

// Open attaches dec as the stream's decode source. Any previously open
// decoder is left to the caller to close.
func (st *Stream) Open(dec Decoder) {
	st.dec = dec
}

// Decoder returns the currently attached decoder, or nil.
func (st *Stream) Decoder() Decoder { return st.dec }

func (st *Stream) ensureBuffers() {
	if st.bufs[0] != nil {
		return
	}
	frames := int(streamBufSeconds * float64(st.MixRate))
	if rem := frames % 8; rem != 0 {
		frames += 8 - rem
	}
	for i := range st.bufs {
		st.bufs[i] = pcmbuf.New(pcmbuf.FormatF32, 2, st.MixRate, frames)
	}
}

// Start primes the stream's 4 decode buffers, marks feed enabled, and
// fills as much as the decoder will immediately give. If any frames were
// produced, the source becomes Playing with playPos = framesOut = 0.
func (st *Stream) Start() bool {
	st.ensureBuffers()

	st.bufferQueue = [QueueCapacity]*pcmbuf.Buffer{}
	for i, b := range st.bufs {
		st.bufferQueue[i] = b
	}
	st.qhead = 0
	st.qtail = 0
	st.qactive = NoActive
	st.bufUsed = QueueCapacity
	st.feed = true

	st.fillBuffers()

	produced := st.qactive != NoActive
	if produced {
		st.State = StatePlaying
		st.PlayPos = 0
		st.FramesOut = 0
	}
	return produced
}

// Stop marks the source Stopped, disables further decode, and closes the
// decoder if open.
func (st *Stream) Stop() {
	st.State = StateStopped
	st.feed = false
	if st.dec != nil {
		_ = st.dec.Close()
		st.dec = nil
	}
}

// PlayStreamPart resets for a bounded playback window: start seconds into
// the stream, for duration seconds.
func (st *Stream) PlayStreamPart(start, duration float64, mode int) error {
	st.sampleCount = 0
	st.sampleLimit = int64(duration * float64(st.MixRate))
	st.Mode = mode
	st.segmentStart = start
	if st.dec != nil {
		if err := st.dec.Seek(start); err != nil {
			return err
		}
	}
	st.Start()
	return nil
}

// fillBuffers decodes into every currently-finished slot. At most one
// retry-on-same-slot happens per Eof+loop-with-no-data case.
func (st *Stream) fillBuffers() {
	for {
		buf, ok := st.ProcessedBuffer()
		if !ok {
			return
		}
		if !st.feed || st.dec == nil {
			return
		}

		n, status, err := st.readOnce(buf)
		_ = err

		switch status {
		case StatusError:
			st.closeDecoder()
			return

		case StatusEOF:
			if n > 0 {
				// The final read produced trailing data alongside Eof; it
				// belongs to the segment that just ended and must still be
				// queued before any loop restart.
				st.queueDecoded(buf, n)
				buf = nil
			}

			if st.Mode&PlayLoop != 0 {
				seekErr := st.dec.Seek(st.segmentStart)
				st.sampleCount = 0
				if seekErr == nil && buf != nil {
					// Retry the same still-free slot once: the seek may
					// yield data immediately on the next read.
					n2, status2, err2 := st.readOnce(buf)
					_ = err2
					if status2 == StatusError {
						st.closeDecoder()
						return
					}
					if n2 > 0 {
						st.queueDecoded(buf, n2)
					} else {
						// Still nothing after the seek: put the slot back at
						// the head so the next Refill retries it.
						st.qhead = (st.qhead + QueueCapacity - 1) % QueueCapacity
						st.bufferQueue[st.qhead] = buf
						st.bufUsed++
						return
					}
				}
				continue
			}
			if st.sampleLimit != Never {
				// Let the already-queued buffers finish playback; this
				// slot (if still unqueued) stays unqueued.
				st.feed = false
				return
			}
			st.closeDecoder()
			return

		case StatusData:
			st.queueDecoded(buf, n)
		}
	}
}

func (st *Stream) readOnce(buf *pcmbuf.Buffer) (int, ReadStatus, error) {
	return st.dec.ReadFrames(buf.Samples[:buf.Avail()*2])
}

func (st *Stream) closeDecoder() {
	st.feed = false
	if st.dec != nil {
		_ = st.dec.Close()
	}
}

// queueDecoded applies the sampleLimit-truncation rule before re-queuing
// buf with n freshly-decoded frames.
func (st *Stream) queueDecoded(buf *pcmbuf.Buffer, n int) {
	st.sampleCount += int64(n)

	if st.sampleLimit != Never && st.sampleCount >= st.sampleLimit {
		excess := st.sampleCount - st.sampleLimit
		keep := int64(n) - excess
		st.sampleCount = st.sampleLimit
		if keep <= 0 {
			// The excess wipes out this buffer's data entirely: drop it.
			st.feed = false
			return
		}
		buf.SetUsed(int(keep))
		st.feed = false
		_ = st.Queue(buf)
		return
	}

	buf.SetUsed(n)
	_ = st.Queue(buf)
}

// NeedsRefill reports whether the stream is at least one-buffer-empty at
// the head and playing — the mixer's trigger to call fillBuffers. bufUsed
// only ever drops inside fillBuffers itself (ProcessedBuffer/Queue), so it
// can't be used as the outside trigger; qactive sitting ahead of qhead
// means there's a finished slot waiting to be handed back to the decoder.
func (st *Stream) NeedsRefill() bool {
	return st.State == StatePlaying && st.qactive != st.qhead
}

// Feeding reports whether the decoder may still produce data. The mixer
// uses this to stop hammering a starved stream whose decoder has hit a
// terminal EOF/Error with no loop to fall back on.
func (st *Stream) Feeding() bool { return st.feed }

// Refill is the mixer-facing entry point for the per-tick "fill as
// needed" step.
func (st *Stream) Refill() {
	if st.feed {
		st.fillBuffers()
	}
}
