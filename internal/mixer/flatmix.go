package mixer

import "github.com/faun-audio/faun/internal/voice"

// flatEntry is one non-fading source's input pointer and fixed per-channel
// gain for the current fragment.
type flatEntry struct {
	samples []float32
	gainL   float32
	gainR   float32
}

// mixFlatAll dispatches to the 4-, 2-, and 1-source unrolled variants,
// writing the first group directly to dst and accumulating every
// subsequent group. An empty entries list zeroes dst (dst is already
// zeroed by the caller, so there is nothing further to do).
func mixFlatAll(dst []float32, entries []flatEntry, n int) {
	if len(entries) == 0 {
		return
	}
	accum := false
	i := 0
	for len(entries)-i >= 4 {
		mixFlat4(dst, entries[i], entries[i+1], entries[i+2], entries[i+3], n, accum)
		accum = true
		i += 4
	}
	for len(entries)-i >= 2 {
		mixFlat2(dst, entries[i], entries[i+1], n, accum)
		accum = true
		i += 2
	}
	for i < len(entries) {
		mixFlat1(dst, entries[i], n, accum)
		accum = true
		i++
	}
}

func mixFlat4(dst []float32, a, b, c, d flatEntry, n int, accum bool) {
	if accum {
		for i := 0; i < n; i++ {
			dst[i*2] += a.samples[i*2]*a.gainL + b.samples[i*2]*b.gainL + c.samples[i*2]*c.gainL + d.samples[i*2]*d.gainL
			dst[i*2+1] += a.samples[i*2+1]*a.gainR + b.samples[i*2+1]*b.gainR + c.samples[i*2+1]*c.gainR + d.samples[i*2+1]*d.gainR
		}
		return
	}
	for i := 0; i < n; i++ {
		dst[i*2] = a.samples[i*2]*a.gainL + b.samples[i*2]*b.gainL + c.samples[i*2]*c.gainL + d.samples[i*2]*d.gainL
		dst[i*2+1] = a.samples[i*2+1]*a.gainR + b.samples[i*2+1]*b.gainR + c.samples[i*2+1]*c.gainR + d.samples[i*2+1]*d.gainR
	}
}

func mixFlat2(dst []float32, a, b flatEntry, n int, accum bool) {
	if accum {
		for i := 0; i < n; i++ {
			dst[i*2] += a.samples[i*2]*a.gainL + b.samples[i*2]*b.gainL
			dst[i*2+1] += a.samples[i*2+1]*a.gainR + b.samples[i*2+1]*b.gainR
		}
		return
	}
	for i := 0; i < n; i++ {
		dst[i*2] = a.samples[i*2]*a.gainL + b.samples[i*2]*b.gainL
		dst[i*2+1] = a.samples[i*2+1]*a.gainR + b.samples[i*2+1]*b.gainR
	}
}

func mixFlat1(dst []float32, a flatEntry, n int, accum bool) {
	if accum {
		for i := 0; i < n; i++ {
			dst[i*2] += a.samples[i*2] * a.gainL
			dst[i*2+1] += a.samples[i*2+1] * a.gainR
		}
		return
	}
	for i := 0; i < n; i++ {
		dst[i*2] = a.samples[i*2] * a.gainL
		dst[i*2+1] = a.samples[i*2+1] * a.gainR
	}
}

// mixFadeOverlay applies the envelope-stepping mixer: accumulate src's
// current gain per frame, then step it toward its target, clamping and
// clearing the fade delta on arrival. When both channels have cleared and
// the source carries EndAfterFade, endPos is set to force deactivation at
// the next advancement.
func mixFadeOverlay(dst []float32, src *voice.Source, samples []float32, n int) {
	for i := 0; i < n; i++ {
		dst[i*2] += samples[i*2] * src.GainL
		dst[i*2+1] += samples[i*2+1] * src.GainR

		if src.FadeL != 0 {
			src.GainL += src.FadeL
			if (src.FadeL > 0 && src.GainL >= src.TargetL) || (src.FadeL < 0 && src.GainL <= src.TargetL) {
				src.GainL = src.TargetL
				src.FadeL = 0
			}
		}
		if src.FadeR != 0 {
			src.GainR += src.FadeR
			if (src.FadeR > 0 && src.GainR >= src.TargetR) || (src.FadeR < 0 && src.GainR <= src.TargetR) {
				src.GainR = src.TargetR
				src.FadeR = 0
			}
		}
	}

	if src.FadeL == 0 && src.FadeR == 0 && src.Mode&voice.EndAfterFade != 0 {
		src.EndPos = src.FramesOut
	}
}
