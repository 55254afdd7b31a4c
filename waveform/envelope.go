package waveform

import "math"

// Envelope reduces a decoded buffer to at most count amplitude values
// in [0,1]. Each value is the RMS of one window of the mono-mixed
// signal, normalized by the peak window. A source shorter than count
// frames yields one value per frame, never padding.
func Envelope(buf *Buffer, count int) []float64 {
	return envelope(monoMix(buf), count, nil)
}

// ExtractFromSamples computes an envelope from pre-computed mono
// samples, for callers that already hold decoded data.
func ExtractFromSamples(samples []float64, count int) []float64 {
	return envelope(samples, count, nil)
}

// monoMix averages interleaved channels into a single sequence.
func monoMix(buf *Buffer) []float64 {
	if buf == nil || buf.Channels <= 0 {
		return nil
	}
	if buf.Channels == 1 {
		return buf.Samples
	}
	frames := buf.Frames()
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range buf.Channels {
			sum += buf.Samples[i*buf.Channels+c]
		}
		mono[i] = sum / float64(buf.Channels)
	}
	return mono
}

// envelope computes the windowed RMS envelope. step, when non-nil, is
// called after each window with (done, total); returning false aborts
// and yields nil.
func envelope(mono []float64, count int, step func(done, total int) bool) []float64 {
	frames := len(mono)
	if count <= 0 || frames == 0 {
		return nil
	}
	count = min(count, frames)
	window := frames / count

	out := make([]float64, count)
	peak := 0.0
	for i := range count {
		start := i * window
		end := start + window
		if i == count-1 {
			// Last window absorbs the division remainder.
			end = frames
		}
		sum := 0.0
		for _, v := range mono[start:end] {
			sum += v * v
		}
		rms := math.Sqrt(sum / float64(end-start))
		out[i] = rms
		peak = max(peak, rms)

		if step != nil && !step(i+1, count) {
			return nil
		}
	}

	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}
