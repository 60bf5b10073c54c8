package recognize

// utteranceBuffer accumulates PCM for the currently open utterance. On
// extraction it keeps a configurable overlap so consecutive chunks share
// context at the boundary. Not safe for concurrent use; the Streamer
// serializes access.
type utteranceBuffer struct {
	samples    []int16
	overlap    float64 // fraction retained after Extract, 0-1
	sampleRate int
}

func newUtteranceBuffer(sampleRate int, overlap float64) *utteranceBuffer {
	return &utteranceBuffer{
		samples:    make([]int16, 0, sampleRate*30),
		overlap:    overlap,
		sampleRate: sampleRate,
	}
}

func (b *utteranceBuffer) Append(samples []int16) {
	b.samples = append(b.samples, samples...)
}

// Extract returns the buffered audio as float32 for the provider and trims
// the buffer down to the overlap window.
func (b *utteranceBuffer) Extract() []float32 {
	if len(b.samples) == 0 {
		return nil
	}

	out := make([]float32, len(b.samples))
	for i, s := range b.samples {
		out[i] = float32(s) / 32768
	}

	keep := int(float64(len(b.samples)) * b.overlap)
	if keep > 0 && keep < len(b.samples) {
		copy(b.samples, b.samples[len(b.samples)-keep:])
		b.samples = b.samples[:keep]
	} else {
		b.samples = b.samples[:0]
	}

	return out
}

func (b *utteranceBuffer) Clear() {
	b.samples = b.samples[:0]
}

func (b *utteranceBuffer) Len() int {
	return len(b.samples)
}

// DurationMs returns the buffered audio length in milliseconds.
func (b *utteranceBuffer) DurationMs() int64 {
	if b.sampleRate == 0 {
		return 0
	}
	return int64(len(b.samples)) * 1000 / int64(b.sampleRate)
}
