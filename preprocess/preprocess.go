// Package preprocess applies per-frame transforms to captured audio before
// it reaches recognition.
package preprocess

import (
	"github.com/sublive/sublive/audiosource"
)

// Transform mutates or replaces a frame on its way to the recognizer.
// Implementations run on the audio delivery path and must be fast.
type Transform interface {
	Apply(f audiosource.Frame) audiosource.Frame
}

// Passthrough returns frames unchanged. It is the default: proper noise
// suppression is a separate concern and plugs in behind the same interface.
type Passthrough struct{}

// Apply implements Transform.
func (Passthrough) Apply(f audiosource.Frame) audiosource.Frame { return f }

// NoiseGate zeroes samples whose normalized amplitude falls below Threshold.
// A crude substitute for real denoising, but it strips constant low-level hiss.
type NoiseGate struct {
	// Threshold in [0,1] relative to full scale. Default 0.01.
	Threshold float64
}

// DefaultGateThreshold matches the fallback gate level used before real
// noise suppression is plugged in.
const DefaultGateThreshold = 0.01

// Apply implements Transform. The input frame is not modified; gated output
// is written to a fresh sample buffer.
func (g NoiseGate) Apply(f audiosource.Frame) audiosource.Frame {
	threshold := g.Threshold
	if threshold == 0 {
		threshold = DefaultGateThreshold
	}
	gate := int16(threshold * 32768)

	out := make([]int16, len(f.Samples))
	for i, s := range f.Samples {
		if s > gate || s < -gate {
			out[i] = s
		}
	}
	f.Samples = out
	return f
}

// New returns the transform named in configuration. Unknown names fall back
// to passthrough.
func New(name string) Transform {
	switch name {
	case "gate":
		return NoiseGate{}
	default:
		return Passthrough{}
	}
}
