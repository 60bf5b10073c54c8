package recognize

import (
	"math"
	"time"
)

// VAD (voice activity detector) segments the incoming PCM stream into
// utterances by tracking energy over time.
type VAD struct {
	threshold float64 // RMS threshold on normalized amplitude

	minSpeechDur time.Duration // minimum speech before an utterance counts
	maxSpeechDur time.Duration // force an interim cut after this long
	silenceDur   time.Duration // silence that ends an utterance
	minInterval  time.Duration // minimum spacing between triggers

	inSpeech    bool
	speechStart time.Time
	lastSpeech  time.Time
	lastTrigger time.Time

	now func() time.Time
}

// VADConfig holds detector thresholds. Zero values get defaults.
type VADConfig struct {
	Threshold    float64
	MinSpeechDur time.Duration
	MaxSpeechDur time.Duration
	SilenceDur   time.Duration
	MinInterval  time.Duration
}

// DefaultVADConfig returns thresholds tuned for low-latency captioning.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		Threshold:    0.015,
		MinSpeechDur: 300 * time.Millisecond,
		MaxSpeechDur: 5 * time.Second,
		SilenceDur:   400 * time.Millisecond,
		MinInterval:  300 * time.Millisecond,
	}
}

// NewVAD creates a detector.
func NewVAD(cfg VADConfig) *VAD {
	def := DefaultVADConfig()
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.MinSpeechDur == 0 {
		cfg.MinSpeechDur = def.MinSpeechDur
	}
	if cfg.MaxSpeechDur == 0 {
		cfg.MaxSpeechDur = def.MaxSpeechDur
	}
	if cfg.SilenceDur == 0 {
		cfg.SilenceDur = def.SilenceDur
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = def.MinInterval
	}

	return &VAD{
		threshold:    cfg.Threshold,
		minSpeechDur: cfg.MinSpeechDur,
		maxSpeechDur: cfg.MaxSpeechDur,
		silenceDur:   cfg.SilenceDur,
		minInterval:  cfg.MinInterval,
		now:          time.Now,
	}
}

// Cut describes a transcription trigger produced by Process.
type Cut int

const (
	CutNone    Cut = iota // keep accumulating
	CutInterim            // utterance still open, transcribe what we have
	CutFinal              // utterance ended
)

// Process consumes one frame of samples and reports whether the accumulated
// audio should be transcribed now.
func (v *VAD) Process(samples []int16) Cut {
	now := v.now()

	if rms(samples) > v.threshold {
		if !v.inSpeech {
			v.inSpeech = true
			v.speechStart = now
		}
		v.lastSpeech = now
	}

	if !v.inSpeech {
		return CutNone
	}

	speechDur := now.Sub(v.speechStart)
	silenceDur := now.Sub(v.lastSpeech)

	var cut Cut
	switch {
	case silenceDur > v.silenceDur && speechDur > v.minSpeechDur:
		cut = CutFinal
		v.inSpeech = false
	case speechDur > v.maxSpeechDur:
		// Long continuous speech: emit an interim cut, stay in speech.
		cut = CutInterim
		v.speechStart = now
	default:
		return CutNone
	}

	if now.Sub(v.lastTrigger) < v.minInterval {
		return CutNone
	}
	v.lastTrigger = now
	return cut
}

// InSpeech reports whether an utterance is currently open.
func (v *VAD) InSpeech() bool {
	return v.inSpeech
}

// Reset clears all detector state.
func (v *VAD) Reset() {
	v.inSpeech = false
	v.speechStart = time.Time{}
	v.lastSpeech = time.Time{}
	v.lastTrigger = time.Time{}
}

// rms computes the root mean square of samples normalized to [-1, 1].
func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
