package langid

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"
)

// Hypothesis is the current best guess at the speaker's language.
type Hypothesis struct {
	Code       string
	Confidence float64
	ObservedAt time.Time
}

// TrackerConfig holds the detection gates. Zero values get defaults.
type TrackerConfig struct {
	DefaultLanguage string        // initial hypothesis, default "en"
	MinTextLength   int           // default 10 characters
	Threshold       float64       // confidence to accept a detection, default 0.7
	Cooldown        time.Duration // window in which the cached hypothesis is reused, default 60s
}

// DefaultTrackerConfig returns the default gates.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		DefaultLanguage: "en",
		MinTextLength:   10,
		Threshold:       0.7,
		Cooldown:        60 * time.Second,
	}
}

// Tracker decides from final transcripts whether the spoken-language
// hypothesis should change. Short texts never trigger detection, a recent
// detection is reused for the cooldown window, and low-confidence or failed
// detections retain the previous hypothesis. Once a real hypothesis exists
// the tracker never degrades back to the default on its own.
type Tracker struct {
	mu sync.Mutex

	detector  Detector
	minLength int
	threshold float64
	cooldown  time.Duration

	current       Hypothesis
	lastDetection time.Time

	now func() time.Time
}

// NewTracker creates a tracker over the given detector.
func NewTracker(detector Detector, cfg TrackerConfig) *Tracker {
	def := DefaultTrackerConfig()
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = def.DefaultLanguage
	}
	if cfg.MinTextLength == 0 {
		cfg.MinTextLength = def.MinTextLength
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = def.Cooldown
	}

	t := &Tracker{
		detector:  detector,
		minLength: cfg.MinTextLength,
		threshold: cfg.Threshold,
		cooldown:  cfg.Cooldown,
		now:       time.Now,
	}
	t.current = Hypothesis{Code: cfg.DefaultLanguage, Confidence: 1.0, ObservedAt: t.now()}
	return t
}

// Current returns the active hypothesis.
func (t *Tracker) Current() Hypothesis {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Observe feeds one final transcript through the detection gates and returns
// the (possibly updated) hypothesis. It never fails: on any degradation the
// previous hypothesis is returned unchanged.
func (t *Tracker) Observe(ctx context.Context, text string) Hypothesis {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	if utf8.RuneCountInString(text) < t.minLength {
		return t.current
	}
	if !t.lastDetection.IsZero() && now.Sub(t.lastDetection) < t.cooldown {
		return t.current
	}

	det, err := t.detector.Detect(ctx, text)
	if err != nil {
		slog.Warn("language detection failed, keeping hypothesis",
			"language", t.current.Code, "error", err)
		return t.current
	}
	if det.Confidence <= t.threshold {
		slog.Debug("language detection below threshold",
			"detected", det.Code, "confidence", det.Confidence)
		return t.current
	}

	t.lastDetection = now
	if det.Code != t.current.Code {
		slog.Info("language hypothesis changed",
			"from", t.current.Code, "to", det.Code, "confidence", det.Confidence)
	}
	t.current = Hypothesis{Code: det.Code, Confidence: det.Confidence, ObservedAt: now}
	return t.current
}
