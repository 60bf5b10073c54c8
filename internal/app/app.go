// Package app assembles the caption pipeline from configuration.
package app

import (
	"fmt"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/cache"
	"github.com/sublive/sublive/caption"
	"github.com/sublive/sublive/config"
	"github.com/sublive/sublive/langid"
	"github.com/sublive/sublive/pipeline"
	"github.com/sublive/sublive/preprocess"
	"github.com/sublive/sublive/recognize"
	"github.com/sublive/sublive/stt"
	"github.com/sublive/sublive/translate"
)

// App owns the assembled pipeline and the resources behind it.
type App struct {
	Pipeline *pipeline.Pipeline
	Renderer *caption.Renderer
	Source   audiosource.Source

	provider stt.Provider
	cache    *cache.Cache
}

// Build constructs every adapter from cfg and wires the pipeline. On any
// failure the partially built resources are released and the error reports
// which adapter failed.
func Build(cfg *config.Config) (*App, error) {
	a := &App{}

	provider, err := stt.NewWhisper(stt.WhisperConfig{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
		Model:   cfg.Speech.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("speech provider: %w", err)
	}
	a.provider = provider

	streamer, err := recognize.NewStreamer(recognize.Config{Provider: provider})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("recognizer: %w", err)
	}

	source, err := newSource(cfg.AudioSource)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("audio source: %w", err)
	}
	a.Source = source

	detector, err := langid.NewLingua(nil)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("language detector: %w", err)
	}
	tracker := langid.NewTracker(detector, langid.TrackerConfig{
		DefaultLanguage: cfg.DefaultLanguage,
		MinTextLength:   cfg.MinDetectionTextLength,
		Threshold:       cfg.DetectionConfidenceThreshold,
		Cooldown:        cfg.DetectionCooldown(),
	})

	backend, err := translate.NewOpenAI(translate.OpenAIConfig{
		APIKey:  cfg.Translate.APIKey,
		BaseURL: cfg.Translate.BaseURL,
		Model:   cfg.Translate.Model,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("translation backend: %w", err)
	}

	var translationCache *cache.Cache
	if cfg.Translate.CacheDir != "" {
		translationCache, err = cache.Open(cfg.Translate.CacheDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("translation cache: %w", err)
		}
		a.cache = translationCache
	}
	translator := translate.New(backend, cfg.TargetLanguage, translationCache)

	a.Renderer = caption.NewRenderer(caption.Config{
		MaxLines:    cfg.MaxVisibleLines,
		FadeTimeout: cfg.FadeTimeout(),
	})

	pipe, err := pipeline.New(pipeline.Config{
		Source:          source,
		Transform:       preprocess.New(cfg.Preprocess),
		Recognizer:      streamer,
		Tracker:         tracker,
		Translator:      translator,
		Renderer:        a.Renderer,
		DefaultLanguage: cfg.DefaultLanguage,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := pipe.Initialize(); err != nil {
		a.Close()
		return nil, err
	}
	a.Pipeline = pipe

	return a, nil
}

// Close releases the resources behind the pipeline. The pipeline itself
// must already be stopped.
func (a *App) Close() error {
	var firstErr error
	if a.provider != nil {
		if err := a.provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newSource(kind string) (audiosource.Source, error) {
	switch kind {
	case "", "mic":
		return audiosource.NewMicrophone(audiosource.MicConfig{})
	case "meeting":
		// The feed starts producing frames once a remote track is attached
		// through the control API.
		return audiosource.NewMeetingFeed(audiosource.MeetingConfig{})
	default:
		return nil, fmt.Errorf("unknown audio source %q", kind)
	}
}
