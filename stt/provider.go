// Package stt provides the speech-to-text provider interface and the
// Whisper API implementation.
package stt

import "context"

// Result is a transcription of one audio chunk.
type Result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`   // language reported by the service
	Confidence float64 `json:"confidence"` // 0-1, 1.0 when the service reports none
}

// Provider converts audio chunks to text. Implementations are safe for
// concurrent use.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts audio samples to text.
	// audio: PCM float32 samples at 16000 Hz.
	// language: source language code, empty for auto-detect.
	// A service-side "no speech" outcome is an error, never an empty
	// success: callers treat errors as "no transcript".
	Transcribe(ctx context.Context, audio []float32, language string) (*Result, error)

	// Close releases resources held by the provider.
	Close() error
}

// Registry holds registered providers keyed by name.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// Close releases all registered providers.
func (r *Registry) Close() error {
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}
