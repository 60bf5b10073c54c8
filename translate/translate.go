// Package translate turns final transcripts into target-language caption
// text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sublive/sublive/cache"
)

// Backend performs one translation call.
type Backend interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Result is one translation outcome. On backend failure TranslatedText
// carries the source text so captions degrade to untranslated rather than
// disappearing.
type Result struct {
	SourceText     string
	TranslatedText string
	SourceLang     string
	TargetLang     string
}

// Translator wraps a backend with a target language, result caching, and
// pass-through degradation.
type Translator struct {
	backend Backend
	cache   *cache.Cache // optional

	mu     sync.RWMutex
	target string
}

// New creates a translator. The cache may be nil.
func New(backend Backend, target string, c *cache.Cache) *Translator {
	return &Translator{backend: backend, cache: c, target: target}
}

// Target returns the current target language.
func (t *Translator) Target() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.target
}

// SetTarget changes the target language for subsequent calls. In-flight
// calls keep the target they started with.
func (t *Translator) SetTarget(target string) {
	t.mu.Lock()
	t.target = target
	t.mu.Unlock()
}

// Translate translates text from sourceLang into the configured target.
// Empty or whitespace-only text and source==target both short-circuit
// without touching the backend or the cache. On backend failure the
// returned Result passes the source text through and the error is also
// returned so the caller can report it.
func (t *Translator) Translate(ctx context.Context, text, sourceLang string) (Result, error) {
	target := t.Target()

	res := Result{
		SourceText:     text,
		TranslatedText: text,
		SourceLang:     sourceLang,
		TargetLang:     target,
	}
	if strings.TrimSpace(text) == "" || sourceLang == target {
		return res, nil
	}

	key := cache.Key(text, sourceLang, target)
	if t.cache != nil {
		if cached, err := t.cache.Get(key); err == nil {
			res.TranslatedText = cached
			return res, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("translation cache read failed", "error", err)
		}
	}

	translated, err := t.backend.Translate(ctx, text, sourceLang, target)
	if err != nil {
		return res, fmt.Errorf("translate %s->%s: %w", sourceLang, target, err)
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return res, nil
	}

	res.TranslatedText = translated
	if t.cache != nil {
		if err := t.cache.Set(key, translated); err != nil {
			slog.Warn("translation cache write failed", "error", err)
		}
	}
	return res, nil
}
