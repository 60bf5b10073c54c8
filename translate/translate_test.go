package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/sublive/sublive/cache"
)

// scriptedBackend returns canned translations and counts calls.
type scriptedBackend struct {
	out   string
	err   error
	calls int
}

func (b *scriptedBackend) Translate(_ context.Context, text, _, _ string) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	if b.out != "" {
		return b.out, nil
	}
	return "<" + text + ">", nil
}

func TestTranslator_Translate(t *testing.T) {
	b := &scriptedBackend{out: "hola mundo"}
	tr := New(b, "es", nil)

	res, err := tr.Translate(context.Background(), "hello world", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.TranslatedText != "hola mundo" {
		t.Errorf("TranslatedText = %q, want %q", res.TranslatedText, "hola mundo")
	}
	if res.SourceText != "hello world" || res.SourceLang != "en" || res.TargetLang != "es" {
		t.Errorf("unexpected result fields: %+v", res)
	}
	if b.calls != 1 {
		t.Errorf("backend calls = %d, want 1", b.calls)
	}
}

func TestTranslator_SameLanguageShortCircuits(t *testing.T) {
	b := &scriptedBackend{}
	tr := New(b, "en", nil)

	res, err := tr.Translate(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.TranslatedText != "hello" {
		t.Errorf("TranslatedText = %q, want source text", res.TranslatedText)
	}
	if b.calls != 0 {
		t.Errorf("backend calls = %d, want 0", b.calls)
	}
}

func TestTranslator_EmptyTextShortCircuits(t *testing.T) {
	b := &scriptedBackend{}
	tr := New(b, "es", nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		res, err := tr.Translate(context.Background(), text, "en")
		if err != nil {
			t.Fatalf("Translate(%q): %v", text, err)
		}
		if res.TranslatedText != text {
			t.Errorf("TranslatedText = %q, want %q", res.TranslatedText, text)
		}
	}
	if b.calls != 0 {
		t.Errorf("backend calls = %d, want 0", b.calls)
	}
}

func TestTranslator_FailurePassesThrough(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	b := &scriptedBackend{err: backendErr}
	tr := New(b, "es", nil)

	res, err := tr.Translate(context.Background(), "hello", "en")
	if !errors.Is(err, backendErr) {
		t.Fatalf("err = %v, want wrapped backend error", err)
	}
	if res.TranslatedText != "hello" {
		t.Errorf("TranslatedText = %q, want source text on failure", res.TranslatedText)
	}
}

func TestTranslator_CacheHitSkipsBackend(t *testing.T) {
	c, err := cache.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer c.Close()

	b := &scriptedBackend{out: "bonjour"}
	tr := New(b, "fr", c)

	if _, err := tr.Translate(context.Background(), "hello", "en"); err != nil {
		t.Fatalf("first Translate: %v", err)
	}
	res, err := tr.Translate(context.Background(), "hello", "en")
	if err != nil {
		t.Fatalf("second Translate: %v", err)
	}
	if res.TranslatedText != "bonjour" {
		t.Errorf("TranslatedText = %q, want cached %q", res.TranslatedText, "bonjour")
	}
	if b.calls != 1 {
		t.Errorf("backend calls = %d, want 1 (second served from cache)", b.calls)
	}
}

func TestTranslator_SetTarget(t *testing.T) {
	b := &scriptedBackend{}
	tr := New(b, "es", nil)

	tr.SetTarget("fr")
	if got := tr.Target(); got != "fr" {
		t.Fatalf("Target = %q, want fr", got)
	}

	res, err := tr.Translate(context.Background(), "hello there", "en")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.TargetLang != "fr" {
		t.Errorf("TargetLang = %q, want fr", res.TargetLang)
	}
}

func TestLanguageName(t *testing.T) {
	if got := languageName("es"); got != "Spanish" {
		t.Errorf("languageName(es) = %q", got)
	}
	if got := languageName("xx"); got != "xx" {
		t.Errorf("languageName(xx) = %q, want pass-through", got)
	}
}
