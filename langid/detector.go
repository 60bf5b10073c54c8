// Package langid tracks the active spoken-language hypothesis from final
// transcripts.
package langid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detection is one language identification result.
type Detection struct {
	Code       string  // ISO 639-1, lowercase
	Confidence float64 // 0-1
}

// Detector identifies the language of a text sample.
type Detector interface {
	Detect(ctx context.Context, text string) (Detection, error)
}

// ErrUndetermined is returned when no language could be identified.
var ErrUndetermined = errors.New("langid: language undetermined")

// linguaByCode maps the supported ISO 639-1 codes to lingua languages.
var linguaByCode = map[string]lingua.Language{
	"en": lingua.English,
	"es": lingua.Spanish,
	"fr": lingua.French,
	"de": lingua.German,
	"it": lingua.Italian,
	"pt": lingua.Portuguese,
	"ru": lingua.Russian,
	"ja": lingua.Japanese,
	"ko": lingua.Korean,
	"zh": lingua.Chinese,
}

// SupportedCodes returns the detectable ISO 639-1 codes, sorted.
func SupportedCodes() []string {
	codes := make([]string, 0, len(linguaByCode))
	for c := range linguaByCode {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Lingua is a local, in-process Detector built on the lingua-go n-gram
// models. No network round trip, so detection never adds caption latency.
type Lingua struct {
	detector lingua.LanguageDetector
}

// NewLingua creates a detector restricted to the given ISO 639-1 codes.
// An empty list enables every supported code.
func NewLingua(codes []string) (*Lingua, error) {
	if len(codes) == 0 {
		codes = SupportedCodes()
	}

	languages := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		lang, ok := linguaByCode[strings.ToLower(code)]
		if !ok {
			return nil, fmt.Errorf("langid: unsupported language code %q", code)
		}
		languages = append(languages, lang)
	}
	if len(languages) < 2 {
		return nil, errors.New("langid: need at least two candidate languages")
	}

	return &Lingua{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}, nil
}

// Detect implements Detector.
func (l *Lingua) Detect(ctx context.Context, text string) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	values := l.detector.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return Detection{}, ErrUndetermined
	}

	best := values[0]
	return Detection{
		Code:       strings.ToLower(best.Language().IsoCode639_1().String()),
		Confidence: best.Value(),
	}, nil
}
