package recognize

import (
	"regexp"
	"strings"
)

var (
	// regexTimestamp matches VTT/SRT style timestamps leaking into output,
	// e.g. [00:00:00.000 --> 00:00:04.000].
	regexTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s-->\s\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// regexArtifact matches non-speech markers like [BLANK_AUDIO] or [MUSIC].
	regexArtifact = regexp.MustCompile(`\[[A-Z_ ]+\]`)
)

// cleanTranscript strips recognizer artifacts. Returns "" when nothing
// speech-like remains, which callers treat as "no transcript".
func cleanTranscript(text string) string {
	text = regexTimestamp.ReplaceAllString(text, "")
	text = regexArtifact.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
