// Package types holds small structs shared across package boundaries.
package types

import "time"

// PipelineStatus is a point-in-time snapshot of the caption pipeline.
type PipelineStatus struct {
	State               string    `json:"state"`
	RecognitionLanguage string    `json:"recognition_language"`
	TargetLanguage      string    `json:"target_language"`
	VisibleLines        int       `json:"visible_lines"`
	StartedAt           time.Time `json:"started_at,omitempty"`
}

// CaptionUpdate is pushed to caption surfaces whenever the visible line set
// changes.
type CaptionUpdate struct {
	Lines []CaptionLine `json:"lines"`
	At    time.Time     `json:"at"`
}

// CaptionLine is one displayed line.
type CaptionLine struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}
