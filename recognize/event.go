// Package recognize adapts a batch speech-to-text provider into a streaming
// recognition session emitting interim and final transcript events.
package recognize

import "time"

// TranscriptEvent is one recognition result delivered to the subscribed
// consumer. Interim events (Final == false) are provisional and may be
// superseded; only final events are authoritative.
type TranscriptEvent struct {
	SessionID  string
	Seq        uint64
	Text       string
	Language   string // recognition language in effect when the audio was captured
	Confidence float64
	Final      bool
	At         time.Time
}

// EventFunc receives transcript events. A session delivers events to exactly
// one consumer, serially, and never after Stop has returned.
type EventFunc func(TranscriptEvent)
