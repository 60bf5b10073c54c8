// Package audiosource provides PCM audio sources for the caption pipeline.
// A source delivers fixed-cadence frames of 16 kHz mono signed 16-bit audio
// to registered callbacks between Start and Stop.
package audiosource

import (
	"errors"
	"time"
)

// DefaultSampleRate is the pipeline-wide capture rate. 16 kHz is what
// speech recognition expects.
const DefaultSampleRate = 16000

// ErrNotCapturing is returned when stopping a source that is not started.
var ErrNotCapturing = errors.New("audiosource: not capturing")

// ErrAlreadyCapturing is returned when starting a source twice.
var ErrAlreadyCapturing = errors.New("audiosource: already capturing")

// ErrUnsupported is returned when no capture backend exists for this platform.
var ErrUnsupported = errors.New("audiosource: platform not supported")

// Frame is one chunk of captured audio. Samples are mono signed 16-bit PCM.
// Seq increases monotonically per source session; Arrived is the delivery time.
// A frame is owned by the stage currently processing it and must not be
// retained past that stage.
type Frame struct {
	Samples []int16
	Seq     uint64
	Arrived time.Time
}

// Duration returns the play time of the frame at the given sample rate.
func (f Frame) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(sampleRate)
}

// FrameFunc receives frames while a source is started. Implementations must
// return quickly; sources deliver fire-and-forget and do not buffer for slow
// consumers.
type FrameFunc func(Frame)

// Source is implemented by the microphone capture and the meeting feed.
// After Stop returns, no further frames are delivered.
type Source interface {
	Start() error
	Stop() error
	OnFrame(fn FrameFunc)
	SampleRate() int
}
