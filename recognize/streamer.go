package recognize

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/stt"
)

// ErrAlreadyStreaming is returned when starting a session that is running.
var ErrAlreadyStreaming = errors.New("recognize: session already streaming")

// ErrNotStreaming is returned when stopping a session that is not running.
var ErrNotStreaming = errors.New("recognize: session not streaming")

// Config holds configuration for a Streamer.
type Config struct {
	Provider    stt.Provider
	SampleRate  int           // default 16000
	Overlap     float64       // chunk overlap fraction, default 0.5
	CallTimeout time.Duration // per-transcription timeout, default 15s
	VAD         VADConfig
}

// Streamer is the streaming recognizer adapter. It segments incoming frames
// with a VAD, transcribes each segment through the provider, and delivers
// interim/final TranscriptEvents serially to a single consumer.
//
// The event callback must not call back into the Streamer; it runs on the
// session's delivery goroutine and Stop joins that goroutine.
type Streamer struct {
	mu sync.Mutex

	provider    stt.Provider
	sampleRate  int
	callTimeout time.Duration
	vad         *VAD
	buf         *utteranceBuffer

	onEvent EventFunc
	onError func(error)

	running   bool
	language  string
	sessionID string
	seq       uint64

	jobs chan transcribeJob
	done chan struct{}
}

// transcribeJob is one extracted audio segment awaiting transcription.
type transcribeJob struct {
	session  string
	samples  []float32
	language string
	final    bool
}

// NewStreamer creates a streaming recognizer over the given provider.
func NewStreamer(cfg Config) (*Streamer, error) {
	if cfg.Provider == nil {
		return nil, errors.New("recognize: provider required")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audiosource.DefaultSampleRate
	}
	if cfg.Overlap == 0 {
		cfg.Overlap = 0.5
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 15 * time.Second
	}

	return &Streamer{
		provider:    cfg.Provider,
		sampleRate:  cfg.SampleRate,
		callTimeout: cfg.CallTimeout,
		vad:         NewVAD(cfg.VAD),
		buf:         newUtteranceBuffer(cfg.SampleRate, cfg.Overlap),
	}, nil
}

// OnEvent registers the single event consumer. Call before Start.
func (s *Streamer) OnEvent(fn EventFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

// OnError registers a callback for transcription failures. Call before Start.
func (s *Streamer) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Start opens a recognition session in the given language. The language
// cannot change while the session is open; callers stop and start a new
// session to reconfigure it.
func (s *Streamer) Start(language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyStreaming
	}

	s.language = language
	s.sessionID = uuid.NewString()
	s.seq = 0
	s.vad.Reset()
	s.buf.Clear()
	s.jobs = make(chan transcribeJob, 8)
	s.done = make(chan struct{})
	s.running = true

	go s.runLoop(s.jobs, s.done)

	slog.Info("recognition session started", "session", s.sessionID, "language", language)
	return nil
}

// Stop closes the session and joins the delivery goroutine. No event is
// delivered after Stop returns.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotStreaming
	}
	s.running = false
	close(s.jobs)
	done := s.done
	session := s.sessionID
	s.mu.Unlock()

	<-done
	slog.Info("recognition session stopped", "session", session)
	return nil
}

// Language returns the language of the current (or last) session.
func (s *Streamer) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// IsStreaming reports whether a session is open.
func (s *Streamer) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// WriteFrame feeds one audio frame into the session. Frames written while
// no session is open are dropped. When the transcription queue is full the
// segment is dropped; recognition is lossy under sustained backlog.
func (s *Streamer) WriteFrame(f audiosource.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.buf.Append(f.Samples)

	cut := s.vad.Process(f.Samples)
	if cut == CutNone {
		return
	}

	samples := s.buf.Extract()
	if len(samples) == 0 {
		return
	}

	j := transcribeJob{
		session:  s.sessionID,
		samples:  samples,
		language: s.language,
		final:    cut == CutFinal,
	}
	select {
	case s.jobs <- j:
	default:
		slog.Warn("transcription queue full, dropping segment",
			"session", s.sessionID, "duration_ms", len(samples)*1000/s.sampleRate)
	}
}

// runLoop transcribes queued segments serially and delivers events in order.
func (s *Streamer) runLoop(jobs chan transcribeJob, done chan struct{}) {
	defer close(done)

	for j := range jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		result, err := s.provider.Transcribe(ctx, j.samples, j.language)
		cancel()

		s.mu.Lock()
		alive := s.running && s.sessionID == j.session

		if err != nil {
			onError := s.onError
			s.mu.Unlock()
			if errors.Is(err, stt.ErrNoSpeech) {
				continue
			}
			slog.Error("transcription failed", "session", j.session, "error", err)
			if alive && onError != nil {
				onError(err)
			}
			continue
		}

		text := cleanTranscript(result.Text)
		if text == "" || !alive || s.onEvent == nil {
			s.mu.Unlock()
			continue
		}

		s.seq++
		ev := TranscriptEvent{
			SessionID:  j.session,
			Seq:        s.seq,
			Text:       text,
			Language:   j.language,
			Confidence: result.Confidence,
			Final:      j.final,
			At:         time.Now(),
		}
		// Delivered under the lock: Stop cannot complete mid-delivery, so
		// no event outlives Stop.
		s.onEvent(ev)
		s.mu.Unlock()
	}
}
