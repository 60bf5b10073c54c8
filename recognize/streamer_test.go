package recognize

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/stt"
)

// scriptedProvider returns canned results and records calls.
type scriptedProvider struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []string // languages passed to Transcribe
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Transcribe(_ context.Context, _ []float32, language string) (*stt.Result, error) {
	p.mu.Lock()
	p.calls = append(p.calls, language)
	text, err := p.text, p.err
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &stt.Result{Text: text, Language: language, Confidence: 0.9}, nil
}

func (p *scriptedProvider) Close() error { return nil }

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// newTestStreamer wires a streamer with a steppable VAD clock and an event
// capture channel.
func newTestStreamer(t *testing.T, p stt.Provider) (*Streamer, *testClock, chan TranscriptEvent) {
	t.Helper()

	s, err := NewStreamer(Config{Provider: p})
	if err != nil {
		t.Fatalf("NewStreamer: %v", err)
	}

	clock := newTestClock()
	s.vad.now = clock.now

	events := make(chan TranscriptEvent, 16)
	s.OnEvent(func(ev TranscriptEvent) { events <- ev })

	return s, clock, events
}

// speakUtterance drives enough loud-then-silent frames to produce a final cut.
func speakUtterance(s *Streamer, clock *testClock) {
	for i := 0; i < 25; i++ {
		s.WriteFrame(audiosource.Frame{Samples: loudFrame(320)})
		clock.advance(20 * time.Millisecond)
	}
	clock.advance(500 * time.Millisecond)
	s.WriteFrame(audiosource.Frame{Samples: quietFrame(320)})
}

func waitEvent(t *testing.T, events chan TranscriptEvent) TranscriptEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript event")
		return TranscriptEvent{}
	}
}

func TestStreamer_FinalEvent(t *testing.T) {
	p := &scriptedProvider{text: "hello there"}
	s, clock, events := newTestStreamer(t, p)

	if err := s.Start("en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	speakUtterance(s, clock)

	ev := waitEvent(t, events)
	if !ev.Final {
		t.Error("event not final")
	}
	if ev.Text != "hello there" {
		t.Errorf("Text = %q, want %q", ev.Text, "hello there")
	}
	if ev.Language != "en" {
		t.Errorf("Language = %q, want en", ev.Language)
	}
	if ev.Seq != 1 {
		t.Errorf("Seq = %d, want 1", ev.Seq)
	}
	if ev.SessionID == "" {
		t.Error("empty session id")
	}
}

func TestStreamer_StartStopLifecycle(t *testing.T) {
	p := &scriptedProvider{text: "x"}
	s, _, _ := newTestStreamer(t, p)

	if err := s.Stop(); !errors.Is(err, ErrNotStreaming) {
		t.Fatalf("Stop while idle = %v, want ErrNotStreaming", err)
	}
	if err := s.Start("en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start("en"); !errors.Is(err, ErrAlreadyStreaming) {
		t.Fatalf("second Start = %v, want ErrAlreadyStreaming", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Restart with a different language, as the orchestrator does when the
	// detected language changes.
	if err := s.Start("es"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := s.Language(); got != "es" {
		t.Errorf("Language = %q, want es", got)
	}
	s.Stop()
}

func TestStreamer_NoEventsAfterStop(t *testing.T) {
	p := &scriptedProvider{text: "late"}
	s, clock, events := newTestStreamer(t, p)

	if err := s.Start("en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	speakUtterance(s, clock)
	waitEvent(t, events)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Frames written after stop are ignored entirely.
	speakUtterance(s, clock)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event after Stop: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	if got := p.callCount(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestStreamer_ProviderErrorProducesNoEvent(t *testing.T) {
	p := &scriptedProvider{err: errors.New("backend down")}
	s, clock, events := newTestStreamer(t, p)

	var mu sync.Mutex
	var errs []error
	s.OnError(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	})

	if err := s.Start("en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	speakUtterance(s, clock)

	deadline := time.After(2 * time.Second)
	for p.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("provider never called")
		case <-time.After(10 * time.Millisecond):
		}
	}

	select {
	case ev := <-events:
		t.Fatalf("unexpected event on provider failure: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	gotErrs := len(errs)
	mu.Unlock()
	if gotErrs == 0 {
		t.Error("error callback not invoked")
	}
}

func TestStreamer_NoSpeechIsSilent(t *testing.T) {
	p := &scriptedProvider{err: stt.ErrNoSpeech}
	s, clock, events := newTestStreamer(t, p)

	var called atomic.Bool
	s.OnError(func(error) { called.Store(true) })

	if err := s.Start("en"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	speakUtterance(s, clock)
	time.Sleep(100 * time.Millisecond)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
	if called.Load() {
		t.Error("no-speech outcome should not surface as an error")
	}
}

func TestCleanTranscript(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello", "hello"},
		{"  padded  ", "padded"},
		{"[BLANK_AUDIO]", ""},
		{"[00:00:00.000 --> 00:00:04.000] hi", "hi"},
		{"[MUSIC] lyrics", "lyrics"},
	}

	for _, tt := range tests {
		if got := cleanTranscript(tt.in); got != tt.want {
			t.Errorf("cleanTranscript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
