// Package pipeline orchestrates audio capture, streaming recognition,
// language tracking, translation, and caption rendering.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sublive/sublive/audiosource"
	"github.com/sublive/sublive/caption"
	"github.com/sublive/sublive/internal/types"
	"github.com/sublive/sublive/langid"
	"github.com/sublive/sublive/preprocess"
	"github.com/sublive/sublive/recognize"
	"github.com/sublive/sublive/translate"
)

// Recognizer is the streaming recognition session the pipeline drives.
// *recognize.Streamer implements it.
type Recognizer interface {
	Start(language string) error
	Stop() error
	Language() string
	WriteFrame(f audiosource.Frame)
	OnEvent(fn recognize.EventFunc)
	OnError(fn func(error))
}

// Config holds the pipeline's collaborators and tunables.
type Config struct {
	Source     audiosource.Source
	Transform  preprocess.Transform // optional, defaults to passthrough
	Recognizer Recognizer
	Tracker    *langid.Tracker
	Translator *translate.Translator
	Renderer   *caption.Renderer

	// DefaultLanguage is the recognition locale for new sessions, e.g.
	// "en-US". Defaults to "en".
	DefaultLanguage string
	// TranslateTimeout bounds one translation call. Defaults to 10s.
	TranslateTimeout time.Duration
	// QueueSize bounds the final-transcript queue. Defaults to 32.
	QueueSize int
}

// Pipeline owns the capture-to-caption flow. Final transcripts are drained
// by a single worker goroutine, so captions appear in exactly the order the
// transcripts arrived.
type Pipeline struct {
	source     audiosource.Source
	transform  preprocess.Transform
	rec        Recognizer
	tracker    *langid.Tracker
	translator *translate.Translator
	renderer   *caption.Renderer

	translateTimeout time.Duration
	queueSize        int

	mu        sync.RWMutex
	state     State
	recLang   string
	startedAt time.Time

	// recMu serializes recognition session stop/start between the worker's
	// language reconfiguration and Stop.
	recMu sync.Mutex

	qmu        sync.Mutex
	queue      chan recognize.TranscriptEvent
	workerDone chan struct{}

	cbMu      sync.RWMutex
	onState   []func(State)
	onPreview []func(recognize.TranscriptEvent)
	onError   []func(error)
}

// New creates a pipeline in the Idle state.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("%w: audio source required", ErrAdapterInit)
	}
	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("%w: recognizer required", ErrAdapterInit)
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("%w: language tracker required", ErrAdapterInit)
	}
	if cfg.Translator == nil {
		return nil, fmt.Errorf("%w: translator required", ErrAdapterInit)
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("%w: caption renderer required", ErrAdapterInit)
	}
	if cfg.Transform == nil {
		cfg.Transform = preprocess.Passthrough{}
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = "en"
	}
	// Store the locale form so hypothesis comparisons are stable.
	cfg.DefaultLanguage = langid.RecognitionLocale(cfg.DefaultLanguage)
	if cfg.TranslateTimeout <= 0 {
		cfg.TranslateTimeout = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}

	return &Pipeline{
		source:           cfg.Source,
		transform:        cfg.Transform,
		rec:              cfg.Recognizer,
		tracker:          cfg.Tracker,
		translator:       cfg.Translator,
		renderer:         cfg.Renderer,
		translateTimeout: cfg.TranslateTimeout,
		queueSize:        cfg.QueueSize,
		recLang:          cfg.DefaultLanguage,
	}, nil
}

// OnStateChange registers a lifecycle observer.
func (p *Pipeline) OnStateChange(fn func(State)) {
	p.cbMu.Lock()
	p.onState = append(p.onState, fn)
	p.cbMu.Unlock()
}

// OnPreview registers an observer for interim transcripts. Interim text
// never reaches the translator or the caption display.
func (p *Pipeline) OnPreview(fn func(recognize.TranscriptEvent)) {
	p.cbMu.Lock()
	p.onPreview = append(p.onPreview, fn)
	p.cbMu.Unlock()
}

// OnError registers an observer for non-fatal pipeline errors.
func (p *Pipeline) OnError(fn func(error)) {
	p.cbMu.Lock()
	p.onError = append(p.onError, fn)
	p.cbMu.Unlock()
}

// Initialize wires the adapters together. Idle -> Stopped (ready).
func (p *Pipeline) Initialize() error {
	if !p.casState(Idle, Initializing) {
		return fmt.Errorf("%w: initialize from %s", ErrInvariantViolation, p.State())
	}

	p.source.OnFrame(p.handleFrame)
	p.rec.OnEvent(p.handleEvent)
	p.rec.OnError(p.handleRecError)

	p.setState(Stopped)
	return nil
}

// Start begins capturing and recognizing. Only valid from Stopped; a second
// Start while running fails without touching the running session.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	switch p.state {
	case Running, Reconfiguring, Stopping:
		p.mu.Unlock()
		return ErrAlreadyRunning
	case Stopped:
	default:
		p.mu.Unlock()
		return ErrNotReady
	}
	// Claim the state before touching components so a concurrent Start
	// fails instead of double-starting.
	p.state = Running
	p.startedAt = time.Now()
	lang := p.recLang
	p.mu.Unlock()

	queue := make(chan recognize.TranscriptEvent, p.queueSize)
	done := make(chan struct{})
	p.qmu.Lock()
	p.queue = queue
	p.workerDone = done
	p.qmu.Unlock()

	go p.worker(queue, done)

	if err := p.source.Start(); err != nil {
		p.teardownQueue()
		p.rollbackStart()
		return fmt.Errorf("%w: audio source: %v", ErrAdapterInit, err)
	}
	if err := p.rec.Start(lang); err != nil {
		p.source.Stop()
		p.teardownQueue()
		p.rollbackStart()
		return fmt.Errorf("%w: start: %v", ErrRecognitionSession, err)
	}

	p.notifyState(Running)
	slog.Info("pipeline started", "language", lang, "target", p.translator.Target())
	return nil
}

// rollbackStart returns a failed Start to Stopped without notifying
// observers; the pipeline never observably left Stopped.
func (p *Pipeline) rollbackStart() {
	p.mu.Lock()
	p.state = Stopped
	p.startedAt = time.Time{}
	p.mu.Unlock()
}

// Stop halts recognition and capture and clears the display. When Stop
// returns, no further caption updates will be produced.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	switch p.state {
	case Running, Reconfiguring:
	default:
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.state = Stopping
	p.mu.Unlock()
	p.notifyState(Stopping)

	p.recMu.Lock()
	if err := p.rec.Stop(); err != nil {
		slog.Warn("recognizer stop", "error", err)
	}
	p.recMu.Unlock()

	if err := p.source.Stop(); err != nil {
		slog.Warn("audio source stop", "error", err)
	}

	p.teardownQueue()
	p.renderer.Clear()

	p.setState(Stopped)
	slog.Info("pipeline stopped")
	return nil
}

// SetTargetLanguage changes the caption language for subsequent captions.
// Valid in any state.
func (p *Pipeline) SetTargetLanguage(lang string) {
	p.translator.SetTarget(lang)
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Status returns a snapshot for control surfaces.
func (p *Pipeline) Status() types.PipelineStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := types.PipelineStatus{
		State:               p.state.String(),
		RecognitionLanguage: p.recLang,
		TargetLanguage:      p.translator.Target(),
		VisibleLines:        p.renderer.Visible(),
	}
	if p.state == Running || p.state == Reconfiguring {
		st.StartedAt = p.startedAt
	}
	return st
}

// handleFrame receives raw frames from the audio source. Frames are dropped
// unless the pipeline is running; during reconfiguration capture continues
// and the (stopped) recognizer ignores the writes.
func (p *Pipeline) handleFrame(f audiosource.Frame) {
	p.mu.RLock()
	st := p.state
	p.mu.RUnlock()
	if st != Running && st != Reconfiguring {
		return
	}
	p.rec.WriteFrame(p.transform.Apply(f))
}

// active reports whether transcript events should still flow to captions.
func (p *Pipeline) active() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == Running || p.state == Reconfiguring
}

// handleEvent receives transcript events from the recognizer. It runs on
// the recognizer's goroutine and must not block: final transcripts are
// enqueued for the worker, interim ones only feed preview observers.
// Events arriving once a stop or failure is underway are ignored entirely.
func (p *Pipeline) handleEvent(ev recognize.TranscriptEvent) {
	if !p.active() {
		return
	}
	if !ev.Final {
		p.cbMu.RLock()
		cbs := p.onPreview
		p.cbMu.RUnlock()
		for _, fn := range cbs {
			fn(ev)
		}
		return
	}

	p.qmu.Lock()
	queue := p.queue
	p.qmu.Unlock()
	if queue == nil {
		return
	}

	select {
	case queue <- ev:
	default:
		slog.Warn("caption queue full, dropping transcript", "seq", ev.Seq)
	}
}

func (p *Pipeline) handleRecError(err error) {
	p.reportError(fmt.Errorf("%w: %v", ErrTransientService, err))
}

// worker drains final transcripts one at a time. Single consumer, so
// caption insertion order matches transcript arrival order.
func (p *Pipeline) worker(queue chan recognize.TranscriptEvent, done chan struct{}) {
	defer close(done)
	for ev := range queue {
		p.process(ev)
	}
}

func (p *Pipeline) process(ev recognize.TranscriptEvent) {
	// Queued finals that outlived a stop or failure are discarded.
	if !p.active() {
		return
	}

	hyp := p.tracker.Observe(context.Background(), ev.Text)

	if locale := langid.RecognitionLocale(hyp.Code); locale != p.recognitionLanguage() {
		p.reconfigure(locale)
		if !p.active() {
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.translateTimeout)
	res, err := p.translator.Translate(ctx, ev.Text, hyp.Code)
	cancel()
	if err != nil {
		// Pass-through result still carries the source text.
		p.reportError(fmt.Errorf("%w: %v", ErrTransientService, err))
	}

	p.renderer.Show(res.TranslatedText, "")
}

// reconfigure restarts the recognition session with a new locale while
// audio capture keeps running. Running -> Reconfiguring -> Running.
func (p *Pipeline) reconfigure(locale string) {
	if !p.casState(Running, Reconfiguring) {
		return
	}

	p.recMu.Lock()
	defer p.recMu.Unlock()

	// Stop may have intervened while we waited for the session lock.
	if p.State() != Reconfiguring {
		return
	}

	slog.Info("reconfiguring recognition language", "locale", locale)
	if err := p.rec.Stop(); err != nil {
		slog.Warn("recognizer stop during reconfigure", "error", err)
	}
	if err := p.rec.Start(locale); err != nil {
		p.reportError(fmt.Errorf("%w: restart with %s: %v", ErrRecognitionSession, locale, err))
		p.failStop()
		return
	}

	p.mu.Lock()
	p.recLang = locale
	p.mu.Unlock()

	p.casState(Reconfiguring, Running)
}

// failStop releases capture and display resources after an unrecoverable
// recognition failure. It runs on the worker goroutine, so the queue is
// closed without joining: the worker drains the remainder (process discards
// it once the state left Running) and exits on its own.
func (p *Pipeline) failStop() {
	if err := p.source.Stop(); err != nil {
		slog.Warn("audio source stop after recognition failure", "error", err)
	}

	p.setState(Failed)

	p.qmu.Lock()
	queue := p.queue
	p.queue = nil
	p.workerDone = nil
	p.qmu.Unlock()
	if queue != nil {
		close(queue)
	}

	p.renderer.Clear()
}

func (p *Pipeline) recognitionLanguage() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.recLang
}

// teardownQueue closes the transcript queue and joins the worker. Callers
// must guarantee no further enqueues (the recognizer is stopped).
func (p *Pipeline) teardownQueue() {
	p.qmu.Lock()
	queue := p.queue
	done := p.workerDone
	p.queue = nil
	p.workerDone = nil
	p.qmu.Unlock()

	if queue != nil {
		close(queue)
	}
	if done != nil {
		<-done
	}
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	old := p.state
	p.state = s
	p.mu.Unlock()
	if old != s {
		p.notifyState(s)
	}
}

// casState transitions from -> to and reports whether it did.
func (p *Pipeline) casState(from, to State) bool {
	p.mu.Lock()
	if p.state != from {
		p.mu.Unlock()
		return false
	}
	p.state = to
	p.mu.Unlock()
	p.notifyState(to)
	return true
}

func (p *Pipeline) notifyState(s State) {
	slog.Debug("pipeline state", "state", s.String())
	p.cbMu.RLock()
	cbs := p.onState
	p.cbMu.RUnlock()
	for _, fn := range cbs {
		fn(s)
	}
}

func (p *Pipeline) reportError(err error) {
	slog.Warn("pipeline error", "error", err)
	p.cbMu.RLock()
	cbs := p.onError
	p.cbMu.RUnlock()
	for _, fn := range cbs {
		fn(err)
	}
}
