// Package caption holds the bounded, fading caption display model.
package caption

import (
	"fmt"
	"sync"
	"time"
)

// Line is one visible caption line.
type Line struct {
	Text         string
	Speaker      string // optional speaker label
	ShownAt      time.Time
	FadeDeadline time.Time
}

// String renders the line the way surfaces display it.
func (l Line) String() string {
	if l.Speaker != "" {
		return fmt.Sprintf("%s: %s", l.Speaker, l.Text)
	}
	return l.Text
}

// UpdateFunc observes every change to the visible line set. It is called
// outside the renderer lock, so it may call back into the renderer.
type UpdateFunc func(lines []Line)

// Config holds the display bounds. Zero values get defaults.
type Config struct {
	MaxLines    int           // default 3
	FadeTimeout time.Duration // default 10s
}

// DefaultConfig returns the default display bounds.
func DefaultConfig() Config {
	return Config{
		MaxLines:    3,
		FadeTimeout: 10 * time.Second,
	}
}

// Renderer keeps at most MaxLines caption lines, evicting the oldest when a
// new one arrives and fading the oldest out when its deadline passes. At
// most one fade timer is armed at any time, always targeting the current
// oldest line.
type Renderer struct {
	mu       sync.Mutex
	lines    []Line
	maxLines int
	fade     time.Duration

	fadeTimer *time.Timer

	cbMu      sync.RWMutex
	callbacks []UpdateFunc
}

// NewRenderer creates a renderer with the given bounds.
func NewRenderer(cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = def.MaxLines
	}
	if cfg.FadeTimeout <= 0 {
		cfg.FadeTimeout = def.FadeTimeout
	}
	return &Renderer{
		maxLines: cfg.MaxLines,
		fade:     cfg.FadeTimeout,
	}
}

// OnUpdate registers a callback for visible-line changes.
func (r *Renderer) OnUpdate(fn UpdateFunc) {
	r.cbMu.Lock()
	r.callbacks = append(r.callbacks, fn)
	r.cbMu.Unlock()
}

// Show appends a caption line, evicting the oldest if the display is full.
func (r *Renderer) Show(text, speaker string) {
	now := time.Now()
	line := Line{
		Text:         text,
		Speaker:      speaker,
		ShownAt:      now,
		FadeDeadline: now.Add(r.fade),
	}

	r.mu.Lock()
	r.lines = append(r.lines, line)
	if len(r.lines) > r.maxLines {
		r.lines = r.lines[1:]
	}
	r.rearmLocked()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
}

// Lines returns a copy of the visible lines, oldest first.
func (r *Renderer) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Visible reports the number of visible lines.
func (r *Renderer) Visible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Clear removes all lines and cancels any pending fade. Safe to call at any
// time, including when already empty.
func (r *Renderer) Clear() {
	r.mu.Lock()
	if r.fadeTimer != nil {
		r.fadeTimer.Stop()
		r.fadeTimer = nil
	}
	changed := len(r.lines) > 0
	r.lines = nil
	r.mu.Unlock()

	if changed {
		r.notify(nil)
	}
}

// expireOldest runs when the fade timer fires. It removes at most the single
// oldest line, then rearms for the next; if that one is also past its
// deadline the rearmed timer fires immediately, so lines expiring together
// still leave one at a time, each with its own update. A stale fire (the
// line it was armed for is already gone) finds no expired line and only
// rearms.
func (r *Renderer) expireOldest() {
	now := time.Now()

	r.mu.Lock()
	changed := false
	if len(r.lines) > 0 && !r.lines[0].FadeDeadline.After(now) {
		r.lines = r.lines[1:]
		changed = true
	}
	r.fadeTimer = nil
	r.rearmLocked()
	var snapshot []Line
	if changed {
		snapshot = r.snapshotLocked()
	}
	r.mu.Unlock()

	if changed {
		r.notify(snapshot)
	}
}

// rearmLocked points the single fade timer at the oldest line's deadline.
func (r *Renderer) rearmLocked() {
	if r.fadeTimer != nil {
		r.fadeTimer.Stop()
		r.fadeTimer = nil
	}
	if len(r.lines) == 0 {
		return
	}
	d := time.Until(r.lines[0].FadeDeadline)
	if d < 0 {
		d = 0
	}
	r.fadeTimer = time.AfterFunc(d, r.expireOldest)
}

func (r *Renderer) snapshotLocked() []Line {
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

func (r *Renderer) notify(lines []Line) {
	r.cbMu.RLock()
	cbs := make([]UpdateFunc, len(r.callbacks))
	copy(cbs, r.callbacks)
	r.cbMu.RUnlock()

	for _, fn := range cbs {
		fn(lines)
	}
}
