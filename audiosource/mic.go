package audiosource

import (
	"sync"
	"sync/atomic"
	"time"
)

// micDriver is the platform-specific capture backend. The darwin build uses
// an AVAudioEngine tap; other platforms have no backend yet.
type micDriver interface {
	start(sampleRate int, deliver func(samples []int16)) error
	stop() error
}

// MicConfig holds configuration for microphone capture.
type MicConfig struct {
	SampleRate int           // default 16000 Hz
	History    time.Duration // ring buffer depth, default 30s
}

// DefaultMicConfig returns the default microphone configuration.
func DefaultMicConfig() MicConfig {
	return MicConfig{
		SampleRate: DefaultSampleRate,
		History:    30 * time.Second,
	}
}

// Microphone captures audio from the default input device and delivers it as
// Frames to registered callbacks.
type Microphone struct {
	mu sync.RWMutex

	capturing  bool
	startTime  time.Time
	sampleRate int

	seq     atomic.Uint64
	history *RingBuffer
	onFrame []FrameFunc

	driver micDriver
}

// NewMicrophone creates a microphone source. Returns ErrUnsupported on
// platforms without a capture backend.
func NewMicrophone(cfg MicConfig) (*Microphone, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.History == 0 {
		cfg.History = 30 * time.Second
	}

	driver, err := newMicDriver()
	if err != nil {
		return nil, err
	}

	return &Microphone{
		sampleRate: cfg.SampleRate,
		history:    NewRingBuffer(int(cfg.History.Seconds()) * cfg.SampleRate),
		driver:     driver,
	}, nil
}

// Start begins capture. Starting while capturing is rejected, not restarted.
func (m *Microphone) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		return ErrAlreadyCapturing
	}

	if err := m.driver.start(m.sampleRate, m.deliver); err != nil {
		return err
	}

	m.capturing = true
	m.startTime = time.Now()
	return nil
}

// Stop halts capture. After Stop returns the driver delivers no more samples.
func (m *Microphone) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.capturing {
		return ErrNotCapturing
	}

	err := m.driver.stop()
	m.capturing = false
	return err
}

// IsCapturing reports whether the microphone is started.
func (m *Microphone) IsCapturing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.capturing
}

// OnFrame registers a callback for captured frames.
func (m *Microphone) OnFrame(fn FrameFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = append(m.onFrame, fn)
}

// SampleRate returns the configured capture rate.
func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

// Buffered returns the last duration of captured audio from the history
// buffer, useful as lead-in context when recognition starts mid-speech.
func (m *Microphone) Buffered(d time.Duration) []int16 {
	return m.history.Tail(int(d.Seconds() * float64(m.sampleRate)))
}

func (m *Microphone) deliver(samples []int16) {
	m.mu.RLock()
	capturing := m.capturing
	callbacks := m.onFrame
	m.mu.RUnlock()

	if !capturing {
		return
	}

	m.history.Write(samples)

	frame := Frame{
		Samples: samples,
		Seq:     m.seq.Add(1),
		Arrived: time.Now(),
	}
	for _, cb := range callbacks {
		cb(frame)
	}
}
