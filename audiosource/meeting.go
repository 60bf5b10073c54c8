package audiosource

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	opuscodec "github.com/jj11hh/opus"
	"github.com/pion/interceptor"
	"github.com/pion/rtp"
)

// maxOpusFrame is the largest Opus frame (120 ms) at 16 kHz mono.
const maxOpusFrame = 1920

// ErrNoTrack is returned when starting a meeting feed before a track is attached.
var ErrNoTrack = errors.New("audiosource: no remote track attached")

// RTPReader abstracts a negotiated remote audio track. *webrtc.TrackRemote
// satisfies it; the meeting client is responsible for signaling and hands the
// track over once the call is up.
type RTPReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// MeetingConfig holds configuration for the meeting audio feed.
type MeetingConfig struct {
	SampleRate int    // decode rate, default 16000 Hz
	Speaker    string // optional label for captions from this feed
}

// MeetingFeed turns a remote call's Opus audio track into PCM frames with the
// same Start/Stop/OnFrame contract as the microphone. Packets that fail to
// decode are dropped.
type MeetingFeed struct {
	mu sync.RWMutex

	sampleRate int
	speaker    string
	track      RTPReader
	decoder    *opuscodec.Decoder

	capturing bool
	seq       atomic.Uint64
	onFrame   []FrameFunc

	done chan struct{}
	wg   sync.WaitGroup
}

// NewMeetingFeed creates a meeting feed. The Opus decoder runs directly at
// the pipeline sample rate, so no resampling is needed.
func NewMeetingFeed(cfg MeetingConfig) (*MeetingFeed, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	dec, err := opuscodec.NewDecoder(cfg.SampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}

	return &MeetingFeed{
		sampleRate: cfg.SampleRate,
		speaker:    cfg.Speaker,
		decoder:    dec,
	}, nil
}

// AttachTrack sets the remote track to read from. Must be called before Start.
func (m *MeetingFeed) AttachTrack(track RTPReader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track = track
}

// Speaker returns the label configured for this feed, if any.
func (m *MeetingFeed) Speaker() string {
	return m.speaker
}

// Start begins reading and decoding the remote track.
func (m *MeetingFeed) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		return ErrAlreadyCapturing
	}
	if m.track == nil {
		return ErrNoTrack
	}

	m.done = make(chan struct{})
	m.capturing = true

	m.wg.Add(1)
	go m.readLoop(m.track, m.done)

	return nil
}

// Stop halts the feed. It waits for the reader goroutine to exit, so no
// frames are delivered after Stop returns.
func (m *MeetingFeed) Stop() error {
	m.mu.Lock()
	if !m.capturing {
		m.mu.Unlock()
		return ErrNotCapturing
	}
	m.capturing = false
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// OnFrame registers a callback for decoded frames.
func (m *MeetingFeed) OnFrame(fn FrameFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFrame = append(m.onFrame, fn)
}

// SampleRate returns the decode rate.
func (m *MeetingFeed) SampleRate() int {
	return m.sampleRate
}

// deadlineReader is optionally implemented by tracks that support read
// deadlines (webrtc.TrackRemote does). Without it, Stop only takes effect
// once the track itself errors out.
type deadlineReader interface {
	SetReadDeadline(t time.Time) error
}

func (m *MeetingFeed) readLoop(track RTPReader, done chan struct{}) {
	defer m.wg.Done()

	dr, hasDeadline := track.(deadlineReader)

	for {
		select {
		case <-done:
			return
		default:
		}

		if hasDeadline {
			_ = dr.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
		}

		pkt, _, err := track.ReadRTP()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				slog.Error("meeting feed read failed", "error", err)
			}
			return
		}
		if len(pkt.Payload) == 0 {
			continue
		}

		pcm := make([]int16, maxOpusFrame)
		n, err := m.decoder.Decode(pkt.Payload, pcm)
		if err != nil {
			slog.Warn("opus decode failed, dropping packet", "error", err)
			continue
		}
		if n == 0 {
			continue
		}

		m.deliver(pcm[:n], done)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (m *MeetingFeed) deliver(samples []int16, done chan struct{}) {
	select {
	case <-done:
		return
	default:
	}

	m.mu.RLock()
	callbacks := m.onFrame
	m.mu.RUnlock()

	frame := Frame{
		Samples: samples,
		Seq:     m.seq.Add(1),
		Arrived: time.Now(),
	}
	for _, cb := range callbacks {
		cb(frame)
	}
}
