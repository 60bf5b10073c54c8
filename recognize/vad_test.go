package recognize

import (
	"testing"
	"time"
)

// testClock lets tests step the detector's notion of time explicitly.
type testClock struct {
	t time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1000, 0)}
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func loudFrame(n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = 3000 // ~0.09 normalized, above default threshold
	}
	return out
}

func quietFrame(n int) []int16 {
	return make([]int16, n)
}

func newTestVAD(clock *testClock) *VAD {
	v := NewVAD(DefaultVADConfig())
	v.now = clock.now
	return v
}

func TestVAD_SilenceNeverCuts(t *testing.T) {
	clock := newTestClock()
	v := newTestVAD(clock)

	for i := 0; i < 20; i++ {
		if cut := v.Process(quietFrame(320)); cut != CutNone {
			t.Fatalf("cut = %v on silence, want CutNone", cut)
		}
		clock.advance(20 * time.Millisecond)
	}
	if v.InSpeech() {
		t.Error("InSpeech = true after pure silence")
	}
}

func TestVAD_FinalCutAfterSilence(t *testing.T) {
	clock := newTestClock()
	v := newTestVAD(clock)

	// Speak for 600ms.
	for i := 0; i < 30; i++ {
		if cut := v.Process(loudFrame(320)); cut != CutNone {
			t.Fatalf("unexpected cut %v during speech", cut)
		}
		clock.advance(20 * time.Millisecond)
	}
	if !v.InSpeech() {
		t.Fatal("InSpeech = false during speech")
	}

	// Then 500ms of silence ends the utterance.
	clock.advance(500 * time.Millisecond)
	if cut := v.Process(quietFrame(320)); cut != CutFinal {
		t.Fatalf("cut = %v after silence, want CutFinal", cut)
	}
	if v.InSpeech() {
		t.Error("InSpeech = true after final cut")
	}
}

func TestVAD_InterimCutOnLongSpeech(t *testing.T) {
	clock := newTestClock()
	v := newTestVAD(clock)

	v.Process(loudFrame(320))
	clock.advance(6 * time.Second) // past maxSpeechDur

	if cut := v.Process(loudFrame(320)); cut != CutInterim {
		t.Fatalf("cut = %v on long speech, want CutInterim", cut)
	}
	if !v.InSpeech() {
		t.Error("InSpeech = false after interim cut; utterance should stay open")
	}
}

func TestVAD_RateLimit(t *testing.T) {
	clock := newTestClock()
	v := NewVAD(VADConfig{
		Threshold:    0.015,
		MinSpeechDur: 50 * time.Millisecond,
		MaxSpeechDur: 100 * time.Millisecond,
		SilenceDur:   400 * time.Millisecond,
		MinInterval:  time.Second,
	})
	v.now = clock.now

	v.Process(loudFrame(320))
	clock.advance(150 * time.Millisecond)
	if cut := v.Process(loudFrame(320)); cut != CutInterim {
		t.Fatalf("first cut = %v, want CutInterim", cut)
	}

	// Another max-duration overrun inside the minimum interval is suppressed.
	clock.advance(150 * time.Millisecond)
	if cut := v.Process(loudFrame(320)); cut != CutNone {
		t.Fatalf("rate-limited cut = %v, want CutNone", cut)
	}

	// After the interval it fires again.
	clock.advance(time.Second)
	if cut := v.Process(loudFrame(320)); cut != CutInterim {
		t.Fatalf("cut after interval = %v, want CutInterim", cut)
	}
}

func TestVAD_Reset(t *testing.T) {
	clock := newTestClock()
	v := newTestVAD(clock)

	v.Process(loudFrame(320))
	if !v.InSpeech() {
		t.Fatal("InSpeech = false before reset")
	}

	v.Reset()
	if v.InSpeech() {
		t.Error("InSpeech = true after reset")
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"empty", nil, 0},
		{"zeros", []int16{0, 0, 0}, 0},
		{"full scale", []int16{-32768, -32768}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rms(tt.samples)
			if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
				t.Errorf("rms = %v, want %v", got, tt.want)
			}
		})
	}
}
