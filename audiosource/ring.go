package audiosource

import "sync"

// RingBuffer is a thread-safe circular buffer of PCM samples. Sources keep a
// short history here so a consumer can pull lead-in context on start.
type RingBuffer struct {
	mu       sync.RWMutex
	data     []int16
	writePos int
	size     int
	filled   int
}

// NewRingBuffer creates a ring buffer holding up to size samples.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]int16, size),
		size: size,
	}
}

// Write appends samples, overwriting the oldest data when full.
func (rb *RingBuffer) Write(samples []int16) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, s := range samples {
		rb.data[rb.writePos] = s
		rb.writePos = (rb.writePos + 1) % rb.size
		if rb.filled < rb.size {
			rb.filled++
		}
	}
}

// Tail returns a copy of the most recent n samples.
func (rb *RingBuffer) Tail(n int) []int16 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.filled {
		n = rb.filled
	}
	if n == 0 {
		return nil
	}

	out := make([]int16, n)
	start := (rb.writePos - n + rb.size) % rb.size
	for i := range out {
		out[i] = rb.data[(start+i)%rb.size]
	}
	return out
}

// Clear empties the buffer.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.writePos = 0
	rb.filled = 0
}

// Len returns the number of buffered samples.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.filled
}
