//go:build !darwin

package audiosource

// newMicDriver returns ErrUnsupported on platforms without a capture backend.
// The meeting feed works everywhere; local microphone capture is darwin-only
// for now.
func newMicDriver() (micDriver, error) {
	return nil, ErrUnsupported
}
