//go:build darwin

package audiosource

/*
#cgo CFLAGS: -x objective-c -fobjc-arc -mmacosx-version-min=13.0
#cgo LDFLAGS: -framework AVFoundation -framework CoreAudio -framework Foundation

#include <stdlib.h>

extern int startMicCapture(int targetSampleRate, char** errOut);
extern void stopMicCapture(void);
*/
import "C"

import (
	"errors"
	"sync"
	"unsafe"
)

// Global handler for the CGO callback. Only one mic capture at a time.
var (
	globalMicHandler   func([]int16)
	globalMicHandlerMu sync.RWMutex
)

//export goMicCallback
func goMicCallback(samples *C.short, count C.int) {
	n := int(count)
	if n <= 0 {
		return
	}

	globalMicHandlerMu.RLock()
	h := globalMicHandler
	globalMicHandlerMu.RUnlock()

	if h == nil {
		return
	}

	// The C buffer is only valid for the duration of this call; copy out.
	src := unsafe.Slice((*int16)(unsafe.Pointer(samples)), n)
	out := make([]int16, n)
	copy(out, src)
	h(out)
}

type darwinMicDriver struct{}

func newMicDriver() (micDriver, error) {
	return &darwinMicDriver{}, nil
}

func (d *darwinMicDriver) start(sampleRate int, deliver func([]int16)) error {
	globalMicHandlerMu.Lock()
	globalMicHandler = deliver
	globalMicHandlerMu.Unlock()

	var errStr *C.char
	if C.startMicCapture(C.int(sampleRate), &errStr) != 0 {
		globalMicHandlerMu.Lock()
		globalMicHandler = nil
		globalMicHandlerMu.Unlock()

		if errStr != nil {
			err := errors.New(C.GoString(errStr))
			C.free(unsafe.Pointer(errStr))
			return err
		}
		return errors.New("audiosource: unknown capture error")
	}
	return nil
}

func (d *darwinMicDriver) stop() error {
	C.stopMicCapture()

	globalMicHandlerMu.Lock()
	globalMicHandler = nil
	globalMicHandlerMu.Unlock()
	return nil
}
