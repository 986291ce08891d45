// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package affinity pins the calling OS thread to a single logical CPU.
// Platform-specific implementations are guarded by build tags.

package affinity

import (
	"fmt"
	"runtime"
)

// LockAndPin locks the calling goroutine to its OS thread and binds that
// thread to cpu. The returned release restores the previous CPU mask and
// unlocks the thread; it must run on the same goroutine.
func LockAndPin(cpu int) (release func(), err error) {
	if cpu < 0 {
		return nil, fmt.Errorf("affinity: invalid cpu %d", cpu)
	}
	runtime.LockOSThread()
	restore, err := pinPlatform(cpu)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return func() {
		restore()
		runtime.UnlockOSThread()
	}, nil
}
