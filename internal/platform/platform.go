// Package platform includes runtime-specific clock code needed by the
// compile-timing recorder.
package platform

import "time"

// nanoBase uses time.Now to ensure a monotonic clock reading on all
// platforms via time.Since.
var nanoBase = time.Now()

// Nanotime returns monotonic nanoseconds since an arbitrary process-local
// base.
//
// Note: This is less efficient than reading runtime.nanotime() directly,
// but doing that requires linkname tricks. time.Since reads the monotonic
// clock, which is all the timing recorder needs.
func Nanotime() int64 {
	return time.Since(nanoBase).Nanoseconds()
}
