package platform

import "syscall"

// rusageThread is RUSAGE_THREAD, which syscall does not export.
const rusageThread = 1

// ThreadCPUNanotime returns the CPU time consumed by the calling OS
// thread, in nanoseconds, and whether the reading is available.
//
// Per-thread CPU time attributes compile cost to the requesting worker
// even when the machine is contended, which wall-clock spans cannot.
// The reading is only meaningful while the calling goroutine stays on one
// OS thread; compiler workers are expected to be OS-thread-locked.
func ThreadCPUNanotime() (int64, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(rusageThread, &ru); err != nil {
		return 0, false
	}
	user := ru.Utime.Sec*1e9 + ru.Utime.Usec*1e3
	sys := ru.Stime.Sec*1e9 + ru.Stime.Usec*1e3
	return user + sys, true
}
