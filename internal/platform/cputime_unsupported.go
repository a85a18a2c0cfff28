//go:build !linux

package platform

// ThreadCPUNanotime returns the CPU time consumed by the calling OS
// thread. Unsupported outside linux: callers fall back to Nanotime.
func ThreadCPUNanotime() (int64, bool) {
	return 0, false
}
