package debuginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kilnvm/kiln/api"
)

// Logger is the compile log written while generate-debug-info is enabled:
// one perf map line per compiled method, in the format perf(1) and
// compatible profilers consume:
//
//	<code address in hex> <code size in hex> <method name>
//
// Implements api.CompileLog. Safe for concurrent use.
type Logger struct {
	mux sync.Mutex
	f   *os.File
}

// OpenLogger creates the perf map file for this process under dir, or
// under os.TempDir() when dir is empty.
func OpenLogger(dir string) (*Logger, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("perf-%d.map", os.Getpid()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open perf map %s: %w", path, err)
	}
	return &Logger{f: f}, nil
}

// Log implements the same method on the api.CompileLog interface. Entries
// after Close are dropped.
func (l *Logger) Log(m api.Method, addr uint64, size int) {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.f == nil {
		return
	}
	fmt.Fprintf(l.f, "%x %x %s\n", addr, size, m.FullName())
}

// Path returns the perf map file path, or "" after Close.
func (l *Logger) Path() string {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.f == nil {
		return ""
	}
	return l.f.Name()
}

// Close closes the perf map file. Further Close calls are no-ops.
func (l *Logger) Close() error {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var _ api.CompileLog = (*Logger)(nil)
