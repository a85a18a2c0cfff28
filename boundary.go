package kiln

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/kilnvm/kiln/api"
)

// This file is the process-boundary adapter: the handful of free
// functions a dynamically loaded runtime module calls through an opaque
// handle. The orchestration logic itself lives on Compiler; this layer
// only translates construction-time errors into the fatal tier, because
// a JIT that cannot configure itself must not run at all.

// Handle is the opaque reference the hosting runtime holds between
// boundary calls.
type Handle struct {
	c *Compiler
}

// fatalLog is where boundary-level fatal errors are reported before the
// process exits.
var fatalLog = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Create constructs the process's Compiler. On unrecoverable
// configuration failure it aborts the process.
func Create(rt api.Runtime) Handle {
	return CreateWithConfig(rt, NewConfig())
}

// CreateWithConfig is Create with explicit wiring.
func CreateWithConfig(rt api.Runtime, config *Config) Handle {
	c, err := NewWithConfig(rt, config)
	if err != nil {
		fatalLog.Fatal().Err(err).Msg("cannot create jit compiler")
	}
	return Handle{c: c}
}

// Destroy disposes the Compiler behind h.
func Destroy(h Handle) {
	if err := h.c.Close(); err != nil {
		h.c.log.Warn().Err(err).Msg("error disposing jit compiler")
	}
}

// CompileMethod compiles method on behalf of thread. The caller must
// already hold the shared execution lock covering the managed object
// graph.
func CompileMethod(h Handle, method api.Method, thread api.Thread, osr bool) bool {
	return h.c.CompileMethod(thread, method, osr)
}

// NotifyTypesLoaded registers debug metadata for newly loaded types. The
// caller must hold the same lock CompileMethod requires.
func NotifyTypesLoaded(h Handle, types []api.TypeHandle) {
	h.c.NotifyTypesLoaded(types)
}

// Reconfigure reloads the configuration snapshot from the runtime's
// current tuning input. The caller serializes it against in-flight
// compiles. Like Create, an unrecoverable load failure aborts the
// process.
func Reconfigure(h Handle) {
	if err := h.c.Reconfigure(); err != nil {
		fatalLog.Fatal().Err(err).Msg("cannot reconfigure jit compiler")
	}
}

// QueryGeneratesDebugInfo reports whether the current configuration emits
// native debug metadata.
func QueryGeneratesDebugInfo(h Handle) bool {
	return h.c.GeneratesDebugInfo()
}
