// Package kiln bridges per-method compilation requests from a managed
// runtime into an optimizing compiler backend. It owns the compiler's
// configuration lifecycle, coordinates optional debug-info emission, and
// records compilation timing telemetry.
//
// One Compiler exists per process for the JIT's active lifetime. Compile
// requests run on the runtime's compiler-worker threads; each caller must
// hold its own share of the runtime's execution lock covering the managed
// object graph for the duration of the call.
package kiln

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/kilnvm/kiln/api"
	"github.com/kilnvm/kiln/internal/codecache"
	"github.com/kilnvm/kiln/internal/debuginfo"
	"github.com/kilnvm/kiln/internal/engine"
	"github.com/kilnvm/kiln/internal/timing"
)

// Span names of the per-call timing record. Every CompileMethod call
// contributes exactly one of each to the process-wide aggregate.
const (
	spanCompiling  = "compiling"
	spanTrimMemory = "trim-scratch-memory"
)

// Compiler is the JIT orchestration service object. Construct with New or
// NewWithConfig, dispose with Close.
//
// CompileMethod calls may run concurrently on different methods: the only
// state they share is the configuration snapshot, which is immutable
// after load. Reconfigure must be serialized by the caller against
// in-flight compiles.
type Compiler struct {
	rt      api.Runtime
	log     zerolog.Logger
	opts    atomic.Pointer[CompilerOptions]
	backend api.Backend
	cache   api.CodeCache
	pool    api.ArenaPool
	clock   timing.Clock
	timings *timing.Aggregate

	registry *debuginfo.Registry
	encoder  debuginfo.Encoder

	// mux guards the compile-log lifecycle (open on construction or on a
	// Reconfigure enabling debug info, closed exactly once on Close).
	mux        sync.Mutex
	perfMapDir string
	jitLog     *debuginfo.Logger
	closed     bool
}

// New constructs a Compiler with the default wiring. Equivalent to
// NewWithConfig(rt, NewConfig()).
func New(rt api.Runtime) (*Compiler, error) {
	return NewWithConfig(rt, NewConfig())
}

// NewWithConfig loads the configuration snapshot from the runtime's
// tuning input and constructs the backend.
//
// An error here means the JIT cannot safely exist (instruction-set skew,
// no backend for the host, unusable debug-log destination): the caller
// must not retry with the same inputs. The process-boundary adapter
// (Create) escalates it to a fatal abort.
func NewWithConfig(rt api.Runtime, config *Config) (*Compiler, error) {
	c := &Compiler{
		rt:         rt,
		log:        config.logger,
		cache:      config.cache,
		pool:       config.pool,
		clock:      config.clock,
		timings:    timing.NewAggregate(),
		registry:   debuginfo.NewRegistry(),
		encoder:    debuginfo.NewEncoder(),
		perfMapDir: config.perfMapDir,
	}
	if c.cache == nil {
		c.cache = codecache.NewCache(0)
	}
	if c.pool == nil {
		c.pool = codecache.NewArena(0)
	}

	opts, err := loadCompilerOptions(rt, c.log)
	if err != nil {
		return nil, err
	}
	c.opts.Store(opts)

	c.backend = config.backend
	if c.backend == nil {
		b, err := engine.NewBackend(opts.Features(), c.pool)
		if err != nil {
			return nil, fmt.Errorf("construct backend: %w", err)
		}
		c.backend = b
	}

	if opts.GenerateDebugInfo() {
		l, err := debuginfo.OpenLogger(c.perfMapDir)
		if err != nil {
			return nil, fmt.Errorf("open compile log: %w", err)
		}
		c.jitLog = l
	}
	return c, nil
}

// Options returns the current configuration snapshot.
func (c *Compiler) Options() *CompilerOptions {
	return c.opts.Load()
}

// GeneratesDebugInfo reports whether the current configuration emits
// native debug metadata.
func (c *Compiler) GeneratesDebugInfo() bool {
	return c.opts.Load().GenerateDebugInfo()
}

// CompileMethod compiles m on behalf of thread t, optionally as an
// on-stack-replacement entry. It returns true iff the backend committed
// code for m.
//
// False is a normal outcome (unsupported construct, resource exhaustion):
// the runtime falls back to non-compiled execution. No error and no panic
// crosses this boundary for compile failure.
//
// The caller must already hold its share of the runtime's execution lock
// for the managed object graph; this method does not acquire it.
// Violating the call preconditions (forwarder method, unresolved
// declaring type, pending fault, disposed compiler) is a caller bug and
// panics.
func (c *Compiler) CompileMethod(t api.Thread, m api.Method, osr bool) bool {
	if m.IsForwarder() {
		panic(fmt.Sprintf("BUG: CompileMethod on forwarder method %s", m.FullName()))
	}
	if !m.DeclaringTypeResolved() {
		panic(fmt.Sprintf("BUG: CompileMethod on unresolved declaring type of %s", m.FullName()))
	}
	if err := t.PendingFault(); err != nil {
		panic(fmt.Sprintf("BUG: CompileMethod with pending fault on thread %d: %v", t.ID(), err))
	}

	c.log.Debug().Str("method", m.FullName()).Bool("osr", osr).Msg("jit compiling")
	rec := timing.NewRecorder("jit method compilation", c.clock)

	var success bool
	func() {
		defer rec.Start(spanCompiling)()
		success = c.backend.Compile(t, c.cache, m, false, osr, c.compileLog())
	}()

	// Trim scratch memory regardless of the compile outcome: large methods
	// pin significant transient memory even when they fail to compile.
	func() {
		defer rec.Start(spanTrimMemory)()
		c.pool.TrimMaps()
	}()

	c.timings.Merge(rec)
	return success
}

// NotifyTypesLoaded emits a debug-metadata blob describing the given
// types and registers it with the process-wide native-debugger facility.
// No-op unless the current configuration generates debug info.
//
// Registrations from this path are permanent: type loads are bounded
// events, and a debugger may attach at any later point.
//
// The caller must hold the same execution lock CompileMethod requires.
func (c *Compiler) NotifyTypesLoaded(types []api.TypeHandle) {
	opts := c.opts.Load()
	if !opts.GenerateDebugInfo() {
		return
	}
	blob := c.encoder.EncodeTypes(opts.Features(), types)
	c.registry.RegisterTypeInfo(blob, opts.Features())
	c.log.Debug().Int("types", len(types)).Int("blob_bytes", len(blob)).
		Msg("registered type debug info")
}

// Reconfigure re-runs the option loader against the runtime's current
// tuning input and atomically replaces the configuration snapshot. If
// generate-debug-info became true and no compile log is open yet, one is
// opened; an already-open log stays as is.
//
// The caller is responsible for serializing Reconfigure against in-flight
// CompileMethod calls, e.g. by quiescing compiler workers first.
func (c *Compiler) Reconfigure() error {
	opts, err := loadCompilerOptions(c.rt, c.log)
	if err != nil {
		return err
	}
	c.opts.Store(opts)

	c.mux.Lock()
	defer c.mux.Unlock()
	if opts.GenerateDebugInfo() && c.jitLog == nil && !c.closed {
		l, err := debuginfo.OpenLogger(c.perfMapDir)
		if err != nil {
			return fmt.Errorf("open compile log: %w", err)
		}
		c.jitLog = l
	}
	return nil
}

// Timings returns a snapshot of the cumulative per-span compile timing,
// keyed by span name.
func (c *Compiler) Timings() map[string]time.Duration {
	return c.timings.Snapshot()
}

// Close disposes the Compiler, closing the compile log iff one was
// opened. Further Close calls are no-ops; further compile calls are
// caller bugs.
func (c *Compiler) Close() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.jitLog == nil {
		return nil
	}
	err := c.jitLog.Close()
	c.jitLog = nil
	return err
}

// compileLog returns the open compile log as an api.CompileLog, or nil.
func (c *Compiler) compileLog() api.CompileLog {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.jitLog == nil {
		return nil
	}
	return c.jitLog
}
