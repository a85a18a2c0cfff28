// Package api includes the interfaces crossing between the hosting runtime
// and the JIT orchestration core, used by both end-users and internal
// implementations.
//
// The hosting runtime implements Runtime, Method, Thread and TypeHandle.
// The orchestration core (and tests, via fakes) implements Backend,
// CodeCache, ArenaPool and CompileLog.
package api

// Runtime is the hosting execution engine's view offered to the JIT.
//
// Implementations must be safe for concurrent use: the orchestrator reads
// them from compiler-worker threads and during Reconfigure.
type Runtime interface {
	// CompilerOptions returns the runtime's current tuning input as an
	// ordered sequence of "--key=value" strings. Unrecognized keys are
	// tolerated by the loader, so runtimes may pass their full option
	// surface unfiltered.
	CompilerOptions() []string

	// Debuggable reports whether the runtime itself runs in a debuggable
	// mode. Used as the fallback when no option sets debuggability
	// explicitly.
	Debuggable() bool

	// ImageLocation returns the path of the boot image the runtime was
	// started with, or "" when running imageless.
	ImageLocation() string
}

// Method is a handle to a managed method eligible for compilation.
//
// Handles are ephemeral: the orchestrator never retains one beyond the
// CompileMethod call it was passed to.
type Method interface {
	// ID returns an identifier stable for the lifetime of the method's
	// declaring type. Code cache entries are keyed on it.
	ID() uint64

	// FullName returns a human-readable signature, e.g.
	// "java.lang.String java.lang.Object.toString()". Used for logging and
	// perf map entries only.
	FullName() string

	// CodeUnits returns the size of the method's bytecode in code units.
	CodeUnits() int

	// IsForwarder reports whether this is a synthetic forwarding method
	// (e.g. a proxy trampoline) that must never reach the compiler.
	IsForwarder() bool

	// DeclaringTypeResolved reports whether the method's declaring type is
	// fully resolved. Compiling against an unresolved type is a caller bug.
	DeclaringTypeResolved() bool
}

// Thread identifies the compiler-worker thread making a compile request.
//
// The caller must already hold its own share of the runtime's execution
// lock covering the managed object graph for the whole CompileMethod call.
// This package only documents that requirement; nothing here acquires it.
type Thread interface {
	// ID returns the runtime's identifier for this thread.
	ID() int64

	// PendingFault returns the unhandled managed fault pending on this
	// thread, or nil. A thread with a pending fault must not request
	// compilation.
	PendingFault() error
}

// TypeHandle describes a loaded managed type for debug-metadata emission.
type TypeHandle interface {
	// Name returns the type's fully qualified name.
	Name() string

	// InstanceSize returns the byte size of one instance of the type.
	InstanceSize() uint32
}

// CompileLog receives one entry per successfully compiled method, in a
// form consumable by native profiling tools. May be nil wherever a log is
// optional.
type CompileLog interface {
	// Log records that code for m was placed at addr with the given size.
	Log(m Method, addr uint64, size int)
}

// Backend is the compile capability of the optimizing compiler driver.
//
// Compile returns true iff code for m was generated and committed to
// cache. All failure (unsupported construct, resource exhaustion, cache
// full) is reported as false, never as a panic: the caller falls back to
// non-compiled execution.
//
// baseline selects the non-optimizing tier; osr requests an
// on-stack-replacement entry point. log may be nil.
type Backend interface {
	Compile(t Thread, cache CodeCache, m Method, baseline, osr bool, log CompileLog) bool
}

// CodeCache owns the memory holding generated code.
type CodeCache interface {
	// Commit copies code into cache-owned memory and publishes it as the
	// current entry point for m, replacing any previous one (OSR
	// recompilation replaces). It returns the address the code was placed
	// at.
	Commit(m Method, code []byte) (addr uint64, err error)

	// Lookup returns the committed entry point for m, or ok=false.
	Lookup(m Method) (addr uint64, ok bool)
}

// ArenaPool is the scratch allocator compilation draws transient memory
// from. Compilation of large methods can pin significant transient memory,
// so the orchestrator calls TrimMaps after every compile, success or not.
type ArenaPool interface {
	// Alloc returns a zeroed scratch buffer of the given size, valid until
	// freed or until the owning arena is trimmed with no live references.
	Alloc(size int) []byte

	// Free returns a buffer obtained from Alloc to the pool.
	Free(buf []byte)

	// TrimMaps releases unused scratch pages back to the system. Safe to
	// call concurrently with Alloc/Free.
	TrimMaps()
}
