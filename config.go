package kiln

import (
	"github.com/rs/zerolog"

	"github.com/kilnvm/kiln/api"
)

// Config controls how a Compiler is wired, with the default implementation
// as NewConfig. Every collaborator is substitutable, which is what keeps
// the orchestration layer unit-testable: tests inject fake backends,
// pools and clocks.
//
// Config is immutable from the caller's perspective: With* methods return
// a copy.
type Config struct {
	backend    api.Backend
	cache      api.CodeCache
	pool       api.ArenaPool
	clock      func() int64
	logger     zerolog.Logger
	perfMapDir string
}

// NewConfig returns the default wiring: the reference backend for the
// host, in-process code cache and arena, the per-thread CPU clock, and no
// logging.
func NewConfig() *Config {
	return &Config{logger: zerolog.Nop()}
}

// clone ensures all fields are copied even if zero.
func (c *Config) clone() *Config {
	ret := *c
	return &ret
}

// WithBackend replaces the reference backend with a custom compile
// capability.
func (c *Config) WithBackend(backend api.Backend) *Config {
	ret := c.clone()
	ret.backend = backend
	return ret
}

// WithCodeCache replaces the default in-process code cache.
func (c *Config) WithCodeCache(cache api.CodeCache) *Config {
	ret := c.clone()
	ret.cache = cache
	return ret
}

// WithArenaPool replaces the default scratch arena. The pool is trimmed
// after every compile call, so substitutes must tolerate frequent
// TrimMaps.
func (c *Config) WithArenaPool(pool api.ArenaPool) *Config {
	ret := c.clone()
	ret.pool = pool
	return ret
}

// WithClock replaces the timing clock. The clock returns nanoseconds;
// only differences between readings are ever used. Defaults to per-thread
// CPU time where available, the monotonic clock elsewhere.
func (c *Config) WithClock(clock func() int64) *Config {
	ret := c.clone()
	ret.clock = clock
	return ret
}

// WithLogger sets the logger for option-parsing warnings and compile
// traces. Defaults to zerolog.Nop.
func (c *Config) WithLogger(logger zerolog.Logger) *Config {
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithPerfMapDir sets the directory the perf map compile log is created
// in when generate-debug-info is enabled. Defaults to os.TempDir.
func (c *Config) WithPerfMapDir(dir string) *Config {
	ret := c.clone()
	ret.perfMapDir = dir
	return ret
}
