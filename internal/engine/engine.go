// Package engine provides the reference api.Backend: it assembles one
// native entry stub per method and commits it to the code cache. A full
// optimizing pipeline plugs in behind the same interface; this backend
// exists so the orchestration layer, its resource handling and its
// telemetry can run end to end on real generated code.
package engine

import (
	"fmt"

	"github.com/kilnvm/kiln/api"
	"github.com/kilnvm/kiln/isa"
)

// maxCompilableCodeUnits rejects pathologically large methods before any
// resources are spent on them. The limit is a backend property, not part
// of the loaded configuration: it is about this backend's own scratch
// memory behavior.
const maxCompilableCodeUnits = 1 << 16

// codeAlignment is the boundary generated code is padded to before commit.
const codeAlignment = 16

type backend struct {
	features isa.Features
	pool     api.ArenaPool
}

// NewBackend returns a backend generating code for the host instruction
// set. The feature set must belong to the host set: this backend cannot
// cross-compile.
func NewBackend(features isa.Features, pool api.ArenaPool) (api.Backend, error) {
	if !archSupported {
		return nil, fmt.Errorf("no backend for %s", isa.Host())
	}
	if features.ISA() != isa.Host() {
		return nil, fmt.Errorf("backend targets %s, requested %s", isa.Host(), features.ISA())
	}
	return &backend{features: features, pool: pool}, nil
}

// Compile implements the same method on the api.Backend interface.
//
// All failure is reported as false: the runtime falls back to non-compiled
// execution and may retry later.
func (b *backend) Compile(_ api.Thread, cache api.CodeCache, m api.Method, baseline, osr bool, log api.CompileLog) bool {
	if m.CodeUnits() > maxCompilableCodeUnits {
		return false
	}

	code, err := buildEntryStub(m)
	if err != nil {
		return false
	}

	// Stage into arena scratch to pad the stub to the commit alignment.
	// The scratch is freed before returning; the orchestrator trims the
	// arena after every call either way.
	staged := b.pool.Alloc(alignUp(len(code), codeAlignment))
	defer b.pool.Free(staged)
	copy(staged, code)

	addr, err := cache.Commit(m, staged)
	if err != nil {
		return false
	}
	if log != nil {
		log.Log(m, addr, len(staged))
	}
	return true
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
