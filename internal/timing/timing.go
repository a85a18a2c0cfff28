// Package timing captures named timing spans for one compile call and
// merges them into a process-wide cumulative aggregate.
//
// A Recorder is scoped to a single call and is not safe for concurrent
// use; the Aggregate it merges into is.
package timing

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kilnvm/kiln/internal/platform"
)

// Clock returns a timestamp in nanoseconds. Only differences between
// readings are meaningful.
type Clock func() int64

// DefaultClock prefers per-thread CPU time over wall-clock time, for
// attribution accuracy under contention, falling back to the monotonic
// clock where per-thread readings are unavailable.
func DefaultClock() int64 {
	if v, ok := platform.ThreadCPUNanotime(); ok {
		return v
	}
	return platform.Nanotime()
}

// Span is one named, completed timing span.
type Span struct {
	Name     string
	Duration time.Duration
}

// Recorder collects the spans of one compile call, in start order. No
// per-call history survives a Merge into the Aggregate; the recorder is
// discarded afterwards.
type Recorder struct {
	name  string
	clock Clock
	spans []Span
}

// NewRecorder returns a Recorder stamping spans with the given clock.
// A nil clock selects DefaultClock.
func NewRecorder(name string, clock Clock) *Recorder {
	if clock == nil {
		clock = Clock(DefaultClock)
	}
	return &Recorder{name: name, clock: clock}
}

// Start opens a named span and returns the function closing it. Typical
// use brackets one phase of a compile call:
//
//	defer rec.Start("compiling")()
func (r *Recorder) Start(name string) (stop func()) {
	begin := r.clock()
	return func() {
		r.spans = append(r.spans, Span{
			Name:     name,
			Duration: time.Duration(r.clock() - begin),
		})
	}
}

// Spans returns the completed spans in start order.
func (r *Recorder) Spans() []Span { return r.spans }

// Name returns the recorder's name.
func (r *Recorder) Name() string { return r.name }

// Aggregate is the process-wide cumulative timing state, keyed by span
// name. Safe for concurrent use.
type Aggregate struct {
	mux   sync.Mutex
	total map[string]time.Duration
	count map[string]uint64
}

// NewAggregate returns an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		total: map[string]time.Duration{},
		count: map[string]uint64{},
	}
}

// Merge adds every span of the recorder into the aggregate. The recorder
// must not be used afterwards.
func (a *Aggregate) Merge(r *Recorder) {
	a.mux.Lock()
	defer a.mux.Unlock()
	for _, s := range r.spans {
		a.total[s.Name] += s.Duration
		a.count[s.Name]++
	}
}

// Snapshot returns a copy of the cumulative durations, keyed by span
// name.
func (a *Aggregate) Snapshot() map[string]time.Duration {
	a.mux.Lock()
	defer a.mux.Unlock()
	ret := make(map[string]time.Duration, len(a.total))
	for name, d := range a.total {
		ret[name] = d
	}
	return ret
}

// Total returns the cumulative duration and merge count recorded for the
// named span.
func (a *Aggregate) Total(name string) (time.Duration, uint64) {
	a.mux.Lock()
	defer a.mux.Unlock()
	return a.total[name], a.count[name]
}

// String implements fmt.Stringer with one "name: total (count)" entry per
// span name, sorted by name.
func (a *Aggregate) String() string {
	a.mux.Lock()
	defer a.mux.Unlock()
	names := make([]string, 0, len(a.total))
	for name := range a.total {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s (%d)", name, a.total[name], a.count[name])
	}
	return b.String()
}
