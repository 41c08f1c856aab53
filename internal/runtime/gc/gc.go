// Package gc implements a tracing mark-and-sweep collector over explicitly
// tracked objects.
//
// Tracked objects live in a Robin-Hood table keyed by address. An object
// survives a collection when it is reachable from a root entry, from one of
// the collector's root sources, or from an object kept by a live handle
// scope. Scopes form a shadow stack: every tracked allocation is kept by
// the innermost scope until that scope is left.
package gc

import (
	"github.com/google/uuid"

	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Logger receives collector diagnostics.
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// RootSource reports objects that must survive every collection.
type RootSource func(visit func(object.Object))

// Stats summarises collector activity.
type Stats struct {
	ID          string
	Live        uint64
	Slots       uint64
	Threshold   uint64
	Tracked     uint64
	Collections uint64
	Freed       uint64
	Scopes      int
}

// GC is a collector. It is owned by a single thread and is not safe for
// concurrent use.
type GC struct {
	object.Header

	id         uuid.UUID
	running    bool
	collecting bool
	table      table
	mitems     uint64
	freelist   []object.Object
	scopes     []*Scope
	sources    []RootSource
	log        Logger
	stats      Stats
}

// Option configures a collector.
type Option func(*GC)

// WithRoots adds a root source scanned at the start of every mark phase.
func WithRoots(src RootSource) Option {
	return func(g *GC) { g.sources = append(g.sources, src) }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option {
	return func(g *GC) {
		if l != nil {
			g.log = l
		}
	}
}

// New creates a running collector with an empty base scope.
func New(opts ...Option) *GC {
	g := &GC{
		id:      uuid.New(),
		running: true,
		log:     nopLogger{},
		mitems:  1,
	}
	object.InitHeader(g, Type, object.AllocStatic)
	for _, opt := range opts {
		opt(g)
	}
	g.Enter()
	return g
}

// ID returns the collector's unique identifier.
func (g *GC) ID() uuid.UUID { return g.id }

// Start resumes tracking and collection.
func (g *GC) Start() { g.running = true }

// Stop suspends tracking and collection. Objects tracked so far stay tracked.
func (g *GC) Stop() { g.running = false }

// Running reports whether the collector is tracking allocations.
func (g *GC) Running() bool { return g.running }

func (g *GC) enabled() bool {
	return g.running && config.Current().GC
}

// Len returns the number of tracked objects.
func (g *GC) Len() int { return int(g.table.nitems) }

// Stats returns a snapshot of the collector's counters.
func (g *GC) Stats() Stats {
	s := g.stats
	s.ID = g.id.String()
	s.Live = g.table.nitems
	s.Slots = g.table.nslots()
	s.Threshold = g.mitems
	s.Scopes = len(g.scopes)
	return s
}

// Alloc allocates a heap object of type t and tracks it.
func (g *GC) Alloc(t *object.Type) object.Object {
	return g.Track(object.Alloc(t))
}

// New allocates, constructs and tracks a heap object.
func (g *GC) New(t *object.Type, args ...object.Object) object.Object {
	return g.Track(object.New(t, args...))
}

// NewRoot allocates, constructs and tracks a heap object as a root.
func (g *GC) NewRoot(t *object.Type, args ...object.Object) object.Object {
	return g.TrackRoot(object.New(t, args...))
}

// Track places a heap object under collection and keeps it in the innermost
// scope. It may trigger a collection.
func (g *GC) Track(obj object.Object) object.Object {
	return g.track(obj, false)
}

// TrackRoot places a heap object under collection as a root. Roots are never
// collected until unrooted.
func (g *GC) TrackRoot(obj object.Object) object.Object {
	return g.track(obj, true)
}

func (g *GC) track(obj object.Object, root bool) object.Object {
	if !g.enabled() {
		return obj
	}

	object.TypeOf(obj) // validates the header
	h := object.HeaderOf(obj)
	if h.Alloc() != object.AllocHeap {
		return obj
	}

	if i, ok := g.table.find(object.Address(obj)); ok {
		if root {
			g.table.entries[i].root = true
		}
		return obj
	}
	if owner := h.Tracker(); owner != nil && owner != object.Tracker(g) {
		exception.Throw(errors.ResourceError, "Object %s is already tracked by another collector", object.Show(obj))
	}

	g.table.insert(obj, root)
	h.SetTracker(g)
	g.stats.Tracked++
	if !root {
		g.top().Keep(obj)
	}

	if g.table.nitems > g.mitems && !g.collecting {
		g.Collect()
	}
	return obj
}

// Mem reports whether obj is tracked by this collector.
func (g *GC) Mem(obj object.Object) bool {
	if obj == nil {
		return false
	}
	_, ok := g.table.find(object.Address(obj))
	return ok
}

// Rem stops tracking obj without destroying it. An object waiting in the
// current sweep's free list is dropped from it.
func (g *GC) Rem(obj object.Object) {
	if obj == nil {
		return
	}
	if i, ok := g.table.find(object.Address(obj)); ok {
		g.table.removeAt(i)
	}
	for i, f := range g.freelist {
		if f == obj {
			g.freelist[i] = nil
		}
	}
	if h := object.HeaderOf(obj); h.Tracker() == object.Tracker(g) {
		h.SetTracker(nil)
	}
}

// Untrack implements object.Tracker.
func (g *GC) Untrack(obj object.Object) { g.Rem(obj) }

// Del destructs and deallocates obj, removing it from the collector.
func (g *GC) Del(obj object.Object) {
	object.Del(obj)
}

// Root marks a tracked object as a root, tracking it first if needed.
func (g *GC) Root(obj object.Object) {
	g.TrackRoot(obj)
}

// Unroot clears the root flag of a tracked object. It becomes collectable
// once unreachable.
func (g *GC) Unroot(obj object.Object) {
	if i, ok := g.table.find(object.Address(obj)); ok {
		g.table.entries[i].root = false
	}
}

// IsRoot reports whether obj is tracked as a root.
func (g *GC) IsRoot(obj object.Object) bool {
	i, ok := g.table.find(object.Address(obj))
	return ok && g.table.entries[i].root
}

// Collect runs a full mark and sweep.
func (g *GC) Collect() {
	if g.collecting {
		return
	}
	g.collecting = true
	defer func() { g.collecting = false }()

	before := g.table.nitems
	g.Mark()
	g.Sweep()
	g.stats.Collections++
	g.log.Debug("gc %s: collected %d of %d objects, threshold %d",
		g.id, before-g.table.nitems, before, g.mitems)
}

// Finish destroys every tracked object, roots included, and stops the
// collector. Scopes are discarded.
func (g *GC) Finish() {
	g.collecting = true
	defer func() { g.collecting = false }()

	g.freelist = g.freelist[:0]
	for _, e := range g.table.entries {
		if e.hash != 0 {
			g.freelist = append(g.freelist, e.obj)
		}
	}
	g.table.reset()
	g.scopes = nil
	g.release()
	g.running = false
	g.log.Debug("gc %s: finished", g.id)
}

// release destructs and deallocates the objects in the free list. Entries may
// be cleared while this runs when destructors delete their siblings.
func (g *GC) release() {
	for i := 0; i < len(g.freelist); i++ {
		obj := g.freelist[i]
		if obj == nil {
			continue
		}
		g.freelist[i] = nil
		object.HeaderOf(obj).SetTracker(nil)
		object.Destruct(obj)
		object.Dealloc(obj)
		g.stats.Freed++
	}
	g.freelist = g.freelist[:0]
}
