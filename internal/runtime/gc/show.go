package gc

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Type is the object type of collectors.
var Type *object.Type

var current atomic.Pointer[func() *GC]

// SetCurrent installs the function object.Current(gc.Type) uses to find the
// calling thread's collector.
func SetCurrent(fn func() *GC) { current.Store(&fn) }

func currentGC() object.Object {
	if fn := current.Load(); fn != nil {
		if g := (*fn)(); g != nil {
			return g
		}
	}
	exception.Throw(errors.ValueError, "No collector is running on the current thread")
	return nil
}

func init() {
	Type = object.Define[GC]("GC",
		&object.DocOps{
			Name:  "GC",
			Brief: "Garbage Collector",
			Description: "The GC tracks heap objects and frees those that are no longer reachable from " +
				"its roots, its root sources or a live scope.",
		},
		&object.AllocOps{Alloc: func(t *object.Type) object.Object { return New() }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*GC).Len() }},
		&object.GetOps{
			Mem: func(self, key object.Object) bool { return self.(*GC).Mem(key) },
			Rem: func(self, key object.Object) { self.(*GC).Rem(key) },
		},
		&object.StartOps{
			Start:   func(self object.Object) { self.(*GC).Start() },
			Stop:    func(self object.Object) { self.(*GC).Stop() },
			Running: func(self object.Object) bool { return self.(*GC).Running() },
		},
		&object.CurrentOps{Current: currentGC},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) { self.(*GC).dump(b) }},
	)
}

func (g *GC) dump(b *strings.Builder) {
	fmt.Fprintf(b, "<'GC' At %p\n", g)
	for i, e := range g.table.entries {
		if e.hash == 0 {
			fmt.Fprintf(b, "| %d : \n", i)
			continue
		}
		kind := "auto"
		if e.root {
			kind = "root"
		}
		fmt.Fprintf(b, "| %d : %15s %p %s\n", i, "'"+object.TypeOf(e.obj).Name()+"'", e.obj, kind)
	}
	b.WriteString("+------------------->\n")
}

// Show renders the collector's table for debugging.
func (g *GC) Show() string {
	var b strings.Builder
	g.dump(&b)
	return b.String()
}

// Fprint writes the debugging dump to w.
func (g *GC) Fprint(w io.Writer) (int, error) {
	return io.WriteString(w, g.Show())
}
