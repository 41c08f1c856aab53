package gc

import (
	"fmt"

	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Scope is a frame of the collector's shadow stack. Objects kept by a live
// scope survive collection.
type Scope struct {
	gc     *GC
	parent *Scope
	depth  int
	kept   []object.Object
	left   bool
}

// Enter pushes a new innermost scope.
func (g *GC) Enter() *Scope {
	s := &Scope{gc: g, depth: len(g.scopes)}
	if n := len(g.scopes); n > 0 {
		s.parent = g.scopes[n-1]
	}
	g.scopes = append(g.scopes, s)
	return s
}

func (g *GC) top() *Scope {
	if len(g.scopes) == 0 {
		return g.Enter()
	}
	return g.scopes[len(g.scopes)-1]
}

// Depth returns the scope's position on the shadow stack; the base scope is 0.
func (s *Scope) Depth() int { return s.depth }

// Keep pins obj for the lifetime of the scope.
func (s *Scope) Keep(obj object.Object) object.Object {
	if obj != nil {
		s.kept = append(s.kept, obj)
	}
	return obj
}

// Drop releases one pin of obj held by the scope.
func (s *Scope) Drop(obj object.Object) {
	for i := len(s.kept) - 1; i >= 0; i-- {
		if s.kept[i] == obj {
			s.kept = append(s.kept[:i], s.kept[i+1:]...)
			return
		}
	}
}

// Escape moves obj to the enclosing scope so it outlives this one.
func (s *Scope) Escape(obj object.Object) object.Object {
	s.Drop(obj)
	if s.parent != nil {
		s.parent.Keep(obj)
	}
	return obj
}

// Leave pops the scope. Scopes must be left innermost first, and the base
// scope cannot be left.
func (s *Scope) Leave() {
	g := s.gc
	n := len(g.scopes)
	if s.parent == nil {
		exception.Abort("Cannot leave the base GC scope")
	}
	if s.left || n == 0 || g.scopes[n-1] != s {
		exception.Abort(fmt.Sprintf("GC scope %d left out of order", s.depth))
	}
	s.left = true
	s.kept = nil
	g.scopes[n-1] = nil
	g.scopes = g.scopes[:n-1]
}

// Scoped runs fn inside a new scope and leaves it on every exit path.
func (g *GC) Scoped(fn func(s *Scope)) {
	s := g.Enter()
	defer s.Leave()
	fn(s)
}
