package views

import (
	"strings"

	"github.com/orizon-lang/objrt/internal/object"
)

// Filter iterates the items of another iterable for which a predicate
// holds. The predicate is re-applied on every step in both directions.
type Filter struct {
	object.Header
	iter object.Object
	fn   object.Object
}

// Map iterates the results of calling a function on each item of another
// iterable. Results are computed lazily, one per step.
type Map struct {
	object.Header
	iter object.Object
	fn   object.Object
	cur  object.Object
}

var (
	// FilterType is the runtime type of Filter.
	FilterType *object.Type
	// MapType is the runtime type of Map.
	MapType *object.Type
)

func init() {
	FilterType = object.Define[Filter]("Filter",
		&object.DocOps{
			Name:  "Filter",
			Brief: "Filtered Iterable",
			Description: "The Filter type iterates over the items of an iterable for which a " +
				"callable returns a true value. Nil, Undef and zero integers are false.",
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			f := self.(*Filter)
			f.iter, f.fn = viewArgs(args, "Filter")
		}},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			f := self.(*Filter)
			visitAll(visit, f.iter, f.fn)
		}},
		&object.IterOps{
			Init: func(self object.Object) object.Object {
				f := self.(*Filter)
				return f.skip(object.IterInit(f.iter), object.IterNext)
			},
			Next: func(self, cur object.Object) object.Object {
				f := self.(*Filter)
				return f.skip(object.IterNext(f.iter, cur), object.IterNext)
			},
			Last: func(self object.Object) object.Object {
				f := self.(*Filter)
				return f.skip(object.IterLast(f.iter), object.IterPrev)
			},
			Prev: func(self, cur object.Object) object.Object {
				f := self.(*Filter)
				return f.skip(object.IterPrev(f.iter, cur), object.IterPrev)
			},
			Type: func(self object.Object) *object.Type { return itemType(self.(*Filter).iter) },
		},
		&object.GetOps{Mem: func(self, k object.Object) bool { return contains(self, k) }},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showView(b, self, "Filter")
		}},
	)

	MapType = object.Define[Map]("Map",
		&object.DocOps{
			Name:  "Map",
			Brief: "Apply Function to Iterable",
			Description: "The Map type iterates over the results of applying a callable to each " +
				"item of an iterable. The result type is unknown, so containers built from a " +
				"Map hold Refs. Calling a Map evaluates every item.",
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			m := self.(*Map)
			m.iter, m.fn = viewArgs(args, "Map")
			m.cur = nil
		}},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			m := self.(*Map)
			visitAll(visit, m.iter, m.fn)
		}},
		&object.LenOps{
			Len:   func(self object.Object) int { return object.Len(self.(*Map).iter) },
			Sized: func(self object.Object) bool { return object.Sized(self.(*Map).iter) },
		},
		&object.IterOps{
			Init: func(self object.Object) object.Object {
				m := self.(*Map)
				return m.apply(object.IterInit(m.iter))
			},
			Next: func(self, cur object.Object) object.Object {
				m := self.(*Map)
				return m.apply(object.IterNext(m.iter, m.cur))
			},
			Last: func(self object.Object) object.Object {
				m := self.(*Map)
				return m.apply(object.IterLast(m.iter))
			},
			Prev: func(self, cur object.Object) object.Object {
				m := self.(*Map)
				return m.apply(object.IterPrev(m.iter, m.cur))
			},
			Type: func(self object.Object) *object.Type { return object.RefType },
		},
		&object.GetOps{
			Get: func(self, k object.Object) object.Object {
				m := self.(*Map)
				return m.apply(object.Get(m.iter, k))
			},
			Mem: func(self, k object.Object) bool { return contains(self, k) },
		},
		&object.CallOps{Call: func(self object.Object, args []object.Object) object.Object {
			for range object.All(self) {
			}
			return object.Terminal
		}},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showView(b, self, "Map")
		}},
	)
}

// NewFilter allocates a heap Filter keeping the items of iter for which fn
// returns a true value.
func NewFilter(iter, fn object.Object) *Filter {
	return object.New(FilterType, iter, fn).(*Filter)
}

// FilterOf returns a temporary Filter over iter.
func FilterOf(iter object.Object, pred func(object.Object) bool) *Filter {
	f := &Filter{iter: iter, fn: predicate(pred)}
	object.InitHeader(f, FilterType, object.AllocStack)
	return f
}

// NewMap allocates a heap Map applying fn to the items of iter.
func NewMap(iter, fn object.Object) *Map {
	return object.New(MapType, iter, fn).(*Map)
}

// MapOf returns a temporary Map over iter.
func MapOf(iter object.Object, fn func(object.Object) object.Object) *Map {
	m := &Map{iter: iter, fn: object.Fn(func(args []object.Object) object.Object { return fn(args[0]) })}
	object.InitHeader(m, MapType, object.AllocStack)
	return m
}

func (f *Filter) skip(cur object.Object, step func(obj, cur object.Object) object.Object) object.Object {
	for cur != object.Terminal && !Truthy(object.Call(f.fn, cur)) {
		cur = step(f.iter, cur)
	}
	return cur
}

func (m *Map) apply(cur object.Object) object.Object {
	m.cur = cur
	if cur == object.Terminal {
		return cur
	}
	if v := object.Call(m.fn, cur); v != nil {
		return v
	}
	return object.Undef
}

// Truthy reports whether a predicate result counts as true. Nil, Undef,
// Terminal and objects converting to integer zero are false.
func Truthy(v object.Object) bool {
	if v == nil || v == object.Undef || v == object.Terminal {
		return false
	}
	if object.ImplementsMethod(v, object.CapCInt, "CInt") {
		return object.CInt(v) != 0
	}
	return true
}

func predicate(pred func(object.Object) bool) object.Object {
	return object.Fn(func(args []object.Object) object.Object {
		if pred(args[0]) {
			return object.I(1)
		}
		return object.I(0)
	})
}
