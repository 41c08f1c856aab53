package collections

import (
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Tuple is a fixed sequence of references. It does not own its items, and
// its length is explicit: Terminal may be stored, but iteration stops there.
type Tuple struct {
	object.Header
	items []object.Object
	// cursor is the position of the item last handed out by Next, so
	// iteration over repeated references stays in order.
	cursor int
	// borrowed is set while items is still the slice passed to T.
	borrowed bool
}

// TupleType is the runtime type of Tuple.
var TupleType *object.Type

func init() {
	TupleType = object.Define[Tuple]("Tuple",
		&object.DocOps{
			Name:  "Tuple",
			Brief: "Reference Sequence",
			Description: "The Tuple type is a sequence of references to other objects. Building a " +
				"tuple does not copy its items, and deleting it does not delete them.",
			Examples: []string{"t := collections.T(object.I(1), object.S(\"a\"))\nobject.Show(t) // tuple(1, \"a\")"},
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			self.(*Tuple).items = append([]object.Object(nil), args...)
		}},
		&object.AssignOps{Assign: func(self, obj object.Object) {
			t := self.(*Tuple)
			if obj == object.Object(t) {
				return
			}
			t.items = object.Items(obj)
			t.cursor, t.borrowed = 0, false
		}},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			return cmpSeq(self.(*Tuple).all(), object.All(obj))
		}},
		&object.HashOps{Hash: func(self object.Object) uint64 { return hashSeq(self.(*Tuple).all()) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			for _, item := range self.(*Tuple).items {
				if item != nil {
					visit(item)
				}
			}
		}},
		&object.LenOps{Len: func(self object.Object) int { return len(self.(*Tuple).items) }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return self.(*Tuple).iterAt(0) },
			Next: func(self, cur object.Object) object.Object {
				t := self.(*Tuple)
				if i := t.indexOf(cur); i >= 0 {
					return t.iterAt(i + 1)
				}
				return object.Terminal
			},
			Last: func(self object.Object) object.Object {
				t := self.(*Tuple)
				return t.iterAt(t.end() - 1)
			},
			Prev: func(self, cur object.Object) object.Object {
				t := self.(*Tuple)
				if i := t.indexOf(cur); i >= 0 {
					return t.iterAt(i - 1)
				}
				return object.Terminal
			},
			Type: func(self object.Object) *object.Type { return object.RefType },
		},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*Tuple).Get(key(k)) },
			Set:     func(self, k, v object.Object) { self.(*Tuple).Set(key(k), v) },
			Mem:     func(self, v object.Object) bool { return self.(*Tuple).Mem(v) },
			Rem:     func(self, v object.Object) { self.(*Tuple).Rem(v) },
			KeyType: func(self object.Object) *object.Type { return object.IntType },
			ValType: func(self object.Object) *object.Type { return object.RefType },
		},
		&object.PushOps{
			Push:   func(self, v object.Object) { self.(*Tuple).Push(v) },
			Pop:    func(self object.Object) { self.(*Tuple).Pop() },
			PushAt: func(self, v, k object.Object) { self.(*Tuple).PushAt(v, key(k)) },
			PopAt:  func(self, k object.Object) { self.(*Tuple).PopAt(key(k)) },
		},
		&object.ConcatOps{
			Concat: func(self, obj object.Object) {
				t := self.(*Tuple)
				t.items = append(t.own(), object.Items(obj)...)
			},
			Append: func(self, v object.Object) { self.(*Tuple).Push(v) },
		},
		&object.ResizeOps{Resize: func(self object.Object, n int) { self.(*Tuple).Resize(n) }},
		&object.SortOps{SortBy: func(self object.Object, less func(a, b object.Object) bool) {
			self.(*Tuple).SortBy(less)
		}},
		&object.ReverseOps{Reverse: func(self object.Object) {
			items := self.(*Tuple).own()
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
		}},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showSeq(b, "tuple(", ")", self.(*Tuple).all())
		}},
	)
}

// NewTuple allocates a heap Tuple referencing items.
func NewTuple(items ...object.Object) *Tuple {
	return object.New(TupleType, items...).(*Tuple)
}

// T returns a temporary Tuple referencing items. The tuple reads the
// caller's slice directly and copies it before its first modification.
func T(items ...object.Object) *Tuple {
	t := &Tuple{items: items, borrowed: true}
	object.InitHeader(t, TupleType, object.AllocStack)
	return t
}

// Items returns the referenced objects. The slice is shared with the tuple.
func (t *Tuple) Items() []object.Object { return t.items }

// own detaches the tuple from a slice it was built over and returns its
// items.
func (t *Tuple) own() []object.Object {
	if t.borrowed {
		t.items = append([]object.Object(nil), t.items...)
		t.borrowed = false
	}
	return t.items
}

// Len returns the number of stored references, including any Terminal.
func (t *Tuple) Len() int { return len(t.items) }

// end is the position of the first Terminal, where iteration stops.
func (t *Tuple) end() int {
	for i, item := range t.items {
		if item == object.Terminal {
			return i
		}
	}
	return len(t.items)
}

func (t *Tuple) iterAt(i int) object.Object {
	if i < 0 || i >= len(t.items) || t.items[i] == object.Terminal {
		return object.Terminal
	}
	t.cursor = i
	return t.items[i]
}

func (t *Tuple) indexOf(cur object.Object) int {
	if t.cursor < len(t.items) && t.items[t.cursor] == cur {
		return t.cursor
	}
	for i, item := range t.items {
		if item == cur {
			return i
		}
	}
	return -1
}

func (t *Tuple) all() iter.Seq[object.Object] {
	return func(yield func(object.Object) bool) {
		for _, item := range t.items {
			if item == object.Terminal || !yield(item) {
				return
			}
		}
	}
}

// Get returns the reference at i. Negative indices count from the end.
func (t *Tuple) Get(i int) object.Object {
	return t.items[position(i, len(t.items), "Tuple")]
}

// Set replaces the reference at i.
func (t *Tuple) Set(i int, v object.Object) {
	t.own()[position(i, len(t.items), "Tuple")] = v
}

func (t *Tuple) find(v object.Object) int {
	for i, item := range t.items[:t.end()] {
		if object.Eq(item, v) {
			return i
		}
	}
	return -1
}

// Mem reports whether an item equal to v is referenced.
func (t *Tuple) Mem(v object.Object) bool { return t.find(v) >= 0 }

// Rem removes the first reference to an item equal to v.
func (t *Tuple) Rem(v object.Object) {
	i := t.find(v)
	if i < 0 {
		notFound(v, "Tuple")
	}
	t.PopAt(i)
}

// Push appends a reference to v.
func (t *Tuple) Push(v object.Object) { t.items = append(t.own(), v) }

// Pop drops the last reference.
func (t *Tuple) Pop() {
	if len(t.items) == 0 {
		exception.Raise(errors.EmptyPop("Tuple"))
	}
	t.own()
	t.items[len(t.items)-1] = nil
	t.items = t.items[:len(t.items)-1]
}

// PushAt inserts a reference to v before position i. i may equal Len.
func (t *Tuple) PushAt(v object.Object, i int) {
	i = insertPosition(i, len(t.items), "Tuple")
	t.items = append(t.own(), nil)
	copy(t.items[i+1:], t.items[i:])
	t.items[i] = v
}

// PopAt drops the reference at i.
func (t *Tuple) PopAt(i int) {
	i = position(i, len(t.items), "Tuple")
	t.own()
	copy(t.items[i:], t.items[i+1:])
	t.items[len(t.items)-1] = nil
	t.items = t.items[:len(t.items)-1]
}

// Resize truncates the tuple to n references. Tuples cannot grow this way.
func (t *Tuple) Resize(n int) {
	if n < 0 || n > len(t.items) {
		exception.Throw(errors.FormatError, "Cannot resize Tuple to %d as it only contains %d items", n, len(t.items))
	}
	clear(t.own()[n:])
	t.items = t.items[:n]
}

// SortBy sorts the references so that less holds between neighbours.
func (t *Tuple) SortBy(less func(x, y object.Object) bool) {
	items := t.own()
	quicksort(0, len(items)-1, func(i, j int) bool {
		return less(items[i], items[j])
	}, func(i, j int) { items[i], items[j] = items[j], items[i] })
}
