package collections

import (
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Array is a growable contiguous sequence of values of one element type.
// Items are stored inside the array, so pushing copies the value in.
// Pointers to items are invalidated when the array grows.
type Array struct {
	object.Header
	elem   *object.Type
	items  slots
	nitems int
}

// ArrayType is the runtime type of Array.
var ArrayType *object.Type

func init() {
	ArrayType = object.Define[Array]("Array",
		&object.DocOps{
			Name:  "Array",
			Brief: "Sequential Container",
			Description: "The Array type is a contiguous, growable sequence of objects of a single " +
				"type. Items are stored inline and copied in on insertion. Negative indices " +
				"count from the end.",
			Examples: []string{
				"a := collections.NewArray(object.IntType, object.I(1), object.I(2))\n" +
					"object.Push(a, object.I(3))\nobject.Show(a) // [1, 2, 3]",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				a := self.(*Array)
				t, rest := typeArg(args, "Array")
				a.reset(t)
				for _, item := range rest {
					a.Push(item)
				}
			},
			Del: func(self object.Object) { self.(*Array).clear() },
		},
		&object.AssignOps{Assign: func(self, obj object.Object) { self.(*Array).assign(obj) }},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			return cmpSeq(self.(*Array).all(), object.All(obj))
		}},
		&object.HashOps{Hash: func(self object.Object) uint64 { return hashSeq(self.(*Array).all()) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			for item := range self.(*Array).all() {
				visit(item)
			}
		}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*Array).nitems }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return self.(*Array).iterAt(0) },
			Next: func(self, cur object.Object) object.Object {
				a := self.(*Array)
				if i := a.items.indexOf(cur); i >= 0 {
					return a.iterAt(i + 1)
				}
				return object.Terminal
			},
			Last: func(self object.Object) object.Object {
				a := self.(*Array)
				return a.iterAt(a.nitems - 1)
			},
			Prev: func(self, cur object.Object) object.Object {
				a := self.(*Array)
				if i := a.items.indexOf(cur); i >= 0 {
					return a.iterAt(i - 1)
				}
				return object.Terminal
			},
			Type: func(self object.Object) *object.Type { return self.(*Array).Elem() },
		},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*Array).Get(key(k)) },
			Set:     func(self, k, v object.Object) { self.(*Array).Set(key(k), v) },
			Mem:     func(self, v object.Object) bool { return self.(*Array).Mem(v) },
			Rem:     func(self, v object.Object) { self.(*Array).Rem(v) },
			KeyType: func(self object.Object) *object.Type { return object.IntType },
			ValType: func(self object.Object) *object.Type { return self.(*Array).Elem() },
		},
		&object.PushOps{
			Push:   func(self, v object.Object) { self.(*Array).Push(v) },
			Pop:    func(self object.Object) { self.(*Array).Pop() },
			PushAt: func(self, v, k object.Object) { self.(*Array).PushAt(v, key(k)) },
			PopAt:  func(self, k object.Object) { self.(*Array).PopAt(key(k)) },
		},
		&object.ConcatOps{
			Concat: func(self, obj object.Object) { self.(*Array).Concat(obj) },
			Append: func(self, v object.Object) { self.(*Array).Push(v) },
		},
		&object.ResizeOps{Resize: func(self object.Object, n int) { self.(*Array).Resize(n) }},
		&object.SortOps{SortBy: func(self object.Object, less func(a, b object.Object) bool) {
			self.(*Array).SortBy(less)
		}},
		&object.ReverseOps{Reverse: func(self object.Object) { self.(*Array).Reverse() }},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showSeq(b, "[", "]", self.(*Array).all())
		}},
	)
}

// NewArray allocates a heap Array of elem holding copies of items.
func NewArray(elem *object.Type, items ...object.Object) *Array {
	args := append([]object.Object{elem}, items...)
	return object.New(ArrayType, args...).(*Array)
}

// Elem returns the element type. Arrays never given one hold Refs.
func (a *Array) Elem() *object.Type {
	if a.elem == nil {
		return object.RefType
	}
	return a.elem
}

// Len returns the number of items.
func (a *Array) Len() int { return a.nitems }

// Cap returns the number of allocated slots.
func (a *Array) Cap() int { return a.items.len() }

func (a *Array) reset(t *object.Type) {
	a.clear()
	a.elem = t
	a.items = newSlots(t, 0)
}

func (a *Array) clear() {
	for i := a.nitems - 1; i >= 0; i-- {
		a.items.destroy(i)
	}
	a.nitems = 0
}

// reserve makes room for n items, growing by half again.
func (a *Array) reserve(n int) {
	if a.items.typ == nil {
		a.items = newSlots(a.Elem(), 0)
	}
	have := a.items.len()
	if n <= have {
		return
	}
	grow := have + have/2
	if grow < n {
		grow = n
	}
	a.items.resize(grow)
}

// shrink releases slots once they outnumber the items by more than half.
func (a *Array) shrink() {
	if want := a.nitems + a.nitems/2; a.items.len() > want {
		a.items.resize(want)
	}
}

func (a *Array) iterAt(i int) object.Object {
	if i < 0 || i >= a.nitems {
		return object.Terminal
	}
	return a.items.at(i)
}

func (a *Array) all() iter.Seq[object.Object] {
	return func(yield func(object.Object) bool) {
		for i := 0; i < a.nitems; i++ {
			if !yield(a.items.at(i)) {
				return
			}
		}
	}
}

// assign replaces the contents with copies of src's items. The element
// type becomes the type src iterates over.
func (a *Array) assign(src object.Object) {
	if src == object.Object(a) {
		return
	}
	next := &Array{elem: iterType(src)}
	next.items = newSlots(next.elem, sizeHint(src))
	for item := range object.All(src) {
		next.Push(item)
	}
	a.clear()
	a.elem, a.items, a.nitems = next.elem, next.items, next.nitems
}

// Get returns the item at i. Negative indices count from the end.
func (a *Array) Get(i int) object.Object {
	return a.items.at(position(i, a.nitems, "Array"))
}

// Set assigns v into the item at i.
func (a *Array) Set(i int, v object.Object) {
	object.Assign(a.items.at(position(i, a.nitems, "Array")), v)
}

func (a *Array) find(v object.Object) int {
	for i := 0; i < a.nitems; i++ {
		if object.Eq(a.items.at(i), v) {
			return i
		}
	}
	return -1
}

// Mem reports whether an item equal to v is present.
func (a *Array) Mem(v object.Object) bool { return a.find(v) >= 0 }

// Rem removes the first item equal to v.
func (a *Array) Rem(v object.Object) {
	i := a.find(v)
	if i < 0 {
		notFound(v, "Array")
	}
	a.PopAt(i)
}

// Push appends a copy of v.
func (a *Array) Push(v object.Object) {
	a.reserve(a.nitems + 1)
	a.items.put(a.nitems, v)
	a.nitems++
}

// Pop removes the last item.
func (a *Array) Pop() {
	if a.nitems == 0 {
		exception.Raise(errors.EmptyPop("Array"))
	}
	a.nitems--
	a.items.destroy(a.nitems)
	a.shrink()
}

// PushAt inserts a copy of v before position i. i may equal Len.
func (a *Array) PushAt(v object.Object, i int) {
	i = insertPosition(i, a.nitems, "Array")
	a.reserve(a.nitems + 1)
	a.items.put(a.nitems, v)
	for j := a.nitems; j > i; j-- {
		a.items.swap(j, j-1)
	}
	a.nitems++
}

// PopAt removes the item at i.
func (a *Array) PopAt(i int) {
	i = position(i, a.nitems, "Array")
	a.items.destroy(i)
	for j := i; j < a.nitems-1; j++ {
		a.items.move(j, j+1)
	}
	a.nitems--
	a.shrink()
}

// Concat appends copies of every item of obj.
func (a *Array) Concat(obj object.Object) {
	for _, item := range object.Items(obj) {
		a.Push(item)
	}
}

// Resize sets the number of slots to n, dropping items past n.
func (a *Array) Resize(n int) {
	if n < 0 {
		exception.Throw(errors.FormatError, "Cannot resize Array to %d items", n)
	}
	for a.nitems > n {
		a.nitems--
		a.items.destroy(a.nitems)
	}
	if a.items.typ == nil {
		a.items = newSlots(a.Elem(), n)
		return
	}
	a.items.resize(n)
}

// SortBy sorts the items in place so that less holds between neighbours.
func (a *Array) SortBy(less func(x, y object.Object) bool) {
	quicksort(0, a.nitems-1, func(i, j int) bool {
		return less(a.items.at(i), a.items.at(j))
	}, a.items.swap)
}

// Reverse reverses the items in place.
func (a *Array) Reverse() {
	for i, j := 0, a.nitems-1; i < j; i, j = i+1, j-1 {
		a.items.swap(i, j)
	}
}
