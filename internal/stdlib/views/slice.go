package views

import (
	"cmp"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Slice iterates part of another iterable: positions [start, stop) taken
// step at a time. Bounds are clamped to the iterable's length when the
// slice is built. The inner iterable is walked, never copied.
type Slice struct {
	object.Header
	iter object.Object
	span Range
	// index is the slice position of the item last returned.
	index int
}

// SliceType is the runtime type of Slice.
var SliceType *object.Type

func init() {
	SliceType = object.Define[Slice]("Slice",
		&object.DocOps{
			Name:  "Slice",
			Brief: "Partial Iterable",
			Description: "The Slice type iterates over part of another iterable. It takes the " +
				"iterable followed by (stop), (start, stop) or (start, stop, step). Undef keeps " +
				"a bound at its default and negative bounds count from the end.",
			Examples: []string{
				"for s := range object.All(views.SliceOf(x, object.Undef, object.I(2), object.I(-1))) {\n" +
					"\tformat.Println(s)\n}",
			},
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			self.(*Slice).init(args)
		}},
		&object.AssignOps{Assign: func(self, obj object.Object) {
			s, o := self.(*Slice), object.Cast(obj, SliceType).(*Slice)
			s.iter = o.iter
			s.span.Start, s.span.Stop, s.span.Step = o.span.Start, o.span.Stop, o.span.Step
			s.index = 0
		}},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			s, o := self.(*Slice), object.Cast(obj, SliceType).(*Slice)
			if c := cmp.Compare(object.Address(s.iter), object.Address(o.iter)); c != 0 {
				return c
			}
			return object.Cmp(&s.span, &o.span)
		}},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			if it := self.(*Slice).iter; it != nil {
				visit(it)
			}
		}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*Slice).span.Len() }},
		&object.IterOps{
			Init: func(self object.Object) object.Object {
				s := self.(*Slice)
				return s.seek(0)
			},
			Next: func(self, cur object.Object) object.Object {
				s := self.(*Slice)
				return s.walk(cur, 1)
			},
			Last: func(self object.Object) object.Object {
				s := self.(*Slice)
				return s.seek(s.span.Len() - 1)
			},
			Prev: func(self, cur object.Object) object.Object {
				s := self.(*Slice)
				return s.walk(cur, -1)
			},
			Type: func(self object.Object) *object.Type { return itemType(self.(*Slice).iter) },
		},
		&object.GetOps{
			Get: func(self, k object.Object) object.Object {
				s := self.(*Slice)
				return object.Get(s.iter, object.I(s.span.At(int(object.CInt(k)))))
			},
			Mem: func(self, k object.Object) bool { return contains(self, k) },
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showView(b, self, "Slice")
		}},
	)
}

// NewSlice allocates a heap Slice of iter.
func NewSlice(iter object.Object, bounds ...object.Object) *Slice {
	args := append([]object.Object{iter}, bounds...)
	return object.New(SliceType, args...).(*Slice)
}

// SliceOf returns a temporary Slice of iter.
func SliceOf(iter object.Object, bounds ...object.Object) *Slice {
	s := &Slice{}
	object.InitHeader(s, SliceType, object.AllocStack)
	s.init(append([]object.Object{iter}, bounds...))
	return s
}

// Reversed returns a temporary Slice iterating iter from last to first.
func Reversed(iter object.Object) *Slice {
	return SliceOf(iter, object.Undef, object.Undef, object.I(-1))
}

func (s *Slice) init(args []object.Object) {
	if len(args) > 4 {
		exception.Throw(errors.FormatError, "Received too many arguments to Slice constructor")
	}
	if len(args) < 1 {
		exception.Throw(errors.FormatError, "Received too few arguments to Slice constructor")
	}
	s.iter = args[0]
	n := int64(object.Len(s.iter))

	r := &s.span
	object.InitHeader(r, RangeType, object.AllocEmbedded)
	r.Start, r.Stop, r.Step = 0, n, 1
	switch len(args) {
	case 2:
		r.Stop = bound(args[1], n, n)
	case 3, 4:
		r.Start = bound(args[1], n, 0)
		r.Stop = bound(args[2], n, n)
		if len(args) == 4 && args[3] != object.Undef {
			r.Step = object.CInt(args[3])
		}
	}
	r.cursor()
	s.index = 0
}

// bound resolves a start or stop argument against length n.
func bound(arg object.Object, n, def int64) int64 {
	if arg == object.Undef {
		return def
	}
	a := object.CInt(arg)
	if a < 0 {
		a += n
	}
	return max(0, min(a, n))
}

// position returns the inner position of slice index i.
func (s *Slice) position(i int) int64 { return s.span.valueAt(i) }

// seek positions the inner iterator at slice index i, walking from the
// nearer end of the inner iterable.
func (s *Slice) seek(i int) object.Object {
	if i < 0 || i >= s.span.Len() {
		return object.Terminal
	}
	s.index = i
	p := s.position(i)
	n := int64(object.Len(s.iter))
	if p <= n/2 {
		cur := object.IterInit(s.iter)
		for ; p > 0 && cur != object.Terminal; p-- {
			cur = object.IterNext(s.iter, cur)
		}
		return cur
	}
	cur := object.IterLast(s.iter)
	for k := n - 1; k > p && cur != object.Terminal; k-- {
		cur = object.IterPrev(s.iter, cur)
	}
	return cur
}

// walk moves from cur, at the current slice index, by dir slice positions.
func (s *Slice) walk(cur object.Object, dir int) object.Object {
	next := s.index + dir
	if next < 0 || next >= s.span.Len() {
		return object.Terminal
	}
	delta := s.position(next) - s.position(s.index)
	s.index = next
	for ; delta > 0 && cur != object.Terminal; delta-- {
		cur = object.IterNext(s.iter, cur)
	}
	for ; delta < 0 && cur != object.Terminal; delta++ {
		cur = object.IterPrev(s.iter, cur)
	}
	return cur
}
