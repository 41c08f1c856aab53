// Package views provides lazy iteration views: Range, Slice, Zip,
// Enumerate, Filter and Map. Views never copy the iterables they wrap, and
// each view carries a single cursor, so one view should not be iterated by
// two loops at once.
package views

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Range is a virtual sequence of integers in [Start, Stop) taken Step at a
// time. A negative step walks down from Stop-1; a zero step is empty.
type Range struct {
	object.Header
	value             object.Int
	Start, Stop, Step int64
}

// RangeType is the runtime type of Range.
var RangeType *object.Type

func init() {
	RangeType = object.Define[Range]("Range",
		&object.DocOps{
			Name:  "Range",
			Brief: "Integer Sequence",
			Description: "The Range type is an iterable over a sequence of integers. It takes " +
				"(stop), (start, stop) or (start, stop, step); passing Undef for start or step " +
				"keeps the default of 0 or 1. Ranges do not store their values.",
			Examples: []string{
				"for i := range object.All(views.RangeOf(object.I(10), object.I(20), object.I(-1))) {\n" +
					"\tformat.Println(i) // 19 down to 10\n}",
			},
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			self.(*Range).init(args)
		}},
		&object.AssignOps{Assign: func(self, obj object.Object) {
			r, o := self.(*Range), object.Cast(obj, RangeType).(*Range)
			r.Start, r.Stop, r.Step = o.Start, o.Stop, o.Step
			r.cursor().Val = o.value.Val
		}},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			r, o := self.(*Range), object.Cast(obj, RangeType).(*Range)
			if c := cmp.Compare(r.Start, o.Start); c != 0 {
				return c
			}
			if c := cmp.Compare(r.Stop, o.Stop); c != 0 {
				return c
			}
			return cmp.Compare(r.Step, o.Step)
		}},
		&object.HashOps{Hash: func(self object.Object) uint64 {
			r := self.(*Range)
			return uint64(r.Start) ^ uint64(r.Stop)<<21 ^ uint64(r.Step)<<42
		}},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*Range).Len() }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return self.(*Range).first() },
			Next: func(self, cur object.Object) object.Object {
				r := self.(*Range)
				return r.emit(object.CInt(cur) + r.Step)
			},
			Last: func(self object.Object) object.Object { return self.(*Range).last() },
			Prev: func(self, cur object.Object) object.Object {
				r := self.(*Range)
				return r.emit(object.CInt(cur) - r.Step)
			},
			Type: func(self object.Object) *object.Type { return object.IntType },
		},
		&object.GetOps{
			Get: func(self, k object.Object) object.Object {
				r := self.(*Range)
				v := r.At(int(object.CInt(k)))
				r.cursor().Val = v
				return r.cursor()
			},
			Mem:     func(self, k object.Object) bool { return self.(*Range).Mem(object.CInt(k)) },
			KeyType: func(self object.Object) *object.Type { return object.IntType },
			ValType: func(self object.Object) *object.Type { return object.IntType },
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showView(b, self, "Range")
		}},
	)
}

// NewRange allocates a heap Range from (stop), (start, stop) or
// (start, stop, step).
func NewRange(args ...object.Object) *Range {
	return object.New(RangeType, args...).(*Range)
}

// RangeOf returns a temporary Range.
func RangeOf(args ...object.Object) *Range {
	r := &Range{}
	object.InitHeader(r, RangeType, object.AllocStack)
	r.init(args)
	return r
}

// Span returns a temporary Range over [start, stop) with the given step.
func Span(start, stop, step int64) *Range {
	r := &Range{Start: start, Stop: stop, Step: step}
	object.InitHeader(r, RangeType, object.AllocStack)
	r.cursor()
	return r
}

func (r *Range) init(args []object.Object) {
	if len(args) > 3 {
		exception.Throw(errors.FormatError, "Received too many arguments to Range constructor")
	}
	r.Start, r.Stop, r.Step = 0, 0, 1
	switch len(args) {
	case 1:
		r.Stop = object.CInt(args[0])
	case 2, 3:
		if args[0] != object.Undef {
			r.Start = object.CInt(args[0])
		}
		r.Stop = object.CInt(args[1])
		if len(args) == 3 && args[2] != object.Undef {
			r.Step = object.CInt(args[2])
		}
	}
	r.cursor()
}

// cursor returns the embedded Int handed out by iteration.
func (r *Range) cursor() *object.Int {
	if !object.HeaderOf(&r.value).Live() {
		object.InitHeader(&r.value, object.IntType, object.AllocEmbedded)
	}
	return &r.value
}

// Len returns the number of values in the range.
func (r *Range) Len() int {
	if r.Step == 0 || r.Stop <= r.Start {
		return 0
	}
	step := r.Step
	if step < 0 {
		step = -step
	}
	return int((r.Stop - r.Start + step - 1) / step)
}

func (r *Range) inside(v int64) bool {
	if r.Step == 0 || v < r.Start || v >= r.Stop {
		return false
	}
	if r.Step > 0 {
		return (v-r.Start)%r.Step == 0
	}
	return (r.Stop-1-v)%(-r.Step) == 0
}

func (r *Range) emit(v int64) object.Object {
	if !r.inside(v) {
		return object.Terminal
	}
	c := r.cursor()
	c.Val = v
	return c
}

func (r *Range) first() object.Object {
	if r.Step < 0 {
		return r.emit(r.Stop - 1)
	}
	return r.emit(r.Start)
}

func (r *Range) last() object.Object {
	n := r.Len()
	if n == 0 {
		return object.Terminal
	}
	return r.emit(r.valueAt(n - 1))
}

func (r *Range) valueAt(i int) int64 {
	if r.Step < 0 {
		return r.Stop - 1 + r.Step*int64(i)
	}
	return r.Start + r.Step*int64(i)
}

// At returns the i-th value. Negative indices count from the end.
func (r *Range) At(i int) int64 {
	n := r.Len()
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		exception.Throw(errors.IndexOutOfBoundsError,
			"Index '%d' out of bounds for Range of start %d, stop %d and step %d.", i, r.Start, r.Stop, r.Step)
	}
	return r.valueAt(j)
}

// Mem reports whether v is one of the range's values.
func (r *Range) Mem(v int64) bool { return r.inside(v) }

// showView renders a view with its items, as "<'Name' At 0x... [a, b]>".
func showView(b *strings.Builder, view object.Object, name string) {
	fmt.Fprintf(b, "<'%s' At %p [", name, view)
	first := true
	for item := range object.All(view) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		object.ShowTo(b, item)
	}
	b.WriteString("]>")
}
