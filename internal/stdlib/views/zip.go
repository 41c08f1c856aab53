package views

import (
	"math"
	"strings"

	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
)

// Zip iterates several iterables in lockstep. Each step yields the same
// Tuple, refilled with the current item of every input, and iteration ends
// as soon as any input ends.
type Zip struct {
	object.Header
	iters  []object.Object
	values collections.Tuple
	// index backs Enumerate, which zips a Range with the iterable.
	index Range
}

// ZipType is the runtime type of Zip.
var ZipType *object.Type

func init() {
	ZipType = object.Define[Zip]("Zip",
		&object.DocOps{
			Name:  "Zip",
			Brief: "Multiple Iterator",
			Description: "The Zip type combines several iterables into one, yielding a Tuple of " +
				"their items at each step. Iteration stops when any of them stops.",
			Examples: []string{
				"for t := range object.All(views.ZipOf(a, b)) {\n\tformat.Println(t) // tuple(a0, b0) ...\n}",
			},
		},
		&object.NewOps{New: func(self object.Object, args []object.Object) {
			self.(*Zip).init(args)
		}},
		&object.AssignOps{Assign: func(self, obj object.Object) {
			z, o := self.(*Zip), object.Cast(obj, ZipType).(*Zip)
			iters := append([]object.Object(nil), o.iters...)
			if len(iters) > 0 && iters[0] == object.Object(&o.index) {
				object.Assign(z.indexRange(), &o.index)
				iters[0] = &z.index
			}
			z.init(iters)
		}},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			for _, it := range self.(*Zip).iters {
				visit(it)
			}
		}},
		&object.LenOps{
			Len:   func(self object.Object) int { return self.(*Zip).Len() },
			Sized: func(self object.Object) bool { return self.(*Zip).Sized() },
		},
		&object.IterOps{
			Init: func(self object.Object) object.Object {
				z := self.(*Zip)
				return z.fill(func(i int) object.Object { return object.IterInit(z.iters[i]) })
			},
			Next: func(self, cur object.Object) object.Object {
				z := self.(*Zip)
				return z.fill(func(i int) object.Object {
					return object.IterNext(z.iters[i], z.values.Get(i))
				})
			},
			Last: func(self object.Object) object.Object {
				z := self.(*Zip)
				return z.fill(func(i int) object.Object { return object.IterLast(z.iters[i]) })
			},
			Prev: func(self, cur object.Object) object.Object {
				z := self.(*Zip)
				return z.fill(func(i int) object.Object {
					return object.IterPrev(z.iters[i], z.values.Get(i))
				})
			},
			Type: func(self object.Object) *object.Type { return collections.TupleType },
		},
		&object.GetOps{
			Get: func(self, k object.Object) object.Object {
				z := self.(*Zip)
				return z.fill(func(i int) object.Object { return object.Get(z.iters[i], k) })
			},
			Mem: func(self, k object.Object) bool { return contains(self, k) },
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			showView(b, self, "Zip")
		}},
	)
}

// NewZip allocates a heap Zip over iters.
func NewZip(iters ...object.Object) *Zip {
	return object.New(ZipType, iters...).(*Zip)
}

// ZipOf returns a temporary Zip over iters.
func ZipOf(iters ...object.Object) *Zip {
	z := &Zip{}
	object.InitHeader(z, ZipType, object.AllocStack)
	z.init(iters)
	return z
}

// EnumerateOf returns a temporary Zip pairing each item of iter with its
// position, as tuple(i, item).
func EnumerateOf(iter object.Object) *Zip {
	z := &Zip{}
	object.InitHeader(z, ZipType, object.AllocStack)
	z.enumerate(iter)
	return z
}

// NewEnumerate allocates a heap Zip pairing each item of iter with its
// position.
func NewEnumerate(iter object.Object) *Zip {
	z := object.Alloc(ZipType).(*Zip)
	z.enumerate(iter)
	return z
}

func (z *Zip) init(iters []object.Object) {
	z.iters = append(z.iters[:0], iters...)
	object.InitHeader(&z.values, collections.TupleType, object.AllocEmbedded)
	object.Construct(&z.values, make([]object.Object, len(iters))...)
	for i := range iters {
		z.values.Set(i, object.Undef)
	}
}

func (z *Zip) indexRange() *Range {
	object.InitHeader(&z.index, RangeType, object.AllocEmbedded)
	z.index.cursor()
	return &z.index
}

// enumerate zips a counting Range with iter. Iterables without a length,
// such as filters, are counted without bound.
func (z *Zip) enumerate(iter object.Object) {
	r := z.indexRange()
	r.Start, r.Stop, r.Step = 0, math.MaxInt64, 1
	if object.Sized(iter) {
		r.Stop = int64(object.Len(iter))
	}
	z.init([]object.Object{r, iter})
}

// Sized reports whether every input has a length.
func (z *Zip) Sized() bool {
	for _, it := range z.iters {
		if !object.Sized(it) {
			return false
		}
	}
	return true
}

// Len returns the length of the shortest input.
func (z *Zip) Len() int {
	if len(z.iters) == 0 {
		return 0
	}
	n := object.Len(z.iters[0])
	for _, it := range z.iters[1:] {
		n = min(n, object.Len(it))
	}
	return n
}

// fill stores item(i) for every input into the shared tuple, or returns
// Terminal as soon as one input is exhausted.
func (z *Zip) fill(item func(i int) object.Object) object.Object {
	if len(z.iters) == 0 {
		return object.Terminal
	}
	for i := range z.iters {
		v := item(i)
		if v == object.Terminal {
			return object.Terminal
		}
		z.values.Set(i, v)
	}
	return &z.values
}
