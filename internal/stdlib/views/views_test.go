package views

import (
	"strings"
	"testing"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
)

func collect(view object.Object) []int64 {
	var out []int64
	for item := range object.All(view) {
		out = append(out, object.CInt(item))
	}
	return out
}

func collectBack(view object.Object) []int64 {
	var out []int64
	for item := range object.Backward(view) {
		out = append(out, object.CInt(item))
	}
	return out
}

func equalInts(t *testing.T, got, want []int64, msg ...any) {
	t.Helper()
	if !assert.Equal(t, len(got), len(want), msg...) {
		t.Logf("got %v want %v", got, want)
		return
	}
	for i := range want {
		assert.Equal(t, got[i], want[i], msg...)
	}
}

func digits() *collections.Array {
	a := collections.NewArray(object.IntType)
	for i := int64(0); i < 10; i++ {
		a.Push(object.I(i))
	}
	return a
}

func TestRangeNegativeStep(t *testing.T) {
	r := RangeOf(object.I(10), object.I(20), object.I(-1))
	equalInts(t, collect(r), []int64{19, 18, 17, 16, 15, 14, 13, 12, 11, 10})
	equalInts(t, collectBack(r), []int64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19})
	assert.Equal(t, r.Len(), 10)
}

func TestRangeArguments(t *testing.T) {
	equalInts(t, collect(RangeOf(object.I(4))), []int64{0, 1, 2, 3})
	equalInts(t, collect(RangeOf(object.I(2), object.I(5))), []int64{2, 3, 4})
	equalInts(t, collect(RangeOf(object.Undef, object.I(7), object.I(3))), []int64{0, 3, 6})
	equalInts(t, collect(RangeOf(object.I(1), object.I(4), object.Undef)), []int64{1, 2, 3})
	equalInts(t, collect(RangeOf(object.I(1), object.I(4), object.I(0))), nil, "zero step is empty")
	equalInts(t, collect(RangeOf()), nil)

	assert.ThrowsMessage(t, errors.FormatError, "Received too many arguments to Range constructor", func() {
		RangeOf(object.I(1), object.I(2), object.I(3), object.I(4))
	})
}

func TestRangeRandomAccess(t *testing.T) {
	r := NewRange(object.I(10), object.I(20), object.I(3))
	assert.Equal(t, r.Len(), 4)
	assert.ObjEqual(t, object.Get(r, object.I(1)), object.I(13))
	assert.ObjEqual(t, object.Get(r, object.I(-1)), object.I(19))
	assert.True(t, object.Mem(r, object.I(16)))
	assert.False(t, object.Mem(r, object.I(17)))
	assert.False(t, object.Mem(r, object.I(22)))

	assert.ThrowsMessage(t, errors.IndexOutOfBoundsError,
		"Index '4' out of bounds for Range of start 10, stop 20 and step 3.", func() {
			object.Get(r, object.I(4))
		})

	down := Span(0, 10, -4)
	equalInts(t, collect(down), []int64{9, 5, 1})
	assert.Equal(t, down.At(-1), int64(1))

	shown := object.Show(Span(0, 3, 1))
	assert.True(t, strings.HasPrefix(shown, "<'Range' At 0x"), shown)
	assert.True(t, strings.HasSuffix(shown, " [0, 1, 2]>"), shown)
}

func TestRangeMaterializes(t *testing.T) {
	a := object.New(collections.ArrayType, object.IntType).(*collections.Array)
	object.Assign(a, RangeOf(object.I(3)))
	assert.Shows(t, a, "[0, 1, 2]")
	assert.Equal(t, a.Elem(), object.IntType)
	assert.ObjEqual(t, Span(0, 3, 1), NewRange(object.I(3)))
}

func TestSliceBounds(t *testing.T) {
	a := digits()
	equalInts(t, collect(SliceOf(a, object.I(2))), []int64{0, 1})
	equalInts(t, collect(SliceOf(a, object.I(1), object.I(4))), []int64{1, 2, 3})
	equalInts(t, collect(SliceOf(a, object.Undef, object.Undef, object.I(2))), []int64{0, 2, 4, 6, 8})
	equalInts(t, collect(SliceOf(a, object.I(-3), object.Undef)), []int64{7, 8, 9})
	equalInts(t, collect(SliceOf(a, object.Undef, object.I(2), object.I(-1))), []int64{1, 0})
	equalInts(t, collect(SliceOf(a, object.I(-100), object.I(100))), []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	equalInts(t, collect(SliceOf(a, object.I(5), object.I(2))), nil)
	equalInts(t, collect(Reversed(a)), []int64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0})

	assert.ThrowsMessage(t, errors.FormatError, "Received too few arguments to Slice constructor", func() {
		object.New(SliceType)
	})
	assert.ThrowsMessage(t, errors.FormatError, "Received too many arguments to Slice constructor", func() {
		SliceOf(a, object.I(1), object.I(2), object.I(3), object.I(4))
	})
}

func TestSliceWalksBothWays(t *testing.T) {
	a := digits()
	s := NewSlice(a, object.Undef, object.Undef, object.I(3))
	equalInts(t, collect(s), []int64{0, 3, 6, 9})
	equalInts(t, collectBack(s), []int64{9, 6, 3, 0})
	assert.Len(t, s, 4)
	assert.ObjEqual(t, object.Get(s, object.I(2)), object.I(6))
	assert.True(t, object.Mem(s, object.I(9)))
	assert.False(t, object.Mem(s, object.I(4)))
	assert.Equal(t, object.IterType(s), object.IntType)

	// Slices over lists walk the links instead of indexing.
	l := collections.NewList(object.IntType)
	for i := int64(0); i < 6; i++ {
		l.Push(object.I(i * 10))
	}
	equalInts(t, collect(SliceOf(l, object.I(4), object.Undef)), []int64{40, 50})
	equalInts(t, collectBack(SliceOf(l, object.I(1), object.I(3))), []int64{20, 10})
}

func TestSliceDoesNotCopy(t *testing.T) {
	a := digits()
	s := SliceOf(a, object.I(1), object.I(3))
	a.Set(1, object.I(100))
	equalInts(t, collect(s), []int64{100, 2})
}

func TestZipLockstep(t *testing.T) {
	nums := collections.NewArray(object.IntType, object.I(1), object.I(2), object.I(3))
	strs := collections.T(object.S("a"), object.S("b"))
	z := ZipOf(nums, strs)

	var shown []string
	for item := range object.All(z) {
		shown = append(shown, object.Show(item))
	}
	assert.Equal(t, strings.Join(shown, " "), `tuple(1, "a") tuple(2, "b")`)
	assert.Len(t, z, 2)
	assert.Equal(t, object.IterType(z), collections.TupleType)
	assert.Shows(t, object.Get(z, object.I(1)), `tuple(2, "b")`)
	assert.True(t, object.Mem(z, collections.T(object.I(1), object.S("a"))))

	assert.Equal(t, object.IterInit(ZipOf()), object.Terminal)
	assert.Equal(t, object.IterInit(ZipOf(nums, collections.T())), object.Terminal)
}

func TestZipBackward(t *testing.T) {
	a := collections.NewArray(object.IntType, object.I(1), object.I(2))
	b := collections.NewArray(object.IntType, object.I(10), object.I(20))
	var sums []int64
	for item := range object.Backward(NewZip(a, b)) {
		tup := item.(*collections.Tuple)
		sums = append(sums, object.CInt(tup.Get(0))+object.CInt(tup.Get(1)))
	}
	equalInts(t, sums, []int64{22, 11})
}

func TestEnumerate(t *testing.T) {
	items := collections.T(object.S("x"), object.S("y"), object.S("z"))
	var shown []string
	for item := range object.All(EnumerateOf(items)) {
		shown = append(shown, object.Show(item))
	}
	assert.Equal(t, strings.Join(shown, " "), `tuple(0, "x") tuple(1, "y") tuple(2, "z")`)

	e := NewEnumerate(items)
	assert.Len(t, e, 3)
	c := object.Copy(e).(*Zip)
	assert.Shows(t, object.IterLast(c), `tuple(2, "z")`)
}

func TestFilterBothDirections(t *testing.T) {
	even := FilterOf(RangeOf(object.I(10)), func(x object.Object) bool { return object.CInt(x)%2 == 0 })
	equalInts(t, collect(even), []int64{0, 2, 4, 6, 8})
	equalInts(t, collectBack(even), []int64{8, 6, 4, 2, 0})
	assert.True(t, object.Mem(even, object.I(4)))
	assert.False(t, object.Mem(even, object.I(5)))
	assert.Equal(t, object.IterType(even), object.IntType)

	big := NewFilter(digits(), object.NewFunction(func(args []object.Object) object.Object {
		if object.CInt(args[0]) > 6 {
			return args[0]
		}
		return nil
	}))
	equalInts(t, collect(big), []int64{7, 8, 9})

	assert.ThrowsMessage(t, errors.ClassError, "Type 'Int' does not implement class 'Call'", func() {
		NewFilter(digits(), object.I(1))
	})
}

func TestMapIsLazy(t *testing.T) {
	calls := 0
	squares := MapOf(RangeOf(object.I(1), object.I(4)), func(x object.Object) object.Object {
		calls++
		v := object.CInt(x)
		return object.NewInt(v * v)
	})
	assert.Equal(t, calls, 0)
	assert.Len(t, squares, 3)

	equalInts(t, collect(squares), []int64{1, 4, 9})
	assert.Equal(t, calls, 3)
	equalInts(t, collectBack(squares), []int64{9, 4, 1})
	assert.ObjEqual(t, object.Get(squares, object.I(1)), object.I(4))
	assert.Equal(t, object.IterType(squares), object.RefType)

	a := object.New(collections.ArrayType, object.IntType).(*collections.Array)
	object.Assign(a, squares)
	assert.Equal(t, a.Elem(), object.RefType, "map results have no known type")
	assert.Shows(t, a, "[1, 4, 9]")

	calls = 0
	object.Call(squares)
	assert.Equal(t, calls, 3, "calling a map evaluates every item")
}

func TestViewsCompose(t *testing.T) {
	odd := FilterOf(digits(), func(x object.Object) bool { return object.CInt(x)%2 == 1 })
	doubled := MapOf(odd, func(x object.Object) object.Object { return object.I(object.CInt(x) * 2) })
	equalInts(t, collect(doubled), []int64{2, 6, 10, 14, 18})

	var pairs []string
	for item := range object.All(ZipOf(RangeOf(object.I(3)), Reversed(digits()))) {
		pairs = append(pairs, object.Show(item))
	}
	assert.Equal(t, strings.Join(pairs, " "), "tuple(0, 9) tuple(1, 8) tuple(2, 7)")
}

func TestMapOverFilterMaterializes(t *testing.T) {
	odd := FilterOf(digits(), func(x object.Object) bool { return object.CInt(x)%2 == 1 })
	doubled := MapOf(odd, func(x object.Object) object.Object { return object.I(object.CInt(x) * 2) })
	assert.False(t, object.Sized(doubled), "a map over a filter has no length")
	assert.True(t, object.Sized(MapOf(digits(), func(x object.Object) object.Object { return x })))

	a := collections.NewArray(object.IntType)
	defer object.Del(a)
	assert.NoThrow(t, func() { object.Assign(a, doubled) })
	assert.Equal(t, a.Elem(), object.RefType)
	assert.Shows(t, a, "[2, 6, 10, 14, 18]")

	pairs := EnumerateOf(doubled)
	assert.False(t, object.Sized(pairs))
	var shown []string
	for pair := range object.All(pairs) {
		shown = append(shown, object.Show(pair))
	}
	assert.Equal(t, len(shown), 5)
	if len(shown) == 5 {
		assert.Equal(t, shown[4], "tuple(4, 18)")
	}

	assert.False(t, object.Sized(ZipOf(digits(), odd)))
	assert.True(t, object.Sized(ZipOf(digits(), RangeOf(object.I(3)))))
	assert.Len(t, ZipOf(digits(), RangeOf(object.I(3))), 3)
}
