package collections

import (
	"testing"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
)

func ints(vals ...int64) []object.Object {
	out := make([]object.Object, len(vals))
	for i, v := range vals {
		out[i] = object.I(v)
	}
	return out
}

func TestArrayPushShow(t *testing.T) {
	a := NewArray(object.IntType)
	a.Push(object.I(32))
	a.Push(object.I(6))
	assert.Shows(t, a, "[32, 6]")
	assert.Len(t, a, 2)
	assert.Equal(t, object.HeaderOf(a.Get(0)).Alloc(), object.AllocEmbedded)
}

func TestArrayIndexing(t *testing.T) {
	a := NewArray(object.IntType, ints(1, 2, 3)...)
	assert.ObjEqual(t, a.Get(-1), object.I(3))
	assert.ObjEqual(t, object.Get(a, object.I(1)), object.I(2))

	object.Set(a, object.I(-3), object.I(10))
	assert.Shows(t, a, "[10, 2, 3]")

	assert.ThrowsMessage(t, errors.IndexOutOfBoundsError,
		"Index '3' out of bounds for Array of size 3.", func() { a.Get(3) })
	assert.ThrowsMessage(t, errors.IndexOutOfBoundsError,
		"Index '-4' out of bounds for Array of size 3.", func() { a.Get(-4) })
}

func TestArrayCopiesItems(t *testing.T) {
	src := object.NewInt(5)
	a := NewArray(object.IntType, src)
	src.Val = 6
	assert.Shows(t, a, "[5]")

	// Pushes convert through the element type's Assign.
	a.Push(object.F(2.9))
	assert.Shows(t, a, "[5, 2]")

	assert.ThrowsMessage(t, errors.ClassError, "Type 'Tuple' does not implement class 'C_Int'", func() {
		a.Push(T())
	})
	assert.Len(t, a, 2, "a failed push leaves the array unchanged")
}

func TestArrayPushPopAt(t *testing.T) {
	a := NewArray(object.IntType, ints(1, 2, 3)...)
	a.PushAt(object.I(0), 0)
	a.PushAt(object.I(9), a.Len())
	a.PushAt(object.I(5), -1)
	assert.Shows(t, a, "[0, 1, 2, 3, 5, 9]")

	a.PopAt(1)
	a.PopAt(-1)
	assert.Shows(t, a, "[0, 2, 3, 5]")

	a.Rem(object.I(3))
	assert.Shows(t, a, "[0, 2, 5]")
	assert.ThrowsMessage(t, errors.ValueError, "Object 7 not in Array!", func() { a.Rem(object.I(7)) })

	for a.Len() > 0 {
		a.Pop()
	}
	assert.ThrowsMessage(t, errors.IndexOutOfBoundsError, "Cannot pop. Array is empty!", a.Pop)
}

func TestArrayGrowthAndShrink(t *testing.T) {
	a := NewArray(object.IntType)
	for i := 0; i < 100; i++ {
		a.Push(object.I(int64(i)))
		assert.True(t, a.Cap() >= a.Len())
	}
	assert.True(t, a.Cap() <= 150, "cap", a.Cap())

	for a.Len() > 10 {
		a.Pop()
	}
	assert.True(t, a.Cap() <= 15, "slots not released:", a.Cap())
	assert.ObjEqual(t, a.Get(9), object.I(9))

	a.Resize(4)
	assert.Shows(t, a, "[0, 1, 2, 3]")
	object.Clear(a)
	assert.Len(t, a, 0)
	assert.Shows(t, a, "[]")
}

func TestArraySortReverse(t *testing.T) {
	a := NewArray(object.IntType, ints(5, 3, 9, 1, 1, 7, 2)...)
	object.Sort(a)
	assert.Shows(t, a, "[1, 1, 2, 3, 5, 7, 9]")

	object.SortBy(a, object.Gt)
	assert.Shows(t, a, "[9, 7, 5, 3, 2, 1, 1]")

	a.Reverse()
	assert.Shows(t, a, "[1, 1, 2, 3, 5, 7, 9]")

	empty := NewArray(object.StringType)
	object.Sort(empty)
	assert.Len(t, empty, 0)
}

func TestArrayIteration(t *testing.T) {
	a := NewArray(object.StringType, object.S("a"), object.S("b"), object.S("c"))

	var fwd, back string
	for item := range object.All(a) {
		fwd += object.CStr(item)
	}
	for item := range object.Backward(a) {
		back += object.CStr(item)
	}
	assert.Equal(t, fwd, "abc")
	assert.Equal(t, back, "cba")
	assert.Equal(t, object.IterType(a), object.StringType)
	assert.Equal(t, object.IterNext(a, object.S("a")), object.Terminal, "foreign items end iteration")
}

func TestArrayAssignCmpHash(t *testing.T) {
	a := NewArray(object.IntType, ints(1, 2, 3)...)
	b := object.Copy(a).(*Array)
	assert.ObjEqual(t, b, a)
	assert.Equal(t, object.Hash(a), object.Hash(b))
	assert.Equal(t, b.Elem(), object.IntType)

	b.Push(object.I(4))
	assert.True(t, object.Lt(a, b), "shorter prefix orders first")
	b.Set(0, object.I(0))
	assert.True(t, object.Gt(a, b))

	l := NewList(object.FloatType, object.F(1.5), object.F(2.5))
	object.Assign(a, l)
	assert.Equal(t, a.Elem(), object.FloatType)
	assert.Shows(t, a, "[1.5, 2.5]")

	object.Concat(a, T(object.F(3), object.I(4)))
	assert.Shows(t, a, "[1.5, 2.5, 3, 4]")
}

func TestArrayOfRefsMarksTargets(t *testing.T) {
	target := object.NewString("held")
	a := NewArray(object.RefType, target)

	var seen []object.Object
	object.InstanceOf(a, object.CapMark).(*object.MarkOps).Mark(a, func(o object.Object) {
		seen = append(seen, object.Deref(o))
	})
	if assert.Equal(t, len(seen), 1) {
		assert.Equal(t, seen[0], object.Object(target))
	}
}

func TestArrayDelDestructsItems(t *testing.T) {
	owned := object.NewInt(1)
	a := NewArray(object.BoxType, object.R(owned))
	object.Del(a)
	assert.Dead(t, a)
	assert.Dead(t, owned, "boxes destruct their targets")
}
