package collections

import (
	"testing"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
	"github.com/orizon-lang/objrt/internal/testrunner/prop"
)

func TestTreeInOrder(t *testing.T) {
	tree := NewTree(object.IntType, object.IntType)
	for _, k := range []int64{5, 3, 8, 1, 4} {
		tree.Set(object.I(k), object.I(k*10))
	}

	var keys []int64
	for k := range object.All(tree) {
		keys = append(keys, object.CInt(k))
	}
	want := []int64{1, 3, 4, 5, 8}
	if assert.Equal(t, len(keys), len(want)) {
		for i := range want {
			assert.Equal(t, keys[i], want[i])
		}
	}
	assert.Shows(t, tree, "{1:10, 3:30, 4:40, 5:50, 8:80}")
	assert.NoError(t, tree.verify())

	var back []int64
	for k := range object.Backward(tree) {
		back = append(back, object.CInt(k))
	}
	assert.Equal(t, back[0], int64(8))
	assert.Equal(t, back[4], int64(1))
}

func TestTreeGetSetRem(t *testing.T) {
	tree := NewTree(object.StringType, object.FloatType,
		object.S("b"), object.F(2), object.S("a"), object.F(1))
	tree.Set(object.S("a"), object.F(1.5))
	assert.Len(t, tree, 2)
	assert.ObjEqual(t, tree.Get(object.S("a")), object.F(1.5))

	tree.Rem(object.S("a"))
	assert.False(t, tree.Mem(object.S("a")))
	assert.ThrowsMessage(t, errors.KeyError, `Key "a" not in Tree!`, func() { tree.Get(object.S("a")) })
	assert.ThrowsMessage(t, errors.KeyError, `Key "z" not in Tree!`, func() { tree.Rem(object.S("z")) })
	assert.NoError(t, tree.verify())
}

func TestTreeResizeOnlyToZero(t *testing.T) {
	tree := NewTree(object.IntType, object.IntType, object.I(1), object.I(1))
	assert.ThrowsMessage(t, errors.FormatError,
		"Cannot resize Tree to 3 items. Trees can only be resized to 0 items.", func() { tree.Resize(3) })
	object.Clear(tree)
	assert.Len(t, tree, 0)
	assert.Equal(t, object.IterInit(tree), object.Terminal)
}

func TestTreeTwoChildDeleteKeepsOrder(t *testing.T) {
	tree := NewTree(object.IntType, object.IntType)
	for i := int64(0); i < 64; i++ {
		tree.Set(object.I(i), object.I(-i))
	}
	root := object.CInt(tree.root.key)
	tree.Rem(object.I(root))
	assert.NoError(t, tree.verify())
	assert.False(t, tree.Mem(object.I(root)))

	prev := int64(-1)
	for k := range object.All(tree) {
		assert.True(t, object.CInt(k) > prev, "out of order at", object.CInt(k))
		assert.Equal(t, object.CInt(tree.Get(k)), -object.CInt(k), "value travelled with its key")
		prev = object.CInt(k)
	}
}

func TestTreeMatchesOrderedMap(t *testing.T) {
	prop.Check(t, prop.GenMapOps(), prop.ShrinkMapOps(), func(ops []prop.MapOp) bool {
		tree := NewTree(object.IntType, object.IntType)
		defer object.Del(tree)
		oracle := treemap.NewWithIntComparator()

		for _, op := range ops {
			k := object.I(int64(op.Key))
			switch op.Kind {
			case prop.OpSet:
				tree.Set(k, object.I(int64(op.Val)))
				oracle.Put(op.Key, op.Val)
			case prop.OpRem:
				if _, ok := oracle.Get(op.Key); ok != tree.Mem(k) {
					return false
				} else if ok {
					tree.Rem(k)
					oracle.Remove(op.Key)
				}
			case prop.OpGet:
				v, ok := oracle.Get(op.Key)
				if ok != tree.Mem(k) || (ok && object.CInt(tree.Get(k)) != int64(v.(int))) {
					return false
				}
			}
			if tree.verify() != nil {
				return false
			}
		}

		if tree.Len() != oracle.Size() {
			return false
		}
		keys := oracle.Keys()
		i := 0
		for k := range object.All(tree) {
			if i >= len(keys) || object.CInt(k) != int64(keys[i].(int)) {
				return false
			}
			i++
		}
		return i == len(keys)
	}, prop.Options{Trials: 150})
}

func TestTreeMarkVisitsEntries(t *testing.T) {
	target := object.NewString("v")
	tree := NewTree(object.IntType, object.RefType, object.I(1), target)
	var seen []object.Object
	object.InstanceOf(tree, object.CapMark).(*object.MarkOps).Mark(tree, func(o object.Object) {
		seen = append(seen, o)
	})
	if assert.Equal(t, len(seen), 2) {
		assert.Equal(t, object.Deref(seen[1]), object.Object(target))
	}
}
