package collections

import (
	"testing"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/testrunner/assert"
	"github.com/orizon-lang/objrt/internal/testrunner/prop"
)

func TestTableFruit(t *testing.T) {
	tab := NewTable(object.StringType, object.IntType,
		object.S("Apple"), object.I(12),
		object.S("Banana"), object.I(6),
		object.S("Pear"), object.I(55))

	object.Rem(tab, object.S("Apple"))
	assert.Len(t, tab, 2)
	assert.False(t, object.Mem(tab, object.S("Apple")))
	assert.ObjEqual(t, object.Get(tab, object.S("Pear")), object.I(55))

	assert.ThrowsMessage(t, errors.KeyError, `Key "Apple" not in Table!`, func() {
		object.Get(tab, object.S("Apple"))
	})
	assert.ThrowsMessage(t, errors.KeyError, `Key "Kiwi" not in Table!`, func() {
		object.Rem(tab, object.S("Kiwi"))
	})
}

func TestTableOverwriteAndShow(t *testing.T) {
	tab := NewTable(object.IntType, object.StringType)
	tab.Set(object.I(1), object.S("one"))
	tab.Set(object.I(1), object.S("uno"))
	assert.Len(t, tab, 1)
	assert.Shows(t, tab, `{1:"uno"}`)
	assert.Equal(t, object.HeaderOf(tab.Get(object.I(1))).Alloc(), object.AllocEmbedded)
}

func TestTableGrowsWithinLoadFactor(t *testing.T) {
	tab := NewTable(object.IntType, object.IntType)
	for i := int64(0); i < 1000; i++ {
		tab.Set(object.I(i), object.I(i*i))
		assert.True(t, float64(tab.Len()) <= float64(tab.Slots())*0.9, "load factor exceeded at", i)
	}
	for i := int64(0); i < 1000; i++ {
		assert.ObjEqual(t, tab.Get(object.I(i)), object.I(i*i))
	}
	assert.Equal(t, len(object.Items(tab)), 1000)
}

func TestTableResize(t *testing.T) {
	tab := NewTable(object.IntType, object.IntType, object.I(1), object.I(2), object.I(3), object.I(4))
	tab.Resize(100)
	assert.Equal(t, tab.Slots(), 197)
	assert.ObjEqual(t, tab.Get(object.I(3)), object.I(4))

	assert.ThrowsMessage(t, errors.FormatError,
		"Cannot resize Table to make it smaller than 2 items", func() { tab.Resize(1) })

	object.Clear(tab)
	assert.Len(t, tab, 0)
	assert.False(t, tab.Mem(object.I(1)))
}

func TestTableIterationCoversSlots(t *testing.T) {
	tab := NewTable(object.StringType, object.IntType)
	want := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	for k := range want {
		tab.Set(object.S(k), object.I(0))
	}

	fwd := map[string]bool{}
	for k := range object.All(tab) {
		fwd[object.CStr(k)] = true
	}
	var back []string
	for k := range object.Backward(tab) {
		back = append(back, object.CStr(k))
	}
	assert.Equal(t, len(fwd), 4)
	assert.Equal(t, len(back), 4)
	for k := range want {
		assert.True(t, fwd[k], "missing", k)
	}
	assert.Equal(t, object.IterType(tab), object.StringType)
}

func TestTableAssignCmpHash(t *testing.T) {
	a := NewTable(object.StringType, object.IntType, object.S("x"), object.I(1), object.S("y"), object.I(2))
	b := object.Copy(a).(*Table)
	assert.ObjEqual(t, b, a)
	assert.Equal(t, object.Hash(a), object.Hash(b))
	assert.Equal(t, b.ValType(), object.IntType)

	b.Set(object.S("y"), object.I(3))
	assert.NotEqual(t, object.Cmp(a, b), 0)

	tree := NewTree(object.StringType, object.IntType, object.S("x"), object.I(1), object.S("y"), object.I(2))
	assert.ObjEqual(t, tree, a, "mappings compare by contents")

	keys := object.New(TableType, object.IntType, object.RefType).(*Table)
	object.Assign(keys, T(object.I(4), object.I(5)))
	assert.Len(t, keys, 2)
	assert.Equal(t, object.Deref(keys.Get(object.I(5))), object.Undef)
}

func TestTableDelDestructsEntries(t *testing.T) {
	owned := object.NewInt(3)
	tab := NewTable(object.IntType, object.BoxType, object.I(1), object.R(owned))
	object.Del(tab)
	assert.Dead(t, owned)
}

func TestTableMatchesGoMap(t *testing.T) {
	prop.Check(t, prop.GenMapOps(), prop.ShrinkMapOps(), func(ops []prop.MapOp) bool {
		tab := NewTable(object.IntType, object.IntType)
		defer object.Del(tab)
		model := map[int]int{}

		for _, op := range ops {
			k := object.I(int64(op.Key))
			switch op.Kind {
			case prop.OpSet:
				tab.Set(k, object.I(int64(op.Val)))
				model[op.Key] = op.Val
			case prop.OpRem:
				if _, ok := model[op.Key]; ok != tab.Mem(k) {
					return false
				} else if ok {
					tab.Rem(k)
					delete(model, op.Key)
				}
			case prop.OpGet:
				v, ok := model[op.Key]
				if ok != tab.Mem(k) || (ok && object.CInt(tab.Get(k)) != int64(v)) {
					return false
				}
			}
		}

		if tab.Len() != len(model) || !tableChainsIntact(tab) {
			return false
		}
		for k, v := range model {
			if object.CInt(tab.Get(object.I(int64(k)))) != int64(v) {
				return false
			}
		}
		return true
	}, prop.Options{Trials: 150})
}

// tableChainsIntact checks that no empty slot separates an entry from its
// ideal slot.
func tableChainsIntact(tab *Table) bool {
	for i, h := range tab.hashes {
		if h == 0 {
			continue
		}
		for k := int(h - 1); k != i; k = (k + 1) % tab.nslots {
			if tab.hashes[k] == 0 {
				return false
			}
		}
	}
	return true
}
