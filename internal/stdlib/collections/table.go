package collections

import (
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/allocator"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Table is a hash map using Robin-Hood open addressing. Keys and values are
// stored inline in parallel slot buffers, each with two scratch slots past
// the end used while displacing entries.
type Table struct {
	object.Header
	ktype, vtype *object.Type
	keys, vals   slots
	// hashes holds each slot's ideal position plus one; zero marks an empty slot.
	hashes []uint64
	nslots int
	nitems int
}

// TableType is the runtime type of Table.
var TableType *object.Type

func init() {
	TableType = object.Define[Table]("Table",
		&object.DocOps{
			Name:  "Table",
			Brief: "Hash table",
			Description: "The Table type is a hash map from keys of one type to values of another. " +
				"Entries are stored inline using Robin-Hood hashing and iterate in slot order. " +
				"Keys must implement Hash and Cmp.",
			Examples: []string{
				"t := collections.NewTable(object.StringType, object.IntType)\n" +
					"t.Set(object.S(\"a\"), object.I(1))\nobject.Show(t) // {\"a\":1}",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				t := self.(*Table)
				kt, rest := typeArg(args, "Table")
				vt, rest := typeArg(rest, "Table")
				t.reset(kt, vt)
				for _, kv := range pairArgs(rest, "Table") {
					t.Set(kv[0], kv[1])
				}
			},
			Del: func(self object.Object) { self.(*Table).clear() },
		},
		&object.AssignOps{Assign: func(self, obj object.Object) { self.(*Table).assign(obj) }},
		&object.CmpOps{Cmp: func(self, obj object.Object) int { return cmpMapping(self.(*Table), obj) }},
		&object.HashOps{Hash: func(self object.Object) uint64 { return hashMapping(self.(*Table)) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			markMapping(self.(*Table), visit)
		}},
		&object.LenOps{Len: func(self object.Object) int { return self.(*Table).nitems }},
		&object.IterOps{
			Init: func(self object.Object) object.Object { return self.(*Table).scan(0, 1) },
			Next: func(self, cur object.Object) object.Object {
				t := self.(*Table)
				if i := t.slotOf(cur); i >= 0 {
					return t.scan(i+1, 1)
				}
				return object.Terminal
			},
			Last: func(self object.Object) object.Object {
				t := self.(*Table)
				return t.scan(t.nslots-1, -1)
			},
			Prev: func(self, cur object.Object) object.Object {
				t := self.(*Table)
				if i := t.slotOf(cur); i >= 0 {
					return t.scan(i-1, -1)
				}
				return object.Terminal
			},
			Type: func(self object.Object) *object.Type { return self.(*Table).KeyType() },
		},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*Table).Get(k) },
			Set:     func(self, k, v object.Object) { self.(*Table).Set(k, v) },
			Mem:     func(self, k object.Object) bool { return self.(*Table).Mem(k) },
			Rem:     func(self, k object.Object) { self.(*Table).Rem(k) },
			KeyType: func(self object.Object) *object.Type { return self.(*Table).KeyType() },
			ValType: func(self object.Object) *object.Type { return self.(*Table).ValType() },
		},
		&object.ResizeOps{Resize: func(self object.Object, n int) { self.(*Table).Resize(n) }},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) { showMapping(b, self.(*Table)) }},
	)
}

// NewTable allocates a heap Table from ktype to vtype. kv alternates keys
// and values.
func NewTable(ktype, vtype *object.Type, kv ...object.Object) *Table {
	args := append([]object.Object{ktype, vtype}, kv...)
	return object.New(TableType, args...).(*Table)
}

// KeyType returns the key type.
func (t *Table) KeyType() *object.Type {
	if t.ktype == nil {
		return object.RefType
	}
	return t.ktype
}

// ValType returns the value type.
func (t *Table) ValType() *object.Type {
	if t.vtype == nil {
		return object.RefType
	}
	return t.vtype
}

// Len returns the number of entries.
func (t *Table) Len() int { return t.nitems }

// Slots returns the number of hash slots, excluding scratch space.
func (t *Table) Slots() int { return t.nslots }

func (t *Table) reset(kt, vt *object.Type) {
	t.clear()
	t.ktype, t.vtype = kt, vt
	t.alloc(0)
}

// alloc replaces the buffers with n empty slots.
func (t *Table) alloc(n int) {
	t.nslots = n
	t.keys = newSlots(t.KeyType(), n+2)
	t.vals = newSlots(t.ValType(), n+2)
	t.hashes = make([]uint64, n)
}

func (t *Table) clear() {
	for i := 0; i < t.nslots; i++ {
		if t.hashes[i] != 0 {
			t.keys.destroy(i)
			t.vals.destroy(i)
			t.hashes[i] = 0
		}
	}
	t.nitems = 0
}

func (t *Table) scan(i, step int) object.Object {
	for ; i >= 0 && i < t.nslots; i += step {
		if t.hashes[i] != 0 {
			return t.keys.at(i)
		}
	}
	return object.Terminal
}

func (t *Table) slotOf(k object.Object) int {
	if i := t.keys.indexOf(k); i >= 0 && i < t.nslots && t.hashes[i] != 0 {
		return i
	}
	return -1
}

func (t *Table) pairs() iter.Seq2[object.Object, object.Object] {
	return func(yield func(object.Object, object.Object) bool) {
		for i := 0; i < t.nslots; i++ {
			if t.hashes[i] != 0 && !yield(t.keys.at(i), t.vals.at(i)) {
				return
			}
		}
	}
}

// displacement returns how far slot i sits from its ideal position.
func (t *Table) displacement(i int) int {
	ideal := int(t.hashes[i] - 1)
	return (i - ideal + t.nslots) % t.nslots
}

func (t *Table) find(k object.Object) int {
	if t.nitems == 0 {
		return -1
	}
	i := int(object.Hash(k) % uint64(t.nslots))
	want := uint64(i) + 1
	for j := 0; ; j++ {
		h := t.hashes[i]
		if h == 0 || j > t.displacement(i) {
			return -1
		}
		if h == want && object.Eq(t.keys.at(i), k) {
			return i
		}
		i = (i + 1) % t.nslots
	}
}

// exchange swaps slot i with the first scratch slot, staging through the
// second.
func (t *Table) exchange(i int) {
	s0, s1 := t.nslots, t.nslots+1
	for _, s := range []*slots{&t.keys, &t.vals} {
		s.move(s1, i)
		s.move(i, s0)
		s.move(s0, s1)
	}
}

// place moves the entry staged in the first scratch slot into the table,
// displacing entries that sit closer to their ideal slot.
func (t *Table) place(h uint64) {
	i := int(h % uint64(t.nslots))
	hash := uint64(i) + 1
	for j := 0; ; j++ {
		if t.hashes[i] == 0 {
			t.keys.move(i, t.nslots)
			t.vals.move(i, t.nslots)
			t.hashes[i] = hash
			return
		}
		if p := t.displacement(i); j > p {
			t.exchange(i)
			t.hashes[i], hash = hash, t.hashes[i]
			j = p
		}
		i = (i + 1) % t.nslots
	}
}

// rehash moves every entry into n fresh slots.
func (t *Table) rehash(n int) {
	keys, vals, hashes, old := t.keys, t.vals, t.hashes, t.nslots
	t.alloc(n)
	for i := 0; i < old; i++ {
		if hashes[i] == 0 {
			continue
		}
		t.keys.buf.Index(n).Set(keys.buf.Index(i))
		t.vals.buf.Index(n).Set(vals.buf.Index(i))
		t.place(object.Hash(t.keys.at(n)))
	}
}

func (t *Table) assign(src object.Object) {
	if src == object.Object(t) {
		return
	}
	next := &Table{}
	next.ktype, next.vtype = mappingTypes(src)
	next.alloc(0)
	fillMapping(src, next.Set)
	t.clear()
	t.ktype, t.vtype = next.ktype, next.vtype
	t.keys, t.vals, t.hashes = next.keys, next.vals, next.hashes
	t.nslots, t.nitems = next.nslots, next.nitems
}

// Get returns the value stored under k.
func (t *Table) Get(k object.Object) object.Object {
	i := t.find(k)
	if i < 0 {
		exception.Raise(errors.KeyMissing(object.Show(k), "Table"))
	}
	return t.vals.at(i)
}

// Set stores a copy of v under a copy of k, replacing any existing value.
func (t *Table) Set(k, v object.Object) {
	if i := t.find(k); i >= 0 {
		object.Assign(t.vals.at(i), v)
		return
	}
	if t.keys.typ == nil {
		t.alloc(0)
	}
	if float64(t.nitems+1) > float64(t.nslots)*allocator.LoadFactor {
		t.rehash(int(allocator.IdealSize(uint64(t.nitems + 1))))
	}
	t.keys.put(t.nslots, k)
	t.vals.put(t.nslots, v)
	t.place(object.Hash(t.keys.at(t.nslots)))
	t.nitems++
}

// Mem reports whether k is present.
func (t *Table) Mem(k object.Object) bool { return t.find(k) >= 0 }

// Rem removes k and its value, shifting the rest of the chain back.
func (t *Table) Rem(k object.Object) {
	i := t.find(k)
	if i < 0 {
		exception.Raise(errors.KeyMissing(object.Show(k), "Table"))
	}
	t.keys.destroy(i)
	t.vals.destroy(i)
	t.hashes[i] = 0
	for {
		n := (i + 1) % t.nslots
		if t.hashes[n] == 0 || t.displacement(n) == 0 {
			break
		}
		t.keys.move(i, n)
		t.vals.move(i, n)
		t.hashes[i], t.hashes[n] = t.hashes[n], 0
		i = n
	}
	t.nitems--
}

// Resize rehashes into enough slots for n entries. Resizing to zero
// clears the table.
func (t *Table) Resize(n int) {
	if n == 0 {
		t.clear()
		t.alloc(0)
		return
	}
	if n < t.nitems {
		exception.Throw(errors.FormatError, "Cannot resize Table to make it smaller than %d items", t.nitems)
	}
	t.rehash(int(allocator.IdealSize(uint64(n))))
}
