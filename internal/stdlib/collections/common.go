// Package collections implements the runtime's container types: Array, List,
// Table, Tree and Tuple. Every container participates in the object
// protocol and can be assigned from any iterable object.
package collections

import (
	"cmp"
	"iter"
	"strings"

	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// position normalises a possibly negative index against n items.
func position(i, n int, container string) int {
	j := i
	if j < 0 {
		j += n
	}
	if config.Current().BoundsChecks && (j < 0 || j >= n) {
		exception.Raise(errors.IndexOutOfBounds(i, n, container))
	}
	return j
}

// insertPosition is position for insertions, where n itself is valid.
func insertPosition(i, n int, container string) int {
	j := i
	if j < 0 {
		j += n
	}
	if config.Current().BoundsChecks && (j < 0 || j > n) {
		exception.Raise(errors.IndexOutOfBounds(i, n, container))
	}
	return j
}

func key(k object.Object) int { return int(object.CInt(k)) }

// typeArg reads a leading Type argument.
func typeArg(args []object.Object, container string) (*object.Type, []object.Object) {
	if len(args) == 0 {
		exception.Throw(errors.ValueError, "%s constructor requires an element type", container)
	}
	return object.Cast(args[0], object.TypeType).(*object.Type), args[1:]
}

// iterType returns the item type src yields, or Ref when it does not say.
func iterType(src object.Object) *object.Type {
	if object.ImplementsMethod(src, object.CapIter, "Type") {
		return object.IterType(src)
	}
	return object.RefType
}

func sizeHint(src object.Object) int {
	if object.Sized(src) {
		return object.Len(src)
	}
	return 0
}

func showSeq(b *strings.Builder, open, close string, items iter.Seq[object.Object]) {
	b.WriteString(open)
	first := true
	for item := range items {
		if !first {
			b.WriteString(", ")
		}
		first = false
		object.ShowTo(b, item)
	}
	b.WriteString(close)
}

// cmpSeq orders two sequences lexicographically, shorter first on a tie.
func cmpSeq(a, b iter.Seq[object.Object]) int {
	next, stop := iter.Pull(b)
	defer stop()
	for x := range a {
		y, ok := next()
		if !ok {
			return 1
		}
		if c := object.Cmp(x, y); c != 0 {
			return c
		}
	}
	if _, ok := next(); ok {
		return -1
	}
	return 0
}

func hashSeq(items iter.Seq[object.Object]) uint64 {
	var h uint64
	for item := range items {
		h ^= object.Hash(item)
	}
	return h
}

func notFound(obj object.Object, container string) {
	exception.Throw(errors.ValueError, "Object %s not in %s!", object.Show(obj), container)
}

// quicksort sorts the index range [lo, hi] using the middle item as pivot.
func quicksort(lo, hi int, less func(i, j int) bool, swap func(i, j int)) {
	for lo < hi {
		mid := lo + (hi-lo)/2
		swap(mid, hi)
		p := lo
		for i := lo; i < hi; i++ {
			if less(i, hi) {
				swap(i, p)
				p++
			}
		}
		swap(p, hi)

		if p-lo < hi-p {
			quicksort(lo, p-1, less, swap)
			lo = p + 1
		} else {
			quicksort(p+1, hi, less, swap)
			hi = p - 1
		}
	}
}

// mapping is implemented by the keyed containers.
type mapping interface {
	object.Object
	Len() int
	pairs() iter.Seq2[object.Object, object.Object]
}

func isMapping(obj object.Object) bool {
	t := object.TypeOf(obj)
	return t == TableType || t == TreeType
}

// mappingTypes returns the key and value types a container assigned from
// src takes on. Plain iterables map their items to Undef.
func mappingTypes(src object.Object) (*object.Type, *object.Type) {
	if isMapping(src) {
		return object.KeyType(src), object.ValType(src)
	}
	return iterType(src), object.RefType
}

// fillMapping copies src's key/value pairs through set.
func fillMapping(src object.Object, set func(k, v object.Object)) {
	if isMapping(src) {
		for k, v := range src.(mapping).pairs() {
			set(k, v)
		}
		return
	}
	for _, k := range object.Items(src) {
		set(k, object.Undef)
	}
}

func cmpMapping(m mapping, obj object.Object) int {
	if n, o := m.Len(), object.Len(obj); n != o {
		return cmp.Compare(n, o)
	}
	for k, v := range m.pairs() {
		if !object.Mem(obj, k) {
			return 1
		}
		if c := object.Cmp(v, object.Get(obj, k)); c != 0 {
			return c
		}
	}
	return 0
}

func hashMapping(m mapping) uint64 {
	var h uint64
	for k, v := range m.pairs() {
		h ^= object.Hash(k) ^ object.Hash(v)
	}
	return h
}

func showMapping(b *strings.Builder, m mapping) {
	b.WriteString("{")
	first := true
	for k, v := range m.pairs() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		object.ShowTo(b, k)
		b.WriteString(":")
		object.ShowTo(b, v)
	}
	b.WriteString("}")
}

func markMapping(m mapping, visit func(object.Object)) {
	for k, v := range m.pairs() {
		visit(k)
		visit(v)
	}
}

// pairArgs splits constructor arguments into key/value pairs.
func pairArgs(args []object.Object, container string) [][2]object.Object {
	if len(args)%2 != 0 {
		exception.Throw(errors.ValueError, "%s constructor expects key/value pairs, got %d values", container, len(args))
	}
	out := make([][2]object.Object, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		out = append(out, [2]object.Object{args[i], args[i+1]})
	}
	return out
}
