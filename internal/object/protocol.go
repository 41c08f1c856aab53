package object

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"unsafe"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

// payload views the bytes following obj's header.
func payload(obj Object) []byte {
	t := TypeOf(obj)
	if t.size == 0 {
		return nil
	}
	base := unsafe.Pointer(obj.objectHeader())
	return unsafe.Slice((*byte)(unsafe.Add(base, headerSize)), t.size)
}

func sameLayout(a, b Object) bool {
	return TypeOf(a).goType == TypeOf(b).goType
}

// copyPayload copies src's fields into dst, leaving dst's header intact.
func copyPayload(dst, src Object) {
	h := *dst.objectHeader()
	reflect.ValueOf(dst).Elem().Set(reflect.ValueOf(src).Elem())
	*dst.objectHeader() = h
}

// Assign copies obj's value into self and returns self.
func Assign(self, obj Object) Object {
	if a := lookup[*AssignOps](TypeOf(self), CapAssign); a != nil && a.Assign != nil {
		a.Assign(self, obj)
		return self
	}
	if !sameLayout(self, obj) {
		exception.Throw(errors.TypeError, "Cannot assign type %s to type %s", TypeOf(obj).name, TypeOf(self).name)
	}
	copyPayload(self, obj)
	return self
}

// Copy returns a new, untracked heap copy of obj.
func Copy(obj Object) Object {
	t := TypeOf(obj)
	if c := lookup[*CopyOps](t, CapCopy); c != nil && c.Copy != nil {
		return c.Copy(obj)
	}
	return Assign(Alloc(t), obj)
}

// Swap exchanges the values of two objects of the same type.
func Swap(a, b Object) {
	if s := lookup[*SwapOps](TypeOf(a), CapSwap); s != nil && s.Swap != nil {
		s.Swap(a, b)
		return
	}
	if !sameLayout(a, b) {
		exception.Throw(errors.TypeError, "Cannot swap type %s and type %s", TypeOf(a).name, TypeOf(b).name)
	}
	ha, hb := *a.objectHeader(), *b.objectHeader()
	av, bv := reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem()
	tmp := reflect.New(av.Type()).Elem()
	tmp.Set(av)
	av.Set(bv)
	bv.Set(tmp)
	*a.objectHeader(), *b.objectHeader() = ha, hb
}

// Cmp orders self against obj. Without a Cmp instance objects of the same
// type are ordered by their payload bytes.
func Cmp(self, obj Object) int {
	if c := lookup[*CmpOps](TypeOf(self), CapCmp); c != nil && c.Cmp != nil {
		return c.Cmp(self, obj)
	}
	if !sameLayout(self, obj) {
		exception.Throw(errors.TypeError, "Cannot compare type %s to type %s", TypeOf(obj).name, TypeOf(self).name)
	}
	return bytes.Compare(payload(self), payload(obj))
}

func Eq(a, b Object) bool  { return Cmp(a, b) == 0 }
func Neq(a, b Object) bool { return Cmp(a, b) != 0 }
func Lt(a, b Object) bool  { return Cmp(a, b) < 0 }
func Gt(a, b Object) bool  { return Cmp(a, b) > 0 }
func Le(a, b Object) bool  { return Cmp(a, b) <= 0 }
func Ge(a, b Object) bool  { return Cmp(a, b) >= 0 }

// Hash returns obj's hash. Equal objects hash equally.
func Hash(obj Object) uint64 {
	if h := lookup[*HashOps](TypeOf(obj), CapHash); h != nil && h.Hash != nil {
		return h.Hash(obj)
	}
	return HashData(payload(obj))
}

// HashData is the 64-bit MurmurHash2 variant used for default hashing.
func HashData(data []byte) uint64 {
	const (
		m = 0xc6a4a7935bd1e995
		r = 47
	)

	h := uint64(0xCe110) ^ (uint64(len(data)) * m)

	for len(data) >= 8 {
		k := binary.LittleEndian.Uint64(data)
		k *= m
		k ^= k >> r
		k *= m
		h ^= k
		h *= m
		data = data[8:]
	}

	switch len(data) {
	case 7:
		h ^= uint64(data[6]) << 48
		fallthrough
	case 6:
		h ^= uint64(data[5]) << 40
		fallthrough
	case 5:
		h ^= uint64(data[4]) << 32
		fallthrough
	case 4:
		h ^= uint64(data[3]) << 24
		fallthrough
	case 3:
		h ^= uint64(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint64(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint64(data[0])
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r
	return h
}
