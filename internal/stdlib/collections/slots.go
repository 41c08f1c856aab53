package collections

import (
	"reflect"

	"github.com/orizon-lang/objrt/internal/object"
)

// slots is a contiguous buffer of values of one object type. Live slots carry
// Embedded provenance; unused slots are zero.
type slots struct {
	typ  *object.Type
	buf  reflect.Value
	swp  func(i, j int)
	size uintptr
}

func newSlots(t *object.Type, n int) slots {
	gt := t.GoType()
	s := slots{typ: t, size: gt.Size()}
	s.set(reflect.MakeSlice(reflect.SliceOf(gt), n, n))
	return s
}

func (s *slots) set(buf reflect.Value) {
	s.buf = buf
	s.swp = reflect.Swapper(buf.Interface())
}

func (s *slots) len() int {
	if !s.buf.IsValid() {
		return 0
	}
	return s.buf.Len()
}

func (s *slots) at(i int) object.Object {
	return s.buf.Index(i).Addr().Interface().(object.Object)
}

// init stamps slot i as a live embedded object and returns it.
func (s *slots) init(i int) object.Object {
	return object.InitHeader(s.at(i), s.typ, object.AllocEmbedded)
}

// put initialises slot i and assigns v into it.
func (s *slots) put(i int, v object.Object) object.Object {
	return object.Assign(s.init(i), v)
}

// destroy destructs slot i and zeroes it.
func (s *slots) destroy(i int) {
	object.Destruct(s.at(i))
	s.buf.Index(i).SetZero()
}

func (s *slots) move(dst, src int) {
	s.buf.Index(dst).Set(s.buf.Index(src))
	s.buf.Index(src).SetZero()
}

func (s *slots) swap(i, j int) { s.swp(i, j) }

// resize reallocates the buffer to n slots, keeping the first min(n, len)
// slots in place.
func (s *slots) resize(n int) {
	next := reflect.MakeSlice(s.buf.Type(), n, n)
	reflect.Copy(next, s.buf)
	s.set(next)
}

// indexOf returns the slot holding obj, or -1 when obj is not in the buffer.
func (s *slots) indexOf(obj object.Object) int {
	n := s.len()
	if n == 0 || obj == nil {
		return -1
	}
	base := s.buf.Index(0).Addr().Pointer()
	addr := object.Address(obj)
	if addr < base || s.size == 0 {
		return -1
	}
	off := addr - base
	if off%s.size != 0 || int(off/s.size) >= n {
		return -1
	}
	return int(off / s.size)
}
