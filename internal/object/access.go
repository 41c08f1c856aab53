package object

import (
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

// Len returns the number of items in a collection.
func Len(obj Object) int {
	ops := instanceOf[*LenOps](obj, CapLen)
	if ops.Len == nil {
		methodMissing(obj, CapLen, "len")
	}
	return ops.Len(obj)
}

// Sized reports whether obj can report its length.
func Sized(obj Object) bool {
	ops, _ := InstanceOf(obj, CapLen).(*LenOps)
	if ops == nil || ops.Len == nil {
		return false
	}
	if ops.Sized != nil {
		return ops.Sized(obj)
	}
	return true
}

// Empty reports whether obj has no items.
func Empty(obj Object) bool { return Len(obj) == 0 }

func getOps(obj Object, method string, present func(*GetOps) bool) *GetOps {
	ops := instanceOf[*GetOps](obj, CapGet)
	if !present(ops) {
		methodMissing(obj, CapGet, method)
	}
	return ops
}

// Get returns the item stored under key.
func Get(obj, key Object) Object {
	return getOps(obj, "get", func(o *GetOps) bool { return o.Get != nil }).Get(obj, key)
}

// Set stores val under key.
func Set(obj, key, val Object) {
	getOps(obj, "set", func(o *GetOps) bool { return o.Set != nil }).Set(obj, key, val)
}

// Mem reports whether key is a member of obj.
func Mem(obj, key Object) bool {
	return getOps(obj, "mem", func(o *GetOps) bool { return o.Mem != nil }).Mem(obj, key)
}

// Rem removes key from obj.
func Rem(obj, key Object) {
	getOps(obj, "rem", func(o *GetOps) bool { return o.Rem != nil }).Rem(obj, key)
}

// KeyType returns the key type of a keyed collection.
func KeyType(obj Object) *Type {
	return getOps(obj, "key_type", func(o *GetOps) bool { return o.KeyType != nil }).KeyType(obj)
}

// ValType returns the element or value type of a collection.
func ValType(obj Object) *Type {
	return getOps(obj, "val_type", func(o *GetOps) bool { return o.ValType != nil }).ValType(obj)
}

func pushOps(obj Object, method string, present func(*PushOps) bool) *PushOps {
	ops := instanceOf[*PushOps](obj, CapPush)
	if !present(ops) {
		methodMissing(obj, CapPush, method)
	}
	return ops
}

// Push appends a copy of item to the end of obj.
func Push(obj, item Object) {
	pushOps(obj, "push", func(o *PushOps) bool { return o.Push != nil }).Push(obj, item)
}

// Pop removes the last item of obj.
func Pop(obj Object) {
	pushOps(obj, "pop", func(o *PushOps) bool { return o.Pop != nil }).Pop(obj)
}

// PushAt inserts a copy of item before position key.
func PushAt(obj, item, key Object) {
	pushOps(obj, "push_at", func(o *PushOps) bool { return o.PushAt != nil }).PushAt(obj, item, key)
}

// PopAt removes the item at position key.
func PopAt(obj, key Object) {
	pushOps(obj, "pop_at", func(o *PushOps) bool { return o.PopAt != nil }).PopAt(obj, key)
}

// Concat appends every item of other to obj.
func Concat(obj, other Object) {
	ops := instanceOf[*ConcatOps](obj, CapConcat)
	if ops.Concat == nil {
		methodMissing(obj, CapConcat, "concat")
	}
	ops.Concat(obj, other)
}

// Append appends a single item to obj.
func Append(obj, item Object) {
	ops := instanceOf[*ConcatOps](obj, CapConcat)
	if ops.Append == nil {
		methodMissing(obj, CapConcat, "append")
	}
	ops.Append(obj, item)
}

// Resize changes a collection's capacity or length.
func Resize(obj Object, n int) {
	ops := instanceOf[*ResizeOps](obj, CapResize)
	if ops.Resize == nil {
		methodMissing(obj, CapResize, "resize")
	}
	ops.Resize(obj, n)
}

// Clear removes every item from obj.
func Clear(obj Object) { Resize(obj, 0) }

// Sort sorts obj in ascending order.
func Sort(obj Object) { SortBy(obj, Lt) }

// SortBy sorts obj using less.
func SortBy(obj Object, less func(a, b Object) bool) {
	ops := instanceOf[*SortOps](obj, CapSort)
	if ops.SortBy == nil {
		methodMissing(obj, CapSort, "sort_by")
	}
	ops.SortBy(obj, less)
}

// Reverse reverses obj in place.
func Reverse(obj Object) {
	ops := instanceOf[*ReverseOps](obj, CapReverse)
	if ops.Reverse == nil {
		methodMissing(obj, CapReverse, "reverse")
	}
	ops.Reverse(obj)
}

// CStr converts obj to a Go string.
func CStr(obj Object) string {
	ops := instanceOf[*CStrOps](obj, CapCStr)
	if ops.CStr == nil {
		methodMissing(obj, CapCStr, "c_str")
	}
	return ops.CStr(obj)
}

// CInt converts obj to an integer.
func CInt(obj Object) int64 {
	ops := instanceOf[*CIntOps](obj, CapCInt)
	if ops.CInt == nil {
		methodMissing(obj, CapCInt, "c_int")
	}
	return ops.CInt(obj)
}

// CFloat converts obj to a float.
func CFloat(obj Object) float64 {
	ops := instanceOf[*CFloatOps](obj, CapCFloat)
	if ops.CFloat == nil {
		methodMissing(obj, CapCFloat, "c_float")
	}
	return ops.CFloat(obj)
}

// Current returns the current instance of t, such as the running thread.
func Current(t *Type) Object {
	c := lookup[*CurrentOps](t, CapCurrent)
	if c == nil {
		exception.Raise(errors.NotImplemented(t.name, CapCurrent.name))
	}
	if c.Current == nil {
		exception.Raise(errors.MethodMissing(t.name, CapCurrent.name, "current"))
	}
	return c.Current()
}

// Cast checks that obj has type t and returns it. Types implementing Cast may
// convert instead.
func Cast(obj Object, t *Type) Object {
	ot := TypeOf(obj)
	if c := lookup[*CastOps](ot, CapCast); c != nil && c.Cast != nil {
		return c.Cast(obj, t)
	}
	if ot != t {
		exception.Throw(errors.ValueError, "cast expected type %s, got type %s", t.name, ot.name)
	}
	return obj
}

// Ref points a reference-like object at target.
func Ref(obj, target Object) {
	ops := instanceOf[*PointerOps](obj, CapPointer)
	if ops.Ref == nil {
		methodMissing(obj, CapPointer, "ref")
	}
	ops.Ref(obj, target)
}

// Deref returns the object a reference-like object points at.
func Deref(obj Object) Object {
	ops := instanceOf[*PointerOps](obj, CapPointer)
	if ops.Deref == nil {
		methodMissing(obj, CapPointer, "deref")
	}
	return ops.Deref(obj)
}

// Call invokes a callable object.
func Call(obj Object, args ...Object) Object {
	ops := instanceOf[*CallOps](obj, CapCall)
	if ops.Call == nil {
		methodMissing(obj, CapCall, "call")
	}
	return ops.Call(obj, args)
}

func startOps(obj Object, method string, present func(*StartOps) bool) *StartOps {
	ops := instanceOf[*StartOps](obj, CapStart)
	if !present(ops) {
		methodMissing(obj, CapStart, method)
	}
	return ops
}

func Start(obj Object) {
	startOps(obj, "start", func(o *StartOps) bool { return o.Start != nil }).Start(obj)
}

func Stop(obj Object) {
	startOps(obj, "stop", func(o *StartOps) bool { return o.Stop != nil }).Stop(obj)
}

func Join(obj Object) {
	startOps(obj, "join", func(o *StartOps) bool { return o.Join != nil }).Join(obj)
}

func Running(obj Object) bool {
	return startOps(obj, "running", func(o *StartOps) bool { return o.Running != nil }).Running(obj)
}

// With starts obj, runs fn and stops obj even when fn throws. A missing
// Start or Stop method is skipped.
func With(obj Object, fn func()) {
	ops, _ := InstanceOf(obj, CapStart).(*StartOps)
	if ops != nil && ops.Start != nil {
		ops.Start(obj)
	}
	if ops != nil && ops.Stop != nil {
		defer ops.Stop(obj)
	}
	fn()
}

func lockOps(obj Object, method string, present func(*LockOps) bool) *LockOps {
	ops := instanceOf[*LockOps](obj, CapLock)
	if !present(ops) {
		methodMissing(obj, CapLock, method)
	}
	return ops
}

func Lock(obj Object) {
	lockOps(obj, "lock", func(o *LockOps) bool { return o.Lock != nil }).Lock(obj)
}

func Unlock(obj Object) {
	lockOps(obj, "unlock", func(o *LockOps) bool { return o.Unlock != nil }).Unlock(obj)
}

func TryLock(obj Object) bool {
	return lockOps(obj, "trylock", func(o *LockOps) bool { return o.TryLock != nil }).TryLock(obj)
}
