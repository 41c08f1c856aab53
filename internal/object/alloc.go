package object

import (
	"reflect"

	"github.com/orizon-lang/objrt/internal/allocator"
	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

// Alloc allocates a zeroed, unconstructed heap object of type t.
func Alloc(t *Type) Object {
	if a := lookup[*AllocOps](t, CapAlloc); a != nil && a.Alloc != nil {
		return a.Alloc(t)
	}
	return AllocAs(t, AllocHeap)
}

// AllocAs allocates a zeroed object of type t with the given provenance. Only
// heap objects are charged against the memory limit.
func AllocAs(t *Type, kind AllocKind) Object {
	if kind == AllocHeap {
		cfg := config.Current()
		limit := int64(0)
		if cfg.MemoryChecks {
			limit = cfg.MemoryLimit
		}
		if err := allocator.Global.Reserve(t.Footprint(), limit); err != nil {
			exception.Throw(errors.OutOfMemoryError, "Cannot create new '%s', out of memory!", t.name)
		}
	}
	obj := reflect.New(t.goType).Interface().(Object)
	return InitHeader(obj, t, kind)
}

// Dealloc releases a heap object without destructing it. The object is
// removed from its collector first, and its header is marked dead.
func Dealloc(obj Object) {
	if obj == nil {
		if config.Current().AllocChecks {
			exception.Throw(errors.ResourceError, "Attempt to deallocate nil!")
		}
		return
	}

	t := TypeOf(obj)
	h := obj.objectHeader()
	if config.Current().AllocChecks {
		switch h.alloc {
		case AllocStatic:
			exception.Throw(errors.ResourceError, "Attempt to deallocate %s which was allocated statically!", Show(obj))
		case AllocStack:
			exception.Throw(errors.ResourceError, "Attempt to deallocate %s which was allocated on the stack!", Show(obj))
		case AllocEmbedded:
			exception.Throw(errors.ResourceError, "Attempt to deallocate %s which was allocated inside a data structure!", Show(obj))
		}
	}

	if tr := h.tracker; tr != nil {
		h.tracker = nil
		tr.Untrack(obj)
	}

	if a := lookup[*AllocOps](t, CapAlloc); a != nil && a.Dealloc != nil {
		a.Dealloc(obj)
	} else if h.alloc == AllocHeap {
		allocator.Global.Release(t.Footprint())
	}
	h.magic = deadMagic
}

// Construct runs the type's constructor on an allocated object. Without one,
// a single argument is assigned into the object.
func Construct(obj Object, args ...Object) Object {
	if n := lookup[*NewOps](TypeOf(obj), CapNew); n != nil && n.New != nil {
		n.New(obj, args)
		return obj
	}
	if len(args) == 1 {
		Assign(obj, args[0])
	}
	return obj
}

// Destruct runs the type's destructor, releasing what the object owns.
func Destruct(obj Object) {
	if n := lookup[*NewOps](TypeOf(obj), CapNew); n != nil && n.Del != nil {
		n.Del(obj)
	}
}

// New allocates and constructs a heap object of type t.
func New(t *Type, args ...Object) Object {
	return Construct(Alloc(t), args...)
}

// Del destructs and deallocates a heap object.
func Del(obj Object) {
	Destruct(obj)
	Dealloc(obj)
}

// Stack constructs an object tagged as a temporary. It cannot be deallocated.
func Stack(t *Type, args ...Object) Object {
	return Construct(AllocAs(t, AllocStack), args...)
}

// Static constructs an object that lives for the whole program.
func Static(t *Type, args ...Object) Object {
	return Construct(AllocAs(t, AllocStatic), args...)
}
