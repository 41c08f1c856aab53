// Package object implements the runtime's object model: headers, types with
// capability tables, generic dispatch and the core protocols every value
// participates in.
package object

import "unsafe"

// AllocKind records how an object's memory was obtained.
type AllocKind uint8

const (
	AllocHeap AllocKind = iota
	AllocStack
	AllocStatic
	AllocEmbedded
)

func (k AllocKind) String() string {
	switch k {
	case AllocHeap:
		return "heap"
	case AllocStack:
		return "stack"
	case AllocStatic:
		return "static"
	case AllocEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

const (
	liveMagic uint32 = 0x0b1ec7
	deadMagic uint32 = 0xdead0b1e
)

// Tracker is told when an object it tracks is deallocated explicitly.
type Tracker interface {
	Untrack(obj Object)
}

// Header is the preamble embedded as the first field of every object.
type Header struct {
	typ     *Type
	alloc   AllocKind
	magic   uint32
	tracker Tracker
}

const headerSize = unsafe.Sizeof(Header{})

func (h *Header) objectHeader() *Header { return h }

// Object is any value carrying a Header. Types satisfy it by embedding Header
// as their first field.
type Object interface {
	objectHeader() *Header
}

// HeaderOf returns the header of obj.
func HeaderOf(obj Object) *Header {
	if obj == nil {
		return nil
	}
	return obj.objectHeader()
}

// Alloc returns the provenance recorded for the object.
func (h *Header) Alloc() AllocKind { return h.alloc }

// Live reports whether the integrity tag marks a live object.
func (h *Header) Live() bool { return h.magic == liveMagic }

// Tracker returns the collector tracking the object, if any.
func (h *Header) Tracker() Tracker { return h.tracker }

// SetTracker records the collector tracking the object.
func (h *Header) SetTracker(t Tracker) { h.tracker = t }

// InitHeader stamps obj with its type, provenance and a live integrity tag.
func InitHeader(obj Object, t *Type, kind AllocKind) Object {
	h := obj.objectHeader()
	h.typ = t
	h.alloc = kind
	h.magic = liveMagic
	h.tracker = nil
	return obj
}

// Address returns the address identifying obj.
func Address(obj Object) uintptr {
	if obj == nil {
		return 0
	}
	return uintptr(unsafe.Pointer(obj.objectHeader()))
}
