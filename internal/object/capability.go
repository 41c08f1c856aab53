package object

import "strings"

// Capability names a bundle of optional operations a type may implement.
type Capability struct {
	name string
	hot  int
}

// Name returns the capability name.
func (c *Capability) Name() string { return c.name }

func (c *Capability) String() string { return c.name }

// Cache slots for frequently dispatched capabilities.
const (
	hotSize = iota
	hotAlloc
	hotNew
	hotAssign
	hotCmp
	hotMark
	hotHash
	hotLen
	hotIter
	hotPush
	hotConcat
	hotGet
	hotCStr
	hotCInt
	hotCFloat
	hotCurrent
	hotCast
	hotPointer
	hotCount
)

var (
	CapDoc     = &Capability{name: "Doc", hot: -1}
	CapSize    = &Capability{name: "Size", hot: hotSize}
	CapAlloc   = &Capability{name: "Alloc", hot: hotAlloc}
	CapNew     = &Capability{name: "New", hot: hotNew}
	CapAssign  = &Capability{name: "Assign", hot: hotAssign}
	CapCopy    = &Capability{name: "Copy", hot: -1}
	CapSwap    = &Capability{name: "Swap", hot: -1}
	CapCmp     = &Capability{name: "Cmp", hot: hotCmp}
	CapHash    = &Capability{name: "Hash", hot: hotHash}
	CapMark    = &Capability{name: "Mark", hot: hotMark}
	CapLen     = &Capability{name: "Len", hot: hotLen}
	CapIter    = &Capability{name: "Iter", hot: hotIter}
	CapPush    = &Capability{name: "Push", hot: hotPush}
	CapConcat  = &Capability{name: "Concat", hot: hotConcat}
	CapGet     = &Capability{name: "Get", hot: hotGet}
	CapCStr    = &Capability{name: "C_Str", hot: hotCStr}
	CapCInt    = &Capability{name: "C_Int", hot: hotCInt}
	CapCFloat  = &Capability{name: "C_Float", hot: hotCFloat}
	CapCurrent = &Capability{name: "Current", hot: hotCurrent}
	CapCast    = &Capability{name: "Cast", hot: hotCast}
	CapPointer = &Capability{name: "Pointer", hot: hotPointer}
	CapShow    = &Capability{name: "Show", hot: -1}
	CapSort    = &Capability{name: "Sort", hot: -1}
	CapResize  = &Capability{name: "Resize", hot: -1}
	CapReverse = &Capability{name: "Reverse", hot: -1}
	CapStart   = &Capability{name: "Start", hot: -1}
	CapLock    = &Capability{name: "Lock", hot: -1}
	CapCall    = &Capability{name: "Call", hot: -1}
	CapStream  = &Capability{name: "Stream", hot: -1}
)

// Capabilities lists every capability known to the runtime.
func Capabilities() []*Capability {
	return []*Capability{
		CapDoc, CapSize, CapAlloc, CapNew, CapAssign, CapCopy, CapSwap, CapCmp,
		CapHash, CapMark, CapLen, CapIter, CapPush, CapConcat, CapGet, CapCStr,
		CapCInt, CapCFloat, CapCurrent, CapCast, CapPointer, CapShow, CapSort,
		CapResize, CapReverse, CapStart, CapLock, CapCall,
	}
}

// Instance is the operation table a type supplies for one capability. A nil
// operation inside an instance means the type does not provide that method.
type Instance interface {
	Capability() *Capability
}

// DocOps documents a type.
type DocOps struct {
	Name        string
	Brief       string
	Description string
	Examples    []string
}

// SizeOps overrides the declared payload size.
type SizeOps struct {
	Size func() uintptr
}

// AllocOps overrides allocation and deallocation.
type AllocOps struct {
	Alloc   func(t *Type) Object
	Dealloc func(self Object)
}

// NewOps constructs and destructs values.
type NewOps struct {
	New func(self Object, args []Object)
	Del func(self Object)
}

type AssignOps struct {
	Assign func(self, obj Object)
}

type CopyOps struct {
	Copy func(self Object) Object
}

type SwapOps struct {
	Swap func(self, obj Object)
}

// CmpOps orders values: negative, zero or positive like strings.Compare.
type CmpOps struct {
	Cmp func(self, obj Object) int
}

type HashOps struct {
	Hash func(self Object) uint64
}

// MarkOps reports the objects a value references to the collector.
type MarkOps struct {
	Mark func(self Object, visit func(Object))
}

// LenOps counts the items of a value. Sized, when set, reports whether Len
// is usable; views over iterables without a length return false.
type LenOps struct {
	Len   func(self Object) int
	Sized func(self Object) bool
}

// IterOps walks a value. Iteration ends when Terminal is returned.
type IterOps struct {
	Init func(self Object) Object
	Next func(self, cur Object) Object
	Last func(self Object) Object
	Prev func(self, cur Object) Object
	Type func(self Object) *Type
}

type PushOps struct {
	Push   func(self, obj Object)
	Pop    func(self Object)
	PushAt func(self, obj, key Object)
	PopAt  func(self, key Object)
}

type ConcatOps struct {
	Concat func(self, obj Object)
	Append func(self, obj Object)
}

// GetOps provides keyed or positional access.
type GetOps struct {
	Get     func(self, key Object) Object
	Set     func(self, key, val Object)
	Mem     func(self, key Object) bool
	Rem     func(self, key Object)
	KeyType func(self Object) *Type
	ValType func(self Object) *Type
}

type CStrOps struct {
	CStr func(self Object) string
}

type CIntOps struct {
	CInt func(self Object) int64
}

type CFloatOps struct {
	CFloat func(self Object) float64
}

// CurrentOps returns a type's current singleton, such as the running thread.
type CurrentOps struct {
	Current func() Object
}

type CastOps struct {
	Cast func(self Object, t *Type) Object
}

type PointerOps struct {
	Ref   func(self, target Object)
	Deref func(self Object) Object
}

// ShowOps renders a value as text and parses it back. Look returns the
// number of bytes consumed from input.
type ShowOps struct {
	Show func(self Object, b *strings.Builder)
	Look func(self Object, input string) int
}

type SortOps struct {
	SortBy func(self Object, less func(a, b Object) bool)
}

type ResizeOps struct {
	Resize func(self Object, n int)
}

type ReverseOps struct {
	Reverse func(self Object)
}

// StartOps is implemented by resources that can be started and stopped.
type StartOps struct {
	Start   func(self Object)
	Stop    func(self Object)
	Join    func(self Object)
	Running func(self Object) bool
}

type LockOps struct {
	Lock    func(self Object)
	Unlock  func(self Object)
	TryLock func(self Object) bool
}

type CallOps struct {
	Call func(self Object, args []Object) Object
}

// StreamOps moves bytes to and from an operating system resource. Read and
// Write return the number of bytes transferred. EOF reports whether a read
// has run into the end of the stream. Whence takes the io.Seek* constants.
type StreamOps struct {
	Open  func(self Object, resource, options Object) Object
	Close func(self Object)
	Seek  func(self Object, pos int64, whence int)
	Tell  func(self Object) int64
	Flush func(self Object)
	EOF   func(self Object) bool
	Read  func(self Object, p []byte) int
	Write func(self Object, p []byte) int
}

func (*DocOps) Capability() *Capability     { return CapDoc }
func (*SizeOps) Capability() *Capability    { return CapSize }
func (*AllocOps) Capability() *Capability   { return CapAlloc }
func (*NewOps) Capability() *Capability     { return CapNew }
func (*AssignOps) Capability() *Capability  { return CapAssign }
func (*CopyOps) Capability() *Capability    { return CapCopy }
func (*SwapOps) Capability() *Capability    { return CapSwap }
func (*CmpOps) Capability() *Capability     { return CapCmp }
func (*HashOps) Capability() *Capability    { return CapHash }
func (*MarkOps) Capability() *Capability    { return CapMark }
func (*LenOps) Capability() *Capability     { return CapLen }
func (*IterOps) Capability() *Capability    { return CapIter }
func (*PushOps) Capability() *Capability    { return CapPush }
func (*ConcatOps) Capability() *Capability  { return CapConcat }
func (*GetOps) Capability() *Capability     { return CapGet }
func (*CStrOps) Capability() *Capability    { return CapCStr }
func (*CIntOps) Capability() *Capability    { return CapCInt }
func (*CFloatOps) Capability() *Capability  { return CapCFloat }
func (*CurrentOps) Capability() *Capability { return CapCurrent }
func (*CastOps) Capability() *Capability    { return CapCast }
func (*PointerOps) Capability() *Capability { return CapPointer }
func (*ShowOps) Capability() *Capability    { return CapShow }
func (*SortOps) Capability() *Capability    { return CapSort }
func (*ResizeOps) Capability() *Capability  { return CapResize }
func (*ReverseOps) Capability() *Capability { return CapReverse }
func (*StartOps) Capability() *Capability   { return CapStart }
func (*LockOps) Capability() *Capability    { return CapLock }
func (*CallOps) Capability() *Capability    { return CapCall }
func (*StreamOps) Capability() *Capability  { return CapStream }
