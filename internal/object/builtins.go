package object

import (
	"cmp"
	"math"
	"strconv"
	"strings"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

// Int is a boxed 64-bit integer.
type Int struct {
	Header
	Val int64
}

// Float is a boxed 64-bit float.
type Float struct {
	Header
	Val float64
}

// String is a boxed string.
type String struct {
	Header
	Val string
}

// RefObj is a non-owning reference to another object.
type RefObj struct {
	Header
	Val Object
}

// Box is an owning reference: deleting the box deletes its target.
type Box struct {
	Header
	Val Object
}

// Function wraps a Go function as a callable object.
type Function struct {
	Header
	Fn func(args []Object) Object
}

type terminal struct{ Header }

type undefined struct{ Header }

var (
	TypeType     *Type
	IntType      *Type
	FloatType    *Type
	StringType   *Type
	RefType      *Type
	BoxType      *Type
	FunctionType *Type
	TerminalType *Type
	UndefType    *Type

	// Terminal ends every iteration and may be stored in tuples.
	Terminal Object
	// Undef is the placeholder for values that are not yet known.
	Undef Object
)

func init() {
	TypeType = Define[Type]("Type",
		&DocOps{
			Name:  "Type",
			Brief: "Type Object",
			Description: "The Type object describes a kind of value. It holds the type name and the " +
				"instances of every class the type implements.",
		},
		&AllocOps{Alloc: func(t *Type) Object {
			exception.Throw(errors.ValueError, "Type objects cannot be allocated dynamically.")
			return nil
		}},
		&AssignOps{Assign: func(self, obj Object) {
			exception.Throw(errors.ValueError, "Type objects cannot be assigned.")
		}},
		&CopyOps{Copy: func(self Object) Object {
			exception.Throw(errors.ValueError, "Type objects cannot be copied.")
			return nil
		}},
		&CmpOps{Cmp: func(self, obj Object) int {
			return strings.Compare(self.(*Type).name, CStr(obj))
		}},
		&HashOps{Hash: func(self Object) uint64 {
			return HashData([]byte(self.(*Type).name))
		}},
		&CStrOps{CStr: func(self Object) string { return self.(*Type).name }},
		&ShowOps{Show: func(self Object, b *strings.Builder) { b.WriteString(self.(*Type).name) }},
	)

	IntType = Define[Int]("Int",
		&DocOps{
			Name:        "Int",
			Brief:       "Integer Object",
			Description: "The Int type is a boxed signed 64-bit integer.",
			Examples:    []string{"i := object.NewInt(10)\nobject.Show(i) // 10"},
		},
		&NewOps{New: func(self Object, args []Object) {
			if len(args) > 0 {
				self.(*Int).Val = CInt(args[0])
			}
		}},
		&AssignOps{Assign: func(self, obj Object) { self.(*Int).Val = CInt(obj) }},
		&CmpOps{Cmp: func(self, obj Object) int { return cmp.Compare(self.(*Int).Val, CInt(obj)) }},
		&HashOps{Hash: func(self Object) uint64 { return uint64(self.(*Int).Val) }},
		&CIntOps{CInt: func(self Object) int64 { return self.(*Int).Val }},
		&CFloatOps{CFloat: func(self Object) float64 { return float64(self.(*Int).Val) }},
		&ShowOps{
			Show: func(self Object, b *strings.Builder) {
				b.WriteString(strconv.FormatInt(self.(*Int).Val, 10))
			},
			Look: func(self Object, input string) int {
				n := scanInt(input)
				if n == 0 {
					return 0
				}
				v, err := strconv.ParseInt(input[:n], 10, 64)
				if err != nil {
					exception.Throw(errors.FormatError, "Cannot parse Int from %q", input[:n])
				}
				self.(*Int).Val = v
				return n
			},
		},
	)

	FloatType = Define[Float]("Float",
		&DocOps{
			Name:        "Float",
			Brief:       "Floating Point Object",
			Description: "The Float type is a boxed 64-bit floating point number.",
		},
		&NewOps{New: func(self Object, args []Object) {
			if len(args) > 0 {
				self.(*Float).Val = CFloat(args[0])
			}
		}},
		&AssignOps{Assign: func(self, obj Object) { self.(*Float).Val = CFloat(obj) }},
		&CmpOps{Cmp: func(self, obj Object) int { return cmp.Compare(self.(*Float).Val, CFloat(obj)) }},
		&HashOps{Hash: func(self Object) uint64 { return math.Float64bits(self.(*Float).Val) }},
		&CIntOps{CInt: func(self Object) int64 { return int64(self.(*Float).Val) }},
		&CFloatOps{CFloat: func(self Object) float64 { return self.(*Float).Val }},
		&ShowOps{
			Show: func(self Object, b *strings.Builder) {
				b.WriteString(strconv.FormatFloat(self.(*Float).Val, 'f', -1, 64))
			},
			Look: func(self Object, input string) int {
				for n := scanFloat(input); n > 0; n-- {
					if v, err := strconv.ParseFloat(input[:n], 64); err == nil {
						self.(*Float).Val = v
						return n
					}
				}
				return 0
			},
		},
	)

	StringType = Define[String]("String",
		&DocOps{
			Name:        "String",
			Brief:       "String Object",
			Description: "The String type is a boxed, immutable sequence of bytes.",
		},
		&NewOps{New: func(self Object, args []Object) {
			if len(args) > 0 {
				self.(*String).Val = CStr(args[0])
			}
		}},
		&AssignOps{Assign: func(self, obj Object) { self.(*String).Val = CStr(obj) }},
		&CmpOps{Cmp: func(self, obj Object) int { return strings.Compare(self.(*String).Val, CStr(obj)) }},
		&HashOps{Hash: func(self Object) uint64 { return HashData([]byte(self.(*String).Val)) }},
		&LenOps{Len: func(self Object) int { return len(self.(*String).Val) }},
		&GetOps{Mem: func(self, key Object) bool {
			return strings.Contains(self.(*String).Val, CStr(key))
		}},
		&ConcatOps{
			Concat: func(self, obj Object) { self.(*String).Val += CStr(obj) },
			Append: func(self, obj Object) { self.(*String).Val += CStr(obj) },
		},
		&CStrOps{CStr: func(self Object) string { return self.(*String).Val }},
		&ShowOps{
			Show: func(self Object, b *strings.Builder) {
				b.WriteString(strconv.Quote(self.(*String).Val))
			},
			Look: func(self Object, input string) int {
				if q, err := strconv.QuotedPrefix(input); err == nil {
					v, _ := strconv.Unquote(q)
					self.(*String).Val = v
					return len(q)
				}
				n := strings.IndexAny(input, " \t\r\n")
				if n < 0 {
					n = len(input)
				}
				self.(*String).Val = input[:n]
				return n
			},
		},
	)

	RefType = Define[RefObj]("Ref", append(referenceInstances(func(self Object) *Object {
		return &self.(*RefObj).Val
	}, nil), &DocOps{
		Name:        "Ref",
		Brief:       "Shared Pointer",
		Description: "A Ref points at another object without owning it.",
	})...)

	BoxType = Define[Box]("Box", append(referenceInstances(func(self Object) *Object {
		return &self.(*Box).Val
	}, func(self Object) {
		// A collector may already have swept the target in the same pass.
		if v := self.(*Box).Val; v != nil {
			self.(*Box).Val = nil
			if v.objectHeader().Live() {
				Del(v)
			}
		}
	}), &DocOps{
		Name:        "Box",
		Brief:       "Unique Pointer",
		Description: "A Box owns the object it points at and deletes it when deleted.",
	})...)

	FunctionType = Define[Function]("Function",
		&DocOps{
			Name:        "Function",
			Brief:       "Function Object",
			Description: "A Function wraps a Go function taking and returning objects.",
		},
		&CallOps{Call: func(self Object, args []Object) Object {
			f := self.(*Function)
			if f.Fn == nil {
				exception.Throw(errors.ValueError, "Function object has no function to call")
			}
			return f.Fn(args)
		}},
	)

	TerminalType = Define[terminal]("Terminal",
		&DocOps{Name: "Terminal", Brief: "Iteration End Marker"},
		&ShowOps{Show: func(self Object, b *strings.Builder) { b.WriteString("Terminal") }},
	)
	UndefType = Define[undefined]("_",
		&DocOps{Name: "_", Brief: "Undefined Value"},
		&ShowOps{Show: func(self Object, b *strings.Builder) { b.WriteString("_") }},
	)

	Terminal = InitHeader(&terminal{}, TerminalType, AllocStatic)
	Undef = InitHeader(&undefined{}, UndefType, AllocStatic)
}

// referenceInstances builds the shared instances of Ref and Box. Both are
// transparent: comparing, hashing and showing them acts on the target.
func referenceInstances(target func(self Object) *Object, del func(self Object)) []Instance {
	deref := func(obj Object) Object {
		if p, ok := obj.(*RefObj); ok {
			return p.Val
		}
		if p, ok := obj.(*Box); ok {
			return p.Val
		}
		return obj
	}
	return []Instance{
		&NewOps{
			New: func(self Object, args []Object) {
				if len(args) > 0 {
					*target(self) = args[0]
				}
			},
			Del: del,
		},
		&AssignOps{Assign: func(self, obj Object) { *target(self) = deref(obj) }},
		&CmpOps{Cmp: func(self, obj Object) int {
			a, b := *target(self), deref(obj)
			switch {
			case a == nil && b == nil:
				return 0
			case a == nil:
				return -1
			case b == nil:
				return 1
			}
			return Cmp(a, b)
		}},
		&HashOps{Hash: func(self Object) uint64 {
			if v := *target(self); v != nil {
				return Hash(v)
			}
			return 0
		}},
		&MarkOps{Mark: func(self Object, visit func(Object)) {
			if v := *target(self); v != nil {
				visit(v)
			}
		}},
		&PointerOps{
			Ref:   func(self, obj Object) { *target(self) = obj },
			Deref: func(self Object) Object { return *target(self) },
		},
		&ShowOps{Show: func(self Object, b *strings.Builder) { ShowTo(b, *target(self)) }},
	}
}

func scanInt(s string) int {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	return i
}

func scanFloat(s string) int {
	i := 0
	for i < len(s) && strings.IndexByte("+-0123456789.eE", s[i]) >= 0 {
		i++
	}
	return i
}

// NewInt allocates a heap Int.
func NewInt(v int64) *Int {
	o := Alloc(IntType).(*Int)
	o.Val = v
	return o
}

// NewFloat allocates a heap Float.
func NewFloat(v float64) *Float {
	o := Alloc(FloatType).(*Float)
	o.Val = v
	return o
}

// NewString allocates a heap String.
func NewString(v string) *String {
	o := Alloc(StringType).(*String)
	o.Val = v
	return o
}

// NewRef allocates a heap Ref pointing at target.
func NewRef(target Object) *RefObj {
	o := Alloc(RefType).(*RefObj)
	o.Val = target
	return o
}

// NewBox allocates a heap Box owning target.
func NewBox(target Object) *Box {
	o := Alloc(BoxType).(*Box)
	o.Val = target
	return o
}

// NewFunction allocates a heap Function.
func NewFunction(fn func(args []Object) Object) *Function {
	o := Alloc(FunctionType).(*Function)
	o.Fn = fn
	return o
}

// I returns a temporary Int.
func I(v int64) *Int {
	o := &Int{Val: v}
	InitHeader(o, IntType, AllocStack)
	return o
}

// F returns a temporary Float.
func F(v float64) *Float {
	o := &Float{Val: v}
	InitHeader(o, FloatType, AllocStack)
	return o
}

// S returns a temporary String.
func S(v string) *String {
	o := &String{Val: v}
	InitHeader(o, StringType, AllocStack)
	return o
}

// R returns a temporary Ref pointing at target.
func R(target Object) *RefObj {
	o := &RefObj{Val: target}
	InitHeader(o, RefType, AllocStack)
	return o
}

// Fn returns a temporary Function.
func Fn(fn func(args []Object) Object) *Function {
	o := &Function{Fn: fn}
	InitHeader(o, FunctionType, AllocStack)
	return o
}
