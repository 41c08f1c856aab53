package object

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

type entry struct {
	capability *Capability
	instance   Instance
}

// Type describes a kind of object: its name, payload layout and the
// capability instances it implements. Types are themselves objects.
type Type struct {
	Header
	name    string
	goType  reflect.Type
	size    uintptr
	entries []entry
	cache   [hotCount]atomic.Pointer[entry]
}

var (
	headerType = reflect.TypeFor[Header]()

	// absent caches a capability the type does not implement.
	absent entry

	registry    sync.Map // name -> *Type
	coldLookups singleflight.Group
)

// Define creates a type for the Go struct T. T must embed Header as its first
// field. Each instance supplies the operations of one capability.
func Define[T any, P interface {
	*T
	Object
}](name string, instances ...Instance) *Type {
	gt := reflect.TypeFor[T]()
	if gt.Kind() != reflect.Struct || gt.NumField() == 0 ||
		!gt.Field(0).Anonymous || gt.Field(0).Type != headerType {
		panic(fmt.Sprintf("object: %s must embed object.Header as its first field", gt))
	}

	t := &Type{
		name:    name,
		goType:  gt,
		size:    gt.Size() - headerSize,
		entries: make([]entry, 0, len(instances)),
	}
	InitHeader(t, nil, AllocStatic)

	for _, inst := range instances {
		c := inst.Capability()
		for i := range t.entries {
			if t.entries[i].capability == c {
				panic(fmt.Sprintf("object: type %s implements %s twice", name, c))
			}
		}
		t.entries = append(t.entries, entry{capability: c, instance: inst})
	}

	registry.Store(name, t)
	return t
}

// Lookup returns the most recently defined type with the given name.
func Lookup(name string) (*Type, bool) {
	v, ok := registry.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Type), true
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// GoType returns the Go struct backing values of the type.
func (t *Type) GoType() reflect.Type { return t.goType }

// Size returns the payload size in bytes, excluding the header.
func (t *Type) Size() uintptr {
	if s := lookup[*SizeOps](t, CapSize); s != nil && s.Size != nil {
		return s.Size()
	}
	return t.size
}

// Footprint returns the full size of a value including its header.
func (t *Type) Footprint() uintptr {
	return t.goType.Size()
}

func (t *Type) String() string { return t.name }

// Implements reports whether the type has an instance for c.
func (t *Type) Implements(c *Capability) bool {
	return t.Instance(c) != nil
}

// ImplementsMethod reports whether the type provides the named operation of c.
func (t *Type) ImplementsMethod(c *Capability, method string) bool {
	inst := t.Instance(c)
	if inst == nil {
		return false
	}
	f := reflect.ValueOf(inst).Elem().FieldByName(method)
	return f.IsValid() && f.Kind() == reflect.Func && !f.IsNil()
}

// Instance returns the type's instance for c, or nil. Results for hot
// capabilities are cached per type.
func (t *Type) Instance(c *Capability) Instance {
	if c.hot < 0 {
		if e := t.scan(c); e != nil {
			return e.instance
		}
		return nil
	}

	if e := t.cache[c.hot].Load(); e != nil {
		return e.instance
	}

	v, _, _ := coldLookups.Do(t.coldKey(c), func() (interface{}, error) {
		e := t.scan(c)
		if e == nil {
			e = &absent
		}
		t.cache[c.hot].Store(e)
		return e, nil
	})
	return v.(*entry).instance
}

func (t *Type) scan(c *Capability) *entry {
	for i := range t.entries {
		if t.entries[i].capability == c {
			return &t.entries[i]
		}
	}
	return nil
}

func (t *Type) coldKey(c *Capability) string {
	return fmt.Sprintf("%p/%s", t, c.name)
}

// Cached reports whether c's lookup result is held in the type's hot cache.
func (t *Type) Cached(c *Capability) bool {
	return c.hot >= 0 && t.cache[c.hot].Load() != nil
}

func lookup[I Instance](t *Type, c *Capability) I {
	if inst := t.Instance(c); inst != nil {
		return inst.(I)
	}
	var zero I
	return zero
}

// instanceOf returns obj's instance for c or throws a ClassError.
func instanceOf[I Instance](obj Object, c *Capability) I {
	t := TypeOf(obj)
	inst := t.Instance(c)
	if inst == nil {
		exception.Raise(errors.NotImplemented(t.name, c.name))
	}
	return inst.(I)
}

// InstanceOf returns obj's instance for c, or nil.
func InstanceOf(obj Object, c *Capability) Instance {
	return TypeOf(obj).Instance(c)
}

// Implements reports whether obj's type implements c.
func Implements(obj Object, c *Capability) bool {
	return TypeOf(obj).Implements(c)
}

// ImplementsMethod reports whether obj's type provides the named operation of c.
func ImplementsMethod(obj Object, c *Capability, method string) bool {
	return TypeOf(obj).ImplementsMethod(c, method)
}

func methodMissing(obj Object, c *Capability, method string) {
	exception.Raise(errors.MethodMissing(TypeOf(obj).name, c.name, method))
}

// TypeOf returns the type of obj, validating its integrity tag when magic
// checks are enabled.
func TypeOf(obj Object) *Type {
	if obj == nil {
		exception.Throw(errors.ValueError, "Received nil as value to 'type_of'")
	}
	h := obj.objectHeader()
	if config.Current().MagicChecks && h.magic != liveMagic {
		if h.magic == deadMagic {
			exception.Throw(errors.ValueError,
				"Pointer '%p' passed to 'type_of' has bad magic number, it looks like it was already deallocated.", h)
		}
		exception.Throw(errors.ValueError,
			"Pointer '%p' passed to 'type_of' has bad magic number, perhaps it wasn't allocated by the runtime.", h)
	}
	if h.typ == nil {
		return TypeType
	}
	return h.typ
}

// IsType reports whether obj's type is t.
func IsType(obj Object, t *Type) bool {
	return obj != nil && TypeOf(obj) == t
}
