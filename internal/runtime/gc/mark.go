package gc

import (
	"reflect"
	"unsafe"

	"github.com/orizon-lang/objrt/internal/object"
)

var objectIface = reflect.TypeFor[object.Object]()

// leaf reports types whose values never reference other objects.
func leaf(t *object.Type) bool {
	switch t {
	case object.IntType, object.FloatType, object.StringType, object.TypeType,
		object.FunctionType, object.TerminalType, object.UndefType:
		return true
	}
	return false
}

// marker walks the object graph for one mark phase.
type marker struct {
	gc      *GC
	pending []object.Object
	// untracked objects already scanned, so cycles through them terminate
	seen map[uintptr]struct{}
}

// Mark flags every tracked object reachable from the root sources, the root
// entries and the live scopes.
func (g *GC) Mark() {
	m := &marker{gc: g, seen: make(map[uintptr]struct{})}

	for _, src := range g.sources {
		src(m.push)
		m.drain()
	}

	for i := range g.table.entries {
		e := &g.table.entries[i]
		if e.hash != 0 && e.root && !e.marked {
			e.marked = true
			m.scan(e.obj)
			m.drain()
		}
	}

	for _, s := range g.scopes {
		for _, obj := range s.kept {
			m.push(obj)
		}
		m.drain()
	}
}

func (m *marker) push(obj object.Object) {
	if obj != nil {
		m.pending = append(m.pending, obj)
	}
}

func (m *marker) drain() {
	for len(m.pending) > 0 {
		obj := m.pending[len(m.pending)-1]
		m.pending = m.pending[:len(m.pending)-1]
		m.visit(obj)
	}
}

// visit marks a tracked object and scans it once. Untracked objects are
// scanned for the tracked objects they hold.
func (m *marker) visit(obj object.Object) {
	h := object.HeaderOf(obj)
	if !h.Live() {
		return
	}

	addr := object.Address(obj)
	if i, ok := m.gc.table.find(addr); ok {
		e := &m.gc.table.entries[i]
		if e.marked {
			return
		}
		e.marked = true
	} else {
		if _, ok := m.seen[addr]; ok {
			return
		}
		m.seen[addr] = struct{}{}
	}
	m.scan(obj)
}

// scan reports obj's references through its Mark instance, or by walking
// its fields when it has none.
func (m *marker) scan(obj object.Object) {
	t := object.TypeOf(obj)
	if leaf(t) {
		return
	}
	if inst, ok := t.Instance(object.CapMark).(*object.MarkOps); ok && inst.Mark != nil {
		inst.Mark(obj, m.push)
		return
	}
	v := reflect.ValueOf(obj).Elem()
	for i := 1; i < v.NumField(); i++ {
		m.scanValue(v.Field(i))
	}
}

// scanValue finds object references held directly in v, including inside
// nested structs, arrays and slices.
func (m *marker) scanValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.CanAddr() && !v.CanInterface() {
		v = reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() || !v.Type().Implements(objectIface) {
			return
		}
		if obj, ok := v.Interface().(object.Object); ok {
			m.push(obj)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			m.scanValue(v.Field(i))
		}
	case reflect.Slice, reflect.Array:
		if !holdsObjects(v.Type().Elem()) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			m.scanValue(v.Index(i))
		}
	}
}

func holdsObjects(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		return t.Implements(objectIface)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if holdsObjects(t.Field(i).Type) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		return holdsObjects(t.Elem())
	}
	return false
}

// Sweep destroys every tracked object that is neither marked nor a root,
// then clears the marks and shrinks the table.
func (g *GC) Sweep() {
	t := &g.table
	g.freelist = g.freelist[:0]

	for i := uint64(0); i < t.nslots(); {
		e := &t.entries[i]
		if e.hash == 0 || e.marked || e.root {
			i++
			continue
		}
		g.freelist = append(g.freelist, e.obj)
		// The shifted-in entry now occupies slot i.
		t.removeAt(i)
	}

	for i := range t.entries {
		t.entries[i].marked = false
	}

	g.mitems = t.nitems + t.nitems/2 + 1
	t.shrink()
	g.release()
}
