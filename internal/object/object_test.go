package object

import (
	"strings"
	"sync"
	"testing"

	"github.com/orizon-lang/objrt/internal/allocator"
	"github.com/orizon-lang/objrt/internal/config"
	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
)

type point struct {
	Header
	X, Y int64
}

var pointType = Define[point]("Point")

func newPoint(x, y int64) *point {
	p := Alloc(pointType).(*point)
	p.X, p.Y = x, y
	return p
}

func throws(t *testing.T, kind *errors.Kind, fn func()) *errors.Error {
	t.Helper()
	err := exception.NewState().Try(fn)
	if err == nil {
		t.Fatalf("expected %s, nothing was thrown", kind)
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != kind {
		t.Fatalf("expected %s, got %v", kind, err)
	}
	return e
}

func TestDefineRequiresLeadingHeader(t *testing.T) {
	type bad struct {
		X int
		Header
	}
	defer func() {
		if recover() == nil {
			t.Fatal("Define should reject a type without a leading header")
		}
	}()
	Define[bad]("Bad")
}

func TestDispatchCache(t *testing.T) {
	typ := Define[point]("CachedPoint", &LenOps{Len: func(Object) int { return 2 }})

	if typ.Cached(CapLen) {
		t.Fatal("nothing should be cached before the first lookup")
	}
	first := typ.Instance(CapLen)
	if first == nil || !typ.Cached(CapLen) {
		t.Fatal("hot capability should be cached after lookup")
	}
	if typ.Instance(CapCmp) != nil || !typ.Cached(CapCmp) {
		t.Error("a missing hot capability should be cached as absent")
	}
	if typ.Instance(CapCmp) != nil || Implements(Stack(typ), CapCmp) {
		t.Error("a cached miss still reports no instance")
	}

	var wg sync.WaitGroup
	results := make([]Instance, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = typ.Instance(CapLen)
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if r != first {
			t.Errorf("lookup %d returned a different instance", i)
		}
	}
}

func TestSized(t *testing.T) {
	always := Define[point]("SizedPoint", &LenOps{Len: func(Object) int { return 2 }})
	never := Define[point]("UnsizedPoint", &LenOps{
		Len:   func(Object) int { return 0 },
		Sized: func(Object) bool { return false },
	})

	if !Sized(Stack(always)) {
		t.Error("a Len operation without Sized reports a length")
	}
	if Sized(Stack(never)) {
		t.Error("Sized overrides the Len operation")
	}
	if Sized(I(1)) {
		t.Error("Int has no length")
	}
}

func TestImplementsMethod(t *testing.T) {
	if !StringType.ImplementsMethod(CapGet, "Mem") {
		t.Error("String provides Mem")
	}
	if StringType.ImplementsMethod(CapGet, "Get") {
		t.Error("String does not provide Get")
	}
	if IntType.ImplementsMethod(CapIter, "Init") {
		t.Error("Int is not iterable")
	}
}

func TestTypeOfIntegrity(t *testing.T) {
	i := NewInt(3)
	if TypeOf(i) != IntType {
		t.Fatalf("TypeOf = %s", TypeOf(i))
	}
	if TypeOf(IntType) != TypeType || TypeOf(TypeType) != TypeType {
		t.Error("types should be of type Type")
	}

	Del(i)
	e := throws(t, errors.ValueError, func() { TypeOf(i) })
	if !strings.Contains(e.Message, "already deallocated") {
		t.Errorf("message = %q", e.Message)
	}

	e = throws(t, errors.ValueError, func() { TypeOf(&Int{Val: 1}) })
	if !strings.Contains(e.Message, "wasn't allocated by the runtime") {
		t.Errorf("message = %q", e.Message)
	}

	prev := config.Apply(config.Switches{})
	defer config.Apply(prev)
	if TypeOf(&Int{Header: Header{typ: IntType}}) != IntType {
		t.Error("magic checks disabled should skip validation")
	}
}

func TestDefaultProtocols(t *testing.T) {
	a, b := newPoint(1, 2), newPoint(3, 4)

	if Eq(a, b) || !Eq(a, a) {
		t.Error("byte comparison of payloads")
	}

	Assign(a, b)
	if a.X != 3 || a.Y != 4 {
		t.Errorf("Assign copied %+v", a)
	}
	if HeaderOf(a).Alloc() != AllocHeap || TypeOf(a) != pointType {
		t.Error("Assign must keep the destination header")
	}
	if Hash(a) != Hash(b) {
		t.Error("equal objects must hash equally")
	}

	c := Copy(a).(*point)
	if c == a || !Eq(c, a) {
		t.Error("Copy should produce an equal, distinct object")
	}

	c.X = 9
	Swap(a, c)
	if a.X != 9 || c.X != 3 {
		t.Errorf("Swap gave a=%d c=%d", a.X, c.X)
	}

	e := throws(t, errors.TypeError, func() { Assign(a, I(1)) })
	if e.Message != "Cannot assign type Int to type Point" {
		t.Errorf("message = %q", e.Message)
	}

	if s := Show(a); !strings.HasPrefix(s, "<'Point' At 0x") {
		t.Errorf("default Show = %q", s)
	}

	if New(pointType, b).(*point).X != 3 {
		t.Error("single argument construction assigns")
	}
}

func TestClassErrors(t *testing.T) {
	e := throws(t, errors.ClassError, func() { Len(I(1)) })
	if e.Message != "Type 'Int' does not implement class 'Len'" {
		t.Errorf("message = %q", e.Message)
	}

	e = throws(t, errors.ClassError, func() { Get(S("abc"), I(0)) })
	if e.Message != "Type 'String' implements class 'Get' but not the method 'get' required" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestProvenance(t *testing.T) {
	e := throws(t, errors.ResourceError, func() { Dealloc(I(1)) })
	if !strings.Contains(e.Message, "stack") {
		t.Errorf("message = %q", e.Message)
	}
	throws(t, errors.ResourceError, func() { Dealloc(Terminal) })
	throws(t, errors.ResourceError, func() { Dealloc(nil) })

	before := allocator.GetStats().BytesInUse
	s := NewString("x")
	Del(s)
	if allocator.GetStats().BytesInUse != before {
		t.Error("heap accounting should balance")
	}
	if HeaderOf(s).Live() {
		t.Error("deallocated object should carry the dead tag")
	}
}

func TestMemoryLimit(t *testing.T) {
	cfg := config.Default()
	cfg.MemoryLimit = allocator.GetStats().BytesInUse + 1
	prev := config.Apply(cfg)
	defer config.Apply(prev)

	e := throws(t, errors.OutOfMemoryError, func() { NewInt(1) })
	if e.Message != "Cannot create new 'Int', out of memory!" {
		t.Errorf("message = %q", e.Message)
	}

	// Temporaries are not charged.
	if I(2).Val != 2 {
		t.Error("stack objects ignore the limit")
	}
}

type tracker struct{ untracked []Object }

func (tr *tracker) Untrack(obj Object) { tr.untracked = append(tr.untracked, obj) }

func TestDeallocUntracks(t *testing.T) {
	tr := &tracker{}
	i := NewInt(5)
	HeaderOf(i).SetTracker(tr)
	Dealloc(i)
	if len(tr.untracked) != 1 || tr.untracked[0] != Object(i) {
		t.Errorf("tracker saw %v", tr.untracked)
	}
}

func TestHashData(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"", 0xfc7b4ac02e6776a6},
		{"hello", 0x54ad9208810d54ba},
		{"hello, world", 0x483353a4c4659c46},
	}
	for _, tt := range tests {
		if got := HashData([]byte(tt.in)); got != tt.want {
			t.Errorf("HashData(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
	if Hash(S("hello")) != 0x54ad9208810d54ba {
		t.Error("String hashes its bytes")
	}
}

func TestBuiltins(t *testing.T) {
	if Show(I(-42)) != "-42" || Show(F(1.5)) != "1.5" {
		t.Error("number rendering")
	}
	if Show(S("a\"b")) != `"a\"b"` {
		t.Errorf("String Show = %s", Show(S("a\"b")))
	}
	if Cmp(I(3), F(3.0)) != 0 || !Lt(I(2), I(3)) {
		t.Error("Int compares through C_Int")
	}

	n := NewInt(0)
	if used := Look(n, "123 rest"); used != 3 || n.Val != 123 {
		t.Errorf("Look consumed %d, value %d", used, n.Val)
	}
	s := NewString("")
	if used := Look(s, `"hi there" tail`); used != 10 || s.Val != "hi there" {
		t.Errorf("Look consumed %d, value %q", used, s.Val)
	}

	r := R(I(7))
	if Show(r) != "7" || !Eq(r, I(7)) || Hash(r) != Hash(I(7)) {
		t.Error("Ref should be transparent")
	}
	if Deref(r).(*Int).Val != 7 {
		t.Error("Deref")
	}

	target := NewInt(1)
	Del(NewBox(target))
	if HeaderOf(target).Live() {
		t.Error("deleting a Box deletes its target")
	}

	sum := Fn(func(args []Object) Object {
		total := int64(0)
		for _, a := range args {
			total += CInt(a)
		}
		return I(total)
	})
	if CInt(Call(sum, I(1), I(2))) != 3 {
		t.Error("Call")
	}
}

func TestCast(t *testing.T) {
	i := I(1)
	if Cast(i, IntType) != Object(i) {
		t.Error("Cast to own type returns the object")
	}
	e := throws(t, errors.ValueError, func() { Cast(i, FloatType) })
	if e.Message != "cast expected type Float, got type Int" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestHelp(t *testing.T) {
	h := Help(IntType)
	for _, want := range []string{"# Int", "Integer Object", "## Instances", "C_Int"} {
		if !strings.Contains(h, want) {
			t.Errorf("Help(Int) missing %q:\n%s", want, h)
		}
	}
	if !strings.Contains(Help(pointType), "No documentation") {
		t.Error("undocumented types say so")
	}
}
