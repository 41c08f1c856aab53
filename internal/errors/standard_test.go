package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMatchesKindByIdentity(t *testing.T) {
	err := Newf(KeyError, "Key %s not in Table!", `"Apple"`)

	if !stderrors.Is(err, KeyError) {
		t.Fatalf("expected %v to match KeyError", err)
	}
	if stderrors.Is(err, ValueError) {
		t.Fatalf("KeyError must not match ValueError")
	}

	shadow := &Kind{Name: "KeyError", Category: CategoryBounds}
	if stderrors.Is(err, shadow) {
		t.Fatalf("kinds with equal names must still be distinct")
	}
}

func TestErrorMessageAndCaller(t *testing.T) {
	err := IndexOutOfBounds(5, 2, "Array")

	want := "IndexOutOfBoundsError: Index '5' out of bounds for Array of size 2."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !strings.Contains(err.Caller, "TestErrorMessageAndCaller") {
		t.Errorf("Caller = %q, want the test function", err.Caller)
	}
	if err.Context["index"] != 5 {
		t.Errorf("Context[index] = %v", err.Context["index"])
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New(IOError, "boom", nil))

	if k := KindOf(wrapped); k != IOError {
		t.Errorf("KindOf(wrapped) = %v, want IOError", k)
	}
	if k := KindOf(BusyError); k != BusyError {
		t.Errorf("KindOf(kind) = %v", k)
	}
	if k := KindOf(stderrors.New("plain")); k != nil {
		t.Errorf("KindOf(plain) = %v, want nil", k)
	}
}

func TestClassErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{NotImplemented("Int", "Iter"), "Type 'Int' does not implement class 'Iter'"},
		{MethodMissing("Array", "Get", "rem"), "Type 'Array' implements class 'Get' but not the method 'rem' required"},
		{EmptyPop("List"), "Cannot pop. List is empty!"},
	}

	for _, tt := range tests {
		if tt.err.Message != tt.want {
			t.Errorf("Message = %q, want %q", tt.err.Message, tt.want)
		}
	}
}

func TestKindsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range Kinds() {
		if seen[k.Name] {
			t.Fatalf("duplicate kind %s", k.Name)
		}
		seen[k.Name] = true
	}
	if len(seen) != 16 {
		t.Errorf("got %d kinds, want 16", len(seen))
	}
}
