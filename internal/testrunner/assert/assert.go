// Package assert provides test assertions for runtime objects and throws.
package assert

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Equal asserts that two comparable values are equal.
// It reports an error and returns false when they differ.
func Equal[T comparable](t testing.TB, got, want T, msgAndArgs ...any) bool {
	t.Helper()
	if got != want {
		fail(t, "Equal", got, want, msgAndArgs...)
		return false
	}
	return true
}

// NotEqual asserts that two comparable values are not equal.
func NotEqual[T comparable](t testing.TB, got, notWant T, msgAndArgs ...any) bool {
	t.Helper()
	if got == notWant {
		fail(t, "NotEqual", got, notWant, msgAndArgs...)
		return false
	}
	return true
}

// True asserts that cond is true.
func True(t testing.TB, cond bool, msgAndArgs ...any) bool {
	t.Helper()
	if !cond {
		failMsg(t, "True", "condition is false", msgAndArgs...)
		return false
	}
	return true
}

// False asserts that cond is false.
func False(t testing.TB, cond bool, msgAndArgs ...any) bool {
	t.Helper()
	if cond {
		failMsg(t, "False", "condition is true", msgAndArgs...)
		return false
	}
	return true
}

// NoError asserts that err is nil.
func NoError(t testing.TB, err error, msgAndArgs ...any) bool {
	t.Helper()
	if err != nil {
		failMsg(t, "NoError", fmt.Sprintf("unexpected error: %v", err), msgAndArgs...)
		return false
	}
	return true
}

// ErrorIs asserts that err matches target via errors.Is.
func ErrorIs(t testing.TB, err, target error, msgAndArgs ...any) bool {
	t.Helper()
	if !stderrors.Is(err, target) {
		failMsg(t, "ErrorIs", fmt.Sprintf("%v is not %v", err, target), msgAndArgs...)
		return false
	}
	return true
}

// Contains asserts that 's' contains 'substr'.
func Contains(t testing.TB, s, substr string, msgAndArgs ...any) bool {
	t.Helper()
	if !strings.Contains(s, substr) {
		failMsg(t, "Contains", fmt.Sprintf("%q does not contain %q", s, substr), msgAndArgs...)
		return false
	}
	return true
}

// Panics asserts that fn panics. It returns true when a panic occurs.
func Panics(t testing.TB, fn func(), msgAndArgs ...any) (panicked bool) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			panicked = true
		}
	}()
	fn()
	if !panicked {
		failMsg(t, "Panics", "function did not panic", msgAndArgs...)
	}
	return panicked
}

// Throws asserts that fn throws an error of the given kind and returns it.
// The throw is caught by a fresh exception state.
func Throws(t testing.TB, kind *errors.Kind, fn func(), msgAndArgs ...any) *errors.Error {
	t.Helper()
	err := exception.NewState().Try(fn)
	if err == nil {
		failMsg(t, "Throws", fmt.Sprintf("expected %s, nothing was thrown", kind), msgAndArgs...)
		return nil
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != kind {
		failMsg(t, "Throws", fmt.Sprintf("expected %s, got %v", kind, err), msgAndArgs...)
		return nil
	}
	return e
}

// ThrowsMessage asserts that fn throws kind with exactly the given message.
func ThrowsMessage(t testing.TB, kind *errors.Kind, message string, fn func(), msgAndArgs ...any) bool {
	t.Helper()
	e := Throws(t, kind, fn, msgAndArgs...)
	if e == nil {
		return false
	}
	if e.Message != message {
		failMsg(t, "ThrowsMessage", fmt.Sprintf("message %q, want %q", e.Message, message), msgAndArgs...)
		return false
	}
	return true
}

// NoThrow asserts that fn completes without throwing.
func NoThrow(t testing.TB, fn func(), msgAndArgs ...any) bool {
	t.Helper()
	if err := exception.NewState().Try(fn); err != nil {
		failMsg(t, "NoThrow", fmt.Sprintf("unexpected throw: %v", err), msgAndArgs...)
		return false
	}
	return true
}

// Shows asserts that obj renders as want.
func Shows(t testing.TB, obj object.Object, want string, msgAndArgs ...any) bool {
	t.Helper()
	if got := object.Show(obj); got != want {
		failMsg(t, "Shows", fmt.Sprintf("got %s, want %s", got, want), msgAndArgs...)
		return false
	}
	return true
}

// ObjEqual asserts that two objects compare equal.
func ObjEqual(t testing.TB, got, want object.Object, msgAndArgs ...any) bool {
	t.Helper()
	if !object.Eq(got, want) {
		failMsg(t, "ObjEqual", fmt.Sprintf("got %s, want %s", object.Show(got), object.Show(want)), msgAndArgs...)
		return false
	}
	return true
}

// Len asserts that a collection object holds want items.
func Len(t testing.TB, obj object.Object, want int, msgAndArgs ...any) bool {
	t.Helper()
	if l := object.Len(obj); l != want {
		failMsg(t, "Len", fmt.Sprintf("got len=%d, want %d", l, want), msgAndArgs...)
		return false
	}
	return true
}

// Live asserts that obj has not been deallocated.
func Live(t testing.TB, obj object.Object, msgAndArgs ...any) bool {
	t.Helper()
	if !object.HeaderOf(obj).Live() {
		failMsg(t, "Live", "object was deallocated", msgAndArgs...)
		return false
	}
	return true
}

// Dead asserts that obj has been deallocated.
func Dead(t testing.TB, obj object.Object, msgAndArgs ...any) bool {
	t.Helper()
	if object.HeaderOf(obj).Live() {
		failMsg(t, "Dead", "object is still live", msgAndArgs...)
		return false
	}
	return true
}

// Eventually asserts that condition becomes true within duration, checking every interval.
func Eventually(t testing.TB, condition func() bool, within, interval time.Duration, msgAndArgs ...any) bool {
	t.Helper()
	deadline := time.Now().Add(within)
	for {
		if condition() {
			return true
		}
		if time.Now().After(deadline) {
			failMsg(t, "Eventually", "condition not met within duration", msgAndArgs...)
			return false
		}
		time.Sleep(interval)
	}
}

// fail formats a standard mismatch error with caller information.
func fail[T any](t testing.TB, op string, got, want T, msgAndArgs ...any) {
	loc := caller()
	base := fmt.Sprintf("%s: got=%v want=%v (%T/%T) at %s", op, got, want, got, want, loc)
	if len(msgAndArgs) > 0 {
		base += ": " + fmt.Sprint(msgAndArgs...)
	}
	t.Error(base)
}

func failMsg(t testing.TB, op string, detail string, msgAndArgs ...any) {
	loc := caller()
	base := fmt.Sprintf("%s: %s at %s", op, detail, loc)
	if len(msgAndArgs) > 0 {
		base += ": " + fmt.Sprint(msgAndArgs...)
	}
	t.Error(base)
}

func caller() string {
	// Skip runtime frames and assertion functions to point at the test site.
	for i := 2; i < 10; i++ {
		if pc, file, line, ok := runtime.Caller(i); ok {
			fn := runtime.FuncForPC(pc)
			name := ""
			if fn != nil {
				name = fn.Name()
			}
			if !strings.Contains(name, "assert.") {
				return fmt.Sprintf("%s:%d", file, line)
			}
		}
	}
	return "unknown:0"
}
