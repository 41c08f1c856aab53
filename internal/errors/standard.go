// Package errors defines the runtime's error kinds and the error value
// carried by a throw.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCategory groups error kinds for reporting.
type ErrorCategory string

const (
	CategoryMemory     ErrorCategory = "MEMORY"
	CategoryType       ErrorCategory = "TYPE"
	CategoryBounds     ErrorCategory = "BOUNDS"
	CategoryValidation ErrorCategory = "VALIDATION"
	CategoryResource   ErrorCategory = "RESOURCE"
	CategorySystem     ErrorCategory = "SYSTEM"
	CategorySignal     ErrorCategory = "SIGNAL"
)

// Kind is a singleton error kind. Kinds are compared by identity.
type Kind struct {
	Name     string
	Category ErrorCategory
}

// Error lets a Kind be used as an errors.Is target.
func (k *Kind) Error() string { return k.Name }

func (k *Kind) String() string { return k.Name }

var (
	TypeError             = &Kind{Name: "TypeError", Category: CategoryType}
	ValueError            = &Kind{Name: "ValueError", Category: CategoryValidation}
	ClassError            = &Kind{Name: "ClassError", Category: CategoryType}
	IndexOutOfBoundsError = &Kind{Name: "IndexOutOfBoundsError", Category: CategoryBounds}
	KeyError              = &Kind{Name: "KeyError", Category: CategoryBounds}
	OutOfMemoryError      = &Kind{Name: "OutOfMemoryError", Category: CategoryMemory}
	IOError               = &Kind{Name: "IOError", Category: CategorySystem}
	FormatError           = &Kind{Name: "FormatError", Category: CategoryValidation}
	BusyError             = &Kind{Name: "BusyError", Category: CategoryResource}
	ResourceError         = &Kind{Name: "ResourceError", Category: CategoryResource}

	ProgramAbortedError     = &Kind{Name: "ProgramAbortedError", Category: CategorySignal}
	DivisionByZeroError     = &Kind{Name: "DivisionByZeroError", Category: CategorySignal}
	IllegalInstructionError = &Kind{Name: "IllegalInstructionError", Category: CategorySignal}
	ProgramInterruptedError = &Kind{Name: "ProgramInterruptedError", Category: CategorySignal}
	SegmentationError       = &Kind{Name: "SegmentationError", Category: CategorySignal}
	ProgramTerminationError = &Kind{Name: "ProgramTerminationError", Category: CategorySignal}
)

// Kinds returns every predefined kind in declaration order.
func Kinds() []*Kind {
	return []*Kind{
		TypeError, ValueError, ClassError, IndexOutOfBoundsError, KeyError,
		OutOfMemoryError, IOError, FormatError, BusyError, ResourceError,
		ProgramAbortedError, DivisionByZeroError, IllegalInstructionError,
		ProgramInterruptedError, SegmentationError, ProgramTerminationError,
	}
}

// Error is a thrown kind together with its formatted message.
type Error struct {
	Kind    *Kind
	Message string
	Context map[string]interface{}
	Caller  string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Name
	}
	return fmt.Sprintf("%s: %s", e.Kind.Name, e.Message)
}

// Is reports whether target is this error's kind, or an Error of the same kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind, recording the calling function.
func New(kind *Kind, message string, context map[string]interface{}) *Error {
	return newAt(2, kind, message, context)
}

// Newf creates an error with a formatted message.
func Newf(kind *Kind, format string, args ...interface{}) *Error {
	return newAt(2, kind, fmt.Sprintf(format, args...), nil)
}

// NewAt is New with an explicit number of frames to skip when recording the caller.
func NewAt(skip int, kind *Kind, message string, context map[string]interface{}) *Error {
	return newAt(skip+2, kind, message, context)
}

func newAt(skip int, kind *Kind, message string, context map[string]interface{}) *Error {
	pc, _, _, ok := runtime.Caller(skip)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Context: context,
		Caller:  caller,
	}
}

// KindOf returns the kind of err, or nil when err is not a runtime error.
func KindOf(err error) *Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	var k *Kind
	if stderrors.As(err, &k) {
		return k
	}
	return nil
}

// Common error constructors

func IndexOutOfBounds(index, length int, container string) *Error {
	return newAt(2, IndexOutOfBoundsError,
		fmt.Sprintf("Index '%d' out of bounds for %s of size %d.", index, container, length),
		map[string]interface{}{"index": index, "length": length})
}

func NotImplemented(typeName, capability string) *Error {
	return newAt(2, ClassError,
		fmt.Sprintf("Type '%s' does not implement class '%s'", typeName, capability),
		map[string]interface{}{"type": typeName, "class": capability})
}

func MethodMissing(typeName, capability, method string) *Error {
	return newAt(2, ClassError,
		fmt.Sprintf("Type '%s' implements class '%s' but not the method '%s' required", typeName, capability, method),
		map[string]interface{}{"type": typeName, "class": capability, "method": method})
}

func KeyMissing(key, container string) *Error {
	return newAt(2, KeyError,
		fmt.Sprintf("Key %s not in %s!", key, container),
		map[string]interface{}{"key": key})
}

func EmptyPop(container string) *Error {
	return newAt(2, IndexOutOfBoundsError,
		fmt.Sprintf("Cannot pop. %s is empty!", container), nil)
}
