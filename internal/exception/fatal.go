package exception

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/orizon-lang/objrt/internal/errors"
)

// Exception is the report handed to an ExceptionHandler for a fatal condition.
type Exception struct {
	Kind           *errors.Kind // nil for internal faults
	Message        string
	Location       string
	StackTrace     []StackFrame
	InnerException *Exception
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
	PC       uintptr
}

// ExceptionHandler receives fatal reports. A handler that returns instead of
// terminating the process makes the failing call panic with the report.
type ExceptionHandler interface {
	HandleException(exception *Exception) bool
}

// AbortHandler prints the report and terminates the process.
type AbortHandler struct {
	ShowStackTrace bool
	LogToFile      bool
	LogFile        string
	Output         io.Writer  // defaults to os.Stderr
	Exit           func(int) // defaults to os.Exit
}

// HandleException implements the abort strategy
func (ah *AbortHandler) HandleException(exception *Exception) bool {
	out := ah.Output
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprint(out, ah.formatException(exception))

	if ah.ShowStackTrace && len(exception.StackTrace) > 0 {
		fmt.Fprintf(out, "!!\tStack trace:\n!!\n")
		for i, frame := range exception.StackTrace {
			fmt.Fprintf(out, "!!\t  %d: %s at %s:%d\n", i, frame.Function, frame.File, frame.Line)
		}
		fmt.Fprintf(out, "!!\n")
	}

	if ah.LogToFile && ah.LogFile != "" {
		ah.logToFile(exception)
	}

	exit := ah.Exit
	if exit == nil {
		exit = os.Exit
	}
	exit(1)
	return true
}

func (ah *AbortHandler) formatException(exception *Exception) string {
	var b strings.Builder

	if exception.Kind == nil {
		b.WriteString(fmt.Sprintf("FATAL: %s\n", exception.Message))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("!!\tUncaught %s\n!!\n", exception.Kind.Name))
	if exception.Message != "" {
		b.WriteString(fmt.Sprintf("!!\t%s\n", exception.Message))
	}
	if exception.Location != "" {
		b.WriteString(fmt.Sprintf("!!\tthrown by %s\n", exception.Location))
	}
	b.WriteString("!!\n")

	if exception.InnerException != nil {
		b.WriteString("!!\tCaused by:\n")
		b.WriteString(ah.formatException(exception.InnerException))
	}

	return b.String()
}

func (ah *AbortHandler) logToFile(exception *Exception) {
	file, err := os.OpenFile(ah.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return
	}
	defer file.Close()

	fmt.Fprintf(file, "[%s] %s", time.Now().Format(time.RFC3339), ah.formatException(exception))
}

var (
	handlerMu      sync.RWMutex
	currentHandler ExceptionHandler = &AbortHandler{ShowStackTrace: true}
)

// SetExceptionHandler replaces the process-wide fatal handler and returns the
// previous one.
func SetExceptionHandler(handler ExceptionHandler) ExceptionHandler {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	prev := currentHandler
	currentHandler = handler
	return prev
}

func handler() ExceptionHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return currentHandler
}

// Fatal reports an uncaught error and terminates.
func Fatal(err *errors.Error) {
	exception := &Exception{
		Kind:       err.Kind,
		Message:    err.Message,
		Location:   err.Caller,
		StackTrace: captureStackTrace(),
	}
	handler().HandleException(exception)
	panic(exception)
}

// Abort reports an internal fault. These bypass the throw mechanism because
// the frame stack itself may be inconsistent.
func Abort(message string) {
	exception := &Exception{
		Message:    message,
		Location:   getCallerLocation(),
		StackTrace: captureStackTrace(),
	}
	handler().HandleException(exception)
	panic(exception)
}

// getCallerLocation returns the location of the caller
func getCallerLocation() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}

	if lastSlash := strings.LastIndex(file, "/"); lastSlash >= 0 {
		file = file[lastSlash+1:]
	}

	return fmt.Sprintf("%s:%d", file, line)
}

// captureStackTrace captures the current stack trace
func captureStackTrace() []StackFrame {
	const maxFrames = 32
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pcs)

	frames := make([]StackFrame, 0, n)
	iter := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := iter.Next()

		name := frame.Function
		if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
			name = name[lastDot+1:]
		}

		file := frame.File
		if lastSlash := strings.LastIndex(file, "/"); lastSlash >= 0 {
			file = file[lastSlash+1:]
		}

		if name != "" {
			frames = append(frames, StackFrame{
				Function: name,
				File:     file,
				Line:     frame.Line,
				PC:       frame.PC,
			})
		}

		if !more {
			break
		}
	}

	return frames
}
