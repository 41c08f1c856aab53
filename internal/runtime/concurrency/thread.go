// Package concurrency provides threads, mutexes and thread groups for the
// object runtime.
//
// A Thread runs its body on a goroutine locked to its own OS thread. Before
// the body runs the thread provisions a private collector, exception state
// and thread-local table; the collector and exception state are torn down
// when the body returns. The running Thread is handed to the body, so code
// reaches its per-thread context explicitly instead of through globals.
package concurrency

import (
	"cmp"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
	"github.com/orizon-lang/objrt/internal/runtime/gc"
	"github.com/orizon-lang/objrt/internal/stdlib/collections"
)

// Logger receives thread diagnostics.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

type loggerBox struct{ Logger }

var logger atomic.Value

// SetLogger installs the logger used by threads started afterwards. A nil
// logger discards diagnostics.
func SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	logger.Store(loggerBox{l})
}

func log() Logger {
	if b, ok := logger.Load().(loggerBox); ok {
		return b.Logger
	}
	return nopLogger{}
}

// Body is a thread entry point. It receives the running thread, which
// carries the thread's collector, exception state and local storage.
type Body func(t *Thread, args []object.Object) object.Object

// Thread is a runtime thread. Its local storage maps String keys to
// references and is a root of the thread's collector.
type Thread struct {
	object.Header

	fn    object.Object
	body  Body
	tls   *collections.Table
	label uuid.UUID
	main  bool

	id      atomic.Int64
	running atomic.Bool
	gc      atomic.Pointer[gc.GC]
	exc     atomic.Pointer[exception.State]

	done   chan struct{}
	result object.Object
	err    error
}

// ThreadType is the runtime type of Thread.
var ThreadType *object.Type

// ids numbers threads when the OS thread id is unavailable.
var ids atomic.Int64

func init() {
	gc.SetCurrent(func() *gc.GC { return Current().GC() })

	ThreadType = object.Define[Thread]("Thread",
		&object.DocOps{
			Name:  "Thread",
			Brief: "Concurrent Execution",
			Description: "The Thread type runs a callable on its own OS thread. Calling a Thread " +
				"starts it with the call's arguments; each thread gets its own collector, " +
				"exception state and thread-local storage, reached with Get and Set.",
			Examples: []string{
				"t := object.New(concurrency.ThreadType, object.NewFunction(work))\n" +
					"object.Call(t, object.I(1))\nobject.Join(t)",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {
				t := self.(*Thread)
				t.reset()
				if len(args) > 0 {
					t.fn = args[0]
				}
			},
			Del: func(self object.Object) {
				t := self.(*Thread)
				if t.main {
					exception.Throw(errors.ResourceError, "Cannot delete the main thread")
				}
				if t.Running() && registered() != t {
					t.Join()
				}
				if t.tls != nil {
					object.Del(t.tls)
					t.tls = nil
				}
			},
		},
		&object.AssignOps{Assign: func(self, obj object.Object) {
			t, o := self.(*Thread), object.Cast(obj, ThreadType).(*Thread)
			if t.tls == nil {
				t.reset()
			}
			t.fn, t.body = o.fn, o.body
			object.Assign(t.tls, o.tls)
		}},
		&object.CmpOps{Cmp: func(self, obj object.Object) int {
			return cmp.Compare(self.(*Thread).ID(), object.Cast(obj, ThreadType).(*Thread).ID())
		}},
		&object.HashOps{Hash: func(self object.Object) uint64 { return uint64(self.(*Thread).ID()) }},
		&object.MarkOps{Mark: func(self object.Object, visit func(object.Object)) {
			if tls := self.(*Thread).tls; tls != nil {
				visit(tls)
			}
		}},
		&object.CallOps{Call: func(self object.Object, args []object.Object) object.Object {
			return self.(*Thread).Call(args...)
		}},
		&object.CurrentOps{Current: func() object.Object { return Current() }},
		&object.StartOps{
			Start:   func(self object.Object) { self.(*Thread).Call() },
			Stop:    func(self object.Object) { self.(*Thread).Stop() },
			Join:    func(self object.Object) { self.(*Thread).Join() },
			Running: func(self object.Object) bool { return self.(*Thread).Running() },
		},
		&object.CIntOps{CInt: func(self object.Object) int64 {
			t := self.(*Thread)
			if !t.Running() {
				exception.Throw(errors.ValueError, "Cannot get thread ID, thread not running!")
			}
			return t.ID()
		}},
		&object.GetOps{
			Get:     func(self, k object.Object) object.Object { return self.(*Thread).Get(k) },
			Set:     func(self, k, v object.Object) { self.(*Thread).Set(k, v) },
			Mem:     func(self, k object.Object) bool { return self.(*Thread).Mem(k) },
			Rem:     func(self, k object.Object) { self.(*Thread).Rem(k) },
			KeyType: func(self object.Object) *object.Type { return object.StringType },
			ValType: func(self object.Object) *object.Type { return object.RefType },
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			t := self.(*Thread)
			fmt.Fprintf(b, "<'Thread' At %p %s id=%d running=%t>", t, t.label, t.ID(), t.Running())
		}},
	)
}

// NewThread allocates a heap Thread that runs body when called.
func NewThread(body Body) *Thread {
	t := object.New(ThreadType).(*Thread)
	t.body = body
	return t
}

func (t *Thread) reset() {
	t.tls = collections.NewTable(object.StringType, object.RefType)
	t.label = uuid.New()
}

// Call starts the thread with args and returns once the thread has
// provisioned its collector and exception state. The argument slice is
// copied; the objects in it are shared with the new thread.
func (t *Thread) Call(args ...object.Object) *Thread {
	if t.main {
		exception.Throw(errors.ResourceError, "Cannot start the main thread")
	}
	if t.fn == nil && t.body == nil {
		exception.Throw(errors.ValueError, "Thread has no function to run")
	}
	if !t.running.CompareAndSwap(false, true) {
		exception.Throw(errors.BusyError, "Thread %s is already running", t.label)
	}

	t.done = make(chan struct{})
	t.result, t.err = nil, nil
	ready := make(chan struct{})
	go t.run(append([]object.Object(nil), args...), ready)
	<-ready
	return t
}

func (t *Thread) run(args []object.Object, ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	id := threadID()
	t.id.Store(id)
	exc := exception.NewState()
	collector := gc.New(gc.WithRoots(t.roots), gc.WithLogger(log()))
	t.exc.Store(exc)
	t.gc.Store(collector)
	threads.store(id, t)
	log().Debug("thread %s: started on OS thread %d", t.label, id)
	close(ready)

	defer func() {
		threads.remove(id, t)
		if t.result != nil && collector.Mem(t.result) {
			collector.Rem(t.result)
		}
		collector.Finish()
		t.gc.Store(nil)
		t.exc.Store(nil)
		t.running.Store(false)
		log().Debug("thread %s: finished", t.label)
		close(t.done)
	}()

	exc.Guard(func() {
		t.err = exc.Try(func() { t.result = t.invoke(args) })
		if t.err != nil {
			exc.Catch(t.err)
			log().Warn("thread %s: %v", t.label, t.err)
		}
	})
}

func (t *Thread) invoke(args []object.Object) object.Object {
	if t.body != nil {
		return t.body(t, args)
	}
	return object.Call(t.fn, args...)
}

func (t *Thread) roots(visit func(object.Object)) {
	if t.tls != nil {
		visit(t.tls)
	}
}

func threadID() int64 {
	if id, ok := osThreadID(); ok {
		return id
	}
	return ids.Add(1)
}

// Stop asks a running thread to stop. The thread receives a
// ProgramInterruptedError at its next poll point.
func (t *Thread) Stop() {
	exc := t.exc.Load()
	if exc == nil || !t.Running() {
		return
	}
	exc.Interrupt(errors.ProgramInterruptedError, fmt.Sprintf("Thread %s was stopped", t.label))
}

// Join blocks until the thread's body has returned. Joining a thread that
// was never started returns at once.
func (t *Thread) Join() {
	if t.main {
		return
	}
	if done := t.done; done != nil {
		<-done
	}
}

// Wait joins the thread and returns the error its body threw, if any.
func (t *Thread) Wait() error {
	t.Join()
	return t.err
}

// Result returns the value the body returned. It is valid after Join.
func (t *Thread) Result() object.Object { return t.result }

// Running reports whether the thread's body is executing.
func (t *Thread) Running() bool { return t.running.Load() }

// ID returns the OS thread id the thread last ran on, or 0 before its
// first start.
func (t *Thread) ID() int64 { return t.id.Load() }

// Label returns the thread's diagnostic label.
func (t *Thread) Label() uuid.UUID { return t.label }

// IsMain reports whether t is the main thread.
func (t *Thread) IsMain() bool { return t.main }

// GC returns the thread's collector, or nil when the thread is not running.
func (t *Thread) GC() *gc.GC { return t.gc.Load() }

// Exceptions returns the thread's exception state, or nil when the thread
// is not running.
func (t *Thread) Exceptions() *exception.State { return t.exc.Load() }

// Poll throws a pending stop request on the calling thread.
func (t *Thread) Poll() {
	if exc := t.exc.Load(); exc != nil {
		exc.Poll()
	}
}

// Get returns the thread-local value stored under key.
func (t *Thread) Get(key object.Object) object.Object {
	return object.Deref(t.tls.Get(key))
}

// Set stores a reference to val under key in thread-local storage.
func (t *Thread) Set(key, val object.Object) {
	t.tls.Set(key, object.R(val))
}

// Mem reports whether key is set in thread-local storage.
func (t *Thread) Mem(key object.Object) bool { return t.tls.Mem(key) }

// Rem removes key from thread-local storage.
func (t *Thread) Rem(key object.Object) { t.tls.Rem(key) }

var (
	mainOnce   sync.Once
	mainThread *Thread
)

// Main returns the main thread, creating it on first use. It stands for
// the program's main goroutine and owns a collector and exception state
// that only that goroutine may use.
func Main() *Thread {
	mainOnce.Do(func() {
		t := &Thread{main: true}
		object.InitHeader(t, ThreadType, object.AllocStatic)
		t.reset()
		t.id.Store(threadID())
		t.exc.Store(exception.NewState())
		t.gc.Store(gc.New(gc.WithRoots(t.roots), gc.WithLogger(log())))
		t.running.Store(true)
		mainThread = t
	})
	return mainThread
}

// Current returns the thread running the caller. Goroutines that are not
// running a thread body get the main thread.
func Current() *Thread {
	if t := registered(); t != nil {
		return t
	}
	return Main()
}

// registered returns the thread whose body runs on the calling OS thread.
func registered() *Thread {
	if id, ok := osThreadID(); ok {
		if t, ok := threads.load(id); ok {
			return t
		}
	}
	return nil
}

// Threads returns the threads currently running a body.
func Threads() []*Thread {
	var out []*Thread
	threads.each(func(_ int64, t *Thread) bool {
		out = append(out, t)
		return true
	})
	return out
}
