package concurrency

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/orizon-lang/objrt/internal/errors"
	"github.com/orizon-lang/objrt/internal/exception"
	"github.com/orizon-lang/objrt/internal/object"
)

// Mutex is a mutual exclusion lock. It implements both the Lock and the
// Start protocols, so object.With(m, fn) runs fn while holding it.
type Mutex struct {
	object.Header

	mu    sync.Mutex
	held  atomic.Bool
	owner atomic.Pointer[Thread]
}

// MutexType is the runtime type of Mutex.
var MutexType *object.Type

func init() {
	lock := func(self object.Object) { self.(*Mutex).Lock() }
	unlock := func(self object.Object) { self.(*Mutex).Unlock() }

	MutexType = object.Define[Mutex]("Mutex",
		&object.DocOps{
			Name:  "Mutex",
			Brief: "Mutual Exclusion Lock",
			Description: "The Mutex type gives threads mutual exclusion over some resource. " +
				"Unlocking a Mutex that is not held throws a ResourceError.",
			Examples: []string{
				"m := concurrency.NewMutex()\nobject.With(m, func() {\n\t// locked\n})",
			},
		},
		&object.NewOps{
			New: func(self object.Object, args []object.Object) {},
			Del: func(self object.Object) {
				if self.(*Mutex).Held() {
					exception.Throw(errors.ResourceError, "Cannot delete a held Mutex")
				}
			},
		},
		&object.LockOps{
			Lock:    lock,
			Unlock:  unlock,
			TryLock: func(self object.Object) bool { return self.(*Mutex).TryLock() },
		},
		&object.StartOps{
			Start:   lock,
			Stop:    unlock,
			Running: func(self object.Object) bool { return self.(*Mutex).Held() },
		},
		&object.ShowOps{Show: func(self object.Object, b *strings.Builder) {
			fmt.Fprintf(b, "<'Mutex' At %p held=%t>", self, self.(*Mutex).Held())
		}},
	)
}

// NewMutex allocates an unlocked heap Mutex.
func NewMutex() *Mutex {
	return object.New(MutexType).(*Mutex)
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.mu.Lock()
	m.acquired()
}

// TryLock acquires the mutex if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	if !m.mu.TryLock() {
		return false
	}
	m.acquired()
	return true
}

// Acquire takes the mutex without blocking. It throws ResourceError when
// the calling thread already holds it and BusyError when another does.
func (m *Mutex) Acquire() {
	if m.TryLock() {
		return
	}
	if t := registered(); t != nil && m.owner.Load() == t {
		exception.Throw(errors.ResourceError, "Attempt to relock already held mutex")
	}
	exception.Throw(errors.BusyError, "Mutex is held by another thread")
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	if !m.held.CompareAndSwap(true, false) {
		exception.Throw(errors.ResourceError, "Mutex cannot be held by caller")
	}
	m.owner.Store(nil)
	m.mu.Unlock()
}

// Held reports whether some thread holds the mutex.
func (m *Mutex) Held() bool { return m.held.Load() }

// Owner returns the runtime thread holding the mutex, or nil when it is
// free or held by a goroutine that is not running a thread body.
func (m *Mutex) Owner() *Thread { return m.owner.Load() }

func (m *Mutex) acquired() {
	m.owner.Store(registered())
	m.held.Store(true)
}
